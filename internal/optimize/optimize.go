// Package optimize rewrites single-assignment resolved IR into a
// smaller equivalent form: constant folding, copy propagation, common
// subexpression elimination, and dead-code elimination, run to a
// fixpoint the way the teacher's bytecode optimizer runs its own pass
// list to a fixpoint (spec.md section 4.4).
package optimize

import (
	"math"

	"github.com/arblang/arblangc/internal/ir"
)

// PassID names one optimization pass, for enabling/disabling individual
// passes the way the teacher's OptimizationPass does for bytecode passes.
type PassID string

const (
	PassConstantFold    PassID = "constant-fold"
	PassCopyPropagate   PassID = "copy-propagate"
	PassCSE             PassID = "common-subexpression"
	PassDeadCodeElimine PassID = "dead-code"
)

// Option toggles an optimization pass.
type Option func(*config)

type config struct {
	enabled map[PassID]bool
}

func defaultConfig() config {
	return config{enabled: map[PassID]bool{
		PassConstantFold:    true,
		PassCopyPropagate:   true,
		PassCSE:             true,
		PassDeadCodeElimine: true,
	}}
}

func (c config) isEnabled(id PassID) bool {
	if c.enabled == nil {
		return true
	}
	v, ok := c.enabled[id]
	if !ok {
		return true
	}
	return v
}

// WithPass enables or disables a single named pass.
func WithPass(id PassID, enabled bool) Option {
	return func(c *config) {
		if c.enabled == nil {
			c.enabled = make(map[PassID]bool)
		}
		c.enabled[id] = enabled
	}
}

type pass struct {
	id  PassID
	run func(*ir.Mechanism) (*ir.Mechanism, bool)
}

// Optimizer drives the fixpoint loop over the fold/propagate/cse/dce
// pass list.
type Optimizer struct {
	cfg   config
	passes []pass
}

// New builds an Optimizer with every pass enabled unless overridden.
func New(opts ...Option) *Optimizer {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	o := &Optimizer{cfg: cfg}
	o.passes = []pass{
		{id: PassConstantFold, run: foldConstants},
		{id: PassCopyPropagate, run: propagateCopies},
		{id: PassCSE, run: eliminateCommonSubexpressions},
		{id: PassDeadCodeElimine, run: eliminateDeadCode},
	}
	return o
}

// maxIterations bounds the fixpoint loop so a pass bug can never hang
// the compiler; a well-formed mechanism converges in a handful of
// rounds.
const maxIterations = 64

// Optimize runs the enabled passes in order, looping until a full
// sweep makes no further change.
func (o *Optimizer) Optimize(m *ir.Mechanism) *ir.Mechanism {
	for i := 0; i < maxIterations; i++ {
		changed := false
		for _, p := range o.passes {
			if !o.cfg.isEnabled(p.id) {
				continue
			}
			var c bool
			m, c = p.run(m)
			changed = changed || c
		}
		if !changed {
			break
		}
	}
	return m
}

// OptimizeExpr runs the same pass list over a single expression instead
// of a whole mechanism, for callers that need to re-simplify one
// expression in isolation — the solver's zero-state substitution and
// effect current/conductance split, mirroring the original's reuse of
// optimizer(...).optimize() on a lone resolved_expr.
func OptimizeExpr(e ir.Expr, opts ...Option) ir.Expr {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	for i := 0; i < maxIterations; i++ {
		changed := false
		if cfg.isEnabled(PassConstantFold) {
			v, c := fold(e, map[string]ir.Expr{}, map[string]ir.Expr{})
			e, changed = v, changed || c
		}
		if cfg.isEnabled(PassCopyPropagate) {
			v, c := copyProp(e, map[string]ir.Expr{})
			e, changed = v, changed || c
		}
		if cfg.isEnabled(PassCSE) {
			v, c := cse(e, map[string]ir.Expr{})
			e, changed = v, changed || c
		}
		if cfg.isEnabled(PassDeadCodeElimine) {
			dead := map[string]bool{}
			findUsed(e, dead)
			if len(dead) > 0 {
				e = removeDead(e, dead)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return e
}

// --- shared numeric helpers ---

func asNumber(e ir.Expr) (float64, bool) {
	switch n := e.(type) {
	case *ir.Int:
		return float64(n.Value), true
	case *ir.Float:
		return n.Value, true
	default:
		return 0, false
	}
}

func isInteger(v float64) bool { return math.Floor(v) == v }

// numberExpr builds an *ir.Int or *ir.Float for a folded numeric
// result, carrying the type and position of the node it replaces.
func numberExpr(v float64, like ir.Expr) ir.Expr {
	if isInteger(v) {
		return &ir.Int{Value: int64(v), Ty: like.Type(), P: like.Pos()}
	}
	return &ir.Float{Value: v, Ty: like.Type(), P: like.Pos()}
}
