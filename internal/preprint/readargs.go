// ReadArguments collects, in order, the name of every bare argument
// reachable from e — the set of pointer-mapped names a flattened
// procedure body reads. Ported from get_read_arguments.cpp; unlike the
// original's one-function-per-node-kind dispatch, the leaf/structural
// cases are folded into a single recursive walk.
package preprint

import (
	"github.com/arblang/arblangc/internal/cerr"
	"github.com/arblang/arblangc/internal/ir"
)

func internalErr(msg string) error {
	return cerr.Internal("preprint", msg)
}

// ReadArguments appends e's argument reads to vec, preserving the
// original's accumulator-style signature.
func ReadArguments(e ir.Expr, vec *[]string) {
	switch n := e.(type) {
	case *ir.Argument:
		*vec = append(*vec, n.Name)
	case *ir.Variable:
		// A variable's own name is a write, not a read, and nothing is
		// collected here, matching get_read_arguments.cpp's empty
		// resolved_variable overload; its bound value is read at the Let.
	case *ir.Float, *ir.Int:
	case *ir.Unary:
		ReadArguments(n.Arg, vec)
	case *ir.Binary:
		ReadArguments(n.Lhs, vec)
		if n.Op != ir.OpDot {
			ReadArguments(n.Rhs, vec)
		}
	case *ir.Object:
		for _, f := range n.Fields {
			ReadArguments(f.Value, vec)
		}
	case *ir.Let:
		if v, ok := n.Identifier.(*ir.Variable); ok {
			ReadArguments(v.Value, vec)
		}
		ReadArguments(n.Body, vec)
	case *ir.Conditional:
		ReadArguments(n.Condition, vec)
		ReadArguments(n.ValueTrue, vec)
		ReadArguments(n.ValueFalse, vec)
	case *ir.Initial:
		ReadArguments(n.Value, vec)
	case *ir.Evolve:
		ReadArguments(n.Value, vec)
	case *ir.Effect:
		ReadArguments(n.Value, vec)
	case *ir.Parameter:
		ReadArguments(n.Value, vec)
	}
}
