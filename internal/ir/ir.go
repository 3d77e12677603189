// Package ir defines the resolved intermediate representation that the
// resolver produces and every later middle-end pass consumes and
// rewrites into a new tree (spec.md section 3). Unlike the parsed tree, every
// node here carries a fully-checked types.Type and no longer contains
// unresolved names, units, or record aliases.
package ir

import (
	"github.com/arblang/arblangc/internal/lexer"
	"github.com/arblang/arblangc/internal/types"
)

// MechanismKind classifies the simulator context a mechanism runs in.
type MechanismKind string

const (
	Density       MechanismKind = "density"
	Point         MechanismKind = "point"
	Concentration MechanismKind = "concentration"
	Junction      MechanismKind = "junction"
)

// Bindable identifies a simulator-provided read-only signal.
type Bindable string

const (
	MembranePotential     Bindable = "membrane_potential"
	Temperature           Bindable = "temperature"
	CurrentDensity        Bindable = "current_density"
	MolarFlux             Bindable = "molar_flux"
	Charge                Bindable = "charge"
	InternalConcentration Bindable = "internal_concentration"
	ExternalConcentration Bindable = "external_concentration"
	NernstPotential       Bindable = "nernst_potential"
	Dt                    Bindable = "dt"
)

// Affectable identifies a simulator-writable output quantity.
type Affectable string

const (
	AffCurrentDensity            Affectable = "current_density"
	AffCurrent                   Affectable = "current"
	AffMolarFlux                 Affectable = "molar_flux"
	AffMolarFlowRate             Affectable = "molar_flow_rate"
	AffInternalConcentrationRate Affectable = "internal_concentration_rate"
	AffExternalConcentrationRate Affectable = "external_concentration_rate"
	AffCurrentDensityPair        Affectable = "current_density_pair" // current density + conductivity
	AffCurrentPair               Affectable = "current_pair"        // current + conductance
)

// UnaryOp is a resolved unary operator: arithmetic, a named math
// intrinsic, or boolean negation.
type UnaryOp string

const (
	OpExp     UnaryOp = "exp"
	OpLog     UnaryOp = "log"
	OpCos     UnaryOp = "cos"
	OpSin     UnaryOp = "sin"
	OpAbs     UnaryOp = "abs"
	OpExprelr UnaryOp = "exprelr"
	OpLnot    UnaryOp = "lnot"
	OpNeg     UnaryOp = "neg"
)

// BinaryOp is a resolved binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "add"
	OpSub  BinaryOp = "sub"
	OpMul  BinaryOp = "mul"
	OpDiv  BinaryOp = "div"
	OpPow  BinaryOp = "pow"
	OpLt   BinaryOp = "lt"
	OpLe   BinaryOp = "le"
	OpGt   BinaryOp = "gt"
	OpGe   BinaryOp = "ge"
	OpEq   BinaryOp = "eq"
	OpNe   BinaryOp = "ne"
	OpLand BinaryOp = "land"
	OpLor  BinaryOp = "lor"
	OpMin  BinaryOp = "min"
	OpMax  BinaryOp = "max"
	OpDot  BinaryOp = "dot" // field access: lhs.rhs, rhs is always an Argument-shaped field name
)

// Expr is the closed sum type of resolved-IR expression nodes. Every
// concrete node below implements it; the marker method keeps outside
// packages from adding new cases, matching the closedness of the
// original variant.
type Expr interface {
	Pos() lexer.Position
	Type() types.Type
	exprNode()
}

// --- Leaves ---

// Float is a floating-point literal.
type Float struct {
	Value float64
	Ty    types.Type
	P     lexer.Position
}

func (e *Float) Pos() lexer.Position { return e.P }
func (e *Float) Type() types.Type    { return e.Ty }
func (e *Float) exprNode()           {}

// Int is an integer literal.
type Int struct {
	Value int64
	Ty    types.Type
	P     lexer.Position
}

func (e *Int) Pos() lexer.Position { return e.P }
func (e *Int) Type() types.Type    { return e.Ty }
func (e *Int) exprNode()           {}

// Argument is a bare bound-name reference: a function argument, record
// field, top-level parameter/constant/bind/state, or let-bound
// variable, resolved to a single canonical occurrence site.
type Argument struct {
	Name string
	Ty   types.Type
	P    lexer.Position
}

func (e *Argument) Pos() lexer.Position { return e.P }
func (e *Argument) Type() types.Type    { return e.Ty }
func (e *Argument) exprNode()           {}

// Variable is a named reference that also carries a pointer to its
// bound value: a let-bound identifier or an object-literal field. It
// differs from Argument, which is a bare name with no such pointer.
type Variable struct {
	Name  string
	Value Expr
	Ty    types.Type
	P     lexer.Position
}

func (e *Variable) Pos() lexer.Position { return e.P }
func (e *Variable) Type() types.Type    { return e.Ty }
func (e *Variable) exprNode()           {}

// --- Top-level named values (may also occur as leaves referenced by name) ---

// Parameter is a top-level, externally overridable named value.
type Parameter struct {
	Name  string
	Value Expr
	Ty    types.Type
	P     lexer.Position
}

func (e *Parameter) Pos() lexer.Position { return e.P }
func (e *Parameter) Type() types.Type    { return e.Ty }
func (e *Parameter) exprNode()           {}

// Constant is a top-level, non-overridable named value.
type Constant struct {
	Name  string
	Value Expr
	Ty    types.Type
	P     lexer.Position
}

func (e *Constant) Pos() lexer.Position { return e.P }
func (e *Constant) Type() types.Type    { return e.Ty }
func (e *Constant) exprNode()           {}

// State is a top-level ODE state variable declaration.
type State struct {
	Name string
	Ty   types.Type
	P    lexer.Position
}

func (e *State) Pos() lexer.Position { return e.P }
func (e *State) Type() types.Type    { return e.Ty }
func (e *State) exprNode()           {}

// RecordAlias is a named record-type declaration. After resolution it
// is retained only for the type table; it should not appear nested
// inside an expression tree.
type RecordAlias struct {
	Name string
	Ty   types.Type
	P    lexer.Position
}

func (e *RecordAlias) Pos() lexer.Position { return e.P }
func (e *RecordAlias) Type() types.Type    { return e.Ty }
func (e *RecordAlias) exprNode()           {}

// Function is a top-level user function definition.
type Function struct {
	Name string
	Args []*Argument
	Body Expr
	Ty   types.Type
	P    lexer.Position
}

func (e *Function) Pos() lexer.Position { return e.P }
func (e *Function) Type() types.Type    { return e.Ty }
func (e *Function) exprNode()           {}

// Bind subscribes a name to a simulator-provided bindable signal.
type Bind struct {
	Name string
	Bind Bindable
	Ion  string // empty when not ion-specific
	Ty   types.Type
	P    lexer.Position
}

func (e *Bind) Pos() lexer.Position { return e.P }
func (e *Bind) Type() types.Type    { return e.Ty }
func (e *Bind) exprNode()           {}

// Initial assigns a state's value at t=0.
type Initial struct {
	Identifier Expr // an *Argument or *State reference
	Value      Expr
	Ty         types.Type
	P          lexer.Position
}

func (e *Initial) Pos() lexer.Position { return e.P }
func (e *Initial) Type() types.Type    { return e.Ty }
func (e *Initial) exprNode()           {}

// OnEvent assigns a state's post-event update, point mechanisms only.
type OnEvent struct {
	Arg        *Argument
	Identifier Expr // an *Argument or *State reference
	Value      Expr
	Ty         types.Type
	P          lexer.Position
}

func (e *OnEvent) Pos() lexer.Position { return e.P }
func (e *OnEvent) Type() types.Type    { return e.Ty }
func (e *OnEvent) exprNode()           {}

// Evolve assigns a state's time derivative.
type Evolve struct {
	Identifier Expr
	Value      Expr
	Ty         types.Type
	P          lexer.Position
}

func (e *Evolve) Pos() lexer.Position { return e.P }
func (e *Evolve) Type() types.Type    { return e.Ty }
func (e *Evolve) exprNode()           {}

// Effect assigns a value to a simulator-writable output.
type Effect struct {
	Effect Affectable
	Ion    string
	Value  Expr
	Ty     types.Type
	P      lexer.Position
}

func (e *Effect) Pos() lexer.Position { return e.P }
func (e *Effect) Type() types.Type    { return e.Ty }
func (e *Effect) exprNode()           {}

// Export marks a parameter as externally visible.
type Export struct {
	Identifier Expr
	Ty         types.Type
	P          lexer.Position
}

func (e *Export) Pos() lexer.Position { return e.P }
func (e *Export) Type() types.Type    { return e.Ty }
func (e *Export) exprNode()           {}

// --- Structural / control nodes ---

// Call is a reference to a user function application. It persists
// until the inliner removes it.
type Call struct {
	FuncName string
	Args     []Expr
	Ty       types.Type
	P        lexer.Position
}

func (e *Call) Pos() lexer.Position { return e.P }
func (e *Call) Type() types.Type    { return e.Ty }
func (e *Call) exprNode()           {}

// Object constructs a record value, optionally tagged with its alias
// name. Each field is a *Variable pairing the field name with its
// resolved value, matching how the resolver threads object-literal
// fields through to the pre-printer's flattening pass.
type Object struct {
	RecordName string // empty for an anonymous record literal
	Fields     []*Variable
	Ty         types.Type
	P          lexer.Position
}

func (e *Object) Pos() lexer.Position { return e.P }
func (e *Object) Type() types.Type    { return e.Ty }
func (e *Object) exprNode()           {}

// Let is a single-binding let-expression: let identifier = value; body.
type Let struct {
	Identifier Expr // an *Argument or *Variable naming the bound variable
	Value      Expr
	Body       Expr
	Ty         types.Type
	P          lexer.Position
}

func (e *Let) Pos() lexer.Position { return e.P }
func (e *Let) Type() types.Type    { return e.Ty }
func (e *Let) exprNode()           {}

// Conditional is an if/then/else expression.
type Conditional struct {
	Condition  Expr
	ValueTrue  Expr
	ValueFalse Expr
	Ty         types.Type
	P          lexer.Position
}

func (e *Conditional) Pos() lexer.Position { return e.P }
func (e *Conditional) Type() types.Type    { return e.Ty }
func (e *Conditional) exprNode()           {}

// Unary is a resolved unary operation.
type Unary struct {
	Op  UnaryOp
	Arg Expr
	Ty  types.Type
	P   lexer.Position
}

func (e *Unary) Pos() lexer.Position { return e.P }
func (e *Unary) Type() types.Type    { return e.Ty }
func (e *Unary) exprNode()           {}

// Binary is a resolved binary operation, including field access
// (Op == OpDot, where Rhs is the field name rendered as an Argument).
type Binary struct {
	Op  BinaryOp
	Lhs Expr
	Rhs Expr
	Ty  types.Type
	P   lexer.Position
}

func (e *Binary) Pos() lexer.Position { return e.P }
func (e *Binary) Type() types.Type    { return e.Ty }
func (e *Binary) exprNode()           {}

// Mechanism is the fully resolved compilation unit: every declaration
// list from the parsed tree, now containing only resolved nodes, plus
// the scopes needed by later passes.
type Mechanism struct {
	Name            string
	Kind            MechanismKind
	RecordAliases   []*RecordAlias
	Constants       []*Constant
	Parameters      []*Parameter
	States          []*State
	Functions       []*Function
	Bindings        []*Bind
	Initializations []*Initial
	OnEvents        []*OnEvent
	Effects         []*Effect
	Evolutions      []*Evolve
	Exports         []*Export
	P               lexer.Position
}

// InScopeMap is the resolver's working symbol table: one map per
// declaration kind, plus a local map for let/argument/field bindings
// and a type-alias map for named record types.
type InScopeMap struct {
	Params  map[string]*Parameter
	Consts  map[string]*Constant
	States  map[string]*State
	Binds   map[string]*Bind
	Funcs   map[string]*Function
	Locals  map[string]*Argument
	Aliases map[string]types.Type
}

// NewInScopeMap returns an InScopeMap with every table initialized and
// empty, ready for top-level resolution.
func NewInScopeMap() *InScopeMap {
	return &InScopeMap{
		Params:  map[string]*Parameter{},
		Consts:  map[string]*Constant{},
		States:  map[string]*State{},
		Binds:   map[string]*Bind{},
		Funcs:   map[string]*Function{},
		Locals:  map[string]*Argument{},
		Aliases: map[string]types.Type{},
	}
}

// Clone returns a shallow copy of m suitable for extending with
// function-local or let-local bindings without mutating the caller's
// scope.
func (m *InScopeMap) Clone() *InScopeMap {
	c := &InScopeMap{
		Params:  make(map[string]*Parameter, len(m.Params)),
		Consts:  make(map[string]*Constant, len(m.Consts)),
		States:  make(map[string]*State, len(m.States)),
		Binds:   make(map[string]*Bind, len(m.Binds)),
		Funcs:   make(map[string]*Function, len(m.Funcs)),
		Locals:  make(map[string]*Argument, len(m.Locals)),
		Aliases: make(map[string]types.Type, len(m.Aliases)),
	}
	for k, v := range m.Params {
		c.Params[k] = v
	}
	for k, v := range m.Consts {
		c.Consts[k] = v
	}
	for k, v := range m.States {
		c.States[k] = v
	}
	for k, v := range m.Binds {
		c.Binds[k] = v
	}
	for k, v := range m.Funcs {
		c.Funcs[k] = v
	}
	for k, v := range m.Locals {
		c.Locals[k] = v
	}
	for k, v := range m.Aliases {
		c.Aliases[k] = v
	}
	return c
}
