// Package ast defines the parsed syntax tree for arblang mechanism source:
// the parser's output and the resolver's input (spec.md section 6).
package ast

import "github.com/arblang/arblangc/internal/lexer"

// Node is the base interface implemented by every parsed-tree node.
type Node interface {
	Pos() lexer.Position
}

// Expr is any parsed-tree node that denotes a value.
type Expr interface {
	Node
	exprNode()
}

// TypeExprKind classifies a parsed type annotation.
type TypeExprKind int

const (
	// TypeUnit is a quantity type spelled as a bare "real" or a unit
	// expression such as "nA/um^2".
	TypeUnit TypeExprKind = iota
	// TypeBool is the literal "bool" annotation.
	TypeBool
	// TypeNamed references a record-alias declaration by name.
	TypeNamed
)

// TypeExpr is a parsed type annotation: ": real", ": bool", ": nA/um^2",
// or ": MyRecordName".
type TypeExpr struct {
	Kind TypeExprKind
	Text string // unit text for TypeUnit, empty for TypeBool, alias name for TypeNamed
	P    lexer.Position
}

func (t *TypeExpr) Pos() lexer.Position { return t.P }

// Ident is an identifier reference, optionally immediately followed by a
// type annotation (used for function arguments and typed let-bindings).
type Ident struct {
	Name string
	Type *TypeExpr
	P    lexer.Position
}

func (i *Ident) exprNode()          {}
func (i *Ident) Pos() lexer.Position { return i.P }

// IntLit is an integer literal, optionally carrying a bracketed unit.
type IntLit struct {
	Value int64
	Unit  string
	P     lexer.Position
}

func (l *IntLit) exprNode()          {}
func (l *IntLit) Pos() lexer.Position { return l.P }

// FloatLit is a floating-point literal, optionally carrying a bracketed unit.
type FloatLit struct {
	Value float64
	Unit  string
	P     lexer.Position
}

func (l *FloatLit) exprNode()          {}
func (l *FloatLit) Pos() lexer.Position { return l.P }

// BoolLit is a true/false literal.
type BoolLit struct {
	Value bool
	P     lexer.Position
}

func (l *BoolLit) exprNode()          {}
func (l *BoolLit) Pos() lexer.Position { return l.P }

// Unary is a prefix unary operation: exp, log, cos, sin, abs, exprelr,
// logical not ("!"), or arithmetic negation ("-").
type Unary struct {
	Op  string
	Arg Expr
	P   lexer.Position
}

func (u *Unary) exprNode()          {}
func (u *Unary) Pos() lexer.Position { return u.P }

// Binary is an infix binary operation, or a field access when Op is ".".
type Binary struct {
	Op  string
	Lhs Expr
	Rhs Expr
	P   lexer.Position
}

func (b *Binary) exprNode()          {}
func (b *Binary) Pos() lexer.Position { return b.P }

// Call is a user function call: name applied to a list of arguments.
type Call struct {
	Func string
	Args []Expr
	P    lexer.Position
}

func (c *Call) exprNode()          {}
func (c *Call) Pos() lexer.Position { return c.P }

// ObjectField is one "name [: type] = value" entry of an object literal.
type ObjectField struct {
	Name  string
	Type  *TypeExpr
	Value Expr
	P     lexer.Position
}

// Object is a record literal: an optional alias name followed by a
// "{" field = value; ... "}" block.
type Object struct {
	RecordName string // empty if anonymous
	Fields     []ObjectField
	P          lexer.Position
}

func (o *Object) exprNode()          {}
func (o *Object) Pos() lexer.Position { return o.P }

// Let is a "let name [: type] = value; body" expression.
type Let struct {
	Name  string
	Type  *TypeExpr
	Value Expr
	Body  Expr
	P     lexer.Position
}

func (l *Let) exprNode()          {}
func (l *Let) Pos() lexer.Position { return l.P }

// With is a "with value { body }" expression, desugared by the resolver
// into a chain of field-access lets (spec.md section 4.1).
type With struct {
	Value Expr
	Body  Expr
	P     lexer.Position
}

func (w *With) exprNode()          {}
func (w *With) Pos() lexer.Position { return w.P }

// Conditional is an "if cond then trueVal else falseVal" expression.
type Conditional struct {
	Cond  Expr
	True  Expr
	False Expr
	P     lexer.Position
}

func (c *Conditional) exprNode()          {}
func (c *Conditional) Pos() lexer.Position { return c.P }

// --- Top-level declarations ---

// RecordField is one "name: type" entry of a record-alias declaration.
type RecordField struct {
	Name string
	Type TypeExpr
}

// RecordAlias declares a named record type.
type RecordAlias struct {
	Name   string
	Fields []RecordField
	P      lexer.Position
}

func (r *RecordAlias) Pos() lexer.Position { return r.P }

// Parameter is a "parameter name [: type] = value;" declaration.
type Parameter struct {
	Name  string
	Type  *TypeExpr
	Value Expr
	P     lexer.Position
}

func (p *Parameter) Pos() lexer.Position { return p.P }

// Constant is a "constant name [: type] = value;" declaration.
type Constant struct {
	Name  string
	Type  *TypeExpr
	Value Expr
	P     lexer.Position
}

func (c *Constant) Pos() lexer.Position { return c.P }

// State is a "state name : type;" declaration. An explicit type is mandatory.
type State struct {
	Name string
	Type TypeExpr
	P    lexer.Position
}

func (s *State) Pos() lexer.Position { return s.P }

// Bind is a "bind name = bindable [ion] [: type];" declaration, subscribing
// to a simulator-provided signal.
type Bind struct {
	Name     string
	Bindable string
	Ion      string // empty if not ion-specific
	Type     *TypeExpr
	P        lexer.Position
}

func (b *Bind) Pos() lexer.Position { return b.P }

// Param is a function argument or on_event parameter: "name: type".
type Param struct {
	Name string
	Type TypeExpr
}

// Function is a "function name(args) [: rettype] { body }" declaration.
type Function struct {
	Name    string
	Args    []Param
	RetType *TypeExpr
	Body    Expr
	P       lexer.Position
}

func (f *Function) Pos() lexer.Position { return f.P }

// Initial is an "initial name = value;" declaration.
type Initial struct {
	Name  string
	Value Expr
	P     lexer.Position
}

func (i *Initial) Pos() lexer.Position { return i.P }

// OnEvent is an "on_event(arg) name = value;" declaration (point mechanisms only).
type OnEvent struct {
	Arg   Param
	Name  string
	Value Expr
	P     lexer.Position
}

func (o *OnEvent) Pos() lexer.Position { return o.P }

// Evolve is an "evolve name' = value;" state-derivative declaration.
type Evolve struct {
	Name  string
	Value Expr
	P     lexer.Position
}

func (e *Evolve) Pos() lexer.Position { return e.P }

// Effect is an "effect affectable [ion] = value;" declaration.
type Effect struct {
	Affectable string
	Ion        string
	Value      Expr
	P          lexer.Position
}

func (e *Effect) Pos() lexer.Position { return e.P }

// Export is an "export name;" declaration.
type Export struct {
	Name string
	P    lexer.Position
}

func (e *Export) Pos() lexer.Position { return e.P }

// Mechanism is the root parsed node: a full mechanism source file.
type Mechanism struct {
	Kind            string
	Name            string
	RecordAliases   []*RecordAlias
	Constants       []*Constant
	Parameters      []*Parameter
	Bindings        []*Bind
	States          []*State
	Functions       []*Function
	Initializations []*Initial
	OnEvents        []*OnEvent
	Evolutions      []*Evolve
	Effects         []*Effect
	Exports         []*Export
	P               lexer.Position
}

func (m *Mechanism) Pos() lexer.Position { return m.P }
