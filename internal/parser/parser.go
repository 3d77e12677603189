// Package parser implements a small recursive-descent parser that turns a
// token stream into the parsed syntax tree (internal/ast). Like the
// lexer, it is an ambient collaborator of the core compiler (spec.md
// section 1): only its output interface matters to the resolver.
package parser

import (
	"fmt"

	"github.com/arblang/arblangc/internal/ast"
	"github.com/arblang/arblangc/internal/lexer"
)

// Parser consumes tokens from a Lexer and builds an *ast.Mechanism.
type Parser struct {
	l    *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
	errs []error
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

// Errors returns every parse error accumulated so far.
func (p *Parser) Errors() []error { return p.errs }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf("parse error at %d:%d: %s", p.cur.Pos.Line, p.cur.Pos.Column, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(t lexer.TokenType, what string) lexer.Token {
	tok := p.cur
	if tok.Type != t {
		p.errorf("expected %s, got %q", what, tok.Literal)
	}
	p.next()
	return tok
}

// ParseMechanism parses a complete mechanism source file.
func (p *Parser) ParseMechanism() *ast.Mechanism {
	pos := p.cur.Pos
	p.expect(lexer.MECHANISM, "'mechanism'")
	kind := p.cur.Literal
	p.next() // consume kind keyword (density/point/concentration/junction)
	name := p.expect(lexer.IDENT, "mechanism name").Literal

	m := &ast.Mechanism{Kind: kind, Name: name, P: pos}
	p.expect(lexer.LBRACE, "'{'")

	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		switch p.cur.Type {
		case lexer.RECORD:
			m.RecordAliases = append(m.RecordAliases, p.parseRecordAlias())
		case lexer.CONSTANT:
			m.Constants = append(m.Constants, p.parseConstant())
		case lexer.PARAMETER:
			m.Parameters = append(m.Parameters, p.parseParameter())
		case lexer.BIND:
			m.Bindings = append(m.Bindings, p.parseBind())
		case lexer.STATE:
			m.States = append(m.States, p.parseState())
		case lexer.FUNCTION:
			m.Functions = append(m.Functions, p.parseFunction())
		case lexer.INITIAL:
			m.Initializations = append(m.Initializations, p.parseInitial())
		case lexer.ON_EVENT:
			m.OnEvents = append(m.OnEvents, p.parseOnEvent())
		case lexer.EVOLVE:
			m.Evolutions = append(m.Evolutions, p.parseEvolve())
		case lexer.EFFECT:
			m.Effects = append(m.Effects, p.parseEffect())
		case lexer.EXPORT:
			m.Exports = append(m.Exports, p.parseExport())
		default:
			p.errorf("unexpected token %q inside mechanism body", p.cur.Literal)
			p.next()
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	return m
}

// parseType parses a ": type" annotation, returning nil when none is
// present.
func (p *Parser) parseType() *ast.TypeExpr {
	if p.cur.Type != lexer.COLON {
		return nil
	}
	p.next() // consume ':'
	return p.parseTypeNoColon()
}

func (p *Parser) parseTypeNoColon() *ast.TypeExpr {
	pos := p.cur.Pos
	switch p.cur.Type {
	case lexer.LBRACK:
		p.next()
		text := p.parseUnitText()
		p.expect(lexer.RBRACK, "']'")
		return &ast.TypeExpr{Kind: ast.TypeUnit, Text: text, P: pos}
	case lexer.IDENT:
		name := p.cur.Literal
		p.next()
		switch name {
		case "real":
			return &ast.TypeExpr{Kind: ast.TypeUnit, Text: "", P: pos}
		case "bool":
			return &ast.TypeExpr{Kind: ast.TypeBool, P: pos}
		default:
			return &ast.TypeExpr{Kind: ast.TypeNamed, Text: name, P: pos}
		}
	default:
		p.errorf("expected a type, got %q", p.cur.Literal)
		p.next()
		return &ast.TypeExpr{Kind: ast.TypeUnit, P: pos}
	}
}

// parseUnitText reassembles the raw text of a "[...]" unit expression from
// its constituent tokens (IDENT, STAR, SLASH, CARET, INT).
func (p *Parser) parseUnitText() string {
	text := ""
	for p.cur.Type != lexer.RBRACK && p.cur.Type != lexer.EOF {
		text += p.cur.Literal
		p.next()
	}
	return text
}

func (p *Parser) parseRecordAlias() *ast.RecordAlias {
	pos := p.cur.Pos
	p.next() // 'record'
	name := p.expect(lexer.IDENT, "record name").Literal
	p.expect(lexer.LBRACE, "'{'")
	ra := &ast.RecordAlias{Name: name, P: pos}
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		fname := p.expect(lexer.IDENT, "field name").Literal
		ftype := p.parseType()
		p.expect(lexer.SEMI, "';'")
		if ftype == nil {
			p.errorf("record field %q requires an explicit type", fname)
			continue
		}
		ra.Fields = append(ra.Fields, ast.RecordField{Name: fname, Type: *ftype})
	}
	p.expect(lexer.RBRACE, "'}'")
	return ra
}

// parseAssign parses "name [: type] = value ;" shared by parameter,
// constant, initial, and evolve declarations.
func (p *Parser) parseAssign() (name string, typ *ast.TypeExpr, prime bool, value ast.Expr) {
	name = p.expect(lexer.IDENT, "identifier").Literal
	if p.cur.Type == lexer.PRIME {
		prime = true
		p.next()
	}
	typ = p.parseType()
	p.expect(lexer.ASSIGN, "'='")
	value = p.parseExpr()
	p.expect(lexer.SEMI, "';'")
	return
}

func (p *Parser) parseParameter() *ast.Parameter {
	pos := p.cur.Pos
	p.next() // 'parameter'
	name, typ, _, value := p.parseAssign()
	return &ast.Parameter{Name: name, Type: typ, Value: value, P: pos}
}

func (p *Parser) parseConstant() *ast.Constant {
	pos := p.cur.Pos
	p.next() // 'constant'
	name, typ, _, value := p.parseAssign()
	return &ast.Constant{Name: name, Type: typ, Value: value, P: pos}
}

func (p *Parser) parseState() *ast.State {
	pos := p.cur.Pos
	p.next() // 'state'
	name := p.expect(lexer.IDENT, "state name").Literal
	typ := p.parseType()
	p.expect(lexer.SEMI, "';'")
	if typ == nil {
		p.errorf("state %q requires an explicit type", name)
		typ = &ast.TypeExpr{Kind: ast.TypeUnit}
	}
	return &ast.State{Name: name, Type: *typ, P: pos}
}

func (p *Parser) parseBind() *ast.Bind {
	pos := p.cur.Pos
	p.next() // 'bind'
	name := p.expect(lexer.IDENT, "bind name").Literal
	p.expect(lexer.ASSIGN, "'='")
	bindable := p.expect(lexer.IDENT, "bindable name").Literal
	ion := ""
	if p.cur.Type == lexer.LPAREN {
		p.next()
		ion = p.expect(lexer.IDENT, "ion name").Literal
		p.expect(lexer.RPAREN, "')'")
	}
	typ := p.parseType()
	p.expect(lexer.SEMI, "';'")
	return &ast.Bind{Name: name, Bindable: bindable, Ion: ion, Type: typ, P: pos}
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		name := p.expect(lexer.IDENT, "argument name").Literal
		typ := p.parseType()
		if typ == nil {
			p.errorf("argument %q requires an explicit type", name)
			typ = &ast.TypeExpr{Kind: ast.TypeUnit}
		}
		params = append(params, ast.Param{Name: name, Type: *typ})
		if p.cur.Type == lexer.COMMA {
			p.next()
		}
	}
	return params
}

func (p *Parser) parseFunction() *ast.Function {
	pos := p.cur.Pos
	p.next() // 'function'
	name := p.expect(lexer.IDENT, "function name").Literal
	p.expect(lexer.LPAREN, "'('")
	args := p.parseParamList()
	p.expect(lexer.RPAREN, "')'")
	ret := p.parseType()
	p.expect(lexer.LBRACE, "'{'")
	body := p.parseExpr()
	p.expect(lexer.RBRACE, "'}'")
	if p.cur.Type == lexer.SEMI {
		p.next()
	}
	return &ast.Function{Name: name, Args: args, RetType: ret, Body: body, P: pos}
}

func (p *Parser) parseInitial() *ast.Initial {
	pos := p.cur.Pos
	p.next() // 'initial'
	name, _, _, value := p.parseAssign()
	return &ast.Initial{Name: name, Value: value, P: pos}
}

func (p *Parser) parseOnEvent() *ast.OnEvent {
	pos := p.cur.Pos
	p.next() // 'on_event'
	p.expect(lexer.LPAREN, "'('")
	argName := p.expect(lexer.IDENT, "event argument name").Literal
	argType := p.parseType()
	if argType == nil {
		argType = &ast.TypeExpr{Kind: ast.TypeUnit}
	}
	p.expect(lexer.RPAREN, "')'")
	name, _, _, value := p.parseAssign()
	return &ast.OnEvent{Arg: ast.Param{Name: argName, Type: *argType}, Name: name, Value: value, P: pos}
}

func (p *Parser) parseEvolve() *ast.Evolve {
	pos := p.cur.Pos
	p.next() // 'evolve'
	name, _, prime, value := p.parseAssign()
	if !prime {
		p.errorf("evolve target %q must be written with a trailing prime, e.g. %s'", name, name)
	}
	return &ast.Evolve{Name: name, Value: value, P: pos}
}

func (p *Parser) parseEffect() *ast.Effect {
	pos := p.cur.Pos
	p.next() // 'effect'
	affectable := p.expect(lexer.IDENT, "affectable name").Literal
	ion := ""
	if p.cur.Type == lexer.LPAREN {
		p.next()
		ion = p.expect(lexer.IDENT, "ion name").Literal
		p.expect(lexer.RPAREN, "')'")
	}
	p.expect(lexer.ASSIGN, "'='")
	value := p.parseExpr()
	p.expect(lexer.SEMI, "';'")
	return &ast.Effect{Affectable: affectable, Ion: ion, Value: value, P: pos}
}

func (p *Parser) parseExport() *ast.Export {
	pos := p.cur.Pos
	p.next() // 'export'
	name := p.expect(lexer.IDENT, "export name").Literal
	p.expect(lexer.SEMI, "';'")
	return &ast.Export{Name: name, P: pos}
}

// --- Expressions ---
// Precedence, lowest to highest: or; and; comparisons; +/-; * / ; ^ (right
// assoc); unary prefix; postfix '.' field access and primary.

func (p *Parser) parseExpr() ast.Expr {
	switch p.cur.Type {
	case lexer.LET:
		return p.parseLet()
	case lexer.WITH:
		return p.parseWith()
	case lexer.IF:
		return p.parseConditional()
	default:
		return p.parseOr()
	}
}

func (p *Parser) parseLet() ast.Expr {
	pos := p.cur.Pos
	p.next() // 'let'
	name := p.expect(lexer.IDENT, "let name").Literal
	typ := p.parseType()
	p.expect(lexer.ASSIGN, "'='")
	value := p.parseExpr()
	p.expect(lexer.SEMI, "';'")
	body := p.parseExpr()
	return &ast.Let{Name: name, Type: typ, Value: value, Body: body, P: pos}
}

func (p *Parser) parseWith() ast.Expr {
	pos := p.cur.Pos
	p.next() // 'with'
	value := p.parseOr()
	p.expect(lexer.LBRACE, "'{'")
	body := p.parseExpr()
	p.expect(lexer.RBRACE, "'}'")
	return &ast.With{Value: value, Body: body, P: pos}
}

func (p *Parser) parseConditional() ast.Expr {
	pos := p.cur.Pos
	p.next() // 'if'
	cond := p.parseOr()
	p.expect(lexer.THEN, "'then'")
	trueV := p.parseExpr()
	p.expect(lexer.ELSE, "'else'")
	falseV := p.parseExpr()
	return &ast.Conditional{Cond: cond, True: trueV, False: falseV, P: pos}
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.cur.Type == lexer.OR {
		pos := p.cur.Pos
		p.next()
		right := p.parseAnd()
		left = &ast.Binary{Op: "or", Lhs: left, Rhs: right, P: pos}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseComparison()
	for p.cur.Type == lexer.AND {
		pos := p.cur.Pos
		p.next()
		right := p.parseComparison()
		left = &ast.Binary{Op: "and", Lhs: left, Rhs: right, P: pos}
	}
	return left
}

var comparisonOps = map[lexer.TokenType]string{
	lexer.LT: "<", lexer.LE: "<=", lexer.GT: ">", lexer.GE: ">=", lexer.EQ: "==", lexer.NE: "!=",
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if op, ok := comparisonOps[p.cur.Type]; ok {
		pos := p.cur.Pos
		p.next()
		right := p.parseAdditive()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right, P: pos}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur.Type == lexer.PLUS || p.cur.Type == lexer.MINUS {
		op := "+"
		if p.cur.Type == lexer.MINUS {
			op = "-"
		}
		pos := p.cur.Pos
		p.next()
		right := p.parseMultiplicative()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right, P: pos}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parsePower()
	for p.cur.Type == lexer.STAR || p.cur.Type == lexer.SLASH {
		op := "*"
		if p.cur.Type == lexer.SLASH {
			op = "/"
		}
		pos := p.cur.Pos
		p.next()
		right := p.parsePower()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right, P: pos}
	}
	return left
}

func (p *Parser) parsePower() ast.Expr {
	left := p.parseUnary()
	if p.cur.Type == lexer.CARET {
		pos := p.cur.Pos
		p.next()
		right := p.parsePower() // right-associative
		return &ast.Binary{Op: "^", Lhs: left, Rhs: right, P: pos}
	}
	return left
}

var mathUnaryKeywords = map[string]bool{
	"exp": true, "log": true, "cos": true, "sin": true, "abs": true, "exprelr": true,
}

func (p *Parser) parseUnary() ast.Expr {
	switch {
	case p.cur.Type == lexer.MINUS:
		pos := p.cur.Pos
		p.next()
		return &ast.Unary{Op: "neg", Arg: p.parseUnary(), P: pos}
	case p.cur.Type == lexer.NOT:
		pos := p.cur.Pos
		p.next()
		return &ast.Unary{Op: "lnot", Arg: p.parseUnary(), P: pos}
	case p.cur.Type == lexer.PLUS:
		p.next()
		return p.parseUnary()
	case p.cur.Type == lexer.IDENT && mathUnaryKeywords[p.cur.Literal] && p.peek.Type == lexer.LPAREN:
		op := p.cur.Literal
		pos := p.cur.Pos
		p.next() // consume function name
		p.next() // consume '('
		arg := p.parseExpr()
		p.expect(lexer.RPAREN, "')'")
		return &ast.Unary{Op: op, Arg: arg, P: pos}
	case p.cur.Type == lexer.IDENT && (p.cur.Literal == "min" || p.cur.Literal == "max") && p.peek.Type == lexer.LPAREN:
		op := p.cur.Literal
		pos := p.cur.Pos
		p.next()
		p.next() // '('
		lhs := p.parseExpr()
		p.expect(lexer.COMMA, "','")
		rhs := p.parseExpr()
		p.expect(lexer.RPAREN, "')'")
		return &ast.Binary{Op: op, Lhs: lhs, Rhs: rhs, P: pos}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for p.cur.Type == lexer.DOT {
		pos := p.cur.Pos
		p.next()
		field := p.expect(lexer.IDENT, "field name")
		expr = &ast.Binary{Op: ".", Lhs: expr, Rhs: &ast.Ident{Name: field.Literal, P: field.Pos}, P: pos}
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.cur.Pos
	switch p.cur.Type {
	case lexer.LPAREN:
		p.next()
		e := p.parseExpr()
		p.expect(lexer.RPAREN, "')'")
		return e
	case lexer.LBRACE:
		return p.parseObject("")
	case lexer.TRUE:
		p.next()
		return &ast.BoolLit{Value: true, P: pos}
	case lexer.FALSE:
		p.next()
		return &ast.BoolLit{Value: false, P: pos}
	case lexer.INT:
		v := parseIntLiteral(p.cur.Literal)
		p.next()
		unit := p.maybeParseBracketUnit()
		return &ast.IntLit{Value: v, Unit: unit, P: pos}
	case lexer.FLOAT:
		v := parseFloatLiteral(p.cur.Literal)
		p.next()
		unit := p.maybeParseBracketUnit()
		return &ast.FloatLit{Value: v, Unit: unit, P: pos}
	case lexer.IDENT:
		name := p.cur.Literal
		if p.peek.Type == lexer.LPAREN {
			p.next() // name
			p.next() // '('
			var args []ast.Expr
			for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
				args = append(args, p.parseExpr())
				if p.cur.Type == lexer.COMMA {
					p.next()
				}
			}
			p.expect(lexer.RPAREN, "')'")
			return &ast.Call{Func: name, Args: args, P: pos}
		}
		if p.peek.Type == lexer.LBRACE {
			p.next() // name
			return p.parseObject(name)
		}
		p.next()
		return &ast.Ident{Name: name, P: pos}
	default:
		p.errorf("unexpected token %q in expression", p.cur.Literal)
		p.next()
		return &ast.Ident{Name: "<error>", P: pos}
	}
}

func (p *Parser) maybeParseBracketUnit() string {
	if p.cur.Type != lexer.LBRACK {
		return ""
	}
	p.next()
	text := p.parseUnitText()
	p.expect(lexer.RBRACK, "']'")
	return text
}

func (p *Parser) parseObject(recordName string) ast.Expr {
	pos := p.cur.Pos
	p.expect(lexer.LBRACE, "'{'")
	obj := &ast.Object{RecordName: recordName, P: pos}
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		fpos := p.cur.Pos
		fname := p.expect(lexer.IDENT, "field name").Literal
		ftype := p.parseType()
		p.expect(lexer.ASSIGN, "'='")
		value := p.parseExpr()
		p.expect(lexer.SEMI, "';'")
		obj.Fields = append(obj.Fields, ast.ObjectField{Name: fname, Type: ftype, Value: value, P: fpos})
	}
	p.expect(lexer.RBRACE, "'}'")
	return obj
}

func parseIntLiteral(s string) int64 {
	var v int64
	for _, c := range s {
		v = v*10 + int64(c-'0')
	}
	return v
}

func parseFloatLiteral(s string) float64 {
	var intPart, frac float64
	var fracDiv float64 = 1
	inFrac := false
	i := 0
	for i < len(s) && s[i] != 'e' && s[i] != 'E' {
		c := s[i]
		if c == '.' {
			inFrac = true
			i++
			continue
		}
		d := float64(c - '0')
		if inFrac {
			fracDiv *= 10
			frac += d / fracDiv
		} else {
			intPart = intPart*10 + d
		}
		i++
	}
	val := intPart + frac
	if i < len(s) {
		expSign := 1.0
		i++ // consume e/E
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			if s[i] == '-' {
				expSign = -1
			}
			i++
		}
		var exp float64
		for i < len(s) {
			exp = exp*10 + float64(s[i]-'0')
			i++
		}
		for n := 0; n < int(exp); n++ {
			if expSign > 0 {
				val *= 10
			} else {
				val /= 10
			}
		}
	}
	return val
}
