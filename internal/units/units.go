// Package units implements the unit grammar from spec.md section 6: a
// prefixed SI symbol, or a binary combination of units via '*', '/', and
// integer '^' powers. Parsing a unit produces a scale factor and the
// resulting types.Quantity.
package units

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arblang/arblangc/internal/types"
)

// prefixPower maps an SI prefix symbol to its power of ten. Prefixes span
// Y..y (+24 down to -24): every multiple of three, plus h, da, d and c.
var prefixPower = map[string]int{
	"Y": 24, "Z": 21, "E": 18, "P": 15, "T": 12, "G": 9, "M": 6, "k": 3, "h": 2, "da": 1,
	"d": -1, "c": -2, "m": -3, "u": -6, "n": -9, "p": -12, "f": -15, "a": -18, "z": -21, "y": -24,
}

// symbolQuantity maps each base SI symbol recognized by arblang to its
// intrinsic quantity, per spec.md section 6.
var symbolQuantity = map[string]types.Quantity{
	"m":   {Exponents: [6]int{types.Length: 1}},
	"g":   {Exponents: [6]int{types.Mass: 1}}, // gram, not the SI-coherent kilogram
	"s":   {Exponents: [6]int{types.Time: 1}},
	"A":   {Exponents: [6]int{types.Current: 1}},
	"K":   {Exponents: [6]int{types.Temperature: 1}},
	"mol": {Exponents: [6]int{types.Amount: 1}},
	"Hz":  {Exponents: [6]int{types.Time: -1}},
	"L":   {Exponents: [6]int{types.Length: 3}},
	"l":   {Exponents: [6]int{types.Length: 3}},
	"N":   {Exponents: [6]int{types.Length: 1, types.Mass: 1, types.Time: -2}},
	"Pa":  {Exponents: [6]int{types.Length: -1, types.Mass: 1, types.Time: -2}},
	"W":   {Exponents: [6]int{types.Length: 2, types.Mass: 1, types.Time: -3}},
	"J":   {Exponents: [6]int{types.Length: 2, types.Mass: 1, types.Time: -2}},
	"C":   {Exponents: [6]int{types.Time: 1, types.Current: 1}},
	"V":   types.Voltage,
	"F":   {Exponents: [6]int{types.Length: -2, types.Mass: -1, types.Time: 4, types.Current: 2}},
	"H":   {Exponents: [6]int{types.Length: 2, types.Mass: 1, types.Time: -2, types.Current: -2}},
	"Ohm": {Exponents: [6]int{types.Length: 2, types.Mass: 1, types.Time: -3, types.Current: -2}},
	"S":   {Exponents: [6]int{types.Length: -2, types.Mass: -1, types.Time: 3, types.Current: 2}},
	"M":   types.Concentration, // molar, mol/L
}

// symbolsByLength lists recognized base symbols longest-first so the
// greedy tokenizer in parseSymbol prefers "mol" over "m"+"ol".
var symbolsByLength = sortedByLengthDesc(symbolQuantity)

func sortedByLengthDesc(m map[string]types.Quantity) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j-1]) < len(out[j]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Parsed is the result of parsing a unit expression: a scale factor
// (derived from any SI prefixes) and the resulting quantity type.
type Parsed struct {
	Scale    float64
	Quantity types.Quantity
}

// Parse parses a unit expression such as "nA/um^2" into its scale factor
// and quantity type. An empty string parses to the dimensionless unit.
func Parse(unit string) (Parsed, error) {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return Parsed{Scale: 1, Quantity: types.Real()}, nil
	}
	p := &unitParser{src: unit}
	parsed, err := p.parseExpr()
	if err != nil {
		return Parsed{}, err
	}
	if p.pos != len(p.src) {
		return Parsed{}, fmt.Errorf("invalid unit %q: unexpected trailing text at %d", unit, p.pos)
	}
	return parsed, nil
}

type unitParser struct {
	src string
	pos int
}

// parseExpr parses a '*'/'/' separated chain of unit terms, left-associative.
func (p *unitParser) parseExpr() (Parsed, error) {
	result, err := p.parseTerm()
	if err != nil {
		return Parsed{}, err
	}
	for p.pos < len(p.src) && (p.src[p.pos] == '*' || p.src[p.pos] == '/') {
		op := p.src[p.pos]
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return Parsed{}, err
		}
		if op == '*' {
			result = Parsed{Scale: result.Scale * rhs.Scale, Quantity: result.Quantity.Mul(rhs.Quantity)}
		} else {
			result = Parsed{Scale: result.Scale / rhs.Scale, Quantity: result.Quantity.Div(rhs.Quantity)}
		}
	}
	return result, nil
}

// parseTerm parses a single prefixed-symbol, followed by either an
// explicit '^int' or a bare trailing digit run glued onto the symbol
// (the "cm2"/"um3" convention the lexer's identifier rule produces,
// since it folds a symbol and its power into one token).
func (p *unitParser) parseTerm() (Parsed, error) {
	scale, q, err := p.parseSymbol()
	if err != nil {
		return Parsed{}, err
	}
	if p.pos < len(p.src) && p.src[p.pos] == '^' {
		p.pos++
		start := p.pos
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return Parsed{}, fmt.Errorf("invalid unit power in %q", p.src)
		}
		return Parsed{Scale: pow10f(scale, n), Quantity: q.Pow(n)}, nil
	}
	if p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return Parsed{}, fmt.Errorf("invalid unit power in %q", p.src)
		}
		return Parsed{Scale: pow10f(scale, n), Quantity: q.Pow(n)}, nil
	}
	return Parsed{Scale: scale, Quantity: q}, nil
}

func pow10f(base float64, n int) float64 {
	// base is a power-of-ten scale factor, raised to the integer n by
	// repeated float multiplication (and a reciprocal for negative n).
	neg := n < 0
	if neg {
		n = -n
	}
	result := 1.0
	for i := 0; i < n; i++ {
		result *= base
	}
	if neg {
		result = 1 / result
	}
	return result
}

// parseSymbol consumes an optional prefix then a base symbol, returning the
// prefix's scale factor and the symbol's intrinsic quantity.
func (p *unitParser) parseSymbol() (float64, types.Quantity, error) {
	rest := p.src[p.pos:]
	// A symbol only matches where the next character is not a letter, so
	// "mV" is prefix m plus V rather than metre followed by stray text.
	endsSymbol := func(s string, n int) bool {
		return n >= len(s) || !(s[n] >= 'a' && s[n] <= 'z' || s[n] >= 'A' && s[n] <= 'Z')
	}
	for _, sym := range symbolsByLength {
		if strings.HasPrefix(rest, sym) && endsSymbol(rest, len(sym)) {
			p.pos += len(sym)
			return 1, symbolQuantity[sym], nil
		}
	}
	// Try prefix + base symbol. Longest prefix ("da") first.
	prefixes := []string{"da", "Y", "Z", "E", "P", "T", "G", "M", "k", "h", "d", "c", "m", "u", "n", "p", "f", "a", "z", "y"}
	for _, pre := range prefixes {
		if !strings.HasPrefix(rest, pre) {
			continue
		}
		afterPrefix := rest[len(pre):]
		for _, sym := range symbolsByLength {
			if strings.HasPrefix(afterPrefix, sym) && endsSymbol(afterPrefix, len(sym)) {
				power := prefixPower[pre]
				p.pos += len(pre) + len(sym)
				return pow10f(10, power), symbolQuantity[sym], nil
			}
		}
	}
	return 0, types.Quantity{}, fmt.Errorf("invalid unit %q at position %d", p.src, p.pos)
}
