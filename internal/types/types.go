// Package types implements arblang's small type system: normalized SI
// quantity types, booleans, and record types. Type equality is structural
// throughout; there is no subtyping.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Dimension indexes the six SI base dimensions carried by a Quantity.
type Dimension int

const (
	Length Dimension = iota
	Mass
	Time
	Current
	Amount
	Temperature
	numDimensions
)

var dimensionSymbol = [numDimensions]string{"m", "kg", "s", "A", "mol", "K"}

// Type is the closed sum of arblang's three type kinds: Quantity, Boolean,
// and Record. A native interface with an unexported marker method stands
// in for the source's visitor-based closed-world simulation.
type Type interface {
	isType()
	String() string
	Equal(Type) bool
}

// Quantity is a 6-tuple of integer exponents over the SI base dimensions.
// A Quantity is real iff every exponent is zero.
type Quantity struct {
	Exponents [numDimensions]int
}

func (Quantity) isType() {}

// Real is the dimensionless quantity (exponents all zero).
func Real() Quantity { return Quantity{} }

// IsReal reports whether q carries no physical dimension.
func (q Quantity) IsReal() bool {
	for _, e := range q.Exponents {
		if e != 0 {
			return false
		}
	}
	return true
}

// Mul returns the quantity obtained by componentwise-adding exponents,
// i.e. the type of a product of two quantities.
func (q Quantity) Mul(o Quantity) Quantity {
	var r Quantity
	for i := range r.Exponents {
		r.Exponents[i] = q.Exponents[i] + o.Exponents[i]
	}
	return r
}

// Div returns the quantity obtained by componentwise-subtracting exponents,
// i.e. the type of a quotient of two quantities.
func (q Quantity) Div(o Quantity) Quantity {
	var r Quantity
	for i := range r.Exponents {
		r.Exponents[i] = q.Exponents[i] - o.Exponents[i]
	}
	return r
}

// Pow scales every exponent by n, i.e. the type of q raised to integer power n.
func (q Quantity) Pow(n int) Quantity {
	var r Quantity
	for i := range r.Exponents {
		r.Exponents[i] = q.Exponents[i] * n
	}
	return r
}

// PerTime returns q divided by time, the type produced by a time-derivative.
func (q Quantity) PerTime() Quantity {
	return q.Div(Quantity{Exponents: [numDimensions]int{Time: 1}})
}

func (q Quantity) Equal(o Type) bool {
	oq, ok := o.(Quantity)
	if !ok {
		return false
	}
	return q.Exponents == oq.Exponents
}

func (q Quantity) String() string {
	if q.IsReal() {
		return "real"
	}
	var parts []string
	for i, e := range q.Exponents {
		if e == 0 {
			continue
		}
		if e == 1 {
			parts = append(parts, dimensionSymbol[i])
		} else {
			parts = append(parts, fmt.Sprintf("%s^%d", dimensionSymbol[i], e))
		}
	}
	return strings.Join(parts, "*")
}

// Boolean is arblang's sole non-quantity scalar type. It has no derivative.
type Boolean struct{}

func (Boolean) isType()          {}
func (Boolean) String() string   { return "bool" }
func (Boolean) Equal(o Type) bool {
	_, ok := o.(Boolean)
	return ok
}

// Field is one (name, type) pair of a Record.
type Field struct {
	Name string
	Type Type
}

// Record is an ordered list of named fields. Equality is order-independent
// on field names, per spec.md 3.1.
type Record struct {
	Fields []Field
}

func (Record) isType() {}

func (r Record) String() string {
	var parts []string
	for _, f := range r.Fields {
		parts = append(parts, f.Name+": "+f.Type.String())
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

// FieldType returns the type of the named field and whether it exists.
func (r Record) FieldType(name string) (Type, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

func (r Record) Equal(o Type) bool {
	or, ok := o.(Record)
	if !ok || len(r.Fields) != len(or.Fields) {
		return false
	}
	left := make(map[string]Type, len(r.Fields))
	for _, f := range r.Fields {
		left[f.Name] = f.Type
	}
	right := make(map[string]Type, len(or.Fields))
	for _, f := range or.Fields {
		right[f.Name] = f.Type
	}
	if len(left) != len(right) {
		return false
	}
	for name, t := range left {
		ot, ok := right[name]
		if !ok || !t.Equal(ot) {
			return false
		}
	}
	return true
}

// SortedFieldNames returns the record's field names in lexical order, used
// wherever a canonical field ordering is needed (e.g. pre-printer flattening).
func (r Record) SortedFieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}

// Derivative returns the time-derivative of t: a Quantity maps to
// q*time^-1, a Record lifts the operation pointwise over its fields, and a
// Boolean has no derivative (second return is false).
func Derivative(t Type) (Type, bool) {
	switch v := t.(type) {
	case Quantity:
		return v.PerTime(), true
	case Record:
		fields := make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			d, ok := Derivative(f.Type)
			if !ok {
				return nil, false
			}
			fields[i] = Field{Name: f.Name, Type: d}
		}
		return Record{Fields: fields}, true
	default:
		return nil, false
	}
}

// Common bindable/affectable intrinsic quantities, named per the glossary.
var (
	Voltage           = Quantity{Exponents: [numDimensions]int{Length: 2, Mass: 1, Time: -3, Current: -1}}
	KelvinTemperature = Quantity{Exponents: [numDimensions]int{Temperature: 1}}
	Concentration     = Quantity{Exponents: [numDimensions]int{Length: -3, Amount: 1}}
	CurrentDensity    = Quantity{Exponents: [numDimensions]int{Length: -2, Current: 1}}
	Current_          = Quantity{Exponents: [numDimensions]int{Current: 1}}
	Charge            = Quantity{Exponents: [numDimensions]int{Current: 1, Time: 1}}
	MolarFlux         = Quantity{Exponents: [numDimensions]int{Length: -2, Time: -1, Amount: 1}}
	MolarFlowRate     = Quantity{Exponents: [numDimensions]int{Time: -1, Amount: 1}}
	ConcentrationRate = Concentration.PerTime()
	Dimensionless     = Real()
)
