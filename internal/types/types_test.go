package types

import "testing"

func TestQuantityArithmetic(t *testing.T) {
	length := Quantity{Exponents: [numDimensions]int{Length: 1}}
	time := Quantity{Exponents: [numDimensions]int{Time: 1}}

	velocity := length.Div(time)
	if velocity.Exponents[Length] != 1 || velocity.Exponents[Time] != -1 {
		t.Fatalf("length/time = %+v, want Length:1 Time:-1", velocity)
	}

	area := length.Mul(length)
	if area.Exponents[Length] != 2 {
		t.Fatalf("length*length = %+v, want Length:2", area)
	}

	cubed := length.Pow(3)
	if cubed.Exponents[Length] != 3 {
		t.Fatalf("length^3 = %+v, want Length:3", cubed)
	}

	if !Real().IsReal() {
		t.Fatal("Real() should be dimensionless")
	}
	if length.IsReal() {
		t.Fatal("length should not be dimensionless")
	}
}

func TestQuantityPerTimeMatchesDiv(t *testing.T) {
	if !Concentration.PerTime().Equal(ConcentrationRate) {
		t.Fatalf("Concentration.PerTime() = %v, want %v", Concentration.PerTime(), ConcentrationRate)
	}
}

func TestQuantityEqualityIgnoresTypeMismatch(t *testing.T) {
	if Real().Equal(Boolean{}) {
		t.Fatal("a Quantity should never equal a Boolean")
	}
}

func TestRecordEqualityIsFieldOrderIndependent(t *testing.T) {
	a := Record{Fields: []Field{{Name: "i", Type: Current_}, {Name: "g", Type: Real()}}}
	b := Record{Fields: []Field{{Name: "g", Type: Real()}, {Name: "i", Type: Current_}}}
	if !a.Equal(b) {
		t.Fatal("records with the same fields in different order should be equal")
	}
}

func TestRecordFieldTypeLookup(t *testing.T) {
	r := Record{Fields: []Field{{Name: "m", Type: Real()}}}
	ty, ok := r.FieldType("m")
	if !ok || !ty.Equal(Real()) {
		t.Fatalf("FieldType(m) = (%v, %v), want (real, true)", ty, ok)
	}
	if _, ok := r.FieldType("missing"); ok {
		t.Fatal("FieldType should report false for an unknown field")
	}
}

func TestDerivativeLiftsOverRecordFields(t *testing.T) {
	r := Record{Fields: []Field{{Name: "m", Type: Real()}}}
	d, ok := Derivative(r)
	if !ok {
		t.Fatal("Derivative of an all-quantity record should succeed")
	}
	dr, ok := d.(Record)
	if !ok || !dr.Fields[0].Type.Equal(Real().PerTime()) {
		t.Fatalf("unexpected derivative record: %#v", d)
	}

	if _, ok := Derivative(Boolean{}); ok {
		t.Fatal("Boolean has no derivative")
	}
}

func TestSortedFieldNames(t *testing.T) {
	r := Record{Fields: []Field{{Name: "z", Type: Real()}, {Name: "a", Type: Real()}}}
	names := r.SortedFieldNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "z" {
		t.Fatalf("SortedFieldNames() = %v, want [a z]", names)
	}
}
