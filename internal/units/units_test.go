package units

import (
	"testing"

	"github.com/arblang/arblangc/internal/types"
)

func TestParseEmptyUnitIsDimensionless(t *testing.T) {
	p, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") returned error: %v", err)
	}
	if !p.Quantity.IsReal() {
		t.Fatalf("Parse(\"\") quantity = %v, want dimensionless", p.Quantity)
	}
}

func TestParseSimpleSymbol(t *testing.T) {
	p, err := Parse("V")
	if err != nil {
		t.Fatalf("Parse(\"V\") returned error: %v", err)
	}
	if !p.Quantity.Equal(types.Voltage) {
		t.Fatalf("Parse(\"V\") quantity = %v, want Voltage", p.Quantity)
	}
}

func TestParseSymbolWithGluedDigitPower(t *testing.T) {
	p, err := Parse("cm2")
	if err != nil {
		t.Fatalf("Parse(\"cm2\") returned error: %v", err)
	}
	want := types.Quantity{Exponents: [6]int{types.Length: 2}}
	if !p.Quantity.Equal(want) {
		t.Fatalf("Parse(\"cm2\") quantity = %v, want %v", p.Quantity, want)
	}
}

func TestParseCompoundUnitOfConductancePerArea(t *testing.T) {
	p, err := Parse("S/cm2")
	if err != nil {
		t.Fatalf("Parse(\"S/cm2\") returned error: %v", err)
	}
	want := types.Quantity{
		Exponents: [6]int{
			types.Length: -2 - 2, // S's own -2 plus dividing out cm^2's +2
			types.Mass:   -1,
			types.Time:   3,
			types.Current: 2,
		},
	}
	if !p.Quantity.Equal(want) {
		t.Fatalf("Parse(\"S/cm2\") quantity = %v, want %v", p.Quantity, want)
	}
}

func TestParseRejectsUnknownSymbol(t *testing.T) {
	if _, err := Parse("Sxyz"); err == nil {
		t.Fatal("expected an error for an unrecognized trailing unit fragment")
	}
}

func TestParseExplicitCaretPower(t *testing.T) {
	p, err := Parse("um^2")
	if err != nil {
		t.Fatalf("Parse(\"um^2\") returned error: %v", err)
	}
	want := types.Quantity{Exponents: [6]int{types.Length: 2}}
	if !p.Quantity.Equal(want) {
		t.Fatalf("Parse(\"um^2\") quantity = %v, want %v", p.Quantity, want)
	}
}

func TestRegistryLookupMatchesGlobPattern(t *testing.T) {
	r := NewRegistry()
	matches := r.Lookup("S*")
	found := false
	for _, m := range matches {
		if m == "S" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Lookup(\"S*\") = %v, want it to include the base symbol \"S\"", matches)
	}
}

func TestRegistryLookupReturnsNoneForImpossiblePattern(t *testing.T) {
	r := NewRegistry()
	if matches := r.Lookup("###"); len(matches) != 0 {
		t.Fatalf("Lookup(\"###\") = %v, want no matches", matches)
	}
}
