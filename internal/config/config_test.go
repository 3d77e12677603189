package config

import "testing"

func TestValidateRequiresAllFields(t *testing.T) {
	cases := []struct {
		name string
		opts Options
	}{
		{"missing input", Options{OutputPrefix: "out", Namespace: "demo"}},
		{"missing output prefix", Options{InputFile: "leak.arblang", Namespace: "demo"}},
		{"missing namespace", Options{InputFile: "leak.arblang", OutputPrefix: "out"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.opts.Validate(); err == nil {
				t.Fatalf("expected Validate() to fail for %+v", c.opts)
			}
		})
	}
}

func TestValidateNormalizesNamespaceToNFC(t *testing.T) {
	// "é" (e + combining acute accent) is not itself a valid bare
	// identifier once normalized it collapses to "é" (é), which this
	// package's ASCII-only isValidIdentifier still rejects. Validate
	// stores the normalized form before checking it, so the normalization
	// is visible on the options even though Validate fails.
	decomposed := Options{InputFile: "leak.arblang", OutputPrefix: "out", Namespace: "é"}
	if err := decomposed.Validate(); err == nil {
		t.Fatal("expected Validate() to reject a non-ASCII namespace")
	}
	if decomposed.Namespace != "é" {
		t.Fatalf("Namespace = %q, want NFC form %q", decomposed.Namespace, "é")
	}

	// An already-normalized valid name passes through unchanged.
	opts := Options{InputFile: "leak.arblang", OutputPrefix: "out", Namespace: "demo"}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Validate() returned error for a valid namespace: %v", err)
	}
	if opts.Namespace != "demo" {
		t.Fatalf("Namespace = %q, want unchanged \"demo\"", opts.Namespace)
	}
}

func TestValidateRejectsNamespaceStartingWithDigit(t *testing.T) {
	opts := Options{InputFile: "leak.arblang", OutputPrefix: "out", Namespace: "1demo"}
	if err := opts.Validate(); err == nil {
		t.Fatal("expected Validate() to reject a namespace starting with a digit")
	}
}

func TestValidateRejectsNamespaceWithInvalidCharacters(t *testing.T) {
	opts := Options{InputFile: "leak.arblang", OutputPrefix: "out", Namespace: "de-mo"}
	if err := opts.Validate(); err == nil {
		t.Fatal("expected Validate() to reject a namespace containing a hyphen")
	}
}
