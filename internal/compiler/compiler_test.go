package compiler

import (
	"strings"
	"testing"

	"github.com/arblang/arblangc/internal/config"
	"github.com/goccy/go-yaml"
)

// fixture describes one end-to-end compile scenario. Fixtures are
// authored as YAML rather than inline Go literals so new scenarios can
// be added without touching this file, the way the teacher's
// testdata/fixtures tree separates scripts from test driver code.
type fixture struct {
	Name           string `yaml:"name"`
	Source         string `yaml:"source"`
	Namespace      string `yaml:"namespace"`
	WantErr        bool   `yaml:"want_err"`
	BodyContains   string `yaml:"body_contains"`
	HeaderContains string `yaml:"header_contains"`
}

const fixturesYAML = `
- name: leak-channel
  namespace: demo
  source: |
    mechanism density leak {
      parameter gbar: [S/cm2] = 0.0003;
      state m: real;
      initial m = 0;
      evolve m' = -m;
      effect current_density_pair = { i = gbar * m; g = gbar; };
    }
  body_contains: "void advance_state"
  header_contains: "arb_mechanism_type demo_leak()"

- name: constant-folds-before-emit
  namespace: demo
  source: |
    mechanism density fold {
      parameter gbar: [S/cm2] = 6;
      state m: real;
      initial m = 0;
      evolve m' = -m;
      effect current_density_pair = { i = gbar * m; g = gbar; };
    }
  body_contains: "void init"
`

func loadFixtures(t *testing.T) []fixture {
	t.Helper()
	var fixtures []fixture
	if err := yaml.Unmarshal([]byte(fixturesYAML), &fixtures); err != nil {
		t.Fatalf("unmarshal fixtures: %v", err)
	}
	return fixtures
}

func TestCompileFixtures(t *testing.T) {
	for _, fx := range loadFixtures(t) {
		fx := fx
		t.Run(fx.Name, func(t *testing.T) {
			opts := &config.Options{InputFile: fx.Name + ".arblang", OutputPrefix: "out", Namespace: fx.Namespace}
			if err := opts.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			out, err := Compile(fx.Source, opts)
			if fx.WantErr {
				if err == nil {
					t.Fatalf("expected an error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if fx.BodyContains != "" && !strings.Contains(out.Body, fx.BodyContains) {
				t.Errorf("body missing %q:\n%s", fx.BodyContains, out.Body)
			}
			if fx.HeaderContains != "" && !strings.Contains(out.Header, fx.HeaderContains) {
				t.Errorf("header missing %q:\n%s", fx.HeaderContains, out.Header)
			}
		})
	}
}
