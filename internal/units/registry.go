package units

import "github.com/tidwall/match"

// Registry answers glob-style questions about the recognized base SI
// symbols, for diagnostics that suggest a likely unit when a mechanism
// source misspells one (e.g. "Lookup" reporting every candidate symbol
// for a bad unit string so an error message can say "did you mean
// one of: ...").
type Registry struct {
	symbols []string
}

// NewRegistry builds a Registry over every base symbol units.Parse
// recognizes.
func NewRegistry() *Registry {
	r := &Registry{symbols: make([]string, len(symbolsByLength))}
	copy(r.symbols, symbolsByLength)
	return r
}

// Lookup returns every registered symbol matching the glob pattern
// (e.g. "*A" matches "A"; "m*" matches "m", "mol"). Patterns follow
// tidwall/match's shell-glob syntax: '*', '?', and '[...]' classes.
func (r *Registry) Lookup(pattern string) []string {
	var out []string
	for _, sym := range r.symbols {
		if match.Match(sym, pattern) {
			out = append(out, sym)
		}
	}
	return out
}
