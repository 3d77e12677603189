// Package config parses arblangc's command-line options: the output
// file prefix, the generated namespace, and the mandatory input file,
// per spec.md section 6's CLI contract. The namespace identifier is
// normalized to NFC before it's spliced into generated C++ symbol
// names, so two visually identical but differently-encoded command
// lines produce byte-identical output.
package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Options holds one compile invocation's resolved settings.
type Options struct {
	// InputFile is the arblang mechanism source to compile.
	InputFile string
	// OutputPrefix is the "-o" value: the base path the header/body
	// files are written under (".hpp"/".cpp" appended by the compile
	// command).
	OutputPrefix string
	// Namespace is the "-N" value: the C++ namespace generated symbols
	// are emitted under.
	Namespace string
	// DumpDescriptor, when set, additionally serializes the resolved
	// state/parameter/ion tables as JSON to stdout in addition to
	// writing the C++ sources.
	DumpDescriptor bool
}

// Validate checks that every required option is present, and NFC-
// normalizes Namespace so it's safe to splice into a generated C++
// identifier regardless of the input encoding.
func (o *Options) Validate() error {
	if o.InputFile == "" {
		return errors.New("missing input file")
	}
	if o.OutputPrefix == "" {
		return errors.New("missing required -o output prefix")
	}
	if o.Namespace == "" {
		return errors.New("missing required -N namespace")
	}
	o.Namespace = norm.NFC.String(o.Namespace)
	if !isValidIdentifier(o.Namespace) {
		return fmt.Errorf("namespace %q is not a valid C++ identifier after normalization", o.Namespace)
	}
	return nil
}

// isValidIdentifier reports whether s could be spliced into a C++
// namespace or symbol name unescaped: letters, digits, underscores,
// not starting with a digit.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && isDigit {
			return false
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}
