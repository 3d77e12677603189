// Package compiler orchestrates the fixed pass pipeline spec.md section
// 2 lays out end to end: lex, parse, resolve, canonicalize, ssa-rename,
// optimize, inline, solve, pre-print, emit. Grounded on the teacher's
// cmd/dwscript compile command, which strings lexer -> parser ->
// semantic analysis -> bytecode compilation together the same way,
// formatting every stage's errors through one shared error type before
// returning.
package compiler

import (
	"fmt"

	"github.com/kr/pretty"

	"github.com/arblang/arblangc/internal/canon"
	"github.com/arblang/arblangc/internal/cerr"
	"github.com/arblang/arblangc/internal/config"
	"github.com/arblang/arblangc/internal/emitter"
	"github.com/arblang/arblangc/internal/inline"
	"github.com/arblang/arblangc/internal/ir"
	"github.com/arblang/arblangc/internal/lexer"
	"github.com/arblang/arblangc/internal/optimize"
	"github.com/arblang/arblangc/internal/parser"
	"github.com/arblang/arblangc/internal/preprint"
	"github.com/arblang/arblangc/internal/resolver"
	"github.com/arblang/arblangc/internal/solve"
	"github.com/arblang/arblangc/internal/ssa"
)

// Output is one compiled mechanism's generated artifacts.
type Output struct {
	Header     string
	Body       string
	Descriptor string // only populated when opts.DumpDescriptor is set
}

// Compile runs the full pipeline over src (the contents of
// opts.InputFile) and returns the emitted header/body pair.
//
// A parse error is returned wrapped with the input file name. A
// *cerr.Error from any later stage is returned with src already
// attached via withSource, so its Format renders a caret-annotated
// excerpt; other errors pass through unchanged.
func Compile(src string, opts *config.Options) (*Output, error) {
	l := lexer.New(src)
	p := parser.New(l)
	astMech := p.ParseMechanism()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("parsing %s: %w", opts.InputFile, errs[0])
	}

	r := resolver.New(opts.InputFile, src)
	mech, err := r.ResolveMechanism(astMech)
	if err != nil {
		return nil, withSource(err, src)
	}

	mech = canon.New().Canonicalize(mech)
	mech = ssa.New().Rename(mech)
	mech = optimize.New().Optimize(mech)

	mech, err = inline.New().Inline(mech)
	if err != nil {
		return nil, withSource(err, src)
	}

	mech, err = solve.Solve(mech)
	if err != nil {
		return nil, withSource(err, src)
	}

	pm, err := preprint.Build(mech)
	if err != nil {
		return nil, withSource(err, src)
	}

	result, err := emitter.Emit(pm, opts.Namespace)
	if err != nil {
		return nil, err
	}

	out := &Output{Header: result.Header, Body: result.Body}
	if opts.DumpDescriptor {
		doc, err := emitter.DescriptorJSON(pm)
		if err != nil {
			return nil, err
		}
		out.Descriptor = doc
	}
	return out, nil
}

// withSource attaches src to err if it is a *cerr.Error, so positions
// render with a caret-annotated excerpt; any other error type passes
// through unchanged.
func withSource(err error, src string) error {
	if ce, ok := err.(*cerr.Error); ok {
		return ce.WithSource(src)
	}
	return err
}

// ParseOnly runs lex+parse only, for the arblangc "parse" debug
// subcommand: it reports the parsed mechanism's name, or the first
// parse error, without committing to a full resolve. The rest of the
// parsed tree is not returned.
func ParseOnly(src string) (mech *parseResult, err error) {
	l := lexer.New(src)
	p := parser.New(l)
	astMech := p.ParseMechanism()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return &parseResult{Name: astMech.Name}, nil
}

type parseResult struct {
	Name string
}

// ResolveOnly runs the pipeline through resolution, for the arblangc
// "resolve" debug subcommand.
func ResolveOnly(src, file string) (*ir.Mechanism, error) {
	l := lexer.New(src)
	p := parser.New(l)
	astMech := p.ParseMechanism()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	r := resolver.New(file, src)
	mech, err := r.ResolveMechanism(astMech)
	if err != nil {
		return nil, withSource(err, src)
	}
	return mech, nil
}

// DumpIR renders a resolved mechanism's full structure for the
// arblangc "dump" debug subcommand, using the same field-aware
// pretty-printer the rest of the pack reaches for when a plain %#v
// dump would be too dense to scan by eye.
func DumpIR(mech *ir.Mechanism) string {
	return pretty.Sprint(mech)
}
