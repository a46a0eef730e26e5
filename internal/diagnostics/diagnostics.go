// Package diagnostics defines the shared error/diagnostic type used by the
// lexer, parser, and checker so all three stages report problems uniformly.
package diagnostics

import (
	"fmt"

	"github.com/horizonanalytic/stratum/internal/token"
)

// Code identifies the kind of problem a Diagnostic reports. Each stage
// (lexer, parser, checker) defines its own Code values in its own package;
// this type is just the common carrier.
type Code string

// Severity distinguishes hard failures from advisory notices. Every current
// diagnostic in this module is Error; Warning exists for forward
// compatibility with lints that are out of scope for the checker itself.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a single reported problem, anchored to a source span.
type Diagnostic struct {
	Code     Code
	Message  string
	Span     token.Span
	Line     int
	Column   int
	Severity Severity
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", "<source>", d.Line, d.Column, d.Severity, d.Message)
}

// Bag accumulates diagnostics across a single lex/parse/check pass, letting
// each stage keep going past the first error instead of aborting.
type Bag struct {
	items []Diagnostic
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

func (b *Bag) Addf(code Code, sp token.Span, line, col int, format string, args ...any) {
	b.Add(Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     sp,
		Line:     line,
		Column:   col,
		Severity: Error,
	})
}

func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (b *Bag) Items() []Diagnostic {
	return b.items
}

func (b *Bag) Len() int {
	return len(b.items)
}
