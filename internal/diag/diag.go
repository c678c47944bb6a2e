// Package diag is the error type astgen, lower, viewer and the CLI's loader
// report through: one Kind taxonomy, wrapped with golang.org/x/xerrors so
// callers can Unwrap/Is their way to an underlying cause, and rendered for a
// terminal with github.com/fatih/color. The lexer returns plain errors and
// the boxer its own boxer.Error; neither is a *diag.Error.
package diag

import (
	"fmt"

	"github.com/fatih/color"
	"golang.org/x/xerrors"

	"github.com/hassan/toyc/internal/lexer"
)

// Kind enumerates every distinct way a compilation can fail, spanning the
// lexer, boxer, astgen, and lower stages.
type Kind int

const (
	KindUnknownCharacter Kind = iota
	KindUnterminatedString
	KindMalformedNumberLiteral

	KindUnclosedDelimiter
	KindMalformedLetStatement
	KindMalformedFunctionDeclaration
	KindMalformedStructField
	KindMalformedWhileStatement
	KindExpectedToken
	KindExpectedName
	KindUnknownSymbol

	KindUndefinedVariable
	KindUndefinedFunction
	KindUndefinedStruct
	KindUndefinedField
	KindTypeMismatch
	KindArityMismatch
	KindDuplicateDeclaration
	KindInvalidLocationForBreak
	KindInvalidLocationForContinue
	KindImportNotFound
	KindMissingInstruction
)

var kindLabels = [...]string{
	"UnknownCharacter",
	"UnterminatedString",
	"MalformedNumberLiteral",
	"UnclosedDelimiter",
	"MalformedLetStatement",
	"MalformedFunctionDeclaration",
	"MalformedStructField",
	"MalformedWhileStatement",
	"ExpectedToken",
	"ExpectedName",
	"UnknownSymbol",
	"UndefinedVariable",
	"UndefinedFunction",
	"UndefinedStruct",
	"UndefinedField",
	"TypeMismatch",
	"ArityMismatch",
	"DuplicateDeclaration",
	"InvalidLocationForBreak",
	"InvalidLocationForContinue",
	"ImportNotFound",
	"MissingInstruction",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindLabels) {
		return kindLabels[k]
	}
	return "Unknown"
}

// Error is the unified diagnostic type. It always carries a Kind, the
// source position it was detected at, and optionally the raw-text excerpt
// that triggered it.
type Error struct {
	Kind     Kind
	Message  string
	Position lexer.Position
	Excerpt  string
	cause    error
}

// New builds an Error with no wrapped cause.
func New(kind Kind, pos lexer.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Position: pos}
}

// Wrap builds an Error that also preserves an underlying cause for Unwrap,
// using xerrors so the wrapped frame keeps its own stack trace.
func Wrap(kind Kind, pos lexer.Position, cause error, format string, args ...interface{}) *Error {
	wrapped := xerrors.Errorf("%s: %w", fmt.Sprintf(format, args...), cause)
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Position: pos, cause: wrapped}
}

// WithExcerpt attaches the offending raw-text snippet for richer rendering.
func (e *Error) WithExcerpt(text string) *Error {
	e.Excerpt = text
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Position.String(), e.Kind.String(), e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Position.String(), e.Kind.String(), e.Message)
}

// Unwrap exposes the wrapped cause, if any, to xerrors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is lets callers match on Kind via xerrors.Is(err, diag.New(diag.KindTypeMismatch, ...)).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

// Render writes a colorized, human-facing rendering of err to a string,
// highlighting the Kind in red and the position in the original's
// `colored`-crate style.
func Render(err *Error) string {
	kind := color.New(color.FgRed, color.Bold).Sprint(err.Kind.String())
	pos := color.New(color.FgCyan).Sprint(err.Position.String())
	out := fmt.Sprintf("%s %s: %s", pos, kind, err.Message)
	if err.Excerpt != "" {
		out += "\n    " + color.New(color.Faint).Sprint(err.Excerpt)
	}
	return out
}
