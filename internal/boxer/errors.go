package boxer

import (
	"fmt"

	"github.com/hassan/toyc/internal/lexer"
)

// ErrorKind enumerates the ways a token stream can fail to box cleanly.
type ErrorKind int

const (
	UnclosedDelimiter ErrorKind = iota
	MalformedLetStatement
	MalformedFunctionDeclaration
	MalformedStructField
	MalformedWhileStatement
	ExpectedToken
	ExpectedName
	UnknownSymbol
)

func (k ErrorKind) String() string {
	switch k {
	case UnclosedDelimiter:
		return "UnclosedDelimiter"
	case MalformedLetStatement:
		return "MalformedLetStatement"
	case MalformedFunctionDeclaration:
		return "MalformedFunctionDeclaration"
	case MalformedStructField:
		return "MalformedStructField"
	case MalformedWhileStatement:
		return "MalformedWhileStatement"
	case ExpectedToken:
		return "ExpectedToken"
	case ExpectedName:
		return "ExpectedName"
	case UnknownSymbol:
		return "UnknownSymbol"
	default:
		return "Unknown"
	}
}

// Error is a boxing failure tied to the position it was detected at.
type Error struct {
	Kind     ErrorKind
	Message  string
	Position lexer.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Position.String(), e.Kind.String(), e.Message)
}

func errAt(kind ErrorKind, pos lexer.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Position: pos}
}
