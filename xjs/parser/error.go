package parser

import "fmt"

type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

type ErrorKind int

const (
	UnterminatedLiteral ErrorKind = iota
	UnbalancedDelimiter
	MalformedAttribute
	UnterminatedMarkup
	UnknownSigil
	InvalidArgumentList
	StructuralInvariantViolation
)

var errorKindNames = map[ErrorKind]string{
	UnterminatedLiteral:          "UnterminatedLiteral",
	UnbalancedDelimiter:          "UnbalancedDelimiter",
	MalformedAttribute:           "MalformedAttribute",
	UnterminatedMarkup:           "UnterminatedMarkup",
	UnknownSigil:                 "UnknownSigil",
	InvalidArgumentList:          "InvalidArgumentList",
	StructuralInvariantViolation: "StructuralInvariantViolation",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is the single failure value returned by Parse. The serializer
// reuses it with StructuralInvariantViolation for malformed trees.
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Pos, e.Message, e.Kind)
}

func newError(kind ErrorKind, pos Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}
