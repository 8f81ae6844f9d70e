package dsl

import (
	"errors"
	"fmt"
)

// ErrSyntax marks any lexical or grammatical defect in a DSL source file.
// Every ErrSyntax carries a line-accurate location via ParseError.
var ErrSyntax = errors.New("dsl syntax error")

// ParseError is a located parse failure. Compilation aborts on the first
// one encountered; the DSL grammar does not support error recovery.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

func newParseError(line, col int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}
