package analyser

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the analyser and its parser.
var (
	ErrSyntax        = errors.New("syntax error")
	ErrSemantic      = errors.New("semantic error")
	ErrType          = errors.New("type error")
	ErrInvalidOption = errors.New("invalid option")
	ErrReadRegistry  = errors.New("read registry")
)

// SyntaxError is a parse fault at a known offset.
//
// Offset counts bytes from the first "@" of the comment, which is where the
// parser starts lexing. Context is the rendering of the [Context] the parser
// was called with.
type SyntaxError struct {
	Message string
	Context string
	Offset  int
}

// Error renders the fault as "<message> at position <offset> in <context>.",
// the form recognized by [Analyser.Extract] for parsers that only return
// plain errors.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d in %s.", e.Message, e.Offset, e.Context)
}

// Unwrap returns [ErrSyntax].
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// AnnotationError is the warning emitted for a fault whose position could be
// recovered. File, Line and Character point into the original source.
type AnnotationError struct {
	Err       error
	Message   string
	File      string
	Line      int
	Character int
}

func newAnnotationError(msg string, c *Context, err error) *AnnotationError {
	return &AnnotationError{
		Message:   msg,
		File:      c.File,
		Line:      c.Line,
		Character: c.Character,
		Err:       err,
	}
}

// Error renders the warning as "<message> in <file> on line <line>".
func (e *AnnotationError) Error() string {
	c := Context{File: e.File, Line: e.Line}

	return e.Message + " in " + c.String()
}

// Unwrap returns the underlying parser fault.
func (e *AnnotationError) Unwrap() error {
	return e.Err
}
