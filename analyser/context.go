package analyser

import (
	"context"
	"fmt"
)

// Context tracks where a doc comment came from and the state accumulated
// while parsing it.
//
// A Context belongs to a single parse attempt at a time. Callers scanning a
// file may reuse one Context for consecutive comments; [Analyser.Extract]
// overwrites [Context.Comment] on every call but leaves the position fields
// to the caller.
type Context struct {
	// Uses maps lower-cased aliases to fully-qualified names, taken from the
	// PHP use statements of the enclosing file. Consulted before the parser's
	// own import table.
	Uses map[string]string
	// Extra holds parser-specific auxiliary state.
	Extra map[string]any

	File      string
	Namespace string
	// Comment is the text handed to the parser (after [Normalize]).
	Comment string

	// Annotations accumulates every annotation constructed so far, nested
	// ones included, so parsers can resolve cross-references.
	Annotations []*Annotation

	Line      int
	Character int
}

// NewContext creates a [Context] for a comment starting at line in file.
// Negative lines are clamped to zero.
func NewContext(file string, line int) *Context {
	return &Context{
		File: file,
		Line: max(line, 0),
	}
}

// String renders the context as "<file> on line <line>". The rendering is
// used in diagnostics and in the position convention of [SyntaxError].
func (c *Context) String() string {
	file := c.File
	if file == "" {
		file = "unknown"
	}

	return fmt.Sprintf("%s on line %d", file, c.Line)
}

type activeContextKey struct{}

// WithActiveContext returns a copy of ctx carrying c as the context of the
// comment currently being parsed.
func WithActiveContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, activeContextKey{}, c)
}

// ActiveContext returns the [Context] attached by [WithActiveContext], if any.
// Annotation constructors use it to learn which comment, file and line they
// are being built from.
func ActiveContext(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(activeContextKey{}).(*Context)

	return c, ok && c != nil
}
