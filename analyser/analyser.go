package analyser

import (
	"context"
	"log/slog"
)

// Parser parses the annotations out of a doc comment.
//
// Implementations report malformed annotations as a [*SyntaxError], or as a
// plain error whose text follows the [SyntaxError.Error] convention. Any
// other error is treated as a fault without a known position.
type Parser interface {
	Parse(ctx context.Context, comment string, c *Context) ([]*Annotation, error)
}

// Analyser extracts annotations from doc comments. It is safe for
// concurrent use as long as each call gets its own [Context].
//
// Create instances with [New].
type Analyser struct {
	parser Parser
	warner Warner
}

// Option configures an [Analyser].
type Option func(*Analyser)

// WithParser sets the annotation parser. The default is a [DocParser] that
// ignores names missing from [DefaultImports] and only builds annotations
// under [DefaultWhitelist].
func WithParser(p Parser) Option {
	return func(a *Analyser) {
		a.parser = p
	}
}

// WithWarner sets where parse faults are reported.
func WithWarner(w Warner) Option {
	return func(a *Analyser) {
		a.warner = w
	}
}

// WithLogger reports parse faults to logger through a [SlogWarner].
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyser) {
		a.warner = SlogWarner{Logger: logger}
	}
}

// New creates an [Analyser] with the given options.
func New(opts ...Option) *Analyser {
	a := &Analyser{}

	for _, opt := range opts {
		opt(a)
	}

	if a.parser == nil {
		a.parser = NewDocParser(
			IgnoreNotImported(true),
			WithImports(DefaultImports),
			WithWhitelist(DefaultWhitelist),
		)
	}

	if a.warner == nil {
		a.warner = SlogWarner{}
	}

	return a
}

// Extract parses the annotations in comment and returns them in textual
// order.
//
// When c is nil a new [Context] is created; otherwise its Comment is
// replaced and its position is left to the caller. For the duration of the
// call c is the active context of the [context.Context] given to the parser
// (see [ActiveContext]).
//
// Extract never fails. A fault is sent to the [Warner] and an empty list is
// returned. When the fault carries a position, c.Line and c.Character are
// moved to the fault in the original (unnormalized) comment and the warning
// is an [*AnnotationError] wrapping the fault.
func (a *Analyser) Extract(ctx context.Context, comment string, c *Context) []*Annotation {
	if c == nil {
		c = &Context{Comment: comment}
	} else {
		c.Comment = comment
	}

	if c.Annotations == nil {
		c.Annotations = []*Annotation{}
	}

	c.Comment = Normalize(comment)

	annotations, err := a.parser.Parse(WithActiveContext(ctx, c), c.Comment, c)
	if err != nil {
		a.warn(err, comment, c)

		return []*Annotation{}
	}

	if annotations == nil {
		return []*Annotation{}
	}

	return annotations
}

func (a *Analyser) warn(err error, original string, c *Context) {
	f, ok := recognizeFault(err, c.String())
	if !ok {
		a.warner.Warn(err)

		return
	}

	recoverPosition(c, original, f.offset)
	a.warner.Warn(newAnnotationError(f.message, c, err))
}
