package analyser

import (
	"errors"
	"log/slog"
)

// Warner receives the faults [Analyser.Extract] downgrades to warnings.
// Warn must not fail the caller.
type Warner interface {
	Warn(err error)
}

// WarnerFunc adapts a function to the [Warner] interface.
type WarnerFunc func(err error)

// Warn calls f(err).
func (f WarnerFunc) Warn(err error) {
	f(err)
}

// SlogWarner logs warnings to a [*slog.Logger]. A nil Logger uses
// [slog.Default].
type SlogWarner struct {
	Logger *slog.Logger
}

// Warn logs err at warn level. Position attributes are added when err is
// (or wraps) an [*AnnotationError].
func (w SlogWarner) Warn(err error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var annErr *AnnotationError
	if errors.As(err, &annErr) {
		logger.Warn(annErr.Message,
			slog.String("file", annErr.File),
			slog.Int("line", annErr.Line),
			slog.Int("character", annErr.Character),
			slog.Any("error", annErr.Err),
		)

		return
	}

	logger.Warn("parse annotations", slog.Any("error", err))
}
