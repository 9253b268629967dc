package analyser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// fault is a parser error with a recoverable position.
type fault struct {
	message string
	offset  int
}

// recognizeFault extracts the message and offset from err. Structured
// [*SyntaxError] values are used directly; anything else goes through
// [parseFaultMessage].
func recognizeFault(err error, rendered string) (fault, bool) {
	var synErr *SyntaxError
	if errors.As(err, &synErr) {
		return fault{message: synErr.Message, offset: synErr.Offset}, true
	}

	return parseFaultMessage(err.Error(), rendered)
}

// parseFaultMessage is a compatibility shim for parsers that report faults
// only as text of the form "<message> at position <N> in <context>.", where
// context is the rendering of the [Context] the parser was given.
func parseFaultMessage(msg, rendered string) (fault, bool) {
	re, err := regexp.Compile(`^(.+) at position ([0-9]+) in ` + regexp.QuoteMeta(rendered) + `\.$`)
	if err != nil {
		return fault{}, false
	}

	m := re.FindStringSubmatch(msg)
	if m == nil {
		return fault{}, false
	}

	offset, err := strconv.Atoi(m[2])
	if err != nil {
		return fault{}, false
	}

	return fault{message: m[1], offset: offset}, true
}

// recoverPosition moves c to the position of a fault reported at offset,
// counted from the first "@" in the original comment. Line is advanced by
// the number of newlines before the fault and Character is set to the
// one-based column of the fault within its line.
func recoverPosition(c *Context, original string, offset int) {
	atPos := max(strings.IndexByte(original, '@'), 0)
	end := min(atPos+max(offset, 0), len(original))

	c.Line += strings.Count(original[:end], "\n")

	segment := original[atPos:end]
	if i := strings.LastIndexByte(segment, '\n'); i >= 0 {
		segment = segment[i+1:]
	}

	c.Character = len(segment) + 1
}
