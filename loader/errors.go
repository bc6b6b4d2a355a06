package loader

import "fmt"

// LexError reports input text that matches no token.
type LexError struct {
	// Line is the 1-based source line.
	Line int
	// Text is the offending character sequence.
	Text string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("Error at line %d, unexpected input %q", e.Line, e.Text)
}

// ParseError reports a well-formed token in the wrong place, an unknown
// opcode, or a label that is defined twice or never defined.
type ParseError struct {
	// Line is the 1-based source line.
	Line int
	// Reason describes what went wrong.
	Reason string
	// Label names the label involved, if any.
	Label string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Error at line %d, %s", e.Line, e.Reason)
}

func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
