package rules

import "fmt"

// ParseError reports a rule string that is malformed or does not compile.
// Pos is the rune offset of the problem, or -1 when the error concerns the
// compiled pattern as a whole.
type ParseError struct {
	Rule   string
	Pos    int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("unable to parse rule %q", e.Rule)
	if e.Pos >= 0 {
		msg += fmt.Sprintf(" at position %d", e.Pos)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
