package cli

import "fmt"

// ArgumentError is a bad command-line value. It is reported with usage and
// exits with status 2; every other error exits with 1.
type ArgumentError struct {
	Flag    string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Flag == "" {
		return e.Message
	}
	return fmt.Sprintf("argument %s: %s", e.Flag, e.Message)
}
