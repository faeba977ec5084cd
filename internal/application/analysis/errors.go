package analysis

import "fmt"

// ValidationError rejects bad input before any analysis row is created or
// any model is invoked.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseError marks a successfully received but unusable model response.
// It is never retried: a new call will not fix a prompt/response mismatch.
type ParseError struct {
	Stage  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response could not be parsed: %s", e.Stage, e.Reason)
}
