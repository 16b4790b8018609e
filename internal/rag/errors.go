package rag

import "fmt"

// InvalidQueryError reports a question that failed validation before any
// backend work was done. It is the caller's signal for a 4xx response.
type InvalidQueryError struct {
	Field  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
