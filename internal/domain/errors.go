package domain

import "fmt"

// SourceError identifies the upstream whose operation exhausted its
// retries. Both adapters return it so callers can attribute failures.
type SourceError struct {
	Source Source
	Op     string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
