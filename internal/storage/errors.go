package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a resource that has no committed content, including
// resources whose staged write never committed.
var ErrNotFound = errors.New("resource not found")

// PublishError reports a failed commit. The staged content is discarded;
// nothing partial ever becomes visible.
type PublishError struct {
	Resource string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing resource '%s': %v", e.Resource, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
