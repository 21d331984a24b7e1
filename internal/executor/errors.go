package executor

import (
	"fmt"

	"github.com/plexusml/plexus/internal/fingerprint"
)

// ComponentError reports a failure raised inside a node's component
// invocation (create, train, or process).
type ComponentError struct {
	Node string
	Err  error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component of node '%s' failed: %v", e.Node, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// RunError is the terminal error of a failed run: the failing node, the
// fingerprint it was executing under, and the underlying cause.
type RunError struct {
	Node        string
	Fingerprint fingerprint.Key
	Err         error
}

func (e *RunError) Error() string {
	if e.Fingerprint != "" {
		return fmt.Sprintf("run failed at node '%s' (fingerprint %s): %v", e.Node, e.Fingerprint.Short(), e.Err)
	}
	return fmt.Sprintf("run failed at node '%s': %v", e.Node, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
