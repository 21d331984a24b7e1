package executor

import (
	"sync"
	"sync/atomic"

	"github.com/plexusml/plexus/internal/component"
	"github.com/plexusml/plexus/internal/fingerprint"
	"github.com/plexusml/plexus/internal/schema"
)

// runNode is the mutable per-run state of one schema node. Output and err
// are written by the executing worker before the node's completion is made
// visible to dependents through the ready channel, which provides the
// necessary happens-before ordering.
type runNode struct {
	spec          *schema.Node
	provider      component.Provider
	schemaVersion string

	state    atomic.Int32
	depCount atomic.Int32

	// parents maps input parameter name to the producing run node.
	parents    map[string]*runNode
	dependents []*runNode

	key       fingerprint.Key
	output    any
	hasOutput bool
	err       error

	// skipOnce guards the one-time accounting of a node abandoned without
	// executing (upstream failure or cancellation). Such a node never
	// leaves Pending.
	skipOnce sync.Once
}

// State returns the node's current state.
func (n *runNode) State() State {
	return State(n.state.Load())
}

func (n *runNode) setState(s State) {
	n.state.Store(int32(s))
}

// fail records a failure and moves the node to Failed.
func (n *runNode) fail(err error) {
	n.err = err
	n.setState(Failed)
}

// complete records a successful output and moves the node to Done.
func (n *runNode) complete(output any) {
	n.output = output
	n.hasOutput = true
	n.setState(Done)
}
