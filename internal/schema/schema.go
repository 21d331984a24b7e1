package schema

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// externalPrefix namespaces input bindings that refer to raw external
// inputs supplied per run instead of to another node's output.
const externalPrefix = "input."

// Node describes a single pipeline stage bound to a registered component
// type. Nodes are declared in schema order; that order breaks ties between
// independent nodes during scheduling.
type Node struct {
	// Name uniquely identifies the node within its schema.
	Name string

	// Uses names the component type this node instantiates.
	Uses string

	// Config holds the node's component configuration as typed values.
	Config map[string]cty.Value

	// Needs wires component input parameters to producers: either another
	// node's name or an external input reference ("input.<name>").
	Needs map[string]string

	// Resource is the name of the artifact this node produces, if any.
	// At most one node in a schema may produce a given resource name.
	Resource string

	// Target marks the node's output as part of the run result.
	Target bool

	// ContinueOnError lets the run proceed when this node fails; its
	// output is then absent for downstream consumers.
	ContinueOnError bool
}

// Schema is a pipeline description: an ordered set of nodes plus identity
// metadata. It carries no execution state.
type Schema struct {
	Name    string
	Version string
	Nodes   []*Node
}

// ExternalInput reports whether ref addresses a raw external input and, if
// so, returns the input name.
func ExternalInput(ref string) (string, bool) {
	if name, ok := strings.CutPrefix(ref, externalPrefix); ok && name != "" {
		return name, true
	}
	return "", false
}

// ExternalRef builds the binding reference for a named external input.
func ExternalRef(name string) string {
	return externalPrefix + name
}

// Validated is the proven-acyclic form of a Schema produced by Validate.
// Its node order is topological with declaration-order tie-breaking, so
// identical schemas always execute in the same order.
type Validated struct {
	Schema *Schema

	// Order lists every node such that producers precede consumers.
	Order []*Node

	byName map[string]*Node
}

// Node returns the named node, or nil if the schema has no such node.
func (v *Validated) Node(name string) *Node {
	return v.byName[name]
}

// Targets returns the target nodes in declaration order.
func (v *Validated) Targets() []*Node {
	var targets []*Node
	for _, n := range v.Schema.Nodes {
		if n.Target {
			targets = append(targets, n)
		}
	}
	return targets
}

// Parents returns the distinct producer nodes n is wired to, excluding
// external inputs, in sorted-parameter order for determinism.
func (v *Validated) Parents(n *Node) []*Node {
	seen := make(map[string]bool)
	var parents []*Node
	for _, param := range sortedKeys(n.Needs) {
		ref := n.Needs[param]
		if _, external := ExternalInput(ref); external {
			continue
		}
		if !seen[ref] {
			seen[ref] = true
			parents = append(parents, v.byName[ref])
		}
	}
	return parents
}
