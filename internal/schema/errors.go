package schema

import "fmt"

// CycleError reports a cycle in the input bindings, naming a node on it.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("schema: cycle detected involving node '%s'", e.Node)
}

// ReferenceError reports an input binding that names a node absent from
// the schema.
type ReferenceError struct {
	Node  string
	Param string
	Ref   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("schema: node '%s' binds parameter '%s' to unknown node '%s'", e.Node, e.Param, e.Ref)
}

// DuplicateResourceError reports two nodes claiming ownership of the same
// produced resource name.
type DuplicateResourceError struct {
	Resource string
	First    string
	Second   string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("schema: resource '%s' is produced by both '%s' and '%s'", e.Resource, e.First, e.Second)
}

// DuplicateNodeError reports two nodes declared with the same name.
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("schema: node '%s' declared more than once", e.Name)
}
