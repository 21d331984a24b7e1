package schema

import (
	"sort"
)

// mark is the DFS coloring used for cycle detection.
type mark int

const (
	unvisited mark = iota
	inProgress
	done
)

// Validate checks the schema's structural invariants and returns its
// validated, immutable form. It fails with a DuplicateNodeError,
// ReferenceError, DuplicateResourceError, or CycleError; the first
// violation found (in declaration order) wins.
func Validate(s *Schema) (*Validated, error) {
	byName := make(map[string]*Node, len(s.Nodes))
	for _, n := range s.Nodes {
		if _, exists := byName[n.Name]; exists {
			return nil, &DuplicateNodeError{Name: n.Name}
		}
		byName[n.Name] = n
	}

	// Every binding must resolve to a declared node or an external input.
	for _, n := range s.Nodes {
		for _, param := range sortedKeys(n.Needs) {
			ref := n.Needs[param]
			if _, external := ExternalInput(ref); external {
				continue
			}
			if _, ok := byName[ref]; !ok {
				return nil, &ReferenceError{Node: n.Name, Param: param, Ref: ref}
			}
		}
	}

	// Resource ownership is exclusive: one producer per resource name.
	owners := make(map[string]string)
	for _, n := range s.Nodes {
		if n.Resource == "" {
			continue
		}
		if first, claimed := owners[n.Resource]; claimed {
			return nil, &DuplicateResourceError{Resource: n.Resource, First: first, Second: n.Name}
		}
		owners[n.Resource] = n.Name
	}

	if err := detectCycles(s, byName); err != nil {
		return nil, err
	}

	return &Validated{
		Schema: s,
		Order:  topoOrder(s, byName),
		byName: byName,
	}, nil
}

// detectCycles runs a three-color depth-first search over the binding
// edges. A back-edge onto an in-progress node proves a cycle, which is
// reported with that node's name.
func detectCycles(s *Schema, byName map[string]*Node) error {
	marks := make(map[string]mark, len(s.Nodes))

	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch marks[n.Name] {
		case done:
			return nil
		case inProgress:
			return &CycleError{Node: n.Name}
		}
		marks[n.Name] = inProgress
		for _, param := range sortedKeys(n.Needs) {
			ref := n.Needs[param]
			if _, external := ExternalInput(ref); external {
				continue
			}
			if err := visit(byName[ref]); err != nil {
				return err
			}
		}
		marks[n.Name] = done
		return nil
	}

	for _, n := range s.Nodes {
		if marks[n.Name] == unvisited {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// topoOrder produces the execution order: producers before consumers, ties
// between independent nodes broken by declaration order. Must only be
// called on a schema already proven acyclic.
func topoOrder(s *Schema, byName map[string]*Node) []*Node {
	pending := make(map[string]int, len(s.Nodes))
	for _, n := range s.Nodes {
		deps := make(map[string]bool)
		for _, ref := range n.Needs {
			if _, external := ExternalInput(ref); !external {
				deps[ref] = true
			}
		}
		pending[n.Name] = len(deps)
	}

	order := make([]*Node, 0, len(s.Nodes))
	scheduled := make(map[string]bool, len(s.Nodes))
	for len(order) < len(s.Nodes) {
		// Scan in declaration order so the first ready node wins the tie.
		for _, n := range s.Nodes {
			if scheduled[n.Name] || pending[n.Name] > 0 {
				continue
			}
			scheduled[n.Name] = true
			order = append(order, n)
			for _, m := range s.Nodes {
				if scheduled[m.Name] {
					continue
				}
				deps := make(map[string]bool)
				for _, ref := range m.Needs {
					if _, external := ExternalInput(ref); !external {
						deps[ref] = true
					}
				}
				if deps[n.Name] {
					pending[m.Name]--
				}
			}
		}
	}
	return order
}

// sortedKeys returns the map's keys in lexical order so iteration is
// stable wherever binding order matters.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
