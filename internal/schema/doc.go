// Package schema defines the in-memory pipeline graph description and its
// validator. A Schema is a declaration-ordered list of nodes, each bound to
// a component type, with named input bindings onto other nodes or external
// inputs. Validation proves the bindings form a DAG, resolves every
// reference, enforces exclusive resource ownership, and fixes a
// deterministic topological execution order.
//
// A Schema is immutable once validated; changing the pipeline means
// building and validating a new Schema.
package schema
