// Package component defines the contract every pipeline stage implements
// and the per-run context the engine threads into each invocation. The
// executor only ever talks to these interfaces; concrete components are
// registered by type name and added by implementing Provider, never by
// runtime type inspection.
package component
