package component

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Mode selects what a run is for. Components may make mode-sensitive
// decisions (e.g. refuse to retrain in ModePredict).
type Mode int

const (
	ModeTrain Mode = iota
	ModeFinetune
	ModePredict
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeTrain:
		return "train"
	case ModeFinetune:
		return "finetune"
	case ModePredict:
		return "predict"
	default:
		return "unknown"
	}
}

// Training reports whether the mode invokes Train on trainable components.
func (m Mode) Training() bool {
	return m == ModeTrain || m == ModeFinetune
}

// ExecutionContext is the read-only per-run metadata passed into every
// component invocation. The engine copies it per node, so a component may
// hold on to it for the lifetime of the instance.
type ExecutionContext struct {
	// RunID is the opaque identity of this run.
	RunID string

	// Mode is the run mode: train, finetune, or predict.
	Mode Mode

	// NodeName names the node currently being executed.
	NodeName string

	// SchemaVersion is the version tag of the schema driving the run.
	SchemaVersion string
}

// Resource identifies a named location in the artifact store. A resource
// without a fingerprint is unpublished: only the owning node may touch it
// mid-run. A fingerprinted resource is durable and cache-addressable.
type Resource struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Published reports whether the resource points at committed content.
func (r Resource) Published() bool {
	return r.Fingerprint != ""
}

// Config is a node's component configuration as typed values.
type Config map[string]cty.Value

// Inputs maps a component's declared parameter names to the resolved
// outputs of the producing nodes (or raw external inputs for source
// nodes). A parameter wired to a tolerated failure is absent.
type Inputs map[string]any

// Storage is the component-facing view of the artifact store.
type Storage interface {
	// ReadFrom returns the directory of the resource's committed content,
	// or the node's own staging directory for its unpublished resource.
	ReadFrom(res Resource) (string, error)

	// WriteTo returns a staging directory for the node's produced
	// resource. Content written there becomes durable only when the
	// engine publishes the node's output; it is discarded on failure.
	WriteTo(res Resource) (string, error)
}

// Provider constructs component instances. Implementations must be
// stateless with respect to prior instances: New either restores state by
// reading res from storage (resuming from a trained or fine-tuned
// artifact) or builds fresh state.
type Provider interface {
	// Type is the stable component identity referenced by schemas.
	Type() string

	// Version tags the implementation; bumping it invalidates cached
	// artifacts produced by older versions.
	Version() string

	// New creates an instance for one node invocation.
	New(cfg Config, storage Storage, res Resource, ectx ExecutionContext) (Component, error)
}

// Component is a pipeline stage at inference time. Process is a pure
// transformation: it must not mutate persisted resources.
type Component interface {
	Process(ctx context.Context, inputs Inputs) (any, error)
}

// Trainer is the optional training capability. Stateless transform-only
// components simply don't implement it; the engine then falls back to
// Process in training runs.
type Trainer interface {
	Train(ctx context.Context, inputs Inputs) (any, error)
}
