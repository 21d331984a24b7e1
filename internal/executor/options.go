package executor

import (
	"github.com/plexusml/plexus/internal/component"
)

// defaultWorkers bounds node concurrency when the caller doesn't.
const defaultWorkers = 4

// CachePolicy controls cache reuse for one run.
type CachePolicy struct {
	// Disabled turns the cache off entirely: no lookups, no writes.
	Disabled bool

	// ForceRetrain skips cache lookups but still records fresh results.
	ForceRetrain bool

	// ModeScoped partitions cache keys by run mode, so e.g. an artifact
	// produced during fine-tuning is not reused for prediction. The
	// default shares keys across modes.
	ModeScoped bool
}

// Options configures a single run.
type Options struct {
	// Mode selects training, fine-tuning, or prediction behavior.
	Mode component.Mode

	// RunID identifies the run; generated when empty.
	RunID string

	// ExternalInputs supplies the raw inputs source nodes consume, keyed
	// by external input name.
	ExternalInputs map[string]any

	// Cache is the run's cache reuse policy.
	Cache CachePolicy

	// Workers bounds how many nodes execute concurrently.
	Workers int
}

// Result holds a completed run's target outputs.
type Result struct {
	// RunID is the identity the run executed under.
	RunID string

	// Order lists target node names in schema declaration order,
	// independent of completion order.
	Order []string

	// Outputs maps target node name to its output. A tolerated target
	// failure leaves its name out of the map.
	Outputs map[string]any
}

// Target returns the named target's output.
func (r *Result) Target(name string) any {
	return r.Outputs[name]
}
