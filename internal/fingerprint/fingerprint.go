// Package fingerprint computes the deterministic cache keys the engine
// uses for incremental computation. A node's fingerprint covers its
// component identity and version, its canonicalized configuration, and the
// fingerprints of everything upstream of it, so two nodes hash equal
// exactly when recomputing one of them could not change its output.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/plexusml/plexus/internal/schema"
)

// Key is a hex-encoded fingerprint. It is the cache key itself: equal keys
// guarantee equal outputs and the store relies on that.
type Key string

// Short returns a truncated form suitable for directory names and logs.
func (k Key) Short() string {
	if len(k) <= 12 {
		return string(k)
	}
	return string(k)[:12]
}

// Engine derives node fingerprints. It is stateless and safe for
// concurrent use.
type Engine struct{}

// New creates a fingerprint engine.
func New() *Engine {
	return &Engine{}
}

// Fingerprint hashes the node's identity into its cache key.
//
// version tags the component implementation; parents maps the node's input
// parameters to the already-computed keys of their producers; external is
// the raw-input hash for source nodes (empty when the run carries no
// external input); scope partitions the key space (used for mode-scoped
// cache policies, empty otherwise).
func (e *Engine) Fingerprint(node *schema.Node, version string, parents map[string]Key, external Key, scope string) (Key, error) {
	h := sha256.New()
	writeField(h, "component", node.Uses)
	writeField(h, "version", version)

	cfg, err := canonicalConfig(node)
	if err != nil {
		return "", fmt.Errorf("fingerprinting node '%s': %w", node.Name, err)
	}
	writeField(h, "config", cfg)

	// Upstream keys in sorted-parameter order: stable regardless of how
	// the bindings map iterates.
	params := make([]string, 0, len(parents))
	for param := range parents {
		params = append(params, param)
	}
	sort.Strings(params)
	for _, param := range params {
		writeField(h, "need."+param, string(parents[param]))
	}

	if external != "" {
		writeField(h, "external", string(external))
	}
	if scope != "" {
		writeField(h, "scope", scope)
	}

	return Key(hex.EncodeToString(h.Sum(nil))), nil
}

// HashExternal hashes raw external inputs into a key. encoding/json emits
// map keys in sorted order, which makes the serialization canonical.
func HashExternal(inputs map[string]any) (Key, error) {
	if len(inputs) == 0 {
		return "", nil
	}
	data, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("hashing external inputs: %w", err)
	}
	sum := sha256.Sum256(data)
	return Key(hex.EncodeToString(sum[:])), nil
}

// canonicalConfig serializes the node's configuration independently of map
// iteration order: sorted keys, each value rendered as typed cty JSON.
func canonicalConfig(node *schema.Node) (string, error) {
	if len(node.Config) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(node.Config))
	for k := range node.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]byte, 0, 64)
	for _, k := range keys {
		v := node.Config[k]
		data, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return "", fmt.Errorf("config key '%s': %w", k, err)
		}
		out = append(out, k...)
		out = append(out, '=')
		out = append(out, data...)
		out = append(out, ';')
	}
	return string(out), nil
}

// writeField writes a length-delimited labeled section so that adjacent
// fields can never alias each other.
func writeField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s:%d:%s\n", label, len(value), value)
}
