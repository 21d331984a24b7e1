package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/plexusml/plexus/internal/component"
	"github.com/plexusml/plexus/internal/ctxlog"
	"github.com/plexusml/plexus/internal/fingerprint"
	"github.com/plexusml/plexus/internal/schema"
	"github.com/plexusml/plexus/internal/storage"
)

// executeNode drives one node through its state machine. On return the
// node is either Done (output recorded) or the error describes why it is
// Failed. Staged writes are discarded on every failure path.
func (e *Executor) executeNode(ctx context.Context, n *runNode, opts Options) error {
	logger := ctxlog.FromContext(ctx)

	n.setState(ResolvingInputs)
	inputs := e.resolveInputs(n, opts)

	n.setState(Fingerprinting)
	key, err := e.fingerprintNode(n, opts)
	if err != nil {
		return err
	}
	n.key = key

	if !opts.Cache.Disabled && !opts.Cache.ForceRetrain {
		if output, hit := e.cacheLookup(ctx, n); hit {
			n.setState(CacheHit)
			logger.Debug("Cache hit, component not instantiated.", "fingerprint", key.Short())
			n.complete(output)
			return nil
		}
	}

	n.setState(Computing)
	res := component.Resource{Name: n.spec.Resource}
	view := &nodeStorage{store: e.store, node: n.spec.Name, resource: n.spec.Resource}
	defer view.discard()

	ectx := component.ExecutionContext{
		RunID:         opts.RunID,
		Mode:          opts.Mode,
		NodeName:      n.spec.Name,
		SchemaVersion: n.schemaVersion,
	}
	instance, err := n.provider.New(n.spec.Config, view, res, ectx)
	if err != nil {
		return &ComponentError{Node: n.spec.Name, Err: fmt.Errorf("create: %w", err)}
	}

	var output any
	if trainer, ok := instance.(component.Trainer); ok && opts.Mode.Training() {
		logger.Debug("Invoking component train.", "component", n.spec.Uses)
		output, err = trainer.Train(ctx, inputs)
	} else {
		logger.Debug("Invoking component process.", "component", n.spec.Uses)
		output, err = instance.Process(ctx, inputs)
	}
	if err != nil {
		return &ComponentError{Node: n.spec.Name, Err: err}
	}

	n.setState(Publishing)
	output, err = e.publish(ctx, n, view, output, opts)
	if err != nil {
		return err
	}

	n.complete(output)
	return nil
}

// resolveInputs gathers the node's inputs from its producers and from the
// run's raw external inputs. Inputs wired to a tolerated failure or to an
// absent external input are simply left out.
func (e *Executor) resolveInputs(n *runNode, opts Options) component.Inputs {
	inputs := make(component.Inputs, len(n.spec.Needs))
	for param, ref := range n.spec.Needs {
		if name, external := schema.ExternalInput(ref); external {
			if raw, ok := opts.ExternalInputs[name]; ok {
				inputs[param] = raw
			}
			continue
		}
		parent := n.parents[param]
		if parent.State() == Done && parent.hasOutput {
			inputs[param] = parent.output
		}
	}
	return inputs
}

// fingerprintNode computes the node's cache key from its resolved
// upstream fingerprints, the external inputs it references, and the run's
// cache scoping policy.
func (e *Executor) fingerprintNode(n *runNode, opts Options) (fingerprint.Key, error) {
	parentKeys := make(map[string]fingerprint.Key, len(n.parents))
	for param, parent := range n.parents {
		if parent.State() == Done {
			parentKeys[param] = parent.key
		}
	}

	// Only the external inputs this node actually consumes feed its key.
	var external fingerprint.Key
	consumed := make(map[string]any)
	for _, ref := range n.spec.Needs {
		if name, ok := schema.ExternalInput(ref); ok {
			if raw, present := opts.ExternalInputs[name]; present {
				consumed[name] = raw
			}
		}
	}
	if len(consumed) > 0 {
		var err error
		external, err = fingerprint.HashExternal(consumed)
		if err != nil {
			return "", &ComponentError{Node: n.spec.Name, Err: err}
		}
	}

	scope := ""
	if opts.Cache.ModeScoped {
		scope = opts.Mode.String()
	}
	return e.engine.Fingerprint(n.spec, n.provider.Version(), parentKeys, external, scope)
}

// cacheLookup resolves the node's output from a committed cache entry. Any
// store or descriptor problem degrades to a cache miss: the engine must
// tolerate losing the cache at any time by recomputing.
func (e *Executor) cacheLookup(ctx context.Context, n *runNode) (any, bool) {
	logger := ctxlog.FromContext(ctx)

	entry, ok := e.store.Entry(n.key)
	if !ok {
		return nil, false
	}

	if len(entry.Output) > 0 {
		output, err := component.DecodeOutput(entry.Output)
		if err != nil {
			logger.Warn("Cache entry unreadable, recomputing.", "fingerprint", n.key.Short(), "error", err)
			return nil, false
		}
		return output, true
	}
	if entry.Resource != "" {
		return component.Resource{Name: entry.Resource, Fingerprint: string(entry.Fingerprint)}, true
	}
	logger.Warn("Cache entry empty, recomputing.", "fingerprint", n.key.Short())
	return nil, false
}

// publish persists the node's result. A node owning a resource commits its
// staged content (staging even when the component wrote nothing, so the
// resource exists for consumers) and its downstream output becomes the
// committed resource. Other nodes record a descriptor-only cache entry.
func (e *Executor) publish(ctx context.Context, n *runNode, view *nodeStorage, output any, opts Options) (any, error) {
	logger := ctxlog.FromContext(ctx)

	if err := ctx.Err(); err != nil {
		// Cancelled mid-computation: the result must not be published.
		return nil, err
	}

	if n.spec.Resource != "" {
		if _, err := view.WriteTo(component.Resource{Name: n.spec.Resource}); err != nil {
			return nil, &storage.PublishError{Resource: n.spec.Resource, Err: err}
		}
		committed := component.Resource{Name: n.spec.Resource, Fingerprint: string(n.key)}
		descriptor, err := component.EncodeOutput(committed)
		if err != nil {
			return nil, &storage.PublishError{Resource: n.spec.Resource, Err: err}
		}
		if _, err := view.scope.Commit(n.key, descriptor); err != nil {
			return nil, err
		}
		logger.Debug("Resource published.", "resource", n.spec.Resource, "fingerprint", n.key.Short())
		return committed, nil
	}

	if opts.Cache.Disabled {
		return output, nil
	}
	descriptor, err := component.EncodeOutput(output)
	if err != nil {
		logger.Debug("Output not cacheable, skipping cache entry.", "error", err)
		return output, nil
	}
	if err := e.store.PutEntry(n.key, descriptor); err != nil {
		logger.Warn("Recording cache entry failed, continuing.", "fingerprint", n.key.Short(), "error", err)
	}
	return output, nil
}

// nodeStorage is the component-facing storage view for one node
// invocation. It scopes writes to the node's own resource and lets the
// owning node read back its unpublished staging content mid-run.
type nodeStorage struct {
	store    *storage.Store
	node     string
	resource string

	mu    sync.Mutex
	scope *storage.WriteScope
}

// ReadFrom implements component.Storage.
func (v *nodeStorage) ReadFrom(res component.Resource) (string, error) {
	if !res.Published() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.scope != nil && res.Name == v.resource {
			return v.scope.Dir(), nil
		}
		return "", fmt.Errorf("node '%s' cannot read unpublished resource '%s': %w", v.node, res.Name, storage.ErrNotFound)
	}
	return v.store.Read(res)
}

// WriteTo implements component.Storage. The staging scope is opened
// lazily on first use and committed or discarded by the executor.
func (v *nodeStorage) WriteTo(res component.Resource) (string, error) {
	if v.resource == "" || res.Name != v.resource {
		return "", fmt.Errorf("node '%s' does not own resource '%s'", v.node, res.Name)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scope == nil {
		scope, err := v.store.BeginWrite(v.resource)
		if err != nil {
			return "", err
		}
		v.scope = scope
	}
	return v.scope.Dir(), nil
}

// discard releases the staging scope unless it was committed. Deferred on
// every execution path so failures and cancellations leak nothing.
func (v *nodeStorage) discard() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scope != nil {
		v.scope.Discard()
	}
}
