package executor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/plexusml/plexus/internal/component"
	"github.com/plexusml/plexus/internal/ctxlog"
	"github.com/plexusml/plexus/internal/fingerprint"
	"github.com/plexusml/plexus/internal/schema"
	"github.com/plexusml/plexus/internal/storage"
)

// Executor runs validated schemas against a component registry and an
// artifact store. It is safe to reuse across runs; all per-run state lives
// on the run's own nodes.
type Executor struct {
	registry *component.Registry
	store    *storage.Store
	engine   *fingerprint.Engine
}

// New creates an executor.
func New(registry *component.Registry, store *storage.Store) *Executor {
	return &Executor{
		registry: registry,
		store:    store,
		engine:   fingerprint.New(),
	}
}

// Run executes the schema until every target node is Done, returning the
// target outputs in schema declaration order. It terminates with a
// RunError as soon as any non-tolerant node fails; downstream nodes of a
// failure are left untouched in Pending. Cancelling ctx discards all
// staged writes and publishes nothing further.
func (e *Executor) Run(ctx context.Context, v *schema.Validated, opts Options) (*Result, error) {
	if opts.RunID == "" {
		opts.RunID = newRunID()
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	logger := ctxlog.FromContext(ctx).With("run_id", opts.RunID, "mode", opts.Mode.String())
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := e.registry.Validate(v); err != nil {
		return nil, err
	}

	nodes, err := e.buildRunNodes(v)
	if err != nil {
		return nil, err
	}
	logger.Debug("Run graph constructed.", "nodes", len(nodes), "workers", opts.Workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	readyChan := make(chan *runNode, len(nodes))
	var remaining atomic.Int32
	remaining.Store(int32(len(nodes)))
	finish := func() {
		if remaining.Add(-1) == 0 {
			close(readyChan)
		}
	}

	// Seed roots in declaration order so equal schemas always start the
	// same way.
	for _, n := range nodes {
		if n.depCount.Load() == 0 {
			readyChan <- n
		}
	}

	g := new(errgroup.Group)
	for i := 0; i < opts.Workers; i++ {
		workerID := i
		g.Go(func() error {
			e.worker(runCtx, workerID, readyChan, cancel, finish, opts)
			return nil
		})
	}
	_ = g.Wait()
	logger.Debug("All workers finished.")

	// The first non-tolerant failure in schema order is the run's error.
	// Cancellation casualties are symptoms, not causes, so a real failure
	// wins over them.
	var cancelled *runNode
	for _, n := range nodes {
		if n.State() != Failed || n.spec.ContinueOnError {
			continue
		}
		if errors.Is(n.err, context.Canceled) {
			if cancelled == nil {
				cancelled = n
			}
			continue
		}
		return nil, &RunError{Node: n.spec.Name, Fingerprint: n.key, Err: n.err}
	}
	if cancelled != nil {
		return nil, &RunError{Node: cancelled.spec.Name, Fingerprint: cancelled.key, Err: cancelled.err}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run '%s' cancelled: %w", opts.RunID, err)
	}

	return e.collectTargets(v, nodes, opts)
}

// worker is the processing loop of one concurrent worker.
func (e *Executor) worker(ctx context.Context, workerID int, readyChan chan *runNode, cancel context.CancelFunc, finish func(), opts Options) {
	logger := ctxlog.FromContext(ctx)

	for n := range readyChan {
		workerLogger := logger.With("worker", workerID, "node", n.spec.Name)

		if ctx.Err() != nil {
			n.skipOnce.Do(func() {
				workerLogger.Warn("Context cancelled, node not executed.")
				n.fail(ctx.Err())
				finish()
				// The node's dependents were never queued; account for
				// them too or the run would wait on them forever.
				e.skipDependents(ctx, n, finish)
			})
			continue
		}

		workerLogger.Debug("Worker picked up node.")
		err := e.executeNode(ctxlog.WithLogger(ctx, workerLogger), n, opts)

		if err != nil {
			n.fail(err)
			if n.spec.ContinueOnError {
				workerLogger.Warn("Node failed but is tolerant; run continues without its output.", "error", err)
				e.unlockDependents(n, readyChan)
			} else {
				workerLogger.Error("Node failed, aborting run.", "error", err, "fingerprint", n.key.Short())
				cancel()
				e.skipDependents(ctx, n, finish)
			}
			finish()
			continue
		}

		workerLogger.Debug("Node finished.", "state", n.State().String(), "fingerprint", n.key.Short())
		e.unlockDependents(n, readyChan)
		finish()
	}
}

// unlockDependents releases every dependent whose last dependency this
// node was.
func (e *Executor) unlockDependents(n *runNode, readyChan chan *runNode) {
	for _, dep := range n.dependents {
		if dep.depCount.Add(-1) == 0 {
			readyChan <- dep
		}
	}
}

// skipDependents recursively abandons everything downstream of a failed
// node. Skipped nodes stay in Pending: they are unreachable, not failed.
func (e *Executor) skipDependents(ctx context.Context, n *runNode, finish func()) {
	logger := ctxlog.FromContext(ctx)
	for _, dep := range n.dependents {
		dep.skipOnce.Do(func() {
			logger.Warn("Skipping node: upstream failure.", "node", dep.spec.Name, "failed_upstream", n.spec.Name)
			finish()
			e.skipDependents(ctx, dep, finish)
		})
	}
}

// buildRunNodes materializes the per-run node graph in topological order.
func (e *Executor) buildRunNodes(v *schema.Validated) ([]*runNode, error) {
	byName := make(map[string]*runNode, len(v.Order))
	nodes := make([]*runNode, 0, len(v.Order))

	for _, spec := range v.Order {
		provider, ok := e.registry.Lookup(spec.Uses)
		if !ok {
			return nil, fmt.Errorf("node '%s' uses unregistered component type '%s'", spec.Name, spec.Uses)
		}
		n := &runNode{
			spec:          spec,
			provider:      provider,
			schemaVersion: v.Schema.Version,
			parents:       make(map[string]*runNode),
		}
		byName[spec.Name] = n
		nodes = append(nodes, n)
	}

	for _, n := range nodes {
		distinct := make(map[string]bool)
		for param, ref := range n.spec.Needs {
			if _, external := schema.ExternalInput(ref); external {
				continue
			}
			parent := byName[ref]
			n.parents[param] = parent
			if !distinct[ref] {
				distinct[ref] = true
				parent.dependents = append(parent.dependents, n)
				n.depCount.Add(1)
			}
		}
	}
	return nodes, nil
}

// collectTargets assembles the final result deterministically: declaration
// order, not completion order.
func (e *Executor) collectTargets(v *schema.Validated, nodes []*runNode, opts Options) (*Result, error) {
	byName := make(map[string]*runNode, len(nodes))
	for _, n := range nodes {
		byName[n.spec.Name] = n
	}

	result := &Result{RunID: opts.RunID, Outputs: make(map[string]any)}
	for _, target := range v.Targets() {
		n := byName[target.Name]
		result.Order = append(result.Order, target.Name)
		switch {
		case n.State() == Done:
			result.Outputs[target.Name] = n.output
		case n.spec.ContinueOnError:
			// Tolerated failure: the target is simply absent.
		default:
			return nil, &RunError{Node: n.spec.Name, Fingerprint: n.key, Err: fmt.Errorf("target did not complete (state %s)", n.State())}
		}
	}
	return result, nil
}

// newRunID generates an opaque run identity.
func newRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("generating run id: %v", err))
	}
	return hex.EncodeToString(b[:])
}
