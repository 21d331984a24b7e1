// Package testutil provides the shared fakes and helpers the engine's
// tests are built on: recording component providers whose invocation
// counters make cache hits observable, and small schema-building helpers.
package testutil

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plexusml/plexus/internal/component"
	"github.com/plexusml/plexus/internal/schema"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements io.Writer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements fmt.Stringer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Recorder counts component lifecycle invocations across every instance a
// provider creates. A cache hit is observable as all counters staying put.
type Recorder struct {
	NewCalls     atomic.Int32
	TrainCalls   atomic.Int32
	ProcessCalls atomic.Int32
}

// FakeProvider is a configurable component provider for tests.
type FakeProvider struct {
	TypeName   string
	VersionTag string

	// Recorder receives invocation counts; optional.
	Recorder *Recorder

	// NewErr makes New fail.
	NewErr error

	// Trainable adds the Trainer capability to created instances.
	Trainable bool

	// TrainFn and ProcessFn supply behavior; nil functions echo their
	// inputs back as the output.
	TrainFn   func(ctx context.Context, inputs component.Inputs) (any, error)
	ProcessFn func(ctx context.Context, inputs component.Inputs) (any, error)
}

// Type implements component.Provider.
func (p *FakeProvider) Type() string {
	if p.TypeName == "" {
		return "fake"
	}
	return p.TypeName
}

// Version implements component.Provider.
func (p *FakeProvider) Version() string {
	if p.VersionTag == "" {
		return "1.0.0"
	}
	return p.VersionTag
}

// New implements component.Provider.
func (p *FakeProvider) New(_ component.Config, storage component.Storage, res component.Resource, _ component.ExecutionContext) (component.Component, error) {
	if p.Recorder != nil {
		p.Recorder.NewCalls.Add(1)
	}
	if p.NewErr != nil {
		return nil, p.NewErr
	}
	inst := &fakeInstance{provider: p, storage: storage, res: res}
	if p.Trainable {
		return &fakeTrainable{fakeInstance: inst}, nil
	}
	return inst, nil
}

type fakeInstance struct {
	provider *FakeProvider
	storage  component.Storage
	res      component.Resource
}

func (f *fakeInstance) Process(ctx context.Context, inputs component.Inputs) (any, error) {
	if f.provider.Recorder != nil {
		f.provider.Recorder.ProcessCalls.Add(1)
	}
	if f.provider.ProcessFn != nil {
		return f.provider.ProcessFn(ctx, inputs)
	}
	return map[string]any(inputs), nil
}

type fakeTrainable struct {
	*fakeInstance
}

func (f *fakeTrainable) Train(ctx context.Context, inputs component.Inputs) (any, error) {
	if f.provider.Recorder != nil {
		f.provider.Recorder.TrainCalls.Add(1)
	}
	if f.provider.TrainFn != nil {
		return f.provider.TrainFn(ctx, inputs)
	}
	return map[string]any(inputs), nil
}

// MustValidate validates a schema or fails the test.
func MustValidate(t *testing.T, s *schema.Schema) *schema.Validated {
	t.Helper()
	v, err := schema.Validate(s)
	require.NoError(t, err)
	return v
}

// Registry builds a component registry from the given providers.
func Registry(providers ...component.Provider) *component.Registry {
	r := component.NewRegistry()
	for _, p := range providers {
		r.Register(p)
	}
	return r
}
