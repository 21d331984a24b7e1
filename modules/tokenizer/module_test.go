package tokenizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/plexusml/plexus/internal/component"
)

// dirStorage backs both components with a single directory, standing in
// for the store's staging and committed views.
type dirStorage struct {
	dir string
}

func (s *dirStorage) ReadFrom(_ component.Resource) (string, error) { return s.dir, nil }
func (s *dirStorage) WriteTo(_ component.Resource) (string, error)  { return s.dir, nil }

func trainVocab(t *testing.T, store component.Storage, texts ...string) component.Resource {
	t.Helper()
	res := component.Resource{Name: "vocab"}
	tr, err := TrainerProvider{}.New(component.Config{"lowercase": cty.True}, store, res, component.ExecutionContext{})
	require.NoError(t, err)

	msgs := make([]*component.Message, len(texts))
	for i, text := range texts {
		msgs[i] = component.NewMessage(map[string]any{"text": text})
	}
	out, err := tr.(component.Trainer).Train(context.Background(), component.Inputs{"messages": msgs})
	require.NoError(t, err)
	return out.(component.Resource)
}

func TestTrainerBuildsStableVocabulary(t *testing.T) {
	store := &dirStorage{dir: t.TempDir()}
	trainVocab(t, store, "Hello world", "world of pipelines")

	// Ids are assigned over the sorted distinct tokens, so two trainings on
	// reordered corpora agree.
	other := &dirStorage{dir: t.TempDir()}
	trainVocab(t, other, "world of pipelines", "Hello world")

	a := newAnnotator(t, store)
	b := newAnnotator(t, other)

	outA := annotate(t, a, component.Resource{Name: "vocab", Fingerprint: "x"}, "hello world")
	outB := annotate(t, b, component.Resource{Name: "vocab", Fingerprint: "x"}, "hello world")
	assert.Equal(t, outA[0].Outputs, outB[0].Outputs)
}

func newAnnotator(t *testing.T, store component.Storage) component.Component {
	t.Helper()
	a, err := Provider{}.New(component.Config{"lowercase": cty.True}, store, component.Resource{}, component.ExecutionContext{NodeName: "tok"})
	require.NoError(t, err)
	return a
}

func annotate(t *testing.T, a component.Component, model component.Resource, text string) []*component.Message {
	t.Helper()
	out, err := a.Process(context.Background(), component.Inputs{
		"model":    model,
		"messages": []*component.Message{component.NewMessage(map[string]any{"text": text})},
	})
	require.NoError(t, err)
	return out.([]*component.Message)
}

func TestAnnotatorMarksTokensAndIds(t *testing.T) {
	store := &dirStorage{dir: t.TempDir()}
	trainVocab(t, store, "the quick brown fox")

	a := newAnnotator(t, store)
	msgs := annotate(t, a, component.Resource{Name: "vocab", Fingerprint: "x"}, "the lazy fox")
	require.Len(t, msgs, 1)

	output, ok := msgs[0].Outputs["tok"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"the", "lazy", "fox"}, output["tokens"])

	ids := output["ids"].([]int)
	require.Len(t, ids, 3)
	assert.GreaterOrEqual(t, ids[0], 0)
	assert.Equal(t, -1, ids[1]) // unknown token
	assert.GreaterOrEqual(t, ids[2], 0)
}

func TestAnnotatorDoesNotMutateInput(t *testing.T) {
	store := &dirStorage{dir: t.TempDir()}
	trainVocab(t, store, "hello")

	a := newAnnotator(t, store)
	original := component.NewMessage(map[string]any{"text": "hello"})
	out, err := a.Process(context.Background(), component.Inputs{
		"model":    component.Resource{Name: "vocab", Fingerprint: "x"},
		"messages": []*component.Message{original},
	})
	require.NoError(t, err)

	msgs := out.([]*component.Message)
	require.Len(t, msgs, 1)
	assert.NotSame(t, original, msgs[0])
	assert.Empty(t, original.Outputs)
}

func TestAnnotatorNoMessages(t *testing.T) {
	store := &dirStorage{dir: t.TempDir()}
	trainVocab(t, store, "hello")

	a := newAnnotator(t, store)
	out, err := a.Process(context.Background(), component.Inputs{
		"model": component.Resource{Name: "vocab", Fingerprint: "x"},
	})
	require.NoError(t, err)
	assert.Empty(t, out.([]*component.Message))
}

func TestAnnotatorMissingModel(t *testing.T) {
	a := newAnnotator(t, &dirStorage{dir: t.TempDir()})
	_, err := a.Process(context.Background(), component.Inputs{
		"model":    component.Resource{Name: "vocab", Fingerprint: "x"},
		"messages": []*component.Message{component.NewMessage(map[string]any{"text": "hi"})},
	})
	assert.Error(t, err)
}

func TestConfigLowercase(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, Config{Lowercase: true}.tokenize("Hello  World"))
	assert.Equal(t, []string{"Hello", "World"}, Config{Lowercase: false}.tokenize("Hello World"))
	assert.Empty(t, Config{}.tokenize("   "))
}

func TestTrainerRejectsUnknownConfig(t *testing.T) {
	_, err := TrainerProvider{}.New(component.Config{"lowrecase": cty.True}, nil, component.Resource{}, component.ExecutionContext{})
	assert.Error(t, err)
	_, err = Provider{}.New(component.Config{"lowrecase": cty.True}, nil, component.Resource{}, component.ExecutionContext{})
	assert.Error(t, err)
}
