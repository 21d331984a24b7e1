package hclschema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeDoc(t, `
pipeline {
  name    = "nlu"
  version = "2"
}

node "message" "source" {
  needs = { message = "input.message" }
}

node "tokenizer" "tok" {
  config {
    lowercase = true
    dim       = 64
  }
  needs    = { messages = "source" }
  resource = "tokenizer_vocab"
  target   = true
}
`)

	s, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "nlu", s.Name)
	assert.Equal(t, "2", s.Version)
	require.Len(t, s.Nodes, 2)

	source := s.Nodes[0]
	assert.Equal(t, "source", source.Name)
	assert.Equal(t, "message", source.Uses)
	assert.Equal(t, map[string]string{"message": "input.message"}, source.Needs)
	assert.False(t, source.Target)

	tok := s.Nodes[1]
	assert.Equal(t, "tok", tok.Name)
	assert.Equal(t, "tokenizer", tok.Uses)
	assert.Equal(t, "tokenizer_vocab", tok.Resource)
	assert.True(t, tok.Target)
	assert.True(t, tok.Config["lowercase"].True())
	assert.True(t, tok.Config["dim"].RawEquals(cty.NumberIntVal(64)))
}

func TestLoadPreservesDeclarationOrder(t *testing.T) {
	path := writeDoc(t, `
node "fake" "z" {}
node "fake" "m" {}
node "fake" "a" {}
`)
	s, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	names := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"z", "m", "a"}, names)
}

func TestLoadWithoutPipelineBlock(t *testing.T) {
	path := writeDoc(t, `node "fake" "a" {}`)
	s, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, s.Name)
	require.Len(t, s.Nodes, 1)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "ghost.hcl"))
		assert.Error(t, err)
	})

	t.Run("malformed document", func(t *testing.T) {
		path := writeDoc(t, `node "fake" {`)
		_, err := NewLoader().Load(context.Background(), path)
		assert.Error(t, err)
	})

	t.Run("non-constant config attribute", func(t *testing.T) {
		path := writeDoc(t, `
node "fake" "a" {
  config {
    value = some.reference
  }
}
`)
		_, err := NewLoader().Load(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "a")
	})
}
