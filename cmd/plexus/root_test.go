package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputs(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		inputs, err := parseInputs(nil)
		require.NoError(t, err)
		assert.Nil(t, inputs)
	})

	t.Run("pairs", func(t *testing.T) {
		inputs, err := parseInputs([]string{"text=hello world", "lang=en"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"text": "hello world", "lang": "en"}, inputs)
	})

	t.Run("value may contain equals", func(t *testing.T) {
		inputs, err := parseInputs([]string{"query=a=b"})
		require.NoError(t, err)
		assert.Equal(t, "a=b", inputs["query"])
	})

	t.Run("missing value separator", func(t *testing.T) {
		_, err := parseInputs([]string{"novalue"})
		assert.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := parseInputs([]string{"=value"})
		assert.Error(t, err)
	})
}

func TestCutPair(t *testing.T) {
	name, value, ok := cutPair("a=b")
	assert.True(t, ok)
	assert.Equal(t, "a", name)
	assert.Equal(t, "b", value)

	name, value, ok = cutPair("a=")
	assert.True(t, ok)
	assert.Equal(t, "a", name)
	assert.Empty(t, value)

	_, _, ok = cutPair("plain")
	assert.False(t, ok)
}
