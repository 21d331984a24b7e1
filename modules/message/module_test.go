package message

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/plexusml/plexus/internal/component"
)

func newConverter(t *testing.T) component.Component {
	t.Helper()
	c, err := Provider{}.New(nil, nil, component.Resource{}, component.ExecutionContext{})
	require.NoError(t, err)
	return c
}

func TestProviderRejectsConfig(t *testing.T) {
	_, err := Provider{}.New(component.Config{"x": cty.True}, nil, component.Resource{}, component.ExecutionContext{})
	assert.Error(t, err)
}

func TestProcessNoInput(t *testing.T) {
	c := newConverter(t)

	t.Run("absent input", func(t *testing.T) {
		out, err := c.Process(context.Background(), component.Inputs{})
		require.NoError(t, err)
		msgs, ok := out.([]*component.Message)
		require.True(t, ok)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})

	t.Run("nil input", func(t *testing.T) {
		out, err := c.Process(context.Background(), component.Inputs{"message": nil})
		require.NoError(t, err)
		assert.Empty(t, out.([]*component.Message))
	})
}

func TestProcessSingleMessage(t *testing.T) {
	c := newConverter(t)

	t.Run("typed input", func(t *testing.T) {
		out, err := c.Process(context.Background(), component.Inputs{"message": UserMessage{
			Text:      "hello there",
			MessageID: "m-1",
			Metadata:  map[string]any{"channel": "rest"},
		}})
		require.NoError(t, err)

		msgs := out.([]*component.Message)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hello there", msgs[0].Text())

		id, _ := msgs[0].Get("message_id")
		assert.Equal(t, "m-1", id)
		meta, _ := msgs[0].Get("metadata")
		assert.Equal(t, map[string]any{"channel": "rest"}, meta)
	})

	t.Run("pointer input", func(t *testing.T) {
		out, err := c.Process(context.Background(), component.Inputs{"message": &UserMessage{Text: "hi"}})
		require.NoError(t, err)
		msgs := out.([]*component.Message)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hi", msgs[0].Text())
	})

	t.Run("generic mapping input", func(t *testing.T) {
		out, err := c.Process(context.Background(), component.Inputs{"message": map[string]any{
			"text":       "from the wire",
			"message_id": "m-2",
		}})
		require.NoError(t, err)
		msgs := out.([]*component.Message)
		require.Len(t, msgs, 1)
		assert.Equal(t, "from the wire", msgs[0].Text())
		id, _ := msgs[0].Get("message_id")
		assert.Equal(t, "m-2", id)
	})

	t.Run("unsupported input type", func(t *testing.T) {
		_, err := c.Process(context.Background(), component.Inputs{"message": 42})
		assert.Error(t, err)
	})
}
