package component

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestModeString(t *testing.T) {
	assert.Equal(t, "train", ModeTrain.String())
	assert.Equal(t, "finetune", ModeFinetune.String())
	assert.Equal(t, "predict", ModePredict.String())
	assert.Equal(t, "unknown", Mode(99).String())
}

func TestModeTraining(t *testing.T) {
	assert.True(t, ModeTrain.Training())
	assert.True(t, ModeFinetune.Training())
	assert.False(t, ModePredict.Training())
}

func TestResourcePublished(t *testing.T) {
	assert.False(t, Resource{Name: "vocab"}.Published())
	assert.True(t, Resource{Name: "vocab", Fingerprint: "abc"}.Published())
}

type decodeTarget struct {
	Lowercase bool   `cty:"lowercase"`
	Dim       int    `cty:"dim"`
	Name      string `cty:"name"`
	Skipped   string
	ignored   string `cty:"ignored"`
}

func TestDecodeConfig(t *testing.T) {
	t.Run("populates tagged fields", func(t *testing.T) {
		var out decodeTarget
		err := DecodeConfig(Config{
			"lowercase": cty.True,
			"dim":       cty.NumberIntVal(64),
			"name":      cty.StringVal("tok"),
		}, &out)
		require.NoError(t, err)
		assert.True(t, out.Lowercase)
		assert.Equal(t, 64, out.Dim)
		assert.Equal(t, "tok", out.Name)
	})

	t.Run("keeps defaults for absent keys", func(t *testing.T) {
		out := decodeTarget{Dim: 128}
		err := DecodeConfig(Config{"lowercase": cty.True}, &out)
		require.NoError(t, err)
		assert.Equal(t, 128, out.Dim)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		var out decodeTarget
		err := DecodeConfig(Config{"lowrecase": cty.True}, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lowrecase")
	})

	t.Run("rejects untagged and unexported fields", func(t *testing.T) {
		var out decodeTarget
		assert.Error(t, DecodeConfig(Config{"Skipped": cty.StringVal("x")}, &out))
		assert.Error(t, DecodeConfig(Config{"ignored": cty.StringVal("x")}, &out))
	})

	t.Run("rejects non-struct targets", func(t *testing.T) {
		var s string
		assert.Error(t, DecodeConfig(Config{}, &s))
		assert.Error(t, DecodeConfig(Config{}, decodeTarget{}))
	})

	t.Run("rejects type mismatch", func(t *testing.T) {
		var out decodeTarget
		err := DecodeConfig(Config{"dim": cty.StringVal("not a number")}, &out)
		assert.Error(t, err)
	})
}

func TestOutputRoundTrip(t *testing.T) {
	t.Run("resource", func(t *testing.T) {
		raw, err := EncodeOutput(Resource{Name: "vocab", Fingerprint: "abc"})
		require.NoError(t, err)
		got, err := DecodeOutput(raw)
		require.NoError(t, err)
		assert.Equal(t, Resource{Name: "vocab", Fingerprint: "abc"}, got)
	})

	t.Run("messages", func(t *testing.T) {
		msg := NewMessage(map[string]any{"text": "hello"})
		msg.SetOutput("tok", map[string]any{"tokens": []any{"hello"}})

		raw, err := EncodeOutput([]*Message{msg})
		require.NoError(t, err)
		got, err := DecodeOutput(raw)
		require.NoError(t, err)

		msgs, ok := got.([]*Message)
		require.True(t, ok)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hello", msgs[0].Text())
		assert.Contains(t, msgs[0].Outputs, "tok")
	})

	t.Run("empty message sequence survives", func(t *testing.T) {
		raw, err := EncodeOutput([]*Message{})
		require.NoError(t, err)
		got, err := DecodeOutput(raw)
		require.NoError(t, err)

		msgs, ok := got.([]*Message)
		require.True(t, ok)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})

	t.Run("single message becomes a sequence", func(t *testing.T) {
		raw, err := EncodeOutput(NewMessage(map[string]any{"text": "hi"}))
		require.NoError(t, err)
		got, err := DecodeOutput(raw)
		require.NoError(t, err)

		msgs, ok := got.([]*Message)
		require.True(t, ok)
		require.Len(t, msgs, 1)
	})

	t.Run("generic value", func(t *testing.T) {
		raw, err := EncodeOutput(map[string]any{"score": 0.5})
		require.NoError(t, err)
		got, err := DecodeOutput(raw)
		require.NoError(t, err)
		if diff := cmp.Diff(map[string]any{"score": 0.5}, got); diff != "" {
			t.Errorf("decoded value mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil value", func(t *testing.T) {
		raw, err := EncodeOutput(nil)
		require.NoError(t, err)
		got, err := DecodeOutput(raw)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalid descriptor", func(t *testing.T) {
		_, err := DecodeOutput([]byte(`{not json`))
		assert.Error(t, err)
	})
}

func TestMessageCopy(t *testing.T) {
	orig := NewMessage(map[string]any{"text": "hi"})
	orig.SetOutput("a", 1)

	cp := orig.Copy()
	cp.Data["text"] = "changed"
	cp.SetOutput("b", 2)

	assert.Equal(t, "hi", orig.Text())
	assert.NotContains(t, orig.Outputs, "b")
	assert.Contains(t, cp.Outputs, "a")
}

func TestMessageGet(t *testing.T) {
	m := NewMessage(map[string]any{"id": "m1"})
	v, ok := m.Get("id")
	assert.True(t, ok)
	assert.Equal(t, "m1", v)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Empty(t, m.Text())
}
