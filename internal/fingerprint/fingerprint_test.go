package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/plexusml/plexus/internal/schema"
)

func testNode(cfg map[string]cty.Value) *schema.Node {
	return &schema.Node{Name: "n", Uses: "tokenizer", Config: cfg}
}

func TestFingerprintDeterminism(t *testing.T) {
	e := New()
	node := testNode(map[string]cty.Value{
		"lowercase": cty.True,
		"dim":       cty.NumberIntVal(64),
	})
	parents := map[string]Key{"messages": "abc123"}

	k1, err := e.Fingerprint(node, "1.0.0", parents, "ext", "")
	require.NoError(t, err)
	k2, err := e.Fingerprint(node, "1.0.0", parents, "ext", "")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, string(k1), 64)
}

func TestFingerprintConfigOrderIndependence(t *testing.T) {
	e := New()
	// Two maps with the same content; Go map iteration order must not
	// leak into the key.
	a := testNode(map[string]cty.Value{"x": cty.NumberIntVal(1), "y": cty.NumberIntVal(2), "z": cty.NumberIntVal(3)})
	b := testNode(map[string]cty.Value{"z": cty.NumberIntVal(3), "y": cty.NumberIntVal(2), "x": cty.NumberIntVal(1)})

	ka, err := e.Fingerprint(a, "1.0.0", nil, "", "")
	require.NoError(t, err)
	kb, err := e.Fingerprint(b, "1.0.0", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
}

func TestFingerprintSensitivity(t *testing.T) {
	e := New()
	base := testNode(map[string]cty.Value{"lowercase": cty.True})
	baseKey, err := e.Fingerprint(base, "1.0.0", nil, "", "")
	require.NoError(t, err)

	t.Run("config change", func(t *testing.T) {
		changed := testNode(map[string]cty.Value{"lowercase": cty.False})
		k, err := e.Fingerprint(changed, "1.0.0", nil, "", "")
		require.NoError(t, err)
		assert.NotEqual(t, baseKey, k)
	})

	t.Run("version change", func(t *testing.T) {
		k, err := e.Fingerprint(base, "2.0.0", nil, "", "")
		require.NoError(t, err)
		assert.NotEqual(t, baseKey, k)
	})

	t.Run("component change", func(t *testing.T) {
		other := &schema.Node{Name: "n", Uses: "classifier", Config: base.Config}
		k, err := e.Fingerprint(other, "1.0.0", nil, "", "")
		require.NoError(t, err)
		assert.NotEqual(t, baseKey, k)
	})

	t.Run("upstream change", func(t *testing.T) {
		k1, err := e.Fingerprint(base, "1.0.0", map[string]Key{"in": "aaa"}, "", "")
		require.NoError(t, err)
		k2, err := e.Fingerprint(base, "1.0.0", map[string]Key{"in": "bbb"}, "", "")
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
		assert.NotEqual(t, baseKey, k1)
	})

	t.Run("external input change", func(t *testing.T) {
		k1, err := e.Fingerprint(base, "1.0.0", nil, "ext-a", "")
		require.NoError(t, err)
		k2, err := e.Fingerprint(base, "1.0.0", nil, "ext-b", "")
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("mode scope change", func(t *testing.T) {
		k1, err := e.Fingerprint(base, "1.0.0", nil, "", "train")
		require.NoError(t, err)
		k2, err := e.Fingerprint(base, "1.0.0", nil, "", "predict")
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
	})
}

func TestHashExternal(t *testing.T) {
	k1, err := HashExternal(map[string]any{"text": "hi", "id": "1"})
	require.NoError(t, err)
	k2, err := HashExternal(map[string]any{"id": "1", "text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := HashExternal(map[string]any{"text": "bye", "id": "1"})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	empty, err := HashExternal(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestKeyShort(t *testing.T) {
	assert.Equal(t, "abc", Key("abc").Short())
	assert.Equal(t, "0123456789ab", Key("0123456789abcdef").Short())
}
