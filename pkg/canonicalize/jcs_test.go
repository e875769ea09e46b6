package canonicalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJCS_Sorting(t *testing.T) {
	input := map[string]interface{}{
		"c": 3,
		"a": 1,
		"b": 2,
	}

	b, err := JCS(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(b))
}

func TestJCS_RecursiveSorting(t *testing.T) {
	input := map[string]interface{}{
		"z": map[string]interface{}{
			"y": "foo",
			"x": "bar",
		},
		"a": []interface{}{map[string]int{"k2": 2, "k1": 1}},
	}

	b, err := JCS(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[{"k1":1,"k2":2}],"z":{"x":"bar","y":"foo"}}`, string(b))
}

func TestJCS_NoHTMLEscaping(t *testing.T) {
	// encoding/json alone escapes these as \u003c, \u003e and \u0026.
	input := map[string]string{
		"html": "<script>alert('xss')</script> &",
	}

	b, err := JCS(input)
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<script>alert('xss')</script> &"}`, string(b))
}

func TestJCS_NonASCIIIsRawUTF8(t *testing.T) {
	input := map[string]string{"path": "docs/naïve-東京.md"}

	b, err := JCS(input)
	require.NoError(t, err)
	assert.Equal(t, `{"path":"docs/naïve-東京.md"}`, string(b))
}

func TestJCS_NumberTypes(t *testing.T) {
	input := map[string]interface{}{
		"num":   json.Number("123.456"),
		"whole": 1.0,
		"frac":  0.25,
		"int":   int64(64),
	}

	b, err := JCS(input)
	require.NoError(t, err)
	assert.Equal(t, `{"frac":0.25,"int":64,"num":123.456,"whole":1}`, string(b))
}

func TestJCS_StructAndMapAgree(t *testing.T) {
	v1 := map[string]interface{}{"a": 1, "b": 2}

	// Same logical value, fields declared in the opposite order.
	type S struct {
		B int `json:"b"`
		A int `json:"a"`
	}
	v2 := S{A: 1, B: 2}

	b1, err := JCS(v1)
	require.NoError(t, err)
	b2, err := JCS(v2)
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
	assert.Equal(t, HashBytes([]byte(`{"a":1,"b":2}`)), HashBytes(b1))
}

func TestHashBytes_KnownVector(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashBytes(nil))
	assert.Equal(t,
		"8f434346648f6b96df89dda901c5176b10a6d83961dd3c1ac88b59b2dc327aa4",
		HashBytes([]byte("hi")))
}

func TestJCS_UnsupportedValue(t *testing.T) {
	_, err := JCS(map[string]interface{}{"ch": make(chan int)})
	assert.Error(t, err)
}
