package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHessianCodecSequence(t *testing.T) {
	c := &HessianCodec{}

	data, err := c.Encode("2.5.3", "com.example.HelloService", int32(42), map[string]string{"path": "p"})
	require.NoError(t, err)

	dec := c.NewDecoder(data)
	v, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, "2.5.3", v)

	v, err = dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, "com.example.HelloService", v)

	v, err = dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	v, err = dec.Decode()
	require.NoError(t, err)
	rendered, err := Stringify(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"p"}`, rendered)
}

func TestHessianValueMarker(t *testing.T) {
	c := &HessianCodec{}
	data, err := c.Encode(ResponseValue)
	require.NoError(t, err)
	assert.Equal(t, []byte{c.ValueMarker()}, data)

	data, err = c.Encode(ResponseNullValueWithAttachments, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, byte(0x95), data[0])
}

func TestGetCodec(t *testing.T) {
	c, err := GetCodec(CodecTypeHessian2)
	require.NoError(t, err)
	assert.Equal(t, CodecTypeHessian2, c.Type())

	_, err = GetCodec(CodecType(9))
	require.Error(t, err)

	typ, err := ParseCodecType("hessian2")
	require.NoError(t, err)
	assert.Equal(t, CodecTypeHessian2, typ)

	_, err = ParseCodecType("kryo")
	require.Error(t, err)
}

func TestStringifyNormalizesHessianMaps(t *testing.T) {
	v := map[any]any{
		"name":   "world",
		int32(1): []any{map[any]any{"k": int64(2)}},
	}
	out, err := Stringify(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"world","1":[{"k":2}]}`, out)

	out, err = Stringify("hello")
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, out)
}
