package codec

import (
	hessian "github.com/apache/dubbo-go-hessian2"
)

// Response flags a provider writes as the first body value.
// They are hessian compact ints, so flag n occupies the single byte 0x90+n.
const (
	ResponseWithException            int32 = 0
	ResponseValue                    int32 = 1
	ResponseNullValue                int32 = 2
	ResponseWithExceptionAttachments int32 = 3
	ResponseValueWithAttachments     int32 = 4
	ResponseNullValueWithAttachments int32 = 5
)

// hessianValueMarker is ResponseValue as written by the hessian2 encoder.
const hessianValueMarker byte = 0x91

// HessianCodec uses the hessian2 object-graph format, the default serialization of Dubbo.
// Pros: compact, understood by every Java provider.
// Cons: maps decode as map[any]any, so results need normalizing before JSON rendering.
type HessianCodec struct{}

func (c *HessianCodec) Encode(values ...any) ([]byte, error) {
	enc := hessian.NewEncoder()
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}
	return enc.Buffer(), nil
}

func (c *HessianCodec) NewDecoder(data []byte) Decoder {
	return hessian.NewDecoder(data)
}

func (c *HessianCodec) Type() CodecType {
	return CodecTypeHessian2
}

func (c *HessianCodec) ValueMarker() byte {
	return hessianValueMarker
}
