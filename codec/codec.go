// Package codec provides the value codecs that serialize invocation bodies.
//
// A Codec writes an ordered sequence of values into one byte slice and reads them
// back one at a time. The frame layer decides WHEN to call it and on WHAT values;
// the codec only knows how each value looks on the wire.
package codec

import "fmt"

// CodecType is the serialization id carried in the low bits of the frame flag byte.
type CodecType byte

const (
	CodecTypeHessian2 CodecType = 2
)

// Codec serializes values for the frame body.
type Codec interface {
	Encode(values ...any) ([]byte, error) // values are written in call order
	NewDecoder(data []byte) Decoder
	Type() CodecType
	// ValueMarker is the byte a response body starts with when a plain return value follows.
	ValueMarker() byte
}

// Decoder reads successive values from one body.
type Decoder interface {
	Decode() (any, error)
}

func GetCodec(codecType CodecType) (Codec, error) {
	switch codecType {
	case CodecTypeHessian2:
		return &HessianCodec{}, nil
	}
	return nil, fmt.Errorf("codec: unsupported serialization id %d", codecType)
}

// ParseCodecType maps a configuration name to a CodecType.
func ParseCodecType(name string) (CodecType, error) {
	switch name {
	case "", "hessian2", "hessian":
		return CodecTypeHessian2, nil
	}
	return 0, fmt.Errorf("codec: unknown serialization %q", name)
}
