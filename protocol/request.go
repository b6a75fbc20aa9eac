package protocol

import (
	"github.com/534591395/zoodubbo/codec"
	"github.com/534591395/zoodubbo/message"
)

// DefaultDubboVersion is the protocol dialect written at the start of every request body.
const DefaultDubboVersion = "2.5.3"

// RequestOptions control request encoding.
type RequestOptions struct {
	DubboVersion  string
	MaxBodyLength uint32 // Zero means DefaultMaxBodyLength
}

// EncodeRequest serializes inv into a transmit-ready frame.
//
// Body order:
//  1. dubbo version
//  2. service path
//  3. service version
//  4. method name
//  5. parameter-type descriptor
//  6. each argument value
//  7. the attachments map
func EncodeRequest(inv *message.Invocation, c codec.Codec, opts RequestOptions) ([]byte, error) {
	version := opts.DubboVersion
	if version == "" {
		version = DefaultDubboVersion
	}
	maxBody := opts.MaxBodyLength
	if maxBody == 0 {
		maxBody = DefaultMaxBodyLength
	}

	values := make([]any, 0, 6+len(inv.Args))
	values = append(values, version, inv.Path, inv.Version, inv.Method, inv.ParameterTypes)
	values = append(values, inv.Args...)
	values = append(values, inv.Attachments)

	body, err := c.Encode(values...)
	if err != nil {
		return nil, err
	}
	if uint64(len(body)) > uint64(maxBody) {
		return nil, &EncodeError{Length: len(body), Max: int(maxBody)}
	}

	header := Header{
		Flag:    FlagRequest | FlagTwoWay | byte(c.Type())&SerializationMask,
		BodyLen: uint32(len(body)),
	}
	return append(EncodeHeader(&header), body...), nil
}

// RequestBody is the decoded form of a request frame body, as seen by a provider.
type RequestBody struct {
	DubboVersion   string
	Path           string
	Version        string
	Method         string
	ParameterTypes string
	Args           []any
	Attachments    map[string]string
}

// DecodeRequest parses a request body written by EncodeRequest.
func DecodeRequest(body []byte, c codec.Codec) (*RequestBody, error) {
	dec := c.NewDecoder(body)

	var fields [5]string
	for i := range fields {
		v, err := dec.Decode()
		if err != nil {
			return nil, &DecodeError{Reason: "request header field", Cause: err}
		}
		s, ok := v.(string)
		if !ok && v != nil {
			return nil, &DecodeError{Reason: "request header field is not a string", Value: v}
		}
		fields[i] = s
	}
	req := &RequestBody{
		DubboVersion:   fields[0],
		Path:           fields[1],
		Version:        fields[2],
		Method:         fields[3],
		ParameterTypes: fields[4],
	}

	types, err := message.SplitParameterTypes(req.ParameterTypes)
	if err != nil {
		return nil, &DecodeError{Reason: "parameter types", Cause: err}
	}
	for range types {
		v, err := dec.Decode()
		if err != nil {
			return nil, &DecodeError{Reason: "argument", Cause: err}
		}
		req.Args = append(req.Args, v)
	}

	v, err := dec.Decode()
	if err != nil {
		return nil, &DecodeError{Reason: "attachments", Cause: err}
	}
	req.Attachments = make(map[string]string)
	if m, ok := v.(map[any]any); ok {
		for k, item := range m {
			ks, _ := k.(string)
			vs, _ := item.(string)
			req.Attachments[ks] = vs
		}
	}
	return req, nil
}
