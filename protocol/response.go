package protocol

import (
	"fmt"

	"github.com/534591395/zoodubbo/codec"
	"github.com/534591395/zoodubbo/message"
)

// errorMessageOffset is where the message text starts in a non-OK response.
const errorMessageOffset = 18

// A frame shorter than voidFrameLimit whose last header byte is voidMarker
// carries no return value.
const (
	voidMarker     byte = 3
	voidFrameLimit      = 20
)

// The payload starts at valueOffset when byte 16 is the codec's value marker.
// Any other marker shifts it to malformedOffset and the call is rejected.
const (
	valueOffset     = 17
	malformedOffset = 18
)

// DecodeResponse classifies a complete response frame.
//
//   - status != OK: *RemoteError carrying bytes 18..len-1 as the message
//   - "no return value" marker: Result{Void: true}
//   - otherwise the payload is decoded and rendered as JSON
//
// A payload found at the malformed offset is reported as *DecodeError even when it decodes.
// TODO: confirm against a provider that sends RESPONSE_VALUE_WITH_ATTACHMENTS (0x94), which lands in that branch.
func DecodeResponse(frame []byte, c codec.Codec) (message.Result, error) {
	if len(frame) < HeaderSize {
		return message.Result{}, &DecodeError{Reason: fmt.Sprintf("short frame: %d bytes", len(frame))}
	}

	if status := frame[3]; status != StatusOK {
		msg := ""
		if len(frame) > errorMessageOffset+1 {
			msg = string(frame[errorMessageOffset : len(frame)-1])
		}
		return message.Result{}, &RemoteError{Status: status, Message: msg}
	}

	if frame[15] == voidMarker && len(frame) < voidFrameLimit {
		return message.Result{Void: true}, nil
	}

	if len(frame) <= HeaderSize {
		return message.Result{}, &DecodeError{Reason: "empty response body"}
	}
	offset := malformedOffset
	if frame[HeaderSize] == c.ValueMarker() {
		offset = valueOffset
	}
	if offset > len(frame) {
		return message.Result{}, &DecodeError{Reason: "truncated response body"}
	}

	v, err := c.NewDecoder(frame[offset:]).Decode()
	if err != nil {
		return message.Result{}, &DecodeError{Reason: "payload", Cause: err}
	}
	if e, ok := v.(error); ok {
		return message.Result{}, &DecodeError{Reason: "remote exception", Cause: e}
	}
	if offset == malformedOffset {
		return message.Result{}, &DecodeError{
			Reason: fmt.Sprintf("unexpected response flag 0x%02x", frame[HeaderSize]),
			Value:  v,
		}
	}

	s, err := codec.Stringify(v)
	if err != nil {
		return message.Result{}, &DecodeError{Reason: "render", Cause: err}
	}
	return message.Result{Value: s}, nil
}

// EncodeResponse builds a response frame with the given status and body.
func EncodeResponse(status byte, serialization codec.CodecType, body []byte) []byte {
	header := Header{
		Flag:    byte(serialization) & SerializationMask,
		Status:  status,
		BodyLen: uint32(len(body)),
	}
	return append(EncodeHeader(&header), body...)
}
