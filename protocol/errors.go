package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMagic  = errors.New("protocol: invalid magic number")
	ErrFrameTooLarge = errors.New("protocol: frame body too large")
	ErrFrameComplete = errors.New("protocol: frame already complete")
)

// EncodeError reports a request body larger than the configured maximum.
// No frame is produced and the call is never retried.
type EncodeError struct {
	Length int
	Max    int
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("protocol: data length too large: %d, max payload: %d", e.Length, e.Max)
}

// RemoteError is a response whose status byte is not StatusOK.
type RemoteError struct {
	Status  byte
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (status %d): %s", e.Status, e.Message)
}

// DecodeError is a malformed or unsupported response payload.
// Cause holds the codec failure or the decoded exception object when there is one,
// and Value the decoded value when decoding succeeded at an unexpected offset.
type DecodeError struct {
	Reason string
	Cause  error
	Value  any
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol: decode response: %s: %v", e.Reason, e.Cause)
	}
	return "protocol: decode response: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
