// Package protocol implements the Dubbo binary frame protocol.
//
// Every frame is a fixed 16-byte header followed by a variable-length body. The
// receiver learns the body length from the last 4 header bytes, so a frame can be
// reassembled from any sequence of partial stream reads (see Assembler).
//
// Frame format (big-endian):
//
//	0    2     3      4                  12        16
//	┌────┬─────┬──────┬──────────────────┬─────────┬───────────────┐
//	│dabb│flag │status│    request id    │ bodyLen │    body ...    │
//	│    │     │      │ uint64 (unused)  │ uint32  │ bodyLen bytes  │
//	└────┴─────┴──────┴──────────────────┴─────────┴───────────────┘
//
// Flag bits: 0x80 request, 0x40 two-way, 0x20 event, low 5 bits serialization id.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	MagicHigh  byte = 0xda
	MagicLow   byte = 0xbb
	HeaderSize int  = 16 // 2 (magic) + 1 (flag) + 1 (status) + 8 (request id) + 4 (bodyLen)

	// DefaultMaxBodyLength is the recommended body ceiling (100K * 8).
	// The wire format itself allows up to 2^32-1.
	DefaultMaxBodyLength uint32 = 819200
)

// Flag byte bits.
const (
	FlagRequest       byte = 0x80
	FlagTwoWay        byte = 0x40
	FlagEvent         byte = 0x20
	SerializationMask byte = 0x1f
)

// Response status codes carried in header byte 3.
const (
	StatusOK              byte = 20
	StatusClientTimeout   byte = 30
	StatusServerTimeout   byte = 31
	StatusBadRequest      byte = 40
	StatusBadResponse     byte = 50
	StatusServiceNotFound byte = 60
	StatusServiceError    byte = 70
	StatusServerError     byte = 80
	StatusClientError     byte = 90
)

// Header represents the fixed 16-byte frame header.
type Header struct {
	Flag      byte
	Status    byte   // Meaningful on responses only
	RequestID uint64 // Always zero: one connection carries exactly one call
	BodyLen   uint32
}

// IsRequest reports whether the request bit is set.
func (h *Header) IsRequest() bool { return h.Flag&FlagRequest != 0 }

// Serialization returns the serialization id from the flag byte.
func (h *Header) Serialization() byte { return h.Flag & SerializationMask }

// EncodeHeader renders h into a fresh 16-byte slice.
func EncodeHeader(h *Header) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = MagicHigh
	buf[1] = MagicLow
	buf[2] = h.Flag
	buf[3] = h.Status
	binary.BigEndian.PutUint64(buf[4:12], h.RequestID)
	// Most significant byte first; short lengths leave the leading bytes zero.
	binary.BigEndian.PutUint32(buf[12:16], h.BodyLen)
	return buf
}

// DecodeHeader parses the first HeaderSize bytes of b.
func DecodeHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("protocol: short header: %d bytes", len(b))
	}
	if b[0] != MagicHigh || b[1] != MagicLow {
		return nil, fmt.Errorf("%w: %x", ErrInvalidMagic, b[0:2])
	}
	return &Header{
		Flag:      b[2],
		Status:    b[3],
		RequestID: binary.BigEndian.Uint64(b[4:12]),
		BodyLen:   BodyLength(b),
	}, nil
}

// BodyLength reads the length field from a buffer holding at least a full header.
func BodyLength(header []byte) uint32 {
	return binary.BigEndian.Uint32(header[12:16])
}

// WriteFrame writes a complete frame (header + body) to w.
// BodyLen is taken from len(body).
func WriteFrame(w io.Writer, h *Header, body []byte) error {
	hdr := *h
	hdr.BodyLen = uint32(len(body))
	if _, err := w.Write(append(EncodeHeader(&hdr), body...)); err != nil {
		return err
	}
	return nil
}

// ReadFrame reads a complete frame (header + body) from r.
// Uses io.ReadFull to guarantee exactly N bytes are read. A maxBody of zero disables the size check.
func ReadFrame(r io.Reader, maxBody uint32) (*Header, []byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, nil, err
	}

	h, err := DecodeHeader(headerBuf)
	if err != nil {
		return nil, nil, err
	}
	if maxBody > 0 && h.BodyLen > maxBody {
		return nil, nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, h.BodyLen, maxBody)
	}

	body := make([]byte, h.BodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, nil, err
	}
	return h, body, nil
}
