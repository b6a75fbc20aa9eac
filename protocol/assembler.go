package protocol

// Assembler reassembles one frame from arbitrarily chunked stream reads.
//
// Until HeaderSize bytes have arrived nothing is interpreted. Once they have,
// the expected total is HeaderSize + body length, and Feed reports completion
// exactly once, when the accumulated bytes reach that total.
//
// Not safe for concurrent use; each connection owns one.
type Assembler struct {
	buf      []byte
	expected int // 0 until the header is known
	done     bool
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed appends chunk and returns the complete frame once enough bytes exist.
// Bytes beyond the declared frame length are not part of the returned frame.
func (a *Assembler) Feed(chunk []byte) ([]byte, bool, error) {
	if a.done {
		return nil, false, ErrFrameComplete
	}
	a.buf = append(a.buf, chunk...)

	if a.expected == 0 {
		if len(a.buf) < HeaderSize {
			return nil, false, nil
		}
		if a.buf[0] != MagicHigh || a.buf[1] != MagicLow {
			return nil, false, ErrInvalidMagic
		}
		a.expected = HeaderSize + int(BodyLength(a.buf))
	}

	if len(a.buf) < a.expected {
		return nil, false, nil
	}
	a.done = true
	return a.buf[:a.expected:a.expected], true, nil
}

// Buffered returns the number of bytes accumulated so far.
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

// Expected returns the total frame length once the header has been seen.
func (a *Assembler) Expected() (int, bool) {
	return a.expected, a.expected > 0
}
