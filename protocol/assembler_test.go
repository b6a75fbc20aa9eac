package protocol

import (
	"math/rand"
	"testing"

	"github.com/534591395/zoodubbo/codec"
	"github.com/534591395/zoodubbo/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(t *testing.T) []byte {
	t.Helper()
	inv, err := message.NewInvocation(message.ServiceInfo{Path: "com.example.HelloService", Version: "1.0.0"},
		"sayHello", []message.Arg{message.String("world"), message.Long(1 << 40)})
	require.NoError(t, err)
	frame, err := EncodeRequest(inv, &codec.HessianCodec{}, RequestOptions{})
	require.NoError(t, err)
	return frame
}

// feedChunks feeds chunks in order and returns the completed frame and the index of the completing chunk.
func feedChunks(t *testing.T, chunks [][]byte) ([]byte, int) {
	t.Helper()
	a := NewAssembler()
	for i, chunk := range chunks {
		frame, complete, err := a.Feed(chunk)
		require.NoError(t, err)
		if complete {
			return frame, i
		}
	}
	return nil, -1
}

func TestAssemblerWholeFrame(t *testing.T) {
	frame := testFrame(t)
	got, idx := feedChunks(t, [][]byte{frame})
	require.Equal(t, 0, idx)
	assert.Equal(t, frame, got)
}

func TestAssemblerChunkBoundaryInvariance(t *testing.T) {
	frame := testFrame(t)
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 200; round++ {
		var chunks [][]byte
		for rest := frame; len(rest) > 0; {
			n := 1 + rng.Intn(len(rest))
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		got, idx := feedChunks(t, chunks)
		require.Equal(t, len(chunks)-1, idx, "round %d", round)
		require.Equal(t, frame, got, "round %d", round)
	}
}

func TestAssemblerByteByByte(t *testing.T) {
	frame := testFrame(t)
	a := NewAssembler()
	for i := range frame {
		got, complete, err := a.Feed(frame[i : i+1])
		require.NoError(t, err)
		if i < HeaderSize-1 {
			_, known := a.Expected()
			assert.False(t, known)
		}
		if i < len(frame)-1 {
			require.False(t, complete, "completed early at byte %d", i)
			continue
		}
		require.True(t, complete)
		assert.Equal(t, frame, got)
	}
}

func TestAssemblerExpectedLength(t *testing.T) {
	frame := testFrame(t)
	a := NewAssembler()
	_, complete, err := a.Feed(frame[:HeaderSize])
	require.NoError(t, err)
	assert.False(t, complete)
	expected, known := a.Expected()
	require.True(t, known)
	assert.Equal(t, len(frame), expected)
	assert.Equal(t, HeaderSize, a.Buffered())
}

func TestAssemblerTrailingBytes(t *testing.T) {
	frame := testFrame(t)
	withTail := append(append([]byte{}, frame...), 0xde, 0xad)
	got, idx := feedChunks(t, [][]byte{withTail})
	require.Equal(t, 0, idx)
	assert.Equal(t, frame, got)
}

func TestAssemblerCompletesOnce(t *testing.T) {
	frame := testFrame(t)
	a := NewAssembler()
	_, complete, err := a.Feed(frame)
	require.NoError(t, err)
	require.True(t, complete)

	_, complete, err = a.Feed([]byte{0x01})
	require.ErrorIs(t, err, ErrFrameComplete)
	assert.False(t, complete)
}

func TestAssemblerEmptyBody(t *testing.T) {
	frame := EncodeHeader(&Header{Status: StatusOK})
	got, idx := feedChunks(t, [][]byte{frame[:7], frame[7:]})
	require.Equal(t, 1, idx)
	assert.Equal(t, frame, got)
}

func TestAssemblerInvalidMagic(t *testing.T) {
	frame := testFrame(t)
	frame[1] = 0x00
	a := NewAssembler()
	_, _, err := a.Feed(frame[:8])
	require.NoError(t, err)
	_, _, err = a.Feed(frame[8:])
	require.ErrorIs(t, err, ErrInvalidMagic)
}
