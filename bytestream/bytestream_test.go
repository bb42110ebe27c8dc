package bytestream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteReadULEB128RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 0x1000, 1 << 35, ^uint64(0)}
	buf := NewBuffer(nil)
	for _, v := range values {
		require.NoError(t, buf.WriteULEB128(v))
	}

	rbuf := NewBuffer(buf.Bytes())
	for _, want := range values {
		got, err := rbuf.ReadULEB128()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEncodeULEB128KnownValues(t *testing.T) {
	assert.Equal(t, []byte{0x00}, EncodeULEB128(0))
	assert.Equal(t, []byte{0x7f}, EncodeULEB128(127))
	assert.Equal(t, []byte{0x80, 0x01}, EncodeULEB128(128))
	assert.Equal(t, []byte{0xe5, 0x8e, 0x26}, EncodeULEB128(624485))
}

func TestSizeULEB128MatchesEncodedLength(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 16383, 16384, 1 << 40} {
		assert.Equal(t, len(EncodeULEB128(v)), SizeULEB128(v))
	}
}

func TestReadULEB128Overflow(t *testing.T) {
	overflow := make([]byte, 10)
	for i := range overflow {
		overflow[i] = 0x80
	}
	buf := NewBuffer(overflow)
	_, err := buf.ReadULEB128()
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestBufferSeekAndPosition(t *testing.T) {
	buf := NewBuffer([]byte("abcdef"))
	assert.EqualValues(t, 0, buf.Position())

	b, err := buf.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)
	assert.EqualValues(t, 1, buf.Position())

	require.NoError(t, buf.SeekTo(4))
	b, err = buf.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('e'), b)

	require.NoError(t, buf.SeekTo(0))
	b, err = buf.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)

	assert.Error(t, buf.SeekTo(-1))
	assert.Error(t, buf.SeekTo(100))
}

func TestBufferReadByteAtEndReturnsEOF(t *testing.T) {
	buf := NewBuffer(nil)
	_, err := buf.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBufferWriteAtPositionOverwritesInPlace(t *testing.T) {
	buf := NewBuffer([]byte{0, 0, 0})
	require.NoError(t, buf.SeekTo(1))
	require.NoError(t, buf.WriteByte(0xFF))
	assert.Equal(t, []byte{0, 0xFF, 0}, buf.Bytes())
	assert.EqualValues(t, 3, buf.BytesWritten())
}

func TestBufferWriteAllAppends(t *testing.T) {
	buf := NewBuffer(nil)
	require.NoError(t, buf.WriteAll([]byte("hi")))
	assert.Equal(t, "hi", string(buf.Bytes()))
	assert.EqualValues(t, 2, buf.BytesWritten())
}
