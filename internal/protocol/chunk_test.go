package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadOf(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i*7 + 3)
	}
	return p
}

func TestChunkRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 1023, 1024} {
		payload := payloadOf(n)
		c, err := NewChunk(payload)
		require.NoError(t, err)

		b := &bytes.Buffer{}
		require.NoError(t, WriteChunk(b, c))
		assert.Equal(t, 2+n, b.Len())

		got, err := ReadChunk(b)
		require.NoError(t, err)
		assert.Equal(t, n, got.Len)
		assert.Equal(t, payload, got.Payload())
		assert.Equal(t, n < ChunkSize, got.Terminal(), "length %d", n)
	}
}

func TestChunkHeaders(t *testing.T) {
	b := &bytes.Buffer{}
	full, _ := NewChunk(payloadOf(ChunkSize))
	require.NoError(t, WriteChunk(b, full))
	assert.Equal(t, []byte{0x00, 0x00}, b.Bytes()[:2])

	b.Reset()
	short, _ := NewChunk(payloadOf(500))
	require.NoError(t, WriteChunk(b, short))
	assert.Equal(t, []byte{0x81, 0xf4}, b.Bytes()[:2])

	b.Reset()
	empty, _ := NewChunk(nil)
	require.NoError(t, WriteChunk(b, empty))
	assert.Equal(t, []byte{0x80, 0x00}, b.Bytes())
}

func TestReadChunkMalformedLength(t *testing.T) {
	_, err := ReadChunk(bytes.NewReader([]byte{0x84, 0x01}))
	assert.ErrorIs(t, err, ErrMalformedChunk)
}

func TestReadChunkTruncated(t *testing.T) {
	_, err := ReadChunk(bytes.NewReader([]byte{0x00}))
	assert.Error(t, err)

	_, err = ReadChunk(bytes.NewReader(append([]byte{0x00, 0x00}, payloadOf(100)...)))
	assert.Error(t, err)
}

func TestReadChunkFrom(t *testing.T) {
	src := bytes.NewReader(payloadOf(2500))

	var lens []int
	for {
		c, err := ReadChunkFrom(src)
		require.NoError(t, err)
		lens = append(lens, c.Len)
		if c.Terminal() {
			break
		}
	}
	assert.Equal(t, []int{1024, 1024, 452}, lens)
}

func TestReadChunkFromExactMultiple(t *testing.T) {
	src := bytes.NewReader(payloadOf(2048))

	var lens []int
	for {
		c, err := ReadChunkFrom(src)
		require.NoError(t, err)
		lens = append(lens, c.Len)
		if c.Terminal() {
			break
		}
	}
	assert.Equal(t, []int{1024, 1024, 0}, lens)
}

func TestNewChunkTooLarge(t *testing.T) {
	_, err := NewChunk(payloadOf(ChunkSize + 1))
	assert.Error(t, err)
}
