package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// ChunkSize is the fixed payload size of every non-terminal chunk.
	ChunkSize = 1024

	endFlag    uint16 = 1 << 15
	lengthMask uint16 = endFlag - 1
)

// ErrMalformedChunk is returned for an end-of-file header whose length field
// exceeds ChunkSize.
var ErrMalformedChunk = errors.New("malformed chunk header")

// Chunk is one slice of a file on the wire.
type Chunk struct {
	Len int
	buf [ChunkSize]byte
}

// Payload returns the bytes carried by the chunk.
func (c *Chunk) Payload() []byte {
	return c.buf[:c.Len]
}

// Terminal reports whether this is the last chunk of its file. Consumers must
// use this rather than the header flag.
func (c *Chunk) Terminal() bool {
	return c.Len < ChunkSize
}

// ReadChunkFrom fills a chunk with up to ChunkSize bytes of src. A short chunk
// means src is exhausted.
func ReadChunkFrom(src io.Reader) (*Chunk, error) {
	c := &Chunk{}
	n, err := io.ReadFull(src, c.buf[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	c.Len = n
	return c, nil
}

// NewChunk builds a chunk around payload, which must be at most ChunkSize bytes.
func NewChunk(payload []byte) (*Chunk, error) {
	if len(payload) > ChunkSize {
		return nil, fmt.Errorf("chunk payload of %d bytes exceeds %d", len(payload), ChunkSize)
	}
	c := &Chunk{Len: len(payload)}
	copy(c.buf[:], payload)
	return c, nil
}

// WriteChunk sends the 16-bit header followed by the payload. A full chunk is
// sent with a zero header; a terminal chunk sets the end flag and its length.
func WriteChunk(w io.Writer, c *Chunk) error {
	var header uint16
	if c.Terminal() {
		header = endFlag | uint16(c.Len)
	}

	frame := make([]byte, 2+c.Len)
	binary.BigEndian.PutUint16(frame, header)
	copy(frame[2:], c.Payload())

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	return nil
}

// ReadChunk decodes one chunk from r.
func ReadChunk(r io.Reader) (*Chunk, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("failed to read chunk header: %w", err)
	}
	header := binary.BigEndian.Uint16(hdr[:])

	c := &Chunk{Len: ChunkSize}
	if header&endFlag != 0 {
		c.Len = int(header & lengthMask)
		if c.Len > ChunkSize {
			return nil, fmt.Errorf("%w: length %d", ErrMalformedChunk, c.Len)
		}
	}

	if _, err := io.ReadFull(r, c.buf[:c.Len]); err != nil {
		return nil, fmt.Errorf("failed to read chunk payload: %w", err)
	}
	return c, nil
}
