package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// ErrMalformedCatalog is returned when the names section of a catalog cannot be
// split into exactly one valid UTF-8 name per entry.
var ErrMalformedCatalog = errors.New("malformed catalog")

const nameSeparator = 0x00

// Entry describes one file offered by the server.
type Entry struct {
	Name string
	Size uint64
}

// Catalog is the ordered list of files a server offers. An entry's position is
// its identifier for the rest of the connection.
type Catalog []Entry

// Clone returns an independent copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	copy(out, c)
	return out
}

// Index maps each name to its catalog position.
func (c Catalog) Index() map[string]int {
	idx := make(map[string]int, len(c))
	for i, e := range c {
		idx[e.Name] = i
	}
	return idx
}

// WriteCatalog encodes the catalog as
// count ‖ sizes[count] ‖ names_len ‖ names joined by 0x00, all integers u64 big-endian.
func WriteCatalog(w io.Writer, c Catalog) error {
	b := &bytes.Buffer{}
	binary.Write(b, binary.BigEndian, uint64(len(c)))
	for _, e := range c {
		binary.Write(b, binary.BigEndian, e.Size)
	}

	names := &bytes.Buffer{}
	for i, e := range c {
		if i > 0 {
			names.WriteByte(nameSeparator)
		}
		names.WriteString(e.Name)
	}
	binary.Write(b, binary.BigEndian, uint64(names.Len()))
	b.Write(names.Bytes())

	if _, err := w.Write(b.Bytes()); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// ReadCatalog decodes a catalog written by WriteCatalog. Any short read is
// reported as an error and should abort the connection.
func ReadCatalog(r io.Reader) (Catalog, error) {
	var count uint64
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read catalog count: %w", err)
	}

	// count comes off the wire, so grow the slice as sizes actually arrive.
	sizes := make([]uint64, 0, min(count, 4096))
	for i := uint64(0); i < count; i++ {
		var size uint64
		if err := binary.Read(r, binary.BigEndian, &size); err != nil {
			return nil, fmt.Errorf("failed to read size of entry %d: %w", i, err)
		}
		sizes = append(sizes, size)
	}

	var namesLen uint64
	if err := binary.Read(r, binary.BigEndian, &namesLen); err != nil {
		return nil, fmt.Errorf("failed to read catalog names length: %w", err)
	}
	if namesLen > math.MaxInt64 {
		return nil, fmt.Errorf("%w: names length %d overflows", ErrMalformedCatalog, namesLen)
	}

	names := &bytes.Buffer{}
	if _, err := io.CopyN(names, r, int64(namesLen)); err != nil {
		return nil, fmt.Errorf("failed to read catalog names: %w", err)
	}
	if !utf8.Valid(names.Bytes()) {
		return nil, fmt.Errorf("%w: names are not valid UTF-8", ErrMalformedCatalog)
	}

	fields := bytes.SplitN(names.Bytes(), []byte{nameSeparator}, len(sizes))
	if len(fields) != len(sizes) {
		return nil, fmt.Errorf("%w: %d names for %d entries", ErrMalformedCatalog, len(fields), len(sizes))
	}
	if len(fields) > 0 && bytes.IndexByte(fields[len(fields)-1], nameSeparator) >= 0 {
		return nil, fmt.Errorf("%w: more names than entries", ErrMalformedCatalog)
	}

	c := make(Catalog, len(sizes))
	for i := range c {
		c[i] = Entry{Name: string(fields[i]), Size: sizes[i]}
	}
	return c, nil
}
