package protocol

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRoundTrip(t *testing.T) {
	cases := map[string]Catalog{
		"empty":      {},
		"single":     {{Name: "a.txt", Size: 2048}},
		"spaces":     {{Name: "my report.pdf", Size: 1}, {Name: "b", Size: 0}},
		"unicode":    {{Name: "données-été.csv", Size: 77}, {Name: "写真.jpg", Size: 1 << 40}},
		"empty name": {{Name: "", Size: 3}, {Name: "x", Size: 4}},
	}

	large := make(Catalog, 5000)
	for i := range large {
		large[i] = Entry{Name: fmt.Sprintf("file-%05d.bin", i), Size: uint64(i) * 1023}
	}
	cases["large"] = large

	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			b := &bytes.Buffer{}
			require.NoError(t, WriteCatalog(b, want))

			got, err := ReadCatalog(b)
			require.NoError(t, err)
			assert.Equal(t, len(want), len(got))
			for i := range want {
				assert.Equal(t, want[i], got[i])
			}
			assert.Zero(t, b.Len(), "decoder must consume the whole packet")
		})
	}
}

func TestCatalogWireLayout(t *testing.T) {
	b := &bytes.Buffer{}
	require.NoError(t, WriteCatalog(b, Catalog{{Name: "a", Size: 1}, {Name: "bc", Size: 2}}))

	want := []byte{
		0, 0, 0, 0, 0, 0, 0, 2,
		0, 0, 0, 0, 0, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 2,
		0, 0, 0, 0, 0, 0, 0, 4,
		'a', 0, 'b', 'c',
	}
	assert.Equal(t, want, b.Bytes())
}

func TestReadCatalogTruncated(t *testing.T) {
	b := &bytes.Buffer{}
	require.NoError(t, WriteCatalog(b, Catalog{{Name: "a.txt", Size: 10}, {Name: "b.txt", Size: 20}}))
	full := b.Bytes()

	for _, cut := range []int{0, 4, 8, 12, 24, 30, len(full) - 1} {
		_, err := ReadCatalog(bytes.NewReader(full[:cut]))
		assert.Error(t, err, "cut at %d", cut)
	}
}

func TestReadCatalogOversizedNamesLen(t *testing.T) {
	b := &bytes.Buffer{}
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 1})
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 5})
	b.Write([]byte{0x80, 0, 0, 0, 0, 0, 0, 0})
	b.WriteString("trailing")

	_, err := ReadCatalog(b)
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}

func TestReadCatalogTooManyNames(t *testing.T) {
	b := &bytes.Buffer{}
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 2})
	b.Write(make([]byte, 16))
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 5})
	b.WriteString("a\x00b\x00c")

	_, err := ReadCatalog(b)
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}

func TestReadCatalogTooFewNames(t *testing.T) {
	b := &bytes.Buffer{}
	// two entries but a names section without a separator
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 2})
	b.Write(make([]byte, 16))
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 3})
	b.WriteString("abc")

	_, err := ReadCatalog(b)
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}

func TestReadCatalogInvalidUTF8(t *testing.T) {
	b := &bytes.Buffer{}
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 1})
	b.Write(make([]byte, 8))
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 2})
	b.Write([]byte{0xff, 0xfe})

	_, err := ReadCatalog(b)
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}

func TestCatalogCloneAndIndex(t *testing.T) {
	c := Catalog{{Name: "a", Size: 1}, {Name: "b", Size: 2}}
	clone := c.Clone()
	clone[0].Name = "changed"

	assert.Equal(t, "a", c[0].Name)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, c.Index())
}
