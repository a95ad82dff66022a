package control

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaywantadh/PrioStream/internal/protocol"
)

var testCatalog = protocol.Catalog{
	{Name: "a.txt", Size: 2048},
	{Name: "b.txt", Size: 500},
	{Name: "c.bin", Size: 9},
}

func TestReadMapsKeywords(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := "a.txt CRITICAL\nb.txt   NORMAL  trailing words\n\nc.bin HIGH\n"
	require.NoError(t, afero.WriteFile(fs, "input.txt", []byte(body), 0644))

	desired := protocol.NewVector(len(testCatalog))
	NewReader(fs, "input.txt", testCatalog).Read(desired)

	assert.Equal(t, protocol.Vector{protocol.Critical, protocol.Normal, protocol.High}, desired)
}

func TestReadLeavesUnmatchedSlotsUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := "a.txt LOW\nunknown.txt CRITICAL\nb.txt\nc.bin normal\n"
	require.NoError(t, afero.WriteFile(fs, "input.txt", []byte(body), 0644))

	desired := protocol.Vector{protocol.High, protocol.Normal, 0}
	NewReader(fs, "input.txt", testCatalog).Read(desired)

	assert.Equal(t, protocol.Vector{protocol.High, protocol.Normal, 0}, desired)
}

func TestReadMissingFileKeepsVector(t *testing.T) {
	desired := protocol.Vector{protocol.Normal, 0, protocol.Critical}
	NewReader(afero.NewMemMapFs(), "missing.txt", testCatalog).Read(desired)

	assert.Equal(t, protocol.Vector{protocol.Normal, 0, protocol.Critical}, desired)
}

func TestReadPersistsAcrossCalls(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewReader(fs, "input.txt", testCatalog)
	desired := protocol.NewVector(len(testCatalog))

	require.NoError(t, afero.WriteFile(fs, "input.txt", []byte("a.txt HIGH\n"), 0644))
	r.Read(desired)

	// the line for a.txt is gone, but its desired weight survives
	require.NoError(t, afero.WriteFile(fs, "input.txt", []byte("b.txt NORMAL\n"), 0644))
	r.Read(desired)

	assert.Equal(t, protocol.Vector{protocol.High, protocol.Normal, 0}, desired)
}
