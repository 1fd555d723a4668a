package parttest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/marks"
	"github.com/INLOpen/mergetree/part"
)

func TestWritePart_Layout(t *testing.T) {
	dir := t.TempDir()
	b := Block(
		Column("id", "UInt32", 1, 2, 3, 4, 5),
		Column("n.a", "Array(String)", []any{"x"}, []any{}, []any{"y", "z"}, []any{}, []any{"w"}),
		Column("n.b", "Array(Nullable(Int8))", []any{int8(1)}, []any{}, []any{nil, int8(2)}, []any{}, []any{int8(3)}),
		Column("t", "Tuple(UInt8, String)", []any{uint8(1), "a"}, []any{uint8(2), "b"}, []any{uint8(3), "c"}, []any{uint8(4), "d"}, []any{uint8(5), "e"}),
	)
	p, err := WritePart(dir, b, Options{IndexGranularity: 2, Compression: core.CompressionLZ4})
	require.NoError(t, err)
	assert.Equal(t, 5, p.Rows)
	assert.Equal(t, 3, p.MarkCount())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	want := []string{"id.bin", "id.mrk", "n%2Ea.bin", "n%2Ea.mrk", "n%2Eb%2Enull1.bin", "n%2Eb%2Enull1.mrk",
		"n%2Eb.bin", "n%2Eb.mrk", "n%2Esize0.bin", "n%2Esize0.mrk", "part.yaml",
		"t%2E1.bin", "t%2E1.mrk", "t%2E2.bin", "t%2E2.mrk"}
	sort.Strings(want)
	assert.Equal(t, want, names)

	for _, stream := range []string{"id", "n.size0", "n.a", "n.b.null1", "t.2"} {
		m, err := marks.Load(p.MarksPath(stream))
		require.NoError(t, err)
		assert.Len(t, m, p.MarkCount(), stream)
	}

	loaded, err := part.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, p.Descriptor(), loaded.Descriptor())
}

func TestWritePart_MinBlockSize(t *testing.T) {
	dir := t.TempDir()
	values := make([]any, 100)
	for i := range values {
		values[i] = uint64(i)
	}
	p, err := WritePart(dir, Block(Column("v", "UInt64", values...)), Options{IndexGranularity: 10, MinBlockSize: 80})
	require.NoError(t, err)

	m, err := marks.Load(filepath.Join(dir, "v.mrk"))
	require.NoError(t, err)
	require.Len(t, m, p.MarkCount())
	for i, mk := range m {
		assert.Equal(t, uint64(0), mk.OffsetInDecompressedBlock, "mark %d should start a block", i)
	}
}

func TestColumn_Panics(t *testing.T) {
	assert.Panics(t, func() { Column("x", "UInt8", "not a number") })
	assert.Panics(t, func() { Column("x", "Tuple(UInt8, UInt8)", []any{1}) })
}
