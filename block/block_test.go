package block

import (
	"testing"

	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/datatype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u8(name string, values ...uint8) ColumnWithTypeAndName {
	return ColumnWithTypeAndName{Column: column.NewVector(values...), Type: datatype.UInt8, Name: name}
}

func TestBlock_InsertAndLookup(t *testing.T) {
	b := New(u8("a", 1, 2), u8("b", 3, 4))
	assert.True(t, b.Has("a"))
	assert.False(t, b.Has("c"))
	assert.Equal(t, 2, b.Rows())
	assert.Equal(t, []string{"a", "b"}, b.Names())

	b.Insert(u8("a", 9, 9))
	require.Equal(t, 2, b.Columns())
	c, ok := b.ByName("a")
	require.True(t, ok)
	assert.Equal(t, []uint8{9, 9}, c.Column.(*column.Vector[uint8]).Data)
	assert.Equal(t, []any{uint8(9), uint8(4)}, b.Row(1))

	_, ok = b.ByName("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, New().Rows())
}

func TestBlock_Reorder(t *testing.T) {
	b := New(u8("x"), u8("a"), u8("y"), u8("b"))
	b.Reorder([]string{"b", "missing", "a", "b"})
	assert.Equal(t, []string{"b", "a", "x", "y"}, b.Names())
	c, ok := b.ByName("x")
	require.True(t, ok)
	assert.Equal(t, "x", c.Name)
	assert.Equal(t, "x", b.At(2).Name)
}

func TestBlock_CheckNumberOfRows(t *testing.T) {
	b := New(u8("a", 1), u8("b", 1, 2))
	err := b.CheckNumberOfRows()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sizes of columns don't match")
	assert.Equal(t, 3, b.ByteSize())
	assert.Equal(t, "a UInt8 (1 rows), b UInt8 (2 rows)", b.String())
}
