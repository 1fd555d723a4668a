package column

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector(t *testing.T) {
	v := NewVector[uint32](1, 2, 3)
	assert.Equal(t, 3, v.Len())
	assert.Equal(t, 12, v.ByteSize())
	assert.Equal(t, 4, v.ValueSize())

	v.InsertDefault()
	v.InsertManyDefaults(2)
	assert.Equal(t, []uint32{1, 2, 3, 0, 0, 0}, v.Data)

	v.Reserve(100)
	assert.GreaterOrEqual(t, cap(v.Data), 106)
	assert.Equal(t, 6, v.Len())

	empty := v.CloneEmpty()
	assert.Equal(t, 0, empty.Len())
	assert.IsType(t, &Vector[uint32]{}, empty)
}

func TestString(t *testing.T) {
	s := NewString("a", "", "hello")
	s.InsertDefault()
	s.InsertManyDefaults(2)
	require.Equal(t, 6, s.Len())
	assert.Equal(t, "hello", s.At(2))
	assert.Equal(t, "", s.At(5))
	assert.Equal(t, 6+8*6, s.ByteSize())

	if diff := cmp.Diff([]any{"a", "", "hello", "", "", ""}, Values(s)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFixedString(t *testing.T) {
	f := NewFixedString(3)
	f.Append("ab")
	f.Append("abcd")
	f.InsertDefault()
	require.Equal(t, 3, f.Len())
	assert.Equal(t, "ab\x00", f.Value(0))
	assert.Equal(t, "abc", f.Value(1))
	assert.Equal(t, "\x00\x00\x00", f.Value(2))
}

func TestArraySharedOffsets(t *testing.T) {
	offsets := NewOffsets()
	a := NewArrayWithOffsets(offsets, NewVector[int8]())
	b := NewArrayWithOffsets(offsets, NewString())
	assert.True(t, a.SharesOffsets(b))

	offsets.AppendSize(2)
	offsets.AppendSize(0)
	offsets.AppendSize(1)
	a.Data.(*Vector[int8]).Data = []int8{1, 2, 3}
	b.Data.(*String).Append("x")
	b.Data.(*String).Append("y")
	b.Data.(*String).Append("z")

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, uint64(3), offsets.Last())
	assert.Equal(t, uint64(0), offsets.SizeAt(1))

	want := []any{[]any{int8(1), int8(2)}, []any{}, []any{int8(3)}}
	if diff := cmp.Diff(want, Values(a)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	c := a.CloneEmpty().(*Array)
	assert.False(t, c.SharesOffsets(a))
}

func TestNullableAndTuple(t *testing.T) {
	n := NewNullable(NewVector[float64]())
	n.NullMap = append(n.NullMap, 0)
	n.Nested.(*Vector[float64]).Data = append(n.Nested.(*Vector[float64]).Data, 1.5)
	n.InsertDefault()
	assert.Equal(t, []any{1.5, nil}, Values(n))

	tu := NewTuple(NewVector[uint8](), NewString())
	tu.InsertManyDefaults(2)
	assert.Equal(t, 2, tu.Len())
	assert.Equal(t, []any{uint8(0), ""}, tu.Value(1))
	assert.Equal(t, 0, NewTuple().Len())
}
