// Package column holds the in-memory representation of column data: one
// value per row, stored contiguously per column.
package column

// Column is a growable sequence of values of a single type.
type Column interface {
	// Len is the number of rows.
	Len() int
	// ByteSize is the number of bytes occupied by the values.
	ByteSize() int
	// CloneEmpty returns an empty column of the same shape.
	CloneEmpty() Column
	// InsertDefault appends one default value.
	InsertDefault()
	// InsertManyDefaults appends n default values.
	InsertManyDefaults(n int)
	// Value returns row i as a plain Go value, for printing and tests.
	Value(i int) any
}

// Offsets holds the cumulative end offsets of array rows in their element
// column. Arrays of one Nested table point at the same Offsets.
type Offsets struct {
	Data []uint64
}

func NewOffsets() *Offsets {
	return &Offsets{}
}

func (o *Offsets) Len() int { return len(o.Data) }

// At returns the end offset of row i. At(-1) is 0.
func (o *Offsets) At(i int) uint64 {
	if i < 0 {
		return 0
	}
	return o.Data[i]
}

// Last returns the total number of elements covered by the offsets.
func (o *Offsets) Last() uint64 {
	return o.At(len(o.Data) - 1)
}

// SizeAt returns the number of elements in row i.
func (o *Offsets) SizeAt(i int) uint64 {
	return o.At(i) - o.At(i-1)
}

// AppendSize appends a row holding n elements.
func (o *Offsets) AppendSize(n uint64) {
	o.Data = append(o.Data, o.Last()+n)
}

// Values returns rows of a column as plain Go values.
func Values(c Column) []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}
