package column

// Array is a column of variable-length arrays. Row i holds the elements
// Data[Offsets.At(i-1):Offsets.At(i)].
type Array struct {
	Offsets *Offsets
	Data    Column
}

var _ Column = (*Array)(nil)

// NewArray returns an empty array column over data with its own offsets.
func NewArray(data Column) *Array {
	return &Array{Offsets: NewOffsets(), Data: data}
}

// NewArrayWithOffsets returns an array column sharing offsets with other
// columns of the same Nested table.
func NewArrayWithOffsets(offsets *Offsets, data Column) *Array {
	return &Array{Offsets: offsets, Data: data}
}

func (a *Array) Len() int { return a.Offsets.Len() }

func (a *Array) ByteSize() int { return 8*a.Offsets.Len() + a.Data.ByteSize() }

func (a *Array) CloneEmpty() Column { return NewArray(a.Data.CloneEmpty()) }

func (a *Array) InsertDefault() { a.Offsets.AppendSize(0) }

func (a *Array) InsertManyDefaults(n int) {
	for i := 0; i < n; i++ {
		a.Offsets.AppendSize(0)
	}
}

// SharesOffsets reports whether a and other point at the same offsets.
func (a *Array) SharesOffsets(other *Array) bool {
	return a.Offsets == other.Offsets
}

func (a *Array) Value(i int) any {
	start, end := a.Offsets.At(i-1), a.Offsets.At(i)
	out := make([]any, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, a.Data.Value(int(j)))
	}
	return out
}
