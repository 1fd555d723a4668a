package column

// Nullable wraps a column with a per-row null flag. Null rows still occupy a
// default value in Nested.
type Nullable struct {
	NullMap []uint8
	Nested  Column
}

var _ Column = (*Nullable)(nil)

func NewNullable(nested Column) *Nullable {
	return &Nullable{Nested: nested}
}

func (n *Nullable) Len() int { return len(n.NullMap) }

func (n *Nullable) ByteSize() int { return len(n.NullMap) + n.Nested.ByteSize() }

func (n *Nullable) CloneEmpty() Column { return NewNullable(n.Nested.CloneEmpty()) }

func (n *Nullable) InsertDefault() {
	n.NullMap = append(n.NullMap, 1)
	n.Nested.InsertDefault()
}

func (n *Nullable) InsertManyDefaults(count int) {
	for i := 0; i < count; i++ {
		n.NullMap = append(n.NullMap, 1)
	}
	n.Nested.InsertManyDefaults(count)
}

func (n *Nullable) IsNull(i int) bool { return n.NullMap[i] != 0 }

func (n *Nullable) Value(i int) any {
	if n.IsNull(i) {
		return nil
	}
	return n.Nested.Value(i)
}
