package column

// Tuple is a column of fixed-arity records, one column per element.
type Tuple struct {
	Columns []Column
}

var _ Column = (*Tuple)(nil)

func NewTuple(columns ...Column) *Tuple {
	return &Tuple{Columns: columns}
}

func (t *Tuple) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

func (t *Tuple) ByteSize() int {
	size := 0
	for _, c := range t.Columns {
		size += c.ByteSize()
	}
	return size
}

func (t *Tuple) CloneEmpty() Column {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.CloneEmpty()
	}
	return &Tuple{Columns: cols}
}

func (t *Tuple) InsertDefault() {
	for _, c := range t.Columns {
		c.InsertDefault()
	}
}

func (t *Tuple) InsertManyDefaults(n int) {
	for _, c := range t.Columns {
		c.InsertManyDefaults(n)
	}
}

func (t *Tuple) Value(i int) any {
	out := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Value(i)
	}
	return out
}
