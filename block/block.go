// Package block holds an ordered set of named, typed columns of equal length.
package block

import (
	"fmt"
	"strings"

	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/datatype"
)

// ColumnWithTypeAndName is one entry of a Block.
type ColumnWithTypeAndName struct {
	Column column.Column
	Type   datatype.DataType
	Name   string
}

// Block is an ordered collection of columns addressed by name.
type Block struct {
	columns []ColumnWithTypeAndName
	index   map[string]int
}

func New(columns ...ColumnWithTypeAndName) *Block {
	b := &Block{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		b.Insert(c)
	}
	return b
}

// Insert appends c, or replaces the column with the same name in place.
func (b *Block) Insert(c ColumnWithTypeAndName) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[c.Name]; ok {
		b.columns[i] = c
		return
	}
	b.index[c.Name] = len(b.columns)
	b.columns = append(b.columns, c)
}

func (b *Block) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}

func (b *Block) ByName(name string) (ColumnWithTypeAndName, bool) {
	i, ok := b.index[name]
	if !ok {
		return ColumnWithTypeAndName{}, false
	}
	return b.columns[i], true
}

func (b *Block) Columns() int { return len(b.columns) }

// At returns the i-th column in block order.
func (b *Block) At(i int) ColumnWithTypeAndName { return b.columns[i] }

func (b *Block) Names() []string {
	names := make([]string, len(b.columns))
	for i, c := range b.columns {
		names[i] = c.Name
	}
	return names
}

// Rows returns the row count of the first column, or 0 for an empty block.
func (b *Block) Rows() int {
	if len(b.columns) == 0 {
		return 0
	}
	return b.columns[0].Column.Len()
}

// CheckNumberOfRows verifies that every column has the same length.
func (b *Block) CheckNumberOfRows() error {
	rows := -1
	for _, c := range b.columns {
		n := c.Column.Len()
		if rows == -1 {
			rows = n
		} else if n != rows {
			return fmt.Errorf("sizes of columns don't match: %s has %d rows, %s has %d rows",
				b.columns[0].Name, rows, c.Name, n)
		}
	}
	return nil
}

// ByteSize is the sum of the column sizes.
func (b *Block) ByteSize() int {
	size := 0
	for _, c := range b.columns {
		size += c.Column.ByteSize()
	}
	return size
}

// Reorder puts the columns named in order first, in that order. Names not in
// the block are skipped and columns not named keep their relative order
// after the named ones.
func (b *Block) Reorder(order []string) {
	placed := make(map[string]bool, len(order))
	out := make([]ColumnWithTypeAndName, 0, len(b.columns))
	for _, name := range order {
		i, ok := b.index[name]
		if !ok || placed[name] {
			continue
		}
		placed[name] = true
		out = append(out, b.columns[i])
	}
	for _, c := range b.columns {
		if !placed[c.Name] {
			out = append(out, c)
		}
	}
	b.columns = out
	b.reindex()
}

func (b *Block) reindex() {
	b.index = make(map[string]int, len(b.columns))
	for i, c := range b.columns {
		b.index[c.Name] = i
	}
}

// Row returns row i as plain Go values in column order.
func (b *Block) Row(i int) []any {
	out := make([]any, len(b.columns))
	for j, c := range b.columns {
		out[j] = c.Column.Value(i)
	}
	return out
}

// String describes the structure of the block, for logs and errors.
func (b *Block) String() string {
	parts := make([]string, len(b.columns))
	for i, c := range b.columns {
		parts[i] = fmt.Sprintf("%s %s (%d rows)", c.Name, c.Type.Name(), c.Column.Len())
	}
	return strings.Join(parts, ", ")
}
