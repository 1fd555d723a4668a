package mergetree

import (
	"github.com/INLOpen/mergetree/block"
	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/datatype"
	"github.com/INLOpen/mergetree/part"
)

// FillMissingColumns adds every requested column absent from res, filled
// with default values and sized to res. Missing arrays of a Nested table
// take the offsets of a present sibling. If anything was added, or
// alwaysReorder is set, columns are reordered to follow orderedNames;
// columns not named there keep their order after the named ones.
func (r *Reader) FillMissingColumns(res *block.Block, orderedNames []string, alwaysReorder bool) error {
	return r.fillMissingColumns(res, orderedNames, alwaysReorder)
}

// FillMissingColumnsAndReorder is FillMissingColumns that always reorders.
func (r *Reader) FillMissingColumnsAndReorder(res *block.Block, orderedNames []string) error {
	return r.fillMissingColumns(res, orderedNames, true)
}

func (r *Reader) fillMissingColumns(res *block.Block, orderedNames []string, alwaysReorder bool) error {
	if res.Columns() == 0 {
		return core.ErrEmptyBlock
	}

	// Offsets of the arrays already in res, by Nested table.
	offsetColumns := make(map[string]*column.Offsets)
	for i := 0; i < res.Columns(); i++ {
		c := res.At(i)
		array, ok := c.Column.(*column.Array)
		if !ok {
			continue
		}
		table := part.NestedTableName(c.Name)
		if _, seen := offsetColumns[table]; !seen {
			offsetColumns[table] = array.Offsets
		}
	}

	rows := res.Rows()
	added := false
	for _, c := range r.columns {
		if res.Has(c.Name) {
			continue
		}
		added = true

		var col column.Column
		if arr, ok := c.Type.(datatype.Array); ok {
			if offsets, found := offsetColumns[part.NestedTableName(c.Name)]; found {
				elems := datatype.DefaultColumn(arr.Elem, int(offsets.Last()))
				col = column.NewArrayWithOffsets(offsets, elems)
			}
		}
		if col == nil {
			col = datatype.DefaultColumn(c.Type, rows)
		}
		r.logger.Debug("Filled missing column with defaults", "column", c.Name, "type", c.Type.Name(), "rows", rows)
		res.Insert(block.ColumnWithTypeAndName{Column: col, Type: c.Type, Name: c.Name})
	}

	if added || alwaysReorder {
		res.Reorder(orderedNames)
	}
	return nil
}
