package mergetree

import (
	"fmt"

	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/datatype"
	"github.com/INLOpen/mergetree/part"
)

// readData appends up to maxRowsToRead values of type t, starting at mark
// fromMark, to col. level is the array depth and selects sub-stream names.
// readOffsets is false when the array sizes were already read into col's
// shared offsets by a sibling column of the same Nested table.
func (r *Reader) readData(name string, t datatype.DataType, col column.Column, fromMark, maxRowsToRead, level int, readOffsets bool, memory datatype.MemoryTracker) error {
	switch tt := t.(type) {
	case datatype.Nullable:
		nullable, ok := col.(*column.Nullable)
		if !ok {
			return fmt.Errorf("%w: %T for %s", datatype.ErrColumnMismatch, col, t.Name())
		}
		s, err := r.mustStream(part.NullMapStream(name, level))
		if err != nil {
			return err
		}
		if err := s.seekToMark(fromMark); err != nil {
			return err
		}
		if err := datatype.DeserializeNullMap(nullable, s.buffer, maxRowsToRead, memory); err != nil {
			return err
		}
		return r.readData(name, tt.Nested, nullable.Nested, fromMark, maxRowsToRead, level, readOffsets, memory)

	case datatype.Array:
		array, ok := col.(*column.Array)
		if !ok {
			return fmt.Errorf("%w: %T for %s", datatype.ErrColumnMismatch, col, t.Name())
		}
		if readOffsets {
			s, err := r.mustStream(part.ArraySizesStream(name, level))
			if err != nil {
				return err
			}
			if err := s.seekToMark(fromMark); err != nil {
				return err
			}
			if err := datatype.DeserializeArraySizes(array.Offsets, s.buffer, maxRowsToRead, memory); err != nil {
				return err
			}
		}
		if array.Len() == 0 {
			return nil
		}
		required := array.Offsets.Last()
		before := uint64(array.Data.Len())
		if required <= before {
			return nil
		}
		if err := r.readData(name, tt.Elem, array.Data, fromMark, int(required-before), level+1, true, memory); err != nil {
			return err
		}
		got := uint64(array.Data.Len())
		if got == before {
			// An empty element stream under non-empty sizes. Serve defaults
			// so the array stays consistent with its offsets.
			r.logger.Warn("Array elements missing, filling with defaults", "column", name, "level", level+1, "elements", required-before)
			array.Data.InsertManyDefaults(int(required - before))
			return nil
		}
		if got != required {
			return fmt.Errorf("%w: array %s has %d elements, sizes require %d", core.ErrCorrupted, name, got, required)
		}
		return nil

	case datatype.Tuple:
		tuple, ok := col.(*column.Tuple)
		if !ok || len(tuple.Columns) != len(tt.Elems) {
			return fmt.Errorf("%w: %T for %s", datatype.ErrColumnMismatch, col, t.Name())
		}
		for i, e := range tt.Elems {
			if err := r.readData(part.TupleElement(name, i), e, tuple.Columns[i], fromMark, maxRowsToRead, level, true, memory); err != nil {
				return err
			}
		}
		if err := checkTupleRows(name, tuple); err != nil {
			return err
		}
		return nil

	case datatype.Flat:
		s, err := r.mustStream(name)
		if err != nil {
			return err
		}
		if err := s.seekToMark(fromMark); err != nil {
			return err
		}
		hint := r.hints[name]
		if err := tt.DeserializeBinaryBulk(col, s.buffer, maxRowsToRead, datatype.DeserializeOptions{
			AvgValueSizeHint: hint,
			Memory:           memory,
		}); err != nil {
			return err
		}
		datatype.UpdateAvgValueSizeHint(col, &hint)
		r.hints[name] = hint
		return nil
	}
	return fmt.Errorf("%w: cannot read type %s", core.ErrCorrupted, t.Name())
}

func (r *Reader) mustStream(name string) (*stream, error) {
	s, ok := r.getStream(name)
	if !ok {
		return nil, fmt.Errorf("%w: stream %s was not opened", core.ErrMissingData, name)
	}
	return s, nil
}

func checkTupleRows(name string, t *column.Tuple) error {
	rows := t.Len()
	for i, c := range t.Columns {
		if c.Len() != rows {
			return fmt.Errorf("%w: tuple %s element %d has %d rows, expected %d", core.ErrCorrupted, name, i+1, c.Len(), rows)
		}
	}
	return nil
}
