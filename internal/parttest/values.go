package parttest

import (
	"fmt"

	"github.com/INLOpen/mergetree/block"
	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/datatype"
)

// Column builds a named column of the given type from plain Go values, in
// the same shapes column.Value returns: numbers of the matching Go type,
// strings, []any for arrays and tuples, nil for NULL.
func Column(name, typeName string, values ...any) block.ColumnWithTypeAndName {
	t := datatype.MustParse(typeName)
	c := t.CreateColumn()
	for _, v := range values {
		if err := appendValue(c, t, v); err != nil {
			panic(fmt.Sprintf("parttest: column %s: %v", name, err))
		}
	}
	return block.ColumnWithTypeAndName{Column: c, Type: t, Name: name}
}

func appendNumber[T column.Number](c column.Column, v any) error {
	vec, ok := c.(*column.Vector[T])
	if !ok {
		return fmt.Errorf("column %T", c)
	}
	switch x := v.(type) {
	case T:
		vec.Data = append(vec.Data, x)
	case int:
		vec.Data = append(vec.Data, T(x))
	default:
		return fmt.Errorf("value %v (%T) for %T", v, v, c)
	}
	return nil
}

func appendValue(c column.Column, t datatype.DataType, v any) error {
	switch tt := t.(type) {
	case datatype.Numeric:
		switch c.(type) {
		case *column.Vector[uint8]:
			return appendNumber[uint8](c, v)
		case *column.Vector[uint16]:
			return appendNumber[uint16](c, v)
		case *column.Vector[uint32]:
			return appendNumber[uint32](c, v)
		case *column.Vector[uint64]:
			return appendNumber[uint64](c, v)
		case *column.Vector[int8]:
			return appendNumber[int8](c, v)
		case *column.Vector[int16]:
			return appendNumber[int16](c, v)
		case *column.Vector[int32]:
			return appendNumber[int32](c, v)
		case *column.Vector[int64]:
			return appendNumber[int64](c, v)
		case *column.Vector[float32]:
			return appendNumber[float32](c, v)
		case *column.Vector[float64]:
			return appendNumber[float64](c, v)
		}
	case datatype.String:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("value %v (%T) for String", v, v)
		}
		c.(*column.String).Append(s)
		return nil
	case datatype.FixedString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("value %v (%T) for %s", v, v, tt.Name())
		}
		c.(*column.FixedString).Append(s)
		return nil
	case datatype.Nullable:
		n := c.(*column.Nullable)
		if v == nil {
			n.InsertDefault()
			return nil
		}
		n.NullMap = append(n.NullMap, 0)
		return appendValue(n.Nested, tt.Nested, v)
	case datatype.Array:
		a := c.(*column.Array)
		elems, ok := v.([]any)
		if !ok {
			return fmt.Errorf("value %v (%T) for %s", v, v, tt.Name())
		}
		for _, e := range elems {
			if err := appendValue(a.Data, tt.Elem, e); err != nil {
				return err
			}
		}
		a.Offsets.AppendSize(uint64(len(elems)))
		return nil
	case datatype.Tuple:
		tc := c.(*column.Tuple)
		elems, ok := v.([]any)
		if !ok || len(elems) != len(tt.Elems) {
			return fmt.Errorf("value %v (%T) for %s", v, v, tt.Name())
		}
		for i, e := range elems {
			if err := appendValue(tc.Columns[i], tt.Elems[i], e); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unsupported type %s", t.Name())
}

// Block builds a block from columns made with Column.
func Block(columns ...block.ColumnWithTypeAndName) *block.Block {
	return block.New(columns...)
}
