// Package datatype describes the logical types of stored columns and how
// flat values are laid out in a column stream.
package datatype

import (
	"fmt"
	"strings"

	"github.com/INLOpen/mergetree/column"
)

// DataType is a logical column type.
type DataType interface {
	// Name is the canonical type name, accepted back by Parse.
	Name() string
	// CreateColumn returns an empty column able to hold values of the type.
	CreateColumn() column.Column
}

// Kind enumerates the fixed-width types.
type Kind uint8

const (
	KindUInt8 Kind = iota + 1
	KindUInt16
	KindUInt32
	KindUInt64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindDate
	KindDateTime
)

var kindNames = map[Kind]string{
	KindUInt8:    "UInt8",
	KindUInt16:   "UInt16",
	KindUInt32:   "UInt32",
	KindUInt64:   "UInt64",
	KindInt8:     "Int8",
	KindInt16:    "Int16",
	KindInt32:    "Int32",
	KindInt64:    "Int64",
	KindFloat32:  "Float32",
	KindFloat64:  "Float64",
	KindDate:     "Date",
	KindDateTime: "DateTime",
}

// Numeric is a fixed-width type. Date is stored as UInt16 days since the
// epoch and DateTime as UInt32 seconds.
type Numeric struct {
	Kind Kind
}

var (
	UInt8    = Numeric{KindUInt8}
	UInt16   = Numeric{KindUInt16}
	UInt32   = Numeric{KindUInt32}
	UInt64   = Numeric{KindUInt64}
	Int8     = Numeric{KindInt8}
	Int16    = Numeric{KindInt16}
	Int32    = Numeric{KindInt32}
	Int64    = Numeric{KindInt64}
	Float32  = Numeric{KindFloat32}
	Float64  = Numeric{KindFloat64}
	Date     = Numeric{KindDate}
	DateTime = Numeric{KindDateTime}
)

func (t Numeric) Name() string { return kindNames[t.Kind] }

// Width is the encoded size of one value in bytes.
func (t Numeric) Width() int {
	switch t.Kind {
	case KindUInt8, KindInt8:
		return 1
	case KindUInt16, KindInt16, KindDate:
		return 2
	case KindUInt32, KindInt32, KindFloat32, KindDateTime:
		return 4
	default:
		return 8
	}
}

func (t Numeric) CreateColumn() column.Column {
	switch t.Kind {
	case KindUInt8:
		return column.NewVector[uint8]()
	case KindUInt16, KindDate:
		return column.NewVector[uint16]()
	case KindUInt32, KindDateTime:
		return column.NewVector[uint32]()
	case KindUInt64:
		return column.NewVector[uint64]()
	case KindInt8:
		return column.NewVector[int8]()
	case KindInt16:
		return column.NewVector[int16]()
	case KindInt32:
		return column.NewVector[int32]()
	case KindInt64:
		return column.NewVector[int64]()
	case KindFloat32:
		return column.NewVector[float32]()
	case KindFloat64:
		return column.NewVector[float64]()
	}
	panic(fmt.Sprintf("datatype: unknown numeric kind %d", t.Kind))
}

// String is a variable-length byte string.
type String struct{}

func (String) Name() string { return "String" }
func (String) CreateColumn() column.Column { return column.NewString() }

// FixedString is a byte string of exactly N bytes.
type FixedString struct {
	N int
}

func (t FixedString) Name() string { return fmt.Sprintf("FixedString(%d)", t.N) }
func (t FixedString) CreateColumn() column.Column { return column.NewFixedString(t.N) }

// Array is a variable-length sequence of Elem.
type Array struct {
	Elem DataType
}

func (t Array) Name() string { return "Array(" + t.Elem.Name() + ")" }
func (t Array) CreateColumn() column.Column { return column.NewArray(t.Elem.CreateColumn()) }

// Nullable adds a null flag to Nested.
type Nullable struct {
	Nested DataType
}

func (t Nullable) Name() string { return "Nullable(" + t.Nested.Name() + ")" }
func (t Nullable) CreateColumn() column.Column { return column.NewNullable(t.Nested.CreateColumn()) }

// Tuple is a fixed-arity record.
type Tuple struct {
	Elems []DataType
}

func (t Tuple) Name() string {
	names := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		names[i] = e.Name()
	}
	return "Tuple(" + strings.Join(names, ", ") + ")"
}

func (t Tuple) CreateColumn() column.Column {
	cols := make([]column.Column, len(t.Elems))
	for i, e := range t.Elems {
		cols[i] = e.CreateColumn()
	}
	return column.NewTuple(cols...)
}

// IsFlat reports whether t is stored in a single stream without sub-streams.
func IsFlat(t DataType) bool {
	switch t.(type) {
	case Numeric, String, FixedString:
		return true
	}
	return false
}

// Equal compares two types by canonical name.
func Equal(a, b DataType) bool {
	return a.Name() == b.Name()
}

// DefaultColumn returns a column of n default values of type t.
func DefaultColumn(t DataType, n int) column.Column {
	c := t.CreateColumn()
	c.InsertManyDefaults(n)
	return c
}
