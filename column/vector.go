package column

import "unsafe"

// Number is the set of fixed-width element types a Vector can hold.
type Number interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// Vector is a column of fixed-width values.
type Vector[T Number] struct {
	Data []T
}

var (
	_ Column = (*Vector[uint8])(nil)
	_ Column = (*Vector[float64])(nil)
)

func NewVector[T Number](values ...T) *Vector[T] {
	return &Vector[T]{Data: values}
}

func (v *Vector[T]) Len() int { return len(v.Data) }

func (v *Vector[T]) ByteSize() int {
	var zero T
	return len(v.Data) * int(unsafe.Sizeof(zero))
}

// ValueSize is the width of one element in bytes.
func (v *Vector[T]) ValueSize() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func (v *Vector[T]) CloneEmpty() Column { return &Vector[T]{} }

func (v *Vector[T]) InsertDefault() {
	var zero T
	v.Data = append(v.Data, zero)
}

func (v *Vector[T]) InsertManyDefaults(n int) {
	v.Data = append(v.Data, make([]T, n)...)
}

// Reserve grows the capacity to hold n more values.
func (v *Vector[T]) Reserve(n int) {
	if cap(v.Data)-len(v.Data) >= n {
		return
	}
	grown := make([]T, len(v.Data), len(v.Data)+n)
	copy(grown, v.Data)
	v.Data = grown
}

func (v *Vector[T]) Value(i int) any { return v.Data[i] }
