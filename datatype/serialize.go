package datatype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/core"
)

// ErrColumnMismatch is returned when a column does not match its type.
var ErrColumnMismatch = errors.New("column does not match data type")

// BulkReader is what bulk deserialization reads from. Decompressed read
// buffers and bufio.Reader satisfy it.
type BulkReader interface {
	io.Reader
	io.ByteReader
}

// MemoryTracker is charged before buffers are preallocated.
type MemoryTracker interface {
	Reserve(n int64) error
}

// DeserializeOptions tune one bulk read.
type DeserializeOptions struct {
	// AvgValueSizeHint is the expected in-memory bytes per value, 0 if unknown.
	AvgValueSizeHint float64
	// Memory, if set, is charged for preallocated buffers.
	Memory MemoryTracker
}

// Flat is implemented by types whose values live in a single stream.
type Flat interface {
	DataType
	// SerializeBinaryBulk writes rows [offset, offset+limit) of col.
	SerializeBinaryBulk(col column.Column, w io.Writer, offset, limit int) error
	// DeserializeBinaryBulk appends up to limit values read from r to col.
	// It stops early without error when r is exhausted at a value boundary.
	DeserializeBinaryBulk(col column.Column, r BulkReader, limit int, opts DeserializeOptions) error
}

var (
	_ Flat = Numeric{}
	_ Flat = String{}
	_ Flat = FixedString{}
)

func reserve(m MemoryTracker, n int64) error {
	if m == nil || n <= 0 {
		return nil
	}
	return m.Reserve(n)
}

func mismatch(col column.Column, t DataType) error {
	return fmt.Errorf("%w: %T for %s", ErrColumnMismatch, col, t.Name())
}

// readValues fills buf from r and reports how many whole values of width
// bytes were read.
func readValues(r io.Reader, buf []byte, width int) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, err
	}
	if n%width != 0 {
		return 0, fmt.Errorf("%w: stream ends inside a %d-byte value", core.ErrCorrupted, width)
	}
	return n / width, nil
}

func readFixed[T column.Number](c *column.Vector[T], r io.Reader, limit, width int, m MemoryTracker, dec func([]byte) T) error {
	if limit <= 0 {
		return nil
	}
	if err := reserve(m, int64(limit*width)); err != nil {
		return err
	}
	buf := make([]byte, limit*width)
	n, err := readValues(r, buf, width)
	if err != nil {
		return err
	}
	c.Reserve(n)
	for i := 0; i < n; i++ {
		c.Data = append(c.Data, dec(buf[i*width:]))
	}
	return nil
}

func writeFixed[T column.Number](c *column.Vector[T], w io.Writer, offset, limit, width int, enc func([]byte, T)) error {
	end := min(offset+limit, len(c.Data))
	if offset >= end {
		return nil
	}
	buf := make([]byte, (end-offset)*width)
	for i, v := range c.Data[offset:end] {
		enc(buf[i*width:], v)
	}
	_, err := w.Write(buf)
	return err
}

func (t Numeric) DeserializeBinaryBulk(col column.Column, r BulkReader, limit int, opts DeserializeOptions) error {
	le := binary.LittleEndian
	w := t.Width()
	switch c := col.(type) {
	case *column.Vector[uint8]:
		if t.Kind != KindUInt8 {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, func(b []byte) uint8 { return b[0] })
	case *column.Vector[uint16]:
		if t.Kind != KindUInt16 && t.Kind != KindDate {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, le.Uint16)
	case *column.Vector[uint32]:
		if t.Kind != KindUInt32 && t.Kind != KindDateTime {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, le.Uint32)
	case *column.Vector[uint64]:
		if t.Kind != KindUInt64 {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, le.Uint64)
	case *column.Vector[int8]:
		if t.Kind != KindInt8 {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, func(b []byte) int8 { return int8(b[0]) })
	case *column.Vector[int16]:
		if t.Kind != KindInt16 {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, func(b []byte) int16 { return int16(le.Uint16(b)) })
	case *column.Vector[int32]:
		if t.Kind != KindInt32 {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, func(b []byte) int32 { return int32(le.Uint32(b)) })
	case *column.Vector[int64]:
		if t.Kind != KindInt64 {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, func(b []byte) int64 { return int64(le.Uint64(b)) })
	case *column.Vector[float32]:
		if t.Kind != KindFloat32 {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, func(b []byte) float32 { return math.Float32frombits(le.Uint32(b)) })
	case *column.Vector[float64]:
		if t.Kind != KindFloat64 {
			break
		}
		return readFixed(c, r, limit, w, opts.Memory, func(b []byte) float64 { return math.Float64frombits(le.Uint64(b)) })
	}
	return mismatch(col, t)
}

func (t Numeric) SerializeBinaryBulk(col column.Column, w io.Writer, offset, limit int) error {
	le := binary.LittleEndian
	width := t.Width()
	switch c := col.(type) {
	case *column.Vector[uint8]:
		return writeFixed(c, w, offset, limit, width, func(b []byte, v uint8) { b[0] = v })
	case *column.Vector[uint16]:
		return writeFixed(c, w, offset, limit, width, le.PutUint16)
	case *column.Vector[uint32]:
		return writeFixed(c, w, offset, limit, width, le.PutUint32)
	case *column.Vector[uint64]:
		return writeFixed(c, w, offset, limit, width, le.PutUint64)
	case *column.Vector[int8]:
		return writeFixed(c, w, offset, limit, width, func(b []byte, v int8) { b[0] = byte(v) })
	case *column.Vector[int16]:
		return writeFixed(c, w, offset, limit, width, func(b []byte, v int16) { le.PutUint16(b, uint16(v)) })
	case *column.Vector[int32]:
		return writeFixed(c, w, offset, limit, width, func(b []byte, v int32) { le.PutUint32(b, uint32(v)) })
	case *column.Vector[int64]:
		return writeFixed(c, w, offset, limit, width, func(b []byte, v int64) { le.PutUint64(b, uint64(v)) })
	case *column.Vector[float32]:
		return writeFixed(c, w, offset, limit, width, func(b []byte, v float32) { le.PutUint32(b, math.Float32bits(v)) })
	case *column.Vector[float64]:
		return writeFixed(c, w, offset, limit, width, func(b []byte, v float64) { le.PutUint64(b, math.Float64bits(v)) })
	}
	return mismatch(col, t)
}

// offsetSize is the in-memory size of one string offset.
const offsetSize = 8

// avgValueSizeRate over-reserves string bytes to absorb variance.
const avgValueSizeRate = 1.2

// StringReserveSize returns how many bytes of characters to preallocate for
// limit strings given the average value size hint.
func StringReserveSize(limit int, hint float64) int {
	avgChars := 1.0
	if hint > offsetSize {
		avgChars = (hint - offsetSize) * avgValueSizeRate
	}
	return int(math.Ceil(float64(limit) * avgChars))
}

func (t String) DeserializeBinaryBulk(col column.Column, r BulkReader, limit int, opts DeserializeOptions) error {
	c, ok := col.(*column.String)
	if !ok {
		return mismatch(col, t)
	}
	if limit <= 0 {
		return nil
	}

	want := len(c.Chars) + StringReserveSize(limit, opts.AvgValueSizeHint)
	if grow := want - cap(c.Chars); grow > 0 {
		if err := reserve(opts.Memory, int64(grow+offsetSize*limit)); err != nil {
			return err
		}
		chars := make([]byte, len(c.Chars), want)
		copy(chars, c.Chars)
		c.Chars = chars
	}

	for i := 0; i < limit; i++ {
		size, err := binary.ReadUvarint(r)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if err == io.ErrUnexpectedEOF {
				return fmt.Errorf("%w: stream ends inside a string length", core.ErrCorrupted)
			}
			return err
		}
		start := len(c.Chars)
		c.Chars = append(c.Chars, make([]byte, size)...)
		if _, err := io.ReadFull(r, c.Chars[start:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return fmt.Errorf("%w: stream ends inside a %d-byte string", core.ErrCorrupted, size)
			}
			return err
		}
		c.Offsets = append(c.Offsets, uint64(len(c.Chars)))
	}
	return nil
}

func (t String) SerializeBinaryBulk(col column.Column, w io.Writer, offset, limit int) error {
	c, ok := col.(*column.String)
	if !ok {
		return mismatch(col, t)
	}
	end := min(offset+limit, c.Len())
	var lenBuf [binary.MaxVarintLen64]byte
	for i := offset; i < end; i++ {
		b := c.Bytes(i)
		n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
		if _, err := w.Write(lenBuf[:n]); err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func (t FixedString) DeserializeBinaryBulk(col column.Column, r BulkReader, limit int, opts DeserializeOptions) error {
	c, ok := col.(*column.FixedString)
	if !ok || c.N != t.N {
		return mismatch(col, t)
	}
	if limit <= 0 {
		return nil
	}
	if err := reserve(opts.Memory, int64(limit*t.N)); err != nil {
		return err
	}
	buf := make([]byte, limit*t.N)
	n, err := readValues(r, buf, t.N)
	if err != nil {
		return err
	}
	c.Chars = append(c.Chars, buf[:n*t.N]...)
	return nil
}

func (t FixedString) SerializeBinaryBulk(col column.Column, w io.Writer, offset, limit int) error {
	c, ok := col.(*column.FixedString)
	if !ok || c.N != t.N {
		return mismatch(col, t)
	}
	end := min(offset+limit, c.Len())
	if offset >= end {
		return nil
	}
	_, err := w.Write(c.Chars[offset*t.N : end*t.N])
	return err
}

// DeserializeArraySizes reads up to limit array sizes and appends the
// corresponding cumulative offsets.
func DeserializeArraySizes(offsets *column.Offsets, r BulkReader, limit int, m MemoryTracker) error {
	if limit <= 0 {
		return nil
	}
	if err := reserve(m, int64(limit*8)); err != nil {
		return err
	}
	buf := make([]byte, limit*8)
	n, err := readValues(r, buf, 8)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		offsets.AppendSize(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return nil
}

// SerializeArraySizes writes the sizes of rows [offset, offset+limit).
func SerializeArraySizes(offsets *column.Offsets, w io.Writer, offset, limit int) error {
	end := min(offset+limit, offsets.Len())
	if offset >= end {
		return nil
	}
	buf := make([]byte, (end-offset)*8)
	for i := offset; i < end; i++ {
		binary.LittleEndian.PutUint64(buf[(i-offset)*8:], offsets.SizeAt(i))
	}
	_, err := w.Write(buf)
	return err
}

// DeserializeNullMap reads up to limit null flags.
func DeserializeNullMap(n *column.Nullable, r BulkReader, limit int, m MemoryTracker) error {
	if limit <= 0 {
		return nil
	}
	if err := reserve(m, int64(limit)); err != nil {
		return err
	}
	buf := make([]byte, limit)
	read, err := readValues(r, buf, 1)
	if err != nil {
		return err
	}
	n.NullMap = append(n.NullMap, buf[:read]...)
	return nil
}

// SerializeNullMap writes the null flags of rows [offset, offset+limit).
func SerializeNullMap(n *column.Nullable, w io.Writer, offset, limit int) error {
	end := min(offset+limit, len(n.NullMap))
	if offset >= end {
		return nil
	}
	_, err := w.Write(n.NullMap[offset:end])
	return err
}
