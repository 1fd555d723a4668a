package part

import (
	"strconv"
	"strings"

	"github.com/INLOpen/mergetree/datatype"
)

const (
	nullMapSuffix    = ".null"
	arraySizesSuffix = ".size"
)

// NestedTableName returns the Nested table a column belongs to: "n" for
// "n.a". Columns outside a Nested table, and tuple element paths such as
// "t.1", are their own table.
func NestedTableName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return name
	}
	for _, p := range parts[1:] {
		if isNumber(p) {
			return name
		}
	}
	return parts[0]
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NullMapStream names the null map of a Nullable at the given array level.
func NullMapStream(name string, level int) string {
	if level == 0 {
		return name + nullMapSuffix
	}
	return name + nullMapSuffix + strconv.Itoa(level)
}

// ArraySizesStream names the sizes of an Array at the given level. At level 0
// all arrays of one Nested table share a stream.
func ArraySizesStream(name string, level int) string {
	if level == 0 {
		return NestedTableName(name) + arraySizesSuffix + "0"
	}
	return name + arraySizesSuffix + strconv.Itoa(level)
}

// TupleElement names the sub-column holding element i (0-based) of a tuple.
func TupleElement(name string, i int) string {
	return name + "." + strconv.Itoa(i+1)
}

// Substreams lists the sub-streams of a column in the order they are read.
// Shared Nested sizes streams appear once per column.
func Substreams(name string, t datatype.DataType) []string {
	var out []string
	var walk func(name string, t datatype.DataType, level int)
	walk = func(name string, t datatype.DataType, level int) {
		switch tt := t.(type) {
		case datatype.Nullable:
			out = append(out, NullMapStream(name, level))
			walk(name, tt.Nested, level)
		case datatype.Array:
			out = append(out, ArraySizesStream(name, level))
			walk(name, tt.Elem, level+1)
		case datatype.Tuple:
			for i, e := range tt.Elems {
				walk(TupleElement(name, i), e, level)
			}
		default:
			out = append(out, name)
		}
	}
	walk(name, t, 0)
	return out
}

const hexDigits = "0123456789ABCDEF"

// EscapeForFileName percent-encodes every byte outside [A-Za-z0-9_].
func EscapeForFileName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0xf])
	}
	return b.String()
}

// UnescapeForFileName reverses EscapeForFileName. Malformed escapes are kept
// verbatim.
func UnescapeForFileName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
