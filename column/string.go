package column

// String is a column of variable-length byte strings stored back to back in
// Chars. Offsets[i] is the end of row i in Chars.
type String struct {
	Chars   []byte
	Offsets []uint64
}

var _ Column = (*String)(nil)

func NewString(values ...string) *String {
	s := &String{}
	for _, v := range values {
		s.Append(v)
	}
	return s
}

func (s *String) Len() int { return len(s.Offsets) }

func (s *String) ByteSize() int { return len(s.Chars) + 8*len(s.Offsets) }

func (s *String) CloneEmpty() Column { return &String{} }

func (s *String) InsertDefault() { s.Append("") }

func (s *String) InsertManyDefaults(n int) {
	end := uint64(len(s.Chars))
	for i := 0; i < n; i++ {
		s.Offsets = append(s.Offsets, end)
	}
}

func (s *String) Append(v string) {
	s.Chars = append(s.Chars, v...)
	s.Offsets = append(s.Offsets, uint64(len(s.Chars)))
}

// AppendBytes appends v without converting it to a string.
func (s *String) AppendBytes(v []byte) {
	s.Chars = append(s.Chars, v...)
	s.Offsets = append(s.Offsets, uint64(len(s.Chars)))
}

// Bytes returns row i. The slice aliases Chars.
func (s *String) Bytes(i int) []byte {
	var start uint64
	if i > 0 {
		start = s.Offsets[i-1]
	}
	return s.Chars[start:s.Offsets[i]]
}

func (s *String) At(i int) string { return string(s.Bytes(i)) }

func (s *String) Value(i int) any { return s.At(i) }

// FixedString is a column of strings that are exactly N bytes long.
type FixedString struct {
	N     int
	Chars []byte
}

var _ Column = (*FixedString)(nil)

func NewFixedString(n int) *FixedString {
	return &FixedString{N: n}
}

func (f *FixedString) Len() int {
	if f.N == 0 {
		return 0
	}
	return len(f.Chars) / f.N
}

func (f *FixedString) ByteSize() int { return len(f.Chars) }

func (f *FixedString) CloneEmpty() Column { return &FixedString{N: f.N} }

func (f *FixedString) InsertDefault() {
	f.Chars = append(f.Chars, make([]byte, f.N)...)
}

func (f *FixedString) InsertManyDefaults(n int) {
	f.Chars = append(f.Chars, make([]byte, n*f.N)...)
}

// Append pads or truncates v to N bytes.
func (f *FixedString) Append(v string) {
	b := make([]byte, f.N)
	copy(b, v)
	f.Chars = append(f.Chars, b...)
}

func (f *FixedString) Bytes(i int) []byte {
	return f.Chars[i*f.N : (i+1)*f.N]
}

func (f *FixedString) Value(i int) any { return string(f.Bytes(i)) }
