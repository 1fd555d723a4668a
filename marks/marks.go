// Package marks implements the sparse mark index of a column stream: one
// mark every index_granularity rows, pointing into the compressed file.
package marks

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/sys"
)

// Size is the encoded size of one mark.
const Size = 16

// Mark locates the first row of a granule: the compressed block that holds it
// and the byte offset of the row inside the decompressed block.
type Mark struct {
	OffsetInCompressedFile    uint64
	OffsetInDecompressedBlock uint64
}

func (m Mark) String() string {
	return fmt.Sprintf("(%d, %d)", m.OffsetInCompressedFile, m.OffsetInDecompressedBlock)
}

// Marks is the full mark index of one stream.
type Marks []Mark

// ByteSize is the memory accounted to the marks in the mark cache.
func (m Marks) ByteSize() int64 {
	return int64(len(m)) * Size
}

// Decode parses a mark file image. The length must be a multiple of Size.
func Decode(data []byte) (Marks, error) {
	if len(data)%Size != 0 {
		return nil, fmt.Errorf("%w: mark file size %d is not a multiple of %d", core.ErrCorrupted, len(data), Size)
	}
	out := make(Marks, len(data)/Size)
	for i := range out {
		b := data[i*Size:]
		out[i] = Mark{
			OffsetInCompressedFile:    binary.LittleEndian.Uint64(b),
			OffsetInDecompressedBlock: binary.LittleEndian.Uint64(b[8:]),
		}
	}
	return out, nil
}

// Write encodes marks to w.
func Write(w io.Writer, marks Marks) error {
	buf := make([]byte, len(marks)*Size)
	for i, m := range marks {
		binary.LittleEndian.PutUint64(buf[i*Size:], m.OffsetInCompressedFile)
		binary.LittleEndian.PutUint64(buf[i*Size+8:], m.OffsetInDecompressedBlock)
	}
	_, err := w.Write(buf)
	return err
}

// Load reads the whole mark file at path.
func Load(path string) (Marks, error) {
	f, err := sys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open marks file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat marks file %s: %w", path, err)
	}
	if st.Size()%Size != 0 {
		return nil, fmt.Errorf("%w: bad size of marks file %s: %d", core.ErrCorrupted, path, st.Size())
	}
	data := make([]byte, st.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("failed to read marks file %s: %w", path, err)
	}
	return Decode(data)
}
