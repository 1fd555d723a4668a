package compressed

import (
	"bytes"
	"io"

	"github.com/INLOpen/mergetree/core"
)

// DefaultBlockSize is the raw size at which a Writer cuts a block.
const DefaultBlockSize = 64 * 1024

// Writer buffers raw bytes and writes them to an underlying writer as
// compressed blocks. Offset and OffsetInBlock give the position a mark must
// record for the next byte written.
type Writer struct {
	w          io.Writer
	compressor core.Compressor
	blockSize  int

	pending []byte
	scratch bytes.Buffer
	written uint64
}

func NewWriter(w io.Writer, c core.Compressor, blockSize int) *Writer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Writer{w: w, compressor: c, blockSize: blockSize}
}

func (cw *Writer) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		room := cw.blockSize - len(cw.pending)
		take := min(room, len(p))
		cw.pending = append(cw.pending, p[:take]...)
		p = p[take:]
		if len(cw.pending) >= cw.blockSize {
			if err := cw.Flush(); err != nil {
				return n - len(p), err
			}
		}
	}
	return n, nil
}

// Flush writes buffered bytes as one block. It is a no-op with nothing buffered.
func (cw *Writer) Flush() error {
	if len(cw.pending) == 0 {
		return nil
	}
	n, err := EncodeBlock(cw.w, cw.compressor, cw.pending, &cw.scratch)
	if err != nil {
		return err
	}
	cw.written += uint64(n)
	cw.pending = cw.pending[:0]
	return nil
}

// Offset is the compressed-file offset of the block being filled.
func (cw *Writer) Offset() uint64 { return cw.written }

// OffsetInBlock is the number of raw bytes buffered in the current block.
func (cw *Writer) OffsetInBlock() uint64 { return uint64(len(cw.pending)) }
