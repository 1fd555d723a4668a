package compressors

import (
	"bytes"
	"fmt"

	"github.com/INLOpen/mergetree/core"
	"github.com/golang/snappy"
)

// SnappyCompressor implements the Compressor interface using Snappy block format.
type SnappyCompressor struct{}

var _ core.Compressor = (*SnappyCompressor)(nil)

func NewSnappyCompressor() *SnappyCompressor {
	return &SnappyCompressor{}
}

func (c *SnappyCompressor) Decompress(dst, src []byte) error {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return fmt.Errorf("snappy decompress error: %w", err)
	}
	if n != len(dst) {
		return fmt.Errorf("snappy block decodes to %d bytes, want %d: %w", n, len(dst), core.ErrCorrupted)
	}
	if n == 0 {
		return nil
	}
	// Decode writes into dst when it is large enough, which it is here.
	out, err := snappy.Decode(dst, src)
	if err != nil {
		return fmt.Errorf("snappy decompress error: %w", err)
	}
	if &out[0] != &dst[0] {
		copy(dst, out)
	}
	return nil
}

func (c *SnappyCompressor) Type() core.CompressionType {
	return core.CompressionSnappy
}

// CompressTo compresses src data into the dst buffer using Snappy.
// snappy.Encode (not the framed writer) keeps the output compatible with Decompress.
func (c *SnappyCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	dst.Write(snappy.Encode(nil, src))
	return nil
}
