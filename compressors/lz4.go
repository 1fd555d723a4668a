package compressors

import (
	"bytes"
	"fmt"

	"github.com/INLOpen/mergetree/core"
	lz4 "github.com/pierrec/lz4/v4"
)

// LZ4Compressor implements the Compressor interface using LZ4 block format.
type LZ4Compressor struct{}

var _ core.Compressor = (*LZ4Compressor)(nil)

func NewLz4Compressor() *LZ4Compressor {
	return &LZ4Compressor{}
}

// Decompress relies on the raw size from the block header; the lz4 block
// format does not store it.
func (c *LZ4Compressor) Decompress(dst, src []byte) error {
	if len(dst) == 0 {
		return nil
	}
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return fmt.Errorf("lz4 decompress error: %w", err)
	}
	if n != len(dst) {
		return fmt.Errorf("lz4 block decoded to %d bytes, want %d: %w", n, len(dst), core.ErrCorrupted)
	}
	return nil
}

func (c *LZ4Compressor) Type() core.CompressionType {
	return core.CompressionLZ4
}

// CompressTo compresses src data into the dst buffer using LZ4.
// lz4.CompressBlock (not lz4.NewWriter) keeps the output in block format.
func (c *LZ4Compressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	if len(src) == 0 {
		return nil
	}
	tempBuf := make([]byte, lz4.CompressBlockBound(len(src)))

	n, err := lz4.CompressBlock(src, tempBuf, nil)
	if err != nil {
		return fmt.Errorf("lz4 CompressTo block compress error: %w", err)
	}
	if n == 0 {
		// Incompressible input: CompressBlock reports 0 and the caller must
		// store it another way. Fall back to a literal-only block.
		return c.compressLiterals(dst, src)
	}

	dst.Write(tempBuf[:n])
	return nil
}

// compressLiterals emits a single lz4 sequence holding src as literals, which
// UncompressBlock accepts for any input.
func (c *LZ4Compressor) compressLiterals(dst *bytes.Buffer, src []byte) error {
	n := len(src)
	if n < 15 {
		dst.WriteByte(byte(n << 4))
	} else {
		dst.WriteByte(0xF0)
		rest := n - 15
		for rest >= 255 {
			dst.WriteByte(255)
			rest -= 255
		}
		dst.WriteByte(byte(rest))
	}
	dst.Write(src)
	return nil
}
