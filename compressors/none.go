package compressors

import (
	"bytes"
	"fmt"

	"github.com/INLOpen/mergetree/core"
)

// NoCompressionCompressor stores blocks as-is.
type NoCompressionCompressor struct{}

var _ core.Compressor = (*NoCompressionCompressor)(nil)

func (c *NoCompressionCompressor) Decompress(dst, src []byte) error {
	if len(src) != len(dst) {
		return fmt.Errorf("uncompressed block size %d does not match raw size %d: %w", len(src), len(dst), core.ErrCorrupted)
	}
	copy(dst, src)
	return nil
}

func (c *NoCompressionCompressor) Type() core.CompressionType {
	return core.CompressionNone
}

// CompressTo "compresses" src data into the dst buffer by simply writing it.
func (c *NoCompressionCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	_, err := dst.Write(src)
	return err
}
