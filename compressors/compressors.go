package compressors

import (
	"fmt"

	"github.com/INLOpen/mergetree/core"
)

var zstdCompressor = NewZstdCompressor()

// Get returns the Compressor for a CompressionType read from a block header.
func Get(compressionType core.CompressionType) (core.Compressor, error) {
	switch compressionType {
	case core.CompressionNone:
		return &NoCompressionCompressor{}, nil
	case core.CompressionSnappy:
		return &SnappyCompressor{}, nil
	case core.CompressionLZ4:
		return &LZ4Compressor{}, nil
	case core.CompressionZSTD:
		return zstdCompressor, nil
	default:
		return nil, fmt.Errorf("unknown compression type %d: %w", compressionType, core.ErrCorrupted)
	}
}
