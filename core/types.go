package core

import (
	"bytes"
)

// CompressionType identifies the codec used for a compressed block.
// It is stored in every block header to know how to decompress.
type CompressionType byte

const (
	CompressionNone   CompressionType = 0
	CompressionSnappy CompressionType = 1
	CompressionLZ4    CompressionType = 2
	CompressionZSTD   CompressionType = 3
)

// Compressor defines block compression and decompression.
// Blocks carry their raw size in the header, so decompression always knows
// the exact output length up front.
type Compressor interface {
	// CompressTo compresses src into dst. dst is reset first.
	CompressTo(dst *bytes.Buffer, src []byte) error
	// Decompress decompresses src into dst. len(dst) must equal the raw size.
	Decompress(dst, src []byte) error
	// Type returns the CompressionType identifier for this compressor.
	Type() CompressionType
}

// String returns the string representation of the CompressionType.
func (ct CompressionType) String() string {
	switch ct {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}
