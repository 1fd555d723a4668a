// Package compressed implements the compressed block stream that column data
// and array sizes are written to, and the buffers that read it back.
package compressed

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/INLOpen/mergetree/compressors"
	"github.com/INLOpen/mergetree/core"
)

// Block layout, little endian:
//
//	checksum        uint64  xxhash64 of everything after it
//	codec           uint8   core.CompressionType
//	compressed size uint32  header + payload
//	raw size        uint32
//	payload
const (
	checksumSize = 8
	HeaderSize   = checksumSize + 1 + 4 + 4

	// MaxBlockSize bounds both sizes in a header; anything larger is corruption.
	MaxBlockSize = 1 << 30
)

type blockHeader struct {
	checksum       uint64
	codec          core.CompressionType
	compressedSize uint32
	rawSize        uint32
}

func (h blockHeader) payloadSize() int {
	return int(h.compressedSize) - HeaderSize
}

func parseHeader(b []byte) (blockHeader, error) {
	h := blockHeader{
		checksum:       binary.LittleEndian.Uint64(b[0:]),
		codec:          core.CompressionType(b[8]),
		compressedSize: binary.LittleEndian.Uint32(b[9:]),
		rawSize:        binary.LittleEndian.Uint32(b[13:]),
	}
	if h.compressedSize < HeaderSize || h.compressedSize > MaxBlockSize || h.rawSize > MaxBlockSize {
		return h, fmt.Errorf("%w: bad block header (compressed %d, raw %d)", core.ErrCorrupted, h.compressedSize, h.rawSize)
	}
	return h, nil
}

// EncodeBlock compresses raw with c and writes one framed block to w.
// It returns the number of bytes written.
func EncodeBlock(w io.Writer, c core.Compressor, raw []byte, scratch *bytes.Buffer) (int, error) {
	if len(raw) > MaxBlockSize {
		return 0, fmt.Errorf("block of %d bytes exceeds the maximum of %d", len(raw), MaxBlockSize)
	}
	scratch.Reset()
	scratch.Write(make([]byte, HeaderSize))
	payload := core.BufferPool.Get()
	defer core.BufferPool.Put(payload)
	if err := c.CompressTo(payload, raw); err != nil {
		return 0, fmt.Errorf("failed to compress block: %w", err)
	}
	scratch.Write(payload.Bytes())

	b := scratch.Bytes()
	b[8] = byte(c.Type())
	binary.LittleEndian.PutUint32(b[9:], uint32(len(b)))
	binary.LittleEndian.PutUint32(b[13:], uint32(len(raw)))
	binary.LittleEndian.PutUint64(b[0:], xxhash.Sum64(b[checksumSize:]))
	return w.Write(b)
}

// decodeBlock verifies frame (header + payload) and decompresses it into a
// new slice.
func decodeBlock(h blockHeader, frame []byte) ([]byte, error) {
	if sum := xxhash.Sum64(frame[checksumSize:]); sum != h.checksum {
		return nil, fmt.Errorf("%w: checksum mismatch (stored %016x, computed %016x)", core.ErrCorrupted, h.checksum, sum)
	}
	c, err := compressors.Get(h.codec)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, h.rawSize)
	if err := c.Decompress(raw, frame[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorrupted, err)
	}
	return raw, nil
}
