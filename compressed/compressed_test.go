package compressed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/INLOpen/mergetree/compressors"
	"github.com/INLOpen/mergetree/core"
)

type blockPos struct {
	offset uint64
	intra  uint64
}

// writeFile writes n little-endian uint32 values (0..n-1) in blocks of
// blockSize raw bytes and records the position of every value.
func writeFile(t *testing.T, ct core.CompressionType, n, blockSize int) (string, []blockPos) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	c, err := compressors.Get(ct)
	require.NoError(t, err)
	w := NewWriter(f, c, blockSize)
	positions := make([]blockPos, n)
	var v [4]byte
	for i := 0; i < n; i++ {
		positions[i] = blockPos{w.Offset(), w.OffsetInBlock()}
		binary.LittleEndian.PutUint32(v[:], uint32(i))
		_, err := w.Write(v[:])
		require.NoError(t, err)
	}
	require.NoError(t, w.Flush())
	return path, positions
}

func readUint32(t *testing.T, r io.Reader) uint32 {
	t.Helper()
	var v [4]byte
	_, err := io.ReadFull(r, v[:])
	require.NoError(t, err)
	return binary.LittleEndian.Uint32(v[:])
}

func fileSize(t *testing.T, path string) int64 {
	st, err := os.Stat(path)
	require.NoError(t, err)
	return st.Size()
}

func TestReadBuffer_SequentialAllCodecs(t *testing.T) {
	for _, ct := range []core.CompressionType{core.CompressionNone, core.CompressionSnappy, core.CompressionLZ4, core.CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			path, _ := writeFile(t, ct, 10000, 1000)
			stats := &Stats{}
			rb, err := NewReadBuffer(path, Options{BufferSize: 512, Stats: stats})
			require.NoError(t, err)
			defer rb.Close()

			data, err := io.ReadAll(rb)
			require.NoError(t, err)
			require.Len(t, data, 40000)
			for i := 0; i < 10000; i += 997 {
				assert.Equal(t, uint32(i), binary.LittleEndian.Uint32(data[i*4:]))
			}
			assert.Equal(t, int64(40), stats.Decompressions.Load())
			assert.Equal(t, int64(0), stats.Seeks.Load())
		})
	}
}

func TestReadBuffer_SeekToMarks(t *testing.T) {
	path, pos := writeFile(t, core.CompressionLZ4, 5000, 1024)

	for _, cached := range []bool{false, true} {
		opts := Options{BufferSize: 256, FileSize: fileSize(t, path)}
		if cached {
			opts.Cache = NewUncompressedCache(1 << 20)
		}
		rb, err := NewReadBuffer(path, opts)
		require.NoError(t, err)

		for _, i := range []int{4000, 17, 255, 256, 4999, 0} {
			require.NoError(t, rb.Seek(pos[i].offset, pos[i].intra))
			assert.Equal(t, uint32(i), readUint32(t, rb), "cached=%v value %d", cached, i)
			if i+1 < len(pos) {
				assert.Equal(t, uint32(i+1), readUint32(t, rb))
			}
		}
		require.NoError(t, rb.Close())
	}
}

func TestReadBuffer_ScanVersusSeek(t *testing.T) {
	path, pos := writeFile(t, core.CompressionNone, 20000, 400)
	target := pos[15000]

	read := func(scanForward int64) (uint32, StatsSnapshot) {
		stats := &Stats{}
		rb, err := NewReadBuffer(path, Options{BufferSize: 64, ScanForwardThreshold: scanForward, Stats: stats})
		require.NoError(t, err)
		defer rb.Close()
		require.NoError(t, rb.Seek(pos[10].offset, pos[10].intra))
		readUint32(t, rb)
		require.NoError(t, rb.Seek(target.offset, target.intra))
		return readUint32(t, rb), stats.Snapshot()
	}

	scanned, scanStats := read(1 << 30)
	seeked, seekStats := read(1)

	assert.Equal(t, uint32(15000), scanned)
	assert.Equal(t, scanned, seeked, "scan and seek must yield identical bytes")
	assert.Greater(t, scanStats.ScannedBytes, int64(0))
	assert.Equal(t, int64(0), scanStats.Seeks)
	assert.Equal(t, int64(0), seekStats.ScannedBytes)
	assert.Greater(t, seekStats.Seeks, int64(0))
}

func TestReadBuffer_CacheHitSkipsDecompression(t *testing.T) {
	path, pos := writeFile(t, core.CompressionZSTD, 4000, 1000)
	cache := NewUncompressedCache(1 << 20)

	readAll := func(skipFill bool) StatsSnapshot {
		stats := &Stats{}
		rb, err := NewReadBuffer(path, Options{Cache: cache, SkipCacheFill: skipFill, FileSize: fileSize(t, path), Stats: stats})
		require.NoError(t, err)
		defer rb.Close()
		require.NoError(t, rb.Seek(pos[0].offset, pos[0].intra))
		data, err := io.ReadAll(rb)
		require.NoError(t, err)
		require.Len(t, data, 16000)
		return stats.Snapshot()
	}

	first := readAll(true)
	assert.Equal(t, int64(16), first.Decompressions)
	assert.Equal(t, 0, cache.Stats().Entries, "skip fill must not populate the cache")

	second := readAll(false)
	assert.Equal(t, int64(16), second.Decompressions)
	assert.Equal(t, 16, cache.Stats().Entries)

	third := readAll(false)
	assert.Equal(t, int64(0), third.Decompressions)
	assert.Equal(t, int64(16), third.CacheHits)
	assert.Equal(t, int64(0), third.BytesRead, "file must not even be opened")
}

func TestReadBuffer_SeekOutOfBlock(t *testing.T) {
	path, pos := writeFile(t, core.CompressionSnappy, 100, 40)
	rb, err := NewReadBuffer(path, Options{})
	require.NoError(t, err)
	defer rb.Close()

	err = rb.Seek(pos[0].offset, 41)
	assert.True(t, errors.Is(err, core.ErrArgumentOutOfBound))

	require.NoError(t, rb.Seek(uint64(fileSize(t, path)), 0), "a mark may point at the end of the file")
	_, err = rb.ReadByte()
	assert.Equal(t, io.EOF, err)

	err = rb.Seek(uint64(fileSize(t, path)), 1)
	assert.True(t, errors.Is(err, core.ErrArgumentOutOfBound))

	err = rb.Seek(uint64(fileSize(t, path))+10, 0)
	assert.True(t, errors.Is(err, core.ErrArgumentOutOfBound))
}

func TestReadBuffer_Corruption(t *testing.T) {
	path, _ := writeFile(t, core.CompressionLZ4, 100, 400)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[HeaderSize+3] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	rb, err := NewReadBuffer(path, Options{})
	require.NoError(t, err)
	defer rb.Close()
	_, err = rb.ReadByte()
	assert.True(t, errors.Is(err, core.ErrCorrupted))

	require.NoError(t, os.WriteFile(path, data[:HeaderSize-1], 0644))
	rb2, err := NewReadBuffer(path, Options{})
	require.NoError(t, err)
	defer rb2.Close()
	_, err = rb2.ReadByte()
	assert.True(t, errors.Is(err, core.ErrCorrupted))
}

func TestReadBuffer_MissingFile(t *testing.T) {
	_, err := NewReadBuffer(filepath.Join(t.TempDir(), "nope.bin"), Options{})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadBuffer_Sequential(t *testing.T) {
	path, _ := writeFile(t, core.CompressionLZ4, 1000, 512)
	rb, err := NewReadBuffer(path, Options{Sequential: true, BufferSize: 1 << 20})
	require.NoError(t, err)
	defer rb.Close()
	br := bufio.NewReader(rb)
	assert.Equal(t, uint32(0), readUint32(t, br))
}

func TestReadBuffer_Tracing(t *testing.T) {
	path, _ := writeFile(t, core.CompressionNone, 100, 100)
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	rb, err := NewReadBuffer(path, Options{Tracer: tp.Tracer("test")})
	require.NoError(t, err)
	defer rb.Close()
	_, err = io.ReadAll(rb)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	assert.Equal(t, "ReadBuffer.loadBlock", spans[0].Name())
}

func TestWriter_Offsets(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, compressors.NewLz4Compressor(), 8)
	_, err := w.Write([]byte("abcde"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), w.Offset())
	assert.Equal(t, uint64(5), w.OffsetInBlock())

	_, err = w.Write([]byte("fghij"))
	require.NoError(t, err)
	assert.Equal(t, uint64(buf.Len()), w.Offset())
	assert.Equal(t, uint64(2), w.OffsetInBlock())
	require.NoError(t, w.Flush())
	require.NoError(t, w.Flush())
}
