package compressors

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/INLOpen/mergetree/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressors_RoundTrip(t *testing.T) {
	random := make([]byte, 4096)
	rand.New(rand.NewSource(7)).Read(random)

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "simple string", data: []byte("hello world, this is a test of the block compressor")},
		{name: "repetitive data", data: bytes.Repeat([]byte("a"), 1024)},
		{name: "empty data", data: []byte{}},
		{name: "random data (incompressible)", data: random},
		{name: "short random", data: random[:9]},
	}

	for _, ct := range []core.CompressionType{core.CompressionNone, core.CompressionSnappy, core.CompressionLZ4, core.CompressionZSTD} {
		compressor, err := Get(ct)
		require.NoError(t, err)
		assert.Equal(t, ct, compressor.Type())

		for _, tc := range testCases {
			t.Run(ct.String()+"/"+tc.name, func(t *testing.T) {
				var compressed bytes.Buffer
				require.NoError(t, compressor.CompressTo(&compressed, tc.data))

				out := make([]byte, len(tc.data))
				require.NoError(t, compressor.Decompress(out, compressed.Bytes()))
				assert.True(t, bytes.Equal(tc.data, out), "decompressed data does not match original")
			})
		}
	}
}

func TestCompressors_WrongRawSize(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 100)
	for _, ct := range []core.CompressionType{core.CompressionNone, core.CompressionSnappy, core.CompressionLZ4, core.CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			compressor, err := Get(ct)
			require.NoError(t, err)
			var compressed bytes.Buffer
			require.NoError(t, compressor.CompressTo(&compressed, data))

			out := make([]byte, len(data)-1)
			assert.Error(t, compressor.Decompress(out, compressed.Bytes()))
		})
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get(core.CompressionType(99))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCorrupted)
}

func BenchmarkLZ4Decompress(b *testing.B) {
	compressor := NewLz4Compressor()
	data := bytes.Repeat([]byte(`{"metric":"cpu.usage","tags":{"host":"server-a"},"value":99.8}`), 50)
	var compressed bytes.Buffer
	if err := compressor.CompressTo(&compressed, data); err != nil {
		b.Fatalf("Setup: CompressTo() error: %v", err)
	}
	out := make([]byte, len(data))

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := compressor.Decompress(out, compressed.Bytes()); err != nil {
			b.Fatalf("Decompress() error: %v", err)
		}
	}
}

func BenchmarkZstdCompressTo(b *testing.B) {
	compressor := NewZstdCompressor()
	data := bytes.Repeat([]byte(`{"metric":"cpu.usage","tags":{"host":"server-a"},"value":99.8}`), 50)
	var buf bytes.Buffer

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := compressor.CompressTo(&buf, data); err != nil {
			b.Fatalf("CompressTo() error: %v", err)
		}
	}
}
