package compressed

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/INLOpen/mergetree/core"
)

// ReadBuffer reads the decompressed bytes of a compressed file as one
// continuous stream, crossing block boundaries transparently.
type ReadBuffer interface {
	io.Reader
	io.ByteReader
	// Seek positions the buffer at a mark: the block starting at
	// offsetInCompressedFile and the byte offsetInDecompressedBlock inside it.
	Seek(offsetInCompressedFile, offsetInDecompressedBlock uint64) error
	Close() error
}

// Options configure a ReadBuffer.
type Options struct {
	// BufferSize is the size of the file transport buffer.
	BufferSize int
	// Sequential selects the high-throughput transport: the OS is told to
	// read ahead the whole file.
	Sequential bool
	// ScanForwardThreshold is the largest forward gap read and discarded
	// instead of seeking. Zero means BufferSize.
	ScanForwardThreshold int64
	// FileSize of the compressed file. Required with Cache.
	FileSize int64
	// Cache, if set, serves and stores decompressed blocks.
	Cache *UncompressedCache
	// SkipCacheFill reads through the cache without inserting misses.
	SkipCacheFill bool

	Stats  *Stats
	Logger *slog.Logger
	Tracer trace.Tracer
}

// blockLoader fetches the decompressed block at a compressed offset.
type blockLoader interface {
	load(offset uint64) (data []byte, compressedSize uint64, err error)
	close() error
}

// NewReadBuffer opens path for reading. Without a cache the file is opened
// immediately; with a cache it is opened on the first miss.
func NewReadBuffer(path string, opts Options) (ReadBuffer, error) {
	if opts.Stats == nil {
		opts.Stats = &Stats{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = core.DefaultBlockBufferSize
	}
	if opts.ScanForwardThreshold == 0 {
		opts.ScanForwardThreshold = int64(opts.BufferSize)
	}
	logger := opts.Logger.With("component", "ReadBuffer", "path", path)

	var loader blockLoader
	if opts.Cache != nil {
		loader = &cachedLoader{path: path, opts: opts, logger: logger}
	} else {
		fr, err := openFileReader(path, opts.BufferSize, opts.ScanForwardThreshold, opts.Sequential, opts.Stats)
		if err != nil {
			return nil, err
		}
		loader = &fileLoader{r: fr}
	}
	return &readBuffer{path: path, loader: loader, tracer: opts.Tracer}, nil
}

type readBuffer struct {
	path   string
	loader blockLoader
	tracer trace.Tracer

	data        []byte
	pos         int
	blockOffset uint64
	blockSize   uint64
	loaded      bool
}

func (b *readBuffer) loadBlock(offset uint64) error {
	var span trace.Span
	if b.tracer != nil {
		_, span = b.tracer.Start(context.Background(), "ReadBuffer.loadBlock")
		span.SetAttributes(attribute.String("compressed.path", b.path), attribute.Int64("compressed.block_offset", int64(offset)))
		defer span.End()
	}

	data, size, err := b.loader.load(offset)
	if err != nil {
		if span != nil && err != io.EOF {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load_block_failed")
		}
		return err
	}
	if span != nil {
		span.SetAttributes(attribute.Int("compressed.raw_size", len(data)))
	}
	b.data, b.pos = data, 0
	b.blockOffset, b.blockSize = offset, size
	b.loaded = true
	return nil
}

func (b *readBuffer) Seek(offsetInCompressedFile, offsetInDecompressedBlock uint64) error {
	if !b.loaded || b.blockOffset != offsetInCompressedFile {
		if err := b.loadBlock(offsetInCompressedFile); err != nil {
			if err != io.EOF {
				return err
			}
			// A mark may point at the end of the file when nothing follows it.
			b.data, b.pos = nil, 0
			b.blockOffset, b.blockSize = offsetInCompressedFile, 0
			b.loaded = true
		}
	}
	if offsetInDecompressedBlock > uint64(len(b.data)) {
		return fmt.Errorf("%w: seek point %d is beyond the decompressed block of %d bytes at %d in %s",
			core.ErrArgumentOutOfBound, offsetInDecompressedBlock, len(b.data), offsetInCompressedFile, b.path)
	}
	b.pos = int(offsetInDecompressedBlock)
	return nil
}

// next loads the block following the current one.
func (b *readBuffer) next() error {
	var offset uint64
	if b.loaded {
		offset = b.blockOffset + b.blockSize
	}
	return b.loadBlock(offset)
}

func (b *readBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for b.pos == len(b.data) {
		if err := b.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (b *readBuffer) ReadByte() (byte, error) {
	for b.pos == len(b.data) {
		if err := b.next(); err != nil {
			return 0, err
		}
	}
	c := b.data[b.pos]
	b.pos++
	return c, nil
}

func (b *readBuffer) Close() error {
	return b.loader.close()
}

type fileLoader struct {
	r *fileReader
}

func (l *fileLoader) load(offset uint64) ([]byte, uint64, error) {
	if err := l.r.seek(int64(offset)); err != nil {
		return nil, 0, err
	}
	return l.r.readBlock()
}

func (l *fileLoader) close() error {
	return l.r.close()
}

type cachedLoader struct {
	path   string
	opts   Options
	logger *slog.Logger
	r      *fileReader
}

func (l *cachedLoader) load(offset uint64) ([]byte, uint64, error) {
	if int64(offset) >= l.opts.FileSize {
		return nil, 0, io.EOF
	}
	key := CacheKey{Path: l.path, Offset: offset}
	if blk, ok := l.opts.Cache.Get(key); ok {
		l.opts.Stats.CacheHits.Add(1)
		return blk.Data, blk.CompressedSize, nil
	}
	l.opts.Stats.CacheMisses.Add(1)

	if l.r == nil {
		r, err := openFileReader(l.path, l.opts.BufferSize, l.opts.ScanForwardThreshold, l.opts.Sequential, l.opts.Stats)
		if err != nil {
			return nil, 0, err
		}
		l.r = r
	}
	if err := l.r.seek(int64(offset)); err != nil {
		return nil, 0, err
	}
	data, size, err := l.r.readBlock()
	if err != nil {
		return nil, 0, err
	}
	if !l.opts.SkipCacheFill {
		l.opts.Cache.Put(key, &UncompressedBlock{Data: data, CompressedSize: size})
	}
	return data, size, nil
}

func (l *cachedLoader) close() error {
	if l.r == nil {
		return nil
	}
	return l.r.close()
}
