package compressed

import (
	"errors"
	"fmt"
	"io"

	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/sys"
)

// fileReader is a buffered positional reader over a compressed file. Seeks
// that land inside the buffered window only move the cursor, short forward
// seeks read and discard, and anything else seeks the file.
type fileReader struct {
	f    sys.FileHandle
	path string
	size int64

	buf      []byte // valid buffered bytes; cap is the buffer size
	bufStart int64  // file offset of buf[0]
	pos      int    // cursor in buf
	filePos  int64  // OS file offset, always bufStart+len(buf)

	scanForward int64
	stats       *Stats
}

func openFileReader(path string, bufferSize int, scanForward int64, sequential bool, stats *Stats) (*fileReader, error) {
	f, err := sys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if sequential {
		if err := sys.AdviseSequential(f, 0, 0); err != nil && !errors.Is(err, sys.ErrAdviseNotSupported) {
			f.Close()
			return nil, fmt.Errorf("failed to advise sequential read on %s: %w", path, err)
		}
	}
	if bufferSize <= 0 {
		bufferSize = core.DefaultBlockBufferSize
	}
	if scanForward < 0 {
		scanForward = 0
	}
	return &fileReader{
		f:           f,
		path:        path,
		size:        st.Size(),
		buf:         make([]byte, 0, bufferSize),
		scanForward: scanForward,
		stats:       stats,
	}, nil
}

// offset is the logical read position in the file.
func (r *fileReader) offset() int64 {
	return r.bufStart + int64(r.pos)
}

func (r *fileReader) seek(off int64) error {
	if off < 0 || off > r.size {
		return fmt.Errorf("%w: seek to %d in %s of size %d", core.ErrArgumentOutOfBound, off, r.path, r.size)
	}
	if off >= r.bufStart && off <= r.filePos {
		r.pos = int(off - r.bufStart)
		return nil
	}

	if off > r.filePos && off-r.filePos <= r.scanForward {
		skip := off - r.filePos
		n, err := io.CopyN(io.Discard, r.f, skip)
		r.stats.ScannedBytes.Add(n)
		r.stats.BytesRead.Add(n)
		if err != nil {
			return fmt.Errorf("failed to skip %d bytes in %s: %w", skip, r.path, err)
		}
	} else {
		if _, err := r.f.Seek(off, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to %d in %s: %w", off, r.path, err)
		}
		r.stats.Seeks.Add(1)
	}
	r.bufStart, r.filePos = off, off
	r.buf = r.buf[:0]
	r.pos = 0
	return nil
}

func (r *fileReader) fill() error {
	r.bufStart = r.filePos
	r.pos = 0
	n, err := r.f.Read(r.buf[:cap(r.buf)])
	r.buf = r.buf[:n]
	r.filePos += int64(n)
	r.stats.BytesRead.Add(int64(n))
	if n > 0 {
		return nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	return err
}

// readFull fills p or fails. It returns io.EOF only if nothing was read.
func (r *fileReader) readFull(p []byte) error {
	done := 0
	for done < len(p) {
		if r.pos == len(r.buf) {
			if remaining := len(p) - done; remaining >= cap(r.buf) {
				// Large reads bypass the buffer.
				n, err := io.ReadFull(r.f, p[done:])
				r.filePos += int64(n)
				r.bufStart, r.buf, r.pos = r.filePos, r.buf[:0], 0
				r.stats.BytesRead.Add(int64(n))
				done += n
				if err != nil {
					return eofError(err, done)
				}
				continue
			}
			if err := r.fill(); err != nil {
				return eofError(err, done)
			}
		}
		n := copy(p[done:], r.buf[r.pos:])
		r.pos += n
		done += n
	}
	return nil
}

func eofError(err error, done int) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if done == 0 {
			return io.EOF
		}
		return io.ErrUnexpectedEOF
	}
	return err
}

// readBlock reads and decodes the block at the current position.
// It returns io.EOF at the end of the file.
func (r *fileReader) readBlock() ([]byte, uint64, error) {
	start := r.offset()
	var hdr [HeaderSize]byte
	if err := r.readFull(hdr[:]); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, fmt.Errorf("%w: truncated block header at %d in %s: %v", core.ErrCorrupted, start, r.path, err)
	}
	h, err := parseHeader(hdr[:])
	if err != nil {
		return nil, 0, fmt.Errorf("block at %d in %s: %w", start, r.path, err)
	}
	frame := make([]byte, h.compressedSize)
	copy(frame, hdr[:])
	if err := r.readFull(frame[HeaderSize:]); err != nil {
		return nil, 0, fmt.Errorf("%w: truncated block at %d in %s: %v", core.ErrCorrupted, start, r.path, err)
	}
	raw, err := decodeBlock(h, frame)
	if err != nil {
		return nil, 0, fmt.Errorf("block at %d in %s: %w", start, r.path, err)
	}
	r.stats.Decompressions.Add(1)
	r.stats.DecompressedBytes.Add(int64(len(raw)))
	return raw, uint64(h.compressedSize), nil
}

func (r *fileReader) close() error {
	return r.f.Close()
}
