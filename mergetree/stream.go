package mergetree

import (
	"fmt"

	"github.com/INLOpen/mergetree/compressed"
	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/marks"
)

// stream reads one physical sub-stream of a part: a data file and its marks.
type stream struct {
	name   string
	marks  marks.Marks
	buffer compressed.ReadBuffer

	bufferSize    int
	estimatedSize int64
	sequential    bool
}

func (r *Reader) newStream(name string, fileSize int64) (*stream, error) {
	m, err := r.loadMarks(name)
	if err != nil {
		return nil, err
	}
	if len(m) != r.part.MarkCount() {
		return nil, fmt.Errorf("%w: marks file of %s has %d marks, part %s needs %d",
			core.ErrCorrupted, name, len(m), r.part.Name, r.part.MarkCount())
	}

	maxReadBufferSize := r.opts.MaxReadBufferSize
	bufferSize := min(maxReadBufferSize, maxMarkRange(m, r.ranges, maxReadBufferSize))
	if bufferSize <= 0 {
		bufferSize = maxReadBufferSize
	}
	var estimated int64
	if r.opts.AIOThreshold > 0 {
		estimated = estimatedReadSize(m, r.ranges, fileSize)
	}
	sequential := r.opts.AIOThreshold > 0 && estimated >= r.opts.AIOThreshold
	if sequential {
		bufferSize = maxReadBufferSize
	}

	buf, err := compressed.NewReadBuffer(r.part.DataPath(name), compressed.Options{
		BufferSize:           bufferSize,
		Sequential:           sequential,
		ScanForwardThreshold: r.opts.ScanForwardThreshold,
		FileSize:             fileSize,
		Cache:                r.opts.UncompressedCache,
		SkipCacheFill:        r.opts.SkipUncompressedCacheFill,
		Stats:                r.opts.Stats,
		Logger:               r.logger,
		Tracer:               r.tracer,
	})
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Opened stream", "stream", name, "buffer_size", bufferSize, "estimated_size", estimated, "sequential", sequential)
	return &stream{
		name:          name,
		marks:         m,
		buffer:        buf,
		bufferSize:    bufferSize,
		estimatedSize: estimated,
		sequential:    sequential,
	}, nil
}

func (r *Reader) loadMarks(name string) (marks.Marks, error) {
	path := r.part.MarksPath(name)
	if r.opts.MarkCache == nil {
		return marks.Load(path)
	}
	return r.opts.MarkCache.GetOrLoad(path, r.opts.SaveMarksInCache)
}

// maxMarkRange returns the largest compressed span any range may need,
// extended to the end of the block that holds the range end. A range that
// reaches the last block is bounded only by maxReadBufferSize.
func maxMarkRange(m marks.Marks, ranges marks.Ranges, maxReadBufferSize int) int {
	var result uint64
	for _, rg := range ranges {
		right := rg.End
		if right < len(m) && m[right].OffsetInDecompressedBlock > 0 {
			for right < len(m) && m[right].OffsetInCompressedFile == m[rg.End].OffsetInCompressedFile {
				right++
			}
		}
		if right >= len(m) ||
			(right+1 == len(m) && m[right].OffsetInCompressedFile == m[rg.End].OffsetInCompressedFile) {
			return maxReadBufferSize
		}
		result = max(result, m[right].OffsetInCompressedFile-m[rg.Begin].OffsetInCompressedFile)
	}
	return int(min(result, uint64(maxReadBufferSize)))
}

// estimatedReadSize sums the compressed bytes the ranges cover.
func estimatedReadSize(m marks.Marks, ranges marks.Ranges, fileSize int64) int64 {
	var total int64
	for _, rg := range ranges {
		var begin, end int64
		if rg.Begin > 0 && rg.Begin < len(m) {
			begin = int64(m[rg.Begin].OffsetInCompressedFile)
		}
		if rg.End < len(m) {
			end = int64(m[rg.End].OffsetInCompressedFile)
		} else {
			end = fileSize
		}
		if end > begin {
			total += end - begin
		}
	}
	return total
}

func (s *stream) seekToMark(index int) error {
	if index < 0 || index >= len(s.marks) {
		return fmt.Errorf("%w: mark %d of stream %s with %d marks", core.ErrArgumentOutOfBound, index, s.name, len(s.marks))
	}
	m := s.marks[index]
	if err := s.buffer.Seek(m.OffsetInCompressedFile, m.OffsetInDecompressedBlock); err != nil {
		return fmt.Errorf("while seeking to mark %d %s of stream %s: %w", index, m, s.name, err)
	}
	return nil
}

func (s *stream) close() error {
	return s.buffer.Close()
}
