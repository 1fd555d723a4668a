// Package mergetree reads column data of a data part between marks,
// decoding nested types across their sub-streams and backfilling columns
// the part does not store.
package mergetree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/INLOpen/skiplist"
	"github.com/RoaringBitmap/roaring"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/INLOpen/mergetree/block"
	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/compressed"
	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/datatype"
	"github.com/INLOpen/mergetree/internal/limits"
	"github.com/INLOpen/mergetree/marks"
	"github.com/INLOpen/mergetree/part"
)

// Reader reads the requested columns of one part over a declared set of
// mark ranges. Successive ReadRange calls over nearly sequential ranges
// reuse buffered data instead of seeking. A Reader is not safe for
// concurrent use.
type Reader struct {
	part     *part.Part
	columns  []part.NameAndType
	ranges   marks.Ranges
	coverage *roaring.Bitmap
	opts     Options

	// streams maps sub-stream names to open streams, created on first use.
	streams *skiplist.SkipList[string, *stream]
	// added records columns whose streams have been created.
	added map[string]bool
	hints map[string]float64

	logger *slog.Logger
	tracer trace.Tracer
	closed bool
}

// NewReader creates a reader of columns from p. ranges are the mark ranges
// the caller intends to read; they size the stream buffers.
func NewReader(p *part.Part, columns []part.NameAndType, ranges marks.Ranges, opts Options) (*Reader, error) {
	if _, err := os.Stat(p.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: part directory %s", core.ErrMissingData, p.Path)
		}
		return nil, fmt.Errorf("failed to stat part %s: %w", p.Path, err)
	}
	if err := ranges.Validate(p.MarkCount()); err != nil {
		return nil, fmt.Errorf("part %s: %w", p.Name, err)
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxReadBufferSize <= 0 {
		opts.MaxReadBufferSize = DefaultMaxReadBufferSize
	}
	if opts.Stats == nil {
		opts.Stats = &compressed.Stats{}
	}
	hints := make(map[string]float64, len(opts.AvgValueSizeHints))
	maps.Copy(hints, opts.AvgValueSizeHints)

	r := &Reader{
		part:     p,
		columns:  columns,
		ranges:   ranges,
		coverage: ranges.Bitmap(),
		opts:     opts,
		streams:  skiplist.NewWithComparator[string, *stream](strings.Compare),
		added:    make(map[string]bool),
		hints:    hints,
		logger:   opts.Logger.With("component", "MergeTreeReader", "part", p.Name),
		tracer:   opts.Tracer,
	}
	return r, nil
}

// AvgValueSizeHints returns a copy of the current per-stream size hints,
// suitable for seeding a later Reader.
func (r *Reader) AvgValueSizeHints() map[string]float64 {
	out := make(map[string]float64, len(r.hints))
	maps.Copy(out, r.hints)
	return out
}

// Stats returns the read counters of this reader.
func (r *Reader) Stats() *compressed.Stats {
	return r.opts.Stats
}

func (r *Reader) getStream(name string) (*stream, bool) {
	node, ok := r.streams.Seek(name)
	if !ok || node.Key() != name {
		return nil, false
	}
	return node.Value(), true
}

// addStream creates the streams of every sub-stream of a column type,
// mirroring the recursion of readData.
func (r *Reader) addStream(name string, t datatype.DataType, level int) error {
	switch tt := t.(type) {
	case datatype.Nullable:
		if err := r.addSubstream(part.NullMapStream(name, level)); err != nil {
			return err
		}
		return r.addStream(name, tt.Nested, level)
	case datatype.Array:
		if err := r.addSubstream(part.ArraySizesStream(name, level)); err != nil {
			return err
		}
		return r.addStream(name, tt.Elem, level+1)
	case datatype.Tuple:
		for i, e := range tt.Elems {
			if err := r.addStream(part.TupleElement(name, i), e, level); err != nil {
				return err
			}
		}
		return nil
	default:
		return r.addSubstream(name)
	}
}

func (r *Reader) addSubstream(name string) error {
	if _, ok := r.getStream(name); ok {
		return nil
	}
	size, exists, err := r.part.DataFileSize(name)
	if err != nil {
		return fmt.Errorf("failed to stat stream %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("%w: no data file for stream %s (%s)", core.ErrMissingData, name, r.part.DataPath(name))
	}
	s, err := r.newStream(name, size)
	if err != nil {
		return err
	}
	r.streams.Insert(name, s)
	return nil
}

// ensureStreams creates the streams of a declared column once.
func (r *Reader) ensureStreams(c part.NameAndType) error {
	if r.added[c.Name] {
		return nil
	}
	if err := r.addStream(c.Name, c.Type, 0); err != nil {
		return err
	}
	r.added[c.Name] = true
	return nil
}

// memoryCharge tracks what one ReadRange call reserved from the quota.
type memoryCharge struct {
	quota   *limits.Quota
	charged int64
}

func (m *memoryCharge) Reserve(n int64) error {
	if err := m.quota.Reserve(n); err != nil {
		return err
	}
	m.charged += n
	return nil
}

func (m *memoryCharge) release() {
	m.quota.Release(m.charged)
	m.charged = 0
}

// ReadRange reads the marks [from, to) of every requested column the part
// stores. Columns absent from res are created; columns present are appended
// to. res must hold either none or all of the stored requested columns.
// Columns the part does not store are left untouched; see FillMissingColumns.
func (r *Reader) ReadRange(from, to int, res *block.Block) (err error) {
	if r.closed {
		return core.ErrClosed
	}
	if from >= to {
		return nil
	}
	if from < 0 || to > r.part.MarkCount() {
		return fmt.Errorf("%w: mark range [%d, %d) of part %s with %d marks",
			core.ErrArgumentOutOfBound, from, to, r.part.Name, r.part.MarkCount())
	}

	var span trace.Span
	if r.tracer != nil {
		_, span = r.tracer.Start(context.Background(), "Reader.ReadRange")
		span.SetAttributes(
			attribute.String("part.name", r.part.Name),
			attribute.Int("marks.from", from),
			attribute.Int("marks.to", to),
		)
		defer span.End()
	}

	var memory datatype.MemoryTracker
	if r.opts.Quota != nil {
		charge := &memoryCharge{quota: r.opts.Quota}
		defer charge.release()
		memory = charge
	}

	defer func() {
		if err == nil {
			return
		}
		if !core.IsMemoryLimitExceeded(err) && r.opts.ReportBrokenPart != nil {
			r.opts.ReportBrokenPart(r.part.Name, err)
		}
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "read_range_failed")
		}
		err = fmt.Errorf("while reading from part %s from mark %d to %d: %w", r.part.Path, from, to, err)
	}()

	r.checkCoverage(from, to)

	granularity := r.part.IndexGranularity
	maxRowsToRead := min((to-from)*granularity, r.part.Rows-from*granularity)

	// Array columns of one Nested table share their offsets. When appending,
	// the entry is nil and only marks the offsets as already read.
	offsetColumns := make(map[string]*column.Offsets)

	for _, c := range r.columns {
		if _, declared := r.part.Column(c.Name); !declared {
			continue
		}
		if err := r.ensureStreams(c); err != nil {
			return fmt.Errorf("while reading column %s: %w", c.Name, err)
		}

		existing, appending := res.ByName(c.Name)
		col := existing.Column
		readOffsets := true

		if arr, ok := c.Type.(datatype.Array); ok {
			table := part.NestedTableName(c.Name)
			if _, seen := offsetColumns[table]; !seen {
				if appending {
					offsetColumns[table] = nil
				} else {
					offsetColumns[table] = column.NewOffsets()
				}
			} else {
				readOffsets = false
			}
			if !appending {
				offsets := offsetColumns[table]
				if offsets == nil {
					offsets = column.NewOffsets()
				}
				col = column.NewArrayWithOffsets(offsets, arr.Elem.CreateColumn())
			}
		} else if !appending {
			col = c.Type.CreateColumn()
		}

		if err := r.readData(c.Name, c.Type, col, from, maxRowsToRead, 0, readOffsets, memory); err != nil {
			return fmt.Errorf("while reading column %s: %w", c.Name, err)
		}

		if !appending && col.Len() > 0 {
			res.Insert(block.ColumnWithTypeAndName{Column: col, Type: c.Type, Name: c.Name})
		}
	}

	if span != nil {
		span.SetAttributes(attribute.Int("block.rows", res.Rows()))
	}
	return nil
}

// checkCoverage logs reads outside the declared ranges. They are served,
// but the stream buffers were not sized for them.
func (r *Reader) checkCoverage(from, to int) {
	requested := roaring.New()
	requested.AddRange(uint64(from), uint64(to))
	if covered := requested.AndCardinality(r.coverage); covered != uint64(to-from) {
		r.logger.Debug("Reading marks outside the declared ranges",
			"from", from, "to", to, "declared", r.ranges.String(), "uncovered", uint64(to-from)-covered)
	}
}

// Close closes every open stream. The reader cannot be used afterwards.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	r.streams.Range(func(name string, s *stream) bool {
		err = multierr.Append(err, s.close())
		return true
	})
	return err
}
