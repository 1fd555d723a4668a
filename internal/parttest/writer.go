// Package parttest writes data parts to disk in the layout the reader
// expects, so tests can read real files.
package parttest

import (
	"bufio"
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/INLOpen/mergetree/block"
	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/compressed"
	"github.com/INLOpen/mergetree/compressors"
	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/datatype"
	"github.com/INLOpen/mergetree/marks"
	"github.com/INLOpen/mergetree/part"
	"github.com/INLOpen/mergetree/sys"
)

// Options control the physical layout of a written part.
type Options struct {
	IndexGranularity int
	Compression      core.CompressionType
	// BlockSize is the raw size at which compressed blocks are cut.
	BlockSize int
	// MinBlockSize, if > 0, closes the current block before a mark once
	// that many raw bytes are buffered, so marks tend to start blocks.
	MinBlockSize int
}

func (o Options) withDefaults() Options {
	if o.IndexGranularity <= 0 {
		o.IndexGranularity = 8192
	}
	if o.BlockSize <= 0 {
		o.BlockSize = compressed.DefaultBlockSize
	}
	return o
}

type streamWriter struct {
	file  sys.FileHandle
	buf   *bufio.Writer
	cw    *compressed.Writer
	marks marks.Marks
	// granule is the last granule a mark was written for.
	granule int
}

type partWriter struct {
	dir     string
	opts    Options
	codec   core.Compressor
	streams map[string]*streamWriter
	order   []string
}

// WritePart writes every column of b as a part in dir, which must exist.
func WritePart(dir string, b *block.Block, opts Options) (p *part.Part, err error) {
	opts = opts.withDefaults()
	if err := b.CheckNumberOfRows(); err != nil {
		return nil, err
	}
	codec, err := compressors.Get(opts.Compression)
	if err != nil {
		return nil, err
	}
	w := &partWriter{dir: dir, opts: opts, codec: codec, streams: make(map[string]*streamWriter)}
	defer func() {
		for _, name := range w.order {
			err = multierr.Append(err, w.streams[name].file.Close())
		}
	}()

	rows := b.Rows()
	desc := part.Descriptor{Rows: rows, IndexGranularity: opts.IndexGranularity}
	for i := 0; i < b.Columns(); i++ {
		c := b.At(i)
		desc.Columns = append(desc.Columns, part.ColumnDescriptor{Name: c.Name, Type: c.Type.Name()})
	}

	for g, from := 0, 0; from < rows; g, from = g+1, from+opts.IndexGranularity {
		limit := min(opts.IndexGranularity, rows-from)
		written := make(map[string]bool)
		for i := 0; i < b.Columns(); i++ {
			c := b.At(i)
			if err := w.writeData(c.Name, c.Type, c.Column, from, limit, 0, g, written); err != nil {
				return nil, fmt.Errorf("failed to write column %s: %w", c.Name, err)
			}
		}
	}

	for _, name := range w.order {
		if err := w.finish(name); err != nil {
			return nil, err
		}
	}
	if err := part.WriteDescriptor(dir, desc); err != nil {
		return nil, err
	}
	return part.New(dir, desc)
}

func (w *partWriter) stream(name string) (*streamWriter, error) {
	if s, ok := w.streams[name]; ok {
		return s, nil
	}
	f, err := sys.Create(filepath.Join(w.dir, part.EscapeForFileName(name)+part.DataExtension))
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	s := &streamWriter{
		file:    f,
		buf:     buf,
		cw:      compressed.NewWriter(buf, w.codec, w.opts.BlockSize),
		granule: -1,
	}
	w.streams[name] = s
	w.order = append(w.order, name)
	return s, nil
}

// mark records the position of granule g in the stream, once per granule.
func (w *partWriter) mark(name string, g int) (*streamWriter, error) {
	s, err := w.stream(name)
	if err != nil {
		return nil, err
	}
	if s.granule == g {
		return s, nil
	}
	if w.opts.MinBlockSize > 0 && s.cw.OffsetInBlock() >= uint64(w.opts.MinBlockSize) {
		if err := s.cw.Flush(); err != nil {
			return nil, err
		}
	}
	s.marks = append(s.marks, marks.Mark{
		OffsetInCompressedFile:    s.cw.Offset(),
		OffsetInDecompressedBlock: s.cw.OffsetInBlock(),
	})
	s.granule = g
	return s, nil
}

func (w *partWriter) writeData(name string, t datatype.DataType, col column.Column, from, limit, level, g int, written map[string]bool) error {
	switch tt := t.(type) {
	case datatype.Nullable:
		n := col.(*column.Nullable)
		stream := part.NullMapStream(name, level)
		s, err := w.mark(stream, g)
		if err != nil {
			return err
		}
		if err := datatype.SerializeNullMap(n, s.cw, from, limit); err != nil {
			return err
		}
		return w.writeData(name, tt.Nested, n.Nested, from, limit, level, g, written)

	case datatype.Array:
		a := col.(*column.Array)
		stream := part.ArraySizesStream(name, level)
		if !written[stream] {
			written[stream] = true
			s, err := w.mark(stream, g)
			if err != nil {
				return err
			}
			if err := datatype.SerializeArraySizes(a.Offsets, s.cw, from, limit); err != nil {
				return err
			}
		}
		start, end := a.Offsets.At(from-1), a.Offsets.At(from+limit-1)
		return w.writeData(name, tt.Elem, a.Data, int(start), int(end-start), level+1, g, written)

	case datatype.Tuple:
		tc := col.(*column.Tuple)
		for i, e := range tt.Elems {
			if err := w.writeData(part.TupleElement(name, i), e, tc.Columns[i], from, limit, level, g, written); err != nil {
				return err
			}
		}
		return nil

	case datatype.Flat:
		s, err := w.mark(name, g)
		if err != nil {
			return err
		}
		return tt.SerializeBinaryBulk(col, s.cw, from, limit)
	}
	return fmt.Errorf("cannot write type %s", t.Name())
}

func (w *partWriter) finish(name string) error {
	s := w.streams[name]
	if err := s.cw.Flush(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	if err := s.file.Sync(); err != nil {
		return err
	}

	f, err := sys.Create(filepath.Join(w.dir, part.EscapeForFileName(name)+part.MarksExtension))
	if err != nil {
		return err
	}
	if err := marks.Write(f, s.marks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
