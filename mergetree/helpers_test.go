package mergetree

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/INLOpen/mergetree/block"
	"github.com/INLOpen/mergetree/column"
	"github.com/INLOpen/mergetree/internal/parttest"
	"github.com/INLOpen/mergetree/marks"
	"github.com/INLOpen/mergetree/part"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// sampleBlock builds n rows covering every supported type shape.
func sampleBlock(n int) *block.Block {
	ids := make([]any, n)
	strs := make([]any, n)
	floats := make([]any, n)
	arrs := make([]any, n)
	nestedA := make([]any, n)
	nestedB := make([]any, n)
	tuples := make([]any, n)
	fixed := make([]any, n)
	dates := make([]any, n)
	deep := make([]any, n)

	for i := 0; i < n; i++ {
		ids[i] = uint64(i * 7)
		strs[i] = strings.Repeat("s", i%17)
		if i%3 == 0 {
			floats[i] = nil
		} else {
			floats[i] = float64(i) / 2
		}

		arr := make([]any, i%4)
		for j := range arr {
			arr[j] = int32(i*10 + j)
		}
		arrs[i] = arr

		k := i % 3
		a := make([]any, k)
		b := make([]any, k)
		for j := 0; j < k; j++ {
			a[j] = fmt.Sprintf("%d-%d", i, j)
			if (i+j)%2 == 0 {
				b[j] = nil
			} else {
				b[j] = uint16(i + j)
			}
		}
		nestedA[i], nestedB[i] = a, b

		tags := make([]any, i%2)
		for j := range tags {
			tags[j] = fmt.Sprintf("tag%d", i)
		}
		tuples[i] = []any{uint8(i % 256), tags}
		fixed[i] = fmt.Sprintf("%04d", i%10000)
		dates[i] = uint16(19000 + i)

		outer := make([]any, i%3)
		for j := range outer {
			inner := make([]any, (i+j)%3)
			for l := range inner {
				if (i+j+l)%2 == 0 {
					inner[l] = nil
				} else {
					inner[l] = fmt.Sprintf("v%d", i+j+l)
				}
			}
			outer[j] = inner
		}
		deep[i] = outer
	}

	return parttest.Block(
		parttest.Column("id", "UInt64", ids...),
		parttest.Column("s", "String", strs...),
		parttest.Column("f", "Nullable(Float64)", floats...),
		parttest.Column("arr", "Array(Int32)", arrs...),
		parttest.Column("n.a", "Array(String)", nestedA...),
		parttest.Column("n.b", "Array(Nullable(UInt16))", nestedB...),
		parttest.Column("t", "Tuple(UInt8, Array(String))", tuples...),
		parttest.Column("fs", "FixedString(4)", fixed...),
		parttest.Column("d", "Date", dates...),
		parttest.Column("aa", "Array(Array(Nullable(String)))", deep...),
	)
}

func writePart(t *testing.T, b *block.Block, opts parttest.Options) *part.Part {
	t.Helper()
	p, err := parttest.WritePart(t.TempDir(), b, opts)
	require.NoError(t, err)
	return p
}

func openReader(t *testing.T, p *part.Part, columns []part.NameAndType, ranges marks.Ranges, opts Options) *Reader {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = discardLogger
	}
	r, err := NewReader(p, columns, ranges, opts)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func allRanges(p *part.Part) marks.Ranges {
	return marks.Ranges{{Begin: 0, End: p.MarkCount()}}
}

// expectedRows returns the source values of the rows covered by marks [from, to).
func expectedRows(src *block.Block, p *part.Part, name string, from, to int) []any {
	c, ok := src.ByName(name)
	if !ok {
		panic("no column " + name)
	}
	begin := from * p.IndexGranularity
	end := min(to*p.IndexGranularity, p.Rows)
	out := make([]any, 0, end-begin)
	for i := begin; i < end; i++ {
		out = append(out, c.Column.Value(i))
	}
	return out
}

func gotRows(t *testing.T, res *block.Block, name string) []any {
	t.Helper()
	c, ok := res.ByName(name)
	require.True(t, ok, "result has no column %s (has %v)", name, res.Names())
	return column.Values(c.Column)
}

func requireRows(t *testing.T, want, got []any, msgAndArgs ...any) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("%v: rows mismatch (-want +got):\n%s", msgAndArgs, diff)
	}
}
