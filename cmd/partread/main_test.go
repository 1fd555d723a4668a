package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INLOpen/mergetree/config"
	"github.com/INLOpen/mergetree/core"
	"github.com/INLOpen/mergetree/internal/parttest"
	"github.com/INLOpen/mergetree/marks"
)

func TestParseRange(t *testing.T) {
	rg, err := parseRange("3:7")
	require.NoError(t, err)
	assert.Equal(t, marks.Range{Begin: 3, End: 7}, rg)

	for _, bad := range []string{"3", "a:7", "3:b", ""} {
		_, err := parseRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, `"a\tb"`, formatValue("a\tb"))
	assert.Equal(t, `[1,NULL,["x"]]`, formatValue([]any{uint8(1), nil, []any{"x"}}))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	_, err := parttest.WritePart(dir, parttest.Block(
		parttest.Column("x", "UInt64", 10, 20, 30),
		parttest.Column("tags", "Array(String)", []any{"a"}, []any{}, []any{"b", "c"}),
	), parttest.Options{IndexGranularity: 1})
	require.NoError(t, err)

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("missing column filled and ordered", func(t *testing.T) {
		var out bytes.Buffer
		err := run(cfg, readRequest{
			partDir: dir,
			columns: []string{"x", "y:Nullable(String)"},
			ranges:  []string{"0:1", "2:3"},
			order:   []string{"y", "x"},
		}, nil, &out, logger)
		require.NoError(t, err)
		assert.Equal(t, "y\tx\nNULL\t10\nNULL\t30\n", out.String())
	})

	t.Run("metrics", func(t *testing.T) {
		var out bytes.Buffer
		err := run(cfg, readRequest{partDir: dir, metrics: true}, nil, &out, logger)
		require.NoError(t, err)
		lines := strings.Split(out.String(), "\n")
		assert.Equal(t, "x\ttags", lines[0])
		assert.Equal(t, `20	[]`, lines[2])
		assert.Contains(t, out.String(), `mergetree_cache_misses_total{cache="mark"}`)
		assert.Contains(t, out.String(), `mergetree_cache_entries{cache="uncompressed"}`)
		assert.Contains(t, out.String(), "mergetree_read_decompressions_total")
		assert.NotNil(t, cacheVars.Get("mark_misses"))
	})

	t.Run("unknown column", func(t *testing.T) {
		err := run(cfg, readRequest{partDir: dir, columns: []string{"nope"}}, nil, io.Discard, logger)
		assert.ErrorContains(t, err, "has no column nope")
	})

	t.Run("missing part", func(t *testing.T) {
		err := run(cfg, readRequest{partDir: t.TempDir()}, nil, io.Discard, logger)
		assert.ErrorIs(t, err, core.ErrMissingData)
	})
}

func TestCreateLogger(t *testing.T) {
	_, _, err := createLogger(config.LoggingConfig{Level: "loud", Output: "stderr"})
	assert.Error(t, err)
	_, _, err = createLogger(config.LoggingConfig{Level: "info", Output: "file"})
	assert.Error(t, err)
	logger, closer, err := createLogger(config.LoggingConfig{Level: "debug", Output: "none"})
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.NotNil(t, logger)
}
