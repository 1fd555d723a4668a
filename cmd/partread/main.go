package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/INLOpen/mergetree/block"
	"github.com/INLOpen/mergetree/cache"
	"github.com/INLOpen/mergetree/compressed"
	"github.com/INLOpen/mergetree/config"
	"github.com/INLOpen/mergetree/marks"
	"github.com/INLOpen/mergetree/mergetree"
	"github.com/INLOpen/mergetree/part"
)

// createLogger creates a slog.Logger based on the provided configuration.
func createLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var output io.Writer
	var closer io.Closer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	case "file":
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("log output is 'file' but no file path is specified")
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		output = file
		closer = file
	case "none":
		output = io.Discard
	default:
		return nil, nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	logger := slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}

// initTracerProvider sets up an OTLP exporter when tracing is enabled. The
// returned tracer is nil when it is not.
func initTracerProvider(cfg config.TracingConfig, logger *slog.Logger) (trace.Tracer, func(), error) {
	if !cfg.Enabled {
		logger.Debug("Distributed tracing is disabled.")
		return nil, func() {}, nil
	}

	logger.Info("Initializing distributed tracing...", "protocol", cfg.Protocol, "endpoint", cfg.Endpoint)

	ctx := context.Background()
	var exporter sdktrace.SpanExporter
	var err error
	switch strings.ToLower(cfg.Protocol) {
	case "http":
		exporter, err = otlptrace.New(ctx, otlptracehttp.NewClient(otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure()))
	case "grpc":
		exporter, err = otlptrace.New(ctx, otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure()))
	default:
		return nil, nil, fmt.Errorf("unsupported tracing protocol: %q", cfg.Protocol)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String("partread")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down tracer provider", "error", err)
		}
	}
	return tp.Tracer("github.com/INLOpen/mergetree"), cleanup, nil
}

// cacheVars mirrors cache hit and miss counts for expvar consumers.
var cacheVars = expvar.NewMap("mergetree_caches")

// publishCacheVars registers hit and miss counters for a cache under name.
func publishCacheVars(name string, c interface{ SetMetrics(hits, misses *expvar.Int) }) {
	hits, misses := new(expvar.Int), new(expvar.Int)
	cacheVars.Set(name+"_hits", hits)
	cacheVars.Set(name+"_misses", misses)
	c.SetMetrics(hits, misses)
}

type readRequest struct {
	partDir string
	columns []string
	ranges  []string
	order   []string
	metrics bool
}

// parseRange parses "begin:end".
func parseRange(s string) (marks.Range, error) {
	begin, end, ok := strings.Cut(s, ":")
	if !ok {
		return marks.Range{}, fmt.Errorf("invalid mark range %q, want begin:end", s)
	}
	b, err := strconv.Atoi(strings.TrimSpace(begin))
	if err != nil {
		return marks.Range{}, fmt.Errorf("invalid mark range %q: %w", s, err)
	}
	e, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return marks.Range{}, fmt.Errorf("invalid mark range %q: %w", s, err)
	}
	return marks.Range{Begin: b, End: e}, nil
}

// resolveColumns turns "name" or "name:Type" arguments into columns. A bare name
// must be stored by the part.
func resolveColumns(p *part.Part, args []string) ([]part.NameAndType, error) {
	if len(args) == 0 {
		return p.Columns, nil
	}
	out := make([]part.NameAndType, 0, len(args))
	for _, arg := range args {
		name, typeName, typed := strings.Cut(arg, ":")
		if typed {
			c, err := part.ParseNameAndType(name, typeName)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
			continue
		}
		t, ok := p.Column(name)
		if !ok {
			return nil, fmt.Errorf("part %s has no column %s; give its type as %s:Type", p.Name, name, name)
		}
		out = append(out, part.NameAndType{Name: name, Type: t})
	}
	return out, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return strconv.Quote(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprint(x)
	}
}

func writeBlock(w io.Writer, b *block.Block) error {
	for i := 0; i < b.Rows(); i++ {
		row := b.Row(i)
		fields := make([]string, len(row))
		for j, v := range row {
			fields[j] = formatValue(v)
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func run(cfg *config.Config, req readRequest, tracer trace.Tracer, out io.Writer, logger *slog.Logger) error {
	p, err := part.Load(req.partDir)
	if err != nil {
		return err
	}
	columns, err := resolveColumns(p, req.columns)
	if err != nil {
		return err
	}

	ranges := marks.Ranges{{Begin: 0, End: p.MarkCount()}}
	if len(req.ranges) > 0 {
		ranges = ranges[:0]
		for _, s := range req.ranges {
			rg, err := parseRange(s)
			if err != nil {
				return err
			}
			ranges = append(ranges, rg)
		}
	}

	order := req.order
	if len(order) == 0 {
		for _, c := range columns {
			order = append(order, c.Name)
		}
	}

	markCache := marks.NewCache(config.ParseBytes(cfg.Cache.MarkCacheSize, 64<<20, logger), logger)
	opts := mergetree.OptionsFromConfig(cfg.Reader, logger)
	opts.MarkCache = markCache
	opts.Tracer = tracer
	opts.Stats = &compressed.Stats{}
	opts.ReportBrokenPart = func(name string, err error) {
		logger.Error("Part is broken", "part", name, "error", err)
	}
	sources := map[string]cache.StatsSource{"mark": markCache}
	publishCacheVars("mark", markCache)
	if cfg.Reader.UseUncompressedCache {
		uc := compressed.NewUncompressedCache(config.ParseBytes(cfg.Cache.UncompressedCacheSize, 128<<20, logger))
		opts.UncompressedCache = uc
		sources["uncompressed"] = uc
		publishCacheVars("uncompressed", uc)
	}

	reader, err := mergetree.NewReader(p, columns, ranges, opts)
	if err != nil {
		return err
	}
	defer reader.Close()

	if _, err := fmt.Fprintln(out, strings.Join(order, "\t")); err != nil {
		return err
	}
	for _, rg := range ranges {
		res := block.New()
		if err := reader.ReadRange(rg.Begin, rg.End, res); err != nil {
			return err
		}
		if res.Columns() == 0 {
			logger.Warn("Part stores none of the requested columns", "part", p.Name, "range", rg.String())
			continue
		}
		if err := reader.FillMissingColumnsAndReorder(res, order); err != nil {
			return err
		}
		if err := writeBlock(out, res); err != nil {
			return err
		}
	}
	logger.Info("Read part", "part", p.Name, "ranges", ranges.String(),
		"bytes_read", humanize.IBytes(uint64(opts.Stats.BytesRead.Load())),
		"decompressed", humanize.IBytes(uint64(opts.Stats.DecompressedBytes.Load())),
		"hints", reader.AvgValueSizeHints())

	if req.metrics {
		return writeMetrics(out, sources, opts.Stats)
	}
	return nil
}

func writeMetrics(w io.Writer, sources map[string]cache.StatsSource, stats *compressed.Stats) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(cache.NewCollector("mergetree", sources))
	counters := []struct {
		name, help string
		get        func(compressed.StatsSnapshot) int64
	}{
		{"decompressions_total", "Compressed blocks decompressed.", func(s compressed.StatsSnapshot) int64 { return s.Decompressions }},
		{"decompressed_bytes_total", "Bytes produced by decompression.", func(s compressed.StatsSnapshot) int64 { return s.DecompressedBytes }},
		{"file_bytes_read_total", "Bytes read from data files.", func(s compressed.StatsSnapshot) int64 { return s.BytesRead }},
		{"seeks_total", "File seeks.", func(s compressed.StatsSnapshot) int64 { return s.Seeks }},
		{"scanned_bytes_total", "Bytes read and discarded instead of seeking.", func(s compressed.StatsSnapshot) int64 { return s.ScannedBytes }},
	}
	for _, c := range counters {
		get := c.get
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "mergetree",
			Subsystem: "read",
			Name:      c.name,
			Help:      c.help,
		}, func() float64 { return float64(get(stats.Snapshot())) }))
	}

	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}

func main() {
	app := kingpin.New("partread", "Reads column data of a data part between marks.")
	configPath := app.Flag("config", "Path to the configuration file.").Default("partread.yaml").String()
	partDir := app.Flag("part", "Directory of the data part.").Required().String()
	columns := app.Flag("column", "Column to read, as name or name:Type for columns the part may not store. Repeatable; defaults to every stored column.").Strings()
	ranges := app.Flag("range", "Mark range begin:end. Repeatable; defaults to the whole part.").Strings()
	order := app.Flag("order", "Comma-separated output column order.").String()
	printMetrics := app.Flag("metrics", "Print cache and read counters in Prometheus text format after the rows.").Bool()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := createLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	tracer, tracerCleanup, err := initTracerProvider(cfg.Tracing, logger)
	if err != nil {
		logger.Error("Failed to initialize tracer provider", "error", err)
		os.Exit(1)
	}
	defer tracerCleanup()

	req := readRequest{
		partDir: *partDir,
		columns: *columns,
		ranges:  *ranges,
		metrics: *printMetrics,
	}
	if *order != "" {
		req.order = strings.Split(*order, ",")
	}

	if err := run(cfg, req, tracer, os.Stdout, logger); err != nil {
		logger.Error("Failed to read part", "part", *partDir, "error", err)
		tracerCleanup()
		os.Exit(1)
	}
}
