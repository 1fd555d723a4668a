package mergetree

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/INLOpen/mergetree/compressed"
	"github.com/INLOpen/mergetree/config"
	"github.com/INLOpen/mergetree/internal/limits"
	"github.com/INLOpen/mergetree/marks"
)

// DefaultMaxReadBufferSize caps the transport buffer of a stream.
const DefaultMaxReadBufferSize = 1 << 20

// BrokenPartReporter is told about parts that failed to read for any reason
// other than the memory limit.
type BrokenPartReporter func(partName string, err error)

// Options configure a Reader.
type Options struct {
	// MarkCache is shared by readers. Nil loads marks on every stream creation.
	MarkCache *marks.Cache
	// SaveMarksInCache inserts loaded marks into MarkCache. Turned off for
	// one-off scans so they do not wash out hot entries.
	SaveMarksInCache bool
	// UncompressedCache is shared by readers. Nil disables it.
	UncompressedCache *compressed.UncompressedCache
	// SkipUncompressedCacheFill reads through the cache without inserting.
	SkipUncompressedCacheFill bool

	MaxReadBufferSize int
	// AIOThreshold selects the sequential transport for streams expected to
	// read at least that many compressed bytes. Zero disables it.
	AIOThreshold int64
	// ScanForwardThreshold bounds forward gaps read through instead of
	// seeked over. Zero means the stream buffer size.
	ScanForwardThreshold int64

	// AvgValueSizeHints seeds the per-stream size hints.
	AvgValueSizeHints map[string]float64
	// Quota, if set, is charged for buffer preallocation during a read.
	Quota *limits.Quota

	ReportBrokenPart BrokenPartReporter
	Stats            *compressed.Stats
	Logger           *slog.Logger
	Tracer           trace.Tracer
}

// OptionsFromConfig maps reader configuration onto Options. Caches are
// supplied by the caller since they are shared.
func OptionsFromConfig(cfg config.ReaderConfig, logger *slog.Logger) Options {
	maxMemory := config.ParseBytes(cfg.MaxMemoryUsage, 0, logger)
	if maxMemory == 0 {
		maxMemory = config.DefaultMemoryLimit()
	}
	return Options{
		SaveMarksInCache:          cfg.SaveMarksInCache,
		SkipUncompressedCacheFill: cfg.SkipUncompressedCacheFill,
		MaxReadBufferSize:         int(config.ParseBytes(cfg.MaxReadBufferSize, DefaultMaxReadBufferSize, logger)),
		AIOThreshold:              config.ParseBytes(cfg.AIOThreshold, 0, logger),
		ScanForwardThreshold:      config.ParseBytes(cfg.ScanForwardThreshold, 0, logger),
		Quota:                     limits.NewQuota(maxMemory),
		Logger:                    logger,
	}
}
