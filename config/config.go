package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/mem"
	"gopkg.in/yaml.v3"
)

// CacheConfig holds the byte budgets of the shared caches.
// Sizes accept human-readable strings such as "64MiB" or "1GB".
type CacheConfig struct {
	MarkCacheSize         string `yaml:"mark_cache_size"`
	UncompressedCacheSize string `yaml:"uncompressed_cache_size"`
}

// ReaderConfig holds the tuning knobs of the column reader.
type ReaderConfig struct {
	UseUncompressedCache      bool   `yaml:"use_uncompressed_cache"`
	SaveMarksInCache          bool   `yaml:"save_marks_in_cache"`
	SkipUncompressedCacheFill bool   `yaml:"skip_uncompressed_cache_fill"`
	MaxReadBufferSize         string `yaml:"max_read_buffer_size"`
	AIOThreshold              string `yaml:"aio_threshold"`          // "0" disables the sequential transport
	ScanForwardThreshold      string `yaml:"scan_forward_threshold"` // empty means the stream buffer size
	MaxMemoryUsage            string `yaml:"max_memory_usage"`       // empty means half of physical memory
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stderr", "stdout", "file", "none"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // e.g., "localhost:4317" for gRPC OTLP collector
	Protocol string `yaml:"protocol"` // "grpc" or "http"
}

// Config is the top-level configuration struct.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Reader  ReaderConfig  `yaml:"reader"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ParseBytes parses a byte size string. Returns the default if the string is
// empty or invalid. Logs a warning if the string is invalid but not empty.
func ParseBytes(sizeStr string, defaultSize int64, logger *slog.Logger) int64 {
	if sizeStr == "" {
		return defaultSize
	}
	n, err := humanize.ParseBytes(sizeStr)
	if err != nil {
		if logger != nil {
			logger.Warn("Invalid byte size format, using default", "input", sizeStr, "default", humanize.IBytes(uint64(defaultSize)), "error", err)
		}
		return defaultSize
	}
	return int64(n)
}

const fallbackMemoryLimit = 4 << 30

// DefaultMemoryLimit returns half of the physical memory of the host, or 4 GiB
// when it cannot be determined.
func DefaultMemoryLimit() int64 {
	vm, err := mem.VirtualMemory()
	if err != nil || vm.Total == 0 {
		return fallbackMemoryLimit
	}
	return int64(vm.Total / 2)
}

// Load reads configuration from an io.Reader.
// This is the core logic, separated for testability.
func Load(r io.Reader) (*Config, error) {
	// Set default values
	cfg := &Config{
		Cache: CacheConfig{
			MarkCacheSize:         "64MiB",
			UncompressedCacheSize: "128MiB",
		},
		Reader: ReaderConfig{
			UseUncompressedCache:      true,
			SaveMarksInCache:          true,
			SkipUncompressedCacheFill: false,
			MaxReadBufferSize:         "1MiB",
			AIOThreshold:              "0",
			ScanForwardThreshold:      "",
			MaxMemoryUsage:            "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			File:   "partread.log",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Protocol: "grpc",
		},
	}

	// If the reader is nil, it's like an empty file, return defaults.
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	// Unmarshal YAML into the config struct, overwriting defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// If file doesn't exist, return default config by calling Load with a nil reader.
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}
