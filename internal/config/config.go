// Package config holds the extraction engine configuration, loadable from
// flags and PDFEXTRACT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultMemoryLimit        = 256 * 1024 * 1024 // 256MB
	DefaultStreamingThreshold = 100 * 1024 * 1024 // 100MB
	DefaultChunkSize          = 4 * 1024 * 1024   // 4MB
	DefaultTableMinConfidence = 0.4
	DefaultOCRPageThreshold   = 0.2
	DefaultWorkers            = 4
	DefaultDocumentTimeout    = 2 * time.Minute
	DefaultLogLevel           = "info"
)

// Config is the full engine configuration. Presets below only change
// field defaults; there is exactly one configuration shape.
type Config struct {
	// Memory and streaming behavior.
	MemoryLimitBytes        int64
	StreamingThresholdBytes int64
	ChunkSizeBytes          int64

	// Content analysis.
	LayoutPreservation    bool
	TableDetection        bool
	TableMinConfidence    float64
	OCRImagePageThreshold float64

	// Batch processing.
	Workers         int
	DocumentTimeout time.Duration

	LogLevel string
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		MemoryLimitBytes:        DefaultMemoryLimit,
		StreamingThresholdBytes: DefaultStreamingThreshold,
		ChunkSizeBytes:          DefaultChunkSize,
		LayoutPreservation:      true,
		TableDetection:          true,
		TableMinConfidence:      DefaultTableMinConfidence,
		OCRImagePageThreshold:   DefaultOCRPageThreshold,
		Workers:                 DefaultWorkers,
		DocumentTimeout:         DefaultDocumentTimeout,
		LogLevel:                DefaultLogLevel,
	}
}

// LargeFileConfig biases toward streaming: lower threshold, bigger
// chunks, a higher memory ceiling.
func LargeFileConfig() *Config {
	cfg := DefaultConfig()
	cfg.StreamingThresholdBytes = 32 * 1024 * 1024
	cfg.ChunkSizeBytes = 8 * 1024 * 1024
	cfg.MemoryLimitBytes = 512 * 1024 * 1024
	return cfg
}

// LayoutCriticalConfig favors layout fidelity: streaming is deferred so
// whole-page geometry stays resident, and table detection is more eager.
func LayoutCriticalConfig() *Config {
	cfg := DefaultConfig()
	cfg.StreamingThresholdBytes = 200 * 1024 * 1024
	cfg.TableMinConfidence = 0.3
	return cfg
}

// LoadFromFlags parses command line flags, overlaid on PDFEXTRACT_*
// environment variables, overlaid on the defaults.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()

	pflag.Parse()
	populateConfigFromViper(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("PDFEXTRACT")
	viper.AutomaticEnv()

	viper.SetDefault("memorylimit", cfg.MemoryLimitBytes)
	viper.SetDefault("streamingthreshold", cfg.StreamingThresholdBytes)
	viper.SetDefault("chunksize", cfg.ChunkSizeBytes)
	viper.SetDefault("layout", cfg.LayoutPreservation)
	viper.SetDefault("tables", cfg.TableDetection)
	viper.SetDefault("tableconfidence", cfg.TableMinConfidence)
	viper.SetDefault("ocrthreshold", cfg.OCRImagePageThreshold)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("timeout", cfg.DocumentTimeout)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

func defineCommandLineFlags(cfg *Config) {
	pflag.Int64("memorylimit", cfg.MemoryLimitBytes, "Memory limit in bytes for document processing")
	pflag.Int64("streamingthreshold", cfg.StreamingThresholdBytes, "File size in bytes above which streaming mode is used")
	pflag.Int64("chunksize", cfg.ChunkSizeBytes, "Streaming chunk size in bytes")
	pflag.Bool("layout", cfg.LayoutPreservation, "Preserve layout when classifying text blocks")
	pflag.Bool("tables", cfg.TableDetection, "Detect tables")
	pflag.Float64("tableconfidence", cfg.TableMinConfidence, "Minimum table detection confidence (0-1)")
	pflag.Float64("ocrthreshold", cfg.OCRImagePageThreshold, "Image-dominant page fraction above which OCR is recommended (0-1)")
	pflag.Int("workers", cfg.Workers, "Concurrent documents in batch mode")
	pflag.Duration("timeout", cfg.DocumentTimeout, "Per-document processing timeout")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

func bindFlagsToViper() {
	for _, name := range []string{
		"memorylimit", "streamingthreshold", "chunksize", "layout", "tables",
		"tableconfidence", "ocrthreshold", "workers", "timeout", "loglevel",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

func populateConfigFromViper(cfg *Config) {
	cfg.MemoryLimitBytes = viper.GetInt64("memorylimit")
	cfg.StreamingThresholdBytes = viper.GetInt64("streamingthreshold")
	cfg.ChunkSizeBytes = viper.GetInt64("chunksize")
	cfg.LayoutPreservation = viper.GetBool("layout")
	cfg.TableDetection = viper.GetBool("tables")
	cfg.TableMinConfidence = viper.GetFloat64("tableconfidence")
	cfg.OCRImagePageThreshold = viper.GetFloat64("ocrthreshold")
	cfg.Workers = viper.GetInt("workers")
	cfg.DocumentTimeout = viper.GetDuration("timeout")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.MemoryLimitBytes <= 0 {
		return errors.New("memory limit must be positive")
	}
	if c.StreamingThresholdBytes <= 0 {
		return errors.New("streaming threshold must be positive")
	}
	if c.ChunkSizeBytes <= 0 {
		return errors.New("chunk size must be positive")
	}
	if c.ChunkSizeBytes > c.MemoryLimitBytes {
		return errors.New("chunk size cannot exceed the memory limit")
	}
	if c.TableMinConfidence < 0 || c.TableMinConfidence > 1 {
		return errors.New("table confidence must be between 0 and 1")
	}
	if c.OCRImagePageThreshold < 0 || c.OCRImagePageThreshold > 1 {
		return errors.New("ocr threshold must be between 0 and 1")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.DocumentTimeout <= 0 {
		return errors.New("document timeout must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// IsDebug reports whether debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String renders the configuration for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{MemoryLimit: %d, StreamingThreshold: %d, ChunkSize: %d, Layout: %t, Tables: %t, TableConfidence: %.2f, OCRThreshold: %.2f, Workers: %d, Timeout: %s}",
		c.MemoryLimitBytes, c.StreamingThresholdBytes, c.ChunkSizeBytes,
		c.LayoutPreservation, c.TableDetection, c.TableMinConfidence,
		c.OCRImagePageThreshold, c.Workers, c.DocumentTimeout)
}
