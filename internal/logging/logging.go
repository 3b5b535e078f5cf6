package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes logger runtime configuration.
type Config struct {
	Level       string     `mapstructure:"level"`
	Format      string     `mapstructure:"format"`
	TimeFormat  string     `mapstructure:"time_format"`
	Caller      bool       `mapstructure:"caller"`
	PrettyPrint bool       `mapstructure:"pretty"`
	Console     bool       `mapstructure:"console"`
	File        FileConfig `mapstructure:"file"`
}

// FileConfig controls the rotating log file sink.
// FreshPerRun starts every process with an empty file and keeps the previous
// one as a lumberjack backup.
type FileConfig struct {
	Path        string `mapstructure:"path"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Compress    bool   `mapstructure:"compress"`
	FreshPerRun bool   `mapstructure:"fresh_per_run"`
}

// NewLogger constructs a zerolog logger from config. The returned closer
// releases the file sink, if any.
func NewLogger(cfg Config) (zerolog.Logger, io.Closer) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	writer, closer := logWriter(cfg)
	return New(cfg, writer), closer
}

// New builds a logger on top of an arbitrary writer. Tests use it to capture output.
func New(cfg Config, writer io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && cfg.Level != "" {
		level = parsed
	}

	logger := zerolog.New(writer).Level(level)
	builder := logger.With().Timestamp()
	if cfg.Caller {
		builder = builder.Caller()
	}

	return builder.Logger()
}

func logWriter(cfg Config) (io.Writer, io.Closer) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if cfg.Console || cfg.File.Path == "" {
		writers = append(writers, formatted(cfg, os.Stdout, false))
	}

	if cfg.File.Path != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		if cfg.File.FreshPerRun {
			if _, err := os.Stat(cfg.File.Path); err == nil {
				_ = file.Rotate()
			}
		}
		writers = append(writers, formatted(cfg, file, true))
		closer = file
	}

	if len(writers) == 1 {
		return writers[0], closer
	}
	return zerolog.MultiLevelWriter(writers...), closer
}

func formatted(cfg Config, out io.Writer, noColor bool) io.Writer {
	if strings.EqualFold(cfg.Format, "json") && !cfg.PrettyPrint {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: zerolog.TimeFieldFormat,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
