package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"ecoflow/internal/platform/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. Output is "stderr" (the default),
// "stdout" or "file"; CLI results go to stdout, so stderr keeps them apart.
func Init(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	w, err := output(cfg)
	if err != nil {
		log.Logger = New(os.Stderr, cfg.Format)
		log.Error().Err(err).Str("file_path", cfg.FilePath).Msg("failed to open log file, using stderr")
		return
	}
	log.Logger = New(w, cfg.Format)
}

func output(cfg config.LoggingConfig) (io.Writer, error) {
	switch cfg.Output {
	case "file":
		if cfg.FilePath == "" {
			return os.Stderr, nil
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}
		return os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
	case "stdout":
		return os.Stdout, nil
	default:
		return os.Stderr, nil
	}
}

// New builds a logger writing JSON, or human-readable lines when format is
// "text".
func New(w io.Writer, format string) zerolog.Logger {
	if format == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
