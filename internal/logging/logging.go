// Package logging wires the process-wide zerolog logger from LogConfig.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/config"
)

var (
	outputMu sync.RWMutex
	output   io.Writer = os.Stdout
)

// Writer returns the destination Init configured, for loggers that
// bypass zerolog such as the HTTP request logger. Defaults to stdout.
func Writer() io.Writer {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return output
}

func setWriter(w io.Writer) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
}

// Init configures the global logger. With LOG_FILE set, entries go to
// both stdout and a size-capped file. The returned closer flushes the
// file writer and may be nil.
func Init(cfg config.LogConfig) io.Closer {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stdout
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	var closer io.Closer
	dest := console
	if cfg.File != "" {
		fw, err := newCappedFileWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			setWriter(console)
			log.Logger = zerolog.New(console).With().Timestamp().Logger()
			log.Error().Err(err).Str("path", cfg.File).Msg("log file unavailable")
			return nil
		}
		dest = io.MultiWriter(console, fw)
		closer = fw
	}

	setWriter(dest)
	log.Logger = zerolog.New(dest).With().Timestamp().Logger()
	return closer
}
