// Package logging builds the zerolog logger used by the persist command and
// adapts it to the bridge and JavaScript host logging hooks.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	persist "github.com/goliatone/go-persist"
	"github.com/goliatone/go-persist/pkg/jsapp"
)

// Options configures New.
type Options struct {
	Level  string
	Format string // auto, console or json
	File   string
	Out    io.Writer
}

// New builds a logger. The returned closer releases the rotating log file
// when one is configured.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer
	switch strings.ToLower(opts.Format) {
	case "", "auto":
		if isTerminal(out) {
			writer = consoleWriter(out)
		} else {
			writer = out
		}
	case "console":
		writer = consoleWriter(out)
	case "json":
		writer = out
	default:
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("logging: unknown format %q", opts.Format)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxAge:     7,
			MaxBackups: 3,
		}
		writer = zerolog.MultiLevelWriter(writer, file)
		closer = file
	}

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(value string) (zerolog.Level, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(value))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("logging: %w", err)
	}
	return level, nil
}

// BridgeLogger reports bridge operations. Failures log at error level, resets
// and activity failures at warn, successful operations at debug.
func BridgeLogger(logger zerolog.Logger) persist.Logger {
	return persist.LoggerFunc(func(event persist.LogEvent) {
		var entry *zerolog.Event
		switch {
		case event.Reset:
			entry = logger.Warn().Err(event.Err)
		case event.Err != nil && event.Op == persist.OpActivity:
			entry = logger.Warn().Err(event.Err)
		case event.Err != nil:
			entry = logger.Error().Err(event.Err)
		default:
			entry = logger.Debug()
		}
		entry.
			Str("op", event.Op).
			Str("key", event.Key).
			Str("encoding", event.Encoding).
			Bool("found", event.Found).
			Bool("reset", event.Reset).
			Int("bytes", event.Bytes).
			Dur("duration", event.Duration).
			Msg("persist operation")
	})
}

// ConsoleFunc routes script console output to logger.
func ConsoleFunc(logger zerolog.Logger) jsapp.ConsoleFunc {
	return func(level, message string) {
		var entry *zerolog.Event
		switch level {
		case "error":
			entry = logger.Error()
		case "warn":
			entry = logger.Warn()
		case "debug":
			entry = logger.Debug()
		default:
			entry = logger.Info()
		}
		entry.Str("source", "console").Msg(message)
	}
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
