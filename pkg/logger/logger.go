package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Init points all package-level logging at w. The TUI owns the terminal, so
// the client normally passes an opened log file here.
func Init(w io.Writer, level string, development bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if development && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	mu.Lock()
	base = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()
}

// OpenFile opens path for appending and initializes the logger on it.
func OpenFile(path, level string, development bool) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	Init(f, level, development)
	return f, nil
}

func get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

func Info(format string, v ...interface{}) {
	get().Info().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	get().Error().Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	get().Debug().Msgf(format, v...)
}

func Warn(format string, v ...interface{}) {
	get().Warn().Msgf(format, v...)
}

// With returns a child logger for structured fields, e.g.
// logger.With().Str("room", id).Logger().
func With() zerolog.Context {
	return get().With()
}
