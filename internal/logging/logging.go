// Package logging provides category-based convenience wrappers around a
// process-wide log/slog logger. All logging goes through this package.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Category constants for consistent logging categories.
const (
	CategoryApp     = "App"
	CategoryChain   = "Chain"
	CategoryLoader  = "Loader"
	CategoryPreset  = "Preset"
	CategoryWorklet = "Worklet"
	CategoryCLI     = "CLI"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// ParseLevel maps debug, info, warn/warning and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Init configures the process logger. format is "text" or "json".
func Init(w io.Writer, level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler

	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("logging: unknown format %q", format)
	}

	logger.Store(slog.New(h))

	return nil
}

// Logger returns the current process logger.
func Logger() *slog.Logger {
	return logger.Load()
}

func log(level slog.Level, category, msg string, params ...any) {
	l := logger.Load()
	if !l.Enabled(context.Background(), level) {
		return
	}

	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}

	l.Log(context.Background(), level, msg, slog.String("category", category))
}

// Debug logs a debug message.
func Debug(category, msg string, params ...any) {
	log(slog.LevelDebug, category, msg, params...)
}

// Info logs an info message.
func Info(category, msg string, params ...any) {
	log(slog.LevelInfo, category, msg, params...)
}

// Warning logs a warning message.
func Warning(category, msg string, params ...any) {
	log(slog.LevelWarn, category, msg, params...)
}

// Error logs an error message.
func Error(category, msg string, params ...any) {
	log(slog.LevelError, category, msg, params...)
}
