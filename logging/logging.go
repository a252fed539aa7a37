// Package logging provides a package-level structured logger over log/slog,
// with a runtime-adjustable level and text/json output format. It mirrors
// the shape of the example control-plane's own logger package (atomic
// level, Config struct, reconfigure-on-change) scaled down to this
// module's two formats and four levels.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config selects the initial level and format.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // text|json
}

var (
	// levelVar is bound into every handler reconfigure builds, so SetLevel
	// takes effect on the live logger immediately — a LevelVar is itself
	// safe for concurrent use, per its slog doc.
	levelVar = new(slog.LevelVar)

	mu      sync.RWMutex
	logger  *slog.Logger
	handler slog.Handler
)

func init() {
	levelVar.Set(slog.LevelInfo)
	reconfigure("text")
}

// Init applies cfg to the package-level logger. Call it once at process
// startup, after config has been loaded.
func Init(cfg Config) {
	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	format := cfg.Format
	if format == "" {
		format = "text"
	}
	reconfigure(format)
}

// SetLevel changes the minimum level at which records are emitted.
// Unrecognized values are ignored.
func SetLevel(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return
	}
	levelVar.Set(l)
}

func reconfigure(format string) {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: levelVar}

	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger = slog.New(handler)
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Default returns the package-level logger, satisfying session.Logger.
func Default() *slog.Logger { return get() }

func Debug(msg string, args ...any) { get().Debug(msg, args...) }
func Info(msg string, args ...any)  { get().Info(msg, args...) }
func Warn(msg string, args ...any)  { get().Warn(msg, args...) }
func Error(msg string, args ...any) { get().Error(msg, args...) }
