// Package logx is the component-tagged structured logger shared by the
// firmware packages. Output defaults to stderr; the device platform
// redirects it to a UART.
package logx

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

const (
	ComponentPSU      Component = "psu"
	ComponentConn     Component = "conn"
	ComponentTransfer Component = "transfer"
	ComponentPlatform Component = "platform"
	ComponentConfig   Component = "config"
	ComponentHeart    Component = "heartbeat"
)

var (
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
	logMu    sync.RWMutex
)

func init() {
	logLevel.Set(slog.LevelInfo)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// SetLogLevel sets the minimum level for all components.
func SetLogLevel(level slog.Level) { logLevel.Set(level) }

// SetLogger replaces the logger.
func SetLogger(l *slog.Logger) {
	logMu.Lock()
	logger = l
	logMu.Unlock()
}

// SetOutput points a text logger at w, keeping the current level.
func SetOutput(w io.Writer) {
	SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

func get() *slog.Logger {
	logMu.RLock()
	l := logger
	logMu.RUnlock()
	return l
}

func Debug(c Component, msg string, args ...any) {
	get().Debug(msg, append([]any{"component", string(c)}, args...)...)
}

func Info(c Component, msg string, args ...any) {
	get().Info(msg, append([]any{"component", string(c)}, args...)...)
}

func Warn(c Component, msg string, args ...any) {
	get().Warn(msg, append([]any{"component", string(c)}, args...)...)
}

func Error(c Component, msg string, args ...any) {
	get().Error(msg, append([]any{"component", string(c)}, args...)...)
}
