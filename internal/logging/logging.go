package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

var (
	disabled atomic.Bool
	level    = new(slog.LevelVar)
	logger   atomic.Pointer[slog.Logger]
)

func init() {
	SetOutput(os.Stdout)
}

// SetOutput replaces the log destination. Colour is only used for terminals.
func SetOutput(w io.Writer) {
	noColor := true
	if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			noColor = fi.Mode()&os.ModeCharDevice == 0
		}
	}
	logger.Store(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	})))
}

// SetLevel sets the minimum level that is written.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Disable turns off all logging
func Disable() {
	disabled.Store(true)
}

// Enable turns logging back on
func Enable() {
	disabled.Store(false)
}

func emit(l slog.Level, msg string) {
	if disabled.Load() {
		return
	}
	logger.Load().Log(context.Background(), l, msg)
}

// Info logs an info message
func Info(v ...any) {
	emit(slog.LevelInfo, fmt.Sprint(v...))
}

// Infof logs a formatted info message
func Infof(format string, v ...any) {
	emit(slog.LevelInfo, fmt.Sprintf(format, v...))
}

// Error logs an error message
func Error(v ...any) {
	emit(slog.LevelError, fmt.Sprint(v...))
}

// Errorf logs a formatted error message
func Errorf(format string, v ...any) {
	emit(slog.LevelError, fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func Warn(v ...any) {
	emit(slog.LevelWarn, fmt.Sprint(v...))
}

// Warnf logs a formatted warning message
func Warnf(format string, v ...any) {
	emit(slog.LevelWarn, fmt.Sprintf(format, v...))
}

// Debug logs a debug message
func Debug(v ...any) {
	emit(slog.LevelDebug, fmt.Sprint(v...))
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) {
	emit(slog.LevelDebug, fmt.Sprintf(format, v...))
}

// Logger is a simple logger that can be embedded in structs
type Logger struct {
	ctx context.Context
}

// WithContext creates a Logger bound to ctx.
func WithContext(ctx context.Context) Logger {
	return Logger{ctx: ctx}
}

func (l Logger) log(lv slog.Level, msg string) {
	if disabled.Load() {
		return
	}
	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger.Load().Log(ctx, lv, msg)
}

// Info logs an info message
func (l Logger) Info(v ...any) {
	l.log(slog.LevelInfo, fmt.Sprint(v...))
}

// Infof logs a formatted info message
func (l Logger) Infof(format string, v ...any) {
	l.log(slog.LevelInfo, fmt.Sprintf(format, v...))
}

// Error logs an error message
func (l Logger) Error(v ...any) {
	l.log(slog.LevelError, fmt.Sprint(v...))
}

// Errorf logs a formatted error message
func (l Logger) Errorf(format string, v ...any) {
	l.log(slog.LevelError, fmt.Sprintf(format, v...))
}
