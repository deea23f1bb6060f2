package compositor

import (
	"context"
	"fmt"
	"log/slog"
)

// Logger is the interface for logging in compositor.
type Logger interface {
	ErrorPrintf(format string, args ...any)
	WarnPrintf(format string, args ...any)
	InfoPrintf(format string, args ...any)
	DebugPrintf(format string, args ...any)
	Errorf(format string, args ...any) error
}

const logPrefix = "compositor: "

// DefaultLogger returns a Logger writing to slog.Default() at the time of
// each call.
func DefaultLogger() Logger {
	return slogLogger{}
}

// SlogLogger returns a Logger writing to l. A nil l behaves like
// DefaultLogger.
func SlogLogger(l *slog.Logger) Logger {
	return slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) log(level slog.Level, format string, args []any) {
	l := s.l
	if l == nil {
		l = slog.Default()
	}
	if !l.Enabled(context.Background(), level) {
		return
	}
	l.Log(context.Background(), level, logPrefix+fmt.Sprintf(format, args...))
}

func (s slogLogger) ErrorPrintf(format string, args ...any) { s.log(slog.LevelError, format, args) }
func (s slogLogger) WarnPrintf(format string, args ...any)  { s.log(slog.LevelWarn, format, args) }
func (s slogLogger) InfoPrintf(format string, args ...any)  { s.log(slog.LevelInfo, format, args) }
func (s slogLogger) DebugPrintf(format string, args ...any) { s.log(slog.LevelDebug, format, args) }

func (slogLogger) Errorf(format string, args ...any) error {
	return fmt.Errorf(logPrefix+format, args...)
}
