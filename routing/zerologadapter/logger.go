// Package zerologadapter implements the routing logging interfaces on top of zerolog.
package zerologadapter

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
)

const permission = 0664

// Logger implements routing.Logger and routing.ContextualLogger with a zerolog.Logger.
// Arguments are slog-style key/value pairs.
type Logger struct {
	logger zerolog.Logger
	file   *os.File
}

// Builder configures where a Logger writes to. Without configuration it writes to os.Stdout.
type Builder struct {
	writer io.Writer
	path   string
	level  zerolog.Level
}

// New creates a Builder logging at debug level.
func New() *Builder {
	return &Builder{level: zerolog.DebugLevel}
}

// FromWriter makes the Logger write to w.
func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// FromPath makes the Logger append to the file at path. It wins over FromWriter.
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// WithLevel sets the minimum level. Unknown level names keep the current one.
func (b *Builder) WithLevel(level string) *Builder {
	if parsed, err := zerolog.ParseLevel(level); err == nil && parsed != zerolog.NoLevel {
		b.level = parsed
	}

	return b
}

// Make builds the Logger.
func (b *Builder) Make() (*Logger, error) {
	logger := &Logger{}

	var writer io.Writer = os.Stdout
	if b.writer != nil {
		writer = b.writer
	}

	if b.path != "" {
		file, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}

		logger.file = file
		writer = zerolog.SyncWriter(file)
	}

	logger.logger = zerolog.New(writer).Level(b.level).With().Timestamp().Logger()

	return logger, nil
}

// Wrap creates a Logger over an existing zerolog.Logger.
func Wrap(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

// Close closes the log file, if the Logger writes to one.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	return l.file.Close()
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.emit(l.logger.Debug(), msg, args)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.emit(l.logger.Info(), msg, args)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.emit(l.logger.Warn(), msg, args)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.emit(l.logger.Error(), msg, args)
}

// DebugContext logs at debug level with the context attached to the event.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(l.logger.Debug().Ctx(ctx), msg, args)
}

// InfoContext logs at info level with the context attached to the event.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(l.logger.Info().Ctx(ctx), msg, args)
}

// WarnContext logs at warn level with the context attached to the event.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(l.logger.Warn().Ctx(ctx), msg, args)
}

// ErrorContext logs at error level with the context attached to the event.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(l.logger.Error().Ctx(ctx), msg, args)
}

// emit adds the key/value pairs to the event and sends it. A disabled level yields a nil event,
// which zerolog treats as a no-op.
func (l *Logger) emit(event *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}

		event = event.Interface(key, args[i+1])
	}

	event.Msg(msg)
}

var (
	_ routing.Logger           = (*Logger)(nil)
	_ routing.ContextualLogger = (*Logger)(nil)
)
