package ports

import "context"

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for command transcripts and detector results.
	LevelDebug Level = iota
	// LevelInfo is for step progress.
	LevelInfo
	// LevelWarn is for tolerated failures.
	LevelWarn
	// LevelError is for failed steps.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name into a Level. Unknown names map to Info.
func ParseLevel(name string) Level {
	switch name {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field represents a structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates an "error" field. A nil error yields an empty value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// With returns a new Logger with the given fields added to every entry.
	With(fields ...Field) Logger

	Level() Level
	SetLevel(level Level)
}

// LoggerFromContext retrieves a Logger from the context.
// Returns nil if no logger is present.
func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return logger
	}
	return nil
}

// ContextWithLogger returns a new context with the logger attached.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// ContextLogger returns the Logger attached to ctx, or one that discards
// everything when none is attached.
func ContextLogger(ctx context.Context) Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return discardLogger{}
}

type loggerKey struct{}

type discardLogger struct{}

func (discardLogger) Debug(context.Context, string, ...Field) {}
func (discardLogger) Info(context.Context, string, ...Field)  {}
func (discardLogger) Warn(context.Context, string, ...Field)  {}
func (discardLogger) Error(context.Context, string, ...Field) {}
func (d discardLogger) With(...Field) Logger                  { return d }
func (discardLogger) Level() Level                            { return LevelError }
func (discardLogger) SetLevel(Level)                          {}
