package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Level represents the logging level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface for logging operations
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
	Fatal(format string, v ...any)
	SetLevel(level Level)
	// With returns a logger that tags every message with component.
	With(component string) Logger
}

// LogConfig holds configuration for the logger
type LogConfig struct {
	// Output destination: "file" or "stderr"
	Output string
	// Log level: "debug", "info", "warn", "error", "fatal"
	Level string
	// FilePath for file output (only used when Output is "file")
	FilePath string
}

// leveledLogger writes through a *log.Logger. Loggers derived with With
// share the level pointer of their parent.
type leveledLogger struct {
	logger    *log.Logger
	level     *Level
	component string
}

// NewLogger creates a new logger based on the provided configuration.
// Output never goes to stdout, which carries the MCP stdio transport.
func NewLogger(config LogConfig) (Logger, error) {
	writer, err := openWriter(config)
	if err != nil {
		return nil, err
	}

	levelStr := config.Level
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}
	level := ParseLevel(levelStr)

	return &leveledLogger{
		logger: log.New(writer, "", log.LstdFlags),
		level:  &level,
	}, nil
}

// New wraps an arbitrary writer. Mostly useful in tests that assert on output.
func New(w io.Writer, level Level) Logger {
	return &leveledLogger{
		logger: log.New(w, "", 0),
		level:  &level,
	}
}

// NewNoOpLogger creates a logger that discards all output (useful for tests)
func NewNoOpLogger() Logger {
	return New(io.Discard, FatalLevel)
}

func openWriter(config LogConfig) (io.Writer, error) {
	output := config.Output
	if output == "" {
		output = os.Getenv("LOG_OUTPUT")
	}
	if output == "" {
		output = detectEnvironment()
	}

	switch output {
	case "stderr":
		return os.Stderr, nil
	case "file":
		filePath := config.FilePath
		if filePath == "" {
			filePath = os.Getenv("LOG_FILE_PATH")
		}
		if filePath == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			filePath = filepath.Join(homeDir, ".pdf-sections-mcp", "pdf-sections.log")
		}
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return file, nil
	default:
		return nil, fmt.Errorf("invalid log output: %s (expected 'file' or 'stderr')", output)
	}
}

// detectEnvironment picks stderr inside containers and a log file otherwise
func detectEnvironment() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "stderr"
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "stderr"
	}
	return "file"
}

// ParseLevel converts a string to a Level, defaulting to InfoLevel
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

func (l *leveledLogger) SetLevel(level Level) {
	*l.level = level
}

func (l *leveledLogger) With(component string) Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &leveledLogger{
		logger:    l.logger,
		level:     l.level,
		component: component,
	}
}

func (l *leveledLogger) Debug(format string, v ...any) {
	l.log(DebugLevel, format, v...)
}

func (l *leveledLogger) Info(format string, v ...any) {
	l.log(InfoLevel, format, v...)
}

func (l *leveledLogger) Warn(format string, v ...any) {
	l.log(WarnLevel, format, v...)
}

func (l *leveledLogger) Error(format string, v ...any) {
	l.log(ErrorLevel, format, v...)
}

// Fatal logs a fatal message and exits
func (l *leveledLogger) Fatal(format string, v ...any) {
	l.log(FatalLevel, format, v...)
	os.Exit(1)
}

func (l *leveledLogger) log(level Level, format string, v ...any) {
	if level < *l.level {
		return
	}
	message := fmt.Sprintf(format, v...)
	if l.component != "" {
		l.logger.Printf("[%s] [%s] %s", level, l.component, message)
		return
	}
	l.logger.Printf("[%s] %s", level, message)
}
