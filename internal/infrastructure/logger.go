package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"bankcli/internal/config"
)

// Log outputs accepted by LoggingConfig.Output
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)

// Attribute keys every component logs under
const (
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeyComponent = "component"
	KeyStage     = "stage"
)

// Component names attached with WithComponent
const (
	ComponentSegmentation = "segmentation"
	ComponentGenerator    = "generator"
	ComponentAnalytics    = "analytics"
	ComponentLoader       = "loader"
	ComponentService      = "segment-service"
)

var (
	loggerMu      sync.Mutex
	globalLogger  *slog.Logger
	globalLogFile *os.File
)

// InitializeLogger builds the process logger from cfg and makes it the slog default.
// The first successful call wins; later calls return the same logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if globalLogger != nil {
		return globalLogger, nil
	}

	out, file, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}

	globalLogger = NewLogger(out, cfg.Level)
	globalLogFile = file
	slog.SetDefault(globalLogger)
	return globalLogger, nil
}

// GetLogger returns the process logger, or slog.Default before initialization
func GetLogger() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// NewLogger returns a JSON logger writing to w that stamps every record
// with the run's trace id and, inside a span, the span id.
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLevel(level),
	})
	return slog.New(&traceHandler{Handler: handler})
}

// WithComponent tags every record from logger with the component name
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String(KeyComponent, component))
}

// StageAttr names a segmentation stage in a log record
func StageAttr(stage string) slog.Attr {
	return slog.String(KeyStage, stage)
}

type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := GetTraceID(ctx); id != "" {
			r.AddAttrs(slog.String(KeyTraceID, id))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r.AddAttrs(slog.String(KeySpanID, sc.SpanID().String()))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// ParseLevel maps a configured level name to slog; unknown names mean info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// openOutput resolves where records go. Stdout is left to rendered reports.
func openOutput(cfg config.LoggingConfig) (io.Writer, *os.File, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != OutputFile && mode != OutputBoth {
		return os.Stderr, nil, nil
	}
	if cfg.FilePath == "" {
		return nil, nil, fmt.Errorf("log output %q needs a file path", cfg.Output)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}

	if mode == OutputFile {
		return file, file, nil
	}
	return io.MultiWriter(os.Stderr, file), file, nil
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if globalLogFile == nil {
		return nil
	}
	err := globalLogFile.Close()
	globalLogFile = nil
	return err
}

// ResetLoggerForTesting drops the process logger so a test can initialize its own
func ResetLoggerForTesting() {
	CloseLogFile()
	loggerMu.Lock()
	globalLogger = nil
	loggerMu.Unlock()
}
