package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Setup configures the global slog logger. Console output goes to stderr so
// reports on stdout stay machine readable.
// If logOutputDir is non-empty, logs are also written as JSON to a
// timestamped file in that directory. The returned closer releases it.
func Setup(levelStr string, logOutputDir string) (io.Closer, error) {
	logger, closer, err := New(os.Stderr, levelStr, logOutputDir)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

// New builds the logger Setup installs, writing console output to w.
func New(w io.Writer, levelStr string, logOutputDir string) (*slog.Logger, io.Closer, error) {
	level := parseLogLevel(levelStr)

	consoleHandler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})

	if logOutputDir == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	logDir := os.ExpandEnv(logOutputDir)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	logFilePath := filepath.Join(logDir, fmt.Sprintf("gbsave_%s.log", timestamp))

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}

	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})
	logger := slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
	logger.Debug("logging to file", "path", logFilePath)

	return logger, logFile, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
