package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the application logger. Output goes to stderr so command
// output on stdout stays clean; with logDir set it is also appended to a
// timestamped file there.
func NewLogger(level, format, logDir string) *logrus.Logger {
	return newLogger(level, format, logDir, os.Stderr)
}

func newLogger(level, format, logDir string, console io.Writer) *logrus.Logger {
	logger := logrus.New()

	// Set log level
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	// Set log format
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// Set output
	output := console
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err == nil {
			timestamp := time.Now().Format("20060102_150405")
			logFilePath := filepath.Join(logDir, fmt.Sprintf("pos_%s.log", timestamp))
			file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				output = io.MultiWriter(console, file)
			}
		}
	}
	logger.SetOutput(output)

	return logger
}
