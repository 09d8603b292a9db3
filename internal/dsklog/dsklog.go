// dsklog package is just a simple wrapper around logrus
package dsklog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const logLevelEnvVar = "DSKDUPES_LOG_LEVEL"

// Global logger instance
var Dlogger *logrus.Logger = discardLogger()

// InitializeDlogger initializes or resets the global logger (Dlogger).
// The level defaults to info and can be overridden with DSKDUPES_LOG_LEVEL.
func InitializeDlogger(logFile string) {
	Dlogger = logrus.New()

	// #nosec G304
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logrus.Fatalf("Failed to open log file: %v", err)
	}

	// Set the logger output to the log file
	Dlogger.Out = file
	Dlogger.SetLevel(logrus.InfoLevel)
	Dlogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if lvl := strings.TrimSpace(os.Getenv(logLevelEnvVar)); lvl != "" {
		if err := SetLevel(lvl); err != nil {
			Dlogger.Warnf("Ignoring %s: %v", logLevelEnvVar, err)
		}
	}
}

// SetLevel parses level and applies it to Dlogger. An invalid level leaves
// the current level untouched.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	Dlogger.SetLevel(lvl)
	return nil
}

// discardLogger keeps packages usable before InitializeDlogger runs.
func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
