package main

import (
	"io"

	"github.com/pion/logging"
)

// newLoggerFactory returns the factory all components take their loggers
// from. PION_LOG_<LEVEL>=scope,... still overrides individual scopes.
func newLoggerFactory(w io.Writer, verbose bool) *logging.DefaultLoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.Writer = w
	if f.DefaultLogLevel == logging.LogLevelError {
		f.DefaultLogLevel = logging.LogLevelWarn
	}
	if verbose {
		f.DefaultLogLevel = logging.LogLevelDebug
	}
	return f
}

// discardLogger is used when no logger is configured.
func discardLogger() logging.LeveledLogger {
	return logging.NewDefaultLeveledLoggerForScope("", logging.LogLevelDisabled, io.Discard)
}
