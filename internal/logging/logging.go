// Package logging constructs the prefixed loggers used across gigcal.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger with the given bracketed prefix, e.g. "[reconcile] ".
// When file is non-empty, output goes to a size-rotated log file; otherwise
// to stderr.
func New(prefix, file string) *log.Logger {
	var w io.Writer = os.Stderr
	if file != "" {
		w = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	return log.New(w, prefix, log.LstdFlags)
}
