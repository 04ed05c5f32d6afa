// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging provides the append-only run log shared by all pipeline
// stages. Entries go to stderr and, when a log directory is configured, to
// a per-day log file that is only ever appended to.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// RunLog writes timestamped entries at three levels. Debug entries are
// dropped unless verbose is set.
type RunLog struct {
	logger  *log.Logger
	file    *os.File
	verbose bool
}

// New returns a RunLog writing to stderr. If logDir is non-empty the log
// also appends to logDir/scout-YYYY-MM-DD.log, creating the directory as
// needed. A file open failure degrades to stderr-only with a warning.
func New(logDir string, verbose bool) *RunLog {
	writers := []io.Writer{os.Stderr}
	var file *os.File

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot create log directory %s: %v\n", logDir, err)
		} else {
			path := filepath.Join(logDir, "scout-"+time.Now().Format("2006-01-02")+".log")
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: cannot open log file %s: %v\n", path, err)
			} else {
				writers = append(writers, f)
				file = f
			}
		}
	}

	return &RunLog{
		logger:  log.New(io.MultiWriter(writers...), "", log.LstdFlags),
		file:    file,
		verbose: verbose,
	}
}

// NewWriter returns a RunLog writing only to w. Used by tests and dry runs.
func NewWriter(w io.Writer, verbose bool) *RunLog {
	return &RunLog{
		logger:  log.New(w, "", log.LstdFlags),
		verbose: verbose,
	}
}

// Close releases the underlying log file, if any.
func (l *RunLog) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Infof logs a routine progress entry.
func (l *RunLog) Infof(format string, args ...any) {
	l.logger.Printf("INFO  "+format, args...)
}

// Warnf logs a recovered failure the operator may want to act on.
func (l *RunLog) Warnf(format string, args ...any) {
	l.logger.Printf("WARN  "+format, args...)
}

// Errorf logs a failure that affects the run outcome.
func (l *RunLog) Errorf(format string, args ...any) {
	l.logger.Printf("ERROR "+format, args...)
}

// Debugf logs diagnostic detail, suppressed unless verbose.
func (l *RunLog) Debugf(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.logger.Printf("DEBUG "+format, args...)
}
