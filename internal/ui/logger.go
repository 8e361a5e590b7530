// Package ui renders command output for the terminal.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes tagged, colored status lines to stderr
type Logger struct {
	Verbose bool
	Quiet   bool

	out     io.Writer
	info    *color.Color
	success *color.Color
	warning *color.Color
	failure *color.Color
	debug   *color.Color
}

// NewLogger creates a new logger
func NewLogger(verbose, quiet, noColor bool) *Logger {
	l := &Logger{
		Verbose: verbose,
		Quiet:   quiet,
		out:     os.Stderr,
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
		debug:   color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range []*color.Color{l.info, l.success, l.warning, l.failure, l.debug} {
			c.DisableColor()
		}
	}
	return l
}

// SetOutput redirects the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

func (l *Logger) print(c *color.Color, tag, format string, args ...interface{}) {
	c.Fprintf(l.out, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Quiet {
		return
	}
	l.print(l.info, "[INFO]", format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	if l.Quiet {
		return
	}
	l.print(l.success, "[OK]", format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.print(l.warning, "[WARNING]", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.print(l.failure, "[ERROR]", format, args...)
}

// Debug logs a debug message (only if verbose is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.print(l.debug, "[DEBUG]", format, args...)
}

// Writer returns the destination of log lines
func (l *Logger) Writer() io.Writer {
	return l.out
}
