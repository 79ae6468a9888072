// Package logger is the process-wide diagnostic log for ragchat.
//
// Debug, Info and Section lines appear only with --verbose. Warnings are
// always written. Output goes to stderr so it never mixes with command
// output or JSON.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level orders log lines by severity.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

func (l Level) prefix() string {
	switch l {
	case LevelDebug:
		return "[DEBUG] "
	case LevelInfo:
		return "[INFO] "
	default:
		return "[WARN] "
	}
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables debug and info lines.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects the log. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// enabled reports whether a line at level l is written.
func enabled(l Level) bool {
	return l >= LevelWarn || verbose
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled(l) {
		return
	}
	fmt.Fprintf(output, l.prefix()+format+"\n", args...)
}

// Debug logs pipeline detail.
func Debug(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

// Info logs a notable step.
func Info(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// Warn logs a recoverable problem. It is written even without --verbose.
func Warn(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

// Section starts a named block of verbose output, such as one chat turn.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Writer returns an io.Writer whose lines are logged at info level under
// the given component name. Trailing newlines are trimmed.
func Writer(component string) io.Writer {
	return &lineWriter{component: component}
}

type lineWriter struct {
	component string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if line != "" {
		Info("%s: %s", w.component, line)
	}
	return len(p), nil
}

// Printer adapts the log to libraries that take a Printf method.
type Printer struct {
	component string
}

// NewPrinter returns a Printer that logs at debug level under component.
func NewPrinter(component string) *Printer {
	return &Printer{component: component}
}

// Printf logs one formatted line.
func (p *Printer) Printf(format string, args ...any) {
	Debug("%s: %s", p.component, strings.TrimSpace(fmt.Sprintf(format, args...)))
}
