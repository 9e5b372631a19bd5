package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultPath is the viewer log file, relative to the working directory.
const DefaultPath = "logs/viewer.txt"

// maxLines caps the in-memory history; the file keeps everything.
const maxLines = 500

// Logger keeps recent lines in memory, appends every line to a file on disk and mirrors it to
// an optional writer (stderr by default). Safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	path   string
	mirror io.Writer
	lines  []string
	now    func() time.Time
}

// New returns a Logger that appends to path and mirrors to stderr. An empty path disables the
// file. The log directory is created if needed.
func New(path string) *Logger {
	if path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0755)
	}
	return &Logger{path: path, mirror: os.Stderr, now: time.Now}
}

// SetMirror replaces the writer each line is echoed to. nil turns echoing off.
func (l *Logger) SetMirror(w io.Writer) {
	l.mu.Lock()
	l.mirror = w
	l.mu.Unlock()
}

// Log records one line prefixed with [timestamp] in local time.
func (l *Logger) Log(line string) {
	stamped := "[" + l.now().Format("2006-01-02 15:04:05") + "] " + line

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, stamped)
	if len(l.lines) > maxLines {
		l.lines = append(l.lines[:0], l.lines[len(l.lines)-maxLines:]...)
	}
	if l.mirror != nil {
		_, _ = io.WriteString(l.mirror, stamped+"\n")
	}
	if l.path == "" {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(stamped + "\n")
	_ = f.Close()
}

// Logf formats according to a format specifier and logs the result.
func (l *Logger) Logf(format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the stored lines, oldest first.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Last returns the most recent line, or "" when nothing was logged.
func (l *Logger) Last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return ""
	}
	return l.lines[len(l.lines)-1]
}
