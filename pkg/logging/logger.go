package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level controls which messages a Logger writes.
type Level int

const (
	// LevelQuiet writes only warnings and errors
	LevelQuiet Level = iota
	// LevelNormal adds informational progress (default)
	LevelNormal
	// LevelVerbose adds debug detail about each automation step
	LevelVerbose
	// LevelDebug adds browser console output and page structure dumps
	LevelDebug
)

// ParseLevel maps a verbosity name to a Level. Unknown or empty names yield LevelNormal.
func ParseLevel(verbosity string) Level {
	switch strings.ToLower(strings.TrimSpace(verbosity)) {
	case "quiet":
		return LevelQuiet
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	default:
		return LevelNormal
	}
}

// Options configures a root Logger.
type Options struct {
	// Dir is the log directory. Empty means ~/.atlas-bridge/logs.
	Dir string
	// Level is the verbosity threshold.
	Level Level
	// Mirror, when set, receives a copy of every line written to the file.
	// It must never be stdout while the MCP server is running.
	Mirror io.Writer
}

// sink is the output shared by a root logger and every logger derived from it.
type sink struct {
	mu        sync.Mutex
	file      *os.File
	logger    *log.Logger
	closeOnce sync.Once
}

// Logger writes leveled, component-tagged lines for one run of the bridge.
// All loggers created with With share the root's file.
type Logger struct {
	runID     string
	component string
	level     Level
	logPath   string
	out       *sink
}

var (
	// Global run ID for the current process
	runID     string
	runIDOnce sync.Once
)

// getRunID returns or creates the run ID for this process
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// defaultLogDir resolves ~/.atlas-bridge/logs
func defaultLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".atlas-bridge", "logs"), nil
}

// NewLogger creates a root logger for component.
// The logger writes to <dir>/<run-id>-atlas-bridge.log
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
// Callers can check the error to detect fallback mode.
func NewLogger(component string, opts Options) (*Logger, error) {
	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = defaultLogDir(); err != nil {
			return newFallbackLogger(component, opts.Level, err), err
		}
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		err = fmt.Errorf("failed to create log directory: %w", err)
		return newFallbackLogger(component, opts.Level, err), err
	}

	id := getRunID()
	logPath := filepath.Join(dir, fmt.Sprintf("%s-atlas-bridge.log", id))

	// Append mode so that restarts within one run id keep earlier lines
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, opts.Level, err), err
	}

	var w io.Writer = file
	if opts.Mirror != nil {
		w = io.MultiWriter(file, opts.Mirror)
	}

	return &Logger{
		runID:     id,
		component: component,
		level:     opts.Level,
		logPath:   logPath,
		out:       &sink{file: file, logger: log.New(w, "", 0)},
	}, nil
}

// NewWriterLogger creates a logger that writes to w only. Used by tests and
// by commands that must not touch the log directory.
func NewWriterLogger(component string, w io.Writer, level Level) *Logger {
	return &Logger{
		runID:     getRunID(),
		component: component,
		level:     level,
		out:       &sink{logger: log.New(w, "", 0)},
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriterLogger("discard", io.Discard, LevelQuiet)
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, level Level, err error) *Logger {
	l := NewWriterLogger(component, os.Stderr, level)
	l.Warnf("failed to initialize file logging: %v", err)
	l.Warnf("falling back to stderr logging")
	return l
}

// With returns a logger for another component sharing this logger's output.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		runID:     l.runID,
		component: component,
		level:     l.level,
		logPath:   l.logPath,
		out:       l.out,
	}
}

// formatLogEntry creates a structured log entry with timestamp, component, and level
func (l *Logger) formatLogEntry(level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) write(min Level, tag, format string, v ...interface{}) {
	if l == nil || l.level < min {
		return
	}
	entry := l.formatLogEntry(tag, fmt.Sprintf(format, v...))

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.logger.Println(entry)
}

// Tracef logs at debug verbosity only
func (l *Logger) Tracef(format string, v ...interface{}) {
	l.write(LevelDebug, "TRACE", format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelVerbose, "DEBUG", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelNormal, "INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelQuiet, "WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelQuiet, "ERROR", format, v...)
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.level >= level
}

// RunID returns the run ID shared by all loggers in this process
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, empty when not writing to a file
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times and on derived loggers.
func (l *Logger) Close() error {
	var err error
	l.out.closeOnce.Do(func() {
		if l.out.file != nil {
			err = l.out.file.Close()
		}
	})
	return err
}

// GetRunID returns the current global run ID
func GetRunID() string {
	return getRunID()
}
