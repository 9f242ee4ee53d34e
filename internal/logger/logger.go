package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log levels
const (
	LevelDebug = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

var levelNames = map[int]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarning: "WARNING",
	LevelError:   "ERROR",
	LevelFatal:   "FATAL",
}

// FatalExitCode is the process exit code used by Fatal. The supervisor reads
// 3 as UNKNOWN.
const FatalExitCode = 3

// Global logger instance. Stdout carries the check result, so logs go to stderr.
var stdLogger = NewLogger(os.Stderr, LevelWarning)

// exit is swapped in tests
var exit = os.Exit

// Logger is a custom logger that supports log levels
type Logger struct {
	mu         sync.Mutex
	out        io.Writer
	level      int
	prefix     string
	timeFormat string
}

// NewLogger creates a new logger with the specified writer and log level
func NewLogger(out io.Writer, level int) *Logger {
	return &Logger{
		out:        out,
		level:      level,
		timeFormat: "2006/01/02 15:04:05",
	}
}

// SetOutput sets the output destination for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// SetLevel sets the minimum log level to display
func (l *Logger) SetLevel(level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetPrefix sets the logger prefix
func (l *Logger) SetPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix = prefix
}

func (l *Logger) log(level int, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	levelName, ok := levelNames[level]
	if !ok {
		levelName = "UNKNOWN"
	}

	var message string
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	} else {
		message = format
	}
	message = strings.TrimRight(message, "\n")

	logLine := fmt.Sprintf("%s [%s] %s%s\n", time.Now().Format(l.timeFormat), levelName, l.prefix, message)
	l.out.Write([]byte(logLine))

	if level == LevelFatal {
		exit(FatalExitCode)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(LevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Fatal logs a fatal message and exits with FatalExitCode
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(LevelFatal, format, args...)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	stdLogger.Debug(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	stdLogger.Info(format, args...)
}

// Warning logs a warning message
func Warning(format string, args ...interface{}) {
	stdLogger.Warning(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	stdLogger.Error(format, args...)
}

// Fatal logs a fatal message and exits
func Fatal(format string, args ...interface{}) {
	stdLogger.Fatal(format, args...)
}

// SetLevel sets the global log level
func SetLevel(level int) {
	stdLogger.SetLevel(level)
}

// GetLevel returns the global log level
func GetLevel() int {
	return stdLogger.GetLevel()
}

// SetOutput sets the output destination for the global logger
func SetOutput(w io.Writer) {
	stdLogger.SetOutput(w)
}

// StartRun tags every following log line with a short random run id, so
// lines of overlapping check invocations can be told apart. It returns the id.
func StartRun() string {
	id := strings.SplitN(uuid.NewString(), "-", 2)[0]
	stdLogger.SetPrefix("run=" + id + " ")
	return id
}

// ParseLevel converts a level string to its integer value
func ParseLevel(level string) int {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelWarning
	}
}

// LevelToString converts a level integer to its string representation
func LevelToString(level int) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return "UNKNOWN"
}
