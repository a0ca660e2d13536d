// Package logger is a small process-wide leveled logger writing to a file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Environment variables configuring the default log file and level.
const (
	envLogPath  = "CALLCACHE_LOG"
	envLogLevel = "CALLCACHE_LOG_LEVEL"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps debug/info/warn/error (any case) to a Level; unknown
// names mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	mu      sync.Mutex
	std     *log.Logger
	logFile *os.File
	minimum = LevelInfo
)

// InitFromEnv initializes the logger using CALLCACHE_LOG or a file next to
// the executable, and CALLCACHE_LOG_LEVEL.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	if path == "" {
		if exePath, err := os.Executable(); err == nil {
			path = filepath.Join(filepath.Dir(exePath), "callcache.log")
		} else {
			path = "./callcache.log"
		}
	}
	SetLevel(ParseLevel(os.Getenv(envLogLevel)))
	return Init(path)
}

// Init opens path in append mode, creating parent directories if needed.
// Calling it again after a successful Init is a no-op.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if std != nil {
		return nil
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	std = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	return nil
}

// SetOutput sends log lines to w instead of a file.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std = log.New(w, "", 0)
}

func SetLevel(l Level) {
	mu.Lock()
	minimum = l
	mu.Unlock()
}

// Close closes the underlying log file, if open, and resets the logger.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	std = nil
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

func Debugf(format string, args ...any) { write(LevelDebug, format, args...) }
func Infof(format string, args ...any)  { write(LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { write(LevelWarn, format, args...) }
func Errorf(format string, args ...any) { write(LevelError, format, args...) }

func write(level Level, format string, args ...any) {
	mu.Lock()
	l, threshold := std, minimum
	mu.Unlock()
	if l == nil || level < threshold {
		return
	}
	l.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
