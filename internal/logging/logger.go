// Package logging provides the application's minimal printf-style logging
// contract plus a file-backed default implementation. Components obtain a
// scoped logger through NewComponentLogger; tests use Nop.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

var (
	sinkMu sync.Mutex
	sink   *fileSink
)

type fileSink struct {
	mu     sync.Mutex
	logger *log.Logger
	file   *os.File
	level  Level
}

// Configure points the default sink at path with the given minimum level.
// Call it once at startup, before components log; later component loggers
// share the sink.
func Configure(path string, level string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, path[2:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink != nil && sink.file != nil {
		_ = sink.file.Close()
	}
	sink = &fileSink{
		logger: log.New(f, "", log.LstdFlags),
		file:   f,
		level:  ParseLevel(level),
	}
	return nil
}

// ParseLevel maps a level name to its Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func defaultSink() *fileSink {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink == nil {
		// Unconfigured processes (tests, mostly) log nowhere.
		sink = &fileSink{level: INFO}
	}
	return sink
}

func (s *fileSink) emit(level Level, component, format string, args ...any) {
	if s.logger == nil || level < s.level {
		return
	}
	names := [...]string{"DEBUG", "INFO", "WARN", "ERROR"}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Printf("[%s] [%s] %s", names[level], component, fmt.Sprintf(format, args...))
}

type componentLogger struct {
	component string
}

func (c *componentLogger) Debug(format string, args ...any) {
	defaultSink().emit(DEBUG, c.component, format, args...)
}

func (c *componentLogger) Info(format string, args ...any) {
	defaultSink().emit(INFO, c.component, format, args...)
}

func (c *componentLogger) Warn(format string, args ...any) {
	defaultSink().emit(WARN, c.component, format, args...)
}

func (c *componentLogger) Error(format string, args ...any) {
	defaultSink().emit(ERROR, c.component, format, args...)
}

// NewComponentLogger returns the default application logger scoped to a
// component.
func NewComponentLogger(component string) Logger {
	return &componentLogger{component: component}
}
