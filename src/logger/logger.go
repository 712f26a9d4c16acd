package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent).
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs. Info and debug lines go to
// stdout, warnings and errors to stderr.
type ConsoleLogger struct {
	mu    sync.Mutex
	out   io.Writer
	err   io.Writer
	debug bool
}

// NewConsoleLogger creates a logger that drops debug lines.
func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{out: os.Stdout, err: os.Stderr}
}

// NewDebugLogger creates a console logger that also prints debug lines.
func NewDebugLogger() *ConsoleLogger {
	return &ConsoleLogger{out: os.Stdout, err: os.Stderr, debug: true}
}

// NewWriterLogger writes every level, debug included, to w.
func NewWriterLogger(w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{out: w, err: w, debug: true}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.write(c.out, "INFO", msg, args)
}

func (c *ConsoleLogger) Warn(msg string, args ...interface{}) {
	c.write(c.err, "WARN", msg, args)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.write(c.err, "ERROR", msg, args)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.debug {
		return
	}
	c.write(c.out, "DEBUG", msg, args)
}

func (c *ConsoleLogger) write(w io.Writer, level, msg string, args []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	fmt.Fprintf(w, "[%s] %s\n", level, msg)
}

// SilentLogger discards all log messages.
// Used when running in TUI or MCP stdio mode, where stdout belongs to the UI or protocol.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Warn(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
