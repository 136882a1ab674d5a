package voxelverse

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// Named returns a logger whose lines carry name after the current prefix.
	Named(name string) Logger
}

// DefaultLogger writes debug and info lines to one writer and warnings and
// errors to another, each as "[prefix] LEVEL: message". Named children share
// the writers and the debug switch of their parent.
type DefaultLogger struct {
	level  *debugSwitch
	prefix string
	out    *log.Logger
	err    *log.Logger
}

type debugSwitch struct {
	mu sync.Mutex
	on bool
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLogger(os.Stdout, os.Stderr, prefix, debug)
}

func NewLogger(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		level:  &debugSwitch{on: debug},
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.level.mu.Lock()
	defer l.level.mu.Unlock()
	return l.level.on
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.level.mu.Lock()
	l.level.on = enabled
	l.level.mu.Unlock()
}

func (l *DefaultLogger) Named(name string) Logger {
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	return &DefaultLogger{level: l.level, prefix: prefix, out: l.out, err: l.err}
}

func (l *DefaultLogger) line(level string, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		return level + ": " + msg
	}
	return "[" + l.prefix + "] " + level + ": " + msg
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.line("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.line("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.line("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.line("ERROR", format, args...))
}

// LoggingModule installs a logger as a resource. Logger overrides the
// default stdout/stderr logger when set.
type LoggingModule struct {
	Prefix string
	Debug  bool
	Logger *DefaultLogger
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	logger := m.Logger
	if logger == nil {
		logger = NewDefaultLogger(m.Prefix, m.Debug)
	}
	cmd.AddResources(logger)
}

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
func (n nopLogger) Named(string) Logger { return n }

// Logger returns the installed logger, or a no-op logger when LoggingModule
// is absent. Never nil.
func (app *App) Logger() Logger {
	if app == nil {
		return NewNopLogger()
	}
	if l := Resource[DefaultLogger](app); l != nil {
		return l
	}
	return NewNopLogger()
}
