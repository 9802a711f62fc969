package logger

import (
	"fmt"
	"log"
	"os"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

// Logger is a leveled logger with an optional component tag.
// A Logger built on a nil *log.Logger discards everything except Fatalf.
type Logger struct {
	logger *log.Logger
	level  LogLevel
	tag    string
}

func NewLogger(logger *log.Logger, level LogLevel) *Logger {
	return &Logger{
		logger: logger,
		level:  level,
	}
}

// NewStdLogger picks the output format the same way for both controllers:
// bare lines under systemd (which timestamps on its own), timestamps otherwise.
func NewStdLogger(level LogLevel) *Logger {
	var std *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		std = log.New(os.Stdout, "", 0)
	} else {
		std = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}
	return NewLogger(std, level)
}

// WithTag creates a new logger with a tag prefix
func (l *Logger) WithTag(tag string) *Logger {
	return &Logger{
		logger: l.logger,
		level:  l.level,
		tag:    tag,
	}
}

func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) formatMessage(level string, format string) string {
	if l.tag != "" {
		if level != "" {
			return "[" + l.tag + "] " + level + " " + format
		}
		return "[" + l.tag + "] " + format
	}
	if level != "" {
		return level + " " + format
	}
	return format
}

func (l *Logger) output(min LogLevel, level, format string, v ...interface{}) {
	if l == nil || l.logger == nil || l.level < min {
		return
	}
	l.logger.Printf(l.formatMessage(level, format), v...)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.output(LogLevelDebug, "DEBUG:", format, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.output(LogLevelInfo, "", format, v...)
}

// Printf is an alias for Infof for compatibility
func (l *Logger) Printf(format string, v ...interface{}) {
	l.Infof(format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.output(LogLevelWarning, "WARN:", format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.output(LogLevelError, "ERROR:", format, v...)
}

func (l *Logger) Fatalf(format string, v ...interface{}) {
	if l == nil || l.logger == nil {
		fmt.Fprintf(os.Stderr, "FATAL: "+format+"\n", v...)
		os.Exit(1)
	}
	l.logger.Fatalf(l.formatMessage("FATAL:", format), v...)
}
