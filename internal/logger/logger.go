// Package logger wraps github.com/op/go-logging behind a small interface
// exposing the level methods callers need (Debugf, Notice, Criticalf, ...).
package logger

import (
	"os"

	logging "github.com/op/go-logging"
)

// Logger is the structured logging interface every component receives
// through its constructor.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Notice(args ...interface{})
	Noticef(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})
}

type opLogger struct {
	log *logging.Logger
}

// New creates a Logger backed by op/go-logging, writing to stderr with a
// level controlled by the LOG_LEVEL environment variable (default INFO).
func New(module string) Logger {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter(
		`%{time:2006-01-02T15:04:05.000Z07:00} %{level:.4s} [%{module}] %{message}`,
	)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(levelFromEnv(), module)
	logging.SetBackend(leveled)

	return &opLogger{log: logging.MustGetLogger(module)}
}

func levelFromEnv() logging.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG", "debug":
		return logging.DEBUG
	case "WARNING", "warning":
		return logging.WARNING
	case "ERROR", "error":
		return logging.ERROR
	default:
		return logging.INFO
	}
}

func (l *opLogger) Debugf(format string, args ...interface{})    { l.log.Debugf(format, args...) }
func (l *opLogger) Infof(format string, args ...interface{})     { l.log.Infof(format, args...) }
func (l *opLogger) Notice(args ...interface{})                   { l.log.Notice(args...) }
func (l *opLogger) Noticef(format string, args ...interface{})   { l.log.Noticef(format, args...) }
func (l *opLogger) Warningf(format string, args ...interface{})  { l.log.Warningf(format, args...) }
func (l *opLogger) Error(args ...interface{})                    { l.log.Error(args...) }
func (l *opLogger) Errorf(format string, args ...interface{})    { l.log.Errorf(format, args...) }
func (l *opLogger) Criticalf(format string, args ...interface{}) { l.log.Criticalf(format, args...) }
