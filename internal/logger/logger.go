// Package logger is a thin layer over logrus that gives every component the
// same entry point: a package-level base logger plus per-component entries
// created with WithField("component", ...).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the per-component logging handle.
type Logger = logrus.Entry

// Fields is a set of structured key/value pairs attached to a log line.
type Fields = logrus.Fields

var base = newBase()

// Log is the root entry, used by code that does not carry a component name.
var Log = logrus.NewEntry(base)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	return l
}

// WithField returns an entry carrying a single field.
func WithField(key string, value interface{}) *Logger {
	return Log.WithField(key, value)
}

// WithFields returns an entry carrying all of the given fields.
func WithFields(fields Fields) *Logger {
	return Log.WithFields(fields)
}

// WithError returns an entry carrying err under the "error" key.
func WithError(err error) *Logger {
	return Log.WithError(err)
}

// SetLevel parses level ("trace", "debug", "info", ...) and applies it.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	base.SetLevel(lvl)
	return nil
}

// SetFormat switches between the "text" and "json" formatters.
func SetFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// SetOutput redirects all log output, mostly useful in tests.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

func Trace(args ...interface{})                 { Log.Trace(args...) }
func Tracef(format string, args ...interface{}) { Log.Tracef(format, args...) }
func Debug(args ...interface{})                 { Log.Debug(args...) }
func Debugf(format string, args ...interface{}) { Log.Debugf(format, args...) }
func Info(args ...interface{})                  { Log.Info(args...) }
func Infof(format string, args ...interface{})  { Log.Infof(format, args...) }
func Warn(args ...interface{})                  { Log.Warn(args...) }
func Warnf(format string, args ...interface{})  { Log.Warnf(format, args...) }
func Error(args ...interface{})                 { Log.Error(args...) }
func Errorf(format string, args ...interface{}) { Log.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { Log.Fatalf(format, args...) }
