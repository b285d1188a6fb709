package tbf

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger is the diagnostics sink for non-fatal conditions encountered
// while parsing or mutating TBF structures. This allows integration with
// any logging framework; NewLogrusLogger adapts a logrus logger.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Warn logs a warning with optional key-value pairs
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// nopLogger is the default sink; it discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// NewLogrusLogger adapts a logrus logger to the Logger interface.
// Key-value pairs become logrus fields.
//
// Example:
//
//	log := logrus.New()
//	header := tbf.ParseHeader(buf, tbf.WithLogger(tbf.NewLogrusLogger(log)))
func NewLogrusLogger(logger logrus.FieldLogger) Logger {
	return &logrusLogger{logger: logger}
}

type logrusLogger struct {
	logger logrus.FieldLogger
}

func (l *logrusLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(logrusFields(keysAndValues)).Debug(msg)
}

func (l *logrusLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(logrusFields(keysAndValues)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(logrusFields(keysAndValues)).Error(msg)
}

func logrusFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
