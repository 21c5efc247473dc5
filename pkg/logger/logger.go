package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the structured logging interface used across the service.
// Key/value pairs alternate: ("orderNumber", number, "userID", id).
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

type zeroLogger struct {
	log zerolog.Logger
}

// NewLogger creates a zerolog-backed logger with the specified level.
func NewLogger(level string) Logger {
	var l zerolog.Level

	switch strings.ToLower(level) {
	case "debug":
		l = zerolog.DebugLevel
	case "info":
		l = zerolog.InfoLevel
	case "warn":
		l = zerolog.WarnLevel
	case "error":
		l = zerolog.ErrorLevel
	default:
		l = zerolog.InfoLevel
	}

	zl := zerolog.New(os.Stdout).Level(l).With().Timestamp().Logger()

	return &zeroLogger{log: zl}
}

func (z *zeroLogger) Debug(msg string, keyvals ...interface{}) {
	withFields(z.log.Debug(), keyvals).Msg(msg)
}

func (z *zeroLogger) Info(msg string, keyvals ...interface{}) {
	withFields(z.log.Info(), keyvals).Msg(msg)
}

func (z *zeroLogger) Warn(msg string, keyvals ...interface{}) {
	withFields(z.log.Warn(), keyvals).Msg(msg)
}

func (z *zeroLogger) Error(msg string, keyvals ...interface{}) {
	withFields(z.log.Error(), keyvals).Msg(msg)
}

func withFields(ev *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)

		if !ok {
			key = fmt.Sprintf("%v", keyvals[i])
		}

		if i+1 < len(keyvals) {
			ev = ev.Interface(key, keyvals[i+1])
		} else {
			ev = ev.Str(key, "missing")
		}
	}

	return ev
}
