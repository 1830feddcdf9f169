package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	env string
	log zerolog.Logger
}

// New builds a console logger for dev and a JSON logger everywhere else.
// level is a zerolog level name; an empty or unknown level means info.
func New(env, level string) *Logger {
	return NewWithWriter(env, level, os.Stdout)
}

// Nop discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{env: "test", log: zerolog.Nop()}
}

// NewWithWriter is New writing to out instead of stdout.
func NewWithWriter(env, level string, out io.Writer) *Logger {
	var zl zerolog.Logger

	if env == "dev" {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(out).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return &Logger{
		env: env,
		log: zl.Level(lvl),
	}
}

// Zerolog exposes the underlying logger for clients that log with fields.
func (l *Logger) Zerolog() zerolog.Logger { return l.log }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log.Fatal().Msgf(format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		env: l.env,
		log: l.log.With().Interface(key, value).Logger(),
	}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{
		env: l.env,
		log: ctx.Logger(),
	}
}
