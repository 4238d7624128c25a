// Package logging provides the zerolog implementation of apikit.Logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Format values accepted by Config.Format.
const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the logger level, format and output.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// Logger wraps zerolog.Logger.
type Logger struct {
	logger zerolog.Logger
}

// New creates a logger. An empty level means info; an empty or "auto"
// format writes console output on a terminal and JSON otherwise.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if useConsole(cfg.Format, output) {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	return &Logger{
		logger: zerolog.New(output).Level(level).With().Timestamp().Logger(),
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}

func useConsole(format string, output io.Writer) bool {
	switch strings.ToLower(format) {
	case FormatConsole:
		return true
	case FormatJSON:
		return false
	}

	file, ok := output.(*os.File)

	return ok && term.IsTerminal(int(file.Fd()))
}
