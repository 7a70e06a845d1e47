// Package logger provides structured logging for the build front end.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used throughout the tool.
type Logger interface {
	Debug(message string, fields ...Field)
	Info(message string, fields ...Field)
	// Notice is informational output that should be visible at the
	// default level, used for mode announcements like strict builds.
	Notice(message string, fields ...Field)
	Warn(message string, fields ...Field)
	Error(message string, fields ...Field)
}

// Field represents a structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a new field.
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Options controls logger construction.
type Options struct {
	// Out is the log sink. Defaults to os.Stderr.
	Out io.Writer
	// Level is a logrus level name; invalid values fall back to info.
	Level string
	// Colorful enables ANSI colors in the output.
	Colorful bool
	// Quiet discards all log output.
	Quiet bool
	// Strict escalates warnings to errors.
	Strict bool
}

// stderrLogger wraps logrus with the formatter and strict handling.
type stderrLogger struct {
	logger *logrus.Logger
	strict bool
}

// formatter renders entries as "[LEVEL] Nikola: message {fields}" lines.
type formatter struct {
	DisableColors bool
}

// Format implements logrus.Formatter.
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var levelColor *color.Color
	var levelText string

	switch entry.Level {
	case logrus.ErrorLevel:
		levelColor = color.New(color.FgRed, color.Bold)
		levelText = "ERROR"
	case logrus.WarnLevel:
		levelColor = color.New(color.FgYellow, color.Bold)
		levelText = "WARNING"
	case logrus.DebugLevel:
		levelColor = color.New(color.FgWhite, color.Faint)
		levelText = "DEBUG"
	default:
		levelColor = color.New(color.FgCyan)
		levelText = "INFO"
	}

	var output string
	if f.DisableColors {
		output = fmt.Sprintf("[%s] Nikola: %s", levelText, entry.Message)
	} else {
		output = fmt.Sprintf("[%s] Nikola: %s", levelColor.Sprint(levelText), entry.Message)
	}

	if len(entry.Data) > 0 {
		fields := " {"
		first := true
		for k, v := range entry.Data {
			if !first {
				fields += ", "
			}
			fields += fmt.Sprintf("%s=%v", k, v)
			first = false
		}
		fields += "}"
		if f.DisableColors {
			output += fields
		} else {
			output += color.New(color.FgWhite, color.Faint).Sprint(fields)
		}
	}

	return []byte(output + "\n"), nil
}

// New creates a logger according to opts.
func New(opts Options) Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&formatter{DisableColors: !opts.Colorful})

	out := opts.Out
	if out == nil {
		out = io.Writer(os.Stderr)
	}
	if opts.Quiet {
		out = io.Discard
	}
	log.SetOutput(out)

	return &stderrLogger{logger: log, strict: opts.Strict}
}

// convertFields converts a Field slice to logrus.Fields.
func convertFields(fields []Field) logrus.Fields {
	result := make(logrus.Fields)
	for _, f := range fields {
		result[f.Key] = f.Value
	}
	return result
}

func (l *stderrLogger) Debug(message string, fields ...Field) {
	l.logger.WithFields(convertFields(fields)).Debug(message)
}

func (l *stderrLogger) Info(message string, fields ...Field) {
	l.logger.WithFields(convertFields(fields)).Info(message)
}

func (l *stderrLogger) Notice(message string, fields ...Field) {
	l.logger.WithFields(convertFields(fields)).Info(message)
}

// Warn logs a warning. In strict mode the entry is recorded as an
// error instead, so warnings surface the way failures do.
func (l *stderrLogger) Warn(message string, fields ...Field) {
	if l.strict {
		l.logger.WithFields(convertFields(fields)).Error(message)
		return
	}
	l.logger.WithFields(convertFields(fields)).Warn(message)
}

func (l *stderrLogger) Error(message string, fields ...Field) {
	l.logger.WithFields(convertFields(fields)).Error(message)
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() Logger {
	return New(Options{Out: io.Discard, Quiet: true})
}
