// Package logging adapts the module's Printf-shaped logging contract to
// a concrete structured-logging backend.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a generic interface compatible with stdlib log.Logger and
// easily adapted to other logging frameworks. It matches the contract
// the message middleware chain already expects.
type Logger interface {
	Printf(format string, v ...interface{})
}

// zerologLogger adapts zerolog.Logger to the Printf-shaped Logger
// interface used throughout the module.
type zerologLogger struct {
	level zerolog.Level
	log   zerolog.Logger
}

// NewZerolog returns a Logger backed by zerolog, writing to w at the
// given level. Pass os.Stdout and zerolog.InfoLevel for a sensible
// default.
func NewZerolog(w io.Writer, level zerolog.Level) Logger {
	return &zerologLogger{
		level: level,
		log:   zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// Default returns a zerolog logger writing human-readable console
// output to stdout at info level. Client and PlantWorker default to NoOp
// and use this only when it is passed to their WithLogger option.
func Default() Logger {
	console := zerolog.ConsoleWriter{Out: os.Stdout}
	return NewZerolog(console, zerolog.InfoLevel)
}

func (l *zerologLogger) Printf(format string, v ...interface{}) {
	l.log.WithLevel(l.level).Msg(fmt.Sprintf(format, v...))
}

// Levels bundles one Logger per zerolog level over a shared writer, for
// a caller that picks a level per call site while sharing one sink.
// PlantWorker does not use it; it logs every message through its single
// Logger.
type Levels struct {
	Debug Logger
	Info  Logger
	Warn  Logger
	Error Logger
}

// NewLevels wraps a zerolog.Logger and returns one Logger per level.
func NewLevels(base zerolog.Logger) Levels {
	return Levels{
		Debug: &zerologLogger{level: zerolog.DebugLevel, log: base},
		Info:  &zerologLogger{level: zerolog.InfoLevel, log: base},
		Warn:  &zerologLogger{level: zerolog.WarnLevel, log: base},
		Error: &zerologLogger{level: zerolog.ErrorLevel, log: base},
	}
}

// NoOp is a Logger that discards everything, for tests that don't care
// about log output.
func NoOp() Logger { return noOpLogger{} }

type noOpLogger struct{}

func (noOpLogger) Printf(string, ...interface{}) {}
