package internal

import (
	"log/slog"
	"strconv"
	"sync/atomic"
)

// Logging switches.
type LogMode struct {
	Quiet   bool // Only warnings and errors.
	Debug   bool // Everything, including debug messages. Wins over Quiet.
	Verbose bool // Include source locations.
}

// Returns the minimum level the mode logs at.
func (m LogMode) Level() slog.Level {
	switch {
	case m.Debug:
		return slog.LevelDebug
	case m.Quiet:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

var mode atomic.Pointer[LogMode]

// Seeds the mode from the linker-provided defaults. Unparsable values count
// as false.
func init() {
	m := LogMode{}
	m.Quiet, _ = strconv.ParseBool(rawQuiet)
	m.Debug, _ = strconv.ParseBool(rawDebug)
	m.Verbose, _ = strconv.ParseBool(rawVerbose)
	mode.Store(&m)
}

// Returns the current logging mode.
func Mode() LogMode {
	return *mode.Load()
}

// Turns on every switch set in flags, keeping the build defaults for the
// rest, and returns the resulting mode.
func ApplyFlags(flags LogMode) LogMode {
	m := Mode()
	m.Quiet = m.Quiet || flags.Quiet
	m.Debug = m.Debug || flags.Debug
	m.Verbose = m.Verbose || flags.Verbose
	mode.Store(&m)
	return m
}
