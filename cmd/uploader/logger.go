package main

import (
	"io"
	"time"

	// Packages
	zerolog "github.com/rs/zerolog"
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// newLogger returns a console logger, or a JSON logger when json is set
func newLogger(w io.Writer, json, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
