package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, os.Stdout)
}

// SetupWithWriter configures zerolog to write to w. Development gets a
// console writer at debug level; everything else writes JSON at info level.
func SetupWithWriter(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w}
	}

	logger := zerolog.New(w).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}
