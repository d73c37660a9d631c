package global

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the only process-wide object; everything else is built by
// initialize.Build and passed explicitly.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
