package initialize

import (
	"io"
	"os"
	"strings"

	"apnaghar/backend/config"
	"apnaghar/backend/global"

	"github.com/rs/zerolog"
)

// SetupLogger replaces global.Logger according to the log section.
func SetupLogger(cfg config.Log) {
	var w io.Writer = os.Stdout
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	global.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
}
