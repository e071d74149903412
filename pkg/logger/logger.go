package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	FieldComponent = "component"
)

// Config controls log level and output format.
type Config struct {
	Level   string `mapstructure:"log_level" json:"log_level,omitempty"`
	Format  string `mapstructure:"log_format" json:"log_format,omitempty"`
	NoColor bool   `mapstructure:"log_no_color" json:"log_no_color,omitempty"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
}

// New builds a logger writing to w. Unknown levels fall back to info.
func New(cfg Config, w io.Writer) zerolog.Logger {
	cfg.ApplyDefaults()

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if strings.ToLower(cfg.Format) == FormatJSON {
		zl = zerolog.New(w)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    cfg.NoColor,
			TimeFormat: time.Kitchen,
		})
	}
	return zl.Level(level).With().Timestamp().Logger()
}

// Init configures the global logger on stderr and returns it.
func Init(cfg Config) zerolog.Logger {
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	log.Logger = New(cfg, os.Stderr)
	return log.Logger
}

// Component returns l tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(FieldComponent, name).Logger()
}
