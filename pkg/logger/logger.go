// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects the level, format and sinks of the logger.
type Config struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	Theme      string `yaml:"theme" mapstructure:"theme"`
	File       string `yaml:"file" mapstructure:"file"` // rotated file sink, off when empty
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`

	Out io.Writer `yaml:"-" mapstructure:"-"` // console sink, stderr when nil
}

// DefaultConfig logs warnings and errors to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:      "warn",
		Format:     FormatConsole,
		Theme:      "dark",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// ParseLevel accepts zerolog level names; an empty string is info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// Init installs the default configuration.
func Init() {
	if err := InitWithConfig(DefaultConfig(), ""); err != nil {
		panic(err)
	}
}

// InitWithConfig replaces the global logger. A non-empty module is
// attached to every event.
func InitWithConfig(cfg *Config, module string) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var console io.Writer
	switch strings.ToLower(cfg.Format) {
	case FormatConsole, "":
		styles := StylesByName(cfg.Theme)
		styles.Out = out
		styles.NoColor = !isTerminal(out)
		console = ConsoleWriterWithStyles(styles)
	case FormatJSON:
		console = out
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	w := console
	if cfg.File != "" {
		w = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}

	zerolog.SetGlobalLevel(lvl)
	ctx := zerolog.New(w).With().Timestamp()
	if module != "" {
		ctx = ctx.Str("module", module)
	}
	log.Logger = ctx.Logger()
	return nil
}

// New returns a child of the global logger tagged with module.
func New(module string) zerolog.Logger {
	return log.Logger.With().Str("module", module).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool { return isTerminal(f) }
