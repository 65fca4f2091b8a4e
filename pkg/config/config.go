// Package config loads huffarc settings from a YAML file and the
// environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"huffarc/pkg/bitio"
	"huffarc/pkg/core"
	"huffarc/pkg/huffman"
	"huffarc/pkg/logger"
)

const (
	EnvPrefix = "HUFFARC_"
	EnvConfig = EnvPrefix + "CONFIG"
)

// Config holds the defaults of the command line. Flags override them.
type Config struct {
	WordSize           int            `yaml:"word_size" mapstructure:"word_size"`
	BufferSize         int            `yaml:"buffer_size" mapstructure:"buffer_size"`
	SmallFileThreshold int64          `yaml:"small_file_threshold" mapstructure:"small_file_threshold"`
	SmallFilePolicy    string         `yaml:"small_file_policy" mapstructure:"small_file_policy"`
	ArchiveName        string         `yaml:"archive_name" mapstructure:"archive_name"`
	Progress           bool           `yaml:"progress" mapstructure:"progress"`
	Log                *logger.Config `yaml:"log" mapstructure:"log"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		WordSize:           core.DefaultWordSize,
		BufferSize:         bitio.DefaultBufferSize,
		SmallFileThreshold: core.DefaultSmallFileThreshold,
		SmallFilePolicy:    core.PolicyAsk.String(),
		ArchiveName:        core.DefaultArchiveName,
		Progress:           true,
		Log:                logger.DefaultConfig(),
	}
}

// Load reads a YAML file on top of the defaults. ${VAR} references are
// expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	data = replaceEnvVars(data)

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv overlays prefixed environment variables on cfg, or on the
// defaults when cfg is nil.
func LoadFromEnv(cfg *Config, prefix string) *Config {
	if cfg == nil {
		cfg = Default()
	}
	cfg.WordSize = getenvInt(prefix+"WORD_SIZE", cfg.WordSize)
	cfg.BufferSize = getenvInt(prefix+"BUFFER_SIZE", cfg.BufferSize)
	cfg.SmallFileThreshold = int64(getenvInt(prefix+"SMALL_FILE_THRESHOLD", int(cfg.SmallFileThreshold)))
	cfg.SmallFilePolicy = getenvStr(prefix+"SMALL_FILE_POLICY", cfg.SmallFilePolicy)
	cfg.ArchiveName = getenvStr(prefix+"ARCHIVE_NAME", cfg.ArchiveName)
	cfg.Progress = getenvBool(prefix+"PROGRESS", cfg.Progress)

	if cfg.Log == nil {
		cfg.Log = logger.DefaultConfig()
	}
	cfg.Log.Level = getenvStr(prefix+"LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenvStr(prefix+"LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getenvStr(prefix+"LOG_FILE", cfg.Log.File)
	return cfg
}

// LoadWithFallback loads path, or the file named by HUFFARC_CONFIG when
// path is empty, and overlays the environment. Without a file the
// defaults are used.
func LoadWithFallback(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	return LoadFromEnv(cfg, EnvPrefix), nil
}

// Validate reports every invalid setting at once.
func (cfg *Config) Validate() error {
	var invalid []string
	if err := huffman.ValidateWordSize(cfg.WordSize); err != nil {
		invalid = append(invalid, fmt.Sprintf("word_size(%d)", cfg.WordSize))
	}
	if cfg.BufferSize <= 0 {
		invalid = append(invalid, fmt.Sprintf("buffer_size(%d)", cfg.BufferSize))
	}
	if cfg.SmallFileThreshold < 0 {
		invalid = append(invalid, fmt.Sprintf("small_file_threshold(%d)", cfg.SmallFileThreshold))
	}
	if _, err := core.ParsePolicy(cfg.SmallFilePolicy); err != nil {
		invalid = append(invalid, fmt.Sprintf("small_file_policy(%q)", cfg.SmallFilePolicy))
	}
	if strings.TrimSpace(cfg.ArchiveName) == "" {
		invalid = append(invalid, "archive_name")
	}
	if cfg.Log != nil {
		if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
			invalid = append(invalid, fmt.Sprintf("log.level(%q)", cfg.Log.Level))
		}
		switch strings.ToLower(cfg.Log.Format) {
		case "", logger.FormatConsole, logger.FormatJSON:
		default:
			invalid = append(invalid, fmt.Sprintf("log.format(%q)", cfg.Log.Format))
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Options converts the settings into pipeline options.
func (cfg *Config) Options() (core.Options, error) {
	policy, err := core.ParsePolicy(cfg.SmallFilePolicy)
	if err != nil {
		return core.Options{}, err
	}
	opts := core.DefaultOptions()
	opts.WordSize = cfg.WordSize
	opts.BufferSize = cfg.BufferSize
	opts.SmallFileThreshold = cfg.SmallFileThreshold
	opts.Policy = policy
	opts.Progress = cfg.Progress
	return opts, nil
}

func (cfg *Config) String() string {
	data, _ := yaml.Marshal(cfg)
	return string(data)
}

func (cfg *Config) Dump(w io.Writer) {
	_, _ = io.WriteString(w, cfg.String())
}

// ----------------------------------------------------
// Env helpers
// ----------------------------------------------------

func getenvStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

// replaceEnvVars replaces ${ENV_VAR} with values from os.Getenv.
func replaceEnvVars(data []byte) []byte {
	return []byte(os.Expand(string(data), os.Getenv))
}
