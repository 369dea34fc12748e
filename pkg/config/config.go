// Package config loads kitty tool configuration from YAML or TOML files,
// with environment overrides and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/kitty/pkg/parser"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "KITTY_CONFIG"

// Config holds the complete configuration.
type Config struct {
	Server ServerConfig `yaml:"server" toml:"server"`
	Parser ParserConfig `yaml:"parser" toml:"parser"`
	Output OutputConfig `yaml:"output" toml:"output"`
	Repl   ReplConfig   `yaml:"repl" toml:"repl"`
}

// ServerConfig configures `kitty serve`.
type ServerConfig struct {
	Host            string   `yaml:"host" toml:"host"`
	Port            int      `yaml:"port" toml:"port"`
	GRPCPort        int      `yaml:"grpc_port" toml:"grpc_port"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	DisableUI       bool     `yaml:"disable_ui" toml:"disable_ui"`
}

// ParserConfig configures parsing everywhere sources are parsed.
type ParserConfig struct {
	MaxSourceSize int `yaml:"max_source_size" toml:"max_source_size"` // negative disables the limit
}

// OutputConfig configures CLI rendering.
type OutputConfig struct {
	Format  string `yaml:"format" toml:"format"` // text, json or yaml
	NoColor bool   `yaml:"no_color" toml:"no_color"`
}

// ReplConfig configures `kitty repl`.
type ReplConfig struct {
	Prompt      string `yaml:"prompt" toml:"prompt"`
	HistoryFile string `yaml:"history_file" toml:"history_file"`
}

// Duration wraps time.Duration so it can be written as "5s" in files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the file at path. The format follows the extension: .yaml and
// .yml are YAML, .toml is TOML. Defaults fill whatever the file leaves out.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .yaml, .yml or .toml)", ext)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads the file named by KITTY_CONFIG, or the defaults if the
// variable is unset.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// ApplyEnv overrides server settings from HOST, PORT and GRPC_PORT.
func (c *Config) ApplyEnv() error {
	c.Server.Host = envOrDefault("HOST", c.Server.Host)

	for _, v := range []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Server.Port},
		{"GRPC_PORT", &c.Server.GRPCPort},
	} {
		s := os.Getenv(v.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", v.key, s, err)
		}
		*v.dst = n
	}
	return c.Validate()
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	for name, port := range map[string]int{"port": c.Server.Port, "grpc_port": c.Server.GRPCPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("server.%s %d out of range", name, port)
		}
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("output.format %q is not one of text, json, yaml", c.Output.Format)
	}
	return nil
}

// ParserOptions returns the parser options implied by the configuration.
func (c *Config) ParserOptions() []parser.Option {
	return []parser.Option{parser.WithMaxSourceSize(c.Parser.MaxSourceSize)}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 8788
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 10 * time.Second
	}

	if c.Parser.MaxSourceSize == 0 {
		c.Parser.MaxSourceSize = parser.MaxSourceSize
	}

	if c.Output.Format == "" {
		c.Output.Format = "text"
	}

	if c.Repl.Prompt == "" {
		c.Repl.Prompt = "kitty> "
	}
	if c.Repl.HistoryFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Repl.HistoryFile = filepath.Join(home, ".kitty_history")
		}
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
