package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultFile is read from the working directory when present
	DefaultFile = "archmodel.toml"

	envPrefix = "ARCHMODEL_"
)

// Config holds all configuration for the application
type Config struct {
	Project      string `koanf:"project"`  // Project JSON file
	Port         int    `koanf:"port"`     // HTTP port for serve
	Watch        bool   `koanf:"watch"`    // Reload the project when the file changes on disk
	Autosave     bool   `koanf:"autosave"` // Write the project after every committed edit
	HistoryLimit int    `koanf:"history"`  // Undo steps kept per session
	Title        string `koanf:"title"`    // Script header title
	Verbosity    string `koanf:"verbosity"`
	JSONLogs     bool   `koanf:"json"`
}

// Defaults returns the built-in configuration
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"project":   "project.json",
		"port":      8080,
		"watch":     false,
		"autosave":  false,
		"history":   50,
		"title":     "",
		"verbosity": "info",
		"json":      false,
	}
}

// Load loads configuration from defaults, DefaultFile, environment variables and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(f, DefaultFile)
}

// LoadFile is Load with an explicit config file path. A missing file is not
// an error; a file that fails to parse is.
func LoadFile(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// ARCHMODEL_PORT=9090, ARCHMODEL_HISTORY=100, ...
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return &cfg, nil
}

// RegisterFlags adds the flags Load understands to fs. Flag names match the
// config keys so posflag can map them directly.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.StringP("project", "p", d["project"].(string), "project JSON file")
	fs.Int("port", d["port"].(int), "HTTP port")
	fs.BoolP("watch", "w", d["watch"].(bool), "reload the project when the file changes")
	fs.Bool("autosave", d["autosave"].(bool), "save the project after every edit")
	fs.Int("history", d["history"].(int), "number of undo steps to keep")
	fs.String("title", d["title"].(string), "script header title")
	fs.StringP("verbosity", "v", d["verbosity"].(string), "log level: trace, debug, info, warn, error")
	fs.Bool("json", d["json"].(bool), "log as JSON")
}

// mapProvider serves an in-memory map to koanf
type mapProvider map[string]interface{}

func (p mapProvider) Read() (map[string]interface{}, error) {
	return p, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("not implemented")
}
