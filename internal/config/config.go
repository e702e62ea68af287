// Package config loads optional spellbook.toml settings.
//
// Precedence is flags, then file values, then defaults. The CLI applies
// flags on top of the Config returned here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/roach88/spellbook/internal/engine"
	"github.com/roach88/spellbook/internal/session"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = "spellbook.toml"

// Config holds interpreter and storage settings.
type Config struct {
	Mode                string `toml:"mode"`
	MaxCommands         int    `toml:"max_commands"`
	FirstRelationAsRoot bool   `toml:"first_relation_as_root"`
	InteriorCycles      bool   `toml:"interior_cycles"`

	// Database is the SQLite transcript log. Empty disables recording.
	Database string `toml:"database"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Mode:        string(session.ModePlain),
		MaxCommands: session.DefaultMaxCommands,
	}
}

// Load reads and parses a TOML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads path, or DefaultFileName when path is empty. A missing
// default file yields Default(); a missing explicit file is an error.
// The second result is the file actually read, or "".
func Discover(path string) (*Config, string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	cfg, err := Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), "", nil
	}
	return nil, "", err
}

// Parse parses TOML content. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := session.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.MaxCommands < 0 {
		return fmt.Errorf("max_commands must be non-negative, got %d", c.MaxCommands)
	}
	return nil
}

// SessionMode returns the parsed mode. Call Validate first.
func (c *Config) SessionMode() session.Mode {
	m, err := session.ParseMode(c.Mode)
	if err != nil {
		return session.ModePlain
	}
	return m
}

// EngineOptions translates the cycle-search switches.
func (c *Config) EngineOptions() []engine.EngineOption {
	var opts []engine.EngineOption
	if c.FirstRelationAsRoot {
		opts = append(opts, engine.WithFirstRelationAsRoot())
	}
	if c.InteriorCycles {
		opts = append(opts, engine.WithInteriorCycles())
	}
	return opts
}

// SessionOptions returns the session options this config implies.
func (c *Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithMode(c.SessionMode()),
		session.WithMaxCommands(c.MaxCommands),
		session.WithEngineOptions(c.EngineOptions()...),
	}
}
