// Package config handles zdump.toml configuration for the zdump CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

// FileName is the configuration file FindAndLoad looks for.
const FileName = "zdump.toml"

// Config is a zdump.toml configuration.
type Config struct {
	Story  string `toml:"story"`
	Log    Log    `toml:"log"`
	Output Output `toml:"output"`
	Scan   Scan   `toml:"scan"`

	// Dir is the directory containing the file, empty for defaults.
	Dir string `toml:"-"`
}

// Log configures logging.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Output selects the listing format and destination.
type Output struct {
	Format string `toml:"format"` // text, json, cbor or sqlite
	Path   string `toml:"path"`   // empty writes to stdout
}

// Scan configures the worker pool.
type Scan struct {
	Workers int `toml:"workers"` // 0 uses every CPU
	Count   int `toml:"count"`   // instructions per disassembly run
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Output: Output{Format: "text"},
		Scan:   Scan{Count: 16},
	}
}

// Load parses the configuration file at path. Keys it leaves out keep
// their defaults. A relative story path is taken relative to the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config: cannot resolve path %s: %w", path, err)
	}

	if c.Story != "" && !filepath.IsAbs(c.Story) {
		c.Story = filepath.Join(c.Dir, c.Story)
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Scan.Count <= 0 {
		c.Scan.Count = 16
	}
	if c.Scan.Workers < 0 {
		return nil, fmt.Errorf("config: %s: scan.workers is negative", path)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a zdump.toml file and loads
// it. Without one it returns Default().
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// BindFlags registers flags that override c. The current values of c are
// the flag defaults, so only flags given on the command line change it.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Story, "story", "s", c.Story, "story file")
	verbosity := c.Log.Verbosity
	fs.CountVarP(&c.Log.Verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	c.Log.Verbosity = verbosity
	fs.StringVarP(&c.Output.Format, "format", "f", c.Output.Format, "output format: text, json, cbor, sqlite")
	fs.StringVarP(&c.Output.Path, "output", "o", c.Output.Path, "output file (default stdout)")
	fs.IntVar(&c.Scan.Workers, "workers", c.Scan.Workers, "scan workers (0 = all CPUs)")
}
