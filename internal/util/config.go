package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "ember.yaml"

var LogLevels = []string{"debug", "info", "warn", "error", "none"}

type Configuration struct {
	Version   string `yaml:"-"`
	BuildDate string `yaml:"-"`
	Commit    string `yaml:"-"`

	RootPath     string   `yaml:"root"`
	LogLevel     string   `yaml:"log_level"`
	LogFile      string   `yaml:"log_file"`
	MaxCallDepth int      `yaml:"max_call_depth"`
	Modules      []string `yaml:"modules"` // empty enables every module
	DebugAST     bool     `yaml:"debug_ast"`
	HistoryFile  string   `yaml:"history_file"`
}

func Defaults() Configuration {
	return Configuration{
		RootPath:     ".",
		LogLevel:     "none",
		MaxCallDepth: 512,
		HistoryFile:  filepath.Join(os.TempDir(), ".ember_history"),
	}
}

// LoadConfiguration reads a YAML file over the defaults. A missing file is
// only an error when required is set; relative paths in the file resolve
// against the file's directory.
func LoadConfiguration(path string, required bool) (Configuration, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	baseDir := filepath.Dir(path)
	for _, p := range []*string{&cfg.RootPath, &cfg.LogFile, &cfg.HistoryFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}

	return cfg, cfg.Validate()
}

func (c Configuration) Validate() error {
	if !slices.Contains(LogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level %q, want one of %s", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	if c.MaxCallDepth < 1 {
		return fmt.Errorf("max_call_depth must be positive, got %d", c.MaxCallDepth)
	}
	return nil
}
