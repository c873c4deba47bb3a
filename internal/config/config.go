package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"hiveform-gen/internal/gen"
	"hiveform-gen/internal/markup"
	"hiveform-gen/internal/resolve"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "hiveform.yaml"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete generator configuration.
type Config struct {
	// Root is the directory relative paths are resolved against. It is the
	// directory of the config file when one was loaded.
	Root string `yaml:"-"`

	SourceDirs []string `yaml:"sourceDirs"`
	Extensions []string `yaml:"extensions"`
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`

	OutputDir string `yaml:"outputDir"`
	Colocate  bool   `yaml:"colocate"`

	ContainerTag      string   `yaml:"containerTag"`
	FieldTag          string   `yaml:"fieldTag"`
	ContainerAliases  []string `yaml:"containerAliases"`
	FallbackContext   string   `yaml:"fallbackContext"`
	SynthesizedPrefix string   `yaml:"synthesizedPrefix"`

	Concurrency int       `yaml:"concurrency"`
	Log         LogConfig `yaml:"log"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Root:              ".",
		SourceDirs:        []string{"src"},
		Extensions:        []string{"tsx", "jsx", "ts", "js"},
		Exclude:           []string{"**/node_modules/**", "**/dist/**", "**/*.d.ts"},
		OutputDir:         "form",
		Colocate:          true,
		ContainerTag:      markup.DefaultContainerTag,
		FieldTag:          markup.DefaultFieldTag,
		FallbackContext:   resolve.DefaultFallbackContext,
		SynthesizedPrefix: resolve.DefaultSynthesizedPrefix,
		Concurrency:       8,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFile loads a YAML config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.Root = filepath.Dir(path)

	return cfg, nil
}

// Load loads path, or DefaultFile inside root when path is empty. A missing
// default file is not an error; the defaults are returned instead.
func Load(path, root string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	if root == "" {
		root = "."
	}

	candidate := filepath.Join(root, DefaultFile)
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.Root = root

			return cfg, nil
		}

		return nil, fmt.Errorf("checking %s: %w", candidate, err)
	}

	return LoadFile(candidate)
}

// Parse parses YAML data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults normalizes values and restores defaults for emptied keys.
func applyDefaults(cfg *Config) {
	def := Default()

	if len(cfg.SourceDirs) == 0 {
		cfg.SourceDirs = def.SourceDirs
	}

	if len(cfg.Extensions) == 0 {
		cfg.Extensions = def.Extensions
	}

	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}

	if cfg.ContainerTag == "" {
		cfg.ContainerTag = def.ContainerTag
	}

	if cfg.FieldTag == "" {
		cfg.FieldTag = def.FieldTag
	}

	if cfg.FallbackContext == "" {
		cfg.FallbackContext = def.FallbackContext
	}

	if cfg.SynthesizedPrefix == "" {
		cfg.SynthesizedPrefix = def.SynthesizedPrefix
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}

	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SourceDirs) == 0 {
		errs = append(errs, errors.New("sourceDirs must not be empty"))
	}

	for _, ext := range c.Extensions {
		if ext == "" || strings.ContainsAny(ext, `/\*`) {
			errs = append(errs, fmt.Errorf("extension %q is not a plain file extension", ext))
		}
	}

	if c.OutputDir == "" {
		errs = append(errs, errors.New("outputDir must not be empty"))
	}

	if c.ContainerTag == "" || c.FieldTag == "" {
		errs = append(errs, errors.New("containerTag and fieldTag must not be empty"))
	} else if c.ContainerTag == c.FieldTag {
		errs = append(errs, fmt.Errorf("containerTag and fieldTag must differ (both %q)", c.FieldTag))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// SourceRoots returns SourceDirs resolved against Root.
func (c *Config) SourceRoots() []string {
	roots := make([]string, 0, len(c.SourceDirs))
	for _, dir := range c.SourceDirs {
		roots = append(roots, c.abs(dir))
	}

	return roots
}

// OutputPath returns where modules go when not colocated.
func (c *Config) OutputPath() string {
	if c.Colocate {
		return c.OutputDir
	}

	return c.abs(c.OutputDir)
}

func (c *Config) abs(path string) string {
	if filepath.IsAbs(path) || c.Root == "" {
		return filepath.Clean(path)
	}

	return filepath.Join(c.Root, path)
}

// ResolverConfig returns the resolution settings.
func (c *Config) ResolverConfig() resolve.Config {
	return resolve.Config{
		Classifier: markup.Classifier{
			ContainerTag:     c.ContainerTag,
			FieldTag:         c.FieldTag,
			ContainerAliases: c.ContainerAliases,
		},
		FallbackContext:   c.FallbackContext,
		SynthesizedPrefix: c.SynthesizedPrefix,
	}
}

// GeneratorConfig returns the emission settings.
func (c *Config) GeneratorConfig() gen.GeneratorConfig {
	return gen.GeneratorConfig{
		OutputDir: c.OutputPath(),
		Colocate:  c.Colocate,
	}
}

// Marshal serializes the configuration to YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
