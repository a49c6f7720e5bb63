// Package config provides configuration for the promptlib engine.
package config

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dpshade/promptlib/internal/validation"
)

// Config is the explicit configuration handed to the engine at construction
type Config struct {
	// Root is the library root every other path is relative to
	Root string `koanf:"root"`
	// PromptDirs are scanned in order
	PromptDirs []string `koanf:"prompt_dirs"`
	Extension  string   `koanf:"extension"`
	// Exemptions are doublestar globs matched against a file's base name and
	// its root-relative path; matches are never indexed
	Exemptions     []string `koanf:"exemptions"`
	MetadataDir    string   `koanf:"metadata_dir"`
	IndexFile      string   `koanf:"index_file"`
	OverviewFile   string   `koanf:"overview_file"`
	RequiredFields []string `koanf:"required_fields"`

	Listing ListingConfig `koanf:"listing"`
	Watch   WatchConfig   `koanf:"watch"`
	Log     LogConfig     `koanf:"log"`

	// Workers bounds the per-document worker pool; 1 processes serially
	Workers int `koanf:"workers"`
}

// ListingConfig controls the generated listing block in overview documents
type ListingConfig struct {
	StartMarker string `koanf:"start_marker"`
	EndMarker   string `koanf:"end_marker"`
	Heading     string `koanf:"heading"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	Debounce string `koanf:"debounce"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Defaults
const (
	DefaultExtension    = ".md"
	DefaultMetadataDir  = "metadata"
	DefaultIndexFile    = "prompt_index.yaml"
	DefaultOverviewFile = "README.md"
	DefaultStartMarker  = "<!-- AUTOMATED_PROMPTS_LIST_START -->"
	DefaultEndMarker    = "<!-- AUTOMATED_PROMPTS_LIST_END -->"
	DefaultHeading      = "## Prompts"
	DefaultDebounce     = 500 * time.Millisecond
)

// DefaultPromptDirs are the category directories of a standard library
var DefaultPromptDirs = []string{"analysis", "content", "development", "trading", "utilities"}

// DefaultExemptions are documentation files that carry no header
var DefaultExemptions = []string{"README.md", "changelog.md", "CHANGELOG.md"}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if len(cfg.PromptDirs) == 0 {
		cfg.PromptDirs = append([]string(nil), DefaultPromptDirs...)
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if cfg.Exemptions == nil {
		cfg.Exemptions = append([]string(nil), DefaultExemptions...)
	}
	if cfg.MetadataDir == "" {
		cfg.MetadataDir = DefaultMetadataDir
	}
	if cfg.IndexFile == "" {
		cfg.IndexFile = DefaultIndexFile
	}
	if cfg.OverviewFile == "" {
		cfg.OverviewFile = DefaultOverviewFile
	}
	if len(cfg.RequiredFields) == 0 {
		cfg.RequiredFields = append([]string(nil), validation.DefaultRequiredFields...)
	}
	if cfg.Listing.StartMarker == "" {
		cfg.Listing.StartMarker = DefaultStartMarker
	}
	if cfg.Listing.EndMarker == "" {
		cfg.Listing.EndMarker = DefaultEndMarker
	}
	if cfg.Listing.Heading == "" {
		cfg.Listing.Heading = DefaultHeading
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce.String()
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
}

// IndexPath returns the root-relative location of the index artifact
// IsExempt reports whether rel matches an exemption glob, by base name or by
// root-relative path
func (c *Config) IsExempt(rel string) bool {
	base := path.Base(rel)
	for _, pattern := range c.Exemptions {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (c *Config) IndexPath() string {
	return path.Join(c.MetadataDir, c.IndexFile)
}

// DebounceDelay returns the watch debounce as a duration
func (c *Config) DebounceDelay() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return DefaultDebounce
	}
	return d
}

// Validate checks the configuration for values the engine cannot work with
func (c *Config) Validate() error {
	if len(c.PromptDirs) == 0 {
		return fmt.Errorf("prompt_dirs must list at least one directory")
	}
	for _, dir := range c.PromptDirs {
		if err := checkRelative("prompt_dirs", dir); err != nil {
			return err
		}
	}
	if err := checkRelative("metadata_dir", c.MetadataDir); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("extension must start with '.', got %q", c.Extension)
	}
	if strings.Contains(c.IndexFile, "/") || c.IndexFile == "" {
		return fmt.Errorf("index_file must be a plain file name, got %q", c.IndexFile)
	}
	if c.Listing.StartMarker == c.Listing.EndMarker {
		return fmt.Errorf("listing start and end markers must differ")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json', got %q", c.Log.Format)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}

func checkRelative(key, p string) error {
	clean := path.Clean(strings.TrimSpace(p))
	if clean == "." || clean == "" {
		return fmt.Errorf("%s entry %q must name a directory", key, p)
	}
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%s entry %q must stay inside the library root", key, p)
	}
	return nil
}
