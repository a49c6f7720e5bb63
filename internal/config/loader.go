package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// FileName is the optional config file looked up in the library root
	FileName = ".promptlib.yaml"
	// EnvPrefix prefixes environment overrides, e.g. PROMPTLIB_LOG_LEVEL
	EnvPrefix = "PROMPTLIB_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// sections whose keys are nested one level under a dotted prefix
var sections = []string{"listing", "watch", "log"}

// list-valued keys accept comma separated environment values
var listKeys = map[string]bool{
	"prompt_dirs":     true,
	"exemptions":      true,
	"required_fields": true,
}

// Load reads configuration from a YAML file, then overrides with environment
// variables, then applies defaults and validates.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PROMPTLIB_PROMPT_DIRS, PROMPTLIB_LOG_LEVEL, ...)
//  2. YAML config file (configPath, or <root>/.promptlib.yaml when empty)
//  3. Hardcoded defaults
//
// An explicit configPath must exist; the implicit one is optional.
func Load(configPath, root string) (*Config, error) {
	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		if root == "" {
			root = "."
		}
		configPath = filepath.Join(root, FileName)
	}

	content, err := readConfigFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case os.IsNotExist(err) && !explicit:
		// no config file, defaults apply
	default:
		return nil, err
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Root == "" && root != "" {
		cfg.Root = root
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func readConfigFile(configPath string) ([]byte, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path is a directory: %s", configPath)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envTransform maps PROMPTLIB_LOG_LEVEL to log.level and splits list values.
//
//	PROMPTLIB_PROMPT_DIRS=analysis,trading -> prompt_dirs: [analysis trading]
//	PROMPTLIB_LISTING_HEADING=...          -> listing.heading
func envTransform(key, value string) (string, interface{}) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	for _, section := range sections {
		if strings.HasPrefix(name, section+"_") {
			return section + "." + strings.TrimPrefix(name, section+"_"), value
		}
	}

	if listKeys[name] {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return name, items
	}

	return name, value
}
