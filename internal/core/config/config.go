package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultPath = "./agatypes.toml"

type Config struct {
	Version       int           `toml:"version"`
	Backend       Backend       `toml:"backend"`
	Types         Types         `toml:"types"`
	Resolver      Resolver      `toml:"resolver"`
	Caches        Caches        `toml:"caches"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Backend struct {
	ExePath    string `toml:"exe_path"`
	Subcommand string `toml:"subcommand"`
}

// Types holds the inline-hint rendering options.
type Types struct {
	MaxLength       int   `toml:"max_length"`
	ShowString      *bool `toml:"show_string"`
	MultilineString bool  `toml:"multiline_string"`
}

type Resolver struct {
	MaxDepth int `toml:"max_depth"`
}

type Caches struct {
	Documents int `toml:"documents"`
}

type Watch struct {
	Paths        []string      `toml:"paths"`
	Debounce     time.Duration `toml:"debounce"`
	Extensions   []string      `toml:"extensions"`
	ExcludeDirs  []string      `toml:"exclude_dirs"`
	ExcludeFiles []string      `toml:"exclude_files"`
	RefreshRate  float64       `toml:"refresh_rate"`
	RefreshBurst int           `toml:"refresh_burst"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
}

// ShowStrings reports the effective show_string setting.
func (t Types) ShowStrings() bool {
	return t.ShowString == nil || *t.ShowString
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes, defaults and validates TOML text.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalizeWatch(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateTypes(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Backend.ExePath) == "" {
		cfg.Backend.ExePath = "aga"
	}
	if strings.TrimSpace(cfg.Backend.Subcommand) == "" {
		cfg.Backend.Subcommand = "tokens"
	}

	if cfg.Types.MaxLength == 0 {
		cfg.Types.MaxLength = 15
	}
	if cfg.Types.ShowString == nil {
		enabled := true
		cfg.Types.ShowString = &enabled
	}

	if cfg.Resolver.MaxDepth <= 0 {
		cfg.Resolver.MaxDepth = 64
	}
	if cfg.Caches.Documents <= 0 {
		cfg.Caches.Documents = 256
	}

	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{"."}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = []string{".aga"}
	}
	if cfg.Watch.ExcludeDirs == nil {
		cfg.Watch.ExcludeDirs = []string{".git", "node_modules"}
	}
	if cfg.Watch.RefreshRate <= 0 {
		cfg.Watch.RefreshRate = 4
	}
	if cfg.Watch.RefreshBurst <= 0 {
		cfg.Watch.RefreshBurst = 2
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
}

func normalizeWatch(cfg *Config) {
	exts := make([]string, 0, len(cfg.Watch.Extensions))
	for _, ext := range cfg.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.Watch.Extensions = exts
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateTypes(cfg *Config) error {
	if cfg.Types.MaxLength < -1 {
		return fmt.Errorf("types.max_length must be >= 0, or -1 for no limit, got %d", cfg.Types.MaxLength)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if len(cfg.Watch.Extensions) == 0 {
		return fmt.Errorf("watch.extensions must list at least one extension")
	}
	for i, p := range cfg.Watch.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("watch.paths[%d] must not be empty", i)
		}
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be between 1 and 65535, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when enable_tracing is true")
	}
	return nil
}
