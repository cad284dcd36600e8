// Package config loads engine configuration from TOML files.
//
// Configuration is split in two: engine.toml holds tunables safe to commit,
// credentials.toml holds API keys and must be owner read-only.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied when a field is absent from the file.
const (
	DefaultProvider     = "anthropic"
	DefaultAgentTimeout = 45 * time.Second
	DefaultMaxRetries   = 3
)

// Duration wraps time.Duration so TOML can write "45s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LLMConfig selects the model used for planning and agent reasoning.
type LLMConfig struct {
	// Provider is one of the supported client backends
	// (anthropic, openai, gemini, mock).
	Provider string `toml:"provider"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// Temperature applies to planning and agent completions.
	Temperature float64 `toml:"temperature"`
}

// AgentConfig tunes the execution contract.
type AgentConfig struct {
	// Timeout bounds a single agent dispatch.
	Timeout Duration `toml:"timeout"`

	// MaxRetries bounds fallback retries per dispatch.
	MaxRetries int `toml:"max_retries"`
}

// TemplateConfig locates task template files.
type TemplateConfig struct {
	// Dir is scanned for *.yaml templates at startup.
	Dir string `toml:"dir"`
}

// NotifyConfig selects the update stream backend.
type NotifyConfig struct {
	// Backend is "memory" or "nats".
	Backend string `toml:"backend"`

	// URL is the NATS server address when Backend is "nats".
	URL string `toml:"url"`

	// BufferSize is the per-subscriber channel depth.
	BufferSize int `toml:"buffer_size"`
}

// TelemetryConfig selects the span exporter.
type TelemetryConfig struct {
	// Protocol is "http", "file", or "noop".
	Protocol string `toml:"protocol"`

	// Endpoint is the collector URL or file path.
	Endpoint string `toml:"endpoint"`

	// Debug includes prompts and responses in LLM spans.
	Debug bool `toml:"debug"`
}

// SearchConfig locates the audit index.
type SearchConfig struct {
	// IndexPath is the on-disk index directory. Empty keeps the index
	// in memory.
	IndexPath string `toml:"index_path"`
}

// Config is the engine's full configuration.
type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Agents    AgentConfig     `toml:"agents"`
	Templates TemplateConfig  `toml:"templates"`
	Notify    NotifyConfig    `toml:"notify"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Search    SearchConfig    `toml:"search"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    DefaultProvider,
			Temperature: 0.2,
		},
		Agents: AgentConfig{
			Timeout:    Duration(DefaultAgentTimeout),
			MaxRetries: DefaultMaxRetries,
		},
		Notify: NotifyConfig{
			Backend:    "memory",
			BufferSize: 256,
		},
		Telemetry: TelemetryConfig{
			Protocol: "noop",
		},
	}
}

// StandardPaths returns the config file locations in priority order.
func StandardPaths() []string {
	paths := []string{"engine.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "engine-lever", "engine.toml"))
	}
	return paths
}

// Load reads the first config file found on the standard paths. A missing
// file is not an error; defaults apply.
func Load() (*Config, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			return cfg, path, err
		}
	}
	return DefaultConfig(), "", nil
}

// LoadFile reads one config file. Unknown keys are rejected so typos fail
// loudly instead of silently falling back to defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "anthropic", "openai", "gemini", "mock":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Agents.Timeout <= 0 {
		return fmt.Errorf("agents.timeout must be positive")
	}
	if c.Agents.MaxRetries < 0 {
		return fmt.Errorf("agents.max_retries must not be negative")
	}
	switch c.Notify.Backend {
	case "memory", "nats":
	default:
		return fmt.Errorf("unknown notify backend %q", c.Notify.Backend)
	}
	if c.Notify.Backend == "nats" && c.Notify.URL == "" {
		return fmt.Errorf("notify.url is required for the nats backend")
	}
	switch c.Telemetry.Protocol {
	case "", "noop", "http", "file":
	default:
		return fmt.Errorf("unknown telemetry protocol %q", c.Telemetry.Protocol)
	}
	return nil
}
