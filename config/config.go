// Package config loads the YAML deployment configuration a FlowMesh host
// process reads at startup: store connection, LLM providers, tool sources,
// and the durability engine to run under.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root deployment configuration document.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	LLM     LLMConfig     `yaml:"llm"`
	Tools   ToolsConfig   `yaml:"tools"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects and configures the durable Store backend.
type StoreConfig struct {
	// Driver is "mongo". Required.
	Driver string `yaml:"driver"`
	// DSN is the driver connection string.
	DSN string `yaml:"dsn"`
	// Database is the database name to use on the connection.
	Database string `yaml:"database"`
}

// LLMConfig configures the default provider and its per-provider settings.
type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`
}

// LLMProviderConfig is one provider's credentials and defaults.
type LLMProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
	Region       string `yaml:"region"` // bedrock
}

// ToolsConfig points at the external tool sources a ToolRegistry loads
// alongside any natively registered tools.
type ToolsConfig struct {
	OpenAPISpecs []string          `yaml:"openapi_specs"`
	MCPServers   []MCPServerConfig `yaml:"mcp_servers"`
	// DefaultTimeout is the per-tool execution timeout applied when a tool
	// does not specify its own.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// MCPServerConfig addresses one MCP server whose tools are wrapped as
// RunnableTools.
type MCPServerConfig struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
	URL     string `yaml:"url"`
}

// EngineConfig selects the workflow durability backend: "inmem" (default)
// or "temporal".
type EngineConfig struct {
	Driver    string          `yaml:"driver"`
	Temporal  TemporalConfig  `yaml:"temporal"`
}

// TemporalConfig configures the Temporal client when EngineConfig.Driver is
// "temporal".
type TemporalConfig struct {
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

// LoggingConfig configures the telemetry logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads and parses the configuration file at path, expanding ${VAR}
// environment references before decoding, then applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.Driver == "" {
		cfg.Engine.Driver = "inmem"
	}
	if cfg.Engine.Temporal.TaskQueue == "" {
		cfg.Engine.Temporal.TaskQueue = "flowmesh.threads"
	}
	if cfg.Tools.DefaultTimeout == 0 {
		cfg.Tools.DefaultTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Store.Driver == "" {
		return fmt.Errorf("config: store.driver is required")
	}
	switch cfg.Store.Driver {
	case "mongo":
	default:
		return fmt.Errorf("config: unknown store.driver %q", cfg.Store.Driver)
	}
	if cfg.Store.Database == "" {
		return fmt.Errorf("config: store.database is required")
	}
	switch cfg.Engine.Driver {
	case "inmem", "temporal":
	default:
		return fmt.Errorf("config: unknown engine.driver %q", cfg.Engine.Driver)
	}
	if cfg.Engine.Driver == "temporal" && cfg.Engine.Temporal.HostPort == "" {
		return fmt.Errorf("config: engine.temporal.host_port is required when engine.driver is temporal")
	}
	if cfg.LLM.DefaultProvider == "" {
		return fmt.Errorf("config: llm.default_provider is required")
	}
	if _, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; !ok {
		return fmt.Errorf("config: llm.default_provider %q has no matching entry under llm.providers", cfg.LLM.DefaultProvider)
	}
	return nil
}
