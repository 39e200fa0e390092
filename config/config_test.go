package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
store:
  driver: mongo
  database: flowmesh
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: sk-test
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "inmem", cfg.Engine.Driver)
	assert.Equal(t, "flowmesh.threads", cfg.Engine.Temporal.TaskQueue)
	assert.Equal(t, 10*time.Second, cfg.Tools.DefaultTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadExpandsEnvironmentReferences(t *testing.T) {
	t.Setenv("FLOWMESH_TEST_API_KEY", "sk-from-env")
	path := writeConfig(t, `
store:
  driver: mongo
  database: flowmesh
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: ${FLOWMESH_TEST_API_KEY}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.Providers["anthropic"].APIKey)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
store:
  driver: mongo
  database: flowmesh
  unexpected_field: true
llm:
  default_provider: anthropic
  providers:
    anthropic:
      api_key: sk-test
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileErrors(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsMissingStoreDriver(t *testing.T) {
	t.Parallel()
	cfg := &Config{LLM: LLMConfig{DefaultProvider: "anthropic", Providers: map[string]LLMProviderConfig{"anthropic": {}}}}
	applyDefaults(cfg)
	err := validate(cfg)
	assert.ErrorContains(t, err, "store.driver")
}

func TestValidateRejectsUnknownStoreDriver(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Store: StoreConfig{Driver: "postgres", Database: "flowmesh"},
		LLM:   LLMConfig{DefaultProvider: "anthropic", Providers: map[string]LLMProviderConfig{"anthropic": {}}},
	}
	applyDefaults(cfg)
	err := validate(cfg)
	assert.ErrorContains(t, err, "unknown store.driver")
}

func TestValidateRejectsMissingDatabase(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Store: StoreConfig{Driver: "mongo"},
		LLM:   LLMConfig{DefaultProvider: "anthropic", Providers: map[string]LLMProviderConfig{"anthropic": {}}},
	}
	applyDefaults(cfg)
	err := validate(cfg)
	assert.ErrorContains(t, err, "store.database")
}

func TestValidateRejectsTemporalEngineWithoutHostPort(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Store:  StoreConfig{Driver: "mongo", Database: "flowmesh"},
		Engine: EngineConfig{Driver: "temporal"},
		LLM:    LLMConfig{DefaultProvider: "anthropic", Providers: map[string]LLMProviderConfig{"anthropic": {}}},
	}
	applyDefaults(cfg)
	err := validate(cfg)
	assert.ErrorContains(t, err, "engine.temporal.host_port")
}

func TestValidateRejectsDefaultProviderWithNoMatchingEntry(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Store: StoreConfig{Driver: "mongo", Database: "flowmesh"},
		LLM:   LLMConfig{DefaultProvider: "openai", Providers: map[string]LLMProviderConfig{"anthropic": {}}},
	}
	applyDefaults(cfg)
	err := validate(cfg)
	assert.ErrorContains(t, err, "llm.default_provider")
}
