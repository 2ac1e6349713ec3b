package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CDISC_API_KEY", "OPENROUTER_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "DB_CONN_STRING",
		"CG_LLM_PROVIDER", "CG_LLM_MODEL", "CG_HISTORY_STORE", "CG_LIBRARY_API_KEY", "CG_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CDISC_API_KEY", "cdisc-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.library.cdisc.org/api", cfg.Library.BaseURL)
	assert.Equal(t, "cdisc-key", cfg.Library.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Library.Timeout)

	assert.Equal(t, ProviderOpenRouter, cfg.LLM.Provider)
	assert.Equal(t, "mistralai/mistral-small-3.1-24b-instruct:free", cfg.LLM.Model)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "or-key", cfg.LLM.APIKey)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-6)

	assert.Equal(t, StoreMemory, cfg.History.Store)
	assert.Equal(t, ":5001", cfg.Web.Addr)
	assert.NoError(t, cfg.RequireLibraryKey())
}

func TestLoad_GeminiFallsBackToGoogleKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("CG_LLM_PROVIDER", "Gemini")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "google-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-flash-preview-09-2025", cfg.LLM.Model)
	assert.Error(t, cfg.RequireLibraryKey())
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cg.yaml")
	content := `
library:
  api_key: file-key
  timeout: 5s
llm:
  provider: mock
history:
  store: postgresql
  connection_string: postgres://localhost/cg
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Library.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Library.Timeout)
	assert.Equal(t, ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, StorePostgreSQL, cfg.History.Store)
	assert.Equal(t, "postgres://localhost/cg", cfg.History.ConnectionString)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: gemini\n"), 0o600))
	t.Setenv("CG_LLM_PROVIDER", "none")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderNone, cfg.LLM.Provider)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Library: LibraryConfig{BaseURL: defaultLibraryBaseURL},
		LLM:     LLMConfig{Provider: ProviderMock},
		History: HistoryConfig{Store: StoreMemory},
	}
	require.NoError(t, base.Validate())

	badProvider := base
	badProvider.LLM.Provider = "claude"
	assert.ErrorContains(t, badProvider.Validate(), "unknown llm.provider")

	badStore := base
	badStore.History.Store = "redis"
	assert.ErrorContains(t, badStore.Validate(), "unknown history.store")

	pgWithoutDSN := base
	pgWithoutDSN.History.Store = StorePostgreSQL
	assert.ErrorContains(t, pgWithoutDSN.Validate(), "requires history.connection_string")
}
