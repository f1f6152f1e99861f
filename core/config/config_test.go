package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docentsh/docent/core/providers"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.Index.DocsDir)
	assert.Equal(t, ".", cfg.Index.CodeDir)
	assert.Equal(t, providers.ProviderAnthropic, cfg.Provider.Provider)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, ":8750", cfg.Server.Addr)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
index:
  docs_dir: documentation
provider:
  provider: openai
  model: gpt-4.1
session:
  backend: sqlite
  sqlite_path: /tmp/sessions.db
  max_age: 1h
server:
  addr: ":9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "documentation", cfg.Index.DocsDir)
	// Fields the file does not mention keep their defaults.
	assert.Equal(t, ".", cfg.Index.CodeDir)

	assert.Equal(t, providers.ProviderOpenAI, cfg.Provider.Provider)
	assert.Equal(t, "gpt-4.1", cfg.Provider.Model)
	assert.Equal(t, BackendSQLite, cfg.Session.Backend)
	assert.Equal(t, time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "session: [not a map"))
	assert.Error(t, err)
}

func TestValidateUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "session:\n  backend: redis\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestValidateSQLiteRequiresPath(t *testing.T) {
	_, err := Load(writeConfig(t, "session:\n  backend: sqlite\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite_path")
}

func TestValidateNegativeMaxFileSize(t *testing.T) {
	_, err := Load(writeConfig(t, "index:\n  max_file_size: -1\n"))
	assert.Error(t, err)
}
