package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg := Load()

	assert.True(t, cfg.Sources.PNCP.IsEnabled())
	assert.Equal(t, "https://pncp.gov.br", cfg.Sources.PNCP.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Sources.PNCP.Timeout())
	assert.Equal(t, 15*time.Minute, cfg.Cache.StalenessTTL())
	assert.True(t, cfg.Consolidation.FailOnAll())
	assert.NotEmpty(t, cfg.Sectors)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editais.yaml")
	yaml := `
sources:
  pncp:
    baseUrl: https://staging.pncp.gov.br
    timeoutSeconds: 10
  licitanet:
    enabled: false
cache:
  stalenessTtlMinutes: 5
consolidation:
  failOnAllSources: false
sectors:
  - name: saude
    keywords: [medicamentos, insumos hospitalares]
    stalenessTtlMinutes: 20
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, "https://staging.pncp.gov.br", cfg.Sources.PNCP.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Sources.PNCP.Timeout())
	assert.Equal(t, "https://compras.dados.gov.br", cfg.Sources.ComprasGov.BaseURL,
		"untouched sections keep defaults")
	assert.Equal(t, 5*time.Minute, cfg.Cache.StalenessTTL())
	assert.False(t, cfg.Consolidation.FailOnAll())
	assert.False(t, cfg.Sources.Licitanet.IsEnabled())
	assert.True(t, cfg.Sources.PNCP.IsEnabled())

	sector, ok := cfg.Sector("saude")
	require.True(t, ok)
	assert.Equal(t, 20*time.Minute, sector.StalenessTTL())

	_, ok = cfg.Sector("alimentacao-escolar")
	assert.False(t, ok, "a sector list in the file replaces the defaults")
}

func TestLoad_BrokenFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: ["), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, "https://pncp.gov.br", cfg.Sources.PNCP.BaseURL)
}

func TestLoad_EnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editais.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  dir: /from/file\n"), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(cacheDirEnv, "/from/env")
	t.Setenv(poolSizeEnv, "8")

	cfg := Load()

	assert.Equal(t, "/from/env", cfg.Cache.Dir)
	assert.Equal(t, 8, cfg.Consolidation.PoolSize)
}
