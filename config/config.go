// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads application configuration from YAML with
// environment overrides. Every field has a working default so the binary
// runs with no config file at all.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "EDITAIS_CONFIG"
	cacheDirEnv    = "EDITAIS_CACHE_DIR"
	pncpURLEnv     = "EDITAIS_PNCP_URL"
	comprasURLEnv  = "EDITAIS_COMPRASGOV_URL"
	licitanetEnv   = "EDITAIS_LICITANET_URL"
	poolSizeEnv    = "EDITAIS_POOL_SIZE"
	defaultCacheDB = "./data/editais-cache"
)

// Config holds high-level settings required across the application.
type Config struct {
	Sources       SourcesConfig       `yaml:"sources"`
	Cache         CacheConfig         `yaml:"cache"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
	Sectors       []SectorConfig      `yaml:"sectors"`
}

// SourcesConfig groups per-portal settings.
type SourcesConfig struct {
	PNCP       SourceConfig `yaml:"pncp"`
	ComprasGov SourceConfig `yaml:"comprasgov"`
	Licitanet  SourceConfig `yaml:"licitanet"`
}

// SourceConfig describes one portal's client settings.
type SourceConfig struct {
	// Enabled is a pointer so an absent YAML key keeps the source on.
	Enabled            *bool  `yaml:"enabled"`
	BaseURL            string `yaml:"baseUrl"`
	TimeoutSeconds     int    `yaml:"timeoutSeconds"`
	MaxAttempts        int    `yaml:"maxAttempts"`
	RateLimitPerSecond int    `yaml:"rateLimitPerSecond"`
}

// IsEnabled resolves the on/off switch, defaulting to enabled.
func (s SourceConfig) IsEnabled() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// Timeout resolves the per-request timeout.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// CacheConfig describes the tiered cache.
type CacheConfig struct {
	Dir                 string `yaml:"dir"`
	MemoryCapacity      int    `yaml:"memoryCapacity"`
	SharedTTLMinutes    int    `yaml:"sharedTtlMinutes"`
	StalenessTTLMinutes int    `yaml:"stalenessTtlMinutes"`
	FailThreshold       int    `yaml:"failThreshold"`
	DegradeWindowMin    int    `yaml:"degradeWindowMinutes"`
}

func (c CacheConfig) SharedTTL() time.Duration {
	return time.Duration(c.SharedTTLMinutes) * time.Minute
}

func (c CacheConfig) StalenessTTL() time.Duration {
	return time.Duration(c.StalenessTTLMinutes) * time.Minute
}

func (c CacheConfig) DegradeWindow() time.Duration {
	return time.Duration(c.DegradeWindowMin) * time.Minute
}

// ConsolidationConfig describes the fan-out stage.
type ConsolidationConfig struct {
	PerSourceTimeoutSeconds int `yaml:"perSourceTimeoutSeconds"`
	PoolSize                int `yaml:"poolSize"`
	// FailOnAllSources is a pointer so an absent YAML key keeps the
	// default instead of forcing false.
	FailOnAllSources *bool `yaml:"failOnAllSources"`
}

func (c ConsolidationConfig) PerSourceTimeout() time.Duration {
	return time.Duration(c.PerSourceTimeoutSeconds) * time.Second
}

// FailOnAll resolves the all-sources-failed policy, defaulting to raising
// a hard error.
func (c ConsolidationConfig) FailOnAll() bool {
	if c.FailOnAllSources == nil {
		return true
	}
	return *c.FailOnAllSources
}

// SectorConfig is one named keyword rule set. The staleness TTL may
// deviate from the cache default so volatile sectors stay fresher.
type SectorConfig struct {
	Name                string   `yaml:"name"`
	Keywords            []string `yaml:"keywords"`
	Exclusions          []string `yaml:"exclusions"`
	StalenessTTLMinutes int      `yaml:"stalenessTtlMinutes"`
}

func (s SectorConfig) StalenessTTL() time.Duration {
	return time.Duration(s.StalenessTTLMinutes) * time.Minute
}

// Sector finds a sector rule set by name. Returns false when unknown.
func (c Config) Sector(name string) (SectorConfig, bool) {
	for _, s := range c.Sectors {
		if s.Name == name {
			return s, true
		}
	}
	return SectorConfig{}, false
}

// Load reads YAML configuration (if present) and applies environment
// overrides. Errors fall back to defaults and are logged, never fatal.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			slog.Warn("cannot read config, falling back to defaults", "path", path, "err", err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				slog.Warn("cannot parse config, falling back to defaults", "path", path, "err", err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sectors) == 0 {
		cfg.Sectors = defaultConfig().Sectors
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(cacheDirEnv); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv(pncpURLEnv); v != "" {
		c.Sources.PNCP.BaseURL = v
	}
	if v := os.Getenv(comprasURLEnv); v != "" {
		c.Sources.ComprasGov.BaseURL = v
	}
	if v := os.Getenv(licitanetEnv); v != "" {
		c.Sources.Licitanet.BaseURL = v
	}
	if v := os.Getenv(poolSizeEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Consolidation.PoolSize = n
		}
	}
}

func mergeConfig(base, override Config) Config {
	base.Sources.PNCP = mergeSource(base.Sources.PNCP, override.Sources.PNCP)
	base.Sources.ComprasGov = mergeSource(base.Sources.ComprasGov, override.Sources.ComprasGov)
	base.Sources.Licitanet = mergeSource(base.Sources.Licitanet, override.Sources.Licitanet)

	if override.Cache.Dir != "" {
		base.Cache.Dir = override.Cache.Dir
	}
	if override.Cache.MemoryCapacity > 0 {
		base.Cache.MemoryCapacity = override.Cache.MemoryCapacity
	}
	if override.Cache.SharedTTLMinutes > 0 {
		base.Cache.SharedTTLMinutes = override.Cache.SharedTTLMinutes
	}
	if override.Cache.StalenessTTLMinutes > 0 {
		base.Cache.StalenessTTLMinutes = override.Cache.StalenessTTLMinutes
	}
	if override.Cache.FailThreshold > 0 {
		base.Cache.FailThreshold = override.Cache.FailThreshold
	}
	if override.Cache.DegradeWindowMin > 0 {
		base.Cache.DegradeWindowMin = override.Cache.DegradeWindowMin
	}

	if override.Consolidation.PerSourceTimeoutSeconds > 0 {
		base.Consolidation.PerSourceTimeoutSeconds = override.Consolidation.PerSourceTimeoutSeconds
	}
	if override.Consolidation.PoolSize > 0 {
		base.Consolidation.PoolSize = override.Consolidation.PoolSize
	}
	if override.Consolidation.FailOnAllSources != nil {
		base.Consolidation.FailOnAllSources = override.Consolidation.FailOnAllSources
	}

	if len(override.Sectors) > 0 {
		base.Sectors = override.Sectors
	}

	return base
}

func mergeSource(base, override SourceConfig) SourceConfig {
	if override.Enabled != nil {
		base.Enabled = override.Enabled
	}
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	if override.TimeoutSeconds > 0 {
		base.TimeoutSeconds = override.TimeoutSeconds
	}
	if override.MaxAttempts > 0 {
		base.MaxAttempts = override.MaxAttempts
	}
	if override.RateLimitPerSecond > 0 {
		base.RateLimitPerSecond = override.RateLimitPerSecond
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Sources: SourcesConfig{
			PNCP: SourceConfig{
				BaseURL:            "https://pncp.gov.br",
				TimeoutSeconds:     30,
				MaxAttempts:        4,
				RateLimitPerSecond: 10,
			},
			ComprasGov: SourceConfig{
				BaseURL:            "https://compras.dados.gov.br",
				TimeoutSeconds:     30,
				MaxAttempts:        4,
				RateLimitPerSecond: 5,
			},
			Licitanet: SourceConfig{
				BaseURL:            "https://licitanet.com.br",
				TimeoutSeconds:     30,
				MaxAttempts:        3,
				RateLimitPerSecond: 2,
			},
		},
		Cache: CacheConfig{
			Dir:                 defaultCacheDB,
			MemoryCapacity:      256,
			SharedTTLMinutes:    30,
			StalenessTTLMinutes: 15,
			FailThreshold:       3,
			DegradeWindowMin:    5,
		},
		Consolidation: ConsolidationConfig{
			PerSourceTimeoutSeconds: 45,
			PoolSize:                32,
		},
		Sectors: []SectorConfig{
			{
				Name: "alimentacao-escolar",
				Keywords: []string{
					"merenda escolar", "alimentação escolar", "gêneros alimentícios",
					"merenda", "pnae",
				},
				Exclusions:          []string{"transporte escolar"},
				StalenessTTLMinutes: 15,
			},
			{
				Name: "construcao-civil",
				Keywords: []string{
					"obra", "construção", "reforma", "pavimentação",
					"engenharia", "edificação",
				},
				Exclusions:          []string{"manutenção de veículos"},
				StalenessTTLMinutes: 60,
			},
			{
				Name: "tecnologia",
				Keywords: []string{
					"software", "licenciamento de software", "equipamentos de informática",
					"computadores", "desenvolvimento de sistema",
				},
				StalenessTTLMinutes: 60,
			},
		},
	}
}
