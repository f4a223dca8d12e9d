package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Algorithm != "linear-regression" {
		t.Errorf("expected algorithm linear-regression, got %s", cfg.Algorithm)
	}
	if cfg.Speed <= 0 {
		t.Error("speed should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("kmeans", "six")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Params["k"] != 6 {
		t.Errorf("expected k 6, got %f", cfg.Params["k"])
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("kmeans", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "six")
	if cfg != nil {
		t.Error("expected nil for nonexistent algorithm")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("gradient-descent")
	if len(presets) != 3 || presets[0] != "bowl" {
		t.Errorf("expected sorted presets, got %v", presets)
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent algorithm")
	}
}

func TestPresetsMatchTheirKey(t *testing.T) {
	for algo, presets := range Presets {
		for name, p := range presets {
			if p.Algorithm != algo {
				t.Errorf("preset %s/%s names algorithm %s", algo, name, p.Algorithm)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"speed too high", func(c *Config) { c.Speed = 3 }, false},
		{"speed too low", func(c *Config) { c.Speed = 0.1 }, false},
		{"tiny surface", func(c *Config) { c.Width = 10 }, false},
		{"unknown theme", func(c *Config) { c.Theme = "sepia" }, false},
		{"missing algorithm", func(c *Config) { c.Algorithm = "" }, false},
		{"bad content url", func(c *Config) { c.Content.BaseURL = "::nope" }, false},
		{"content url", func(c *Config) { c.Content.BaseURL = "https://example.com/lessons" }, true},
		{"negative iterations", func(c *Config) { c.MaxIterations = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mlviz.yaml")
	cfg := DefaultConfig()
	cfg.Algorithm = "knn"
	cfg.Params = map[string]float64{"k": 5}
	cfg.Theme = "ocean"
	cfg.Content.CacheTTL = 2 * time.Minute
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("algorithm: svm\nparams:\n  margin: 1.5\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "svm", cfg.Algorithm)
	assert.Equal(t, 1.5, cfg.Params["margin"])
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultCacheTTL, cfg.Content.CacheTTL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speed: 9\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Params = map[string]float64{"lr": 0.02}
	cfg.Merge(GetPreset("gradient-descent", "ellipse"))
	assert.Equal(t, "gradient-descent", cfg.Algorithm)
	assert.Equal(t, 0.05, cfg.Params["lr"])
	assert.Equal(t, 1.0, cfg.Params["objective"])
	assert.Equal(t, int64(DefaultSeed), cfg.Seed)

	cfg.Merge(nil)
	assert.Equal(t, "gradient-descent", cfg.Algorithm)
}

func TestOverlays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Theme = "retro"
	cfg.Overlay.Grid = false
	ov := cfg.Overlays()
	assert.Equal(t, "retro", ov.Theme.Name)
	assert.False(t, ov.Grid)
	assert.True(t, ov.Legend)
}
