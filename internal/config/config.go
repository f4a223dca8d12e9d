package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/render"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAlgorithm = "linear-regression"
	DefaultSeed      = 42
	DefaultSpeed     = 1.0
	DefaultWidth     = 600
	DefaultHeight    = 400
	DefaultTheme     = "light"
	DefaultRetries   = 3
	DefaultCacheTTL  = 10 * time.Minute
	DefaultLogSize   = 100
)

type Config struct {
	Algorithm     string             `yaml:"algorithm" validate:"required"`
	Seed          int64              `yaml:"seed"`
	Speed         float64            `yaml:"speed" validate:"gte=0.5,lte=2"`
	Width         int                `yaml:"width" validate:"gte=160,lte=4096"`
	Height        int                `yaml:"height" validate:"gte=120,lte=4096"`
	Theme         string             `yaml:"theme" validate:"oneof=light cyberpunk retro ocean"`
	MaxIterations int                `yaml:"max_iterations" validate:"gte=0"`
	Params        map[string]float64 `yaml:"params"`
	Overlay       OverlayConfig      `yaml:"overlay"`
	Log           LogConfig          `yaml:"log"`
	Content       ContentConfig      `yaml:"content"`
}

type OverlayConfig struct {
	Grid   bool `yaml:"grid"`
	Legend bool `yaml:"legend"`
	Labels bool `yaml:"labels"`
}

type LogConfig struct {
	Debug      bool   `yaml:"debug"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size" validate:"gte=0"`
	MaxAge     int    `yaml:"max_age" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

type ContentConfig struct {
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	Retries  int           `yaml:"retries" validate:"gte=0,lte=10"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

func DefaultConfig() *Config {
	return &Config{
		Algorithm: DefaultAlgorithm,
		Seed:      DefaultSeed,
		Speed:     DefaultSpeed,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Theme:     DefaultTheme,
		Overlay:   OverlayConfig{Grid: true, Legend: true, Labels: true},
		Log:       LogConfig{MaxSize: DefaultLogSize},
		Content: ContentConfig{
			Retries:  DefaultRetries,
			CacheTTL: DefaultCacheTTL,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var validate = validator.New()

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Overlays turns the overlay section into render settings.
func (c *Config) Overlays() render.Overlay {
	return render.Overlay{
		Theme:  render.GetTheme(c.Theme),
		Grid:   c.Overlay.Grid,
		Legend: c.Overlay.Legend,
		Labels: c.Overlay.Labels,
	}
}

// Merge copies the preset's algorithm, seed and params over c.
func (c *Config) Merge(preset *Config) {
	if preset == nil {
		return
	}
	if preset.Algorithm != "" {
		c.Algorithm = preset.Algorithm
	}
	if preset.Seed != 0 {
		c.Seed = preset.Seed
	}
	if preset.Speed != 0 {
		c.Speed = preset.Speed
	}
	if len(preset.Params) > 0 {
		params := make(map[string]float64, len(c.Params)+len(preset.Params))
		for k, v := range c.Params {
			params[k] = v
		}
		for k, v := range preset.Params {
			params[k] = v
		}
		c.Params = params
	}
}
