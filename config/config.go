// Package config loads the wake demo settings from YAML on top of embedded
// defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Effect  EffectConfig  `yaml:"effect"`
	Params  ParamsConfig  `yaml:"params"`
	Swimmer SwimmerConfig `yaml:"swimmer"`
	Window  WindowConfig  `yaml:"window"`
	Log     LogConfig     `yaml:"log"`
}

type EffectConfig struct {
	Width int   `yaml:"width"`
	Seed  int64 `yaml:"seed"`
	CPU   bool  `yaml:"cpu"`
}

// ParamsConfig mirrors core.Params with colours as hex strings.
type ParamsConfig struct {
	BackwardSpeed   float32 `yaml:"backward_speed"`
	Turbulence      float32 `yaml:"turbulence"`
	Spread          float32 `yaml:"spread"`
	CurlStrength    float32 `yaml:"curl_strength"`
	SpiralIntensity float32 `yaml:"spiral_intensity"`
	Buoyancy        float32 `yaml:"buoyancy"`
	Drag            float32 `yaml:"drag"`
	ParticleSize    float32 `yaml:"particle_size"`
	ColorFresh      string  `yaml:"color_fresh"`
	ColorMid        string  `yaml:"color_mid"`
	ColorOld        string  `yaml:"color_old"`
	LifeSpan        float32 `yaml:"life_span"`
	NoiseScale      float32 `yaml:"noise_scale"`
}

type SwimmerConfig struct {
	Length     float32 `yaml:"length"`
	Radius     float32 `yaml:"radius"`
	Rings      int     `yaml:"rings"`
	Sides      int     `yaml:"sides"`
	Bones      int     `yaml:"bones"`
	Speed      float32 `yaml:"speed"`
	PathRadius float32 `yaml:"path_radius"`
	Amplitude  float32 `yaml:"amplitude"`
	Frequency  float32 `yaml:"frequency"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type LogConfig struct {
	Prefix string `yaml:"prefix"`
	Debug  bool   `yaml:"debug"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads path over the embedded defaults; fields missing from the file
// keep their default. An empty path loads the defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Effect.Width < 1 || c.Effect.Width > 1024 {
		errs = append(errs, fmt.Errorf("effect.width %d outside [1,1024]", c.Effect.Width))
	}
	if _, err := c.Params.ToParams(); err != nil {
		errs = append(errs, err)
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		errs = append(errs, fmt.Errorf("window size must not be negative"))
	}
	return errors.Join(errs...)
}

// ToParams converts to the simulation parameters.
func (p ParamsConfig) ToParams() (core.Params, error) {
	out := core.Params{
		BackwardSpeed:   p.BackwardSpeed,
		Turbulence:      p.Turbulence,
		Spread:          p.Spread,
		CurlStrength:    p.CurlStrength,
		SpiralIntensity: p.SpiralIntensity,
		Buoyancy:        p.Buoyancy,
		Drag:            p.Drag,
		ParticleSize:    p.ParticleSize,
		LifeSpan:        p.LifeSpan,
		NoiseScale:      p.NoiseScale,
	}
	var err error
	if out.ColorFresh, err = colorful.Hex(p.ColorFresh); err != nil {
		return core.Params{}, fmt.Errorf("params.color_fresh: %w", err)
	}
	if out.ColorMid, err = colorful.Hex(p.ColorMid); err != nil {
		return core.Params{}, fmt.Errorf("params.color_mid: %w", err)
	}
	if out.ColorOld, err = colorful.Hex(p.ColorOld); err != nil {
		return core.Params{}, fmt.Errorf("params.color_old: %w", err)
	}
	if err := out.Validate(); err != nil {
		return core.Params{}, fmt.Errorf("params: %w", err)
	}
	return out, nil
}

func FromParams(p core.Params) ParamsConfig {
	return ParamsConfig{
		BackwardSpeed:   p.BackwardSpeed,
		Turbulence:      p.Turbulence,
		Spread:          p.Spread,
		CurlStrength:    p.CurlStrength,
		SpiralIntensity: p.SpiralIntensity,
		Buoyancy:        p.Buoyancy,
		Drag:            p.Drag,
		ParticleSize:    p.ParticleSize,
		ColorFresh:      p.ColorFresh.Hex(),
		ColorMid:        p.ColorMid.Hex(),
		ColorOld:        p.ColorOld.Hex(),
		LifeSpan:        p.LifeSpan,
		NoiseScale:      p.NoiseScale,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// SaveParams writes a parameter preset.
func SaveParams(path string, p core.Params) error {
	data, err := yaml.Marshal(FromParams(p))
	if err != nil {
		return fmt.Errorf("marshaling preset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing preset: %w", err)
	}
	return nil
}

// LoadParams reads a preset over the default parameters.
func LoadParams(path string) (core.Params, error) {
	pc := FromParams(core.DefaultParams())
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Params{}, fmt.Errorf("reading preset: %w", err)
	}
	if err := yaml.Unmarshal(data, &pc); err != nil {
		return core.Params{}, fmt.Errorf("parsing preset: %w", err)
	}
	return pc.ToParams()
}
