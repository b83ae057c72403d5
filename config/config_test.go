package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchCoreDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Effect.Width)

	p, err := cfg.Params.ToParams()
	require.NoError(t, err)
	want := core.DefaultParams()
	assert.Equal(t, want.BackwardSpeed, p.BackwardSpeed)
	assert.Equal(t, want.Drag, p.Drag)
	assert.Equal(t, want.LifeSpan, p.LifeSpan)
	assert.Equal(t, want.ColorMid.Hex(), p.ColorMid.Hex())
}

func TestLoadOverlaysUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wake.yaml")
	require.NoError(t, os.WriteFile(path, []byte("effect:\n  width: 64\nparams:\n  drag: 1.0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Effect.Width)
	assert.Equal(t, float32(1), cfg.Params.Drag)
	assert.Equal(t, float32(0.55), cfg.Params.Turbulence, "untouched keys keep defaults")
	assert.Equal(t, "wake", cfg.Window.Title)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad colour": "params:\n  color_old: \"blue\"\n",
		"bad drag":   "params:\n  drag: 1.5\n",
		"bad width":  "effect:\n  width: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParamsPreset(t *testing.T) {
	p := core.DefaultParams()
	p.SpiralIntensity = 0.8
	p.ColorFresh = p.ColorOld

	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, SaveParams(path, p))

	got, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.8), got.SpiralIntensity)
	assert.Equal(t, p.ColorOld.Hex(), got.ColorFresh.Hex())
}

func TestWriteYAMLReloads(t *testing.T) {
	cfg := Default()
	cfg.Effect.Seed = 99
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(99), back.Effect.Seed)
}
