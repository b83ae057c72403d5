package core

import (
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, float32(1.4), p.BackwardSpeed)
	assert.Equal(t, float32(0.98), p.Drag)
	assert.Equal(t, "#85d5fb", p.ColorFresh.Hex())
	assert.Equal(t, "#0077dd", p.ColorMid.Hex())
	assert.Equal(t, "#335c79", p.ColorOld.Hex())
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	p.Drag = 1.2
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.LifeSpan = 0
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.ParticleSize = -1
	assert.Error(t, p.Validate())
}

func TestParamStoreSnapshotsAreIndependent(t *testing.T) {
	store := NewParamStore(DefaultParams())
	snap := store.Load()

	store.Update(func(p *Params) { p.Turbulence = 1.5 })
	assert.Equal(t, float32(0.55), snap.Turbulence)
	assert.Equal(t, float32(1.5), store.Load().Turbulence)

	var empty ParamStore
	assert.Equal(t, DefaultParams(), empty.Load())
}

func TestParamStoreConcurrentUpdates(t *testing.T) {
	store := NewParamStore(DefaultParams())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Update(func(p *Params) { p.ParticleSize++ })
		}()
	}
	wg.Wait()
	assert.Equal(t, float32(65), store.Load().ParticleSize)
}

func TestParamStoreRejectsInvalidSnapshots(t *testing.T) {
	store := NewParamStore(DefaultParams())

	err := store.Update(func(p *Params) { p.LifeSpan = 0 })
	assert.Error(t, err)
	assert.Equal(t, float32(4), store.Load().LifeSpan, "previous snapshot stays published")

	bad := DefaultParams()
	bad.Drag = 2
	assert.Error(t, store.Store(bad))
	assert.Equal(t, float32(0.98), store.Load().Drag)

	assert.NoError(t, store.Update(func(p *Params) { p.LifeSpan = 2 }))
	assert.Equal(t, float32(2), store.Load().LifeSpan)

	bad.LifeSpan = 0
	assert.Equal(t, DefaultParams(), NewParamStore(bad).Load(), "invalid initial params fall back to defaults")
}

func TestRejectedLifeSpanKeepsParticlesCycling(t *testing.T) {
	store := NewParamStore(DefaultParams())
	require.Error(t, store.Update(func(p *Params) { p.LifeSpan = 0 }))

	k := NewKernel(1)
	u := Uniforms{DeltaTime: 1.0 / 60, TrailAxis: DefaultTrailAxis, Params: store.Load()}
	pos := mgl32.Vec4{0, 0, 0, 0.5}
	vel := mgl32.Vec4{0, 0, 0, 0.5}
	respawned := false
	for i := 0; i < 1000; i++ {
		u.Time = float32(i) / 60
		next, nv := k.Step(0, pos, vel, mgl32.Vec4{}, &u)
		if next[3] < pos[3] {
			respawned = true
		}
		pos, vel = next, nv
	}
	assert.True(t, respawned)
	assert.Less(t, pos.Vec3().Len(), float32(100))
}
