package core

import (
	"fmt"
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"
)

// Params are the live simulation and appearance tunables.
type Params struct {
	BackwardSpeed   float32
	Turbulence      float32
	Spread          float32
	CurlStrength    float32
	SpiralIntensity float32
	Buoyancy        float32
	Drag            float32
	ParticleSize    float32

	ColorFresh colorful.Color
	ColorMid   colorful.Color
	ColorOld   colorful.Color

	// LifeSpan is the mean seconds per life cycle.
	LifeSpan   float32
	NoiseScale float32
}

func hexColor(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("bad built-in colour %q: %v", s, err))
	}
	return c
}

func DefaultParams() Params {
	return Params{
		BackwardSpeed:   1.4,
		Turbulence:      0.55,
		Spread:          0.55,
		CurlStrength:    0.2,
		SpiralIntensity: 0.25,
		Buoyancy:        0.12,
		Drag:            0.98,
		ParticleSize:    15,
		ColorFresh:      hexColor("#85d5fb"),
		ColorMid:        hexColor("#0077dd"),
		ColorOld:        hexColor("#335c79"),
		LifeSpan:        4,
		NoiseScale:      0.35,
	}
}

// Validate rejects values the kernel cannot integrate sensibly.
func (p Params) Validate() error {
	if p.Drag < 0 || p.Drag > 1 {
		return fmt.Errorf("drag %v outside [0,1]", p.Drag)
	}
	if p.LifeSpan <= 0 {
		return fmt.Errorf("life span must be positive, got %v", p.LifeSpan)
	}
	if p.ParticleSize <= 0 {
		return fmt.Errorf("particle size must be positive, got %v", p.ParticleSize)
	}
	if p.NoiseScale < 0 {
		return fmt.Errorf("noise scale must not be negative, got %v", p.NoiseScale)
	}
	return nil
}

// ParamStore publishes whole Params snapshots. Writers may run on any
// goroutine; the frame loop loads once per tick, so a store becomes visible
// on the next tick and no tick ever sees a mix of two snapshots. Only
// snapshots that pass Validate are published.
type ParamStore struct {
	p atomic.Pointer[Params]
}

// NewParamStore starts from initial, or from DefaultParams when initial is
// invalid.
func NewParamStore(initial Params) *ParamStore {
	s := &ParamStore{}
	if err := s.Store(initial); err != nil {
		defaults := DefaultParams()
		s.p.Store(&defaults)
	}
	return s
}

func (s *ParamStore) Load() Params {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return DefaultParams()
}

// Store publishes p. An invalid p is rejected and the current snapshot
// stays in place.
func (s *ParamStore) Store(p Params) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("rejected params: %w", err)
	}
	s.p.Store(&p)
	return nil
}

// Update applies fn to a copy of the current snapshot and publishes it.
// Concurrent updates retry until their compare-and-swap lands. When the
// result is invalid nothing is published.
func (s *ParamStore) Update(fn func(*Params)) error {
	for {
		old := s.p.Load()
		next := DefaultParams()
		if old != nil {
			next = *old
		}
		fn(&next)
		if err := next.Validate(); err != nil {
			return fmt.Errorf("rejected params: %w", err)
		}
		if s.p.CompareAndSwap(old, &next) {
			return nil
		}
	}
}
