package wake

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/lucasb-eyer/go-colorful"
)

const ParameterGroup = "Wake Particles"

type SliderSpec struct {
	Label string
	Group string
	Min   float32
	Max   float32
	Step  float32
	Get   func() float32
	// Set applies v and reports a value the parameters reject.
	Set func(float32) error
}

type ColorSpec struct {
	Label string
	Group string
	Get   func() colorful.Color
	Set   func(colorful.Color) error
}

// Panel is a debug UI that can bind sliders and colour pickers.
type Panel interface {
	AddSlider(SliderSpec)
	AddColor(ColorSpec)
}

type sliderBinding struct {
	label    string
	min, max float32
	step     float32
	field    func(*core.Params) *float32
}

var wakeSliders = []sliderBinding{
	{"Backward Speed", 0.5, 8, 0.1, func(p *core.Params) *float32 { return &p.BackwardSpeed }},
	{"Turbulence", 0, 2, 0.05, func(p *core.Params) *float32 { return &p.Turbulence }},
	{"Spread", 0, 1, 0.05, func(p *core.Params) *float32 { return &p.Spread }},
	{"Curl Strength", 0, 2, 0.05, func(p *core.Params) *float32 { return &p.CurlStrength }},
	{"Spiral", 0, 1, 0.05, func(p *core.Params) *float32 { return &p.SpiralIntensity }},
	{"Buoyancy", 0, 0.5, 0.01, func(p *core.Params) *float32 { return &p.Buoyancy }},
	{"Drag", 0.9, 1, 0.005, func(p *core.Params) *float32 { return &p.Drag }},
	{"Particle Size", 1, 30, 1, func(p *core.Params) *float32 { return &p.ParticleSize }},
}

type colorBinding struct {
	label string
	field func(*core.Params) *colorful.Color
}

var wakeColors = []colorBinding{
	{"Color Fresh", func(p *core.Params) *colorful.Color { return &p.ColorFresh }},
	{"Color Mid", func(p *core.Params) *colorful.Color { return &p.ColorMid }},
	{"Color Old", func(p *core.Params) *colorful.Color { return &p.ColorOld }},
}

// RegisterWakeParameters binds every tunable to panel. Setters publish a
// new snapshot through store, so a change shows on the next frame.
func RegisterWakeParameters(panel Panel, store *core.ParamStore, group string) {
	if panel == nil || store == nil {
		return
	}
	if group == "" {
		group = ParameterGroup
	}
	for _, b := range wakeSliders {
		field := b.field
		panel.AddSlider(SliderSpec{
			Label: b.label,
			Group: group,
			Min:   b.min,
			Max:   b.max,
			Step:  b.step,
			Get: func() float32 {
				p := store.Load()
				return *field(&p)
			},
			Set: func(v float32) error {
				return store.Update(func(p *core.Params) { *field(p) = v })
			},
		})
	}
	for _, b := range wakeColors {
		field := b.field
		panel.AddColor(ColorSpec{
			Label: b.label,
			Group: group,
			Get: func() colorful.Color {
				p := store.Load()
				return *field(&p)
			},
			Set: func(c colorful.Color) error {
				return store.Update(func(p *core.Params) { *field(p) = c })
			},
		})
	}
}

// MemoryPanel is a headless Panel. The demo drives it from the keyboard and
// tests drive it directly.
type MemoryPanel struct {
	mu      sync.Mutex
	sliders map[string]SliderSpec
	colors  map[string]ColorSpec
}

var _ Panel = (*MemoryPanel)(nil)

func NewMemoryPanel() *MemoryPanel {
	return &MemoryPanel{
		sliders: make(map[string]SliderSpec),
		colors:  make(map[string]ColorSpec),
	}
}

func (m *MemoryPanel) AddSlider(s SliderSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sliders[s.Label] = s
}

func (m *MemoryPanel) AddColor(c ColorSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.colors[c.Label] = c
}

func (m *MemoryPanel) Slider(label string) (SliderSpec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sliders[label]
	return s, ok
}

// Labels lists the slider labels in sorted order.
func (m *MemoryPanel) Labels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	labels := make([]string, 0, len(m.sliders))
	for l := range m.sliders {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Set clamps v to the slider range, snaps it to the step grid and applies it.
func (m *MemoryPanel) Set(label string, v float32) (float32, error) {
	s, ok := m.Slider(label)
	if !ok {
		return 0, fmt.Errorf("no slider %q", label)
	}
	if v < s.Min {
		v = s.Min
	}
	if v > s.Max {
		v = s.Max
	}
	if s.Step > 0 {
		n := math.Round(float64((v - s.Min) / s.Step))
		v = s.Min + float32(n)*s.Step
		if v > s.Max {
			v = s.Max
		}
	}
	if err := s.Set(v); err != nil {
		return 0, fmt.Errorf("slider %q: %w", label, err)
	}
	return v, nil
}

// Nudge moves a slider by steps increments.
func (m *MemoryPanel) Nudge(label string, steps int) (float32, error) {
	s, ok := m.Slider(label)
	if !ok {
		return 0, fmt.Errorf("no slider %q", label)
	}
	return m.Set(label, s.Get()+float32(steps)*s.Step)
}

func (m *MemoryPanel) SetColor(label, hex string) error {
	m.mu.Lock()
	c, ok := m.colors[label]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no color %q", label)
	}
	col, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("color %q: %w", label, err)
	}
	if err := c.Set(col); err != nil {
		return fmt.Errorf("color %q: %w", label, err)
	}
	return nil
}
