package wake

import (
	"github.com/gekko3d/wake/wakert/rt/core"
)

// WakeModule creates a WakeEffect for Actor (or the installed Swimmer) and
// updates it once per frame before rendering.
type WakeModule struct {
	Actor   Actor
	Params  *core.Params
	Options EffectOptions
}

func (m WakeModule) Install(app *App, cmd *Commands) {
	log := app.Logger()

	store, ok := Resource[core.ParamStore](app)
	if !ok {
		params := core.DefaultParams()
		if m.Params != nil {
			if err := m.Params.Validate(); err != nil {
				log.Warnf("wake module: %v, using defaults", err)
			} else {
				params = *m.Params
			}
		}
		store = core.NewParamStore(params)
		cmd.AddResources(store)
	}
	scene, ok := Resource[RenderList](app)
	if !ok {
		scene = &RenderList{}
		cmd.AddResources(scene)
	}

	actor := m.Actor
	if actor == nil {
		if s, ok := Resource[Swimmer](app); ok {
			actor = s
		}
	}
	if actor == nil {
		log.Errorf("wake module: no actor to follow, effect not created")
		return
	}

	opts := m.Options
	if opts.Logger == nil {
		opts.Logger = log
	}
	if opts.Gpu == nil {
		if g, ok := Resource[GpuContext](app); ok {
			opts.Gpu = g
		}
	}
	if opts.Panel == nil {
		if p, ok := Resource[MemoryPanel](app); ok {
			opts.Panel = p
		}
	}

	cmd.AddResources(NewWakeEffect(actor, scene, store, opts))
	cmd.UseSystem(System(wakeUpdateSystem).InStage(PreRender))
	cmd.UseSystem(System(wakeDisposeSystem).InStage(PostRender))
}

func wakeUpdateSystem(effect *WakeEffect, t *Time) {
	effect.Update(t)
}

func wakeDisposeSystem(cmd *Commands, effect *WakeEffect) {
	if cmd.app.Quitting() {
		effect.Dispose()
	}
}

// SwimmerModule installs the procedural swimmer and animates it.
type SwimmerModule struct {
	Options SwimmerOptions
}

func (m SwimmerModule) Install(app *App, cmd *Commands) {
	opts := m.Options
	if opts.Rings == 0 {
		opts = DefaultSwimmerOptions()
	}
	s, err := NewSwimmer(opts)
	if err != nil {
		app.Logger().Errorf("swimmer: %v", err)
		return
	}
	cmd.AddResources(s)
	cmd.UseSystem(System(swimmerSystem).InStage(Update))
}

func swimmerSystem(s *Swimmer, t *Time) {
	s.Animate(t.ElapsedSeconds())
}

// CameraModule installs an orbit camera, optionally following an actor.
type CameraModule struct {
	Width  int
	Height int
	Follow Actor
}

func (m CameraModule) Install(app *App, cmd *Commands) {
	cam, ok := Resource[Camera](app)
	if !ok {
		cam = NewCamera(m.Width, m.Height)
		cmd.AddResources(cam)
	}
	follow := m.Follow
	if follow == nil {
		if s, ok := Resource[Swimmer](app); ok {
			follow = s
		}
	}
	if follow == nil {
		return
	}
	cam.Target = ActorPosition(follow)
	cmd.UseSystem(System(func(cam *Camera, t *Time) {
		cam.Follow(ActorPosition(follow), t.DtSeconds())
	}).InStage(PostUpdate))
}
