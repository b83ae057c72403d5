// Command wakedemo swims a procedural dolphin in circles and draws its
// particle wake. Tab selects a wake parameter, Up and Down change it.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	wake "github.com/gekko3d/wake"
	"github.com/gekko3d/wake/config"
)

func main() {
	configPath := flag.String("config", "", "YAML config file layered over the defaults")
	writeConfig := flag.String("write-config", "", "write the effective config to this file and exit")
	preset := flag.String("preset", "", "YAML parameter preset applied over the config")
	forceCPU := flag.Bool("cpu", false, "simulate on the CPU")
	headless := flag.Bool("headless", false, "run without a window")
	frames := flag.Int("frames", 0, "quit after this many frames (headless defaults to 300)")
	dump := flag.String("dump", "", "write the final particle state to this BMP file")
	preview := flag.String("preview", "", "write a CPU rendered view of the final frame to this BMP file")
	flag.Parse()

	if err := run(*configPath, *writeConfig, *preset, *forceCPU, *headless, *frames, *dump, *preview); err != nil {
		fmt.Fprintf(os.Stderr, "wakedemo: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, writeConfig, preset string, forceCPU, headless bool, frames int, dump, preview string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if writeConfig != "" {
		return cfg.WriteYAML(writeConfig)
	}

	params, err := cfg.Params.ToParams()
	if err != nil {
		return err
	}
	if preset != "" {
		if params, err = config.LoadParams(preset); err != nil {
			return err
		}
	}
	if headless && frames <= 0 {
		frames = 300
	}

	var fixed time.Duration
	if headless {
		fixed = time.Second / 60
	}

	builder := wake.NewAppBuilder().
		UseModule(wake.LoggingModule{Prefix: cfg.Log.Prefix, Debug: cfg.Log.Debug}).
		UseModule(wake.TimeModule{Fixed: fixed}).
		UseModule(panelModule{})
	if !headless {
		builder.UseModule(wake.WindowModule{
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			Title:  cfg.Window.Title,
		})
	}
	builder.
		UseModule(wake.SwimmerModule{Options: wake.SwimmerOptions{
			Length:     cfg.Swimmer.Length,
			Radius:     cfg.Swimmer.Radius,
			Rings:      cfg.Swimmer.Rings,
			Sides:      cfg.Swimmer.Sides,
			Bones:      cfg.Swimmer.Bones,
			Speed:      cfg.Swimmer.Speed,
			PathRadius: cfg.Swimmer.PathRadius,
			Amplitude:  cfg.Swimmer.Amplitude,
			Frequency:  cfg.Swimmer.Frequency,
		}}).
		UseModule(wake.CameraModule{Width: cfg.Window.Width, Height: cfg.Window.Height}).
		UseModule(wake.WakeModule{
			Params: &params,
			Options: wake.EffectOptions{
				Width:    cfg.Effect.Width,
				Seed:     cfg.Effect.Seed,
				ForceCPU: forceCPU || cfg.Effect.CPU,
			},
		}).
		UseModule(exitModule{frames: frames, dump: dump, preview: preview})

	app := builder.Build()
	app.Run()
	return nil
}

// panelModule installs the keyboard driven parameter panel.
type panelModule struct{}

func (panelModule) Install(app *wake.App, cmd *wake.Commands) {
	cmd.AddResources(wake.NewMemoryPanel())
}

// exitModule quits after a frame budget and dumps the particle state while
// the effect still holds it.
type exitModule struct {
	frames  int
	dump    string
	preview string
}

func (m exitModule) Install(app *wake.App, cmd *wake.Commands) {
	if m.frames > 0 {
		cmd.UseSystem(wake.System(func(cmd *wake.Commands) {
			if app.FrameCount()+1 >= uint64(m.frames) {
				cmd.Quit()
			}
		}).InStage(wake.Update))
	}
	if m.dump == "" && m.preview == "" {
		return
	}
	if _, ok := wake.Resource[wake.WakeEffect](app); !ok {
		app.Logger().Warnf("no wake effect installed, -dump and -preview ignored")
		return
	}
	cmd.UseSystem(wake.System(func(effect *wake.WakeEffect, cam *wake.Camera) {
		if !app.Quitting() {
			return
		}
		log := app.Logger()
		if m.dump != "" {
			if err := wake.DumpStateFile(m.dump, effect); err != nil {
				log.Errorf("dump: %v", err)
			} else {
				log.Infof("particle state written to %s", m.dump)
			}
		}
		if m.preview != "" {
			if err := wake.DumpPreviewFile(m.preview, effect, cam); err != nil {
				log.Errorf("preview: %v", err)
			} else {
				log.Infof("preview written to %s", m.preview)
			}
		}
	}).InStage(wake.Render))
}
