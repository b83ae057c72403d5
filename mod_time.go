package wake

import (
	"time"
)

type Time struct {
	Time    time.Time
	Dt      time.Duration
	Elapsed time.Duration

	// Fixed, when set, replaces the wall clock step. Headless runs use it
	// to stay deterministic.
	Fixed time.Duration
}

func (t *Time) DtSeconds() float32 {
	return float32(t.Dt.Seconds())
}

func (t *Time) ElapsedSeconds() float32 {
	return float32(t.Elapsed.Seconds())
}

type TimeModule struct {
	Fixed time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time:  time.Now(),
		Fixed: mod.Fixed,
	})
	cmd.UseSystem(System(timeSystem).InStage(Prelude))
}

func timeSystem(t *Time) {
	now := time.Now()
	if t.Fixed > 0 {
		t.Dt = t.Fixed
	} else {
		t.Dt = now.Sub(t.Time)
	}
	t.Time = now
	t.Elapsed += t.Dt
}
