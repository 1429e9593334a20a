// Package show wires the event loop, the petal field and the greeting
// timeline together for a front end.
package show

import (
	"time"

	"go.uber.org/zap"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/logging"
	"github.com/iburimskiy/festive-greeting/internal/loop"
	"github.com/iburimskiy/festive-greeting/internal/petals"
	"github.com/iburimskiy/festive-greeting/internal/sequence"
)

type Show struct {
	Loop     *loop.Loop
	Field    *petals.Field
	Sequence *sequence.Orchestrator

	log    *zap.SugaredLogger
	hidden bool
}

// New sizes the petal field from the surface's current width. cue may be nil.
func New(cfg config.Config, surface petals.Surface, cue sequence.Cue, start time.Time, log *zap.SugaredLogger) *Show {
	log = logging.OrNop(log)
	width, _ := surface.Size()
	tier := cfg.TierFor(width)

	l := loop.New(start)
	opts := petals.OptionsFor(cfg, width)
	opts.Log = log.Named("petals")
	field := petals.NewField(surface, l, opts)

	seq := sequence.New(l, field, cue, sequence.Options{
		Timeline: cfg.Timeline,
		SlowRate: tier.SlowRate,
		Log:      log.Named("sequence"),
	})

	seq.OnChange(func(p sequence.Presentation) {
		log.Debugw("presentation changed",
			"phase", p.Phase,
			"countdown", p.Countdown,
			"english", p.EnglishVisible,
			"tamil", p.TamilVisible,
			"petals", field.Len(),
			"spawnRate", field.SpawnRate())
	})

	log.Infow("show ready",
		"width", width,
		"capacity", tier.Capacity,
		"spawnRate", tier.SpawnRate,
		"slowRate", tier.SlowRate)

	return &Show{Loop: l, Field: field, Sequence: seq, log: log}
}

// Begin is the start trigger.
func (s *Show) Begin() { s.Sequence.Begin() }

// Tick runs everything due by now. Call it once per display refresh.
func (s *Show) Tick(now time.Time) { s.Loop.Tick(now) }

func (s *Show) Presentation() sequence.Presentation { return s.Sequence.Presentation() }

// SetVisible pauses the petal loop while hidden and resumes it from a fresh
// frame when shown again. Timers are not affected.
func (s *Show) SetVisible(visible bool) {
	if visible == !s.hidden {
		return
	}
	s.hidden = !visible
	if s.hidden {
		s.log.Debugw("hidden, pausing petals")
		s.Field.Pause()
		return
	}
	s.log.Debugw("visible, resuming petals")
	s.Field.Resume()
}

func (s *Show) Visible() bool { return !s.hidden }
