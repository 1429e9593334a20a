// Package sequence runs the greeting timeline: a countdown, then the reveal,
// then a handful of one-shot actions at fixed offsets from the reveal.
package sequence

import (
	"time"

	"go.uber.org/zap"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/logging"
	"github.com/iburimskiy/festive-greeting/internal/loop"
)

type Phase int

const (
	Idle Phase = iota
	Counting
	Revealed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Counting:
		return "counting"
	case Revealed:
		return "revealed"
	}
	return "unknown"
}

// Presentation is everything a front end needs to draw the current state.
type Presentation struct {
	Phase            Phase
	Countdown        int
	CountdownVisible bool
	BackgroundActive bool
	EnglishVisible   bool
	EnglishHiding    bool
	TamilVisible     bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) *loop.Timer
	Every(period time.Duration, fn func()) *loop.Timer
}

// Field is the part of the petal field the timeline drives.
type Field interface {
	Spawn(n int) int
	SpawnRate() int
	SetSpawnRate(n int)
	Start()
}

// Cue is the audio cue. Play may fail at any time; failures are ignored.
type Cue interface {
	Play() error
	Pause()
	Rewind() error
}

type Options struct {
	Timeline config.Timeline
	// SlowRate is the spawn rate applied at Timeline.SlowDown.
	SlowRate int
	Log      *zap.SugaredLogger
}

type action struct {
	delay time.Duration
	name  string
	run   func()
}

type Orchestrator struct {
	sched Scheduler
	field Field
	cue   Cue
	opts  Options
	log   *zap.SugaredLogger

	state     Presentation
	ticker    *loop.Timer
	listeners []func(Presentation)
}

// New builds an idle orchestrator. cue may be nil.
func New(sched Scheduler, field Field, cue Cue, opts Options) *Orchestrator {
	if opts.Timeline.CountdownFrom < 1 {
		opts.Timeline.CountdownFrom = 1
	}
	if opts.Timeline.TickEvery <= 0 {
		opts.Timeline.TickEvery = time.Second
	}
	return &Orchestrator{
		sched: sched,
		field: field,
		cue:   cue,
		opts:  opts,
		log:   logging.OrNop(opts.Log),
	}
}

// OnChange registers fn to be called after every state change.
func (o *Orchestrator) OnChange(fn func(Presentation)) {
	o.listeners = append(o.listeners, fn)
}

func (o *Orchestrator) Presentation() Presentation { return o.state }

func (o *Orchestrator) Phase() Phase { return o.state.Phase }

func (o *Orchestrator) notify() {
	for _, fn := range o.listeners {
		fn(o.state)
	}
}

// Begin is the start trigger. Only the first call has an effect.
func (o *Orchestrator) Begin() {
	if o.state.Phase != Idle {
		o.log.Debugw("start trigger ignored", "phase", o.state.Phase)
		return
	}
	o.unlockAudio()

	o.state.Phase = Counting
	o.state.Countdown = o.opts.Timeline.CountdownFrom
	o.state.CountdownVisible = true
	o.log.Infow("countdown started", "from", o.state.Countdown)
	o.notify()

	o.ticker = o.sched.Every(o.opts.Timeline.TickEvery, o.tick)
}

// unlockAudio plays and immediately parks the cue from within the start
// trigger so later playback from a timer is allowed.
func (o *Orchestrator) unlockAudio() {
	if o.cue == nil {
		return
	}
	if err := o.cue.Play(); err != nil {
		o.log.Debugw("audio unlock rejected", "err", err)
		return
	}
	o.cue.Pause()
	if err := o.cue.Rewind(); err != nil {
		o.log.Debugw("audio rewind failed", "err", err)
	}
}

func (o *Orchestrator) tick() {
	o.state.Countdown--
	if o.state.Countdown > 0 {
		o.log.Debugw("countdown", "remaining", o.state.Countdown)
		o.notify()
		return
	}
	o.ticker.Stop()
	o.ticker = nil
	o.reveal()
}

func (o *Orchestrator) reveal() {
	o.state.Phase = Revealed
	o.state.Countdown = 0
	o.state.CountdownVisible = false
	o.state.BackgroundActive = true
	o.log.Infow("greeting revealed")
	o.notify()

	if o.cue != nil {
		if err := o.cue.Play(); err != nil {
			o.log.Debugw("audio playback rejected", "err", err)
		}
	}

	o.field.Spawn(o.field.SpawnRate())
	o.field.Start()

	for _, a := range o.actions() {
		o.sched.AfterFunc(a.delay, func() {
			o.log.Debugw("timeline action", "action", a.name, "at", a.delay)
			a.run()
			o.notify()
		})
	}
}

func (o *Orchestrator) actions() []action {
	tl := o.opts.Timeline
	return []action{
		{delay: tl.ShowEnglish, name: "show english", run: func() {
			o.state.EnglishVisible = true
		}},
		{delay: tl.HideEnglish, name: "hide english", run: func() {
			o.state.EnglishVisible = false
			o.state.EnglishHiding = true
		}},
		{delay: tl.ShowTamil, name: "show tamil", run: func() {
			o.state.TamilVisible = true
		}},
		{delay: tl.SlowDown, name: "slow petals", run: func() {
			o.field.SetSpawnRate(o.opts.SlowRate)
		}},
	}
}
