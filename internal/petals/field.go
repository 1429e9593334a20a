// Package petals animates a bounded field of falling petals. Petals that
// leave the bottom of the surface are recycled in place, so the slice never
// shrinks and never grows past its capacity.
package petals

import (
	"image/color"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/logging"
	"github.com/iburimskiy/festive-greeting/internal/loop"
)

// EllipseRatio is the semi-minor to semi-major axis ratio of a drawn petal.
const EllipseRatio = 0.6

// Surface is the drawing target. Size may change between frames.
type Surface interface {
	Size() (width, height float64)
	Clear()
	FillEllipse(cx, cy, rx, ry, rotation float64, c color.Color)
}

// FrameScheduler delivers the per-refresh signal.
type FrameScheduler interface {
	RequestFrame(fn func()) loop.FrameID
	CancelFrame(id loop.FrameID)
}

type Options struct {
	Capacity  int
	SpawnRate int

	Size      config.Range
	Speed     config.Range
	Spin      config.Range
	TopOffset float64
	Color     color.Color

	// Rand defaults to a time-seeded source.
	Rand *rand.Rand
	Log  *zap.SugaredLogger
}

// OptionsFor picks the tier matching the viewport width and copies the petal
// tuning out of cfg. cfg is assumed to be validated.
func OptionsFor(cfg config.Config, width float64) Options {
	tier := cfg.TierFor(width)
	c, _ := config.ParseHexColor(cfg.Petals.Color)
	return Options{
		Capacity:  tier.Capacity,
		SpawnRate: tier.SpawnRate,
		Size:      cfg.Petals.Size,
		Speed:     cfg.Petals.Speed,
		Spin:      cfg.Petals.Spin,
		TopOffset: cfg.Petals.TopOffset,
		Color:     c,
	}
}

type Field struct {
	surface Surface
	frames  FrameScheduler
	opts    Options
	rng     *rand.Rand
	log     *zap.SugaredLogger

	particles []Particle
	rate      int

	started bool
	running bool
	// suspended holds a pause that arrived before or after Start until the
	// next Resume.
	suspended bool
	pending loop.FrameID
	// gen is bumped on every pause so a callback captured before the pause
	// can tell it is stale.
	gen uint64
}

func NewField(surface Surface, frames FrameScheduler, opts Options) *Field {
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if opts.Capacity < 0 {
		opts.Capacity = 0
	}
	if opts.Color == nil {
		opts.Color = color.RGBA{R: 0xf5, G: 0xc5, B: 0x42, A: 0xff}
	}
	return &Field{
		surface:   surface,
		frames:    frames,
		opts:      opts,
		rng:       rng,
		log:       logging.OrNop(opts.Log),
		particles: make([]Particle, 0, opts.Capacity),
		rate:      opts.SpawnRate,
	}
}

// Spawn admits up to n new petals without exceeding capacity and returns how
// many were added.
func (f *Field) Spawn(n int) int {
	width, _ := f.surface.Size()
	added := 0
	for ; added < n && len(f.particles) < f.opts.Capacity; added++ {
		var p Particle
		p.reset(f.rng, width, &f.opts)
		f.particles = append(f.particles, p)
	}
	return added
}

// AdvanceFrame moves and redraws every petal, then asks for the next frame if
// the field is running.
func (f *Field) AdvanceFrame() {
	width, height := f.surface.Size()
	f.surface.Clear()
	for i := range f.particles {
		p := &f.particles[i]
		if p.update(height) {
			p.reset(f.rng, width, &f.opts)
		}
		f.surface.FillEllipse(p.X, p.Y, p.Size, p.Size*EllipseRatio, p.Angle, f.opts.Color)
	}
	f.schedule()
}

// Start begins the frame loop. Calling it on a running field does nothing.
// A field paused before Start only records the start; its first frame is
// requested by Resume.
func (f *Field) Start() {
	if f.running {
		return
	}
	f.started = true
	if f.suspended {
		f.log.Debugw("petal loop start deferred until resume", "petals", len(f.particles))
		return
	}
	f.running = true
	f.log.Debugw("petal loop started", "petals", len(f.particles), "capacity", f.opts.Capacity, "rate", f.rate)
	f.AdvanceFrame()
}

// Pause cancels the pending frame. Safe to call repeatedly.
func (f *Field) Pause() {
	f.gen++
	f.suspended = true
	if f.pending != 0 {
		f.frames.CancelFrame(f.pending)
		f.pending = 0
	}
	if f.running {
		f.log.Debugw("petal loop paused")
	}
	f.running = false
}

// Resume restarts a paused loop from a fresh frame request. Before Start it
// only clears the pause; while running it does nothing.
func (f *Field) Resume() {
	f.suspended = false
	if !f.started || f.running {
		return
	}
	f.running = true
	f.log.Debugw("petal loop resumed")
	f.schedule()
}

func (f *Field) schedule() {
	if !f.running || f.pending != 0 {
		return
	}
	gen := f.gen
	f.pending = f.frames.RequestFrame(func() {
		if gen != f.gen {
			return
		}
		f.pending = 0
		f.Spawn(f.rate)
		f.AdvanceFrame()
	})
}

func (f *Field) SetSpawnRate(n int) {
	if n < 0 {
		n = 0
	}
	f.log.Infow("petal spawn rate changed", "from", f.rate, "to", n)
	f.rate = n
}

func (f *Field) SpawnRate() int { return f.rate }

func (f *Field) Len() int { return len(f.particles) }

func (f *Field) Capacity() int { return f.opts.Capacity }

func (f *Field) Running() bool { return f.running }

// Pending reports whether a frame request is outstanding.
func (f *Field) Pending() bool { return f.pending != 0 }

// Particles returns a copy of the live petals.
func (f *Field) Particles() []Particle {
	out := make([]Particle, len(f.particles))
	copy(out, f.particles)
	return out
}
