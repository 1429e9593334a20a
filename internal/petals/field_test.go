package petals

import (
	"image/color"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/loop"
)

type ellipse struct {
	cx, cy, rx, ry, rot float64
}

// recordingSurface keeps the draw calls of the last frame.
type recordingSurface struct {
	width, height float64
	clears        int
	drawn         []ellipse
}

func (s *recordingSurface) Size() (float64, float64) { return s.width, s.height }

func (s *recordingSurface) Clear() {
	s.clears++
	s.drawn = s.drawn[:0]
}

func (s *recordingSurface) FillEllipse(cx, cy, rx, ry, rot float64, _ color.Color) {
	s.drawn = append(s.drawn, ellipse{cx, cy, rx, ry, rot})
}

var epoch = time.Date(2026, 1, 14, 6, 0, 0, 0, time.UTC)

const refresh = 16 * time.Millisecond

func newTestField(t *testing.T, width float64, capacity, rate int) (*Field, *recordingSurface, *loop.Loop) {
	t.Helper()
	cfg := config.Default()
	opts := OptionsFor(cfg, width)
	opts.Capacity = capacity
	opts.SpawnRate = rate
	opts.Rand = rand.New(rand.NewPCG(1, 2))

	surface := &recordingSurface{width: width, height: 600}
	l := loop.New(epoch)
	return NewField(surface, l, opts), surface, l
}

func tick(l *loop.Loop, n int) {
	for i := 0; i < n; i++ {
		l.Tick(l.Now().Add(refresh))
	}
}

func assertInRanges(t *testing.T, p Particle, width float64) {
	t.Helper()
	cfg := config.Default().Petals
	assert.GreaterOrEqual(t, p.X, 0.0)
	assert.Less(t, p.X, math.Max(width, 1e-9))
	assert.GreaterOrEqual(t, p.Size, cfg.Size.Min)
	assert.Less(t, p.Size, cfg.Size.Max)
	assert.GreaterOrEqual(t, p.Speed, cfg.Speed.Min)
	assert.Less(t, p.Speed, cfg.Speed.Max)
	assert.GreaterOrEqual(t, p.Spin, cfg.Spin.Min)
	assert.LessOrEqual(t, p.Spin, cfg.Spin.Max)
}

func TestSpawnNeverExceedsCapacity(t *testing.T) {
	f, _, _ := newTestField(t, 1024, 7, 5)

	for _, n := range []int{0, -3, 3, 1, 10, 4, 100} {
		f.Spawn(n)
		require.LessOrEqual(t, f.Len(), f.Capacity())
	}
	assert.Equal(t, 7, f.Len())
	assert.Zero(t, f.Spawn(5))
}

func TestSpawnInitialisesWithinRanges(t *testing.T) {
	f, _, _ := newTestField(t, 1024, 100, 5)

	assert.Equal(t, 50, f.Spawn(50))
	for _, p := range f.Particles() {
		assert.Equal(t, -20.0, p.Y)
		assert.GreaterOrEqual(t, p.Angle, 0.0)
		assert.Less(t, p.Angle, 2*math.Pi)
		assertInRanges(t, p, 1024)
	}
}

func TestSpawnOnZeroSizedSurface(t *testing.T) {
	f, surface, _ := newTestField(t, 0, 10, 5)
	surface.height = 0

	f.Spawn(3)
	for _, p := range f.Particles() {
		assert.Zero(t, p.X)
	}
}

func TestAdvanceFrameMovesAndDraws(t *testing.T) {
	f, surface, _ := newTestField(t, 1024, 10, 5)
	f.Spawn(3)
	before := f.Particles()

	f.AdvanceFrame()

	after := f.Particles()
	require.Len(t, surface.drawn, 3)
	assert.Equal(t, 1, surface.clears)
	for i := range after {
		assert.InDelta(t, before[i].Y+before[i].Speed, after[i].Y, 1e-9)
		assert.InDelta(t, before[i].Angle+before[i].Spin, after[i].Angle, 1e-9)

		d := surface.drawn[i]
		assert.Equal(t, after[i].X, d.cx)
		assert.Equal(t, after[i].Y, d.cy)
		assert.Equal(t, after[i].Size, d.rx)
		assert.InDelta(t, after[i].Size*EllipseRatio, d.ry, 1e-9)
		assert.Equal(t, after[i].Angle, d.rot)
	}
	assert.False(t, f.Pending(), "a stopped field does not ask for frames")
}

func TestRecycleResetsAboveTopEdge(t *testing.T) {
	f, surface, _ := newTestField(t, 800, 20, 5)
	surface.height = 50
	f.Spawn(20)

	recycled := 0
	for frame := 0; frame < 200; frame++ {
		before := f.Particles()
		f.AdvanceFrame()
		after := f.Particles()

		for i := range before {
			if before[i].Y+before[i].Speed > surface.height {
				recycled++
				assert.Equal(t, -20.0, after[i].Y)
				assertInRanges(t, after[i], 800)
			} else {
				assert.Greater(t, after[i].Y, before[i].Y)
			}
		}
	}
	assert.Positive(t, recycled)
	assert.Equal(t, 20, f.Len())
}

func TestStandardTierGrowth(t *testing.T) {
	cfg := config.Default()
	opts := OptionsFor(cfg, 1280)
	opts.Rand = rand.New(rand.NewPCG(3, 4))
	require.Equal(t, 100, opts.Capacity)
	require.Equal(t, 5, opts.SpawnRate)

	l := loop.New(epoch)
	f := NewField(&recordingSurface{width: 1280, height: 720}, l, opts)

	f.Spawn(f.SpawnRate())
	f.Start()
	assert.Equal(t, 5, f.Len())

	for i := 1; i <= 19; i++ {
		tick(l, 1)
		assert.Equal(t, 5+5*i, f.Len())
	}
	tick(l, 5)
	assert.Equal(t, 100, f.Len())
}

func TestSlowDownAfterRateChange(t *testing.T) {
	f, _, l := newTestField(t, 1280, 100, 5)
	f.Start()
	tick(l, 2)
	require.Equal(t, 10, f.Len())

	f.SetSpawnRate(1)
	tick(l, 3)
	assert.Equal(t, 13, f.Len())

	f.SetSpawnRate(-4)
	assert.Zero(t, f.SpawnRate())
	tick(l, 3)
	assert.Equal(t, 13, f.Len())
}

func TestNarrowTier(t *testing.T) {
	opts := OptionsFor(config.Default(), 600)
	assert.Equal(t, 40, opts.Capacity)
	assert.Equal(t, 2, opts.SpawnRate)
}

func TestPauseIsIdempotent(t *testing.T) {
	f, surface, l := newTestField(t, 1024, 50, 5)
	f.Start()
	require.True(t, f.Pending())

	f.Pause()
	f.Pause()
	assert.False(t, f.Running())
	assert.False(t, f.Pending())
	assert.Zero(t, l.PendingFrames())

	clears := surface.clears
	tick(l, 5)
	assert.Equal(t, clears, surface.clears, "no frames while paused")
}

func TestResumeIsIdempotent(t *testing.T) {
	f, surface, l := newTestField(t, 1024, 50, 5)
	f.Start()
	f.Pause()

	f.Resume()
	f.Resume()
	assert.True(t, f.Running())
	assert.Equal(t, 1, l.PendingFrames())

	clears := surface.clears
	tick(l, 4)
	assert.Equal(t, clears+4, surface.clears, "exactly one frame per refresh")
	assert.Equal(t, 1, l.PendingFrames())
}

func TestResumeBeforeStartDoesNothing(t *testing.T) {
	f, _, l := newTestField(t, 1024, 50, 5)
	f.Resume()
	assert.False(t, f.Running())
	assert.Zero(t, l.PendingFrames())

	f.Start()
	assert.True(t, f.Running())
	assert.Equal(t, 1, l.PendingFrames())
}

func TestPauseBeforeStartDefersLoop(t *testing.T) {
	f, surface, l := newTestField(t, 1024, 50, 5)
	f.Pause()
	f.Spawn(5)
	f.Start()
	assert.False(t, f.Running())
	assert.False(t, f.Pending())
	assert.Zero(t, surface.clears, "no frame drawn while paused")

	tick(l, 10)
	assert.Zero(t, surface.clears)
	assert.Equal(t, 5, f.Len())

	f.Resume()
	assert.True(t, f.Running())
	assert.Equal(t, 1, l.PendingFrames())
	tick(l, 3)
	assert.Equal(t, 3, surface.clears)
	assert.Equal(t, 20, f.Len())
}

func TestStartTwiceKeepsOneSchedule(t *testing.T) {
	f, _, l := newTestField(t, 1024, 50, 5)
	f.Start()
	f.Start()
	assert.Equal(t, 1, l.PendingFrames())
}

// staleScheduler hands out ids but ignores cancellation, like a frame callback
// that was already queued when the pause arrived.
type staleScheduler struct {
	next loop.FrameID
	fns  []func()
}

func (s *staleScheduler) RequestFrame(fn func()) loop.FrameID {
	s.next++
	s.fns = append(s.fns, fn)
	return s.next
}

func (s *staleScheduler) CancelFrame(loop.FrameID) {}

func (s *staleScheduler) flush() {
	fns := s.fns
	s.fns = nil
	for _, fn := range fns {
		fn()
	}
}

func TestStaleCallbackCannotResurrectLoop(t *testing.T) {
	sched := &staleScheduler{}
	surface := &recordingSurface{width: 1024, height: 600}
	opts := OptionsFor(config.Default(), 1024)
	opts.Rand = rand.New(rand.NewPCG(5, 6))
	f := NewField(surface, sched, opts)

	f.Start()
	f.Pause()
	clears := surface.clears
	sched.flush()
	assert.Equal(t, clears, surface.clears)
	assert.Empty(t, sched.fns)

	// pause, resume: the pre-pause callback is stale, the new one is live
	f.Pause()
	f.Resume()
	require.Len(t, sched.fns, 1)
	sched.flush()
	assert.Equal(t, clears+1, surface.clears)
	assert.Len(t, sched.fns, 1)
}
