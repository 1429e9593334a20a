package cue

import (
	"math"
	"sync"

	"github.com/faiface/beep"

	"github.com/iburimskiy/festive-greeting/internal/config"
)

// meter wraps a beep.Streamer and records the last N samples into a ring buffer
// so the renderer can follow how loud the cue currently is.
type meter struct {
	Source    beep.Streamer
	buffer    [][2]float64
	nextIndex int
	mu        sync.RWMutex

	level float64 // smoothed, touched only by Level
}

func newMeter(src beep.Streamer, ringSize int) *meter {
	return &meter{
		Source: src,
		buffer: make([][2]float64, ringSize),
	}
}

func (m *meter) Stream(samples [][2]float64) (int, bool) {
	n, ok := m.Source.Stream(samples)
	if n > 0 {
		m.mu.Lock()
		for i := 0; i < n; i++ {
			m.buffer[m.nextIndex] = samples[i]
			m.nextIndex++
			if m.nextIndex >= len(m.buffer) {
				m.nextIndex = 0
			}
		}
		m.mu.Unlock()
	}
	return n, ok
}

func (m *meter) Err() error { return m.Source.Err() }

// snapshot returns up to last n samples (stereo) from the ring buffer (most recent last).
func (m *meter) snapshot(n int) [][2]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n > len(m.buffer) {
		n = len(m.buffer)
	}
	out := make([][2]float64, 0, n)
	idx := m.nextIndex - 1
	if idx < 0 {
		idx = len(m.buffer) - 1
	}
	for i := 0; i < n; i++ {
		out = append(out, m.buffer[idx])
		idx--
		if idx < 0 {
			idx = len(m.buffer) - 1
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Level is the compressed RMS loudness of the last n samples, smoothed with
// the previous reading. 0 is silence, 1 full scale.
func (m *meter) Level(n int) float64 {
	samples := m.snapshot(n)
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		mono := (s[0] + s[1]) * 0.5
		sumSquares += mono * mono
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))
	mag := clamp01(math.Pow(rms, 0.3))

	m.level = config.SmoothingFactor*m.level + (1-config.SmoothingFactor)*mag
	return m.level
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
