package game

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHsvToRgb(t *testing.T) {
	tests := []struct {
		name    string
		h, s, v float64
		r, g, b uint8
	}{
		{name: "red", h: 0, s: 1, v: 1, r: 255},
		{name: "green", h: 120, s: 1, v: 1, g: 255},
		{name: "blue", h: 240, s: 1, v: 1, b: 255},
		{name: "wraps", h: 360 + 240, s: 1, v: 1, b: 255},
		{name: "negative hue", h: -120, s: 1, v: 1, b: 255},
		{name: "grey", h: 77, s: 0, v: 0.5, r: 127, g: 127, b: 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := hsvToRgb(tt.h, tt.s, tt.v)
			assert.Equal(t, [3]uint8{tt.r, tt.g, tt.b}, [3]uint8{r, g, b})
		})
	}
}

func TestApproach(t *testing.T) {
	assert.InDelta(t, 0.25, approach(0, 1, 0.25), 1e-12)
	assert.Equal(t, 1.0, approach(0.9, 1, 0.25))
	assert.InDelta(t, 0.75, approach(1, 0, 0.25), 1e-12)
	assert.Equal(t, 0.0, approach(0.1, 0, 0.25))
	assert.Equal(t, 0.5, approach(0.5, 0.5, 0.25))
}

func TestMix(t *testing.T) {
	a := color.RGBA{R: 0, G: 100, B: 200, A: 255}
	b := color.RGBA{R: 200, G: 100, B: 0, A: 255}

	assert.Equal(t, a, mix(a, b, 0))
	assert.Equal(t, b, mix(a, b, 1))
	assert.Equal(t, color.RGBA{R: 100, G: 100, B: 100, A: 255}, mix(a, b, 0.5))
	assert.Equal(t, b, mix(a, b, 7), "t is clamped")
}

func TestColorPhaseWaveStaysInRange(t *testing.T) {
	g := &Game{}
	for i := 0; i < 500; i++ {
		g.colorPhase = float64(i) * 0.013
		w := g.colorPhaseWave(float64(i%10) / 10)
		assert.GreaterOrEqual(t, w, -1.0)
		assert.LessOrEqual(t, w, 1.0)
	}
}

func TestCanvasWithoutSize(t *testing.T) {
	c := NewCanvas(0, 0)
	w, h := c.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.Nil(t, c.Image())
	assert.NotPanics(t, func() {
		c.Clear()
		c.FillEllipse(10, 10, 4, 2.4, 0.3, color.White)
	})
}
