package petals

import (
	"math"
	"math/rand/v2"

	"github.com/iburimskiy/festive-greeting/internal/config"
)

// Particle is a single falling, spinning petal. Y grows downwards from the
// top edge of the surface.
type Particle struct {
	X, Y  float64
	Size  float64
	Speed float64 // units per frame
	Angle float64 // radians
	Spin  float64 // radians per frame
}

func between(rng *rand.Rand, r config.Range) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// reset re-randomizes every attribute and puts the petal just above the top
// edge.
func (p *Particle) reset(rng *rand.Rand, width float64, o *Options) {
	p.X = rng.Float64() * width
	p.Y = o.TopOffset
	p.Size = between(rng, o.Size)
	p.Speed = between(rng, o.Speed)
	p.Angle = rng.Float64() * 2 * math.Pi
	p.Spin = between(rng, o.Spin)
}

// update advances the petal by one frame and reports whether it left the
// bottom edge.
func (p *Particle) update(height float64) bool {
	p.Y += p.Speed
	p.Angle += p.Spin
	return p.Y > height
}
