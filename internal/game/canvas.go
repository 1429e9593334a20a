package game

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// ellipseSegments is the number of triangles in a drawn petal.
const ellipseSegments = 18

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// Canvas is the offscreen image the petal field draws on. It is composed onto
// the screen in Draw.
type Canvas struct {
	img  *ebiten.Image
	w, h int

	vertices []ebiten.Vertex
	indices  []uint16
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.Resize(w, h)
	return c
}

// Resize replaces the backing image when the size changes. The petals keep
// their positions.
func (c *Canvas) Resize(w, h int) {
	if w == c.w && h == c.h {
		return
	}
	if c.img != nil {
		c.img.Deallocate()
		c.img = nil
	}
	c.w, c.h = 0, 0
	if w <= 0 || h <= 0 {
		return
	}
	c.img = ebiten.NewImage(w, h)
	c.w, c.h = w, h
}

func (c *Canvas) Size() (float64, float64) { return float64(c.w), float64(c.h) }

func (c *Canvas) Clear() {
	if c.img != nil {
		c.img.Clear()
	}
}

// FillEllipse draws a filled ellipse centred on (cx, cy), rotated by rot
// radians, as a triangle fan.
func (c *Canvas) FillEllipse(cx, cy, rx, ry, rot float64, clr color.Color) {
	if c.img == nil {
		return
	}
	r, g, b, a := clr.RGBA()
	cr, cg, cb, ca := float32(r)/0xffff, float32(g)/0xffff, float32(b)/0xffff, float32(a)/0xffff
	sinR, cosR := math.Sincos(rot)

	c.vertices = c.vertices[:0]
	c.indices = c.indices[:0]
	c.vertices = append(c.vertices, ebiten.Vertex{
		DstX: float32(cx), DstY: float32(cy),
		SrcX: 1, SrcY: 1,
		ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
	})
	for i := 0; i <= ellipseSegments; i++ {
		sinA, cosA := math.Sincos(2 * math.Pi * float64(i) / ellipseSegments)
		ex, ey := rx*cosA, ry*sinA
		c.vertices = append(c.vertices, ebiten.Vertex{
			DstX: float32(cx + ex*cosR - ey*sinR),
			DstY: float32(cy + ex*sinR + ey*cosR),
			SrcX: 1, SrcY: 1,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
		})
	}
	for i := 0; i < ellipseSegments; i++ {
		c.indices = append(c.indices, 0, uint16(i+1), uint16(i+2))
	}
	c.img.DrawTriangles(c.vertices, c.indices, whiteSubImage, nil)
}

// Image is nil until the canvas has a positive size.
func (c *Canvas) Image() *ebiten.Image { return c.img }
