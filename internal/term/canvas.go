package term

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/iburimskiy/festive-greeting/internal/config"
)

// petalRunes show the orientation of a petal's long axis, in steps of 45
// degrees with y pointing down.
var petalRunes = [4]rune{'─', '╲', '│', '╱'}

const bigPetal = '●'

type cell struct {
	r     rune
	color tcell.Color
}

// Canvas rasterizes petals onto terminal cells. One cell covers
// config.CellWidth x config.CellHeight surface units.
type Canvas struct {
	cols, rows int
	cells      []cell
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

func (c *Canvas) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c.cols, c.rows = cols, rows
	c.cells = make([]cell, cols*rows)
}

func (c *Canvas) Size() (float64, float64) {
	return float64(c.cols * config.CellWidth), float64(c.rows * config.CellHeight)
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = cell{}
	}
}

// At returns the rune drawn at a cell, 0 when empty.
func (c *Canvas) At(col, row int) (rune, tcell.Color) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return 0, tcell.ColorDefault
	}
	cl := c.cells[row*c.cols+col]
	return cl.r, cl.color
}

func (c *Canvas) set(col, row int, r rune, clr tcell.Color) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.cells[row*c.cols+col] = cell{r: r, color: clr}
}

// FillEllipse marks every cell whose centre lies inside the rotated ellipse.
// An ellipse that covers no cell centre still marks the cell under its
// centre, with a rune showing its orientation.
func (c *Canvas) FillEllipse(cx, cy, rx, ry, rot float64, clr color.Color) {
	tc := toTcell(clr)
	sinR, cosR := math.Sincos(rot)

	reach := math.Max(rx, ry)
	c0 := int(math.Floor((cx - reach) / config.CellWidth))
	c1 := int(math.Floor((cx + reach) / config.CellWidth))
	r0 := int(math.Floor((cy - reach) / config.CellHeight))
	r1 := int(math.Floor((cy + reach) / config.CellHeight))

	filled := 0
	if rx > 0 && ry > 0 {
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				dx := (float64(col)+0.5)*config.CellWidth - cx
				dy := (float64(row)+0.5)*config.CellHeight - cy
				lx := dx*cosR + dy*sinR
				ly := -dx*sinR + dy*cosR
				if (lx*lx)/(rx*rx)+(ly*ly)/(ry*ry) <= 1 {
					c.set(col, row, bigPetal, tc)
					filled++
				}
			}
		}
	}
	if filled == 0 {
		col := int(math.Floor(cx / config.CellWidth))
		row := int(math.Floor(cy / config.CellHeight))
		c.set(col, row, orientationRune(rot), tc)
	}
}

func orientationRune(rot float64) rune {
	a := math.Mod(rot, math.Pi)
	if a < 0 {
		a += math.Pi
	}
	return petalRunes[int(math.Round(a/(math.Pi/4)))%4]
}

func toTcell(clr color.Color) tcell.Color {
	r, g, b, _ := clr.RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}
