package game

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/sequence"
)

const bandHeight = 4

var (
	nightTop    = color.RGBA{R: 12, G: 10, B: 24, A: 255}
	nightBottom = color.RGBA{R: 28, G: 18, B: 40, A: 255}
	textColor   = color.RGBA{R: 255, G: 244, B: 214, A: 255}
	goldColor   = color.RGBA{R: 0xf5, G: 0xc5, B: 0x42, A: 255}
)

func (g *Game) Draw(screen *ebiten.Image) {
	p := g.show.Presentation()

	g.drawBackground(screen)

	if img := g.canvas.Image(); img != nil {
		screen.DrawImage(img, nil)
	}

	cx := float64(g.width) / 2
	cy := float64(g.height) / 2

	if p.CountdownVisible {
		g.drawCentered(screen, strconv.Itoa(p.Countdown), g.big, cx, cy-g.big.Size/2, goldColor, 1)
	}
	if p.Phase == sequence.Idle {
		g.drawCentered(screen, g.cfg.Text.Prompt, g.latin, cx, cy, textColor, 1)
	}

	if g.englishAlpha > 0 {
		offset := config.SlideDistance * (1 - g.englishAlpha)
		if p.EnglishHiding {
			offset = -offset
		}
		g.drawCentered(screen, g.cfg.Text.English, g.latin, cx, cy-g.latin.Size+offset, textColor, g.englishAlpha)
	}
	if g.tamilAlpha > 0 {
		offset := config.SlideDistance * (1 - g.tamilAlpha)
		g.drawCentered(screen, g.cfg.Text.Tamil, g.tamil, cx, cy+offset, goldColor, g.tamilAlpha)
	}

	status := fmt.Sprintf("%s | petals %d/%d | Esc/Q: quit", p.Phase, g.show.Field.Len(), g.show.Field.Capacity())
	if !g.show.Visible() {
		status += " | paused"
	}
	ebitenutil.DebugPrintAt(screen, status, 12, 12)
}

// drawBackground paints the night sky before the reveal and blends into a
// slowly shifting warm gradient after it, brightened by the audio level.
func (g *Game) drawBackground(screen *ebiten.Image) {
	for y := 0; y < g.height; y += bandHeight {
		ratio := float64(y) / float64(max(g.height, 1))
		night := mix(nightTop, nightBottom, ratio)

		hue := 20 + 30*ratio + 15*g.colorPhaseWave(ratio)
		value := 0.55 + 0.25*(1-ratio) + 0.2*g.level
		r, gv, b := hsvToRgb(hue, 0.85, clamp01(value))
		festive := color.RGBA{R: r, G: gv, B: b, A: 255}

		vector.DrawFilledRect(screen, 0, float32(y), float32(g.width), bandHeight, mix(night, festive, g.festive), false)
	}
}

func (g *Game) colorPhaseWave(ratio float64) float64 {
	// triangle wave in [-1, 1]
	t := g.colorPhase + ratio*0.5
	t -= float64(int(t))
	if t < 0.5 {
		return 4*t - 1
	}
	return 3 - 4*t
}

func (g *Game) drawCentered(screen *ebiten.Image, s string, face *text.GoTextFace, x, y float64, clr color.Color, alpha float64) {
	if s == "" || face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.PrimaryAlign = text.AlignCenter
	op.ColorScale.ScaleWithColor(clr)
	op.ColorScale.ScaleAlpha(float32(clamp01(alpha)))
	text.Draw(screen, s, face, op)
}
