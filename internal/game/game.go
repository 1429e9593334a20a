// Package game is the windowed front end: an Ebitengine game that ticks the
// show once per update and draws the petals, background and greeting.
package game

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/cue"
	"github.com/iburimskiy/festive-greeting/internal/logging"
	"github.com/iburimskiy/festive-greeting/internal/sequence"
	"github.com/iburimskiy/festive-greeting/internal/show"
)

type Game struct {
	cfg    config.Config
	show   *show.Show
	canvas *Canvas
	cue    *cue.Cue
	log    *zap.SugaredLogger

	// fonts
	latin *text.GoTextFace
	tamil *text.GoTextFace
	big   *text.GoTextFace

	// input edge detection
	prevKey map[ebiten.Key]bool
	touches []ebiten.TouchID
	focused bool

	// presentation, eased every update
	englishAlpha float64
	tamilAlpha   float64
	festive      float64
	colorPhase   float64
	level        float64

	width, height int
}

// New builds the game for a window of the given size. c may be nil.
func New(cfg config.Config, c *cue.Cue, log *zap.SugaredLogger, width, height int) (*Game, error) {
	log = logging.OrNop(log)

	latin, err := loadFace(goregular.TTF, cfg.Text.FontSize)
	if err != nil {
		return nil, err
	}
	big, err := loadFace(goregular.TTF, cfg.Text.FontSize*3)
	if err != nil {
		return nil, err
	}
	tamil := latin
	if cfg.Text.FontPath != "" {
		data, err := os.ReadFile(cfg.Text.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font %s: %w", cfg.Text.FontPath, err)
		}
		if tamil, err = loadFace(data, cfg.Text.FontSize); err != nil {
			return nil, fmt.Errorf("font %s: %w", cfg.Text.FontPath, err)
		}
	}

	canvas := NewCanvas(width, height)
	g := &Game{
		cfg:     cfg,
		show:    show.New(cfg, canvas, showCue(c), time.Now(), log),
		canvas:  canvas,
		cue:     c,
		log:     log,
		latin:   latin,
		tamil:   tamil,
		big:     big,
		prevKey: map[ebiten.Key]bool{},
		focused: true,
		width:   width,
		height:  height,
	}
	return g, nil
}

func loadFace(data []byte, size float64) (*text.GoTextFace, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create font source: %w", err)
	}
	return &text.GoTextFace{
		Source:    source,
		Size:      size,
		Direction: text.DirectionLeftToRight,
	}, nil
}

// Run opens the window and blocks until it is closed.
func Run(cfg config.Config, c *cue.Cue, log *zap.SugaredLogger, width, height int) error {
	g, err := New(cfg, c, log, width, height)
	if err != nil {
		return err
	}

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("Happy Pongal - Click or Space to begin, Esc/Q: Quit")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// timers must keep running while the window is in the background
	ebiten.SetRunnableOnUnfocused(true)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func (g *Game) Update() error {
	justPressed := func(k ebiten.Key) bool {
		pressed := ebiten.IsKeyPressed(k)
		jp := pressed && !g.prevKey[k]
		g.prevKey[k] = pressed
		return jp
	}

	if justPressed(ebiten.KeyEscape) || justPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	g.touches = inpututil.AppendJustPressedTouchIDs(g.touches[:0])
	start := justPressed(ebiten.KeySpace) || justPressed(ebiten.KeyEnter) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) || len(g.touches) > 0

	if focused := ebiten.IsFocused(); focused != g.focused {
		g.focused = focused
		g.show.SetVisible(focused)
	}

	g.step(time.Now(), start)
	return nil
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.log.Debugw("resized", "width", outsideWidth, "height", outsideHeight)
		g.width, g.height = outsideWidth, outsideHeight
		g.canvas.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// step advances the show to now and then applies the start trigger, so the
// countdown is timed from this update.
func (g *Game) step(now time.Time, start bool) {
	g.show.Tick(now)
	if start {
		g.show.Begin()
	}

	p := g.show.Presentation()
	g.englishAlpha = approach(g.englishAlpha, boolToFloat(p.EnglishVisible), config.FadeSpeed)
	g.tamilAlpha = approach(g.tamilAlpha, boolToFloat(p.TamilVisible), config.FadeSpeed)
	g.festive = approach(g.festive, boolToFloat(p.BackgroundActive), config.FadeSpeed)
	g.colorPhase += config.ColorShiftSpeed
	g.level = g.cue.Level()
}

// showCue keeps a missing cue a nil interface.
func showCue(c *cue.Cue) sequence.Cue {
	if c == nil {
		return nil
	}
	return c
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
