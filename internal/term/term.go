// Package term is the terminal front end. It draws the same show as the
// window, with petals rasterized onto character cells.
package term

import (
	"fmt"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/logging"
	"github.com/iburimskiy/festive-greeting/internal/sequence"
	"github.com/iburimskiy/festive-greeting/internal/show"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

var (
	nightBg   = tcell.NewRGBColor(12, 10, 24)
	festiveBg = tcell.NewRGBColor(120, 40, 8)
	textFg    = tcell.NewRGBColor(255, 244, 214)
	goldFg    = tcell.NewRGBColor(0xf5, 0xc5, 0x42)
)

type App struct {
	screen tcell.Screen
	canvas *Canvas
	show   *show.Show
	cfg    config.Config
	log    *zap.SugaredLogger

	// start is applied on the next frame, after the loop has caught up
	start bool
}

// New builds the app on an initialised screen. c may be nil.
func New(screen tcell.Screen, cfg config.Config, c sequence.Cue, log *zap.SugaredLogger) *App {
	log = logging.OrNop(log)
	cols, rows := screen.Size()
	canvas := NewCanvas(cols, rows)
	return &App{
		screen: screen,
		canvas: canvas,
		show:   show.New(cfg, canvas, c, time.Now(), log),
		cfg:    cfg,
		log:    log,
	}
}

// Run takes over the terminal until the user quits.
func Run(cfg config.Config, c sequence.Cue, log *zap.SugaredLogger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.EnableFocus()
	screen.HideCursor()

	New(screen, cfg, c, log).Run()
	return nil
}

// Run is the single goroutine that owns the show. Input arrives from a
// PollEvent pump over a channel.
func (a *App) Run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if !a.handle(ev) {
				return
			}
		case now := <-ticker.C:
			a.frame(now)
		}
	}
}

// handle reacts to one input event and reports whether to keep running.
func (a *App) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
			return false
		}
		a.start = true

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			a.start = true
		}

	case *tcell.EventResize:
		a.screen.Sync()
		cols, rows := ev.Size()
		a.log.Debugw("resized", "cols", cols, "rows", rows)
		a.canvas.Resize(cols, rows)

	case *tcell.EventFocus:
		a.show.SetVisible(ev.Focused)
	}
	return true
}

func (a *App) frame(now time.Time) {
	a.show.Tick(now)
	if a.start {
		a.start = false
		a.show.Begin()
	}
	a.draw()
}

func (a *App) draw() {
	p := a.show.Presentation()
	bg := nightBg
	if p.BackgroundActive {
		bg = festiveBg
	}
	base := tcell.StyleDefault.Background(bg)

	cols, rows := a.canvas.cols, a.canvas.rows
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			r, fg := a.canvas.At(col, row)
			if r == 0 {
				a.screen.SetContent(col, row, ' ', nil, base)
				continue
			}
			a.screen.SetContent(col, row, r, nil, base.Foreground(fg))
		}
	}

	mid := rows / 2
	switch {
	case p.Phase == sequence.Idle:
		a.drawCentered(a.cfg.Text.Prompt, mid, base.Foreground(textFg))
	case p.CountdownVisible:
		a.drawCentered(fmt.Sprintf("%d", p.Countdown), mid, base.Foreground(goldFg).Bold(true))
	}
	if p.EnglishVisible {
		a.drawCentered(a.cfg.Text.English, mid-2, base.Foreground(textFg).Bold(true))
	}
	if p.TamilVisible {
		a.drawCentered(a.cfg.Text.Tamil, mid, base.Foreground(goldFg).Bold(true))
	}

	a.screen.Show()
}

type glyph struct {
	main rune
	comb []rune
}

// glyphs groups combining marks with the rune before them so scripts like
// Tamil keep their vowel signs in the same cell.
func glyphs(s string) []glyph {
	var out []glyph
	for _, r := range s {
		if unicode.Is(unicode.M, r) && len(out) > 0 {
			last := &out[len(out)-1]
			last.comb = append(last.comb, r)
			continue
		}
		out = append(out, glyph{main: r})
	}
	return out
}

func (a *App) drawCentered(s string, row int, style tcell.Style) {
	gs := glyphs(s)
	col := (a.canvas.cols - len(gs)) / 2
	if col < 0 {
		col = 0
	}
	for i, g := range gs {
		a.screen.SetContent(col+i, row, g.main, g.comb, style)
	}
}
