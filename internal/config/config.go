package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	WindowWidth  = 1024
	WindowHeight = 640

	MeterRingSize   = 8192
	SmoothingFactor = 0.6

	// Terminal cell size in surface units
	CellWidth  = 8
	CellHeight = 16

	// Presentation
	FadeSpeed       = 0.04
	SlideDistance   = 24
	ColorShiftSpeed = 0.002
)

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid config")

// Tier is the per-viewport-class tuning of the petal field.
type Tier struct {
	Capacity  int `yaml:"capacity"`
	SpawnRate int `yaml:"spawnRate"`
	SlowRate  int `yaml:"slowRate"`
}

// Range is a half-open [Min, Max) interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type Petals struct {
	NarrowBelow float64 `yaml:"narrowBelow"`
	Narrow      Tier    `yaml:"narrow"`
	Standard    Tier    `yaml:"standard"`

	Size      Range   `yaml:"size"`
	Speed     Range   `yaml:"speed"`
	Spin      Range   `yaml:"spin"`
	TopOffset float64 `yaml:"topOffset"`
	Color     string  `yaml:"color"` // #rrggbb
}

// Timeline holds the countdown and the delays of the one-shot actions,
// relative to the moment the greeting is revealed.
type Timeline struct {
	CountdownFrom int           `yaml:"countdownFrom"`
	TickEvery     time.Duration `yaml:"tickEvery"`
	ShowEnglish   time.Duration `yaml:"showEnglish"`
	HideEnglish   time.Duration `yaml:"hideEnglish"`
	ShowTamil     time.Duration `yaml:"showTamil"`
	SlowDown      time.Duration `yaml:"slowDown"`
}

type Text struct {
	English  string  `yaml:"english"`
	Tamil    string  `yaml:"tamil"`
	Prompt   string  `yaml:"prompt"`
	FontPath string  `yaml:"fontPath"`
	FontSize float64 `yaml:"fontSize"`
}

type Config struct {
	Petals   Petals   `yaml:"petals"`
	Timeline Timeline `yaml:"timeline"`
	Text     Text     `yaml:"text"`
	Audio    string   `yaml:"audio"`
	LogLevel string   `yaml:"logLevel"`
}

// Default returns the canonical tuning.
func Default() Config {
	return Config{
		Petals: Petals{
			NarrowBelow: 768,
			Narrow:      Tier{Capacity: 40, SpawnRate: 2, SlowRate: 1},
			Standard:    Tier{Capacity: 100, SpawnRate: 5, SlowRate: 1},
			Size:        Range{Min: 4, Max: 10},
			Speed:       Range{Min: 1, Max: 3},
			Spin:        Range{Min: 0, Max: 0.02},
			TopOffset:   -20,
			Color:       "#f5c542",
		},
		Timeline: Timeline{
			CountdownFrom: 3,
			TickEvery:     time.Second,
			ShowEnglish:   0,
			HideEnglish:   2200 * time.Millisecond,
			ShowTamil:     3000 * time.Millisecond,
			SlowDown:      6000 * time.Millisecond,
		},
		Text: Text{
			English:  "Happy Pongal!",
			Tamil:    "இனிய பொங்கல் நல்வாழ்த்துக்கள்",
			Prompt:   "Click or press Space to begin",
			FontSize: 36,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	p := c.Petals
	for name, t := range map[string]Tier{"narrow": p.Narrow, "standard": p.Standard} {
		if t.Capacity <= 0 {
			return fmt.Errorf("%w: petals.%s.capacity must be positive, got %d", ErrInvalid, name, t.Capacity)
		}
		if t.SpawnRate < 0 || t.SlowRate < 0 {
			return fmt.Errorf("%w: petals.%s rates must not be negative", ErrInvalid, name)
		}
	}
	for name, r := range map[string]Range{"size": p.Size, "speed": p.Speed, "spin": p.Spin} {
		if r.Max < r.Min {
			return fmt.Errorf("%w: petals.%s max %v below min %v", ErrInvalid, name, r.Max, r.Min)
		}
	}
	if _, err := ParseHexColor(p.Color); err != nil {
		return fmt.Errorf("%w: petals.color: %v", ErrInvalid, err)
	}

	tl := c.Timeline
	if tl.CountdownFrom < 1 {
		return fmt.Errorf("%w: timeline.countdownFrom must be at least 1", ErrInvalid)
	}
	if tl.TickEvery <= 0 {
		return fmt.Errorf("%w: timeline.tickEvery must be positive", ErrInvalid)
	}
	for _, d := range []time.Duration{tl.ShowEnglish, tl.HideEnglish, tl.ShowTamil, tl.SlowDown} {
		if d < 0 {
			return fmt.Errorf("%w: timeline delays must not be negative", ErrInvalid)
		}
	}
	return nil
}

// TierFor classifies a viewport width.
func (c Config) TierFor(width float64) Tier {
	if width < c.Petals.NarrowBelow {
		return c.Petals.Narrow
	}
	return c.Petals.Standard
}

// ParseHexColor parses "#rrggbb".
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("want #rrggbb, got %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("want #rrggbb, got %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
