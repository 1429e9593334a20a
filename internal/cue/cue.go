// Package cue plays the ambient audio cue of the greeting through the beep
// speaker. Playback is best effort: every method is safe on a nil *Cue, and
// Play reports ErrNoCue when there is nothing to play.
package cue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/ncruces/zenity"
	"go.uber.org/zap"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/logging"
)

var (
	ErrNoCue       = errors.New("no audio cue loaded")
	ErrUnsupported = errors.New("unsupported audio file")
)

// levelWindow is how many recent samples Level looks at.
const levelWindow = 2048

var (
	speakerMu   sync.Mutex
	speakerRate beep.SampleRate
)

type Cue struct {
	path     string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	meter    *meter

	// queued is cleared by the speaker goroutine once the stream has drained.
	queued atomic.Bool
	log    *zap.SugaredLogger
}

// decode opens and decodes path. The returned stream owns the file and
// closes it with itself.
func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".mp3", ".flac":
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return streamer, format, nil
}

// initSpeaker initialises the speaker once, and again if the sample rate
// changes.
func initSpeaker(rate beep.SampleRate) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerRate == rate {
		return nil
	}
	if speakerRate != 0 {
		// Clear takes the speaker lock itself
		speaker.Clear()
	}
	if err := speaker.Init(rate, rate.N(time.Second/20)); err != nil {
		return err
	}
	speakerRate = rate
	return nil
}

// Open decodes a .wav, .mp3 or .flac file and queues it on the speaker,
// paused.
func Open(path string, log *zap.SugaredLogger) (*Cue, error) {
	log = logging.OrNop(log)

	streamer, format, err := decode(path)
	if err != nil {
		return nil, err
	}
	if err := initSpeaker(format.SampleRate); err != nil {
		_ = streamer.Close()
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	m := newMeter(streamer, config.MeterRingSize)
	c := &Cue{
		path:     path,
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: m, Paused: true},
		meter:    m,
		log:      log,
	}
	c.enqueue()

	log.Infow("audio cue loaded",
		"path", path,
		"rate", format.SampleRate,
		"duration", format.SampleRate.D(streamer.Len()).Round(time.Millisecond))
	return c, nil
}

// Pick asks for a file with the native dialog. A cancelled dialog yields a
// nil cue and no error.
func Pick(log *zap.SugaredLogger) (*Cue, error) {
	filename, err := zenity.SelectFile(
		zenity.Title("Choose the greeting sound"),
		zenity.FileFilters{{
			Name:     "Audio",
			Patterns: []string{"*.wav", "*.mp3", "*.flac"},
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil, nil
		}
		return nil, err
	}
	return Open(filename, log)
}

func (c *Cue) enqueue() {
	c.queued.Store(true)
	speaker.Play(beep.Seq(c.ctrl, beep.Callback(func() {
		c.queued.Store(false)
	})))
}

// Play starts or continues playback. A cue that already ran to the end
// starts over.
func (c *Cue) Play() error {
	if c == nil || c.ctrl == nil {
		return ErrNoCue
	}
	requeue := !c.queued.Load()

	speaker.Lock()
	if requeue {
		if err := c.streamer.Seek(0); err != nil {
			speaker.Unlock()
			return err
		}
	}
	c.ctrl.Paused = false
	speaker.Unlock()

	if requeue {
		c.enqueue()
	}
	return nil
}

func (c *Cue) Pause() {
	if c == nil || c.ctrl == nil {
		return
	}
	speaker.Lock()
	c.ctrl.Paused = true
	speaker.Unlock()
}

// Rewind seeks back to the start.
func (c *Cue) Rewind() error {
	if c == nil || c.streamer == nil {
		return ErrNoCue
	}
	speaker.Lock()
	defer speaker.Unlock()
	return c.streamer.Seek(0)
}

// Level is the smoothed loudness of what was just played, in [0, 1].
func (c *Cue) Level() float64 {
	if c == nil || c.meter == nil {
		return 0
	}
	return c.meter.Level(levelWindow)
}

// Close stops playback and releases the file.
func (c *Cue) Close() error {
	if c == nil || c.streamer == nil {
		return nil
	}
	speaker.Clear()

	err := c.streamer.Close()
	c.streamer = nil
	c.ctrl = nil
	c.log.Debugw("audio cue closed", "path", c.path)
	return err
}
