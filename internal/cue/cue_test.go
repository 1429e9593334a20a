package cue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// constant streams n samples of value v on both channels.
func constant(v float64, n int) beep.Streamer {
	left := n
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left == 0 {
			return 0, false
		}
		k := len(samples)
		if k > left {
			k = left
		}
		for i := 0; i < k; i++ {
			samples[i] = [2]float64{v, v}
		}
		left -= k
		return k, true
	})
}

func drain(s beep.Streamer) {
	buf := make([][2]float64, 512)
	for {
		if _, ok := s.Stream(buf); !ok {
			return
		}
	}
}

func TestMeterKeepsMostRecentSamples(t *testing.T) {
	var counter float64
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			counter++
			samples[i] = [2]float64{counter, -counter}
		}
		return len(samples), true
	})
	m := newMeter(src, 8)

	buf := make([][2]float64, 5)
	m.Stream(buf)
	m.Stream(buf)

	got := m.snapshot(4)
	assert.Equal(t, [][2]float64{{7, -7}, {8, -8}, {9, -9}, {10, -10}}, got)

	assert.Len(t, m.snapshot(100), 8, "snapshot is capped at the ring size")
}

func TestMeterLevel(t *testing.T) {
	silent := newMeter(constant(0, 4096), 4096)
	drain(silent)
	assert.Zero(t, silent.Level(2048))

	loud := newMeter(constant(1, 4096), 4096)
	drain(loud)

	// smoothing approaches full scale over successive readings
	first := loud.Level(2048)
	assert.InDelta(t, 0.4, first, 1e-9)
	var last float64
	for i := 0; i < 50; i++ {
		last = loud.Level(2048)
	}
	assert.InDelta(t, 1.0, last, 1e-6)
	assert.LessOrEqual(t, last, 1.0)
}

func TestNilCueIsSilent(t *testing.T) {
	var c *Cue
	assert.ErrorIs(t, c.Play(), ErrNoCue)
	assert.ErrorIs(t, c.Rewind(), ErrNoCue)
	assert.NotPanics(t, c.Pause)
	assert.Zero(t, c.Level())
	assert.NoError(t, c.Close())
}

func TestOpenRejectsUnknownExtension(t *testing.T) {
	_, err := Open("greeting.ogg", nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.wav"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bell.WAV")
	out, err := os.Create(path)
	require.NoError(t, err)

	format := beep.Format{SampleRate: 22050, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(out, constant(0.25, 2205), format))
	require.NoError(t, out.Close())

	streamer, got, err := decode(path)
	require.NoError(t, err)
	defer streamer.Close()

	assert.Equal(t, beep.SampleRate(22050), got.SampleRate)
	assert.Equal(t, 2205, streamer.Len())
	require.NoError(t, streamer.Seek(100))
	assert.Equal(t, 100, streamer.Position())
}

func TestDecodeCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a riff file"), 0o644))

	_, _, err := decode(path)
	assert.Error(t, err)
}

func TestCloseReleasesFileThroughStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bell.wav")
	out, err := os.Create(path)
	require.NoError(t, err)
	format := beep.Format{SampleRate: 22050, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(out, constant(0.25, 2205), format))
	require.NoError(t, out.Close())

	streamer, _, err := decode(path)
	require.NoError(t, err)
	c := &Cue{path: path, streamer: streamer, format: format, log: zap.NewNop().Sugar()}

	require.NoError(t, c.Close())
	assert.Error(t, streamer.Close(), "the stream already closed its file")
	assert.NoError(t, c.Close())
}
