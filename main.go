package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/iburimskiy/festive-greeting/internal/config"
	"github.com/iburimskiy/festive-greeting/internal/cue"
	"github.com/iburimskiy/festive-greeting/internal/game"
	"github.com/iburimskiy/festive-greeting/internal/logging"
	"github.com/iburimskiy/festive-greeting/internal/term"
)

var (
	configPath = flag.String("config", "", "path to a YAML config, defaults are used when empty")
	audioPath  = flag.String("audio", "", "audio cue to play on reveal (wav, mp3 or flac), overrides the config")
	pick       = flag.Bool("pick", false, "choose the audio cue with a file dialog")
	termMode   = flag.Bool("term", false, "run in the terminal instead of a window")
	logLevel   = flag.String("log", "", "log level: debug, info, warn or error, overrides the config")
	logFile    = flag.String("logfile", "", "write logs to this file instead of stderr")
	width      = flag.Int("width", config.WindowWidth, "initial window width")
	height     = flag.Int("height", config.WindowHeight, "initial window height")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// the terminal front end owns stderr while it runs
	out := *logFile
	if out == "" && *termMode {
		out = filepath.Join(os.TempDir(), "festive-greeting.log")
	}
	log, err := logging.New(cfg.LogLevel, out)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	if *audioPath != "" {
		cfg.Audio = *audioPath
	}
	c := openCue(cfg.Audio, *pick, log)
	defer c.Close()

	if *termMode {
		log.Infow("starting terminal greeting")
		if c == nil {
			return term.Run(cfg, nil, log)
		}
		return term.Run(cfg, c, log)
	}
	log.Infow("starting window greeting", "width", *width, "height", *height)
	return game.Run(cfg, c, log, *width, *height)
}

// openCue loads the audio cue. The greeting runs silently when there is none
// or it cannot be loaded.
func openCue(path string, pick bool, log *zap.SugaredLogger) *cue.Cue {
	var (
		c   *cue.Cue
		err error
	)
	switch {
	case path != "":
		c, err = cue.Open(path, log.Named("cue"))
	case pick:
		c, err = cue.Pick(log.Named("cue"))
	default:
		log.Infow("no audio cue configured")
		return nil
	}
	if err != nil {
		log.Warnw("audio cue unavailable, continuing without sound", "error", err)
		return nil
	}
	return c
}
