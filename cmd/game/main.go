package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/tomz197/nosecondbest/internal/audio"
	"github.com/tomz197/nosecondbest/internal/config"
	"github.com/tomz197/nosecondbest/internal/highscore"
	"github.com/tomz197/nosecondbest/internal/loop/client"
	"github.com/tomz197/nosecondbest/internal/loop/sim"
	"github.com/tomz197/nosecondbest/internal/object"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the game, so logs only go to LOG_FILE.
	logger, closeLog, err := settings.NewLogger("game", nil)
	if err != nil {
		return err
	}
	defer closeLog()

	mode, err := sim.ParseMode(config.GetEnv("GAME_MODE", sim.OnePlayer.String()))
	if err != nil {
		return err
	}
	theme, err := object.ParseTheme(config.GetEnv("GAME_THEME", object.Themes()[0].String()))
	if err != nil {
		return err
	}

	scores, err := highscore.Open(settings.HighScoreFile)
	if err != nil {
		logger.Warn("high scores unavailable", "err", err)
		scores, _ = highscore.Open("")
	}

	sound := newSound(settings, logger)
	defer sound.out.Close()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.NewClient(bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{
		Tuning:        settings.Game,
		Mode:          mode,
		Theme:         theme,
		Sound:         sound.svc,
		Scores:        scores,
		ScreenshotDir: settings.ScreenshotDir,
		Logger:        logger,
	})
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type localSound struct {
	svc *audio.Service
	out audio.Output
}

// newSound wires the audio service to a device. A device that fails to open
// leaves the game running silently.
func newSound(s config.Settings, logger *log.Logger) localSound {
	tl := audio.NewTimeline(audio.DefaultSampleRate)
	bank := audio.NewBank(tl.Rate(), logger)
	if s.SampleDir != "" {
		bank.LoadDir(s.SampleDir)
	}
	svc := audio.NewService(tl, bank, nil, s.Game, logger)
	svc.SetMuted(s.Muted)

	out, err := audio.Open(s.AudioBackend, tl)
	if err != nil {
		logger.Warn("audio disabled", "backend", s.AudioBackend, "err", err)
		out, _ = audio.Open(audio.BackendNone, tl)
	}
	return localSound{svc: svc, out: out}
}
