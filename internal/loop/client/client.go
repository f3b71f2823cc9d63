// Package client runs a match in a terminal: keyboard input stands in for
// the camera, the canvas renders the playfield and the HUD sits on top.
package client

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/nosecondbest/internal/capture"
	"github.com/tomz197/nosecondbest/internal/draw"
	"github.com/tomz197/nosecondbest/internal/highscore"
	"github.com/tomz197/nosecondbest/internal/input"
	"github.com/tomz197/nosecondbest/internal/loop"
	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/loop/sim"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/tracking"
)

// Sound is the audio surface the client drives. *audio.Service satisfies it.
type Sound interface {
	sim.Sound
	ToggleMute() bool
	Muted() bool
}

// Client handles rendering and input for a single terminal.
type Client struct {
	ctrl     *sim.Controller
	tuning   config.Tuning
	keyboard *tracking.Keyboard
	capture  *capture.Pipeline
	sound    Sound
	scores   *highscore.Store
	shotDir  string
	log      *log.Logger

	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	readInput    func() input.Input
	lastInput    time.Time
	lastFrame    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
	shutdownCh   <-chan struct{}
	frameLoop    *loop.FrameLoop
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc  draw.TermSizeFunc
	Username      string
	Tuning        config.Tuning
	Mode          sim.Mode
	Theme         object.Theme
	Sound         Sound            // Nil plays silently
	Scores        *highscore.Store // Nil keeps no high score
	ScreenshotDir string           // Empty skips writing screenshots
	Rand          object.Rand      // Nil uses a time-seeded source
	Logger        *log.Logger      // Nil discards
	Shutdown      <-chan struct{}  // Closed when the host is going away
}

// NewClient creates a client reading keys from r and drawing to w.
func NewClient(r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	tun := opts.Tuning
	if tun.MaxLives == 0 {
		tun = config.Default()
	}

	termWidth, termHeight, _ := draw.TerminalSizeRawWith(termSizeFunc)
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewWidth, config.ViewHeight)
	canvas.SetOffset(offsetCol, offsetRow)

	c := &Client{
		tuning:       tun,
		keyboard:     tracking.NewKeyboard(opts.Mode.Players()),
		sound:        opts.Sound,
		scores:       opts.Scores,
		shotDir:      opts.ScreenshotDir,
		log:          logger.With("user", opts.Username),
		state:        NewClientState(),
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:       w,
		lastInput:    time.Now(),
		username:     opts.Username,
		termSizeFunc: termSizeFunc,
		shutdownCh:   opts.Shutdown,
	}
	c.capture = capture.NewPipeline(capture.BlankCamera{}, tun, opts.Rand, c.log)

	simOpts := sim.Options{
		Tuning:   tun,
		Mode:     opts.Mode,
		Theme:    opts.Theme,
		Rand:     opts.Rand,
		Capture:  c.capture,
		Listener: c,
		Logger:   c.log,
	}
	if opts.Sound != nil {
		simOpts.Sound = opts.Sound
	}
	c.ctrl = sim.NewController(simOpts)
	c.state.prevMode = opts.Mode
	if c.scores != nil {
		c.state.highScore = c.scores.Best(c.variant())
	}

	stream := input.StartStream(r)
	c.readInput = func() input.Input { return input.ReadInput(stream) }
	c.frameLoop = loop.New(config.ClientTargetFPS, c)
	return c
}

// Run starts the client loop. Blocks until the player quits, the input
// closes or ctx ends.
func (c *Client) Run(ctx context.Context) error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	err := c.frameLoop.Run(ctx)
	if c.sound != nil {
		c.sound.StopMusic()
	}
	draw.ClearScreen(c.writer)
	return err
}

// Stop ends Run from another goroutine.
func (c *Client) Stop() {
	c.frameLoop.Stop()
}

// Controller exposes the match for inspection.
func (c *Client) Controller() *sim.Controller {
	return c.ctrl
}

// Step runs one frame. It implements loop.Stepper.
func (c *Client) Step(now time.Time) error {
	if c.lastFrame.IsZero() {
		c.lastFrame = now
	}
	c.state.delta = now.Sub(c.lastFrame)
	c.lastFrame = now

	c.processInput(now)
	c.processShutdown()
	if !c.state.Running {
		return loop.ErrStop
	}

	c.updateScreen()

	switch c.ctrl.Status() {
	case sim.StatusIdle, sim.StatusGameOver:
		c.updateMenuState(now)
	case sim.StatusPlaying:
		c.updatePlayingState(now)
	case sim.StatusPaused:
		c.updatePausedState(now)
	}

	c.ctrl.Advance(now, c.keyboard.Detect(now))

	if c.state.biteFlash > 0 {
		c.state.biteFlash -= c.state.delta.Seconds()
	}
	return c.drawFrame(now)
}

// processInput reads keys and tracks inactivity.
func (c *Client) processInput(now time.Time) {
	c.state.Input = c.readInput()
	in := c.state.Input

	if len(in.Pressed) > 0 {
		c.lastInput = now
		c.state.isInactive = false
	} else if now.Sub(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if now.Sub(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if in.Quit || in.Closed {
		c.state.Running = false
	}
	if in.Tapped('m') && c.sound != nil {
		muted := c.sound.ToggleMute()
		c.log.Debug("mute toggled", "muted", muted)
	}
}

// processShutdown counts down the shutdown screen once the host closes the
// shutdown channel.
func (c *Client) processShutdown() {
	if !c.state.shutdown {
		if c.shutdownCh == nil {
			return
		}
		select {
		case <-c.shutdownCh:
			c.state.shutdown = true
			c.state.shutdownFor = config.ShutdownDisplaySeconds
		default:
			return
		}
	}
	c.state.shutdownFor -= c.state.delta.Seconds()
	if c.state.shutdownFor <= 0 {
		c.state.Running = false
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight, err := draw.TerminalSizeRawWith(c.termSizeFunc)
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(termWidth, config.MaxTermWidth)
	renderHeight = min(termHeight, config.MaxTermHeight)
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// updateMenuState handles the start and game-over screens: mode, theme and
// start.
func (c *Client) updateMenuState(now time.Time) {
	in := c.state.Input
	switch in.Number {
	case 1:
		c.setMode(sim.OnePlayer)
	case 2:
		c.setMode(sim.TwoPlayer)
	}
	if in.Tapped('t') {
		c.ctrl.SetTheme(c.ctrl.Theme().Next())
		c.refreshHighScore()
	}
	if in.Space || in.Enter {
		c.startGame(now)
	}
}

func (c *Client) setMode(m sim.Mode) {
	if m == c.ctrl.Mode() {
		return
	}
	c.ctrl.SetMode(m)
	c.keyboard.SetPlayers(m.Players())
	c.refreshHighScore()
}

// updatePlayingState feeds the keyboard tracker and handles pause and
// disengage.
func (c *Client) updatePlayingState(now time.Time) {
	in := c.state.Input
	c.keyboard.Update(in, c.state.delta)
	if in.Tapped('p') {
		c.ctrl.Pause(now)
		return
	}
	if in.Escape {
		c.ctrl.Disengage(now)
	}
}

func (c *Client) updatePausedState(now time.Time) {
	in := c.state.Input
	switch {
	case in.Tapped('p') || in.Space:
		c.ctrl.Resume(now)
	case in.Escape:
		c.ctrl.Disengage(now)
	}
}

// startGame starts or restarts the match.
func (c *Client) startGame(now time.Time) {
	c.state.lastGame = nil
	c.state.saved = nil
	c.state.newBest = false
	c.state.biteFlash = 0
	c.keyboard.SetPlayers(c.ctrl.Mode().Players())
	c.ctrl.Start(now)
}

func (c *Client) variant() string {
	return highscore.Variant(c.ctrl.Mode().String(), c.ctrl.Theme().String())
}

func (c *Client) refreshHighScore() {
	if c.scores != nil {
		c.state.highScore = c.scores.Best(c.variant())
	}
}
