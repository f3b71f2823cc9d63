package client

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/tomz197/nosecondbest/internal/draw"
	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/loop/sim"
	"github.com/tomz197/nosecondbest/internal/object"
)

var (
	faceColor    = draw.RGB(color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff})
	reticleColor = draw.RGB(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	scoreColor   = draw.RGB(color.RGBA{R: 0xf7, G: 0x93, B: 0x1a, A: 0xff})
	heartColor   = draw.RGB(color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff})
)

// meterWidth is the number of cells in the difficulty meter.
const meterWidth = 10

// drawFrame draws the current frame.
func (c *Client) drawFrame(now time.Time) error {
	status := c.ctrl.Status()
	// On state transitions, do a full terminal clear so UI elements from the
	// previous screen don't persist.
	stateChanged := status != c.state.prevStatus || c.ctrl.Mode() != c.state.prevMode
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	shutdownChanged := c.state.shutdown != c.state.wasShutdown
	if stateChanged || inactiveChanged || shutdownChanged {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.prevStatus = status
		c.state.prevMode = c.ctrl.Mode()
		c.state.wasInactive = c.state.isInactive
		c.state.wasShutdown = c.state.shutdown
	}

	c.canvas.Clear()
	snap := c.ctrl.Snapshot()

	if status == sim.StatusPlaying || status == sim.StatusPaused {
		ctx := object.DrawContext{Canvas: c.canvas, T: snap.Elapsed}
		snap.Draw(ctx)
		c.drawTracking(snap)
	}

	c.canvas.Render(c.chunkWriter)
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawUI(now, &snap)

	return c.chunkWriter.Flush()
}

// drawTracking draws the face anchors and the aiming reticle.
func (c *Client) drawTracking(snap sim.Snapshot) {
	r := c.tuning.FaceHitRadius * c.canvas.LogicalWidth()
	for _, f := range snap.Faces {
		c.canvas.DrawRing(c.canvas.FromUnit(f.X, f.Y), r, faceColor)
	}

	p := c.canvas.FromUnit(c.keyboard.Reticle.X, c.keyboard.Reticle.Y)
	col := reticleColor
	if !c.keyboard.Raised {
		col = draw.Dim(draw.Dim(reticleColor))
	}
	arm := c.tuning.GestureHitRadius * c.canvas.LogicalWidth()
	c.canvas.DrawLine(draw.Point{X: p.X - arm, Y: p.Y}, draw.Point{X: p.X + arm, Y: p.Y}, col)
	c.canvas.DrawLine(draw.Point{X: p.X, Y: p.Y - arm}, draw.Point{X: p.X, Y: p.Y + arm}, col)
}

// drawUI draws the game UI overlay.
func (c *Client) drawUI(now time.Time, snap *sim.Snapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.shutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(now, centerX, centerY)
		return
	}

	switch snap.Status {
	case sim.StatusIdle:
		c.drawStartScreen(now, centerX, centerY)
	case sim.StatusPlaying:
		c.drawPlayingHUD(termWidth, termHeight, snap)
	case sim.StatusPaused:
		c.drawPlayingHUD(termWidth, termHeight, snap)
		c.drawPausedScreen(centerX, centerY)
	case sim.StatusGameOver:
		c.drawGameOverScreen(now, centerX, centerY, snap)
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(now time.Time, centerX, centerY int) {
	cw := c.chunkWriter
	title := "INACTIVITY WARNING"
	cw.WriteAt(centerX-len(title)/2, centerY-2, title)

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-now.Sub(c.lastInput).Seconds()),
	)
	cw.WriteAt(centerX-len(msg)/2, centerY, msg)

	hint := "Press any key to continue"
	cw.WriteAt(centerX-len(hint)/2, centerY+2, hint)
}

var titleArt = []string{
	` _  _  ___    ___ ___ ___ ___  _  _ ___    ___ ___ ___ _____ `,
	`| \| |/ _ \  / __| __/ __/ _ \| \| |   \  | _ ) __/ __|_   _|`,
	"| .` | (_) | \\__ \\ _| (_| (_) | .` | |) | | _ \\ _|\\__ \\ | |  ",
	`|_|\_|\___/  |___/___\___\___/|_|\_|___/  |___/___|___/ |_|  `,
}

var controlLines = []string{
	"WASD / arrows  . . . .  Aim",
	"H . . . . . . .  Raise hand",
	"J L . . . . . . . Move face",
	"P . . . . . . . . . . Pause",
	"ESC . . . . . . .  End game",
	"M . . . . . . . . . .  Mute",
	"1 / 2 . . . . . . . Players",
	"T . . . . . . . . . . Theme",
	"Q . . . . . . . . . .  Quit",
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(now time.Time, centerX, centerY int) {
	cw := c.chunkWriter
	titleStartY := centerY - 9
	drawCentered(cw, centerX, titleStartY, titleArt)

	subtitle := "~ shoot what bites, eat the coins ~"
	cw.WriteAt(centerX-len(subtitle)/2, titleStartY+len(titleArt)+1, subtitle)

	setup := c.setupLine()
	cw.WriteColoredAt(centerX-len(setup)/2, titleStartY+len(titleArt)+3, scoreColor, setup)

	controlsY := titleStartY + len(titleArt) + 5
	drawCentered(cw, centerX, controlsY, controlLines)

	// Blinking start prompt
	if now.UnixMilli()/600%2 == 0 {
		prompt := ">>  Press SPACE to Start  <<"
		cw.WriteAt(centerX-len(prompt)/2, controlsY+len(controlLines)+1, prompt)
	} else {
		cw.ClearRow(centerX-14, controlsY+len(controlLines)+1, 28)
	}
}

// setupLine shows the selected mode and theme with the matching best score.
func (c *Client) setupLine() string {
	s := fmt.Sprintf("%s  |  %s  |  best %d", strings.ToUpper(c.ctrl.Mode().String()), strings.ToUpper(c.ctrl.Theme().String()), c.state.highScore)
	if c.sound != nil && c.sound.Muted() {
		s += "  |  muted"
	}
	return s
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawPlayingHUD(termWidth, termHeight int, snap *sim.Snapshot) {
	cw := c.chunkWriter

	scoreText := fmt.Sprintf("Score: %-6d", snap.Score)
	cw.WriteColoredAt(2, 1, scoreColor, scoreText)

	secs := int(snap.Elapsed.Seconds())
	clock := fmt.Sprintf("%02d:%02d", secs/60, secs%60)
	cw.WriteAt(termWidth/2-len(clock)/2, 1, clock)

	livesText := c.livesText(snap)
	col := termWidth - len([]rune(livesText)) - 1
	if object.ShouldRenderBlink(c.state.biteFlash, BlinkFrequency) {
		cw.WriteColoredAt(col, 1, heartColor, livesText)
	} else {
		cw.ClearRow(col, 1, len([]rune(livesText)))
	}

	info := fmt.Sprintf("%s %s", strings.ToUpper(snap.Mode.String()), snap.Theme)
	if c.sound != nil && c.sound.Muted() {
		info += " muted"
	}
	cw.WriteAt(2, termHeight, fmt.Sprintf("%-16s", info))

	meter := make([]rune, meterWidth)
	for i := range meter {
		meter[i] = draw.ShadeLevel((snap.Difficulty*meterWidth - float64(i)) * 4)
	}
	heat := "Heat " + string(meter)
	cw.WriteAt(termWidth-len([]rune(heat))-1, termHeight, heat)

	if snap.ShowHelp {
		help := "Raise a hand (H) and aim with WASD"
		cw.WriteAt(termWidth/2-len(help)/2, termHeight-2, help)
	} else if !c.keyboard.Raised {
		warn := "Hand lowered! Press H before the match ends"
		cw.WriteAt(termWidth/2-len(warn)/2, termHeight-2, warn)
	} else {
		cw.ClearRow(termWidth/2-22, termHeight-2, 44)
	}
}

// livesText renders one heart row per player, e.g. "P1 ♥♥♡  P2 ♥♡♡".
func (c *Client) livesText(snap *sim.Snapshot) string {
	var b strings.Builder
	for i, l := range snap.Lives {
		if i > 0 {
			b.WriteString("  ")
		}
		if len(snap.Lives) > 1 {
			fmt.Fprintf(&b, "P%d ", i+1)
		}
		b.WriteString(strings.Repeat("♥", l))
		b.WriteString(strings.Repeat("♡", max(0, snap.MaxLives-l)))
	}
	return b.String()
}

// drawPausedScreen draws the pause overlay.
func (c *Client) drawPausedScreen(centerX, centerY int) {
	cw := c.chunkWriter
	title := "PAUSED"
	cw.WriteAt(centerX-len(title)/2, centerY-1, title)
	hint := "P to resume  |  ESC to end the match"
	cw.WriteAt(centerX-len(hint)/2, centerY+1, hint)
}

var gameOverArt = []string{
	`   ___   _   __  __ ___    _____   _____ ___  `,
	`  / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
	` | (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
	`  \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
}

// drawGameOverScreen draws the result of the last match.
func (c *Client) drawGameOverScreen(now time.Time, centerX, centerY int, snap *sim.Snapshot) {
	cw := c.chunkWriter
	titleStartY := centerY - 7
	drawCentered(cw, centerX, titleStartY, gameOverArt)
	y := titleStartY + len(gameOverArt) + 1

	scoreText := fmt.Sprintf("Score: %d", snap.Score)
	cw.WriteColoredAt(centerX-len(scoreText)/2, y, scoreColor, scoreText)

	if ev := c.state.lastGame; ev != nil {
		reason := reasonText(ev.Reason)
		cw.WriteAt(centerX-len(reason)/2, y+1, reason)
		secs := int(ev.Duration.Seconds())
		survived := fmt.Sprintf("Survived %d:%02d", secs/60, secs%60)
		cw.WriteAt(centerX-len(survived)/2, y+2, survived)
	}

	best := fmt.Sprintf("Best (%s): %d", strings.ToUpper(snap.Mode.String())+" "+snap.Theme.String(), c.state.highScore)
	if c.state.newBest {
		best = "NEW BEST! " + best
	}
	cw.WriteAt(centerX-len(best)/2, y+4, best)

	if n := len(c.state.saved); n > 0 {
		saved := fmt.Sprintf("%d screenshots saved to %s", n, c.shotDir)
		cw.WriteAt(centerX-len(saved)/2, y+5, saved)
	}

	setup := c.setupLine()
	cw.WriteAt(centerX-len(setup)/2, y+7, setup)

	if now.UnixMilli()/600%2 == 0 {
		prompt := ">>  Press SPACE to Restart  <<"
		cw.WriteAt(centerX-len(prompt)/2, y+9, prompt)
	} else {
		cw.ClearRow(centerX-15, y+9, 30)
	}
}

func reasonText(r sim.Reason) string {
	switch r {
	case sim.ReasonLivesExhausted:
		return "Out of lives"
	case sim.ReasonTrackingLost:
		return "Lost track of your hand"
	case sim.ReasonDisengaged:
		return "You walked away"
	default:
		return ""
	}
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	cw := c.chunkWriter
	title := "SERVER SHUTTING DOWN"
	cw.WriteAt(centerX-len(title)/2, centerY-3, title)

	msg1 := "The server is restarting for maintenance."
	cw.WriteAt(centerX-len(msg1)/2, centerY-1, msg1)

	msg2 := "Please reconnect in a moment."
	cw.WriteAt(centerX-len(msg2)/2, centerY, msg2)

	remaining := int(c.state.shutdownFor) + 1
	countdown := fmt.Sprintf("Disconnecting in %d seconds...", remaining)
	cw.WriteAt(centerX-len(countdown)/2, centerY+2, countdown)

	hint := "Press Q to disconnect now"
	cw.WriteAt(centerX-len(hint)/2, centerY+4, hint)
}

// drawCentered writes lines starting at row y, centered on the widest line.
func drawCentered(cw *draw.ChunkWriter, centerX, y int, lines []string) {
	width := 0
	for _, line := range lines {
		width = max(width, len(line))
	}
	for i, line := range lines {
		cw.WriteAt(centerX-width/2, y+i, line)
	}
}
