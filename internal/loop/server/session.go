package server

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	uuid "github.com/satori/go.uuid"

	"github.com/tomz197/nosecondbest/internal/audio"
	"github.com/tomz197/nosecondbest/internal/capture"
	"github.com/tomz197/nosecondbest/internal/highscore"
	"github.com/tomz197/nosecondbest/internal/loop"
	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/loop/sim"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/protocol"
	"github.com/tomz197/nosecondbest/internal/tracking"
)

// Session is one browser connection running its own match. The controller
// is only touched from the frame loop goroutine; the reader hands controls
// over through the inbox.
type Session struct {
	id   string
	srv  *Server
	conn *websocket.Conn
	log  *log.Logger

	ctrl      *sim.Controller
	latest    *tracking.Latest
	pipeline  *capture.Pipeline
	frameLoop *loop.FrameLoop

	inbox      chan any
	outbox     chan []byte
	priority   chan []byte // Music, errors and game over; written first
	closing    chan struct{}
	closeOnce  sync.Once
	closeMsg   string
	frame      int
	stateEvery int
	lastStatus sim.Status
}

var (
	_ sim.Sound    = (*Session)(nil)
	_ sim.Listener = (*Session)(nil)
)

func newSession(srv *Server, conn *websocket.Conn) *Session {
	s := &Session{
		id:         uuid.NewV4().String(),
		srv:        srv,
		conn:       conn,
		latest:     tracking.NewLatest(TrackingMaxAge, false),
		inbox:      make(chan any, 32),
		outbox:     make(chan []byte, outboxSize),
		priority:   make(chan []byte, prioritySize),
		closing:    make(chan struct{}),
		stateEvery: max(1, config.ClientTargetFPS/config.BroadcastHz),
	}
	s.log = srv.log.With("session", s.id)

	var r object.Rand
	if srv.opts.NewRand != nil {
		r = srv.opts.NewRand()
	}
	s.pipeline = capture.NewPipeline(s.latest, srv.opts.Tuning, r, s.log)
	s.ctrl = sim.NewController(sim.Options{
		Tuning:   srv.opts.Tuning,
		Rand:     r,
		Sound:    s,
		Capture:  s.pipeline,
		Listener: s,
		Logger:   s.log,
	})
	s.frameLoop = loop.New(config.ClientTargetFPS, s)
	return s
}

// ID returns the session id sent in the welcome message.
func (s *Session) ID() string {
	return s.id
}

// Run serves the connection until it closes or ctx ends.
func (s *Session) Run(ctx context.Context) error {
	defer s.conn.Close()

	s.conn.SetReadLimit(ReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	writerDone := make(chan struct{})
	go func() {
		s.writeLoop()
		close(writerDone)
	}()
	go func() {
		s.readLoop()
		s.frameLoop.Stop()
	}()

	themes := make([]string, 0, len(object.Themes()))
	for _, t := range object.Themes() {
		themes = append(themes, t.String())
	}
	s.send(protocol.MsgWelcome, protocol.Welcome{
		V:         protocol.Version,
		SessionID: s.id,
		StateHz:   config.BroadcastHz,
		Themes:    themes,
	}, true)
	s.sendState()

	err := s.frameLoop.Run(ctx)
	s.Close("")
	<-writerDone
	return err
}

// Close ends the session. A non-empty reason is sent to the browser first.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		s.closeMsg = reason
		close(s.closing)
	})
}

// Step implements loop.Stepper.
func (s *Session) Step(now time.Time) error {
drain:
	for {
		select {
		case m := <-s.inbox:
			s.handle(now, m)
		default:
			break drain
		}
	}

	s.ctrl.Advance(now, s.latest.Detect(now))

	s.frame++
	status := s.ctrl.Status()
	if s.frame%s.stateEvery == 0 || status != s.lastStatus {
		s.lastStatus = status
		s.sendState()
	}
	return nil
}

// handle applies one inbound message on the loop goroutine.
func (s *Session) handle(now time.Time, m any) {
	switch msg := m.(type) {
	case protocol.Hello:
		if msg.V != protocol.Version {
			s.sendError(fmt.Sprintf("unsupported protocol version %d", msg.V))
			return
		}
		if msg.Mode != "" {
			s.setMode(msg.Mode)
		}
		if msg.Theme != "" {
			s.setTheme(msg.Theme)
		}
	case protocol.Control:
		s.control(now, msg)
	}
}

func (s *Session) control(now time.Time, c protocol.Control) {
	switch c.Action {
	case protocol.ActionStart:
		s.ctrl.Start(now)
	case protocol.ActionPause:
		s.ctrl.Pause(now)
	case protocol.ActionResume:
		s.ctrl.Resume(now)
	case protocol.ActionToggle:
		s.ctrl.TogglePause(now)
	case protocol.ActionDisengage:
		s.ctrl.Disengage(now)
	case protocol.ActionMode:
		s.setMode(c.Value)
	case protocol.ActionTheme:
		s.setTheme(c.Value)
	default:
		s.sendError(fmt.Sprintf("unknown action %q", c.Action))
	}
}

func (s *Session) setMode(name string) {
	m, err := sim.ParseMode(name)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	s.ctrl.SetMode(m)
}

func (s *Session) setTheme(name string) {
	t, err := object.ParseTheme(name)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	s.ctrl.SetTheme(t)
}

// readLoop routes inbound frames until the socket fails.
func (s *Session) readLoop() {
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("read failed", "err", err)
			}
			return
		}
		switch kind {
		case websocket.TextMessage:
			s.readText(data)
		case websocket.BinaryMessage:
			s.readBinary(data)
		}
	}
}

func (s *Session) readText(data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		s.log.Debug("bad envelope", "err", err)
		return
	}
	switch env.T {
	case protocol.MsgHello:
		if msg, err := protocol.DecodePayload[protocol.Hello](env); err == nil {
			s.deliver(msg)
		}
	case protocol.MsgControl:
		if msg, err := protocol.DecodePayload[protocol.Control](env); err == nil {
			s.deliver(msg)
		}
	case protocol.MsgTrack:
		if msg, err := protocol.DecodePayload[protocol.Track](env); err == nil {
			s.latest.Push(trackingFrame(msg))
		}
	default:
		s.log.Debug("unknown message", "type", env.T)
	}
}

// readBinary handles msgpack frames: tracking plus the camera image it was
// computed from. A broken image keeps the tracking part.
func (s *Session) readBinary(data []byte) {
	env, err := protocol.DecodeBinary(data)
	if err != nil || env.T != protocol.MsgFrame {
		s.log.Debug("bad binary frame", "err", err)
		return
	}
	f, err := protocol.DecodeBinaryPayload[protocol.Frame](env)
	if err != nil {
		s.log.Debug("bad frame payload", "err", err)
		return
	}
	if len(f.JPEG) > 0 {
		img, err := jpeg.Decode(bytes.NewReader(f.JPEG))
		if err != nil {
			s.log.Debug("camera frame skipped", "err", err)
		} else {
			s.latest.SetImage(img)
		}
	}
	s.latest.Push(trackingFrame(f.Track))
}

// deliver hands a message to the loop goroutine.
func (s *Session) deliver(m any) {
	select {
	case s.inbox <- m:
	case <-s.closing:
	}
}

// writeLoop owns all socket writes.
func (s *Session) writeLoop() {
	defer s.conn.Close()
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case b := <-s.priority:
			if err := s.write(websocket.TextMessage, b); err != nil {
				s.log.Debug("write failed", "err", err)
				return
			}
			continue
		default:
		}

		select {
		case b := <-s.priority:
			if err := s.write(websocket.TextMessage, b); err != nil {
				s.log.Debug("write failed", "err", err)
				return
			}
		case b := <-s.outbox:
			if err := s.write(websocket.TextMessage, b); err != nil {
				s.log.Debug("write failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closing:
			if s.closeMsg != "" {
				if b, err := protocol.Encode(protocol.MsgError, protocol.Error{Message: s.closeMsg}); err == nil {
					_ = s.write(websocket.TextMessage, b)
				}
			}
			_ = s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, s.closeMsg))
			return
		}
	}
}

func (s *Session) write(kind int, b []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return s.conn.WriteMessage(kind, b)
}

// send queues a message without blocking the frame loop. Must-deliver
// messages go through the priority queue, which the writer drains before
// state updates; state updates are dropped when the writer falls behind.
func (s *Session) send(t string, payload any, must bool) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		s.log.Error("encode failed", "type", t, "err", err)
		return
	}
	queue := s.outbox
	if must {
		queue = s.priority
	}
	select {
	case queue <- b:
	default:
		if must {
			s.log.Warn("dropped message", "type", t)
		}
	}
}

func (s *Session) sendState() {
	snap := s.ctrl.Snapshot()
	s.send(protocol.MsgState, stateMessage(&snap, s.best()), false)
}

func (s *Session) sendError(msg string) {
	s.send(protocol.MsgError, protocol.Error{Message: msg}, true)
}

func (s *Session) variant() string {
	return highscore.Variant(s.ctrl.Mode().String(), s.ctrl.Theme().String())
}

func (s *Session) best() int {
	if s.srv.opts.Scores == nil {
		return 0
	}
	return s.srv.opts.Scores.Best(s.variant())
}

// Cue implements sim.Sound by forwarding to the browser.
func (s *Session) Cue(c audio.Cue) {
	s.send(protocol.MsgCue, protocol.Cue{Name: c.String()}, false)
}

// StartMusic implements sim.Sound.
func (s *Session) StartMusic() {
	s.send(protocol.MsgMusic, protocol.Music{On: true}, true)
}

// StopMusic implements sim.Sound.
func (s *Session) StopMusic() {
	s.send(protocol.MsgMusic, protocol.Music{On: false}, true)
}

// ScoreChanged implements sim.Listener. Scores travel in state messages.
func (s *Session) ScoreChanged(int) {}

// LivesChanged implements sim.Listener.
func (s *Session) LivesChanged([]int) {}

// GameOver implements sim.Listener.
func (s *Session) GameOver(ev sim.GameOverEvent) {
	best, improved := ev.Score, false
	if scores := s.srv.opts.Scores; scores != nil {
		var err error
		best, improved, err = scores.Record(highscore.Variant(ev.Mode.String(), ev.Theme.String()), ev.Score)
		if err != nil {
			s.log.Warn("high score not saved", "err", err)
		}
	}
	s.send(protocol.MsgGameOver, gameOverMessage(ev, best, improved && ev.Score > 0), true)
}
