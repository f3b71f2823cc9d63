package server

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomz197/nosecondbest/internal/highscore"
	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/loop/sim"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/protocol"
)

func startServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()
	scores, err := highscore.Open("")
	if err != nil {
		t.Fatal(err)
	}
	tun := config.Default()
	tun.PowerUpChance = 0
	srv := NewServer(Options{Tuning: tun, Scores: scores})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

// readUntil reads text frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(protocol.Envelope) bool) protocol.Envelope {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		if kind != websocket.TextMessage {
			continue
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.T == typ && (match == nil || match(env)) {
			return env
		}
	}
	t.Fatalf("no %q message before deadline", typ)
	return protocol.Envelope{}
}

func sendText(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	b, err := protocol.Encode(typ, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatal(err)
	}
}

func stateIs(status string) func(protocol.Envelope) bool {
	return func(env protocol.Envelope) bool {
		st, err := protocol.DecodePayload[protocol.State](env)
		return err == nil && st.Status == status
	}
}

func TestWelcomeAndIdleState(t *testing.T) {
	_, conn := startServer(t)

	env := readUntil(t, conn, protocol.MsgWelcome, nil)
	w, err := protocol.DecodePayload[protocol.Welcome](env)
	if err != nil {
		t.Fatal(err)
	}
	if w.SessionID == "" || w.V != protocol.Version {
		t.Errorf("welcome: got %+v", w)
	}
	if len(w.Themes) != len(object.Themes()) {
		t.Errorf("themes: got %d, want %d", len(w.Themes), len(object.Themes()))
	}

	env = readUntil(t, conn, protocol.MsgState, nil)
	st, err := protocol.DecodePayload[protocol.State](env)
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != sim.StatusIdle.String() {
		t.Errorf("status: got %q, want idle", st.Status)
	}
}

func TestMatchLifecycle(t *testing.T) {
	_, conn := startServer(t)
	readUntil(t, conn, protocol.MsgWelcome, nil)

	sendText(t, conn, protocol.MsgHello, protocol.Hello{V: protocol.Version, Mode: "2p", Theme: object.Themes()[0].String()})
	sendText(t, conn, protocol.MsgControl, protocol.Control{Action: protocol.ActionStart})

	env := readUntil(t, conn, protocol.MsgState, stateIs("playing"))
	st, _ := protocol.DecodePayload[protocol.State](env)
	if st.Mode != "2p" || len(st.Lives) != 2 {
		t.Errorf("mode: got %q with lives %v, want 2p with two counters", st.Mode, st.Lives)
	}
	if !st.ShowHelp {
		t.Error("help prompt should show before any gesture")
	}

	// A tracking frame with a gesture and a camera image clears the prompt.
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	var jb bytes.Buffer
	if err := jpeg.Encode(&jb, img, nil); err != nil {
		t.Fatal(err)
	}
	frame, err := protocol.EncodeBinary(protocol.MsgFrame, &protocol.Frame{
		Track: protocol.Track{
			Faces:    []protocol.Point{{X: 0.3, Y: 0.6}, {X: 0.7, Y: 0.6}},
			Gestures: []protocol.Point{{X: 0.5, Y: 0.2}},
		},
		JPEG: jb.Bytes(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, protocol.MsgState, func(env protocol.Envelope) bool {
		st, err := protocol.DecodePayload[protocol.State](env)
		return err == nil && st.Status == "playing" && !st.ShowHelp
	})

	sendText(t, conn, protocol.MsgControl, protocol.Control{Action: protocol.ActionDisengage})
	env = readUntil(t, conn, protocol.MsgGameOver, nil)
	over, err := protocol.DecodePayload[protocol.GameOver](env)
	if err != nil {
		t.Fatal(err)
	}
	if over.Reason != sim.ReasonDisengaged.String() {
		t.Errorf("reason: got %q, want %q", over.Reason, sim.ReasonDisengaged)
	}
	if len(over.Screenshots) != 1 {
		t.Fatalf("screenshots: got %d, want 1", len(over.Screenshots))
	}
	if _, err := jpeg.DecodeConfig(bytes.NewReader(over.Screenshots[0])); err != nil {
		t.Errorf("screenshot is not a jpeg: %v", err)
	}
}

func TestUnknownActionReportsError(t *testing.T) {
	_, conn := startServer(t)
	readUntil(t, conn, protocol.MsgWelcome, nil)

	sendText(t, conn, protocol.MsgControl, protocol.Control{Action: "dance"})
	env := readUntil(t, conn, protocol.MsgError, nil)
	e, _ := protocol.DecodePayload[protocol.Error](env)
	if !strings.Contains(e.Message, "dance") {
		t.Errorf("error: got %q", e.Message)
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	srv, conn := startServer(t)
	readUntil(t, conn, protocol.MsgWelcome, nil)

	deadline := time.Now().Add(2 * time.Second)
	for srv.Sessions() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := srv.Sessions(); got != 1 {
		t.Fatalf("sessions: got %d, want 1", got)
	}

	go srv.Shutdown(2 * time.Second)
	env := readUntil(t, conn, protocol.MsgError, nil)
	e, _ := protocol.DecodePayload[protocol.Error](env)
	if e.Message != "server shutting down" {
		t.Errorf("message: got %q", e.Message)
	}

	deadline = time.Now().Add(2 * time.Second)
	for srv.Sessions() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := srv.Sessions(); got != 0 {
		t.Errorf("sessions after shutdown: got %d, want 0", got)
	}
}

func TestStateMessageColors(t *testing.T) {
	snap := &sim.Snapshot{
		Status:  sim.StatusPlaying,
		Lives:   []int{3},
		Enemies: []object.Enemy{{ID: 7, X: 0.1, Y: 0.2, Size: 0.05, Behavior: object.Seeker, Color: color.RGBA{R: 0xf7, G: 0x93, B: 0x1a, A: 0xff}}},
	}
	st := stateMessage(snap, 12)
	if st.HighScore != 12 || st.Status != "playing" {
		t.Errorf("got %+v", st)
	}
	if len(st.Enemies) != 1 || st.Enemies[0].Color != "#f7931a" || !st.Enemies[0].Seeker {
		t.Errorf("enemy: got %+v", st.Enemies)
	}
}

func TestSendNeverBlocksTheFrameLoop(t *testing.T) {
	srv := NewServer(Options{})
	sess := newSession(srv, nil)

	// Nobody drains the queues, as with a stalled writer.
	for i := 0; i < outboxSize+prioritySize; i++ {
		sess.sendState()
		sess.StartMusic()
	}

	start := time.Now()
	sess.StopMusic()
	sess.sendError("late")
	sess.GameOver(sim.GameOverEvent{Reason: sim.ReasonDisengaged})
	if d := time.Since(start); d > time.Second {
		t.Fatalf("must-deliver sends blocked for %v", d)
	}
	if got := len(sess.priority); got != prioritySize {
		t.Errorf("priority queue: got %d, want %d", got, prioritySize)
	}
	if got := len(sess.outbox); got != outboxSize {
		t.Errorf("outbox: got %d, want %d", got, outboxSize)
	}
}
