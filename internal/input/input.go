package input

import (
	"bufio"
	"bytes"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
const keyHoldDuration = 30 * time.Millisecond

// Input represents the current frame's input state.
type Input struct {
	Quit      bool
	Left      bool // Reticle left
	Right     bool
	Up        bool
	Down      bool
	FaceLeft  bool // Simulated face left
	FaceRight bool
	Space     bool
	Enter     bool
	Backspace bool
	Escape    bool
	Number    int
	Pressed   []byte
	Closed    bool // The underlying reader hit EOF
}

// Tapped reports whether b (either case for letters) arrived this frame.
// Toggles use it instead of the hold state so a key press fires once.
func (in Input) Tapped(b byte) bool {
	if bytes.IndexByte(in.Pressed, b) >= 0 {
		return true
	}
	switch {
	case b >= 'a' && b <= 'z':
		return bytes.IndexByte(in.Pressed, b-'a'+'A') >= 0
	case b >= 'A' && b <= 'Z':
		return bytes.IndexByte(in.Pressed, b-'A'+'a') >= 0
	}
	return false
}

// keyState tracks the last time each key was pressed.
type keyState struct {
	quit      time.Time
	left      time.Time
	right     time.Time
	up        time.Time
	down      time.Time
	faceLeft  time.Time
	faceRight time.Time
	space     time.Time
	enter     time.Time
	backspace time.Time
	escape    time.Time
	number    time.Time
	numberVal int
}

// Stream delivers input bytes via a channel and tracks key state for combinations.
type Stream struct {
	ch     chan byte
	state  keyState
	closed bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream() *Stream {
	return &Stream{
		ch:    make(chan byte, 128),
		state: keyState{numberVal: -1},
	}
}

// ReadInput drains all available bytes from the stream (non-blocking).
// Handles escape sequences for arrow keys and accumulates all pressed keys.
// Uses key state persistence to allow detecting simultaneous key combinations.
func ReadInput(s *Stream) Input {
	var buf []byte

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	return s.parse(buf, time.Now())
}

// parse updates key state from buf and builds the frame's Input.
func (s *Stream) parse(buf []byte, now time.Time) Input {
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			switch buf[i+2] {
			case 'A':
				s.state.up = now
				i += 2
				continue
			case 'B':
				s.state.down = now
				i += 2
				continue
			case 'C':
				s.state.right = now
				i += 2
				continue
			case 'D':
				s.state.left = now
				i += 2
				continue
			}
		}

		applyByteToState(&s.state, b, now)
	}

	held := func(t time.Time) bool { return now.Sub(t) < keyHoldDuration }
	input := Input{
		Quit:      held(s.state.quit),
		Left:      held(s.state.left),
		Right:     held(s.state.right),
		Up:        held(s.state.up),
		Down:      held(s.state.down),
		FaceLeft:  held(s.state.faceLeft),
		FaceRight: held(s.state.faceRight),
		Space:     held(s.state.space),
		Enter:     held(s.state.enter),
		Backspace: held(s.state.backspace),
		Escape:    held(s.state.escape),
		Number:    -1,
		Pressed:   buf,
		Closed:    s.closed,
	}

	if held(s.state.number) {
		input.Number = s.state.numberVal
	}

	return input
}

// applyByteToState updates the key state timestamps based on the pressed byte.
func applyByteToState(state *keyState, b byte, now time.Time) {
	switch b {
	case 'q', 'Q', '\x03':
		state.quit = now
	case 'a', 'A':
		state.left = now
	case 'd', 'D':
		state.right = now
	case 'w', 'W':
		state.up = now
	case 's', 'S':
		state.down = now
	case 'j', 'J':
		state.faceLeft = now
	case 'l', 'L':
		state.faceRight = now
	case ' ':
		state.space = now
	case '\n', '\r':
		state.enter = now
	case '\b', '\x7f':
		state.backspace = now
	case '\x1b':
		state.escape = now
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		state.number = now
		state.numberVal = int(b - '0')
	}
}
