// Package protocol defines the messages exchanged with browser clients over
// the websocket bridge. Text frames carry JSON envelopes, binary frames carry
// msgpack envelopes (tracking plus camera JPEG).
package protocol

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Version is sent in Hello and Welcome.
const Version = 1

// Client to server.
const (
	MsgHello   = "hello"
	MsgTrack   = "track"
	MsgFrame   = "frame" // binary only
	MsgControl = "control"
)

// Server to client.
const (
	MsgWelcome  = "welcome"
	MsgState    = "state"
	MsgCue      = "cue"
	MsgMusic    = "music"
	MsgGameOver = "gameover"
	MsgError    = "error"
)

// Control actions.
const (
	ActionStart     = "start"
	ActionPause     = "pause"
	ActionResume    = "resume"
	ActionToggle    = "toggle"
	ActionDisengage = "disengage"
	ActionMode      = "mode"
	ActionTheme     = "theme"
)

// Envelope is a JSON text frame.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}

// BinaryEnvelope is a msgpack binary frame.
type BinaryEnvelope struct {
	T string             `msgpack:"t"`
	P msgpack.RawMessage `msgpack:"p"`
}
