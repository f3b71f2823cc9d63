package protocol

// Messages coming in from the browser.

type Hello struct {
	V     int    `json:"v" msgpack:"v"`
	Mode  string `json:"mode,omitempty" msgpack:"mode,omitempty"`   // "1p" or "2p"
	Theme string `json:"theme,omitempty" msgpack:"theme,omitempty"` // theme name
}

// Point is a normalized position, already in display (mirrored) space.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Track is one tracking result.
type Track struct {
	Faces    []Point `json:"faces" msgpack:"faces"`
	Gestures []Point `json:"gestures" msgpack:"gestures"`
	TS       int64   `json:"ts,omitempty" msgpack:"ts,omitempty"` // Client clock, ms
}

// Frame is a tracking result together with the camera image it came from.
type Frame struct {
	Track `msgpack:",inline"`
	JPEG  []byte `msgpack:"jpeg,omitempty"`
}

type Control struct {
	Action string `json:"action" msgpack:"action"`
	Value  string `json:"value,omitempty" msgpack:"value,omitempty"`
}
