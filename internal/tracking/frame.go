// Package tracking turns body-tracking output into per-frame point sets in
// the unit square.
package tracking

import (
	"sort"
	"time"

	"github.com/tomz197/nosecondbest/internal/object"
)

// Frame is one tracking sample. Faces are ordered left to right; gesture
// tips are unordered. Either list may be empty.
type Frame struct {
	Faces    []object.Point
	Gestures []object.Point
	At       time.Time
}

// Empty reports whether the frame carries no points at all.
func (f Frame) Empty() bool {
	return len(f.Faces) == 0 && len(f.Gestures) == 0
}

// Source yields the freshest tracking frame. Implementations never block and
// return an empty frame when nothing usable is available.
type Source interface {
	Detect(now time.Time) Frame
}

// Normalize drops non-finite points, optionally mirrors x, and orders faces
// left to right. The input slices are not modified.
func Normalize(f Frame, mirror bool) Frame {
	out := Frame{At: f.At}
	out.Faces = clean(f.Faces, mirror)
	out.Gestures = clean(f.Gestures, mirror)
	sort.SliceStable(out.Faces, func(i, j int) bool {
		return out.Faces[i].X < out.Faces[j].X
	})
	return out
}

func clean(pts []object.Point, mirror bool) []object.Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]object.Point, 0, len(pts))
	for _, p := range pts {
		if !p.Valid() {
			continue
		}
		if mirror {
			p.X = 1 - p.X
		}
		out = append(out, p)
	}
	return out
}
