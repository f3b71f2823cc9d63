package tracking

import (
	"image"
	"sync"
	"time"
)

// Latest keeps the most recent frame pushed by a remote tracker along with
// the camera image it was computed from. Frames older than MaxAge read as
// empty so a stalled tracker looks like lost tracking.
type Latest struct {
	MaxAge time.Duration

	mu     sync.Mutex
	frame  Frame
	img    image.Image
	mirror bool
}

// NewLatest returns a store. mirror flips x on every pushed frame.
func NewLatest(maxAge time.Duration, mirror bool) *Latest {
	return &Latest{MaxAge: maxAge, mirror: mirror}
}

// Push replaces the stored frame. Frames without a timestamp are stamped now.
func (l *Latest) Push(f Frame) {
	if f.At.IsZero() {
		f.At = time.Now()
	}
	f = Normalize(f, l.mirror)

	l.mu.Lock()
	defer l.mu.Unlock()
	if f.At.Before(l.frame.At) {
		return
	}
	l.frame = f
}

// Detect returns the stored frame, or an empty one when it is stale.
func (l *Latest) Detect(now time.Time) Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frame.At.IsZero() {
		return Frame{At: now}
	}
	if l.MaxAge > 0 && now.Sub(l.frame.At) > l.MaxAge {
		return Frame{At: now}
	}
	return l.frame
}

// SetImage stores the latest camera image.
func (l *Latest) SetImage(img image.Image) {
	l.mu.Lock()
	l.img = img
	l.mu.Unlock()
}

// Image returns the latest camera image, or nil before the first one.
func (l *Latest) Image() image.Image {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.img
}
