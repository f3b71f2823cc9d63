// Package loop drives a match once per display frame.
package loop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStop ends Run without reporting a failure.
var ErrStop = errors.New("loop stopped")

// Stepper runs one frame: input, update, draw.
type Stepper interface {
	Step(now time.Time) error
}

// StepFunc adapts a function to Stepper.
type StepFunc func(now time.Time) error

func (f StepFunc) Step(now time.Time) error { return f(now) }

// FrameLoop calls a Stepper at a fixed rate until stopped.
type FrameLoop struct {
	interval time.Duration
	step     Stepper

	stop chan struct{}
	once sync.Once
}

// New creates a loop running fps frames per second.
func New(fps int, s Stepper) *FrameLoop {
	if fps <= 0 {
		fps = 60
	}
	return &FrameLoop{
		interval: time.Second / time.Duration(fps),
		step:     s,
		stop:     make(chan struct{}),
	}
}

// Interval returns the frame period.
func (l *FrameLoop) Interval() time.Duration {
	return l.interval
}

// Run blocks until Stop, ctx cancellation, or a step error. A step returning
// ErrStop ends the loop cleanly.
func (l *FrameLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case now := <-ticker.C:
			// Stop may race with a pending tick.
			select {
			case <-l.stop:
				return nil
			default:
			}
			if err := l.step.Step(now); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
	}
}

// Stop cancels the loop. It reports true only for the call that stopped it.
func (l *FrameLoop) Stop() bool {
	stopped := false
	l.once.Do(func() {
		close(l.stop)
		stopped = true
	})
	return stopped
}
