package tracking

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/tomz197/nosecondbest/internal/input"
	"github.com/tomz197/nosecondbest/internal/object"
)

func TestNormalizeMirrorsAndSorts(t *testing.T) {
	in := Frame{
		Faces: []object.Point{{X: 0.2, Y: 0.5}, {X: 0.9, Y: 0.5}, {X: math.NaN(), Y: 0}},
		Gestures: []object.Point{
			{X: 0.1, Y: 0.1},
			{X: math.Inf(1), Y: 0.2},
		},
	}
	out := Normalize(in, true)

	if len(out.Faces) != 2 || len(out.Gestures) != 1 {
		t.Fatalf("got %d faces %d gestures, want 2 and 1", len(out.Faces), len(out.Gestures))
	}
	if math.Abs(out.Faces[0].X-0.1) > 1e-9 || math.Abs(out.Faces[1].X-0.8) > 1e-9 {
		t.Fatalf("faces = %v, want mirrored and sorted", out.Faces)
	}
	if math.Abs(out.Gestures[0].X-0.9) > 1e-9 {
		t.Fatalf("gesture x = %v, want 0.9", out.Gestures[0].X)
	}
	if in.Faces[0].X != 0.2 {
		t.Fatalf("input must not be modified")
	}
}

func TestLatestGoesStale(t *testing.T) {
	l := NewLatest(200*time.Millisecond, false)
	now := time.Now()

	if f := l.Detect(now); !f.Empty() {
		t.Fatalf("expected empty frame before the first push")
	}

	l.Push(Frame{At: now, Gestures: []object.Point{{X: 0.5, Y: 0.5}}})
	if f := l.Detect(now.Add(100 * time.Millisecond)); len(f.Gestures) != 1 {
		t.Fatalf("fresh frame should be returned")
	}
	if f := l.Detect(now.Add(300 * time.Millisecond)); !f.Empty() {
		t.Fatalf("stale frame should read as empty")
	}
}

func TestLatestIgnoresOutOfOrderFrames(t *testing.T) {
	l := NewLatest(0, false)
	now := time.Now()
	l.Push(Frame{At: now, Faces: []object.Point{{X: 0.1, Y: 0.1}}})
	l.Push(Frame{At: now.Add(-time.Second), Faces: []object.Point{{X: 0.9, Y: 0.9}}})

	f := l.Detect(now)
	if len(f.Faces) != 1 || f.Faces[0].X != 0.1 {
		t.Fatalf("older frame replaced a newer one: %v", f.Faces)
	}
}

func TestLatestImage(t *testing.T) {
	l := NewLatest(0, false)
	if l.Image() != nil {
		t.Fatalf("expected nil image")
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	l.SetImage(img)
	if l.Image() != img {
		t.Fatalf("image not stored")
	}
}

func TestKeyboardMovesAndToggles(t *testing.T) {
	k := NewKeyboard(1)
	k.Update(input.Input{Right: true, FaceLeft: true}, 500*time.Millisecond)

	if got, want := k.Reticle.X, 0.5+ReticleSpeed*0.5; math.Abs(got-min(want, 1)) > 1e-9 {
		t.Fatalf("reticle x = %v, want %v", got, min(want, 1))
	}
	f := k.Detect(time.Now())
	if len(f.Faces) != 1 || math.Abs(f.Faces[0].X-0.1) > 1e-9 {
		t.Fatalf("face = %v, want x=0.1", f.Faces)
	}
	if len(f.Gestures) != 1 {
		t.Fatalf("raised hand should produce a gesture")
	}

	k.Update(input.Input{Pressed: []byte("h")}, 0)
	if f := k.Detect(time.Now()); len(f.Gestures) != 0 {
		t.Fatalf("lowered hand should produce no gesture")
	}
}

func TestKeyboardTwoPlayers(t *testing.T) {
	k := NewKeyboard(2)
	f := k.Detect(time.Now())
	if len(f.Faces) != 2 || f.Faces[0].X >= f.Faces[1].X {
		t.Fatalf("faces = %v, want two ordered faces", f.Faces)
	}
}
