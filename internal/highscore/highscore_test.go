package highscore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecordKeepsBestPerVariant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scores.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if best, improved, err := s.Record(Variant("1p", "bugs"), 12); err != nil || !improved || best != 12 {
		t.Fatalf("first record: got (%d, %v, %v), want (12, true, nil)", best, improved, err)
	}
	if best, improved, _ := s.Record(Variant("1p", "bugs"), 7); improved || best != 12 {
		t.Fatalf("lower score: got (%d, %v), want (12, false)", best, improved)
	}
	if _, improved, _ := s.Record(Variant("2p", "bugs"), 3); !improved {
		t.Fatal("other variant should start from zero")
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Best("1p/bugs"); got != 12 {
		t.Errorf("persisted 1p/bugs: got %d, want 12", got)
	}
	if got := reopened.Best("2p/bugs"); got != 3 {
		t.Errorf("persisted 2p/bugs: got %d, want 3", got)
	}
	if got := reopened.Best("1p/spiders"); got != 0 {
		t.Errorf("unknown variant: got %d, want 0", got)
	}
}

func TestOpenMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "none.json")); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(empty); err != nil {
		t.Fatalf("empty file: %v", err)
	}
}

func TestOpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMemoryOnly(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if _, improved, err := s.Record("1p/zombies", 4); err != nil || !improved {
		t.Fatalf("got (%v, %v), want (true, nil)", improved, err)
	}
	if got := s.Best("1p/zombies"); got != 4 {
		t.Errorf("got %d, want 4", got)
	}
}
