// Package highscore persists the best score per game variant in a JSON file.
package highscore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Variant keys a score table entry, e.g. "1p/bugs".
func Variant(mode, theme string) string {
	return mode + "/" + theme
}

// Store is safe for concurrent use. An empty path keeps scores in memory.
type Store struct {
	path string

	mu   sync.Mutex
	best map[string]int
}

// Open reads path if it exists. A missing file is an empty table.
func Open(path string) (*Store, error) {
	s := &Store{path: path, best: make(map[string]int)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read high scores: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.best); err != nil {
		return nil, fmt.Errorf("parse high scores %s: %w", path, err)
	}
	return s, nil
}

// Best returns the stored score for variant, 0 when none.
func (s *Store) Best(variant string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best[variant]
}

// Record stores score if it beats the current best and reports the
// resulting best. The file is rewritten only on a new best.
func (s *Store) Record(variant string, score int) (best int, improved bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if score <= s.best[variant] {
		return s.best[variant], false, nil
	}
	s.best[variant] = score
	if err := s.save(); err != nil {
		return score, true, err
	}
	return score, true, nil
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.best, "", "  ")
	if err != nil {
		return fmt.Errorf("encode high scores: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write high scores: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write high scores: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write high scores: %w", err)
	}
	return nil
}
