package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gamecfg "github.com/tomz197/nosecondbest/internal/loop/config"
)

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("NSB_TEST_INT", "42")
	t.Setenv("NSB_TEST_BAD_INT", "forty")
	t.Setenv("NSB_TEST_FLOAT", " 0.25 ")
	t.Setenv("NSB_TEST_BOOL", "true")
	t.Setenv("NSB_TEST_DUR", "250ms")

	if got := GetEnv("NSB_TEST_MISSING", "x"); got != "x" {
		t.Errorf("GetEnv missing: got %q, want %q", got, "x")
	}
	if got := GetEnvInt("NSB_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt: got %d, want 42", got)
	}
	if got := GetEnvInt("NSB_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt bad value: got %d, want 7", got)
	}
	if got := GetEnvFloat("NSB_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("GetEnvFloat: got %v, want 0.25", got)
	}
	if got := GetEnvBool("NSB_TEST_BOOL", false); !got {
		t.Error("GetEnvBool: got false, want true")
	}
	if got := GetEnvDuration("NSB_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("GetEnvDuration: got %v, want 250ms", got)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileNoPath(t *testing.T) {
	s, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Game != gamecfg.Default() {
		t.Errorf("game tuning: got %+v, want defaults", s.Game)
	}
	if s.AudioBackend != "speaker" {
		t.Errorf("audio backend: got %q, want speaker", s.AudioBackend)
	}
}

func TestLoadFileOverridesAndEnvWins(t *testing.T) {
	path := writeFile(t, `
audio_backend = "oto"
web_port = "9000"

[game]
max_lives = 5
capture_every = "4s"
`)
	t.Setenv("WEB_PORT", "9100")

	s, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.AudioBackend != "oto" {
		t.Errorf("audio backend: got %q, want oto", s.AudioBackend)
	}
	if s.WebPort != "9100" {
		t.Errorf("web port: got %q, want env value 9100", s.WebPort)
	}
	if s.Game.MaxLives != 5 {
		t.Errorf("max lives: got %d, want 5", s.Game.MaxLives)
	}
	if s.Game.CaptureEvery.Duration != 4*time.Second {
		t.Errorf("capture every: got %v, want 4s", s.Game.CaptureEvery.Duration)
	}
	if s.Game.SpawnIntervalStart != gamecfg.Default().SpawnIntervalStart {
		t.Errorf("untouched keys should keep defaults, got %v", s.Game.SpawnIntervalStart)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, ErrConfigFile) {
		t.Errorf("missing file: got %v, want ErrConfigFile", err)
	}
	if _, err := LoadFile(writeFile(t, "bogus_key = 1\n")); !errors.Is(err, ErrConfigFile) {
		t.Errorf("unknown key: got %v, want ErrConfigFile", err)
	}
	if _, err := LoadFile(writeFile(t, "[game]\nmax_lives = 0\n")); !errors.Is(err, gamecfg.ErrInvalidTuning) {
		t.Errorf("invalid tuning: got %v, want ErrInvalidTuning", err)
	}
	if _, err := LoadFile(writeFile(t, "[game]\nlookahead = \"soon\"\n")); !errors.Is(err, ErrConfigFile) {
		t.Errorf("bad duration: got %v, want ErrConfigFile", err)
	}
}

func TestLoadUsesFileEnv(t *testing.T) {
	t.Setenv(FileEnv, writeFile(t, "highscore_file = \"/tmp/hs.json\"\n"))
	s, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.HighScoreFile != "/tmp/hs.json" {
		t.Errorf("highscore file: got %q", s.HighScoreFile)
	}
}

func TestNewLogger(t *testing.T) {
	s := Defaults()
	s.LogLevel = "debug"
	s.LogFile = filepath.Join(t.TempDir(), "game.log")

	logger, closeLog, err := s.NewLogger("test", nil)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hello", "n", 1)
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(s.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "hello") || !strings.Contains(string(b), "test") {
		t.Errorf("log file: got %q", b)
	}

	s.LogLevel = "loud"
	if _, _, err := s.NewLogger("test", nil); err == nil {
		t.Error("unknown level: got nil error")
	}
}
