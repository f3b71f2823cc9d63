package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	gamecfg "github.com/tomz197/nosecondbest/internal/loop/config"
)

// FileEnv names the variable pointing at an optional TOML settings file.
const FileEnv = "ARSHOOTER_CONFIG"

// Settings is everything a command needs to boot.
type Settings struct {
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`

	SSHHost     string `toml:"ssh_host"`
	SSHPort     string `toml:"ssh_port"`
	HostKeyPath string `toml:"ssh_host_key"`
	WebHost     string `toml:"web_host"`
	WebPort     string `toml:"web_port"`

	AudioBackend string `toml:"audio_backend"` // speaker, oto or none
	SampleDir    string `toml:"sample_dir"`    // Optional <cue>.wav overrides
	Muted        bool   `toml:"muted"`

	ScreenshotDir string `toml:"screenshot_dir"`
	HighScoreFile string `toml:"highscore_file"`

	Game gamecfg.Tuning `toml:"game"`
}

// Defaults returns the settings used when neither file nor env say otherwise.
func Defaults() Settings {
	return Settings{
		LogLevel:      "info",
		SSHHost:       "::",
		SSHPort:       "2222",
		HostKeyPath:   "/app/keys/host_key",
		WebHost:       "0.0.0.0",
		WebPort:       "8080",
		AudioBackend:  "speaker",
		ScreenshotDir: "screenshots",
		HighScoreFile: "highscores.json",
		Game:          gamecfg.Default(),
	}
}

// ErrConfigFile wraps failures reading or decoding the settings file.
var ErrConfigFile = errors.New("config file")

// Load builds Settings from defaults, then the TOML file named by
// ARSHOOTER_CONFIG (if any), then environment variables.
func Load() (Settings, error) {
	return LoadFile(GetEnv(FileEnv, ""))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (Settings, error) {
	s := Defaults()
	if path != "" {
		md, err := toml.DecodeFile(path, &s)
		if err != nil {
			return Settings{}, fmt.Errorf("%w %s: %w", ErrConfigFile, path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Settings{}, fmt.Errorf("%w %s: unknown keys %s", ErrConfigFile, path, strings.Join(keys, ", "))
		}
	}
	s.applyEnv()
	if err := s.Game.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	s.LogLevel = GetEnv("LOG_LEVEL", s.LogLevel)
	s.LogFile = GetEnv("LOG_FILE", s.LogFile)
	s.SSHHost = GetEnv("SSH_HOST", s.SSHHost)
	s.SSHPort = GetEnv("SSH_PORT", s.SSHPort)
	s.HostKeyPath = GetEnv("SSH_HOST_KEY", s.HostKeyPath)
	s.WebHost = GetEnv("WEB_HOST", s.WebHost)
	s.WebPort = GetEnv("WEB_PORT", s.WebPort)
	s.AudioBackend = GetEnv("AUDIO_BACKEND", s.AudioBackend)
	s.SampleDir = GetEnv("AUDIO_SAMPLES", s.SampleDir)
	s.Muted = GetEnvBool("AUDIO_MUTED", s.Muted)
	s.ScreenshotDir = GetEnv("SCREENSHOT_DIR", s.ScreenshotDir)
	s.HighScoreFile = GetEnv("HIGHSCORE_FILE", s.HighScoreFile)

	s.Game.MaxLives = GetEnvInt("GAME_MAX_LIVES", s.Game.MaxLives)
	s.Game.TempoBPM = GetEnvFloat("GAME_TEMPO_BPM", s.Game.TempoBPM)
	s.Game.CaptureEvery.Duration = GetEnvDuration("GAME_CAPTURE_EVERY", s.Game.CaptureEvery.Duration)
}
