package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	appName   = "media_player"
	envPrefix = "MEDIA_PLAYER"

	EngineBeep = "beep"
	EngineMPV  = "mpv"
	UITerminal = "tui"
	UIDesktop  = "gui"
)

// EnvKeyReplacer maps config keys onto environment variable names
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config holds application configuration
type Config struct {
	MediaDirectories []string      `mapstructure:"media_directories"`
	DefaultVolume    float64       `mapstructure:"default_volume"`
	Engine           string        `mapstructure:"engine"`
	UI               string        `mapstructure:"ui"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	Theme            string        `mapstructure:"theme"`
	KeyBindings      KeyMap        `mapstructure:"key_bindings"`
	MPV              MPVConfig     `mapstructure:"mpv"`
	Log              LogConfig     `mapstructure:"log"`
	DataDir          string        `mapstructure:"data_dir"`
	MPRIS            bool          `mapstructure:"mpris"`
	Extensions       []string      `mapstructure:"extensions"`
}

// KeyMap defines keyboard shortcuts
type KeyMap struct {
	PlayPause   string `mapstructure:"play_pause"`
	Stop        string `mapstructure:"stop"`
	Next        string `mapstructure:"next"`
	Previous    string `mapstructure:"previous"`
	VolumeUp    string `mapstructure:"volume_up"`
	VolumeDown  string `mapstructure:"volume_down"`
	SeekForward string `mapstructure:"seek_forward"`
	SeekBack    string `mapstructure:"seek_back"`
	Open        string `mapstructure:"open"`
	Playlist    string `mapstructure:"playlist"`
	Quit        string `mapstructure:"quit"`
}

// MPVConfig configures the mpv engine
type MPVConfig struct {
	Path   string `mapstructure:"path"`
	Socket string `mapstructure:"socket"`
	Video  bool   `mapstructure:"video"`
}

// LogConfig configures the log file
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// defaults returns every key with its default value
func defaults() map[string]any {
	dataDir := defaultDataDir()
	return map[string]any{
		"media_directories":         []string{},
		"default_volume":            0.5,
		"engine":                    EngineBeep,
		"ui":                        UITerminal,
		"tick_interval":             "500ms",
		"theme":                     "dark",
		"key_bindings.play_pause":   " ",
		"key_bindings.stop":         "s",
		"key_bindings.next":         "n",
		"key_bindings.previous":     "p",
		"key_bindings.volume_up":    "+",
		"key_bindings.volume_down":  "-",
		"key_bindings.seek_forward": "right",
		"key_bindings.seek_back":    "left",
		"key_bindings.open":         "o",
		"key_bindings.playlist":     "tab",
		"key_bindings.quit":         "q",
		"mpv.path":                  "mpv",
		"mpv.socket":                filepath.Join(os.TempDir(), appName+"_mpv.sock"),
		"mpv.video":                 true,
		"log.level":                 "info",
		"log.file":                  filepath.Join(dataDir, "player.log"),
		"data_dir":                  dataDir,
		"mpris":                     true,
		"extensions": []string{
			".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac", ".opus",
			".mp4", ".mkv", ".webm", ".avi", ".mov",
		},
	}
}

// New creates a viper instance reading from fs with defaults and
// MEDIA_PLAYER_ environment overrides applied
func New(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	return v
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	cfg, err := unmarshal(New(afero.NewMemMapFs()))
	if err != nil {
		panic(fmt.Sprintf("invalid default config: %v", err))
	}
	return cfg
}

// Load reads the config file at path through v. A missing file is created
// with the defaults. A .env file next to it is applied first.
func Load(v *viper.Viper, fs afero.Fs, path string) (*Config, error) {
	if err := loadDotEnv(fs, filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !exists {
		if err := writeDefaults(fs, path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Extensions = lo.Map(cfg.Extensions, func(ext string, _ int) string {
		return strings.ToLower(ext)
	})
	return &cfg, nil
}

// writeDefaults saves a config file containing only the defaults
func writeDefaults(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	d := viper.New()
	d.SetFs(fs)
	d.SetConfigType("json")
	for key, value := range defaults() {
		d.SetDefault(key, value)
	}
	return d.SafeWriteConfigAs(path)
}

// loadDotEnv exports MEDIA_PLAYER_ variables from a .env file without
// overriding variables already set in the environment
func loadDotEnv(fs afero.Fs, path string) error {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for key, value := range vars {
		if !strings.HasPrefix(key, envPrefix+"_") {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks values the rest of the application relies on
func (c *Config) Validate() error {
	if c.DefaultVolume < 0 || c.DefaultVolume > 1 {
		return fmt.Errorf("default_volume %v: %w", c.DefaultVolume, playerrors.ErrInvalidVolume)
	}
	if !lo.Contains([]string{EngineBeep, EngineMPV}, c.Engine) {
		return fmt.Errorf("unknown engine %q, want %s or %s", c.Engine, EngineBeep, EngineMPV)
	}
	if !lo.Contains([]string{UITerminal, UIDesktop}, c.UI) {
		return fmt.Errorf("unknown ui %q, want %s or %s", c.UI, UITerminal, UIDesktop)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	// Check environment variable first
	if path := os.Getenv(envPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName, "config.json")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(home, ".config", appName, "config.json")
}

func defaultDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", appName)
}
