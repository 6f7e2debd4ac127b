package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jscyril/golang_media_player/internal/audio"
	"github.com/jscyril/golang_media_player/internal/config"
	"github.com/jscyril/golang_media_player/internal/mpv"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// TestAppGraphValidity fails if a constructor is missing or the graph has a cycle
func TestAppGraphValidity(t *testing.T) {
	err := fx.ValidateApp(
		AppOptions,
		fx.Supply(Flags{}),
	)

	if err != nil {
		t.Errorf("Dependency graph is not valid: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Log = config.LogConfig{Level: "debug", File: filepath.Join(t.TempDir(), "player.log")}

	logger, err := newLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
	logger.Info("Test logger initialization")
}

func TestNewBackend(t *testing.T) {
	cfg := config.GetDefaultConfig()

	cfg.Engine = config.EngineBeep
	backend, err := newBackend(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &audio.Engine{}, backend)

	cfg.Engine = config.EngineMPV
	backend, err = newBackend(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &mpv.Engine{}, backend)

	cfg.Engine = "vlc"
	_, err = newBackend(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewScannerFormats(t *testing.T) {
	cfg := config.GetDefaultConfig()

	cfg.Engine = config.EngineBeep
	assert.Equal(t, audio.SupportedFormats(), newScanner(cfg, zap.NewNop()).SupportedFormats())

	cfg.Engine = config.EngineMPV
	assert.Contains(t, newScanner(cfg, zap.NewNop()).SupportedFormats(), ".mkv")
}

func TestFlagsOverrideConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", "/home/user/.config/player/config.json",
		"--engine", "mpv",
		"--ui", "gui",
		"-v", "0.8",
	}))
	flags := Flags{Command: cmd, Paths: []string{"/media"}}

	v, err := newViper(fs, flags)
	require.NoError(t, err)
	cfg, err := newConfig(v, fs, flags)
	require.NoError(t, err)

	assert.Equal(t, config.EngineMPV, cfg.Engine)
	assert.Equal(t, config.UIDesktop, cfg.UI)
	assert.Equal(t, 0.8, cfg.DefaultVolume)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)

	exists, err := afero.Exists(fs, "/home/user/.config/player/config.json")
	require.NoError(t, err)
	assert.True(t, exists, "a missing config file is created with the defaults")

	dirExists, err := afero.DirExists(fs, cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, dirExists)
}

func TestFlagDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", "/cfg/config.json"}))
	flags := Flags{Command: cmd}

	v, err := newViper(fs, flags)
	require.NoError(t, err)
	cfg, err := newConfig(v, fs, flags)
	require.NoError(t, err)

	assert.Equal(t, config.EngineBeep, cfg.Engine)
	assert.Equal(t, config.UITerminal, cfg.UI)
	assert.Equal(t, 0.5, cfg.DefaultVolume)
}

func TestStartDir(t *testing.T) {
	cfg := config.GetDefaultConfig()
	assert.Equal(t, "", startDir(cfg))

	cfg.MediaDirectories = []string{"/music", "/videos"}
	assert.Equal(t, "/music", startDir(cfg))
}
