package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/internal/audio"
	"github.com/jscyril/golang_media_player/internal/config"
	"github.com/jscyril/golang_media_player/internal/coordinator"
	"github.com/jscyril/golang_media_player/internal/library"
	"github.com/jscyril/golang_media_player/internal/logging"
	"github.com/jscyril/golang_media_player/internal/mpris"
	"github.com/jscyril/golang_media_player/internal/mpv"
	"github.com/jscyril/golang_media_player/pkg/events"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Flags carries the command line into the application graph
type Flags struct {
	Command *cobra.Command
	Paths   []string
}

// flagKeys maps command line flags onto config keys
var flagKeys = map[string]string{
	"engine": "engine",
	"ui":     "ui",
	"volume": "default_volume",
}

// AppOptions is the application graph. The caller supplies Flags.
var AppOptions = fx.Options(
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Provide(
		newFs,
		newViper,
		newConfig,
		newLogger,
		events.NewBus,
		newBackend,
		newCoordinator,
		newLoop,
		newCommander,
		newScanner,
		newMPRIS,
	),

	fx.Invoke(registerHooks),
)

func newFs() afero.Fs {
	return afero.NewOsFs()
}

// newViper creates the config reader with the command line flags bound
func newViper(fs afero.Fs, flags Flags) (*viper.Viper, error) {
	v := config.New(fs)
	if flags.Command == nil {
		return v, nil
	}
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Command.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return v, nil
}

func newConfig(v *viper.Viper, fs afero.Fs, flags Flags) (*config.Config, error) {
	path := config.GetConfigPath()
	if flags.Command != nil {
		if p, _ := flags.Command.Flags().GetString("config"); p != "" {
			path = p
		}
	}

	cfg, err := config.Load(v, fs, path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := fs.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return cfg, nil
}

// newLogger creates the application logger from the config
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log)
}

// newBackend picks the playback engine named in the config
func newBackend(cfg *config.Config, logger *zap.Logger) (api.Backend, error) {
	switch cfg.Engine {
	case config.EngineBeep:
		return audio.NewEngine(audio.Speaker(), cfg.TickInterval, logger.Named("beep")), nil
	case config.EngineMPV:
		return mpv.NewEngine(mpv.Options{
			Path:   cfg.MPV.Path,
			Socket: cfg.MPV.Socket,
			Video:  cfg.MPV.Video,
		}, logger.Named("mpv")), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

func newCoordinator(backend api.Backend, bus *events.Bus, logger *zap.Logger) *coordinator.Coordinator {
	return coordinator.New(backend, bus, logger.Named("coordinator"))
}

func newLoop(c *coordinator.Coordinator, cfg *config.Config, logger *zap.Logger) *coordinator.Loop {
	return coordinator.NewLoop(c, cfg.TickInterval, logger.Named("loop"))
}

func newCommander(loop *coordinator.Loop) api.Commander {
	return loop
}

// newScanner only accepts what the chosen engine can play when expanding folders
func newScanner(cfg *config.Config, logger *zap.Logger) *library.Scanner {
	formats := cfg.Extensions
	if cfg.Engine == config.EngineBeep {
		formats = audio.SupportedFormats()
	}
	return library.NewScanner(runtime.NumCPU(), formats, logger.Named("library"))
}

func newMPRIS(commands api.Commander, logger *zap.Logger) *mpris.Server {
	return mpris.NewServer(commands, logger.Named("mpris"))
}

type hookParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Flags     Flags
	Logger    *zap.Logger
	Backend   api.Backend
	Loop      *coordinator.Loop
	Bus       *events.Bus
	Scanner   *library.Scanner
	MPRIS     *mpris.Server
}

// registerHooks sets up application lifecycle hooks
func registerHooks(p hookParams) {
	runCtx, cancel := context.WithCancel(context.Background())
	var mprisNotifications <-chan api.Notification

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Backend.Start(runCtx); err != nil {
				return fmt.Errorf("start %s engine: %w", p.Config.Engine, err)
			}

			if p.Config.MPRIS {
				if err := p.MPRIS.Start(); err != nil {
					// Media keys are optional
					p.Logger.Warn("MPRIS unavailable", zap.Error(err))
				} else {
					mprisNotifications = p.Bus.Subscribe(mpris.Mirrored...)
					go p.MPRIS.Run(runCtx, mprisNotifications)
				}
			}

			go p.Loop.Run(runCtx)
			p.Loop.Submit(api.Command{Type: api.CmdVolume, Volume: p.Config.DefaultVolume})

			paths := p.Flags.Paths
			if len(paths) == 0 {
				paths = p.Config.MediaDirectories
			}
			if len(paths) > 0 {
				go openInitial(runCtx, p.Scanner, p.Loop, paths, p.Logger)
			}

			p.Logger.Info("Media player started", zap.String("engine", p.Config.Engine))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Shutting down")
			cancel()

			select {
			case <-p.Loop.Done():
			case <-ctx.Done():
				return ctx.Err()
			}

			if mprisNotifications != nil {
				p.Bus.Unsubscribe(mprisNotifications)
			}
			err := errors.Join(p.Backend.Close(), p.MPRIS.Close())
			p.Bus.Close()
			_ = p.Logger.Sync()
			return err
		},
	})
}

// openInitial expands the command line paths and opens them as the playlist
func openInitial(ctx context.Context, scanner *library.Scanner, loop *coordinator.Loop, paths []string, logger *zap.Logger) {
	refs, err := scanner.Expand(ctx, paths)
	if err != nil {
		logger.Warn("Some paths could not be opened", zap.Error(err))
	}
	if len(refs) > 0 {
		loop.Submit(api.Command{Type: api.CmdOpen, Refs: refs})
	}
}
