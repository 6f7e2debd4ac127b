package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/internal/config"
	"github.com/jscyril/golang_media_player/internal/gui"
	"github.com/jscyril/golang_media_player/internal/library"
	"github.com/jscyril/golang_media_player/internal/ui"
	"github.com/jscyril/golang_media_player/pkg/events"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player [files or folders...]",
		Short: "Play audio and video files from a playlist",
		Long: "Plays the given files and folders in order. Folders expand to the\n" +
			"supported files they contain, sorted by name.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, Flags{Command: cmd, Paths: args})
		},
	}

	cmd.Flags().String("config", "", "Path to the config file")
	cmd.Flags().StringP("engine", "e", config.EngineBeep, "Playback engine (beep or mpv)")
	cmd.Flags().String("ui", config.UITerminal, "Front end (tui or gui)")
	cmd.Flags().Float64P("volume", "v", 0.5, "Initial volume between 0 and 1")
	return cmd
}

func run(ctx context.Context, flags Flags) error {
	var (
		cfg      *config.Config
		logger   *zap.Logger
		bus      *events.Bus
		commands api.Commander
		scanner  *library.Scanner
		fs       afero.Fs
	)

	app := fx.New(
		AppOptions,
		fx.Supply(flags),
		fx.Populate(&cfg, &logger, &bus, &commands, &scanner, &fs),
	)
	if err := app.Err(); err != nil {
		return err
	}

	// Subscribe before the loop starts so the initial notifications arrive
	notifications := bus.SubscribeAll()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()
	// The front end is done before the graph stops
	defer bus.Unsubscribe(notifications)

	logger.Info("Starting front end", zap.String("ui", cfg.UI))

	var err error
	switch cfg.UI {
	case config.UIDesktop:
		err = gui.Run(ctx, gui.Options{
			Commander:     commands,
			Notifications: notifications,
			Expander:      scanner,
			Extensions:    scanner.SupportedFormats(),
			Volume:        cfg.DefaultVolume,
			Theme:         cfg.Theme,
			Logger:        logger.Named("gui"),
		})
	default:
		err = ui.Run(ctx, ui.Options{
			Commander:     commands,
			Notifications: notifications,
			Expander:      scanner,
			Fs:            fs,
			Keys:          cfg.KeyBindings,
			Extensions:    scanner.SupportedFormats(),
			StartDir:      startDir(cfg),
			Volume:        cfg.DefaultVolume,
			Logger:        logger.Named("tui"),
		})
	}
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func startDir(cfg *config.Config) string {
	if len(cfg.MediaDirectories) > 0 {
		return cfg.MediaDirectories[0]
	}
	return ""
}
