// Package gui is the desktop front end built with fyne. Like the terminal
// UI it submits commands and renders coordinator notifications.
package gui

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/internal/format"
	"go.uber.org/zap"
)

const (
	appID        = "io.github.jscyril.golang_media_player"
	windowTitle  = "Media Player"
	windowWidth  = 800
	windowHeight = 600
)

// Expander turns chosen files and folders into playlist references
type Expander interface {
	Expand(ctx context.Context, paths []string) ([]api.MediaReference, error)
}

// Options wire the window to the rest of the application
type Options struct {
	Commander     api.Commander
	Notifications <-chan api.Notification
	Expander      Expander
	Extensions    []string
	Volume        float64
	Theme         string
	Logger        *zap.Logger
}

// Window is the player window. Its fields are only touched on the fyne
// main goroutine.
type Window struct {
	window    fyne.Window
	commander api.Commander
	expander  Expander
	logger    *zap.Logger
	ctx       context.Context

	entries []api.PlaylistEntry
	cursor  int
	// syncing is set while widgets are updated from a notification so their
	// callbacks do not echo the change back as a command
	syncing bool

	nameLabel  *widget.Label
	stateLabel *widget.Label
	timeLabel  *widget.Label
	playlist   *widget.List
	position   *widget.Slider
	volume     *widget.Slider
	extensions []string
}

// New builds the player window of app a
func New(ctx context.Context, a fyne.App, opts Options) *Window {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Window{
		window:     a.NewWindow(windowTitle),
		commander:  opts.Commander,
		expander:   opts.Expander,
		logger:     logger,
		ctx:        ctx,
		cursor:     -1,
		extensions: opts.Extensions,
	}
	w.setupUI(opts.Volume)
	w.window.Resize(fyne.NewSize(windowWidth, windowHeight))
	return w
}

func (w *Window) setupUI(volume float64) {
	w.nameLabel = widget.NewLabel("Nothing loaded")
	w.nameLabel.TextStyle = fyne.TextStyle{Bold: true}
	w.nameLabel.Truncation = fyne.TextTruncateEllipsis
	w.stateLabel = widget.NewLabel(api.StateIdle.String())
	w.timeLabel = widget.NewLabel(format.Progress(0, 0))

	openFile := widget.NewButtonWithIcon("Open File", theme.FileIcon(), w.onOpenFile)
	openFolder := widget.NewButtonWithIcon("Open Folder", theme.FolderOpenIcon(), w.onOpenFolder)

	play := widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), func() { w.submit(api.Command{Type: api.CmdPlay}) })
	pause := widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), func() { w.submit(api.Command{Type: api.CmdPause}) })
	stop := widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() { w.submit(api.Command{Type: api.CmdStop}) })
	prev := widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), func() { w.submit(api.Command{Type: api.CmdPrevious}) })
	next := widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), func() { w.submit(api.Command{Type: api.CmdNext}) })

	w.volume = widget.NewSlider(0, 100)
	w.volume.Step = 1
	w.volume.SetValue(float64(format.Volume(volume)))
	w.volume.OnChanged = func(v float64) {
		if w.syncing {
			return
		}
		w.submit(api.Command{Type: api.CmdVolume, Volume: format.VolumeLevel(int(v))})
	}

	// Disabled until a duration is known
	w.position = widget.NewSlider(0, 1)
	w.position.Step = 0.1
	w.position.Disable()
	w.position.OnChangeEnded = func(v float64) {
		if w.syncing {
			return
		}
		w.submit(api.Command{Type: api.CmdSeek, Position: time.Duration(v * float64(time.Second))})
	}

	w.playlist = widget.NewList(
		func() int {
			return len(w.entries)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			entry := w.entries[id]
			if entry.Index == w.cursor {
				label.SetText("▶ " + entry.Ref.Name)
				return
			}
			label.SetText("   " + entry.Ref.Name)
		},
	)
	w.playlist.OnSelected = func(id widget.ListItemID) {
		if w.syncing {
			return
		}
		w.submit(api.Command{Type: api.CmdSelect, Index: id})
	}

	header := container.NewBorder(nil, nil, nil, w.stateLabel, w.nameLabel)
	openRow := container.NewHBox(openFile, openFolder)
	controls := container.NewBorder(nil, nil,
		container.NewHBox(prev, play, pause, stop, next, widget.NewLabel("Volume")),
		nil, w.volume)
	positionRow := container.NewBorder(nil, nil, nil, w.timeLabel, w.position)

	top := container.NewVBox(header, openRow, controls, positionRow, widget.NewLabel("Playlist"))
	w.window.SetContent(container.NewBorder(top, nil, nil, nil, w.playlist))
}

func (w *Window) submit(cmd api.Command) {
	w.logger.Debug("Submitting command", zap.Stringer("command", cmd.Type))
	w.commander.Submit(cmd)
}

// Listen applies notifications on the fyne main goroutine until the stream
// ends or ctx is cancelled
func (w *Window) Listen(ctx context.Context, notifications <-chan api.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			fyne.Do(func() { w.apply(n) })
		}
	}
}

// apply renders a notification. It must run on the fyne main goroutine.
func (w *Window) apply(n api.Notification) {
	w.syncing = true
	defer func() { w.syncing = false }()

	switch n.Type {
	case api.NotifyPlaylistChanged:
		w.entries, w.cursor = n.Entries, n.Cursor
		w.playlist.Refresh()
		if n.Cursor >= 0 && n.Cursor < len(n.Entries) {
			w.playlist.Select(n.Cursor)
			w.nameLabel.SetText(n.Entries[n.Cursor].Ref.Name)
		} else {
			w.playlist.UnselectAll()
			w.nameLabel.SetText("Nothing loaded")
		}

	case api.NotifyPlaybackStateChanged:
		w.stateLabel.SetText(n.State.String())

	case api.NotifyPositionUpdated:
		limit, value := format.Slider(n.Position.Position, n.Position.Duration)
		if limit == 0 {
			w.position.Max = 1
			w.position.SetValue(0)
			w.position.Disable()
		} else {
			w.position.Max = limit.Seconds()
			w.position.SetValue(value.Seconds())
			w.position.Enable()
		}
		w.timeLabel.SetText(format.Progress(n.Position.Position, n.Position.Duration))

	case api.NotifyVolumeChanged:
		w.volume.SetValue(float64(format.Volume(n.Volume)))

	case api.NotifyErrorRaised:
		// Clicking the failed entry again has to fire OnSelected
		w.playlist.UnselectAll()
		dialog.ShowInformation("Media Error", n.Message, w.window)
	}
}

func (w *Window) onOpenFile() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		if reader == nil {
			// Cancelled; the playlist stays as it is
			return
		}
		path := reader.URI().Path()
		reader.Close()
		w.open([]string{path})
	}, w.window)
	if len(w.extensions) > 0 {
		d.SetFilter(storage.NewExtensionFileFilter(w.extensions))
	}
	d.Show()
}

func (w *Window) onOpenFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		if uri == nil {
			return
		}
		w.open([]string{uri.Path()})
	}, w.window)
}

// open expands paths off the main goroutine and submits the result
func (w *Window) open(paths []string) {
	go func() {
		refs, err := w.expander.Expand(w.ctx, paths)
		if err != nil {
			w.logger.Warn("Some selections could not be opened", zap.Error(err))
			fyne.Do(func() { dialog.ShowError(err, w.window) })
		}
		if len(refs) > 0 {
			w.submit(api.Command{Type: api.CmdOpen, Refs: refs})
		}
	}()
}

// Run shows the window and blocks until it is closed or ctx is cancelled
func Run(ctx context.Context, opts Options) error {
	a := app.NewWithID(appID)
	a.Settings().SetTheme(newTheme(opts.Theme))

	w := New(ctx, a, opts)
	go w.Listen(ctx, opts.Notifications)

	closed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fyne.Do(a.Quit)
		case <-closed:
		}
	}()

	w.window.ShowAndRun()
	close(closed)
	return nil
}
