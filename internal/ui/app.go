// Package ui is the terminal front end. It only submits commands and renders
// coordinator notifications.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/internal/config"
	"github.com/jscyril/golang_media_player/internal/ui/components"
	"github.com/jscyril/golang_media_player/internal/ui/views"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	volumeStep = 0.1
	seekStep   = 5 * time.Second
)

// ViewType represents the current active view
type ViewType int

const (
	ViewPlayer ViewType = iota
	ViewPlaylist
)

// Expander turns selected files and folders into playlist references
type Expander interface {
	Expand(ctx context.Context, paths []string) ([]api.MediaReference, error)
}

// Options wire the model to the rest of the application
type Options struct {
	Commander     api.Commander
	Notifications <-chan api.Notification
	Expander      Expander
	Fs            afero.Fs
	Keys          config.KeyMap
	Extensions    []string
	StartDir      string
	Volume        float64
	Logger        *zap.Logger
}

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	// Current view
	activeView ViewType
	browsing   bool

	// Views
	playerView   views.PlayerView
	playlistView views.PlaylistView
	fileBrowser  components.FileBrowser
	help         help.Model
	keys         keyMap

	commander     api.Commander
	notifications <-chan api.Notification
	expander      Expander
	logger        *zap.Logger

	// Last notified state
	entries  []api.PlaylistEntry
	cursor   int
	state    api.PlaybackState
	position api.PositionInfo
	volume   float64
	errMsg   string

	ctx context.Context

	// Styles
	tabStyle       lipgloss.Style
	activeTabStyle lipgloss.Style
	errorStyle     lipgloss.Style
}

// NotificationMsg carries a coordinator notification into the update loop
type NotificationMsg api.Notification

// busClosedMsg is sent when the notification stream ends
type busClosedMsg struct{}

// openedMsg carries the result of expanding browser selections
type openedMsg struct {
	refs []api.MediaReference
	err  error
}

// NewModel creates a new application model
func NewModel(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := Model{
		width:         80,
		height:        24,
		activeView:    ViewPlaylist,
		keys:          newKeyMap(opts.Keys),
		help:          help.New(),
		commander:     opts.Commander,
		notifications: opts.Notifications,
		expander:      opts.Expander,
		logger:        logger,
		cursor:        -1,
		volume:        opts.Volume,
		ctx:           ctx,
		tabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("240")),
		activeTabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("236")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}

	m.playerView = views.NewPlayerView(m.width, 9)
	m.playerView.Volume = opts.Volume
	m.playlistView = views.NewPlaylistView(m.width, m.height-12)
	m.fileBrowser = components.NewFileBrowser(opts.Fs, opts.StartDir, opts.Extensions, m.width, m.height-2)

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.listenForNotifications()
}

// listenForNotifications waits for the next coordinator notification
func (m Model) listenForNotifications() tea.Cmd {
	return func() tea.Msg {
		select {
		case n, ok := <-m.notifications:
			if !ok {
				return busClosedMsg{}
			}
			return NotificationMsg(n)
		case <-m.ctx.Done():
			return busClosedMsg{}
		}
	}
}

// expand resolves paths off the update loop
func (m Model) expand(paths []string) tea.Cmd {
	return func() tea.Msg {
		refs, err := m.expander.Expand(m.ctx, paths)
		return openedMsg{refs: refs, err: err}
	}
}

func (m Model) submit(cmd api.Command) {
	m.logger.Debug("Submitting command", zap.Stringer("command", cmd.Type))
	m.commander.Submit(cmd)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()

	case NotificationMsg:
		m.apply(api.Notification(msg))
		return m, m.listenForNotifications()

	case busClosedMsg:
		return m, tea.Quit

	case openedMsg:
		if msg.err != nil {
			m.logger.Warn("Some selections could not be opened", zap.Error(msg.err))
			m.errMsg = msg.err.Error()
		}
		if len(msg.refs) > 0 {
			m.submit(api.Command{Type: api.CmdOpen, Refs: msg.refs})
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// apply records a notification and refreshes the views
func (m *Model) apply(n api.Notification) {
	switch n.Type {
	case api.NotifyPlaylistChanged:
		m.entries, m.cursor = n.Entries, n.Cursor
		m.playlistView.SetEntries(n.Entries, n.Cursor)
		m.playerView.Name = ""
		if n.Cursor >= 0 && n.Cursor < len(n.Entries) {
			m.playerView.Name = n.Entries[n.Cursor].Ref.Name
		}

	case api.NotifyPlaybackStateChanged:
		m.state = n.State
		m.playerView.State = n.State
		if n.State == api.StateLoading || n.State == api.StatePlaying {
			m.errMsg = ""
		}

	case api.NotifyPositionUpdated:
		m.position = n.Position
		m.playerView.SetPosition(n.Position.Position, n.Position.Duration)

	case api.NotifyErrorRaised:
		m.errMsg = n.Message

	case api.NotifyVolumeChanged:
		m.volume = n.Volume
		m.playerView.Volume = n.Volume
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.forceQuit) {
		return m, tea.Quit
	}

	// The file browser takes every other key while open
	if m.browsing {
		switch msg.String() {
		case "esc":
			m.browsing = false
		case "enter":
			if paths := m.fileBrowser.EnterSelected(); len(paths) > 0 {
				m.browsing = false
				return m, m.expand(paths)
			}
		default:
			m.fileBrowser, _ = m.fileBrowser.Update(msg)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.playPause):
		m.submit(api.Command{Type: api.CmdTogglePause})

	case key.Matches(msg, m.keys.stop):
		m.submit(api.Command{Type: api.CmdStop})

	case key.Matches(msg, m.keys.next):
		m.submit(api.Command{Type: api.CmdNext})

	case key.Matches(msg, m.keys.previous):
		m.submit(api.Command{Type: api.CmdPrevious})

	case key.Matches(msg, m.keys.volumeUp):
		m.submit(api.Command{Type: api.CmdVolume, Volume: lo.Clamp(m.volume+volumeStep, 0, 1)})

	case key.Matches(msg, m.keys.volumeDown):
		m.submit(api.Command{Type: api.CmdVolume, Volume: lo.Clamp(m.volume-volumeStep, 0, 1)})

	case key.Matches(msg, m.keys.seekForward):
		m.submit(api.Command{Type: api.CmdSeek, Position: m.position.Position + seekStep})

	case key.Matches(msg, m.keys.seekBack):
		m.submit(api.Command{Type: api.CmdSeek, Position: max(m.position.Position-seekStep, 0)})

	case key.Matches(msg, m.keys.open):
		m.browsing = true
		m.fileBrowser.Navigate(m.fileBrowser.CurrentPath)

	case key.Matches(msg, m.keys.playlist):
		m.activeView = (m.activeView + 1) % 2

	case key.Matches(msg, m.keys.showHelp):
		m.help.ShowAll = !m.help.ShowAll

	case msg.String() == "1":
		m.activeView = ViewPlayer
	case msg.String() == "2":
		m.activeView = ViewPlaylist

	case key.Matches(msg, m.keys.play) && m.activeView == ViewPlaylist:
		if i := m.playlistView.SelectedIndex(); i >= 0 {
			m.submit(api.Command{Type: api.CmdSelect, Index: i})
		}

	default:
		if m.activeView == ViewPlaylist {
			m.playlistView, _ = m.playlistView.Update(msg)
		}
	}

	return m, nil
}

// updateViewSizes updates view dimensions
func (m *Model) updateViewSizes() {
	m.playerView.SetWidth(m.width)
	m.playlistView.SetSize(m.width, m.height-12)
	m.fileBrowser.Width = m.width
	m.fileBrowser.Height = m.height - 2
	m.help.Width = m.width
}

// View renders the UI
func (m Model) View() string {
	if m.browsing {
		return m.fileBrowser.View()
	}

	var sb string

	sb += m.renderTabs()
	sb += "\n"

	sb += m.playerView.View()
	if m.activeView == ViewPlaylist {
		sb += "\n"
		sb += m.playlistView.View()
	}

	if m.errMsg != "" {
		sb += "\n" + m.errorStyle.Render(m.errMsg)
	}

	sb += "\n" + m.help.View(m.keys)
	return sb
}

// renderTabs renders the tab bar
func (m Model) renderTabs() string {
	tabs := []string{"[1] Player", "[2] Playlist"}

	var rendered []string
	for i, tab := range tabs {
		if ViewType(i) == m.activeView {
			rendered = append(rendered, m.activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, m.tabStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Run starts the bubbletea program and blocks until it exits
func Run(ctx context.Context, opts Options) error {
	model := NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		// Cancelled from outside, not a failure
		return nil
	}
	return err
}
