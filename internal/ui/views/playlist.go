package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/internal/ui/components"
)

// PlaylistView displays the playlist with the playing entry marked
type PlaylistView struct {
	Width       int
	Height      int
	EntryList   components.EntryList
	BorderStyle lipgloss.Style
	HelpStyle   lipgloss.Style
}

// NewPlaylistView creates a new playlist view
func NewPlaylistView(width, height int) PlaylistView {
	list := components.NewEntryList(height-8, width-6)
	list.Title = "📋 Playlist"

	return PlaylistView{
		Width:     width,
		Height:    height,
		EntryList: list,
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		HelpStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetEntries shows entries with the entry at cursor marked as playing
func (v *PlaylistView) SetEntries(entries []api.PlaylistEntry, cursor int) {
	v.EntryList.SetItems(entries, cursor)
}

// SetSize resizes the view
func (v *PlaylistView) SetSize(width, height int) {
	v.Width = width
	v.Height = height
	v.EntryList.Width = width - 6
	v.EntryList.Height = height - 8
}

// Update handles messages
func (v PlaylistView) Update(msg tea.Msg) (PlaylistView, tea.Cmd) {
	var cmd tea.Cmd
	v.EntryList, cmd = v.EntryList.Update(msg)
	return v, cmd
}

// SelectedIndex returns the playlist index of the highlighted entry, or -1
func (v *PlaylistView) SelectedIndex() int {
	return v.EntryList.SelectedIndex()
}

// View renders the playlist view
func (v PlaylistView) View() string {
	var sb strings.Builder

	sb.WriteString(v.EntryList.View())
	sb.WriteString("\n\n")
	sb.WriteString(v.HelpStyle.Render("[Enter] Play  [↑↓] Navigate"))

	return v.BorderStyle.Width(max(v.Width-4, 0)).Render(sb.String())
}
