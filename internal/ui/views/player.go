package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/internal/format"
	"github.com/jscyril/golang_media_player/internal/ui/components"
)

// PlayerView displays the current entry and playback state
type PlayerView struct {
	Width       int
	Height      int
	Name        string
	State       api.PlaybackState
	Volume      float64
	ProgressBar components.ProgressBar

	// Styles
	TitleStyle  lipgloss.Style
	StatusStyle lipgloss.Style
	MutedStyle  lipgloss.Style
	BorderStyle lipgloss.Style
}

// NewPlayerView creates a new player view
func NewPlayerView(width, height int) PlayerView {
	return PlayerView{
		Width:       width,
		Height:      height,
		ProgressBar: components.NewProgressBar(width - 8),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		MutedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetPosition updates the progress bar
func (v *PlayerView) SetPosition(pos, dur time.Duration) {
	v.ProgressBar.SetProgress(pos, dur)
}

// SetWidth resizes the view and its progress bar
func (v *PlayerView) SetWidth(width int) {
	v.Width = width
	v.ProgressBar.Width = width - 8
}

// Update handles messages
func (v PlayerView) Update(msg tea.Msg) (PlayerView, tea.Cmd) {
	return v, nil
}

// View renders the player view
func (v PlayerView) View() string {
	var sb strings.Builder

	if v.Name == "" {
		sb.WriteString(v.TitleStyle.Render("♪ Nothing loaded"))
		sb.WriteString("\n\n")
		sb.WriteString(v.MutedStyle.Render("Open files or a folder to start playing"))
	} else {
		sb.WriteString(v.StatusStyle.Render(stateIcon(v.State) + " "))
		sb.WriteString(v.TitleStyle.Render(v.Name))
		sb.WriteString(v.MutedStyle.Render("  " + v.State.String()))
		sb.WriteString("\n\n")
		sb.WriteString(v.ProgressBar.View())
	}

	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Volume: %s %d%%", renderVolumeBar(v.Volume), format.Volume(v.Volume)))

	return v.BorderStyle.Width(max(v.Width-4, 0)).Render(sb.String())
}

func stateIcon(s api.PlaybackState) string {
	switch s {
	case api.StatePlaying:
		return "▶"
	case api.StatePaused:
		return "⏸"
	case api.StateLoading:
		return "…"
	case api.StateError:
		return "✖"
	default:
		return "⏹"
	}
}

// renderVolumeBar renders a volume bar
func renderVolumeBar(volume float64) string {
	filled := format.Volume(volume) / 10
	empty := 10 - filled

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return filledStyle.Render(strings.Repeat("●", filled)) + emptyStyle.Render(strings.Repeat("○", empty))
}
