package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jscyril/golang_media_player/api"
)

// EntryList represents a scrollable list of playlist entries
type EntryList struct {
	Items         []api.PlaylistEntry
	Selected      int
	Playing       int // playlist cursor, -1 when none
	Height        int
	Width         int
	Offset        int
	Title         string
	ShowNumbers   bool
	SelectedStyle lipgloss.Style
	PlayingStyle  lipgloss.Style
	NormalStyle   lipgloss.Style
	TitleStyle    lipgloss.Style
}

// NewEntryList creates a new entry list
func NewEntryList(height, width int) EntryList {
	return EntryList{
		Items:   make([]api.PlaylistEntry, 0),
		Playing: -1,
		Height:  height,
		Width:   width,
		SelectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		PlayingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true).
			Padding(0, 1),
		NormalStyle: lipgloss.NewStyle().
			Padding(0, 1),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
		ShowNumbers: true,
	}
}

// SetItems replaces the entries and moves the selection to the cursor
func (l *EntryList) SetItems(items []api.PlaylistEntry, cursor int) {
	l.Items = items
	l.Playing = cursor
	l.Selected = max(cursor, 0)
	l.Offset = 0
	l.ensureVisible()
}

// Update handles messages for the entry list
func (l EntryList) Update(msg tea.Msg) (EntryList, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home":
			l.Selected = 0
			l.Offset = 0
		case "end":
			if len(l.Items) > 0 {
				l.Selected = len(l.Items) - 1
				l.ensureVisible()
			}
		case "pgup":
			l.PageUp()
		case "pgdown":
			l.PageDown()
		}
	}
	return l, nil
}

// MoveUp moves selection up
func (l *EntryList) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
		l.ensureVisible()
	}
}

// MoveDown moves selection down
func (l *EntryList) MoveDown() {
	if l.Selected < len(l.Items)-1 {
		l.Selected++
		l.ensureVisible()
	}
}

// PageUp moves selection up by a page
func (l *EntryList) PageUp() {
	l.Selected = max(l.Selected-l.visibleHeight(), 0)
	l.ensureVisible()
}

// PageDown moves selection down by a page
func (l *EntryList) PageDown() {
	l.Selected = max(min(l.Selected+l.visibleHeight(), len(l.Items)-1), 0)
	l.ensureVisible()
}

func (l *EntryList) visibleHeight() int {
	return max(l.Height-2, 1) // title and counter
}

// ensureVisible ensures the selected item is visible
func (l *EntryList) ensureVisible() {
	visible := l.visibleHeight()
	if l.Selected < l.Offset {
		l.Offset = l.Selected
	} else if l.Selected >= l.Offset+visible {
		l.Offset = l.Selected - visible + 1
	}
}

// SelectedIndex returns the index of the highlighted entry, or -1 if the list is empty
func (l *EntryList) SelectedIndex() int {
	if l.Selected >= 0 && l.Selected < len(l.Items) {
		return l.Items[l.Selected].Index
	}
	return -1
}

// View renders the entry list
func (l EntryList) View() string {
	var sb strings.Builder

	if l.Title != "" {
		sb.WriteString(l.TitleStyle.Render(l.Title))
		sb.WriteString("\n")
	}

	if len(l.Items) == 0 {
		sb.WriteString(l.NormalStyle.Render("Playlist is empty, press o to open files"))
		return sb.String()
	}

	visible := l.visibleHeight()
	end := min(l.Offset+visible, len(l.Items))

	for i := l.Offset; i < end; i++ {
		entry := l.Items[i]

		marker := "  "
		if entry.Index == l.Playing {
			marker = "▶ "
		}

		var line string
		if l.ShowNumbers {
			line = fmt.Sprintf("%s%3d. %s", marker, entry.Index+1, entry.Ref.Name)
		} else {
			line = marker + entry.Ref.Name
		}
		line = truncate(line, l.Width-2)

		switch {
		case i == l.Selected:
			sb.WriteString(l.SelectedStyle.Render(line))
		case entry.Index == l.Playing:
			sb.WriteString(l.PlayingStyle.Render(line))
		default:
			sb.WriteString(l.NormalStyle.Render(line))
		}

		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(l.Items) > visible {
		sb.WriteString("\n")
		sb.WriteString(l.NormalStyle.Render(fmt.Sprintf("  [%d/%d]", l.Selected+1, len(l.Items))))
	}

	return sb.String()
}

// truncate shortens s to at most maxLen runes
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen < 4 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
