package components

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// FileEntry represents a file or directory in the browser
type FileEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// FileBrowser is a component for navigating the filesystem and marking
// files and folders to open
type FileBrowser struct {
	Width       int
	Height      int
	CurrentPath string
	Entries     []FileEntry
	Selected    int
	Offset      int
	Extensions  []string // Supported file extensions
	Marked      []string // Paths in the order they were marked
	Err         error

	fs afero.Fs

	// Styles
	DirStyle      lipgloss.Style
	FileStyle     lipgloss.Style
	SelectedStyle lipgloss.Style
	MarkedStyle   lipgloss.Style
	PathStyle     lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewFileBrowser creates a new file browser over fs starting at the given path
func NewFileBrowser(fs afero.Fs, startPath string, extensions []string, width, height int) FileBrowser {
	fb := FileBrowser{
		Width:      width,
		Height:     height,
		Extensions: extensions,
		fs:         fs,
		DirStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true),
		FileStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")),
		SelectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("255")).
			Bold(true),
		MarkedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		PathStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}

	// If startPath is empty, use home directory
	if startPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			startPath = "/"
		} else {
			startPath = home
		}
	}

	fb.Navigate(startPath)
	return fb
}

// Navigate changes to the specified directory. Marks survive navigation.
func (fb *FileBrowser) Navigate(path string) {
	fb.CurrentPath = path
	fb.Selected = 0
	fb.Offset = 0
	fb.Err = nil

	infos, err := afero.ReadDir(fb.fs, path)
	if err != nil {
		fb.Err = err
		fb.Entries = nil
		return
	}

	fb.Entries = make([]FileEntry, 0, len(infos)+1)

	// Add parent directory entry (unless at root)
	if parent := filepath.Dir(path); parent != path {
		fb.Entries = append(fb.Entries, FileEntry{Name: "..", Path: parent, IsDir: true})
	}

	// afero.ReadDir sorts by name
	var dirs, files []FileEntry
	for _, info := range infos {
		// Skip hidden files
		if strings.HasPrefix(info.Name(), ".") {
			continue
		}

		entry := FileEntry{
			Name:  info.Name(),
			Path:  filepath.Join(path, info.Name()),
			IsDir: info.IsDir(),
		}
		switch {
		case entry.IsDir:
			dirs = append(dirs, entry)
		case lo.Contains(fb.Extensions, strings.ToLower(filepath.Ext(entry.Name))):
			files = append(files, entry)
		}
	}

	fb.Entries = append(fb.Entries, dirs...)
	fb.Entries = append(fb.Entries, files...)
}

// Update handles input messages
func (fb FileBrowser) Update(msg tea.Msg) (FileBrowser, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if fb.Selected > 0 {
				fb.Selected--
				fb.ensureVisible()
			}
		case "down", "j":
			if fb.Selected < len(fb.Entries)-1 {
				fb.Selected++
				fb.ensureVisible()
			}
		case "pgup":
			fb.Selected = max(fb.Selected-fb.visibleHeight(), 0)
			fb.ensureVisible()
		case "pgdown":
			fb.Selected = max(min(fb.Selected+fb.visibleHeight(), len(fb.Entries)-1), 0)
			fb.ensureVisible()
		case "home":
			fb.Selected = 0
			fb.ensureVisible()
		case "end":
			fb.Selected = max(len(fb.Entries)-1, 0)
			fb.ensureVisible()
		case " ":
			fb.ToggleMark()
		case "backspace":
			// Go to parent directory
			if parent := filepath.Dir(fb.CurrentPath); parent != fb.CurrentPath {
				fb.Navigate(parent)
			}
		case "~":
			// Go to home directory
			if home, err := os.UserHomeDir(); err == nil {
				fb.Navigate(home)
			}
		}
	}
	return fb, nil
}

// SelectedEntry returns the currently selected entry, or nil if none
func (fb *FileBrowser) SelectedEntry() *FileEntry {
	if fb.Selected >= 0 && fb.Selected < len(fb.Entries) {
		return &fb.Entries[fb.Selected]
	}
	return nil
}

// ToggleMark marks or unmarks the selected file or folder
func (fb *FileBrowser) ToggleMark() {
	entry := fb.SelectedEntry()
	if entry == nil || entry.Name == ".." {
		return
	}
	if i := slices.Index(fb.Marked, entry.Path); i >= 0 {
		fb.Marked = slices.Delete(fb.Marked, i, i+1)
		return
	}
	fb.Marked = append(fb.Marked, entry.Path)
}

// EnterSelected handles Enter. With marks it returns the marked paths and
// clears them; otherwise a folder is entered and a file is returned alone.
func (fb *FileBrowser) EnterSelected() []string {
	if len(fb.Marked) > 0 {
		paths := fb.Marked
		fb.Marked = nil
		return paths
	}

	entry := fb.SelectedEntry()
	if entry == nil {
		return nil
	}
	if entry.IsDir {
		fb.Navigate(entry.Path)
		return nil
	}
	return []string{entry.Path}
}

// visibleHeight returns the number of visible items
func (fb *FileBrowser) visibleHeight() int {
	return max(fb.Height-8, 1) // border, path, counter, help
}

// ensureVisible ensures the selected item is visible
func (fb *FileBrowser) ensureVisible() {
	visible := fb.visibleHeight()
	if fb.Selected < fb.Offset {
		fb.Offset = fb.Selected
	} else if fb.Selected >= fb.Offset+visible {
		fb.Offset = fb.Selected - visible + 1
	}
}

// View renders the file browser
func (fb FileBrowser) View() string {
	var sb strings.Builder

	sb.WriteString(fb.PathStyle.Render("📁 " + fb.CurrentPath))
	sb.WriteString("\n\n")

	if fb.Err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		sb.WriteString(errorStyle.Render("Error: " + fb.Err.Error()))
		sb.WriteString("\n")
	}

	visible := fb.visibleHeight()
	end := min(fb.Offset+visible, len(fb.Entries))

	for i := fb.Offset; i < end; i++ {
		entry := fb.Entries[i]

		icon := "🎵 "
		if entry.IsDir {
			icon = "📂 "
		}
		mark := "  "
		marked := lo.Contains(fb.Marked, entry.Path)
		if marked {
			mark = "✓ "
		}
		line := truncate(mark+icon+entry.Name, fb.Width-10)

		switch {
		case i == fb.Selected:
			sb.WriteString(fb.SelectedStyle.Render(line))
		case marked:
			sb.WriteString(fb.MarkedStyle.Render(line))
		case entry.IsDir:
			sb.WriteString(fb.DirStyle.Render(line))
		default:
			sb.WriteString(fb.FileStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	for i := end - fb.Offset; i < visible; i++ {
		sb.WriteString("\n")
	}

	files := lo.CountBy(fb.Entries, func(e FileEntry) bool { return !e.IsDir })
	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sb.WriteString(countStyle.Render(fmt.Sprintf("%s\nFiles: %d  Marked: %d",
		strings.Repeat("─", 20), files, len(fb.Marked))))

	sb.WriteString("\n\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sb.WriteString(helpStyle.Render("[Space] Mark  [Enter] Open  [Backspace] Up  [~] Home  [Esc] Cancel"))

	return fb.BorderStyle.Width(max(fb.Width-4, 0)).Render(sb.String())
}
