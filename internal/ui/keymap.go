package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/jscyril/golang_media_player/internal/config"
)

// keyMap holds the bindings of the main screen, built from the configured keys
type keyMap struct {
	playPause, stop,
	next, previous,
	volumeUp, volumeDown,
	seekForward, seekBack,
	open, playlist, play,
	showHelp, quit, forceQuit key.Binding
}

func newKeyMap(k config.KeyMap) keyMap {
	return keyMap{
		playPause:   key.NewBinding(key.WithKeys(k.PlayPause), key.WithHelp(keyLabel(k.PlayPause), "play/pause")),
		stop:        key.NewBinding(key.WithKeys(k.Stop), key.WithHelp(k.Stop, "stop")),
		next:        key.NewBinding(key.WithKeys(k.Next), key.WithHelp(k.Next, "next")),
		previous:    key.NewBinding(key.WithKeys(k.Previous), key.WithHelp(k.Previous, "prev")),
		volumeUp:    key.NewBinding(key.WithKeys(k.VolumeUp, "="), key.WithHelp(k.VolumeUp, "vol up")),
		volumeDown:  key.NewBinding(key.WithKeys(k.VolumeDown), key.WithHelp(k.VolumeDown, "vol down")),
		seekForward: key.NewBinding(key.WithKeys(k.SeekForward), key.WithHelp(keyLabel(k.SeekForward), "+5s")),
		seekBack:    key.NewBinding(key.WithKeys(k.SeekBack), key.WithHelp(keyLabel(k.SeekBack), "-5s")),
		open:        key.NewBinding(key.WithKeys(k.Open), key.WithHelp(k.Open, "open")),
		playlist:    key.NewBinding(key.WithKeys(k.Playlist), key.WithHelp(k.Playlist, "switch view")),
		play:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play entry")),
		showHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:        key.NewBinding(key.WithKeys(k.Quit), key.WithHelp(k.Quit, "quit")),
		forceQuit:   key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func keyLabel(k string) string {
	switch k {
	case " ":
		return "space"
	case "right":
		return "→"
	case "left":
		return "←"
	default:
		return k
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.playPause, k.stop, k.next, k.previous, k.open, k.showHelp, k.quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.playPause, k.stop, k.next, k.previous},
		{k.seekForward, k.seekBack, k.volumeUp, k.volumeDown},
		{k.open, k.playlist, k.play, k.showHelp, k.quit},
	}
}
