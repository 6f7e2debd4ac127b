package api

import "time"

// CommandType identifies a UI command
type CommandType int

const (
	CmdOpen CommandType = iota
	CmdPlay
	CmdPause
	CmdTogglePause
	CmdStop
	CmdSelect
	CmdNext
	CmdPrevious
	CmdSeek
	CmdVolume
)

func (t CommandType) String() string {
	switch t {
	case CmdOpen:
		return "open"
	case CmdPlay:
		return "play"
	case CmdPause:
		return "pause"
	case CmdTogglePause:
		return "toggle_pause"
	case CmdStop:
		return "stop"
	case CmdSelect:
		return "select"
	case CmdNext:
		return "next"
	case CmdPrevious:
		return "previous"
	case CmdSeek:
		return "seek"
	case CmdVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// Command is issued by a UI and executed by the coordinator loop
type Command struct {
	Type     CommandType
	Refs     []MediaReference
	Index    int
	Position time.Duration
	Volume   float64
}

// Commander accepts commands from any goroutine
type Commander interface {
	Submit(cmd Command)
}

// NotificationType identifies a state-change notification
type NotificationType int

const (
	NotifyPlaylistChanged NotificationType = iota
	NotifyPlaybackStateChanged
	NotifyPositionUpdated
	NotifyErrorRaised
	NotifyVolumeChanged
)

// AllNotificationTypes lists every notification type.
var AllNotificationTypes = []NotificationType{
	NotifyPlaylistChanged,
	NotifyPlaybackStateChanged,
	NotifyPositionUpdated,
	NotifyErrorRaised,
	NotifyVolumeChanged,
}

func (t NotificationType) String() string {
	switch t {
	case NotifyPlaylistChanged:
		return "PlaylistChanged"
	case NotifyPlaybackStateChanged:
		return "PlaybackStateChanged"
	case NotifyPositionUpdated:
		return "PositionUpdated"
	case NotifyErrorRaised:
		return "ErrorRaised"
	case NotifyVolumeChanged:
		return "VolumeChanged"
	default:
		return "Unknown"
	}
}

// Notification is published by the coordinator for the presentation layer.
// Only the fields relevant to Type are set.
type Notification struct {
	Type     NotificationType
	Entries  []PlaylistEntry
	Cursor   int
	State    PlaybackState
	Position PositionInfo
	Volume   float64
	Message  string
}
