package api

import (
	"path/filepath"
	"strings"
	"time"
)

// MediaReference locates a playable item and carries the name shown for it
type MediaReference struct {
	Locator string `json:"locator"`
	Name    string `json:"name"`
}

// NewMediaReference builds a reference whose display name is the base name of the locator
func NewMediaReference(locator string) MediaReference {
	name := filepath.Base(strings.TrimRight(locator, "/"))
	if name == "." || name == "/" || name == "" {
		name = locator
	}
	return MediaReference{Locator: locator, Name: name}
}

// WithName returns a copy of the reference with a different display name
func (r MediaReference) WithName(name string) MediaReference {
	if name == "" {
		return r
	}
	r.Name = name
	return r
}

// PlaylistEntry is a reference at a given playlist position
type PlaylistEntry struct {
	Index int            `json:"index"`
	Ref   MediaReference `json:"ref"`
}

// PlaybackState is owned by the coordinator
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StateLoading
	StatePlaying
	StatePaused
	StateStopped
	StateError
)

// String returns the state name.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive reports whether something is playing or paused.
func (s PlaybackState) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// PositionInfo holds the position and duration of the current entry.
// Duration stays zero until the engine reports it.
type PositionInfo struct {
	Position time.Duration `json:"position"`
	Duration time.Duration `json:"duration"`
}
