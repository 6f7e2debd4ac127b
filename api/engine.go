package api

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MediaStatus is the load/playback status reported by an engine
type MediaStatus int

const (
	MediaNone MediaStatus = iota
	MediaLoading
	MediaLoaded
	MediaBuffering
	MediaEndOfMedia
	MediaInvalid
)

func (s MediaStatus) String() string {
	switch s {
	case MediaNone:
		return "NoMedia"
	case MediaLoading:
		return "Loading"
	case MediaLoaded:
		return "Loaded"
	case MediaBuffering:
		return "Buffering"
	case MediaEndOfMedia:
		return "EndOfMedia"
	case MediaInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// ErrorKind classifies engine failures
type ErrorKind int

const (
	ResourceError ErrorKind = iota
	FormatError
	AccessDeniedError
	EngineError
)

func (k ErrorKind) String() string {
	switch k {
	case ResourceError:
		return "ResourceError"
	case FormatError:
		return "FormatError"
	case AccessDeniedError:
		return "AccessDeniedError"
	default:
		return "EngineError"
	}
}

// EngineEventType identifies an engine event
type EngineEventType int

const (
	EventPositionChanged EngineEventType = iota
	EventDurationChanged
	EventStatusChanged
	EventErrorOccurred
)

func (t EngineEventType) String() string {
	switch t {
	case EventPositionChanged:
		return "PositionChanged"
	case EventDurationChanged:
		return "DurationChanged"
	case EventStatusChanged:
		return "StatusChanged"
	case EventErrorOccurred:
		return "ErrorOccurred"
	default:
		return "Unknown"
	}
}

// EngineEvent is emitted asynchronously by a MediaEngine.
// Load is the ticket passed to the Load call the event belongs to; a zero
// ticket means the event is not tied to any load.
type EngineEvent struct {
	Type     EngineEventType
	Load     uuid.UUID
	Position time.Duration
	Duration time.Duration
	Status   MediaStatus
	Kind     ErrorKind
	Err      error
}

// Progress is a point-in-time snapshot used by the refresh timer
type Progress struct {
	Load     uuid.UUID
	Position time.Duration
	Duration time.Duration
}

// MediaEngine is the capability set of a playback backend. Every call is a
// fire-and-forget request; outcomes arrive later on Events.
//
//go:generate mockgen -destination=../internal/mocks/engine_mock.go -package=mocks github.com/jscyril/golang_media_player/api MediaEngine
type MediaEngine interface {
	Load(id uuid.UUID, ref MediaReference)
	Play()
	Pause()
	Stop()
	Seek(position time.Duration)
	SetVolume(level float64)
	Progress() Progress
	Events() <-chan EngineEvent
}

// Backend is a MediaEngine with a process lifecycle
type Backend interface {
	MediaEngine
	Start(ctx context.Context) error
	Close() error
}
