package errors

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/jscyril/golang_media_player/api"
)

// Sentinel errors for common conditions
var (
	ErrMediaNotFound     = errors.New("media not found")
	ErrInvalidFormat     = errors.New("unsupported media format")
	ErrAccessDenied      = errors.New("permission denied")
	ErrPlaybackFailed    = errors.New("playback failed")
	ErrEmptyPlaylist     = errors.New("playlist is empty")
	ErrIndexOutOfRange   = errors.New("playlist index out of range")
	ErrInvalidVolume     = errors.New("volume must be between 0.0 and 1.0")
	ErrEngineUnavailable = errors.New("media engine unavailable")
)

// PlayerError wraps errors with additional context
type PlayerError struct {
	Op      string // Operation that failed
	Locator string // Media locator if applicable
	Err     error  // Underlying error
}

func (e *PlayerError) Error() string {
	if e.Locator != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Locator, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PlayerError) Unwrap() error {
	return e.Err
}

// NewPlayerError creates a new PlayerError
func NewPlayerError(op, locator string, err error) *PlayerError {
	return &PlayerError{Op: op, Locator: locator, Err: err}
}

// ScanError represents an error while expanding a path into media files
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan error at %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Normalize maps filesystem errors onto the player sentinels so callers can
// match them with errors.Is regardless of the backend that produced them.
func Normalize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrMediaNotFound), errors.Is(err, ErrAccessDenied), errors.Is(err, ErrInvalidFormat):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrMediaNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	default:
		return err
	}
}

// KindOf classifies an error for an ErrorOccurred engine event
func KindOf(err error) api.ErrorKind {
	err = Normalize(err)
	switch {
	case errors.Is(err, ErrMediaNotFound):
		return api.ResourceError
	case errors.Is(err, ErrInvalidFormat):
		return api.FormatError
	case errors.Is(err, ErrAccessDenied):
		return api.AccessDeniedError
	default:
		return api.EngineError
	}
}
