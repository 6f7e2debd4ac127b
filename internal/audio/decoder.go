package audio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
	"github.com/samber/lo"
)

// SupportedFormats returns the extensions the beep engine can decode
func SupportedFormats() []string {
	return []string{".mp3", ".wav", ".flac"}
}

// IsSupported checks if a file format is supported
func IsSupported(filePath string) bool {
	return lo.Contains(SupportedFormats(), strings.ToLower(filepath.Ext(filePath)))
}

// DecodeAudio decodes an audio stream based on the locator's extension.
// Every failure wraps ErrInvalidFormat.
func DecodeAudio(r io.ReadSeekCloser, locator string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(locator))

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(r)
	case ".wav":
		streamer, format, err = wav.Decode(r)
	case ".flac":
		streamer, format, err = flac.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", playerrors.ErrInvalidFormat, ext)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", playerrors.ErrInvalidFormat, err)
	}
	return streamer, format, nil
}
