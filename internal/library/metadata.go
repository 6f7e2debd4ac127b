package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// MetadataReader derives display names from media tags
type MetadataReader struct{}

// NewMetadataReader creates a new metadata reader
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// DisplayName returns "Artist - Title" from the file's tags, the bare title
// when there is no artist, or the file's base name when it has no tags.
func (r *MetadataReader) DisplayName(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		// Untagged files are named after the file
		return filepath.Base(filePath), nil
	}

	title := strings.TrimSpace(metadata.Title())
	artist := strings.TrimSpace(metadata.Artist())
	switch {
	case title == "":
		return filepath.Base(filePath), nil
	case artist == "":
		return title, nil
	default:
		return artist + " - " + title, nil
	}
}
