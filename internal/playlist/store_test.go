package playlist

import (
	"errors"
	"testing"

	"github.com/jscyril/golang_media_player/api"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
)

func refs(locators ...string) []api.MediaReference {
	out := make([]api.MediaReference, len(locators))
	for i, l := range locators {
		out[i] = api.NewMediaReference(l)
	}
	return out
}

func TestNewStore(t *testing.T) {
	s := NewStore()

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if s.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", s.Cursor())
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() should report no entry on an empty playlist")
	}
}

func TestStore_Replace(t *testing.T) {
	s := NewStore()
	s.Replace(refs("/a.mp3", "/b.mp3", "/a.mp3"))

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if s.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", s.Cursor())
	}

	entries := s.Entries()
	want := []string{"/a.mp3", "/b.mp3", "/a.mp3"}
	for i, e := range entries {
		if e.Index != i {
			t.Errorf("entries[%d].Index = %d, want %d", i, e.Index, i)
		}
		if e.Ref.Locator != want[i] {
			t.Errorf("entries[%d].Locator = %q, want %q", i, e.Ref.Locator, want[i])
		}
	}

	s.Replace(nil)
	if s.Len() != 0 || s.Cursor() != -1 {
		t.Errorf("after empty Replace: Len() = %d, Cursor() = %d, want 0, -1", s.Len(), s.Cursor())
	}
}

func TestStore_ReplaceCopiesInput(t *testing.T) {
	input := refs("/a.mp3", "/b.mp3")
	s := NewStore()
	s.Replace(input)

	input[0] = api.NewMediaReference("/changed.mp3")

	if ref, _ := s.At(0); ref.Locator != "/a.mp3" {
		t.Errorf("At(0) = %q, want /a.mp3", ref.Locator)
	}
}

func TestStore_Select(t *testing.T) {
	s := NewStore()

	if err := s.Select(0); !errors.Is(err, playerrors.ErrEmptyPlaylist) {
		t.Errorf("Select on empty = %v, want ErrEmptyPlaylist", err)
	}

	s.Replace(refs("/a.mp3", "/b.mp3", "/c.mp3"))

	tests := []struct {
		name    string
		index   int
		wantErr error
		cursor  int
	}{
		{"last", 2, nil, 2},
		{"first", 0, nil, 0},
		{"too large", 5, playerrors.ErrIndexOutOfRange, 0},
		{"negative", -1, playerrors.ErrIndexOutOfRange, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Select(tt.index)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Select(%d) error = %v, want %v", tt.index, err, tt.wantErr)
			}
			if s.Cursor() != tt.cursor {
				t.Errorf("Cursor() = %d, want %d", s.Cursor(), tt.cursor)
			}
		})
	}
}

func TestStore_Neighbours(t *testing.T) {
	s := NewStore()
	s.Replace(refs("/a.mp3", "/b.mp3"))

	if !s.HasNext() {
		t.Error("HasNext() should be true at index 0")
	}
	if s.HasPrevious() {
		t.Error("HasPrevious() should be false at index 0")
	}

	_ = s.Select(1)
	if s.HasNext() {
		t.Error("HasNext() should be false on the last entry")
	}
	if !s.HasPrevious() {
		t.Error("HasPrevious() should be true at index 1")
	}

	if cur, ok := s.Current(); !ok || cur.Locator != "/b.mp3" {
		t.Errorf("Current() = %v, %v, want /b.mp3, true", cur, ok)
	}
}
