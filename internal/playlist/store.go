package playlist

import (
	"sync"

	"github.com/jscyril/golang_media_player/api"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
	"github.com/samber/lo"
)

// Store is the ordered playlist plus the cursor to the active entry.
// The cursor is -1 when nothing is selected, otherwise it is a valid index.
type Store struct {
	refs   []api.MediaReference
	cursor int
	mu     sync.RWMutex
}

// NewStore creates an empty playlist
func NewStore() *Store {
	return &Store{
		refs:   make([]api.MediaReference, 0),
		cursor: -1,
	}
}

// Replace clears the playlist and repopulates it in the given order.
// The cursor moves to 0, or -1 when refs is empty.
func (s *Store) Replace(refs []api.MediaReference) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs = make([]api.MediaReference, len(refs))
	copy(s.refs, refs)
	s.cursor = -1
	if len(s.refs) > 0 {
		s.cursor = 0
	}
}

// Select moves the cursor to index
func (s *Store) Select(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.refs) == 0 {
		return playerrors.ErrEmptyPlaylist
	}
	if index < 0 || index >= len(s.refs) {
		return playerrors.ErrIndexOutOfRange
	}
	s.cursor = index
	return nil
}

// Current returns the reference under the cursor
func (s *Store) Current() (api.MediaReference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cursor < 0 || s.cursor >= len(s.refs) {
		return api.MediaReference{}, false
	}
	return s.refs[s.cursor], true
}

// At returns the reference at index
func (s *Store) At(index int) (api.MediaReference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.refs) {
		return api.MediaReference{}, false
	}
	return s.refs[index], true
}

// Cursor returns the current index, -1 if none
func (s *Store) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refs)
}

// IsEmpty returns true if the playlist has no entries
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// HasNext returns true if there's an entry after the cursor. There is no wraparound.
func (s *Store) HasNext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor >= 0 && s.cursor+1 < len(s.refs)
}

// HasPrevious returns true if there's an entry before the cursor
func (s *Store) HasPrevious() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor > 0 && s.cursor < len(s.refs)
}

// Entries returns a copy of the playlist as indexed entries
func (s *Store) Entries() []api.PlaylistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Map(s.refs, func(ref api.MediaReference, i int) api.PlaylistEntry {
		return api.PlaylistEntry{Index: i, Ref: ref}
	})
}
