package coordinator

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/internal/mocks"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"
)

type loadCall struct {
	id  uuid.UUID
	ref api.MediaReference
}

// fakeEngine records requests and lets tests push events
type fakeEngine struct {
	mu       sync.Mutex
	loads    []loadCall
	plays    int
	pauses   int
	stops    int
	seeks    []time.Duration
	volumes  []float64
	progress api.Progress
	events   chan api.EngineEvent
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan api.EngineEvent, 16)}
}

func (f *fakeEngine) Load(id uuid.UUID, ref api.MediaReference) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, loadCall{id, ref})
}

func (f *fakeEngine) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
}

func (f *fakeEngine) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeEngine) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeEngine) Seek(position time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, position)
}

func (f *fakeEngine) SetVolume(level float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = append(f.volumes, level)
}

func (f *fakeEngine) Progress() api.Progress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress
}

func (f *fakeEngine) Events() <-chan api.EngineEvent {
	return f.events
}

func (f *fakeEngine) lastLoad() loadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.loads) == 0 {
		return loadCall{}
	}
	return f.loads[len(f.loads)-1]
}

func (f *fakeEngine) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

// recorder collects published notifications
type recorder struct {
	mu  sync.Mutex
	got []api.Notification
}

func (r *recorder) Publish(n api.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) ofType(t api.NotificationType) []api.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []api.Notification
	for _, n := range r.got {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = nil
}

func refs(locators ...string) []api.MediaReference {
	out := make([]api.MediaReference, len(locators))
	for i, l := range locators {
		out[i] = api.NewMediaReference(l)
	}
	return out
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeEngine, *recorder) {
	t.Helper()
	engine := newFakeEngine()
	rec := &recorder{}
	return New(engine, rec, zaptest.NewLogger(t)), engine, rec
}

// loaded reports the current load as ready
func loaded(c *Coordinator, engine *fakeEngine) {
	c.HandleEvent(api.EngineEvent{
		Type:   api.EventStatusChanged,
		Load:   engine.lastLoad().id,
		Status: api.MediaLoaded,
	})
}

func TestCoordinator_Initial(t *testing.T) {
	c, _, _ := newTestCoordinator(t)

	assert.Equal(t, api.StateIdle, c.State())
	assert.Equal(t, -1, c.Cursor())
	assert.Empty(t, c.Entries())
	assert.Equal(t, api.PositionInfo{}, c.Position())
}

func TestCoordinator_OpenStartsFirstEntry(t *testing.T) {
	c, engine, rec := newTestCoordinator(t)

	c.Open(refs("/music/a.mp3", "/music/b.mp3", "/music/c.mp3"))

	require.Equal(t, 1, engine.loadCount())
	assert.Equal(t, "/music/a.mp3", engine.lastLoad().ref.Locator)
	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, api.StateLoading, c.State())
	assert.Len(t, c.Entries(), 3)

	playlists := rec.ofType(api.NotifyPlaylistChanged)
	require.Len(t, playlists, 1)
	assert.Equal(t, 0, playlists[0].Cursor)
	assert.Len(t, playlists[0].Entries, 3)

	loaded(c, engine)

	assert.Equal(t, 1, engine.plays)
	assert.Equal(t, api.StatePlaying, c.State())

	states := rec.ofType(api.NotifyPlaybackStateChanged)
	require.Len(t, states, 2)
	assert.Equal(t, api.StateLoading, states[0].State)
	assert.Equal(t, api.StatePlaying, states[1].State)
}

func TestCoordinator_OpenEmptyClears(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)

	c.Open(refs("/a.mp3"))
	loaded(c, engine)
	c.Open(nil)

	assert.Equal(t, api.StateIdle, c.State())
	assert.Equal(t, -1, c.Cursor())
	assert.Equal(t, 1, engine.stops)
	assert.Equal(t, 1, engine.loadCount())
}

func TestCoordinator_OpenWithDuplicates(t *testing.T) {
	c, _, _ := newTestCoordinator(t)

	c.Open(refs("/a.mp3", "/a.mp3"))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].Ref, entries[1].Ref)
}

func TestCoordinator_SelectEntry(t *testing.T) {
	c, engine, rec := newTestCoordinator(t)
	c.Open(refs("/a.mp3", "/b.mp3", "/c.mp3"))
	loaded(c, engine)
	rec.reset()

	require.NoError(t, c.SelectEntry(2))

	assert.Equal(t, 2, c.Cursor())
	assert.Equal(t, "/c.mp3", engine.lastLoad().ref.Locator)
	assert.Equal(t, api.StateLoading, c.State())

	playlists := rec.ofType(api.NotifyPlaylistChanged)
	require.Len(t, playlists, 1)
	assert.Equal(t, 2, playlists[0].Cursor)
}

func TestCoordinator_SelectEntryRejected(t *testing.T) {
	tests := []struct {
		name    string
		open    []api.MediaReference
		index   int
		wantErr error
	}{
		{"empty playlist", nil, 0, playerrors.ErrEmptyPlaylist},
		{"past the end", refs("/a.mp3", "/b.mp3"), 2, playerrors.ErrIndexOutOfRange},
		{"negative", refs("/a.mp3"), -1, playerrors.ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, engine, _ := newTestCoordinator(t)
			c.Open(tt.open)
			cursor, loads := c.Cursor(), engine.loadCount()

			err := c.SelectEntry(tt.index)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, cursor, c.Cursor())
			assert.Equal(t, loads, engine.loadCount())
		})
	}
}

func TestCoordinator_EndOfMediaAdvances(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)
	c.Open(refs("/a.mp3", "/b.mp3"))
	loaded(c, engine)

	c.HandleEvent(api.EngineEvent{
		Type:   api.EventStatusChanged,
		Load:   engine.lastLoad().id,
		Status: api.MediaEndOfMedia,
	})

	assert.Equal(t, 1, c.Cursor())
	assert.Equal(t, "/b.mp3", engine.lastLoad().ref.Locator)
	assert.Equal(t, api.StateLoading, c.State())

	loaded(c, engine)
	assert.Equal(t, api.StatePlaying, c.State())

	c.HandleEvent(api.EngineEvent{
		Type:   api.EventStatusChanged,
		Load:   engine.lastLoad().id,
		Status: api.MediaEndOfMedia,
	})

	assert.Equal(t, api.StateStopped, c.State())
	assert.Equal(t, 1, c.Cursor())
	assert.Equal(t, 2, engine.loadCount())
}

func TestCoordinator_StaleEventsDropped(t *testing.T) {
	c, engine, rec := newTestCoordinator(t)
	c.Open(refs("/a.mp3", "/b.mp3", "/c.mp3"))
	first := engine.lastLoad().id
	loaded(c, engine)

	require.NoError(t, c.SelectEntry(2))
	rec.reset()

	// The first entry finishing after the user moved on must not advance
	c.HandleEvent(api.EngineEvent{Type: api.EventStatusChanged, Load: first, Status: api.MediaEndOfMedia})
	c.HandleEvent(api.EngineEvent{Type: api.EventPositionChanged, Load: first, Position: time.Minute})
	c.HandleEvent(api.EngineEvent{Type: api.EventErrorOccurred, Load: first, Kind: api.ResourceError, Err: errors.New("gone")})

	assert.Equal(t, 2, c.Cursor())
	assert.Equal(t, api.StateLoading, c.State())
	assert.Equal(t, time.Duration(0), c.Position().Position)
	assert.Empty(t, rec.ofType(api.NotifyErrorRaised))
	assert.Equal(t, 2, engine.loadCount())
}

func TestCoordinator_ErrorKeepsPlaylist(t *testing.T) {
	c, engine, rec := newTestCoordinator(t)
	c.Open(refs("/a.mp3", "/missing.mp3"))
	require.NoError(t, c.SelectEntry(1))

	c.HandleEvent(api.EngineEvent{
		Type: api.EventErrorOccurred,
		Load: engine.lastLoad().id,
		Kind: api.ResourceError,
		Err:  errors.New("no such file"),
	})

	assert.Equal(t, api.StateError, c.State())
	assert.Equal(t, 1, c.Cursor())
	assert.Len(t, c.Entries(), 2)

	raised := rec.ofType(api.NotifyErrorRaised)
	require.Len(t, raised, 1)
	assert.Equal(t, "Failed to play media: no such file", raised[0].Message)

	// A late Loaded for the abandoned load changes nothing
	c.HandleEvent(api.EngineEvent{Type: api.EventStatusChanged, Load: engine.lastLoad().id, Status: api.MediaLoaded})
	assert.Equal(t, api.StateError, c.State())
}

func TestCoordinator_InvalidMediaIsFormatError(t *testing.T) {
	c, engine, rec := newTestCoordinator(t)
	c.Open(refs("/notes.txt"))

	c.HandleEvent(api.EngineEvent{
		Type:   api.EventStatusChanged,
		Load:   engine.lastLoad().id,
		Status: api.MediaInvalid,
	})

	assert.Equal(t, api.StateError, c.State())
	raised := rec.ofType(api.NotifyErrorRaised)
	require.Len(t, raised, 1)
	assert.Contains(t, raised[0].Message, "Failed to play media: ")
	assert.Contains(t, raised[0].Message, "/notes.txt")
}

func TestCoordinator_EngineWideError(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)
	c.Open(refs("/a.mp3"))
	loaded(c, engine)

	c.HandleEvent(api.EngineEvent{Type: api.EventErrorOccurred, Kind: api.EngineError, Err: errors.New("mpv exited")})

	assert.Equal(t, api.StateError, c.State())
}

func TestCoordinator_PlayFromErrorReloads(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)
	c.Open(refs("/a.mp3", "/b.mp3"))
	require.NoError(t, c.SelectEntry(1))
	c.HandleEvent(api.EngineEvent{Type: api.EventErrorOccurred, Load: engine.lastLoad().id, Err: errors.New("boom")})
	failed := engine.lastLoad().id

	require.NoError(t, c.Play())

	assert.Equal(t, 3, engine.loadCount())
	assert.Equal(t, "/b.mp3", engine.lastLoad().ref.Locator)
	assert.NotEqual(t, failed, engine.lastLoad().id)
	assert.Equal(t, api.StateLoading, c.State())
}

func TestCoordinator_PlayEmpty(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)

	assert.ErrorIs(t, c.Play(), playerrors.ErrEmptyPlaylist)
	assert.Equal(t, api.StateIdle, c.State())
	assert.Zero(t, engine.plays)
}

func TestCoordinator_PauseResumeStop(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)

	// Pause and Stop are no-ops before anything plays
	require.NoError(t, c.Pause())
	require.NoError(t, c.Stop())
	assert.Zero(t, engine.pauses)
	assert.Zero(t, engine.stops)
	assert.Equal(t, api.StateIdle, c.State())

	c.Open(refs("/a.mp3"))
	loaded(c, engine)

	require.NoError(t, c.Pause())
	assert.Equal(t, api.StatePaused, c.State())
	assert.Equal(t, 1, engine.pauses)

	require.NoError(t, c.Play())
	assert.Equal(t, api.StatePlaying, c.State())
	assert.Equal(t, 2, engine.plays)
	assert.Equal(t, 1, engine.loadCount())

	require.NoError(t, c.Stop())
	assert.Equal(t, api.StateStopped, c.State())
	assert.Equal(t, 1, engine.stops)

	// Play after Stop restarts the loaded entry without reloading
	require.NoError(t, c.Play())
	assert.Equal(t, api.StatePlaying, c.State())
	assert.Equal(t, 1, engine.loadCount())
}

func TestCoordinator_TogglePause(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)
	c.Open(refs("/a.mp3"))
	loaded(c, engine)

	require.NoError(t, c.TogglePause())
	assert.Equal(t, api.StatePaused, c.State())

	require.NoError(t, c.TogglePause())
	assert.Equal(t, api.StatePlaying, c.State())
}

func TestCoordinator_NextPrevious(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)

	assert.ErrorIs(t, c.Next(), playerrors.ErrEmptyPlaylist)
	assert.ErrorIs(t, c.Previous(), playerrors.ErrEmptyPlaylist)

	c.Open(refs("/a.mp3", "/b.mp3"))

	assert.ErrorIs(t, c.Previous(), playerrors.ErrIndexOutOfRange)
	assert.Equal(t, 0, c.Cursor())

	require.NoError(t, c.Next())
	assert.Equal(t, 1, c.Cursor())
	assert.Equal(t, "/b.mp3", engine.lastLoad().ref.Locator)

	assert.ErrorIs(t, c.Next(), playerrors.ErrIndexOutOfRange)
	assert.Equal(t, 1, c.Cursor())

	require.NoError(t, c.Previous())
	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, 3, engine.loadCount())
}

func TestCoordinator_SetVolume(t *testing.T) {
	tests := []struct {
		name    string
		level   float64
		wantErr error
	}{
		{"silent", 0, nil},
		{"half", 0.5, nil},
		{"full", 1, nil},
		{"negative", -0.1, playerrors.ErrInvalidVolume},
		{"too loud", 1.5, playerrors.ErrInvalidVolume},
		{"not a number", math.NaN(), playerrors.ErrInvalidVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, engine, rec := newTestCoordinator(t)

			err := c.SetVolume(tt.level)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, engine.volumes)
				assert.Empty(t, rec.ofType(api.NotifyVolumeChanged))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []float64{tt.level}, engine.volumes)
			assert.Equal(t, tt.level, c.Volume())
			// Volume does not depend on the playback state
			assert.Equal(t, api.StateIdle, c.State())
		})
	}
}

func TestCoordinator_SetVolumeInErrorState(t *testing.T) {
	c, engine, rec := newTestCoordinator(t)
	c.Open(refs("/a.mp3"))
	c.HandleEvent(api.EngineEvent{
		Type: api.EventErrorOccurred,
		Load: engine.lastLoad().id,
		Kind: api.ResourceError,
		Err:  playerrors.ErrMediaNotFound,
	})
	require.Equal(t, api.StateError, c.State())
	rec.reset()

	require.NoError(t, c.SetVolume(0.3))

	assert.Equal(t, []float64{0.3}, engine.volumes)
	got := rec.ofType(api.NotifyVolumeChanged)
	require.Len(t, got, 1)
	assert.Equal(t, 0.3, got[0].Volume)
	assert.Equal(t, api.StateError, c.State())
}

func TestCoordinator_Seek(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)

	assert.ErrorIs(t, c.Seek(time.Second), playerrors.ErrEmptyPlaylist)
	assert.Empty(t, engine.seeks)

	c.Open(refs("/a.mp3"))
	loaded(c, engine)

	require.NoError(t, c.Seek(42*time.Second))
	assert.Equal(t, []time.Duration{42 * time.Second}, engine.seeks)
	assert.Equal(t, api.StatePlaying, c.State())
}

func TestCoordinator_PositionEvents(t *testing.T) {
	c, engine, rec := newTestCoordinator(t)
	c.Open(refs("/a.mp3"))
	loaded(c, engine)
	rec.reset()

	id := engine.lastLoad().id
	c.HandleEvent(api.EngineEvent{Type: api.EventDurationChanged, Load: id, Duration: 125 * time.Second})
	c.HandleEvent(api.EngineEvent{Type: api.EventPositionChanged, Load: id, Position: 30 * time.Second})

	assert.Equal(t, api.PositionInfo{Position: 30 * time.Second, Duration: 125 * time.Second}, c.Position())
	assert.Len(t, rec.ofType(api.NotifyPositionUpdated), 2)
}

func TestCoordinator_Refresh(t *testing.T) {
	c, engine, rec := newTestCoordinator(t)

	// Nothing happens while idle
	c.Refresh()
	assert.Empty(t, rec.ofType(api.NotifyPositionUpdated))

	c.Open(refs("/a.mp3"))
	id := engine.lastLoad().id

	// Loading is not Playing
	engine.progress = api.Progress{Load: id, Position: time.Second, Duration: time.Minute}
	rec.reset()
	c.Refresh()
	assert.Empty(t, rec.ofType(api.NotifyPositionUpdated))

	loaded(c, engine)
	rec.reset()

	c.Refresh()
	require.Len(t, rec.ofType(api.NotifyPositionUpdated), 1)
	assert.Equal(t, api.PositionInfo{Position: time.Second, Duration: time.Minute}, c.Position())

	// Unchanged position publishes nothing
	c.Refresh()
	assert.Len(t, rec.ofType(api.NotifyPositionUpdated), 1)

	// A snapshot from another load is ignored
	engine.progress = api.Progress{Load: uuid.New(), Position: 10 * time.Second}
	c.Refresh()
	assert.Equal(t, time.Second, c.Position().Position)

	// Refresh never changes the state or the cursor
	assert.Equal(t, api.StatePlaying, c.State())
	assert.Equal(t, 0, c.Cursor())
}

func TestCoordinator_Execute(t *testing.T) {
	c, engine, _ := newTestCoordinator(t)

	require.NoError(t, c.Execute(api.Command{Type: api.CmdOpen, Refs: refs("/a.mp3", "/b.mp3")}))
	require.NoError(t, c.Execute(api.Command{Type: api.CmdSelect, Index: 1}))
	require.NoError(t, c.Execute(api.Command{Type: api.CmdVolume, Volume: 0.25}))
	require.NoError(t, c.Execute(api.Command{Type: api.CmdSeek, Position: time.Second}))

	assert.Equal(t, 1, c.Cursor())
	assert.Equal(t, []float64{0.25}, engine.volumes)
	assert.Equal(t, []time.Duration{time.Second}, engine.seeks)

	assert.Error(t, c.Execute(api.Command{Type: api.CommandType(99)}))
}

func TestCoordinator_LoadsExactlyOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mocks.NewMockMediaEngine(ctrl)
	c := New(engine, &recorder{}, zaptest.NewLogger(t))

	a := api.NewMediaReference("/a.mp3")
	b := api.NewMediaReference("/b.mp3")

	gomock.InOrder(
		engine.EXPECT().Load(gomock.Any(), a).Times(1),
		engine.EXPECT().Load(gomock.Any(), b).Times(1),
	)
	engine.EXPECT().Play().Times(0)

	c.Open([]api.MediaReference{a, b})
	require.NoError(t, c.SelectEntry(1))
	assert.ErrorIs(t, c.SelectEntry(7), playerrors.ErrIndexOutOfRange)
}

func TestCoordinator_LoadedWhileNotLoading(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mocks.NewMockMediaEngine(ctrl)
	c := New(engine, &recorder{}, zaptest.NewLogger(t))

	var ticket uuid.UUID
	engine.EXPECT().Load(gomock.Any(), gomock.Any()).Do(func(id uuid.UUID, _ api.MediaReference) {
		ticket = id
	})
	engine.EXPECT().Play().Times(1)
	engine.EXPECT().Pause().Times(1)

	c.Open(refs("/a.mp3"))
	c.HandleEvent(api.EngineEvent{Type: api.EventStatusChanged, Load: ticket, Status: api.MediaLoaded})
	require.NoError(t, c.Pause())

	// A second Loaded (e.g. after a seek) must not resume a paused item
	c.HandleEvent(api.EngineEvent{Type: api.EventStatusChanged, Load: ticket, Status: api.MediaLoaded})
	assert.Equal(t, api.StatePaused, c.State())
}
