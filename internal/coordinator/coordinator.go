// Package coordinator keeps the playlist, the cursor and the media engine's
// playback state consistent. A Coordinator is not safe for concurrent use;
// Loop serialises commands, engine events and the refresh timer onto one goroutine.
package coordinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/internal/playlist"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
	"go.uber.org/zap"
)

// Notifier receives state-change notifications
type Notifier interface {
	Publish(n api.Notification)
}

// Coordinator is the playback state machine
type Coordinator struct {
	engine   api.MediaEngine
	playlist *playlist.Store
	notifier Notifier
	logger   *zap.Logger
	newID    func() uuid.UUID

	state    api.PlaybackState
	position api.PositionInfo
	volume   float64

	// load is the ticket of the load currently owning the engine; uuid.Nil when
	// nothing is loaded or the last load was abandoned after an error.
	load uuid.UUID
}

// New creates a coordinator in the Idle state with an empty playlist
func New(engine api.MediaEngine, notifier Notifier, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		engine:   engine,
		playlist: playlist.NewStore(),
		notifier: notifier,
		logger:   logger,
		newID:    uuid.New,
		state:    api.StateIdle,
		volume:   -1,
	}
}

// State returns the current playback state
func (c *Coordinator) State() api.PlaybackState {
	return c.state
}

// Cursor returns the playlist cursor, -1 if nothing is selected
func (c *Coordinator) Cursor() int {
	return c.playlist.Cursor()
}

// Position returns the position info of the current entry
func (c *Coordinator) Position() api.PositionInfo {
	return c.position
}

// Entries returns a copy of the playlist
func (c *Coordinator) Entries() []api.PlaylistEntry {
	return c.playlist.Entries()
}

// Volume returns the last volume forwarded to the engine, -1 if never set
func (c *Coordinator) Volume() float64 {
	return c.volume
}

// Execute runs a command from the bus
func (c *Coordinator) Execute(cmd api.Command) error {
	switch cmd.Type {
	case api.CmdOpen:
		c.Open(cmd.Refs)
		return nil
	case api.CmdPlay:
		return c.Play()
	case api.CmdPause:
		return c.Pause()
	case api.CmdTogglePause:
		return c.TogglePause()
	case api.CmdStop:
		return c.Stop()
	case api.CmdSelect:
		return c.SelectEntry(cmd.Index)
	case api.CmdNext:
		return c.Next()
	case api.CmdPrevious:
		return c.Previous()
	case api.CmdSeek:
		return c.Seek(cmd.Position)
	case api.CmdVolume:
		return c.SetVolume(cmd.Volume)
	default:
		return fmt.Errorf("unknown command %d", cmd.Type)
	}
}

// Open replaces the playlist and starts playing its first entry
func (c *Coordinator) Open(refs []api.MediaReference) {
	c.logger.Info("Selected files", zap.Int("count", len(refs)))
	c.playlist.Replace(refs)
	for i, ref := range refs {
		c.logger.Debug("Added to playlist", zap.Int("index", i), zap.String("locator", ref.Locator))
	}
	c.publishPlaylist()

	if c.playlist.IsEmpty() {
		if c.load != uuid.Nil {
			c.engine.Stop()
		}
		c.load = uuid.Nil
		c.position = api.PositionInfo{}
		c.publishPosition()
		c.setState(api.StateIdle)
		return
	}
	c.loadCursor()
}

// Play resumes or restarts playback. From Error, or when nothing is
// loaded, the entry under the cursor is loaded again.
func (c *Coordinator) Play() error {
	if c.playlist.IsEmpty() {
		c.logger.Debug("Play ignored, playlist is empty")
		return playerrors.ErrEmptyPlaylist
	}

	if c.state == api.StateError || c.load == uuid.Nil {
		if c.playlist.Cursor() < 0 {
			_ = c.playlist.Select(0)
			c.publishPlaylist()
		}
		c.loadCursor()
		return nil
	}

	c.engine.Play()
	c.setState(api.StatePlaying)
	return nil
}

// Pause pauses playback; only effective while Playing
func (c *Coordinator) Pause() error {
	if c.state != api.StatePlaying {
		c.logger.Debug("Pause ignored", zap.Stringer("state", c.state))
		return nil
	}
	c.engine.Pause()
	c.setState(api.StatePaused)
	return nil
}

// TogglePause pauses while Playing and plays otherwise
func (c *Coordinator) TogglePause() error {
	if c.state == api.StatePlaying {
		return c.Pause()
	}
	return c.Play()
}

// Stop stops playback; only effective while Playing or Paused
func (c *Coordinator) Stop() error {
	if !c.state.IsActive() {
		c.logger.Debug("Stop ignored", zap.Stringer("state", c.state))
		return nil
	}
	c.engine.Stop()
	c.setState(api.StateStopped)
	return nil
}

// SelectEntry moves the cursor to index and plays that entry
func (c *Coordinator) SelectEntry(index int) error {
	if err := c.playlist.Select(index); err != nil {
		if errors.Is(err, playerrors.ErrIndexOutOfRange) {
			c.logger.Warn("Rejected playlist selection",
				zap.Int("index", index),
				zap.Int("length", c.playlist.Len()))
		} else {
			c.logger.Debug("Selection ignored", zap.Error(err))
		}
		return err
	}
	c.publishPlaylist()
	c.loadCursor()
	return nil
}

// Next selects the entry after the cursor. There is no wraparound.
func (c *Coordinator) Next() error {
	if c.playlist.IsEmpty() {
		return playerrors.ErrEmptyPlaylist
	}
	if !c.playlist.HasNext() {
		c.logger.Debug("Already at the last entry")
		return playerrors.ErrIndexOutOfRange
	}
	return c.SelectEntry(c.playlist.Cursor() + 1)
}

// Previous selects the entry before the cursor
func (c *Coordinator) Previous() error {
	if c.playlist.IsEmpty() {
		return playerrors.ErrEmptyPlaylist
	}
	if !c.playlist.HasPrevious() {
		c.logger.Debug("Already at the first entry")
		return playerrors.ErrIndexOutOfRange
	}
	return c.SelectEntry(c.playlist.Cursor() - 1)
}

// Seek asks the engine to jump to position; the engine clamps it
func (c *Coordinator) Seek(position time.Duration) error {
	if c.playlist.IsEmpty() {
		c.logger.Debug("Seek ignored, playlist is empty")
		return playerrors.ErrEmptyPlaylist
	}
	c.engine.Seek(position)
	return nil
}

// SetVolume forwards level to the engine in every state
func (c *Coordinator) SetVolume(level float64) error {
	// NaN fails both comparisons
	if !(level >= 0 && level <= 1) {
		c.logger.Warn("Rejected volume", zap.Float64("level", level))
		return playerrors.ErrInvalidVolume
	}
	c.engine.SetVolume(level)
	c.volume = level
	c.notifier.Publish(api.Notification{Type: api.NotifyVolumeChanged, Volume: level})
	return nil
}

// HandleEvent applies an engine event. Events carrying a ticket other than
// the current load belong to a superseded load and are dropped.
func (c *Coordinator) HandleEvent(ev api.EngineEvent) {
	if !c.isCurrent(ev) {
		c.logger.Debug("Dropped stale engine event",
			zap.Stringer("event", ev.Type),
			zap.Stringer("load", ev.Load))
		return
	}

	switch ev.Type {
	case api.EventPositionChanged:
		c.position.Position = ev.Position
		c.publishPosition()

	case api.EventDurationChanged:
		c.position.Duration = ev.Duration
		c.publishPosition()

	case api.EventStatusChanged:
		c.logger.Debug("Media status changed", zap.Stringer("status", ev.Status))
		c.handleStatus(ev.Status)

	case api.EventErrorOccurred:
		c.fail(ev.Kind, ev.Err)
	}
}

// Refresh re-reads the engine position while playing. It only ever touches
// PositionInfo and publishes nothing when the position did not move.
func (c *Coordinator) Refresh() {
	if c.state != api.StatePlaying || c.load == uuid.Nil {
		return
	}

	p := c.engine.Progress()
	if p.Load != c.load {
		return
	}

	changed := false
	if p.Position != c.position.Position {
		c.position.Position = p.Position
		changed = true
	}
	if p.Duration > 0 && p.Duration != c.position.Duration {
		c.position.Duration = p.Duration
		changed = true
	}
	if changed {
		c.publishPosition()
	}
}

func (c *Coordinator) isCurrent(ev api.EngineEvent) bool {
	if ev.Type == api.EventErrorOccurred && ev.Load == uuid.Nil {
		return true
	}
	return c.load != uuid.Nil && ev.Load == c.load
}

func (c *Coordinator) handleStatus(status api.MediaStatus) {
	switch status {
	case api.MediaLoaded:
		if c.state == api.StateLoading {
			c.engine.Play()
			c.setState(api.StatePlaying)
		}

	case api.MediaEndOfMedia:
		c.advance()

	case api.MediaInvalid:
		ref, _ := c.playlist.Current()
		c.fail(api.FormatError, playerrors.NewPlayerError("load", ref.Locator, playerrors.ErrInvalidFormat))
	}
}

// advance moves to the next entry after end of media, or stops on the last one
func (c *Coordinator) advance() {
	cursor := c.playlist.Cursor()
	if cursor < 0 {
		return
	}
	if c.playlist.HasNext() {
		_ = c.SelectEntry(cursor + 1)
		return
	}
	c.logger.Info("Playlist exhausted", zap.Int("cursor", cursor))
	c.setState(api.StateStopped)
}

// fail abandons the current load; the playlist and cursor stay as they are
func (c *Coordinator) fail(kind api.ErrorKind, err error) {
	if err == nil {
		err = playerrors.ErrPlaybackFailed
	}
	c.logger.Error("Media player error",
		zap.Stringer("kind", kind),
		zap.Error(err))

	c.load = uuid.Nil
	c.setState(api.StateError)
	c.notifier.Publish(api.Notification{
		Type:    api.NotifyErrorRaised,
		Message: "Failed to play media: " + err.Error(),
	})
}

func (c *Coordinator) loadCursor() {
	ref, ok := c.playlist.Current()
	if !ok {
		return
	}

	c.load = c.newID()
	c.position = api.PositionInfo{}
	c.logger.Info("Setting source",
		zap.Int("index", c.playlist.Cursor()),
		zap.String("locator", ref.Locator))

	c.engine.Load(c.load, ref)
	c.setState(api.StateLoading)
	c.publishPosition()
}

func (c *Coordinator) setState(s api.PlaybackState) {
	if c.state == s {
		return
	}
	c.logger.Debug("Playback state changed",
		zap.Stringer("from", c.state),
		zap.Stringer("to", s))
	c.state = s
	c.notifier.Publish(api.Notification{Type: api.NotifyPlaybackStateChanged, State: s})
}

func (c *Coordinator) publishPlaylist() {
	c.notifier.Publish(api.Notification{
		Type:    api.NotifyPlaylistChanged,
		Entries: c.playlist.Entries(),
		Cursor:  c.playlist.Cursor(),
	})
}

func (c *Coordinator) publishPosition() {
	c.notifier.Publish(api.Notification{Type: api.NotifyPositionUpdated, Position: c.position})
}
