// Package mpris exposes the player on the D-Bus session bus so desktop media
// keys and applets can drive it.
package mpris

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/jscyril/golang_media_player/api"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	busName     = "org.mpris.MediaPlayer2.golang_media_player"
	objectPath  = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	rootIface   = "org.mpris.MediaPlayer2"
	playerIface = "org.mpris.MediaPlayer2.Player"
	trackPrefix = "/io/github/jscyril/golang_media_player/track/"
	noTrack     = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
	identity    = "Media Player"
)

// Mirrored lists the notifications Run turns into properties
var Mirrored = []api.NotificationType{
	api.NotifyPlaylistChanged,
	api.NotifyPlaybackStateChanged,
	api.NotifyPositionUpdated,
	api.NotifyVolumeChanged,
}

// propertySetter is the part of prop.Properties the server writes through
type propertySetter interface {
	SetMust(iface, property string, v interface{})
}

// Server translates MPRIS method calls into commands and notifications into
// MPRIS properties
type Server struct {
	commander api.Commander
	logger    *zap.Logger

	conn  *dbus.Conn
	props propertySetter

	mu       sync.Mutex
	entries  []api.PlaylistEntry
	cursor   int
	position api.PositionInfo
}

// NewServer creates a server; Start connects it to the session bus
func NewServer(commander api.Commander, logger *zap.Logger) *Server {
	return &Server{
		commander: commander,
		logger:    logger,
		cursor:    -1,
	}
}

// Start claims the bus name and exports the MPRIS objects
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("session bus connection failed: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to request %s: %w", busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("bus name %s is already taken", busName)
	}

	root := &rootObject{}
	player := &playerObject{server: s}
	if err := conn.Export(root, objectPath, rootIface); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export %s: %w", rootIface, err)
	}
	if err := conn.Export(player, objectPath, playerIface); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export %s: %w", playerIface, err)
	}

	props, err := prop.Export(conn, objectPath, s.propertyMap())
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to export properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(objectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{Name: rootIface, Methods: introspect.Methods(root), Properties: props.Introspection(rootIface)},
			{Name: playerIface, Methods: introspect.Methods(player), Properties: props.Introspection(playerIface)},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.props = props
	s.mu.Unlock()

	s.logger.Info("MPRIS server started", zap.String("name", busName))
	return nil
}

// Close releases the bus connection
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.props = nil
	return err
}

// Run mirrors notifications into MPRIS properties until the stream ends or
// ctx is cancelled
func (s *Server) Run(ctx context.Context, notifications <-chan api.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			s.apply(n)
		}
	}
}

func (s *Server) propertyMap() prop.Map {
	return prop.Map{
		rootIface: {
			"CanQuit":             {Value: false, Emit: prop.EmitFalse},
			"CanRaise":            {Value: false, Emit: prop.EmitFalse},
			"HasTrackList":        {Value: false, Emit: prop.EmitFalse},
			"Identity":            {Value: identity, Emit: prop.EmitFalse},
			"SupportedUriSchemes": {Value: []string{"file"}, Emit: prop.EmitFalse},
			"SupportedMimeTypes":  {Value: []string{"audio/mpeg", "audio/flac", "audio/x-wav", "video/mp4", "video/x-matroska"}, Emit: prop.EmitFalse},
		},
		playerIface: {
			"PlaybackStatus": {Value: "Stopped", Emit: prop.EmitTrue},
			"Rate":           {Value: 1.0, Emit: prop.EmitTrue},
			"MinimumRate":    {Value: 1.0, Emit: prop.EmitTrue},
			"MaximumRate":    {Value: 1.0, Emit: prop.EmitTrue},
			"Metadata":       {Value: map[string]dbus.Variant{"mpris:trackid": dbus.MakeVariant(noTrack)}, Emit: prop.EmitTrue},
			"Volume":         {Value: 0.5, Writable: true, Emit: prop.EmitTrue, Callback: s.onVolumeSet},
			"Position":       {Value: int64(0), Emit: prop.EmitFalse},
			"CanGoNext":      {Value: false, Emit: prop.EmitTrue},
			"CanGoPrevious":  {Value: false, Emit: prop.EmitTrue},
			"CanPlay":        {Value: false, Emit: prop.EmitTrue},
			"CanPause":       {Value: true, Emit: prop.EmitTrue},
			"CanSeek":        {Value: true, Emit: prop.EmitTrue},
			"CanControl":     {Value: true, Emit: prop.EmitFalse},
		},
	}
}

func (s *Server) onVolumeSet(c *prop.Change) *dbus.Error {
	level, ok := c.Value.(float64)
	if !ok || math.IsNaN(level) || math.IsInf(level, 0) {
		return prop.ErrInvalidArg
	}
	s.commander.Submit(api.Command{Type: api.CmdVolume, Volume: lo.Clamp(level, 0, 1)})
	return nil
}

// apply updates the exported properties from a notification
func (s *Server) apply(n api.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch n.Type {
	case api.NotifyPlaylistChanged:
		s.entries, s.cursor = n.Entries, n.Cursor
		s.set(playerIface, "Metadata", s.metadata())
		s.set(playerIface, "CanGoNext", s.cursor >= 0 && s.cursor < len(s.entries)-1)
		s.set(playerIface, "CanGoPrevious", s.cursor > 0)
		s.set(playerIface, "CanPlay", len(s.entries) > 0)

	case api.NotifyPlaybackStateChanged:
		s.set(playerIface, "PlaybackStatus", playbackStatus(n.State))

	case api.NotifyPositionUpdated:
		durationChanged := n.Position.Duration != s.position.Duration
		s.position = n.Position
		s.set(playerIface, "Position", n.Position.Position.Microseconds())
		if durationChanged {
			s.set(playerIface, "Metadata", s.metadata())
		}

	case api.NotifyVolumeChanged:
		s.set(playerIface, "Volume", n.Volume)
	}
}

func (s *Server) set(iface, property string, v interface{}) {
	if s.props == nil {
		return
	}
	s.props.SetMust(iface, property, v)
}

// metadata describes the entry under the cursor. Callers hold s.mu.
func (s *Server) metadata() map[string]dbus.Variant {
	if s.cursor < 0 || s.cursor >= len(s.entries) {
		return map[string]dbus.Variant{"mpris:trackid": dbus.MakeVariant(noTrack)}
	}
	ref := s.entries[s.cursor].Ref
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackID(s.cursor)),
		"xesam:title":   dbus.MakeVariant(ref.Name),
		"xesam:url":     dbus.MakeVariant(locatorURL(ref.Locator)),
	}
	if s.position.Duration > 0 {
		md["mpris:length"] = dbus.MakeVariant(s.position.Duration.Microseconds())
	}
	return md
}

func trackID(index int) dbus.ObjectPath {
	return dbus.ObjectPath(fmt.Sprintf("%s%d", trackPrefix, index))
}

func locatorURL(locator string) string {
	if strings.Contains(locator, "://") {
		return locator
	}
	return (&url.URL{Scheme: "file", Path: locator}).String()
}

func playbackStatus(state api.PlaybackState) string {
	switch state {
	case api.StatePlaying, api.StateLoading:
		// Loading always ends in Playing unless it fails
		return "Playing"
	case api.StatePaused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// rootObject implements org.mpris.MediaPlayer2. The player cannot be raised
// or quit over the bus.
type rootObject struct{}

func (r *rootObject) Raise() *dbus.Error { return nil }
func (r *rootObject) Quit() *dbus.Error  { return nil }

// playerObject implements org.mpris.MediaPlayer2.Player
type playerObject struct {
	server *Server
}

func (p *playerObject) submit(cmd api.Command) *dbus.Error {
	p.server.logger.Debug("MPRIS command", zap.Stringer("command", cmd.Type))
	p.server.commander.Submit(cmd)
	return nil
}

func (p *playerObject) Next() *dbus.Error     { return p.submit(api.Command{Type: api.CmdNext}) }
func (p *playerObject) Previous() *dbus.Error { return p.submit(api.Command{Type: api.CmdPrevious}) }
func (p *playerObject) Pause() *dbus.Error    { return p.submit(api.Command{Type: api.CmdPause}) }
func (p *playerObject) Play() *dbus.Error     { return p.submit(api.Command{Type: api.CmdPlay}) }
func (p *playerObject) Stop() *dbus.Error     { return p.submit(api.Command{Type: api.CmdStop}) }

func (p *playerObject) PlayPause() *dbus.Error {
	return p.submit(api.Command{Type: api.CmdTogglePause})
}

// Seek moves by offset microseconds relative to the last known position
func (p *playerObject) Seek(offset int64) *dbus.Error {
	p.server.mu.Lock()
	target := p.server.position.Position + time.Duration(offset)*time.Microsecond
	p.server.mu.Unlock()
	return p.submit(api.Command{Type: api.CmdSeek, Position: max(target, 0)})
}

// SetPosition seeks to an absolute position if trackID is still current
func (p *playerObject) SetPosition(track dbus.ObjectPath, position int64) *dbus.Error {
	p.server.mu.Lock()
	current := p.server.cursor >= 0 && track == trackID(p.server.cursor)
	p.server.mu.Unlock()

	if !current || position < 0 {
		return nil
	}
	return p.submit(api.Command{Type: api.CmdSeek, Position: time.Duration(position) * time.Microsecond})
}

// OpenUri replaces the playlist with a single local file
func (p *playerObject) OpenUri(uri string) *dbus.Error {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return dbus.MakeFailedError(fmt.Errorf("unsupported uri %q", uri))
	}
	return p.submit(api.Command{Type: api.CmdOpen, Refs: []api.MediaReference{api.NewMediaReference(u.Path)}})
}
