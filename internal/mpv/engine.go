// Package mpv drives an mpv child process over its JSON IPC socket.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jscyril/golang_media_player/api"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
	"go.uber.org/zap"
)

// Ensure Engine implements Backend at compile time
var _ api.Backend = (*Engine)(nil)

const (
	socketCheckRetries  = 20
	socketCheckInterval = 100 * time.Millisecond
	outboxBuffer        = 32
	eventBuffer         = 64
)

// Options configure the mpv process
type Options struct {
	Path   string
	Socket string
	Video  bool
}

// Engine plays media through mpv. mpv reports a new file with start-file;
// until then position updates still belong to the previous load.
type Engine struct {
	opts   Options
	logger *zap.Logger
	outbox chan Command
	events chan api.EngineEvent
	done   chan struct{}

	mu       sync.Mutex
	cmd      *exec.Cmd
	conn     net.Conn
	current  uuid.UUID
	ref      api.MediaReference
	pending  []pendingLoad
	ended    bool
	position time.Duration
	duration time.Duration

	emitMu    sync.Mutex
	closed    bool
	lostOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type pendingLoad struct {
	id  uuid.UUID
	ref api.MediaReference
}

// NewEngine creates an engine; Start launches mpv
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		opts:   opts,
		logger: logger,
		outbox: make(chan Command, outboxBuffer),
		events: make(chan api.EngineEvent, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches mpv, waits for its socket and connects
func (e *Engine) Start(ctx context.Context) error {
	os.Remove(e.opts.Socket)

	args := []string{
		"--idle=yes",
		"--input-ipc-server=" + e.opts.Socket,
		"--no-terminal",
		"--keep-open=no",
	}
	if !e.opts.Video {
		args = append(args, "--no-video")
	}

	e.logger.Info("Starting mpv process", zap.String("path", e.opts.Path), zap.Strings("args", args))

	cmd := exec.Command(e.opts.Path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: could not start mpv: %v", playerrors.ErrEngineUnavailable, err)
	}

	if err := waitForSocket(ctx, e.opts.Socket); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return fmt.Errorf("%w: %v", playerrors.ErrEngineUnavailable, err)
	}

	conn, err := net.Dial("unix", e.opts.Socket)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return fmt.Errorf("%w: could not connect to mpv socket: %v", playerrors.ErrEngineUnavailable, err)
	}

	e.mu.Lock()
	e.cmd = cmd
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		err := cmd.Wait()
		select {
		case <-e.done:
		default:
			e.lost(fmt.Errorf("mpv exited: %v", err))
		}
	}()

	e.attach(conn)
	return nil
}

func waitForSocket(ctx context.Context, path string) error {
	for range socketCheckRetries {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(socketCheckInterval):
		}
	}
	return fmt.Errorf("socket did not appear at %s", path)
}

// attach starts the reader and writer on an established IPC connection
func (e *Engine) attach(conn net.Conn) {
	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()

	e.wg.Add(2)
	go e.writeLoop(conn)
	go e.readLoop(conn)

	e.send(observeCommand(propTimePos, "time-pos"))
	e.send(observeCommand(propDuration, "duration"))
	e.send(setProperty("pause", true))
}

// Close terminates mpv and closes the event stream
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)

		e.mu.Lock()
		if e.conn != nil {
			e.conn.Close()
		}
		if e.cmd != nil && e.cmd.Process != nil {
			if err := e.cmd.Process.Kill(); err != nil {
				e.logger.Debug("Error terminating mpv process", zap.Error(err))
			}
		}
		e.mu.Unlock()

		e.wg.Wait()
		if e.opts.Socket != "" {
			os.Remove(e.opts.Socket)
		}

		e.emitMu.Lock()
		e.closed = true
		close(e.events)
		e.emitMu.Unlock()
	})
	return nil
}

// Events returns the engine event stream
func (e *Engine) Events() <-chan api.EngineEvent {
	return e.events
}

// Load replaces the current file. Local files are checked before mpv sees them.
func (e *Engine) Load(id uuid.UUID, ref api.MediaReference) {
	if !isRemote(ref.Locator) {
		if _, err := os.Stat(ref.Locator); err != nil {
			err = playerrors.NewPlayerError("load", ref.Locator, playerrors.Normalize(err))
			e.emit(api.EngineEvent{Type: api.EventErrorOccurred, Load: id, Kind: playerrors.KindOf(err), Err: err})
			return
		}
	}

	e.mu.Lock()
	e.pending = append(e.pending, pendingLoad{id: id, ref: ref})
	e.mu.Unlock()

	e.send(setProperty("pause", true))
	e.send(loadCommand(ref.Locator))
}

// Play resumes playback. A file that played to its end is loaded again
// under the same ticket.
func (e *Engine) Play() {
	e.mu.Lock()
	reload := e.ended && e.current != uuid.Nil
	if reload {
		e.pending = append(e.pending, pendingLoad{id: e.current, ref: e.ref})
		e.ended = false
	}
	ref := e.ref
	e.mu.Unlock()

	e.send(setProperty("pause", false))
	if reload {
		e.send(loadCommand(ref.Locator))
	}
}

// Pause pauses playback
func (e *Engine) Pause() {
	e.send(setProperty("pause", true))
}

// Stop pauses and rewinds, keeping the file loaded
func (e *Engine) Stop() {
	e.send(setProperty("pause", true))
	e.send(seekCommand(0))
}

// Seek jumps to position; mpv clamps it
func (e *Engine) Seek(position time.Duration) {
	e.send(seekCommand(position.Seconds()))
}

// SetVolume sets the volume level (0.0 to 1.0)
func (e *Engine) SetVolume(level float64) {
	e.send(setProperty("volume", level*100))
}

// Progress returns the last reported position of the current file
func (e *Engine) Progress() api.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return api.Progress{Load: e.current, Position: e.position, Duration: e.duration}
}

func (e *Engine) send(cmd Command) {
	select {
	case e.outbox <- cmd:
	case <-e.done:
	}
}

func (e *Engine) emit(ev api.EngineEvent) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	if e.closed {
		return
	}
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("Engine event dropped", zap.Stringer("event", ev.Type))
	}
}

// lost reports a dead mpv once as an engine-wide error
func (e *Engine) lost(err error) {
	e.lostOnce.Do(func() {
		e.logger.Error("Lost connection to mpv", zap.Error(err))
		e.emit(api.EngineEvent{
			Type: api.EventErrorOccurred,
			Kind: api.EngineError,
			Err:  fmt.Errorf("%w: %v", playerrors.ErrEngineUnavailable, err),
		})
	})
}

func (e *Engine) writeLoop(conn net.Conn) {
	defer e.wg.Done()

	for {
		select {
		case <-e.done:
			return
		case cmd := <-e.outbox:
			line, err := json.Marshal(cmd)
			if err != nil {
				e.logger.Warn("Dropped mpv command", zap.String("command", fmt.Sprint(cmd.Command)), zap.Error(err))
				continue
			}
			if _, err := conn.Write(append(line, '\n')); err != nil {
				select {
				case <-e.done:
				default:
					e.lost(fmt.Errorf("error sending mpv command: %w", err))
				}
				return
			}
		}
	}
}

func (e *Engine) readLoop(conn net.Conn) {
	defer e.wg.Done()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			e.logger.Warn("Could not parse line from mpv", zap.ByteString("line", line), zap.Error(err))
			continue
		}
		e.handle(resp)
	}

	select {
	case <-e.done:
		return
	default:
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	if !errors.Is(err, net.ErrClosed) {
		e.lost(err)
	}
}

func (e *Engine) handle(resp Response) {
	switch resp.Event {
	case "":
		if resp.Error != "" && resp.Error != "success" {
			e.logger.Debug("mpv command failed", zap.String("error", resp.Error))
		}

	case "start-file":
		e.mu.Lock()
		if len(e.pending) == 0 {
			e.mu.Unlock()
			return
		}
		next := e.pending[0]
		e.pending = e.pending[1:]
		e.current, e.ref = next.id, next.ref
		e.position, e.duration = 0, 0
		e.ended = false
		e.mu.Unlock()

		e.logger.Debug("mpv started file", zap.String("locator", next.ref.Locator))
		e.emit(api.EngineEvent{Type: api.EventStatusChanged, Load: next.id, Status: api.MediaLoading})

	case "file-loaded":
		id := e.currentID()
		if id != uuid.Nil {
			e.emit(api.EngineEvent{Type: api.EventStatusChanged, Load: id, Status: api.MediaLoaded})
		}

	case "end-file":
		e.endFile(resp)

	case "property-change":
		e.propertyChange(resp)
	}
}

func (e *Engine) endFile(resp Response) {
	e.mu.Lock()
	id, ref := e.current, e.ref
	superseded := len(e.pending) > 0
	if resp.Reason == "eof" && !superseded {
		e.ended = true
		e.position = e.duration
	}
	e.mu.Unlock()

	if id == uuid.Nil || superseded {
		return
	}

	switch resp.Reason {
	case "eof":
		e.emit(api.EngineEvent{Type: api.EventStatusChanged, Load: id, Status: api.MediaEndOfMedia})
	case "error":
		kind := errorKind(resp.FileError)
		err := playerrors.NewPlayerError("load", ref.Locator, errors.New(resp.FileError))
		e.emit(api.EngineEvent{Type: api.EventErrorOccurred, Load: id, Kind: kind, Err: err})
	default:
		// stop, quit and redirect need no reaction
	}
}

func (e *Engine) propertyChange(resp Response) {
	seconds, ok := resp.Data.(float64)
	if !ok {
		return
	}
	d := time.Duration(seconds * float64(time.Second))

	e.mu.Lock()
	id := e.current
	var ev api.EngineEvent
	switch resp.ID {
	case propTimePos:
		if d == e.position {
			e.mu.Unlock()
			return
		}
		e.position = d
		ev = api.EngineEvent{Type: api.EventPositionChanged, Load: id, Position: d}
	case propDuration:
		e.duration = d
		ev = api.EngineEvent{Type: api.EventDurationChanged, Load: id, Duration: d}
	default:
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if id != uuid.Nil {
		e.emit(ev)
	}
}

func (e *Engine) currentID() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}
