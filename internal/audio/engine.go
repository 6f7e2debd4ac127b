package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/google/uuid"
	"github.com/jscyril/golang_media_player/api"
	playerrors "github.com/jscyril/golang_media_player/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Ensure Engine implements Backend at compile time
var _ api.Backend = (*Engine)(nil)

const (
	// sampleRate is the rate the output is opened at; other streams are resampled
	sampleRate      beep.SampleRate = 44100
	resampleQuality                 = 4
	commandBuffer                   = 16
	eventBuffer                     = 64
)

type commandType int

const (
	cmdLoad commandType = iota
	cmdPlay
	cmdPause
	cmdStop
	cmdSeek
	cmdVolume
	cmdEnded
)

type command struct {
	typ      commandType
	id       uuid.UUID
	ref      api.MediaReference
	position time.Duration
	level    float64
}

// Engine plays local audio files through beep. All playback state is owned
// by the run goroutine; Progress reads it under mu.
type Engine struct {
	output   Output
	logger   *zap.Logger
	interval time.Duration
	commands chan command
	events   chan api.EngineEvent
	done     chan struct{}

	mu       sync.RWMutex
	load     uuid.UUID
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	queued   bool
	ended    bool
	lastPos  time.Duration

	emitMu    sync.Mutex
	closed    bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewEngine creates an engine playing into output. Position events are
// checked every interval.
func NewEngine(output Output, interval time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		output:   output,
		logger:   logger,
		interval: interval,
		commands: make(chan command, commandBuffer),
		events:   make(chan api.EngineEvent, eventBuffer),
		done:     make(chan struct{}),
		level:    1,
	}
}

// Start opens the output and begins processing requests
func (e *Engine) Start(ctx context.Context) error {
	if err := e.output.Init(sampleRate); err != nil {
		return fmt.Errorf("%w: %v", playerrors.ErrEngineUnavailable, err)
	}

	ctx, e.cancel = context.WithCancel(ctx)
	e.wg.Add(1)
	go e.run(ctx)

	e.logger.Info("Audio engine started", zap.Int("sample_rate", int(sampleRate)))
	return nil
}

// Close stops the engine and closes the event stream
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		if e.cancel != nil {
			e.cancel()
		}
		e.wg.Wait()

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

// Load replaces the current source
func (e *Engine) Load(id uuid.UUID, ref api.MediaReference) {
	e.send(command{typ: cmdLoad, id: id, ref: ref})
}

// Play starts or resumes the loaded source
func (e *Engine) Play() {
	e.send(command{typ: cmdPlay})
}

// Pause pauses playback
func (e *Engine) Pause() {
	e.send(command{typ: cmdPause})
}

// Stop pauses and rewinds
func (e *Engine) Stop() {
	e.send(command{typ: cmdStop})
}

// Seek moves to position, clamped to the stream
func (e *Engine) Seek(position time.Duration) {
	e.send(command{typ: cmdSeek, position: position})
}

// SetVolume sets the volume level (0.0 to 1.0)
func (e *Engine) SetVolume(level float64) {
	e.send(command{typ: cmdVolume, level: level})
}

// Progress returns the position of the loaded source
func (e *Engine) Progress() api.Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p := api.Progress{Load: e.load}
	if e.streamer == nil {
		return p
	}

	e.output.Lock()
	pos, length := e.streamer.Position(), e.streamer.Len()
	e.output.Unlock()

	p.Position = e.format.SampleRate.D(pos)
	p.Duration = e.format.SampleRate.D(length)
	return p
}

func (e *Engine) send(cmd command) {
	select {
	case e.commands <- cmd:
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

// run is the main command processing loop
func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.release()
			return

		case cmd := <-e.commands:
			switch cmd.typ {
			case cmdLoad:
				e.loadSource(cmd.id, cmd.ref)
			case cmdPlay:
				e.play()
			case cmdPause:
				e.setPaused(true)
			case cmdStop:
				e.stop()
			case cmdSeek:
				e.seekTo(cmd.position)
			case cmdVolume:
				e.setVolume(cmd.level)
			case cmdEnded:
				e.finished(cmd.id)
			}

		case <-ticker.C:
			e.trackPosition()
		}
	}
}

// loadSource decodes ref and leaves it paused at the start
func (e *Engine) loadSource(id uuid.UUID, ref api.MediaReference) {
	e.release()

	e.mu.Lock()
	e.load = id
	e.lastPos = 0
	e.mu.Unlock()

	e.emit(api.EngineEvent{Type: api.EventStatusChanged, Load: id, Status: api.MediaLoading})

	file, err := os.Open(ref.Locator)
	if err != nil {
		e.fail(id, playerrors.NewPlayerError("open", ref.Locator, playerrors.Normalize(err)))
		return
	}

	streamer, format, err := DecodeAudio(file, ref.Locator)
	if err != nil {
		file.Close()
		e.fail(id, playerrors.NewPlayerError("decode", ref.Locator, err))
		return
	}

	e.mu.Lock()
	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	e.mu.Unlock()

	e.logger.Debug("Decoded source",
		zap.String("locator", ref.Locator),
		zap.Int("sample_rate", int(format.SampleRate)),
		zap.Int("channels", format.NumChannels))

	e.emit(api.EngineEvent{Type: api.EventDurationChanged, Load: id, Duration: format.SampleRate.D(streamer.Len())})
	e.emit(api.EngineEvent{Type: api.EventStatusChanged, Load: id, Status: api.MediaLoaded})
}

func (e *Engine) play() {
	if e.ctrl == nil {
		return
	}
	if !e.queued {
		e.enqueue()
	}
	e.setPaused(false)
}

// enqueue hands the loaded stream to the output, rewinding it first if it
// already played to the end
func (e *Engine) enqueue() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ended {
		if err := e.streamer.Seek(0); err != nil {
			e.logger.Warn("Rewind failed", zap.Error(err))
		}
		e.ended = false
		e.lastPos = -1
	}

	var s beep.Streamer = e.ctrl
	if e.format.SampleRate != sampleRate {
		s = beep.Resample(resampleQuality, e.format.SampleRate, sampleRate, s)
	}

	gain, silent := volumeSettings(e.level)
	e.volume = &effects.Volume{Streamer: s, Base: 2, Volume: gain, Silent: silent}

	id := e.load
	e.output.Play(beep.Seq(e.volume, beep.Callback(func() {
		// Runs under the output lock
		go e.send(command{typ: cmdEnded, id: id})
	})))
	e.queued = true
}

func (e *Engine) setPaused(paused bool) {
	if e.ctrl == nil {
		return
	}
	e.output.Lock()
	e.ctrl.Paused = paused
	e.output.Unlock()
}

func (e *Engine) stop() {
	if e.ctrl == nil {
		return
	}

	e.mu.Lock()
	e.output.Lock()
	e.ctrl.Paused = true
	err := e.streamer.Seek(0)
	e.output.Unlock()
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("Rewind failed", zap.Error(err))
	}
	e.trackPosition()
}

func (e *Engine) seekTo(pos time.Duration) {
	if e.streamer == nil {
		return
	}

	e.mu.Lock()
	e.output.Lock()
	n := lo.Clamp(e.format.SampleRate.N(pos), 0, e.streamer.Len())
	err := e.streamer.Seek(n)
	e.output.Unlock()
	if err == nil && e.ended {
		// The finished stream left the output; the next play re-queues it here
		e.ended = false
		e.queued = false
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("Seek failed", zap.Duration("position", pos), zap.Error(err))
		return
	}
	e.trackPosition()
}

func (e *Engine) setVolume(level float64) {
	e.mu.Lock()
	e.level = level
	e.mu.Unlock()

	if e.volume == nil {
		return
	}
	gain, silent := volumeSettings(level)
	e.output.Lock()
	e.volume.Volume = gain
	e.volume.Silent = silent
	e.output.Unlock()
}

// finished handles the end callback of the stream queued for id
func (e *Engine) finished(id uuid.UUID) {
	e.mu.Lock()
	if id != e.load || e.streamer == nil {
		e.mu.Unlock()
		return
	}
	e.ended = true
	e.queued = false
	e.mu.Unlock()

	e.trackPosition()
	e.emit(api.EngineEvent{Type: api.EventStatusChanged, Load: id, Status: api.MediaEndOfMedia})
}

// trackPosition emits PositionChanged when the position moved since the last report
func (e *Engine) trackPosition() {
	p := e.Progress()
	if p.Load == uuid.Nil {
		return
	}

	e.mu.Lock()
	moved := p.Position != e.lastPos
	e.lastPos = p.Position
	e.mu.Unlock()

	if moved {
		e.emit(api.EngineEvent{Type: api.EventPositionChanged, Load: p.Load, Position: p.Position})
	}
}

func (e *Engine) fail(id uuid.UUID, err error) {
	e.logger.Warn("Load failed", zap.Error(err))
	e.emit(api.EngineEvent{
		Type: api.EventErrorOccurred,
		Load: id,
		Kind: playerrors.KindOf(err),
		Err:  err,
	})
}

// release clears the output and closes the current stream
func (e *Engine) release() {
	e.output.Clear()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer != nil {
		if err := e.streamer.Close(); err != nil {
			e.logger.Debug("Close stream", zap.Error(err))
		}
	}
	e.streamer = nil
	e.ctrl = nil
	e.volume = nil
	e.queued = false
	e.ended = false
}

// volumeSettings maps a linear level onto effects.Volume with base 2.
// 1.0 leaves the signal untouched, 0.5 halves the amplitude.
func volumeSettings(level float64) (gain float64, silent bool) {
	if !(level > 0) {
		return 0, true
	}
	return math.Log2(level), false
}
