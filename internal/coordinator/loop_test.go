package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/jscyril/golang_media_player/api"
	"github.com/jscyril/golang_media_player/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func waitForState(t *testing.T, ch <-chan api.Notification, want api.PlaybackState) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case n := <-ch:
			if n.State == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

func TestLoop_CommandsAndEvents(t *testing.T) {
	engine := newFakeEngine()
	bus := events.NewBus()
	defer bus.Close()
	states := bus.Subscribe(api.NotifyPlaybackStateChanged)

	logger := zaptest.NewLogger(t)
	loop := NewLoop(New(engine, bus, logger), 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	loop.Submit(api.Command{Type: api.CmdOpen, Refs: refs("/a.mp3", "/b.mp3")})
	waitForState(t, states, api.StateLoading)

	engine.events <- api.EngineEvent{
		Type:   api.EventStatusChanged,
		Load:   engine.lastLoad().id,
		Status: api.MediaLoaded,
	}
	waitForState(t, states, api.StatePlaying)

	loop.Submit(api.Command{Type: api.CmdPause})
	waitForState(t, states, api.StatePaused)

	cancel()
	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	// Submitting after the loop stopped must not block
	loop.Submit(api.Command{Type: api.CmdPlay})
}

func TestLoop_TickerRefreshesPosition(t *testing.T) {
	engine := newFakeEngine()
	bus := events.NewBus()
	defer bus.Close()
	states := bus.Subscribe(api.NotifyPlaybackStateChanged)
	positions := bus.Subscribe(api.NotifyPositionUpdated)

	logger := zaptest.NewLogger(t)
	loop := NewLoop(New(engine, bus, logger), 5*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	loop.Submit(api.Command{Type: api.CmdOpen, Refs: refs("/a.mp3")})
	waitForState(t, states, api.StateLoading)

	id := engine.lastLoad().id
	engine.mu.Lock()
	engine.progress = api.Progress{Load: id, Position: 3 * time.Second, Duration: time.Minute}
	engine.mu.Unlock()
	engine.events <- api.EngineEvent{Type: api.EventStatusChanged, Load: id, Status: api.MediaLoaded}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case n := <-positions:
			if n.Position.Position == 3*time.Second {
				assert.Equal(t, time.Minute, n.Position.Duration)
				return
			}
		case <-timeout:
			require.Fail(t, "no refreshed position published")
			return
		}
	}
}

func TestLoop_ClosedEventStream(t *testing.T) {
	engine := newFakeEngine()
	close(engine.events)

	logger := zaptest.NewLogger(t)
	loop := NewLoop(New(engine, &recorder{}, logger), time.Hour, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	loop.Submit(api.Command{Type: api.CmdVolume, Volume: 0.3})

	assert.Eventually(t, func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return len(engine.volumes) == 1 && engine.volumes[0] == 0.3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-loop.Done()
}
