package coordinator

import (
	"context"
	"time"

	"github.com/jscyril/golang_media_player/api"
	"go.uber.org/zap"
)

const commandBuffer = 32

// Loop owns a Coordinator and feeds it from one goroutine: UI commands,
// engine events and the position refresh ticker.
type Loop struct {
	coordinator *Coordinator
	commands    chan api.Command
	interval    time.Duration
	logger      *zap.Logger
	done        chan struct{}
}

// NewLoop creates a loop refreshing the position every interval
func NewLoop(c *Coordinator, interval time.Duration, logger *zap.Logger) *Loop {
	return &Loop{
		coordinator: c,
		commands:    make(chan api.Command, commandBuffer),
		interval:    interval,
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// Submit queues a command. It is safe to call from any goroutine and
// returns immediately once the loop has stopped.
func (l *Loop) Submit(cmd api.Command) {
	select {
	case l.commands <- cmd:
	case <-l.done:
	}
}

// Done is closed when Run returns
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes commands and events until ctx is cancelled
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	events := l.coordinator.engine.Events()
	l.logger.Info("Coordinator loop started", zap.Duration("tick", l.interval))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Coordinator loop stopped")
			return

		case cmd := <-l.commands:
			if err := l.coordinator.Execute(cmd); err != nil {
				l.logger.Debug("Command not applied",
					zap.Stringer("command", cmd.Type),
					zap.Error(err))
			}

		case ev, ok := <-events:
			if !ok {
				l.logger.Warn("Engine event stream closed")
				events = nil
				continue
			}
			l.coordinator.HandleEvent(ev)

		case <-ticker.C:
			l.coordinator.Refresh()
		}
	}
}
