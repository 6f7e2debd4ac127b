package events

import (
	"sync"

	"github.com/jscyril/golang_media_player/api"
)

const (
	typedBuffer = 32
	allBuffer   = 64
)

// Bus distributes coordinator notifications using channels
type Bus struct {
	subscribers map[api.NotificationType][]chan api.Notification
	mu          sync.RWMutex
	closed      bool
}

// NewBus creates a new notification bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[api.NotificationType][]chan api.Notification),
	}
}

// Subscribe returns one channel receiving notifications of the given types
func (b *Bus) Subscribe(types ...api.NotificationType) <-chan api.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := typedBuffer
	if len(types) > 1 {
		size = allBuffer
	}
	ch := make(chan api.Notification, size)
	if b.closed {
		close(ch)
		return ch
	}
	for _, t := range types {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}
	return ch
}

// SubscribeAll returns a channel for receiving all notification types
func (b *Bus) SubscribeAll() <-chan api.Notification {
	return b.Subscribe(api.AllNotificationTypes...)
}

// Publish broadcasts a notification to all subscribers of its type.
// A subscriber whose buffer is full misses the notification; the publisher never blocks.
func (b *Bus) Publish(n api.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[n.Type] {
		select {
		case ch <- n:
		default:
		}
	}
}

// Unsubscribe removes a subscriber channel and closes it
func (b *Bus) Unsubscribe(ch <-chan api.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var found chan api.Notification
	for t, subs := range b.subscribers {
		for i, sub := range subs {
			if sub == ch {
				found = sub
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	if found != nil {
		close(found)
	}
}

// Close closes all subscriber channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A SubscribeAll channel is registered under every type
	closed := make(map[chan api.Notification]bool)

	for _, subs := range b.subscribers {
		for _, ch := range subs {
			if !closed[ch] {
				close(ch)
				closed[ch] = true
			}
		}
	}
	b.subscribers = make(map[api.NotificationType][]chan api.Notification)
	b.closed = true
}
