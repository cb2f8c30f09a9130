// Package event carries in-process notifications between the discovery
// pipeline and its observers.
package event

import (
	"context"
	"sync"
)

// Topic names an event stream on the bus.
type Topic string

// Topics published by the discovery CLI.
const (
	TopicDiscoveryStarted   Topic = "discovery.started"
	TopicDiscoveryProgress  Topic = "discovery.progress"
	TopicDiscoveryCompleted Topic = "discovery.completed"
	TopicCacheChanged       Topic = "cache.changed"
)

// Handler receives a published payload.
type Handler func(ctx context.Context, data any)

// Bus is a minimal in-process publish-subscribe hub. Subscriptions are
// append-only; there is no unsubscribe because bus lifetime matches a
// single command invocation.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[Topic][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, h Handler) {
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], h)
	b.mu.Unlock()
}

func (b *Bus) snapshot(topic Topic) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	regs := b.handlers[topic]
	if len(regs) == 0 {
		return nil
	}
	out := make([]Handler, len(regs))
	copy(out, regs)
	return out
}

// Publish delivers data to every handler on the topic, each on its own
// goroutine. Delivery order across handlers is unspecified.
func (b *Bus) Publish(ctx context.Context, topic Topic, data any) {
	for _, h := range b.snapshot(topic) {
		go h(ctx, data)
	}
}

// PublishSync delivers data to every handler on the topic in subscription
// order, on the caller's goroutine. Used where output ordering matters,
// such as progress rendering.
func (b *Bus) PublishSync(ctx context.Context, topic Topic, data any) {
	for _, h := range b.snapshot(topic) {
		h(ctx, data)
	}
}
