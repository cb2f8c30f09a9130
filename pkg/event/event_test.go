package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := New()

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	var got []any

	handler := func(_ context.Context, data any) {
		mu.Lock()
		got = append(got, data)
		mu.Unlock()
		wg.Done()
	}
	bus.Subscribe(TopicDiscoveryCompleted, handler)
	bus.Subscribe(TopicDiscoveryCompleted, handler)

	bus.Publish(context.Background(), TopicDiscoveryCompleted, 5013)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []any{5013, 5013}, got)
}

func TestPublishUnknownTopicIsNoop(t *testing.T) {
	bus := New()
	bus.Publish(context.Background(), "nobody.listens", nil)
}

func TestPublishSyncRunsInOrder(t *testing.T) {
	bus := New()
	var order []int
	bus.Subscribe(TopicCacheChanged, func(context.Context, any) { order = append(order, 1) })
	bus.Subscribe(TopicCacheChanged, func(context.Context, any) { order = append(order, 2) })

	bus.PublishSync(context.Background(), TopicCacheChanged, nil)
	require.Equal(t, []int{1, 2}, order)
}
