package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reoring/recordsync"
)

const (
	publishTimeout = 5 * time.Second
	// bridgeQueueSize bounds the events waiting for the bus. When it is
	// full, new events are dropped.
	bridgeQueueSize = 64
)

type bridge struct {
	pub   Publisher
	topic string
	log   *slog.Logger

	queue chan CollectionChanged
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Bridge publishes a CollectionChanged event on topic for every commit to
// store. Commits only queue the event; a single goroutine publishes them in
// commit order, so a slow or failing bus never delays a commit. Publish
// failures are logged. The returned function detaches the bridge and waits
// until queued events have been handed to the publisher.
func Bridge(store *recordsync.Store, pub Publisher, topic string, log *slog.Logger) func() {
	if topic == "" {
		topic = TopicCollectionChanged
	}
	if log == nil {
		log = slog.Default()
	}
	b := &bridge{
		pub:   pub,
		topic: topic,
		log:   log,
		queue: make(chan CollectionChanged, bridgeQueueSize),
	}
	b.wg.Add(1)
	go b.run()

	unsubscribe := store.Subscribe(b.enqueue)
	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			b.mu.Lock()
			b.closed = true
			close(b.queue)
			b.mu.Unlock()
			b.wg.Wait()
		})
	}
}

func (b *bridge) enqueue(c recordsync.Collection) {
	ev := NewCollectionChanged(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.queue <- ev:
	default:
		b.log.Warn("publish queue full, dropping event", "topic", b.topic, "event", ev.ID)
	}
}

func (b *bridge) run() {
	defer b.wg.Done()
	for ev := range b.queue {
		b.publish(ev)
	}
}

func (b *bridge) publish(ev CollectionChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.pub.Publish(ctx, b.topic, ev); err != nil {
		b.log.Warn("publish failed", "topic", b.topic, "event", ev.ID, "error", err)
		return
	}
	b.log.Debug("published", "topic", b.topic, "event", ev.ID, "records", ev.Count)
}
