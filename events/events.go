// Package events publishes store commits to a message bus.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/recordsync"
)

// Publisher sends events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// TopicCollectionChanged is the default topic for commit events.
const TopicCollectionChanged = "recordsync.collection.changed"

// CollectionChanged is published after every store commit.
type CollectionChanged struct {
	ID      string                `json:"id"`
	At      time.Time             `json:"at"`
	Count   int                   `json:"count"`
	Records recordsync.Collection `json:"records"`
}

// NewCollectionChanged stamps c with a fresh event id.
func NewCollectionChanged(c recordsync.Collection) CollectionChanged {
	if c == nil {
		c = recordsync.Collection{}
	}
	return CollectionChanged{
		ID:      uuid.NewString(),
		At:      time.Now().UTC(),
		Count:   len(c),
		Records: c,
	}
}
