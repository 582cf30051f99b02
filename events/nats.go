package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("recordsync"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, topic string, event any) error {
	data, err := gojson.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return p.conn.Publish(topic, data)
}

// Flush waits until the server has acknowledged everything published so far.
func (p *NATSPublisher) Flush() error { return p.conn.Flush() }

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber decodes CollectionChanged events from NATS.
type NATSSubscriber struct {
	conn *nats.Conn
	log  *slog.Logger
}

// NewNATSSubscriber connects with unlimited reconnects. log may be nil.
func NewNATSSubscriber(url string, log *slog.Logger, opts ...nats.Option) (*NATSSubscriber, error) {
	if log == nil {
		log = slog.Default()
	}
	defaults := []nats.Option{
		nats.Name("recordsync-tail"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc, log: log}, nil
}

// Events streams the commits published on subject (wildcards allowed). The
// subscription is registered on the server before Events returns. Payloads
// that are not a CollectionChanged are logged and skipped. The channel is
// closed once ctx is done.
func (s *NATSSubscriber) Events(ctx context.Context, subject string) (<-chan CollectionChanged, error) {
	msgs := make(chan *nats.Msg, 64)
	sub, err := s.conn.ChanSubscribe(subject, msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}

	out := make(chan CollectionChanged)
	go func() {
		defer close(out)
		defer sub.Unsubscribe() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-msgs:
				var ev CollectionChanged
				if err := gojson.Unmarshal(m.Data, &ev); err != nil {
					s.log.Warn("skipping undecodable event", "subject", m.Subject, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
