package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubscribeBuffer is the per-subscription channel size.
const DefaultSubscribeBuffer = 256

// Connect dials NATS with reconnect-forever defaults. Extra options such as
// nats.Token are applied after the defaults and may override them.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	defaults := []nats.Option{
		nats.Name("signalgate"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn  *nats.Conn
	owned bool
}

// NewNATSPublisher dials its own connection; Close closes it.
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc, owned: true}, nil
}

// NewNATSPublisherConn publishes on a shared connection. Close leaves the
// connection open.
func NewNATSPublisherConn(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: nc}
}

// Publish encodes event and publishes it on topic. A done ctx is reported
// before anything is sent.
func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", topic, err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// Flush waits until the server has processed everything published so far.
func (p *NATSPublisher) Flush() error {
	return p.conn.Flush()
}

func (p *NATSPublisher) Close() error {
	if p.owned {
		p.conn.Close()
	}
	return nil
}

// NATSSubscriber delivers raw payloads from NATS subjects on channels.
// Payloads that arrive while a channel is full are dropped and counted so the
// NATS read loop never blocks.
type NATSSubscriber struct {
	conn    *nats.Conn
	owned   bool
	buffer  int
	dropped atomic.Uint64
}

// NewNATSSubscriber dials its own connection; Close closes it.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc, owned: true, buffer: DefaultSubscribeBuffer}, nil
}

// NewNATSSubscriberConn subscribes on a shared connection. Close leaves the
// connection open.
func NewNATSSubscriberConn(nc *nats.Conn) *NATSSubscriber {
	return &NATSSubscriber{conn: nc, buffer: DefaultSubscribeBuffer}
}

// SetBuffer changes the channel size used by later Subscribe calls.
func (s *NATSSubscriber) SetBuffer(n int) {
	if n > 0 {
		s.buffer = n
	}
}

// Dropped returns how many payloads were discarded because a subscriber
// channel was full.
func (s *NATSSubscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// Subscribe returns a channel of payloads for topic (NATS wildcards such as
// "signalgate.outbound.>" are allowed). The subscription is registered on the
// server before Subscribe returns.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, s.buffer)

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)

	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- msg.Data:
		default:
			s.dropped.Add(1)
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription to %s: %w", topic, err)
	}

	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	if s.owned {
		s.conn.Close()
	}
	return nil
}
