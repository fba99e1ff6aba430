package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/archmodel/pkg/logging"
)

// ErrClosed is returned by a publisher after Close
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer bounds how far a slow client may fall behind before
// events are dropped for it
const subscriberBuffer = 100

// Retention controls what a topic keeps for late subscribers
type Retention struct {
	Keep      int  // Events kept per topic (0 = none)
	ReplayAll bool // Replay every kept event instead of only the latest
}

// topic is the per-topic state of an SSEPublisher
type topic struct {
	name        string
	retention   Retention
	version     int
	backlog     []Event
	subscribers map[*subscriber]struct{}
}

// replay returns the events a new subscriber starts with
func (t *topic) replay() []Event {
	events := t.backlog
	if !t.retention.ReplayAll && len(events) > 1 {
		events = events[len(events)-1:]
	}
	return append([]Event(nil), events...)
}

func (t *topic) retain(e Event) {
	if t.retention.Keep <= 0 {
		return
	}
	t.backlog = append(t.backlog, e)
	if over := len(t.backlog) - t.retention.Keep; over > 0 {
		t.backlog = t.backlog[over:]
	}
}

// SSEPublisher implements Publisher for Server-Sent Event streams. Each
// topic numbers its events so clients can order them and spot gaps.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a publisher without retention on any topic
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// ConfigureSessionTopics sets the retention used by editing sessions: the
// latest project summary is replayed to late subscribers, and up to
// activityBacklog activity entries are replayed in full.
func (p *SSEPublisher) ConfigureSessionTopics(activityBacklog int) {
	p.SetRetention(TopicProject, Retention{Keep: 1})
	p.SetRetention(TopicActivity, Retention{Keep: activityBacklog, ReplayAll: true})
}

// SetRetention changes what name keeps for late subscribers
func (p *SSEPublisher) SetRetention(name string, r Retention) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).retention = r
}

// topic must be called with mu held
func (p *SSEPublisher) topic(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{name: name, subscribers: make(map[*subscriber]struct{})}
		p.topics[name] = t
	}
	return t
}

// Subscribe registers a subscriber on name and hands it the retained events.
// The subscription is closed when ctx is done.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}

	t := p.topic(name)
	sub := &subscriber{
		topic:     name,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	// Replay under the lock so no newer event can overtake it
	replay := t.replay()
	for _, e := range replay {
		select {
		case sub.events <- e:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", name, "version", e.Version)
		}
	}
	t.subscribers[sub] = struct{}{}
	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "count", len(replay))
	}

	context.AfterFunc(ctx, func() { sub.Close() })
	return sub, nil
}

// Publish encodes data as the payload of a new event on name and delivers it
// without blocking. Subscribers that are full miss the event.
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	t := p.topic(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}
	t.retain(event)

	for sub := range t.subscribers {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber is behind, dropping event", "topic", name, "version", event.Version)
		}
	}
	return nil
}

// Close ends every subscription. Further calls are no-ops.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subscribers {
			close(sub.events)
		}
		t.subscribers = nil
	}
	return nil
}

func (p *SSEPublisher) remove(sub *subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subscribers, sub)
	}
}

type subscriber struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

func (s *subscriber) Topic() string        { return s.topic }
func (s *subscriber) Events() <-chan Event { return s.events }

func (s *subscriber) Close() error {
	s.once.Do(func() { s.publisher.remove(s) })
	return nil
}

// WriteSSE writes one event frame: "event: <type>\nid: <version>\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", event.Type, event.Version, data)
	return err
}
