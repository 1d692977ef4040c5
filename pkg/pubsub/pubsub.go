// Package pubsub delivers workspace change events to web clients over
// Server-Sent Events. Each topic keeps its latest event so a subscriber
// that connects late immediately learns the current state.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/biolattice/phagegrid/pkg/logging"
)

// Event is one published message.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic ordering
}

// Subscription is a live feed of one topic's events.
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher fans events out to topic subscribers.
type Publisher interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Publish(topic, eventType string, data interface{}) error
	Close() error
}

// Broker is the in-process Publisher implementation.
type Broker struct {
	mu      sync.Mutex
	subs    map[string]map[*subscription]bool
	version map[string]int
	latest  map[string]Event // last event per topic, replayed to new subscribers
	closed  bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs:    make(map[string]map[*subscription]bool),
		version: make(map[string]int),
		latest:  make(map[string]Event),
	}
}

// Subscribe registers a feed for one topic. The latest event, if any, is
// replayed immediately. Cancelling the context closes the subscription.
func (b *Broker) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, fmt.Errorf("publisher is closed")
	}
	sub := &subscription{
		topic:  topic,
		events: make(chan Event, 16),
		broker: b,
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*subscription]bool)
	}
	b.subs[topic][sub] = true
	replay, hasReplay := b.latest[topic]
	b.mu.Unlock()

	if hasReplay {
		sub.events <- replay
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

// Publish sends an event to every subscriber of the topic without
// blocking; a slow subscriber drops events rather than stalling the
// mutation path.
func (b *Broker) Publish(topic, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event data: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("publisher is closed")
	}

	b.version[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    jsonData,
		Version: b.version[topic],
	}
	b.latest[topic] = event

	for sub := range b.subs[topic] {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber channel full, dropping event", "topic", topic)
		}
	}
	return nil
}

// Close shuts down the broker and all subscriptions.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for sub := range subs {
			sub.markClosed()
			close(sub.events)
		}
	}
	b.subs = make(map[string]map[*subscription]bool)
	return nil
}

func (b *Broker) unsubscribe(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs := b.subs[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subs, sub.topic)
		}
	}
}

type subscription struct {
	topic  string
	events chan Event
	broker *Broker
	mu     sync.Mutex
	closed bool
}

func (s *subscription) Topic() string { return s.topic }

func (s *subscription) Events() <-chan Event { return s.events }

func (s *subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.broker.unsubscribe(s)
	close(s.events)
	return nil
}

func (s *subscription) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
