// Package events provides a small typed in-process event bus for daemon
// orchestration. It is not durable; it carries control-flow events inside a
// single process.
package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrClosed is returned by Publish after the bus has been closed.
var ErrClosed = errors.New("event bus closed")

// Bus delivers published events to typed subscribers. Publish blocks until
// every subscriber has accepted the event or the context is canceled.
type Bus struct {
	mu     sync.RWMutex
	subs   map[reflect.Type]map[uint64]*subscriber
	nextID uint64
	closed bool
}

type subscriber struct {
	deliver func(ctx context.Context, evt any) error
	stop    func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscriber)}
}

// Subscribe registers a subscription for events of type T and returns the
// delivery channel plus an unsubscribe function. Unsubscribing closes the
// channel.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	ch := make(chan T, buffer)
	eventType := reflect.TypeFor[T]()

	var closeOnce sync.Once
	closeCh := func() { closeOnce.Do(func() { close(ch) }) }

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		closeCh()
		return ch, func() {}
	}

	b.nextID++
	id := b.nextID

	sub := &subscriber{
		deliver: func(ctx context.Context, evt any) error {
			v, ok := evt.(T)
			if !ok {
				return fmt.Errorf("event type mismatch: want %s, got %T", eventType, evt)
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return fmt.Errorf("publish %s: %w", eventType, ctx.Err())
			}
		},
		stop: closeCh,
	}

	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]*subscriber)
	}
	b.subs[eventType][id] = sub

	unsubscribe := func() {
		b.mu.Lock()
		if set, ok := b.subs[eventType]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(b.subs, eventType)
			}
		}
		b.mu.Unlock()
		closeCh()
	}
	return ch, unsubscribe
}

// Publish delivers evt to every subscriber of its type.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*subscriber, 0, len(b.subs[reflect.TypeOf(evt)]))
	for _, s := range b.subs[reflect.TypeOf(evt)] {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if err := s.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the bus and every subscription channel.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*subscriber
	for _, set := range b.subs {
		for _, s := range set {
			all = append(all, s)
		}
	}
	b.subs = make(map[reflect.Type]map[uint64]*subscriber)
	b.mu.Unlock()

	for _, s := range all {
		s.stop()
	}
}
