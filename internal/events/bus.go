// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package events distributes session state changes to in-process subscribers and external sinks.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/wneessen/roam-tripdemo/internal/logger"
)

// Event is a single change of a session field.
type Event struct {
	Field string    `json:"field"`
	Value any       `json:"value"`
	At    time.Time `json:"at"`
}

// Bus fans out events to per-field and global subscribers. New subscribers receive the latest
// event of every field they subscribe to. Subscribers that are not ready to receive are skipped.
type Bus struct {
	mu          sync.RWMutex
	logger      *logger.Logger
	latest      map[string]Event
	subscribers map[string]map[chan Event]struct{}
	globalSubs  map[chan Event]struct{}
}

// New returns an empty Bus.
func New(logger *logger.Logger) *Bus {
	return &Bus{
		logger:      logger,
		latest:      make(map[string]Event),
		subscribers: make(map[string]map[chan Event]struct{}),
		globalSubs:  make(map[chan Event]struct{}),
	}
}

// Subscribe adds a subscriber for events of field with the given buffer size, returning an event
// channel and an unsubscribe function.
func (b *Bus) Subscribe(field string, size int) (<-chan Event, func()) {
	ch := make(chan Event, max(size, 1))
	b.mu.Lock()
	if _, ok := b.subscribers[field]; !ok {
		b.subscribers[field] = make(map[chan Event]struct{})
	}
	b.subscribers[field][ch] = struct{}{}
	if latest, ok := b.latest[field]; ok {
		ch <- latest
	}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			if subs, ok := b.subscribers[field]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subscribers, field)
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// SubscribeAll adds a subscriber for events of every field. The replay of latest events is
// limited by the buffer size.
func (b *Bus) SubscribeAll(size int) (<-chan Event, func()) {
	ch := make(chan Event, max(size, 1))
	b.mu.Lock()
	b.globalSubs[ch] = struct{}{}
	for _, ev := range b.latest {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.globalSubs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Publish records value as the latest value of field and broadcasts it.
func (b *Bus) Publish(field string, value any) {
	ev := Event{Field: field, Value: value, At: time.Now()}

	b.mu.Lock()
	b.latest[field] = ev
	dropped := b.broadcast(ev)
	b.mu.Unlock()

	if dropped > 0 {
		b.logger.Debug("skipped slow event subscribers", slog.String("field", field),
			slog.Int("dropped", dropped))
	}
}

// Latest returns the latest event of field.
func (b *Bus) Latest(field string) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ev, ok := b.latest[field]
	return ev, ok
}

func (b *Bus) broadcast(ev Event) int {
	dropped := 0
	for ch := range b.subscribers[ev.Field] {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	for ch := range b.globalSubs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}
