// Package events is a small synchronous publish/subscribe bus with named
// topics. Components subscribe at construction and publish from whichever
// goroutine drives them; handlers run on the publisher's goroutine.
package events

import (
	"log"
	"sync"
)

// Topic names an event stream
type Topic string

const (
	TopicScroll       Topic = "scroll"
	TopicResize       Topic = "resize"
	TopicThemeChanged Topic = "theme-changed"
	TopicMaskClicked  Topic = "mask-clicked"
)

// Handler receives a published payload
type Handler func(payload any)

// Resize is the payload of TopicResize
type Resize struct {
	Width  float64
	Height float64
}

// ThemeChanged is the payload of TopicThemeChanged
type ThemeChanged struct {
	Theme string
}

type subscription struct {
	id uint64
	fn Handler
}

// Bus dispatches payloads to the handlers of a topic in subscription order.
// A panicking handler is recovered and logged; the remaining handlers still run.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers fn for topic and returns a function removing it.
// Calling the returned function more than once is a no-op.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			// Copy so an in-progress Publish keeps iterating its own snapshot
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.subs[topic] = next
			return
		}
	}
}

// Publish delivers payload to every current subscriber of topic and returns
// how many handlers completed without panicking.
func (b *Bus) Publish(topic Topic, payload any) int {
	b.mu.RLock()
	subs := b.subs[topic]
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if b.dispatch(topic, s.fn, payload) {
			delivered++
		}
	}
	return delivered
}

// Subscribers returns the number of handlers registered for topic
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) dispatch(topic Topic, fn Handler, payload any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: %s handler panicked: %v", topic, r)
			ok = false
		}
	}()
	fn(payload)
	return true
}
