package progress

import (
	"sync"
	"sync/atomic"
)

// AsyncObserver delivers events to a wrapped observer on its own goroutine.
// When the buffer is full new events are dropped rather than blocking the
// tracker.
type AsyncObserver struct {
	inner   Observer
	events  chan Event
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// Async wraps observer with a buffered, dropping delivery queue.
func Async(observer Observer, buffer int) *AsyncObserver {
	if buffer < 1 {
		buffer = 1
	}
	a := &AsyncObserver{
		inner:  observer,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go a.loop()
	return a
}

// Observe enqueues e without blocking.
func (a *AsyncObserver) Observe(e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.events <- e:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded.
func (a *AsyncObserver) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting events, delivers what is buffered and waits for the
// delivery goroutine to exit.
func (a *AsyncObserver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.events)
	a.mu.Unlock()
	<-a.done
}

func (a *AsyncObserver) loop() {
	defer close(a.done)
	for e := range a.events {
		a.deliver(e)
	}
}

func (a *AsyncObserver) deliver(e Event) {
	defer func() {
		_ = recover()
	}()
	a.inner.Observe(e)
}
