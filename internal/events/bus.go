package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/rs/zerolog"
)

var ErrBusClosed = errors.New("event bus is closed")

type Handler func(ctx context.Context, e domain.Event)

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

type envelope struct {
	ctx   context.Context
	event domain.Event
}

// Bus is an in-process publish/subscribe hub owned by the composition root.
// Publish enqueues, Run dispatches, Close stops intake and drains what is queued.
type Bus struct {
	mu     sync.RWMutex
	subs   map[domain.EventType]map[uint64]Handler
	nextID uint64
	closed bool

	queue    chan envelope
	done     chan struct{}
	inflight sync.WaitGroup
	started  atomic.Bool
	stopped chan struct{}
	log     zerolog.Logger
}

func NewBus(log zerolog.Logger, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		subs:    make(map[domain.EventType]map[uint64]Handler),
		queue:   make(chan envelope, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		log:     log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers h for events of type t and returns a function that removes it.
func (b *Bus) Subscribe(t domain.EventType, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[t] == nil {
		b.subs[t] = make(map[uint64]Handler)
	}
	b.subs[t][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[t], id)
		})
	}
}

// Publish blocks only while the queue is full; it gives up when ctx is done
// or the bus is closed.
func (b *Bus) Publish(ctx context.Context, e domain.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	b.inflight.Add(1)
	b.mu.RUnlock()
	defer b.inflight.Done()

	select {
	case b.queue <- envelope{ctx: context.WithoutCancel(ctx), event: e}:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches queued events until Close has drained the queue or ctx is done.
// Only the first call does anything.
func (b *Bus) Run(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	defer close(b.stopped)

	for {
		select {
		case env, ok := <-b.queue:
			if !ok {
				return
			}
			b.dispatch(env)
		case <-ctx.Done():
			return
		}
	}
}

// Close rejects further publishes, releases publishers blocked on a full queue
// and waits for Run to finish the backlog.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	// no sender is left once inflight drains, so the queue can be closed
	b.inflight.Wait()
	close(b.queue)

	if b.started.Load() {
		<-b.stopped
	}
}

func (b *Bus) dispatch(env envelope) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[env.event.Type]))
	for _, h := range b.subs[env.event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.call(env, h)
	}
}

func (b *Bus) call(env envelope, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(env.event.Type)).
				Msg("event handler panicked")
		}
	}()
	h(env.ctx, env.event)
}
