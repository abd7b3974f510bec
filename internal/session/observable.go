package session

import (
	"context"
	"sync"
)

// Observable is a single-slot value with change subscriptions. Only the
// package owning it can write; everyone else reads or observes.
type Observable[T any] struct {
	mu     sync.RWMutex
	value  T
	nextID uint64
	subs   map[uint64]func(T)
}

func newObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial, subs: make(map[uint64]func(T))}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// set stores v and calls every subscriber with it, outside the lock.
func (o *Observable[T]) set(v T) {
	o.mu.Lock()
	o.value = v
	subs := make([]func(T), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe calls fn with every subsequent value until the returned function
// is called.
func (o *Observable[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// Changes delivers the current value followed by subsequent ones. Slow readers
// only see the latest value. The channel is closed once ctx is done.
func (o *Observable[T]) Changes(ctx context.Context) <-chan T {
	out := make(chan T, 1)
	wake := make(chan struct{}, 1)

	unsubscribe := o.Subscribe(func(T) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(out)
		defer unsubscribe()

		if !emitLatest(ctx, out, o.Get()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
				if !emitLatest(ctx, out, o.Get()) {
					return
				}
			}
		}
	}()
	return out
}

// emitLatest puts v into out, replacing a value the reader has not taken yet.
func emitLatest[T any](ctx context.Context, out chan T, v T) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case out <- v:
			return true
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
