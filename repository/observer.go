// SPDX-License-Identifier: MIT
package repository

import (
	"context"
	"sync"
)

// notifier fans state snapshots out to subscribers. Every subscriber
// channel has capacity one and is conflating: when a subscriber lags, the
// stale snapshot is replaced by the newest one. Publishing never blocks.
type notifier[T any] struct {
	mu   sync.Mutex
	subs map[*subscriber[T]]struct{}
}

type subscriber[T any] struct {
	ch chan T
}

func newNotifier[T any]() *notifier[T] {
	return &notifier[T]{subs: make(map[*subscriber[T]]struct{})}
}

// subscribe registers a new observer and primes its channel with the
// current snapshot, so the first receive always yields a value. The
// channel is closed once ctx is done.
func (n *notifier[T]) subscribe(ctx context.Context, current T) <-chan T {
	sub := &subscriber[T]{ch: make(chan T, 1)}
	sub.ch <- current

	n.mu.Lock()
	n.subs[sub] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, sub)
		n.mu.Unlock()
		close(sub.ch)
	}()
	return sub.ch
}

// publish delivers v to every subscriber, dropping at most the stale
// buffered snapshot of a slow one.
func (n *notifier[T]) publish(v T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs {
		select {
		case sub.ch <- v:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- v:
			default:
			}
		}
	}
}
