package services

import (
	"context"
	"sync"

	"github.com/taskmaster/routine/internal/infrastructure/logger"
)

// changeFeed fans a "something changed" signal out to subscribers. Each
// subscriber has a one-slot buffer, so bursts of commits coalesce into one
// wakeup and publish never blocks.
type changeFeed struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newChangeFeed() *changeFeed {
	return &changeFeed{subs: make(map[chan struct{}]struct{})}
}

func (f *changeFeed) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}

func (f *changeFeed) publish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// watch emits the result of list now and again after every published change
// until ctx is done. A consumer that falls behind only ever sees the newest
// snapshot.
func watch[T any](ctx context.Context, feed *changeFeed, log *logger.Logger, list func(context.Context) (T, error)) (<-chan T, error) {
	signals, unsubscribe := feed.subscribe()

	initial, err := list(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan T, 1)
	out <- initial

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				snapshot, err := list(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.WithError(err).Warn("Failed to refresh live view")
					continue
				}
				offer(out, snapshot)
			}
		}
	}()

	return out, nil
}

// offer replaces a pending value with v. Only the watch goroutine sends on ch.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
