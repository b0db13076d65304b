package stream

import (
	"context"
	"time"
)

// Map applies f to every item on in, running each call on pool. out is
// closed only after every dispatched call has returned, so a slow call
// from an earlier item can never send on a channel this operator has
// already closed.
func Map[T, U any](ctx context.Context, pool *Pool, in <-chan T, f func(T) U) <-chan U {
	out := make(chan U)
	go func() {
		defer func() {
			pool.Wait()
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-in:
				if !ok {
					return
				}
				pool.Go(ctx, func() {
					select {
					case out <- f(item):
					case <-ctx.Done():
					}
				})
			}
		}
	}()
	return out
}

// Filter drops items for which keep returns false.
func Filter[T any](ctx context.Context, in <-chan T, keep func(T) bool) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-in:
				if !ok {
					return
				}
				if !keep(item) {
					continue
				}
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// FlatMap expands each item on in into zero or more U values. out is
// closed only after every dispatched call has returned, so a slow call
// from an earlier item can never send on a channel this operator has
// already closed.
func FlatMap[T, U any](ctx context.Context, pool *Pool, in <-chan T, f func(T) []U) <-chan U {
	out := make(chan U)
	go func() {
		defer func() {
			pool.Wait()
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-in:
				if !ok {
					return
				}
				pool.Go(ctx, func() {
					for _, u := range f(item) {
						select {
						case out <- u:
						case <-ctx.Done():
							return
						}
					}
				})
			}
		}
	}()
	return out
}

// GroupBy partitions a finite slice of items by a key function. It is the
// batch-shaped counterpart to an infinite-stream group_by: every value this
// library's SlidingWindow emits is itself already a bounded snapshot, so
// grouping within that snapshot needs no further substream machinery.
func GroupBy[T any, K comparable](items []T, keyFn func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, item := range items {
		k := keyFn(item)
		groups[k] = append(groups[k], item)
	}
	return groups
}

// Reduce folds items left to right starting from init.
func Reduce[T, A any](items []T, init A, f func(A, T) A) A {
	acc := init
	for _, item := range items {
		acc = f(acc, item)
	}
	return acc
}

// SlidingWindow buffers items from in and, every hop, emits a snapshot of
// the items whose timeFn-derived timestamp falls within windowSize of the
// real wall-clock instant the hop fires. This mirrors
// original_source/motor_monitor_rx/src/sliding_window.rs's buffer-then-evict
// shape, but the eviction clock is wall time rather than a simulated one
// because sensor timestamps are themselves assigned at real send time.
func SlidingWindow[T any](ctx context.Context, in <-chan T, windowSize, hop time.Duration, timeFn func(T) time.Time) <-chan []T {
	out := make(chan []T)
	go func() {
		defer close(out)
		var buf []T
		ticker := time.NewTicker(hop)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-in:
				if !ok {
					return
				}
				buf = append(buf, item)
			case now := <-ticker.C:
				kept := buf[:0:0]
				for _, item := range buf {
					if now.Sub(timeFn(item)) <= windowSize {
						kept = append(kept, item)
					}
				}
				buf = kept
				snapshot := make([]T, len(buf))
				copy(snapshot, buf)
				select {
				case out <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
