// Package debounce delays propagation of a rapidly changing value until it
// settles.
package debounce

import (
	"context"
	"time"
)

// Debouncer relays the latest pushed value once no newer value has arrived
// for the full delay. Intermediate values are dropped. There is no maximum
// wait: a value pushed continuously never settles.
type Debouncer[T any] struct {
	delay time.Duration
	in    chan T
	out   chan T
	done  chan struct{}
}

// New starts a debouncer bound to ctx. Cancelling ctx discards any pending
// value and closes Out.
func New[T any](ctx context.Context, delay time.Duration) *Debouncer[T] {
	d := &Debouncer[T]{
		delay: delay,
		in:    make(chan T),
		out:   make(chan T),
		done:  make(chan struct{}),
	}
	go d.loop(ctx)
	return d
}

// Push records v as the latest value and restarts the delay window.
// It reports false once the debouncer has stopped.
func (d *Debouncer[T]) Push(v T) bool {
	select {
	case d.in <- v:
		return true
	case <-d.done:
		return false
	}
}

// Out yields settled values.
func (d *Debouncer[T]) Out() <-chan T { return d.out }

// Done is closed when the debouncer has stopped.
func (d *Debouncer[T]) Done() <-chan struct{} { return d.done }

func (d *Debouncer[T]) loop(ctx context.Context) {
	defer close(d.done)
	defer close(d.out)

	timer := time.NewTimer(d.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		pending    T
		hasPending bool
		ready      T
		outCh      chan T // nil until a settled value waits for a reader
	)

	for {
		select {
		case <-ctx.Done():
			return
		case v := <-d.in:
			if hasPending && !timer.Stop() {
				<-timer.C
			}
			pending, hasPending = v, true
			timer.Reset(d.delay)
		case <-timer.C:
			if !hasPending {
				continue
			}
			ready, outCh = pending, d.out
			hasPending = false
		case outCh <- ready:
			outCh = nil
		}
	}
}

// Pipe wires a debouncer into emit and returns the push side. emit runs on
// the debouncer's reader goroutine, one settled value at a time, until ctx
// ends.
func Pipe[T any](ctx context.Context, delay time.Duration, emit func(T)) func(T) bool {
	d := New[T](ctx, delay)
	go func() {
		for v := range d.Out() {
			if ctx.Err() != nil {
				return
			}
			emit(v)
		}
	}()
	return d.Push
}
