package splice

import (
	"context"
	"fmt"
)

// Future is a value that becomes available later. Scripts create one with
// Defer when a result is computed in the background; the stages await it.
type Future struct {
	done  chan struct{}
	value interface{}
	err   error
}

// Defer runs fn in its own goroutine and returns a Future for its result.
// A panic in fn resolves the Future with an error.
func Defer(fn func() (interface{}, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("deferred function panicked: %v", r)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Resolved returns a Future that is already complete.
func Resolved(v interface{}) *Future {
	f := &Future{done: make(chan struct{}), value: v}
	close(f.done)
	return f
}

// Await blocks until the Future completes.
func (f *Future) Await() (interface{}, error) {
	<-f.done
	return f.value, f.err
}

// Done reports whether the Future has completed.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Resolve unwraps v if it is a Future, waiting for it or for ctx.
// Nested futures are resolved in turn. Other values are returned unchanged.
func Resolve(ctx context.Context, v interface{}) (interface{}, error) {
	for {
		f, ok := v.(*Future)
		if !ok || f == nil {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.done:
		}
		if f.err != nil {
			return nil, f.err
		}
		v = f.value
	}
}
