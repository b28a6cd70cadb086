package depot

import "reflect"

// Future is a cooperative, executor-agnostic, read-only handle on the slot
// for T. It holds no goroutine of its own: whatever scheduler the caller
// already has drives it forward by calling Poll repeatedly, each time
// supplying a fresh wake callback to be invoked when the future might be
// ready to make progress again. A Future never installs a placeholder and
// never constructs; the construction path (construct_async.go) uses its own
// ObtainFuture, which drives the same pollForSlot core with ownership
// semantics Future does not need.
type Future[T any] struct {
	s     Store
	ws    waitSlot
	done  bool
	value T
	found bool
}

// newFuture returns a Future observing the slot for T without ever
// installing a placeholder: absence is reported as ready with found=false.
func newFuture[T any](s Store) *Future[T] {
	return &Future[T]{s: s}
}

// Poll drives the future's state machine forward by exactly one step,
// delegating to the same poll core used by the blocking path. wake is
// registered as this future's fresh waiter identity for this call; it is
// invoked at most once, when the slot this future is watching transitions
// out of pending. Re-polling after wake with a new wake callback is not
// just permitted but expected: a task may move between executors, and only
// the most recently registered callback is guaranteed to fire.
//
// ready is true once the future has resolved, after which value and err
// hold the final outcome and further Poll calls return the same result
// without touching the store again. A resolved-absent future (value is the
// zero value, err is nil, and Found reports false) matches the
// "ready(None)" outcome of the shared poll core.
func (f *Future[T]) Poll(wake func()) (value T, ready bool, err error) {
	if f.done {
		return f.value, true, nil
	}

	outcome := pollForSlot[T](f.s, &f.ws, func() waiter {
		return waiter{kind: waiterCooperative, token: f, wake: wake}
	}, false)

	switch {
	case outcome.readyFilled:
		f.done, f.value, f.found = true, outcome.value, true
		return f.value, true, nil
	case outcome.readyAbsent:
		f.done, f.found = true, false
		var zero T
		f.value = zero
		return f.value, true, nil
	case outcome.cycle:
		f.done = true
		cyclicResource(reflect.TypeFor[T]())
		panic("unreachable")
	default:
		return f.value, false, nil
	}
}

// Found reports whether a resolved future found T Filled. It is only
// meaningful after Poll has returned ready=true.
func (f *Future[T]) Found() bool {
	return f.found
}

// TryGetAsync returns a cooperative Future observing the resource of type
// T, without ever constructing it. It is the Future-driven counterpart to
// TryGet.
func TryGetAsync[T any](s Store) *Future[T] {
	if desc, ok := tryGetSlot[T](s); ok && desc.filled {
		fut := &Future[T]{s: s, done: true, found: true, value: desc.value.(T)}
		return fut
	}
	return newFuture[T](s)
}
