package depot

import (
	"reflect"
	"sync"
)

// pollOutcome is the three-way result of one pollForSlot transition:
// readyFilled (value observed), readyAbsent (slot absent, or this call just
// became the owner of a fresh placeholder), or pending (still waiting on
// someone else's construction).
type pollOutcome[T any] struct {
	readyFilled bool
	readyAbsent bool
	value       T
	cycle       bool
	// owned is set when readyAbsent because this call just installed and
	// now owns a fresh placeholder. The caller must commit or roll back
	// exactly this slot, by pointer - not by repeating the map lookup - so
	// that a concurrent Store.Close racing with construction can safely
	// remove the placeholder out from under an in-flight constructor
	// without the eventual commit corrupting a since-unrelated map entry.
	owned *slot
}

// waitSlot tracks one caller's registration across repeated pollForSlot
// calls for the same logical wait: the index into the owning slot's waiters
// list, if this caller has already been enqueued.
type waitSlot struct {
	index int
	set   bool
}

// pollForSlot executes exactly one transition of the shared poll-core state
// machine on behalf of a caller observing the slot for T. current supplies
// the caller's up-to-date waiter handle; it is invoked at most once per
// call, fresh each time, so a cooperative caller can hand over a new wake
// callback after being moved between executors. ws tracks this caller's
// position in the waiters list across repeated calls (re-registration).
// insertPlaceholder, when true and the slot is Absent, installs a fresh
// UnderConstruction slot owned by this caller and reports readyAbsent so
// the caller knows it must now run the constructor itself.
func pollForSlot[T any](s Store, ws *waitSlot, current func() waiter, insertPlaceholder bool) pollOutcome[T] {
	t := reflect.TypeFor[T]()
	c := s.core
	c.mu.Lock()
	defer c.mu.Unlock()

	sl, exists := c.items[t]

	switch {
	case exists && sl.filled:
		return pollOutcome[T]{readyFilled: true, value: sl.value.(T)}

	case exists && !sl.filled:
		w := current()
		if w.equal(sl.owner) {
			return pollOutcome[T]{cycle: true}
		}
		if ws.set {
			sl.waiting[ws.index] = w
		} else {
			ws.index = len(sl.waiting)
			ws.set = true
			sl.waiting = append(sl.waiting, w)
		}
		return pollOutcome[T]{}

	case !exists && insertPlaceholder:
		fresh := newPlaceholder(current())
		c.items[t] = fresh
		return pollOutcome[T]{readyAbsent: true, owned: fresh}

	default: // !exists && !insertPlaceholder
		return pollOutcome[T]{readyAbsent: true}
	}
}

// waitForSlot runs the blocking wait path for T: repeatedly calling
// pollForSlot with insertPlaceholder=false, parking the calling goroutine
// between iterations, until the slot resolves to Filled or Absent. It never
// installs a placeholder itself, so it is safe to use from read-only paths
// such as TryGet that must not become a constructor. The boolean result
// reports whether a value was found (Filled); a false result means the
// slot settled to Absent (construction failed or the slot was removed
// while this caller was parked).
func waitForSlot[T any](s Store, _ bool) (T, bool) {
	var ws waitSlot
	for {
		ch := make(chan struct{})
		closeOnce := newOnceCloser(ch)
		outcome := pollForSlot[T](s, &ws, func() waiter {
			return waiter{kind: waiterBlocking, token: closeOnce, wake: closeOnce.close}
		}, false)

		switch {
		case outcome.readyFilled:
			return outcome.value, true
		case outcome.readyAbsent:
			var zero T
			return zero, false
		case outcome.cycle:
			cyclicResource(reflect.TypeFor[T]())
		default:
			if err := parkUntil(ch); err != nil {
				var zero T
				return zero, false
			}
		}
	}
}

// onceCloser closes ch at most once, so that notify() being called more
// than once for the same blocking registration (e.g. a stale waiters-list
// entry left behind by an earlier iteration) never panics on a double
// close.
type onceCloser struct {
	ch   chan struct{}
	once sync.Once
}

func newOnceCloser(ch chan struct{}) *onceCloser {
	return &onceCloser{ch: ch}
}

func (o *onceCloser) close() {
	o.once.Do(func() { close(o.ch) })
}
