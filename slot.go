package depot

// slot is the per-type cell backing a Store: either Filled with a value,
// or a placeholder marking an in-progress construction, with the owner
// obliged to finish it and any further callers parked in waiting.
type slot struct {
	filled  bool
	value   any
	owner   waiter
	waiting []waiter
}

// slotDesc is a side-effect-free snapshot of a slot's state, used by reads
// that must not steal ownership of a pending construction.
type slotDesc struct {
	filled bool
	value  any
}

func (s *slot) describe() slotDesc {
	if s.filled {
		return slotDesc{filled: true, value: s.value}
	}
	return slotDesc{}
}

// newPlaceholder returns a fresh placeholder slot owned by owner.
func newPlaceholder(owner waiter) *slot {
	return &slot{owner: owner}
}

// drainWaiters removes and returns every waiter currently parked on the
// slot. The caller must hold the store's write lock, since waiting is
// otherwise only ever touched while that lock is held (pollForSlot appends
// to it); draining it under the same lock is what lets the resulting
// slice be notified afterward, outside the lock, without a second
// goroutine observing a half-drained list. Safe to call more than once -
// a slot already drained simply yields nothing the second time.
func (s *slot) drainWaiters() []waiter {
	w := s.waiting
	s.waiting = nil
	return w
}

// notifyAll wakes every waiter in w. It touches no slot state, so it is
// always safe to call without holding the store's lock.
func notifyAll(w []waiter) {
	for _, waiter := range w {
		waiter.notify()
	}
}
