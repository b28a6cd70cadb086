package depot

import "context"

// waiterKind discriminates the two ways a caller can be suspended on a
// pending Slot: a blocking goroutine parked on a channel, or a cooperative
// caller that has registered a wake callback with an external scheduler.
//
// This collapses the Thread/Waker sum from the original design into a
// single tagged struct (waiter), since Go has no distinct "OS thread
// handle" type exposed to user code the way Rust's std::thread::Thread is.
type waiterKind uint8

const (
	waiterBlocking waiterKind = iota
	waiterCooperative
)

// waiter is a uniform representation of "whoever is waiting" on a pending
// slot. Equality is identity-based: two waiters are
// equal iff they have the same kind and the same token. wake is invoked at
// most once per logical suspension; for blocking waiters it closes a
// one-shot channel, for cooperative waiters it invokes the caller-supplied
// callback directly.
type waiter struct {
	kind  waiterKind
	token any
	wake  func()
}

// equal reports whether w and o denote the same logical waiter. Blocking
// and cooperative waiters are never equal to one another, matching the
// "thread and task waiters are never equal" contract.
func (w waiter) equal(o waiter) bool {
	return w.kind == o.kind && w.token == o.token
}

// notify wakes the party represented by w. Safe to call from any goroutine,
// any number of times (guarded at the call site so it only ever fires
// once per registration, but a stale cooperative registration left behind
// by a dropped Future is tolerated - see future.go).
func (w waiter) notify() {
	if w.wake != nil {
		w.wake()
	}
}

// callerToken is the identity of one logical caller: the same token is
// reused across a chain of recursive TryObtain/ObtainAsync calls made from
// the same outermost call, via context.Context, which is how depot detects
// "constructor for T transitively requests T again" without any notion of
// OS thread identity. It has a non-zero size so that every minted token has
// its own address; pointers to distinct zero-size values may compare equal.
type callerToken struct{ _ byte }

type callerTokenKey struct{}

// withCallerToken returns a context carrying a callerToken: the one already
// present on ctx, if any (so recursive calls share identity), or a freshly
// minted one. The returned token is also returned directly for convenience.
func withCallerToken(ctx context.Context) (context.Context, *callerToken) {
	if tok, ok := ctx.Value(callerTokenKey{}).(*callerToken); ok {
		return ctx, tok
	}
	tok := &callerToken{}
	return context.WithValue(ctx, callerTokenKey{}, tok), tok
}
