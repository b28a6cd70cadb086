package depot

import (
	"context"
	"fmt"
	"reflect"
)

// Constructor is implemented by a resource type to declare how it is built
// on first demand. The zero value of T is used only as a receiver to reach
// the method — depot never inspects or stores that zero value itself — the
// idiomatic Go stand-in for an associated/static factory function, since Go
// methods always require a receiver value.
type Constructor[T any] interface {
	Construct(ctx context.Context, s Store) (T, error)
}

// AfterConstructor is optionally implemented by a resource type to run
// additional logic after a successful Construct but before the slot is
// marked Filled, while the placeholder (and its cycle protection) is still
// in place. The usual use is registering an interface-typed resource that
// aliases the same underlying value, e.g. so a concrete implementation also
// satisfies lookups for an interface type other code depends on.
type AfterConstructor interface {
	AfterConstruction(ctx context.Context, s Store) error
}

func construct[T any](ctx context.Context, s Store) (T, error) {
	var zero T
	c, ok := any(zero).(Constructor[T])
	if !ok {
		panic(fmt.Sprintf("depot: %s is not Constructor[%s]", reflect.TypeFor[T](), reflect.TypeFor[T]()))
	}
	return c.Construct(ctx, s)
}

func runAfterConstruction[T any](ctx context.Context, s Store, value T) error {
	if hook, ok := any(value).(AfterConstructor); ok {
		return hook.AfterConstruction(ctx, s)
	}
	return nil
}

// commitOrRollback installs value as Filled if err is nil, or removes the
// placeholder (and wakes anyone parked on it) if err is not nil. Either way
// it runs under the store's write lock, matching the "install/commit under
// lock" discipline pollForSlot itself uses.
//
// owned is the exact placeholder this caller installed (returned by
// pollForSlot), not a fresh map lookup by type: a concurrent Store.Close
// may have already deleted that entry (e.g. during shutdown with
// construction still in flight), in which case there is nothing left in
// the map to mutate - drainWaiters on an already-drained slot just yields
// nothing - so commit silently becomes a no-op rather than corrupting
// whatever unrelated slot a later caller may have since installed for the
// same type.
func commitOrRollback[T any](s Store, owned *slot, t reflect.Type, value T, err error) {
	c := s.core
	c.mu.Lock()
	var waiters []waiter
	if current, stillOwned := c.items[t]; stillOwned && current == owned {
		if err == nil {
			owned.filled = true
			owned.value = value
		} else {
			delete(c.items, t)
		}
		waiters = owned.drainWaiters()
	}
	c.mu.Unlock()
	notifyAll(waiters)
}

// recoveredPanic lets a panic raised inside a constructor or
// AfterConstruction be treated exactly like a returned error for rollback
// purposes, then optionally re-raised once rollback has completed.
type recoveredPanic struct {
	value any
}

func (r recoveredPanic) Error() string {
	return fmt.Sprintf("depot: constructor panicked: %v", r.value)
}

// TryObtain returns the resource of type T, constructing it via
// Constructor[T] if no slot exists yet. Concurrent callers (from any mix of
// blocking goroutines and cooperative callers) for the same T are
// guaranteed that exactly one of them runs Construct; the rest wait for
// that construction to settle and share its result. Construction failure
// (a returned error, or a recovered panic when the Store was created with
// WithPanicRecovery) removes the slot so a later caller may retry.
func TryObtain[T any](ctx context.Context, s Store) (value T, err error) {
	ctx, tok := withCallerToken(ctx)

	var ws waitSlot
	for {
		ch := make(chan struct{})
		closer := newOnceCloser(ch)
		outcome := pollForSlot[T](s, &ws, func() waiter {
			return waiter{kind: waiterBlocking, token: tok, wake: closer.close}
		}, true)

		switch {
		case outcome.readyFilled:
			return outcome.value, nil
		case outcome.cycle:
			cyclicResource(reflect.TypeFor[T]())
		case outcome.readyAbsent:
			return buildAndCommit[T](ctx, s, outcome.owned)
		default:
			if perr := parkUntil(ch); perr != nil {
				var zero T
				return zero, perr
			}
		}
	}
}

// buildAndCommit runs the constructor and, if configured, AfterConstruction
// for a placeholder this caller just installed, then commits or rolls back.
// A panic from either is recovered, logged, and converted to a
// *ConstructionError; whether it is then re-panicked is controlled by the
// Store's WithPanicRecovery option.
func buildAndCommit[T any](ctx context.Context, s Store, owned *slot) (value T, err error) {
	t := reflect.TypeFor[T]()

	defer func() {
		if r := recover(); r != nil {
			cerr := &ConstructionError{Type: t, Err: recoveredPanic{value: r}}
			var zero T
			commitOrRollback[T](s, owned, t, zero, cerr)
			s.core.logger.Err().Str(`type`, t.String()).Log(`constructor panicked`)
			if s.core.panicOnConstructorPanic {
				panic(r)
			}
			err = cerr
		}
	}()

	value, err = construct[T](ctx, s)
	if err != nil {
		var zero T
		cerr := &ConstructionError{Type: t, Err: err}
		commitOrRollback[T](s, owned, t, zero, cerr)
		s.core.logger.Err().Str(`type`, t.String()).Log(`constructor failed`)
		return zero, cerr
	}

	if hookErr := runAfterConstruction[T](ctx, s, value); hookErr != nil {
		var zero T
		cerr := &ConstructionError{Type: t, Err: hookErr}
		commitOrRollback[T](s, owned, t, zero, cerr)
		s.core.logger.Err().Str(`type`, t.String()).Log(`after-construction hook failed`)
		return zero, cerr
	}

	commitOrRollback[T](s, owned, t, value, nil)
	return value, nil
}

// Obtain is TryObtain, converting a construction error into a panic naming
// the resource type. Use it where construction failure is a programming
// error the caller has no recovery strategy for.
func Obtain[T any](ctx context.Context, s Store) T {
	v, err := TryObtain[T](ctx, s)
	if err != nil {
		panic(err)
	}
	return v
}

// TryInit is TryObtain, discarding the produced value. It is used when only
// the side effect of populating the store matters.
func TryInit[T any](ctx context.Context, s Store) error {
	_, err := TryObtain[T](ctx, s)
	return err
}

// Init is Obtain, discarding the produced value.
func Init[T any](ctx context.Context, s Store) {
	Obtain[T](ctx, s)
}
