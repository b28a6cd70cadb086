package depot

import (
	"context"
	"fmt"
	"reflect"
)

// AsyncOp drives a single in-flight asynchronous construction. It has the
// same Poll contract as Future: each call supplies a fresh wake callback,
// and ready=true is returned, with the final value or error, once the
// operation has finished. ObtainFuture does not poll an AsyncOp again after
// it has reported ready.
// AsyncConstructor implementations return one of these instead of blocking,
// so that building T never ties up a goroutine for the duration of a
// suspending operation.
type AsyncOp[T any] interface {
	Poll(wake func()) (value T, ready bool, err error)
}

// AsyncConstructor is the cooperative counterpart to Constructor: instead
// of returning (T, error) directly, it returns an AsyncOp[T] to be driven
// to completion by whatever scheduler the caller already has.
type AsyncConstructor[T any] interface {
	ConstructAsync(ctx context.Context, s Store) AsyncOp[T]
}

type asyncConstructPhase int

const (
	phaseAcquiring asyncConstructPhase = iota
	phaseConstructing
)

// ObtainFuture drives the asynchronous obtain-or-construct protocol for T:
// first race to become the owner of T's slot (or observe someone else
// already has, or already finished), then if this caller is the owner,
// drive the user's AsyncOp to completion and commit or roll back the slot.
// It interoperates safely with a concurrent blocking Obtain for the same T:
// whichever side installs the placeholder first owns construction, and the
// other side simply waits.
type ObtainFuture[T any] struct {
	ctx   context.Context
	tok   *callerToken
	s     Store
	ws    waitSlot
	phase asyncConstructPhase
	op    AsyncOp[T]
	owned *slot
	done  bool
	value T
	err   error
}

// ObtainAsync returns a cooperative handle that will construct the resource
// of type T, via AsyncConstructor[T], if no other caller gets there first.
func ObtainAsync[T any](ctx context.Context, s Store) *ObtainFuture[T] {
	ctx, tok := withCallerToken(ctx)
	return &ObtainFuture[T]{ctx: ctx, tok: tok, s: s}
}

// Poll advances construction by one step. See AsyncOp for the calling
// convention.
func (f *ObtainFuture[T]) Poll(wake func()) (value T, ready bool, err error) {
	if f.done {
		return f.value, true, f.err
	}

	switch f.phase {
	case phaseAcquiring:
		outcome := pollForSlot[T](f.s, &f.ws, func() waiter {
			return waiter{kind: waiterCooperative, token: f.tok, wake: wake}
		}, true)

		switch {
		case outcome.readyFilled:
			f.done, f.value = true, outcome.value
			return f.value, true, nil
		case outcome.cycle:
			f.done = true
			cyclicResource(reflect.TypeFor[T]())
			panic("unreachable")
		case outcome.readyAbsent:
			f.phase = phaseConstructing
			f.owned = outcome.owned
			t := reflect.TypeFor[T]()
			var zero T
			c, ok := any(zero).(AsyncConstructor[T])
			if !ok {
				panic(fmt.Sprintf("depot: %s is not AsyncConstructor[%s]", t, t))
			}
			f.op = c.ConstructAsync(f.ctx, f.s)
			return f.Poll(wake)
		default:
			return f.value, false, nil
		}

	case phaseConstructing:
		return f.pollConstructing(wake)

	default:
		panic("unreachable")
	}
}

func (f *ObtainFuture[T]) pollConstructing(wake func()) (value T, ready bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			cerr := &ConstructionError{Type: reflect.TypeFor[T](), Err: recoveredPanic{value: r}}
			var zero T
			commitOrRollback[T](f.s, f.owned, reflect.TypeFor[T](), zero, cerr)
			f.s.core.logger.Err().Str(`type`, reflect.TypeFor[T]().String()).Log(`async constructor panicked`)
			f.done, f.err = true, cerr
			if f.s.core.panicOnConstructorPanic {
				panic(r)
			}
			value, ready, err = f.value, true, cerr
		}
	}()

	v, done, opErr := f.op.Poll(wake)
	if !done {
		return f.value, false, nil
	}

	t := reflect.TypeFor[T]()

	if opErr != nil {
		cerr := &ConstructionError{Type: t, Err: opErr}
		var zero T
		commitOrRollback[T](f.s, f.owned, t, zero, cerr)
		f.s.core.logger.Err().Str(`type`, t.String()).Log(`async constructor failed`)
		f.done, f.err = true, cerr
		return f.value, true, cerr
	}

	if hookErr := runAfterConstruction[T](f.ctx, f.s, v); hookErr != nil {
		cerr := &ConstructionError{Type: t, Err: hookErr}
		var zero T
		commitOrRollback[T](f.s, f.owned, t, zero, cerr)
		f.s.core.logger.Err().Str(`type`, t.String()).Log(`async after-construction hook failed`)
		f.done, f.err = true, cerr
		return f.value, true, cerr
	}

	commitOrRollback[T](f.s, f.owned, t, v, nil)
	f.done, f.value = true, v
	return v, true, nil
}
