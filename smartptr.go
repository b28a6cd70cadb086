package depot

import (
	"context"
	"sync"
)

// Pointer auto-lifts a constructible T into a shareable, heap-allocated
// form: requesting Pointer[T] runs T's constructor and wraps the result (a
// T already Filled in the store is not reused), so code elsewhere can depend on Pointer[T] without caring
// whether some other caller already obtained it. Go has no blanket trait
// implementation, so unlike the reference design this lift is opt-in: code
// must explicitly name Pointer[T] as the resource it wants, rather than T
// auto-coercing to a shared form for every caller.
//
// T's own AfterConstructor hook, if it implements one, runs once per T
// built this way, against the wrapped *T - the same shape a trait-facade
// registration sees once the value is shared - not the bare value, so
// e.g. registering the wrapped pointer under an interface type works the
// same way whether or not the caller goes through a lift.
type Pointer[T Constructor[T]] struct {
	Value *T
}

// Construct implements Constructor[Pointer[T]].
func (Pointer[T]) Construct(ctx context.Context, s Store) (Pointer[T], error) {
	v, err := construct[T](ctx, s)
	if err != nil {
		return Pointer[T]{}, err
	}
	if err := runWrappedAfterConstruction(ctx, s, &v); err != nil {
		return Pointer[T]{}, err
	}
	return Pointer[T]{Value: &v}, nil
}

// Guarded auto-lifts a constructible T behind a mutex, for resources whose
// mutation must be serialised even though multiple callers share the same
// built instance.
type Guarded[T Constructor[T]] struct {
	mu  *sync.Mutex
	val *T
}

// Construct implements Constructor[Guarded[T]].
func (Guarded[T]) Construct(ctx context.Context, s Store) (Guarded[T], error) {
	v, err := construct[T](ctx, s)
	if err != nil {
		return Guarded[T]{}, err
	}
	if err := runWrappedAfterConstruction(ctx, s, &v); err != nil {
		return Guarded[T]{}, err
	}
	return Guarded[T]{mu: new(sync.Mutex), val: &v}, nil
}

// Do runs fn with exclusive access to the wrapped value.
func (g Guarded[T]) Do(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.val)
}

// RWGuarded auto-lifts a constructible T behind a reader/writer mutex, for
// resources read far more often than they are mutated.
type RWGuarded[T Constructor[T]] struct {
	mu  *sync.RWMutex
	val *T
}

// Construct implements Constructor[RWGuarded[T]].
func (RWGuarded[T]) Construct(ctx context.Context, s Store) (RWGuarded[T], error) {
	v, err := construct[T](ctx, s)
	if err != nil {
		return RWGuarded[T]{}, err
	}
	if err := runWrappedAfterConstruction(ctx, s, &v); err != nil {
		return RWGuarded[T]{}, err
	}
	return RWGuarded[T]{mu: new(sync.RWMutex), val: &v}, nil
}

// Read runs fn with shared (read-only intent) access to the wrapped value.
func (g RWGuarded[T]) Read(fn func(*T)) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.val)
}

// Write runs fn with exclusive access to the wrapped value.
func (g RWGuarded[T]) Write(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.val)
}

// runWrappedAfterConstruction runs v's AfterConstructor hook, if it
// implements one, against the wrapped pointer rather than the bare value -
// the shape every lift in this file shares its built T under, and so the
// shape a trait-facade registration made from inside the hook should see.
func runWrappedAfterConstruction[T any](ctx context.Context, s Store, v *T) error {
	if hook, ok := any(v).(AfterConstructor); ok {
		return hook.AfterConstruction(ctx, s)
	}
	return nil
}
