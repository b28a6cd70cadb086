package depot

import (
	"reflect"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// storeCore is the shared, interior-mutable state behind every Store
// handle: a single RWMutex guarding a type-indexed map of slots, mirroring
// the original crate's Arc<RwLock<InnerAerosol>>.
type storeCore struct {
	mu     sync.RWMutex
	items  map[reflect.Type]*slot
	logger *logiface.Logger[*stumpy.Event]
	// panicOnConstructorPanic is true (the default) when a panic raised by a
	// constructor or AfterConstruction should propagate to the caller of
	// Obtain/TryObtain as a panic, after the slot has been rolled back. When
	// false (WithPanicRecovery), the same panic is instead reported as a
	// returned *ConstructionError.
	panicOnConstructorPanic bool
}

// Store is a shared, type-indexed collection of resources. The zero value
// is not usable; construct one with New (for a Handle) or NewStore.
// Store values are cheap to copy: they wrap a single pointer to the shared
// core, exactly as multiple clones of the original crate's Aerosol compare
// and behave as the same store.
type Store struct {
	core *storeCore
}

// Option configures a Store constructed with NewStore.
type Option func(*storeCore)

// WithLogger attaches a structured logger used for diagnostics (duplicate
// inserts, construction failures, panics rolled back). A detected cycle is
// not logged; it only panics with *CycleError. Logging does not change
// observable behaviour; a Store with no logger
// attached performs no logging I/O at all, matching logiface's own
// disabled-by-default idiom.
func WithLogger(l *logiface.Logger[*stumpy.Event]) Option {
	return func(c *storeCore) { c.logger = l }
}

// WithPanicRecovery causes a panic raised by a constructor or
// AfterConstruction to be reported as a returned *ConstructionError instead
// of re-panicking in the caller of Obtain/TryObtain. The slot is rolled
// back identically either way; this only controls how the failure is
// surfaced.
func WithPanicRecovery() Option {
	return func(c *storeCore) { c.panicOnConstructorPanic = false }
}

// NewStore constructs an empty Store with no initial resources. By
// default, a panicking constructor re-panics in the caller after rollback;
// pass WithPanicRecovery to convert that into a returned error instead.
func NewStore(opts ...Option) Store {
	core := &storeCore{items: make(map[reflect.Type]*slot), panicOnConstructorPanic: true}
	for _, opt := range opts {
		opt(core)
	}
	if core.logger == nil {
		core.logger = logiface.New[*stumpy.Event]()
	}
	return Store{core: core}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Insert atomically transitions the slot for T from Absent to Filled.
// It panics with a *DuplicateResourceError if a slot for T already exists,
// in any state.
func Insert[T any](s Store, value T) {
	t := typeOf[T]()
	c := s.core
	c.mu.Lock()
	_, exists := c.items[t]
	if !exists {
		c.items[t] = &slot{filled: true, value: value}
	}
	c.mu.Unlock()
	if exists {
		c.logger.Err().Str(`type`, t.String()).Log(`duplicate resource insert`)
		duplicateResource(t)
	}
}

// Has reports whether the slot for T is Filled. A slot under construction
// reports false.
func Has[T any](s Store) bool {
	t := typeOf[T]()
	c := s.core
	c.mu.RLock()
	defer c.mu.RUnlock()
	sl, ok := c.items[t]
	return ok && sl.filled
}

// tryGetSlot returns a snapshot of the slot for T, or (slotDesc{}, false) if
// absent.
func tryGetSlot[T any](s Store) (slotDesc, bool) {
	t := typeOf[T]()
	c := s.core
	c.mu.RLock()
	defer c.mu.RUnlock()
	sl, ok := c.items[t]
	if !ok {
		return slotDesc{}, false
	}
	return sl.describe(), true
}

// TryGet returns the resource of type T, or the zero value and false if no
// such resource is Filled. Unlike TryObtain, it never constructs T: if T is
// Absent, it returns immediately; if T is under construction, it waits for
// that construction to settle (Filled or removed) and then reports the
// outcome, without itself becoming the constructor. On a platform where
// blocking is unsafe (js/wasm), a wait against an in-progress construction
// is reported as not-found rather than blocking; use TryObtain/Obtain with
// their explicit error return to detect that case.
func TryGet[T any](s Store) (T, bool) {
	switch desc, ok := tryGetSlot[T](s); {
	case !ok:
		var zero T
		return zero, false
	case desc.filled:
		return desc.value.(T), true
	default:
		return waitForSlot[T](s, false)
	}
}

// mustGet returns the resource of type T, panicking with a
// *MissingResourceError if it does not exist. It backs the public,
// Handle-scoped Get, where T is statically claimed present by the
// handle's required list.
func mustGet[T any](s Store) T {
	v, ok := TryGet[T](s)
	if !ok {
		missingResource(typeOf[T]())
	}
	return v
}

// Close releases the Store, waking any callers still parked on a pending
// (under-construction) slot so they observe absence rather than blocking
// forever. Go has no deterministic destructor to do this automatically when
// the last reference to a Store goes away, so Close must be called
// explicitly by whatever owns the Store's lifetime, if constructors may
// still be in flight at shutdown. Calling Close is not required in the
// common case where all constructors have already settled.
func (s Store) Close() {
	c := s.core
	c.mu.Lock()
	var waiters []waiter
	for t, sl := range c.items {
		if !sl.filled {
			waiters = append(waiters, sl.drainWaiters()...)
			delete(c.items, t)
		}
	}
	c.mu.Unlock()
	notifyAll(waiters)
}
