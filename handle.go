package depot

import (
	"context"
	"reflect"
)

// Nil is the empty required-resource list: the fully permissive Handle
// variant, asserting nothing about what the underlying store holds.
type Nil struct{}

func (Nil) checkFilled(Store) error                        { return nil }
func (Nil) ensureConstructed(context.Context, Store) error { return nil }

// Cons prepends Head to a required-resource list Tail. Head and Tail are
// phantom: no Cons value is ever stored or inspected for its data, it
// exists purely as a type attached to a Handle's type parameter. Go has no
// variadic generics and no blanket trait matching, so there is no way to
// ask "does T appear anywhere in this type-level list" the way the
// original crate's Plucker trait does at compile time; instead, every
// combinator below that needs to walk a required list does so through
// resourceList, dispatching to a fully concrete generic method at each
// Cons link, which recurses one link at a time until it reaches Nil.
type Cons[Head any, Tail any] struct{}

func (Cons[Head, Tail]) checkFilled(s Store) error {
	if !Has[Head](s) {
		return &MissingResourceError{Type: reflect.TypeFor[Head]()}
	}
	var tail Tail
	return any(tail).(resourceList).checkFilled(s)
}

func (Cons[Head, Tail]) ensureConstructed(ctx context.Context, s Store) error {
	if err := TryInit[Head](ctx, s); err != nil {
		return err
	}
	var tail Tail
	return any(tail).(resourceList).ensureConstructed(ctx, s)
}

// resourceList is implemented by Nil and every Cons instantiation. It is
// the mechanism by which a Handle's phantom required-list type parameter
// is walked at runtime, one link at a time.
type resourceList interface {
	checkFilled(s Store) error
	ensureConstructed(ctx context.Context, s Store) error
}

var (
	_ resourceList = Nil{}
	_ resourceList = Cons[int, Nil]{}
)

// Handle pairs a Store with a compile-time-only required-resource list R.
// Code holding a Handle[R] may read any T named in R via Get without a
// runtime presence check at the call site, because every combinator that
// produces a Handle[R] value has already proven - by inserting, by
// constructing, or by an explicit runtime check - that every member of R
// is Filled in the underlying store.
type Handle[R any] struct {
	store Store
}

// New returns a Handle over a freshly created, empty Store, with the empty
// required list.
func New() Handle[Nil] {
	return Handle[Nil]{store: NewStore()}
}

// NewFrom wraps an existing Store with the empty required list, for code
// that layers a typed Handle over a Store populated elsewhere.
func NewFrom(s Store) Handle[Nil] {
	return Handle[Nil]{store: s}
}

// Store returns the underlying Store, discarding the required-list type.
func (h Handle[R]) Store() Store {
	return h.store
}

// With inserts value into the handle's store and returns the handle
// widened to require its type. It panics with *DuplicateResourceError
// under the same conditions as Insert.
func With[R any, T any](h Handle[R], value T) Handle[Cons[T, R]] {
	Insert[T](h.store, value)
	return Handle[Cons[T, R]]{store: h.store}
}

// WithConstructed constructs T via Constructor[T] (if not already Filled)
// and returns the handle widened to require its type.
func WithConstructed[T any, R any](ctx context.Context, h Handle[R]) (Handle[Cons[T, R]], error) {
	if err := TryInit[T](ctx, h.store); err != nil {
		return Handle[Cons[T, R]]{}, err
	}
	return Handle[Cons[T, R]]{store: h.store}, nil
}

// Assert checks that T is Filled and returns the handle widened to require
// its type, panicking with *MissingResourceError if it is not. Use this
// when other code is known to have already populated T, to avoid the
// ceremony of WithConstructed.
func Assert[T any, R any](h Handle[R]) Handle[Cons[T, R]] {
	if !Has[T](h.store) {
		missingResource(reflect.TypeFor[T]())
	}
	return Handle[Cons[T, R]]{store: h.store}
}

// Get returns the resource of type T. T is expected to appear in R by
// construction of the Handle[R] the caller holds; Go's generics have no
// mechanism to check "T is a member of this type-level list" at compile
// time the way the original crate's Plucker trait does, so this trusts
// the construction discipline every combinator in this file maintains,
// and panics with *MissingResourceError only if that discipline was
// somehow violated (e.g. a type asserted present was later unable to be
// read back, which cannot happen through this package's own API since no
// removal operation exists).
func Get[T any, R any](h Handle[R]) T {
	return mustGet[T](h.store)
}

// Into reborrows h as Handle[R2], a pure relabelling of the same
// underlying Store. It is intended for narrowing (R2's members are a
// subset of R's), which the original design treats as free at compile
// time; Go cannot check that subset relation generically, so Into instead
// performs the same runtime Filled-check as TryInto's common case and
// panics with *MissingResourceError if R2 claims a type that is not
// actually Filled. For code that wants to recover rather than panic, use
// TryInto.
func Into[R2 any, R any](h Handle[R]) Handle[R2] {
	var r2 R2
	if err := any(r2).(resourceList).checkFilled(h.store); err != nil {
		panic(err)
	}
	return Handle[R2]{store: h.store}
}

// TryInto widens or narrows h to Handle[R2], checking at runtime that
// every type named by R2 is Filled. On success it returns the new handle
// and a nil original handle and error; on failure it returns a zero new
// handle alongside the original h (so the caller has not lost it) and the
// *MissingResourceError naming the first missing type encountered.
func TryInto[R2 any, R any](h Handle[R]) (Handle[R2], Handle[R], error) {
	var r2 R2
	if err := any(r2).(resourceList).checkFilled(h.store); err != nil {
		return Handle[R2]{}, h, err
	}
	return Handle[R2]{store: h.store}, Handle[R]{}, nil
}

// ConstructRemaining widens h to Handle[R2], constructing (via TryInit)
// whatever member of R2 is not already Filled, in the order R2's Cons
// chain names them. It propagates the first construction error
// encountered, leaving every resource built before that point in the
// store (construction of unrelated types is not rolled back; only the
// one failing construction rolls back its own slot, per the normal
// Obtain contract).
func ConstructRemaining[R2 any, R any](ctx context.Context, h Handle[R]) (Handle[R2], error) {
	var r2 R2
	if err := any(r2).(resourceList).ensureConstructed(ctx, h.store); err != nil {
		return Handle[R2]{}, err
	}
	return Handle[R2]{store: h.store}, nil
}
