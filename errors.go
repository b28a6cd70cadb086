package depot

import (
	"errors"
	"fmt"
	"reflect"
)

// DuplicateResourceError is panicked by Insert when a resource of the
// same type has already been inserted or constructed.
type DuplicateResourceError struct {
	Type reflect.Type
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("depot: duplicate resource: attempted to add a second %s", e.Type)
}

// MissingResourceError is panicked by Get (an infallible read of a
// resource named in the handle's required list) if the resource is, despite
// the required-list contract, not Filled. It is also returned (not
// panicked) by TryInto when widening a Handle finds a missing member of the
// target list.
type MissingResourceError struct {
	Type reflect.Type
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("depot: resource %s does not exist", e.Type)
}

// CycleError is panicked when a constructor for T transitively requests T
// again from the same logical caller (the same caller token, carried on the
// context.Context passed down the construction chain).
type CycleError struct {
	Type reflect.Type
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("depot: Cycle detected constructing resource %s", e.Type)
}

// ConstructionError wraps an error returned by a user-supplied Constructor
// or AfterConstructor, naming the resource type that failed to build.
type ConstructionError struct {
	Type reflect.Type
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("depot: failed to construct %s: %s", e.Type, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// ErrCannotBlock is returned by the blocking API on a platform (currently
// js/wasm) where parking the calling goroutine is unsafe, because there is
// no other OS thread available to make progress.
var ErrCannotBlock = errors.New("depot: cannot block on dependency construction on this platform")

func duplicateResource(t reflect.Type) {
	panic(&DuplicateResourceError{Type: t})
}

func missingResource(t reflect.Type) {
	panic(&MissingResourceError{Type: t})
}

func cyclicResource(t reflect.Type) {
	panic(&CycleError{Type: t})
}
