package depot_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/depot"
)

// dummy is a trivial constructible resource whose constructor records how
// many times it actually ran, for asserting "at most once" / "exactly
// once" across concurrent obtains.
type dummy struct {
	n int
}

var dummyConstructCount int32

func resetDummyConstructCount() {
	dummyConstructCountMu.Lock()
	defer dummyConstructCountMu.Unlock()
	dummyConstructCount = 0
}

var dummyConstructCountMu sync.Mutex

func incDummyConstructCount() int32 {
	dummyConstructCountMu.Lock()
	defer dummyConstructCountMu.Unlock()
	dummyConstructCount++
	return dummyConstructCount
}

func loadDummyConstructCount() int32 {
	dummyConstructCountMu.Lock()
	defer dummyConstructCountMu.Unlock()
	return dummyConstructCount
}

func (dummy) Construct(ctx context.Context, s depot.Store) (dummy, error) {
	time.Sleep(20 * time.Millisecond)
	incDummyConstructCount()
	return dummy{n: 1}, nil
}

// ConstructAsync lets dummy race for ownership via either the blocking or
// the cooperative obtain path: whichever side actually wins the placeholder
// must be able to drive construction through its own protocol.
func (dummy) ConstructAsync(ctx context.Context, s depot.Store) depot.AsyncOp[dummy] {
	time.Sleep(20 * time.Millisecond)
	incDummyConstructCount()
	return &readyAsyncOp[dummy]{value: dummy{n: 1}}
}

// dummyRecursive depends on dummy, built transitively through the same
// caller's obtain chain.
type dummyRecursive struct {
	inner dummy
}

func (dummyRecursive) Construct(ctx context.Context, s depot.Store) (dummyRecursive, error) {
	d, err := depot.TryObtain[dummy](ctx, s)
	if err != nil {
		return dummyRecursive{}, err
	}
	return dummyRecursive{inner: d}, nil
}

// dummyCyclic recurses into its own construction and must fail fast.
type dummyCyclic struct{}

func (dummyCyclic) Construct(ctx context.Context, s depot.Store) (dummyCyclic, error) {
	return depot.TryObtain[dummyCyclic](ctx, s)
}

// failingDummy always fails to construct.
type failingDummy struct{}

var errFailingDummy = errors.New("failingDummy: construction refused")

func (failingDummy) Construct(ctx context.Context, s depot.Store) (failingDummy, error) {
	return failingDummy{}, errFailingDummy
}

// panickingDummy always panics during construction.
type panickingDummy struct{}

func (panickingDummy) Construct(ctx context.Context, s depot.Store) (panickingDummy, error) {
	panic("panickingDummy: boom")
}

// gateKey carries an optional gate through a construction's context,
// letting a test hold a constructor open for exactly as long as it needs
// to observe the UnderConstruction state from another goroutine.
type gateKey struct{}

type gate struct {
	wait    <-chan struct{}
	entered chan<- struct{}
}

// withGate attaches a gate to ctx: the constructor signals entered (if
// non-nil) the instant it starts waiting, then blocks until wait closes.
func withGate(ctx context.Context, wait <-chan struct{}, entered chan<- struct{}) context.Context {
	return context.WithValue(ctx, gateKey{}, gate{wait: wait, entered: entered})
}

// gatedDummy blocks in Construct until the context's gate (if any) opens,
// signalling the moment it starts waiting so a test can synchronise on it.
type gatedDummy struct{}

func (gatedDummy) Construct(ctx context.Context, s depot.Store) (gatedDummy, error) {
	if g, ok := ctx.Value(gateKey{}).(gate); ok {
		if g.entered != nil {
			close(g.entered)
		}
		<-g.wait
	}
	return gatedDummy{}, nil
}

// waitUntil polls cond until it reports true or a generous deadline
// passes, failing the test in the latter case. It exists to synchronise
// with a background goroutine's side effect (installing a placeholder)
// without an explicit signal for that specific moment.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition was never met")
}

// traitFacade is a small interface a concrete type can register itself
// against from its own AfterConstruction hook.
type traitFacade interface {
	Greet() string
}

type dummyImpl struct {
	name string
}

func (d *dummyImpl) Greet() string { return "hello, " + d.name }

func (d *dummyImpl) Construct(ctx context.Context, s depot.Store) (*dummyImpl, error) {
	return &dummyImpl{name: "world"}, nil
}

func (d *dummyImpl) AfterConstruction(ctx context.Context, s depot.Store) error {
	depot.Insert[traitFacade](s, d)
	return nil
}

// facadeDummy is Constructor[facadeDummy] by value (unlike dummyImpl, which
// is only constructible as *dummyImpl), so it can be lifted through
// depot.Pointer: the hook registers whichever pointer the lift actually
// shares, proving the lift runs AfterConstruction against the wrapped form
// rather than the bare value construct[T] produced.
type facadeDummy struct {
	name string
}

func (facadeDummy) Construct(ctx context.Context, s depot.Store) (facadeDummy, error) {
	return facadeDummy{name: "world"}, nil
}

func (d *facadeDummy) Greet() string { return "hello, " + d.name }

func (d *facadeDummy) AfterConstruction(ctx context.Context, s depot.Store) error {
	depot.Insert[traitFacade](s, d)
	return nil
}

// asyncDummy is an AsyncConstructor[asyncDummy] backed by readyAsyncOp,
// which resolves on its first Poll, for exercising the cooperative
// construction path without a real scheduler.
type asyncDummy struct {
	n int
}

func (asyncDummy) ConstructAsync(ctx context.Context, s depot.Store) depot.AsyncOp[asyncDummy] {
	return &readyAsyncOp[asyncDummy]{value: asyncDummy{n: 1}}
}

// readyAsyncOp resolves ready on its very first Poll, used where the test
// only cares about the ownership/commit protocol, not genuine suspension.
type readyAsyncOp[T any] struct {
	value T
	err   error
}

func (o *readyAsyncOp[T]) Poll(wake func()) (T, bool, error) {
	return o.value, true, o.err
}

// steppedAsyncOp returns not-ready from its first remaining Poll calls and
// resolves on the next one, invoking wake on a background goroutine shortly after each non-final
// poll, to exercise re-polling and waker replacement.
type steppedAsyncOp[T any] struct {
	remaining int
	value     T
	err       error
}

func (o *steppedAsyncOp[T]) Poll(wake func()) (T, bool, error) {
	if o.remaining <= 0 {
		return o.value, true, o.err
	}
	o.remaining--
	go func() {
		time.Sleep(time.Millisecond)
		wake()
	}()
	var zero T
	return zero, false, nil
}
