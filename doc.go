// Package depot implements a type-keyed resource container with lazy,
// deduplicated construction, usable simultaneously from blocking goroutines
// and cooperative (poll-driven) callers.
//
// Resources are stored and retrieved by their concrete Go type, not by a
// string key. A resource may be inserted eagerly via Insert, or
// declared constructible by implementing Constructor[T], in which case the
// first caller to request it builds it on demand; concurrent requests for
// the same type, from any mix of goroutines and cooperative callers, are
// guaranteed to observe exactly one successful construction.
//
// The Handle type layers a compile-time-flavoured "required resource list"
// on top of a Store, so that code holding a Handle[R] can read any resource
// named in R infallibly, without a runtime presence check at every call
// site. See New, With, WithConstructed, Assert, Get, Into, TryInto, and
// ConstructRemaining.
//
// depot has no file, network, or environment-variable surface: it is an
// in-memory container only. It does not provide resource discovery by name,
// persistence, teardown ordering, or an API to remove a Filled resource.
package depot
