// Package depothttp pins down the error vocabulary a host HTTP framework
// needs to turn depot lookups into request rejections. It intentionally
// imports no web framework: depot's own scope stops at "how resources are
// stored and constructed," and wiring that into a particular router's
// extractor/middleware system is left to the application, the same way
// the reference design treats its web-framework integration as an
// optional, separately gated add-on rather than part of the core crate.
package depothttp

import "fmt"

// Extractor is the contract a host HTTP framework adapter implements to
// expose a depot.Store as a request-scoped dependency source, mirroring
// the Dep/Obtain extractor pair: Dep reads an already-Filled resource,
// Obtain constructs it on demand if missing.
type Extractor interface {
	// Dep fetches an already-Filled resource by its concrete Go type,
	// returning a *DependencyError with Kind DoesNotExist if it is absent.
	Dep(resourceName string) (any, error)
	// Obtain fetches a resource, constructing it first if necessary,
	// returning a *DependencyError with Kind FailedToConstruct if
	// construction fails.
	Obtain(resourceName string) (any, error)
}

// DependencyErrorKind distinguishes why a dependency extraction failed.
type DependencyErrorKind int

const (
	// DoesNotExist means Dep found no Filled resource of the requested
	// type. Use an Obtain-style extractor instead if construction on
	// demand is wanted.
	DoesNotExist DependencyErrorKind = iota
	// FailedToConstruct means Obtain attempted construction and the
	// constructor (or its post-construction hook) returned an error.
	FailedToConstruct
)

// DependencyError is the error a framework adapter should translate into
// an HTTP rejection (404/500, or a framework-specific equivalent) when a
// request-scoped resource lookup fails.
type DependencyError struct {
	Kind         DependencyErrorKind
	ResourceName string
	Err          error // only set when Kind is FailedToConstruct
}

func (e *DependencyError) Error() string {
	switch e.Kind {
	case DoesNotExist:
		return fmt.Sprintf("depothttp: resource %q does not exist", e.ResourceName)
	case FailedToConstruct:
		return fmt.Sprintf("depothttp: failed to construct %q: %s", e.ResourceName, e.Err)
	default:
		return fmt.Sprintf("depothttp: dependency error for %q", e.ResourceName)
	}
}

func (e *DependencyError) Unwrap() error { return e.Err }

// DoesNotExistError builds the rejection a Dep-style extractor returns
// when the requested resource type was never Filled in the Store.
func DoesNotExistError(resourceName string) *DependencyError {
	return &DependencyError{Kind: DoesNotExist, ResourceName: resourceName}
}

// FailedToConstructError builds the rejection an Obtain-style extractor
// returns when constructing the requested resource type failed.
func FailedToConstructError(resourceName string, err error) *DependencyError {
	return &DependencyError{Kind: FailedToConstruct, ResourceName: resourceName, Err: err}
}

// OpenAPIDescriptor is a no-op marker a framework adapter can have its
// extractor types embed, so an OpenAPI-generation middleware that walks
// handler parameter types can recognise "this parameter is a dependency
// pulled from the Store, not request input" and skip it, rather than
// emitting a bogus schema entry for it.
type OpenAPIDescriptor struct{}

// IsRequestInput always reports false: a dependency extractor never
// describes an operation's request body, query, path, or header input.
func (OpenAPIDescriptor) IsRequestInput() bool { return false }
