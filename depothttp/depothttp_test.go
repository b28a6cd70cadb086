package depothttp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/depot"
	"github.com/joeycumines/depot/depothttp"
)

type greeting struct{ text string }

func (greeting) Construct(ctx context.Context, s depot.Store) (greeting, error) {
	return greeting{text: "hello"}, nil
}

type brokenGreeting struct{}

var errBrokenGreeting = errors.New("greeting service unavailable")

func (brokenGreeting) Construct(ctx context.Context, s depot.Store) (brokenGreeting, error) {
	return brokenGreeting{}, errBrokenGreeting
}

// storeExtractor is a minimal depothttp.Extractor backed directly by a
// depot.Store, standing in for what a real framework adapter would wire up
// per request.
type storeExtractor struct {
	ctx context.Context
	s   depot.Store
}

func (e storeExtractor) Dep(resourceName string) (any, error) {
	switch resourceName {
	case "greeting":
		v, ok := depot.TryGet[greeting](e.s)
		if !ok {
			return nil, depothttp.DoesNotExistError(resourceName)
		}
		return v, nil
	default:
		return nil, depothttp.DoesNotExistError(resourceName)
	}
}

func (e storeExtractor) Obtain(resourceName string) (any, error) {
	switch resourceName {
	case "greeting":
		v, err := depot.TryObtain[greeting](e.ctx, e.s)
		if err != nil {
			return nil, depothttp.FailedToConstructError(resourceName, err)
		}
		return v, nil
	case "brokenGreeting":
		v, err := depot.TryObtain[brokenGreeting](e.ctx, e.s)
		if err != nil {
			return nil, depothttp.FailedToConstructError(resourceName, err)
		}
		return v, nil
	default:
		return nil, depothttp.DoesNotExistError(resourceName)
	}
}

var _ depothttp.Extractor = storeExtractor{}

func TestExtractor_DepReportsDoesNotExist(t *testing.T) {
	s := depot.NewStore()
	e := storeExtractor{ctx: context.Background(), s: s}

	_, err := e.Dep("greeting")
	require.Error(t, err)

	var derr *depothttp.DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, depothttp.DoesNotExist, derr.Kind)
	assert.Contains(t, err.Error(), "greeting")
}

func TestExtractor_DepFindsFilledResource(t *testing.T) {
	s := depot.NewStore()
	depot.Insert[greeting](s, greeting{text: "hi"})
	e := storeExtractor{ctx: context.Background(), s: s}

	v, err := e.Dep("greeting")
	require.NoError(t, err)
	assert.Equal(t, greeting{text: "hi"}, v)
}

func TestExtractor_ObtainConstructsOnDemand(t *testing.T) {
	s := depot.NewStore()
	e := storeExtractor{ctx: context.Background(), s: s}

	v, err := e.Obtain("greeting")
	require.NoError(t, err)
	assert.Equal(t, greeting{text: "hello"}, v)
	assert.True(t, depot.Has[greeting](s))
}

func TestExtractor_ObtainReportsFailedToConstruct(t *testing.T) {
	s := depot.NewStore()
	e := storeExtractor{ctx: context.Background(), s: s}

	_, err := e.Obtain("brokenGreeting")
	require.Error(t, err)

	var derr *depothttp.DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, depothttp.FailedToConstruct, derr.Kind)
	assert.ErrorIs(t, err, errBrokenGreeting)
}

func TestOpenAPIDescriptor_IsNotRequestInput(t *testing.T) {
	var d depothttp.OpenAPIDescriptor
	assert.False(t, d.IsRequestInput())
}
