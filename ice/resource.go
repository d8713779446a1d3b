package ice

//go:generate mockgen -source=resource.go -package=ice -destination=resource_mock_test.go

import (
	"context"
)

// Resource is what a resource factory returns: a value that must be acquired
// before use and released when the owning scope closes.
//
// Release receives the error, if any, that was propagating out of the scope when
// it closed. Release is called exactly once for every successful Acquire.
type Resource interface {
	Acquire() (interface{}, error)
	Release(cause error) error
}

// AsyncResource is the async twin of Resource.
type AsyncResource interface {
	Acquire(ctx context.Context) (interface{}, error)
	Release(ctx context.Context, cause error) error
}

// NewResource builds a Resource out of two funcs. A nil release is a no-op.
func NewResource(acquire func() (interface{}, error), release func(cause error) error) Resource {
	return &funcResource{acquire: acquire, release: release}
}

// Guard wraps an already-built value whose teardown is release.
func Guard(v interface{}, release func(cause error) error) Resource {
	return NewResource(func() (interface{}, error) { return v, nil }, release)
}

type funcResource struct {
	acquire func() (interface{}, error)
	release func(cause error) error
}

func (r *funcResource) Acquire() (interface{}, error) { return r.acquire() }

func (r *funcResource) Release(cause error) error {
	if r.release == nil {
		return nil
	}
	return r.release(cause)
}

// NewAsyncResource builds an AsyncResource out of two funcs. A nil release is a no-op.
func NewAsyncResource(
	acquire func(ctx context.Context) (interface{}, error),
	release func(ctx context.Context, cause error) error,
) AsyncResource {
	return &funcAsyncResource{acquire: acquire, release: release}
}

type funcAsyncResource struct {
	acquire func(ctx context.Context) (interface{}, error)
	release func(ctx context.Context, cause error) error
}

func (r *funcAsyncResource) Acquire(ctx context.Context) (interface{}, error) {
	return r.acquire(ctx)
}

func (r *funcAsyncResource) Release(ctx context.Context, cause error) error {
	if r.release == nil {
		return nil
	}
	return r.release(ctx, cause)
}

// releaser is one entry of a Resolver's acquired stack.
type releaser struct {
	name    string
	release func(ctx context.Context, cause error) error
}

func syncReleaser(name string, r Resource) releaser {
	return releaser{name: name, release: func(_ context.Context, cause error) error {
		return r.Release(cause)
	}}
}

func asyncReleaser(name string, r AsyncResource) releaser {
	return releaser{name: name, release: r.Release}
}
