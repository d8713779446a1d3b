package ice

import (
	"context"

	"github.com/twitter/ice/async"
)

// AsyncResolver is the context-aware handle to one scope instance. It runs the
// same algorithm as Resolver, but factories, acquires and releases get a
// context, and ctx is checked before each factory and each acquire.
//
// A cancelled resolve fails with the context's error inside an *InjectionError;
// whatever was acquired before the cancellation stays scheduled on its owner.
type AsyncResolver struct {
	r *resolver
}

// CreateAsyncResolver starts a single-scope async tree over c.
func CreateAsyncResolver(ctx context.Context, c *Container, opts ...ResolverOption) (*AsyncResolver, error) {
	chain, err := SingleScope(c)
	if err != nil {
		return nil, err
	}
	return CreateScopedAsyncResolver(ctx, chain, opts...)
}

// CreateScopedAsyncResolver starts an async tree at the root scope of chain.
// Both sync and async Dependencies are accepted.
func CreateScopedAsyncResolver(ctx context.Context, chain *ScopeChain, opts ...ResolverOption) (*AsyncResolver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := newTree(chain, true, opts)
	return &AsyncResolver{r: newResolver(t, chain.Root(), nil)}, nil
}

// WithAsyncResolver runs body against a fresh AsyncResolver over c and closes it
// afterwards. The close is not cut short by ctx being cancelled.
func WithAsyncResolver(ctx context.Context, c *Container, body func(r *AsyncResolver) error, opts ...ResolverOption) error {
	r, err := CreateAsyncResolver(ctx, c, opts...)
	if err != nil {
		return err
	}
	return r.with(ctx, body)
}

// WithScopedAsyncResolver is WithAsyncResolver over a whole ScopeChain.
func WithScopedAsyncResolver(ctx context.Context, chain *ScopeChain, body func(r *AsyncResolver) error, opts ...ResolverOption) error {
	r, err := CreateScopedAsyncResolver(ctx, chain, opts...)
	if err != nil {
		return err
	}
	return r.with(ctx, body)
}

func (r *AsyncResolver) with(ctx context.Context, body func(r *AsyncResolver) error) error {
	closeCtx := context.WithoutCancel(ctx)
	return runScoped(func() error { return body(r) }, func(cause error) error {
		return r.CloseWithCause(closeCtx, cause)
	})
}

// Resolve is Resolver.Resolve, giving up on ctx.
func (r *AsyncResolver) Resolve(ctx context.Context, name string, typ Type) (interface{}, error) {
	return r.r.resolve(ctx, name, typ)
}

// ResolveAsync runs Resolve in its own go routine.
func (r *AsyncResolver) ResolveAsync(ctx context.Context, name string, typ Type) *async.Future {
	f := async.NewFuture()
	async.Go(f, func() (interface{}, error) {
		return r.Resolve(ctx, name, typ)
	})
	return f
}

func (r *AsyncResolver) Extract(ctx context.Context, name string, dest interface{}) error {
	return extract(dest, func(typ Type) (interface{}, error) {
		return r.Resolve(ctx, name, typ)
	})
}

// ResolveAsyncAs resolves name, requested as T.
func ResolveAsyncAs[T any](ctx context.Context, r *AsyncResolver, name string) (T, error) {
	v, err := r.Resolve(ctx, name, TypeOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](name, v)
}

func (r *AsyncResolver) NextScope(ctx context.Context, scope ...Scope) (*AsyncResolver, error) {
	child, err := r.r.nextScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &AsyncResolver{r: child}, nil
}

// WithNextScope runs body in a child scope, closed when body returns or panics,
// even if ctx was cancelled meanwhile.
func (r *AsyncResolver) WithNextScope(ctx context.Context, body func(child *AsyncResolver) error, scope ...Scope) error {
	child, err := r.NextScope(ctx, scope...)
	if err != nil {
		return err
	}
	return child.with(ctx, body)
}

func (r *AsyncResolver) Scope() Scope { return r.r.scope }

func (r *AsyncResolver) ID() string { return r.r.id }

func (r *AsyncResolver) Chain() *ScopeChain { return r.r.tree.chain }

func (r *AsyncResolver) Closed() bool { return r.r.isClosed() }

// Close is Resolver.Close. Releases get ctx; a done ctx doesn't stop the close.
func (r *AsyncResolver) Close(ctx context.Context) error {
	return r.CloseWithCause(ctx, nil)
}

func (r *AsyncResolver) CloseWithCause(ctx context.Context, cause error) error {
	return r.r.close(ctx, cause)
}
