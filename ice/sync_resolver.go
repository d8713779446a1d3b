package ice

import (
	"context"
)

// Resolver is the synchronous handle to one scope instance of a resolver tree.
//
// A Resolver may be used from several go routines: concurrent requests for
// not-yet-built names are serialised tree-wide, so an ancestor singleton is never
// built twice. A factory must not call back into a Resolver of its own tree.
type Resolver struct {
	r *resolver
}

// CreateResolver starts a single-scope tree over c, at DefaultScope.
// The caller owns the returned Resolver and must Close it.
func CreateResolver(c *Container, opts ...ResolverOption) (*Resolver, error) {
	chain, err := SingleScope(c)
	if err != nil {
		return nil, err
	}
	return CreateScopedResolver(chain, opts...)
}

// CreateScopedResolver starts a tree at the root scope of chain. It fails with an
// AsyncDependencyError if any scope of the chain holds an async Dependency.
func CreateScopedResolver(chain *ScopeChain, opts ...ResolverOption) (*Resolver, error) {
	if s, name, ok := chain.firstAsync(); ok {
		return nil, &AsyncDependencyError{Name: name, Scope: s}
	}
	t := newTree(chain, false, opts)
	return &Resolver{r: newResolver(t, chain.Root(), nil)}, nil
}

// WithResolver runs body against a fresh Resolver over c and closes it afterwards,
// whatever body does. body's error is handed to the releases as their cause.
func WithResolver(c *Container, body func(r *Resolver) error, opts ...ResolverOption) error {
	r, err := CreateResolver(c, opts...)
	if err != nil {
		return err
	}
	return r.with(body)
}

// WithScopedResolver is WithResolver over a whole ScopeChain.
func WithScopedResolver(chain *ScopeChain, body func(r *Resolver) error, opts ...ResolverOption) error {
	r, err := CreateScopedResolver(chain, opts...)
	if err != nil {
		return err
	}
	return r.with(body)
}

func (r *Resolver) with(body func(r *Resolver) error) error {
	return runScoped(func() error { return body(r) }, r.CloseWithCause)
}

// Resolve returns the instance named name, checked against typ, building it and
// whatever it requires if needed. It fails with a ClosedScopeError once the
// Resolver is closed, and with an *InjectionError otherwise.
func (r *Resolver) Resolve(name string, typ Type) (interface{}, error) {
	return r.r.resolve(context.Background(), name, typ)
}

// Extract resolves name as the type dest points to and stores the instance in *dest.
//
//	var db *sql.DB
//	err := r.Extract("db", &db)
func (r *Resolver) Extract(name string, dest interface{}) error {
	return extract(dest, func(typ Type) (interface{}, error) {
		return r.Resolve(name, typ)
	})
}

// ResolveAs resolves name, requested as T.
func ResolveAs[T any](r *Resolver, name string) (T, error) {
	v, err := r.Resolve(name, TypeOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](name, v)
}

// NextScope enters the scope that follows this one. Passing a scope asserts
// which one that is. The caller owns the child and must Close it before this
// Resolver; closing this Resolver closes any child still open.
func (r *Resolver) NextScope(scope ...Scope) (*Resolver, error) {
	child, err := r.r.nextScope(context.Background(), scope)
	if err != nil {
		return nil, err
	}
	return &Resolver{r: child}, nil
}

// WithNextScope runs body in a child scope, closed when body returns or panics.
func (r *Resolver) WithNextScope(body func(child *Resolver) error, scope ...Scope) error {
	child, err := r.NextScope(scope...)
	if err != nil {
		return err
	}
	return child.with(body)
}

func (r *Resolver) Scope() Scope { return r.r.scope }

// ID identifies this scope instance in logs.
func (r *Resolver) ID() string { return r.r.id }

func (r *Resolver) Chain() *ScopeChain { return r.r.tree.chain }

func (r *Resolver) Closed() bool { return r.r.isClosed() }

// Close exits the scope: open children are closed first, then every resource
// acquired here is released, last acquired first. All releases run; their
// failures are joined. Closing twice is a no-op.
func (r *Resolver) Close() error {
	return r.CloseWithCause(nil)
}

// CloseWithCause is Close, telling the releases which error is ending the scope.
func (r *Resolver) CloseWithCause(cause error) error {
	return r.r.close(context.Background(), cause)
}
