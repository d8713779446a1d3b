package ice

import (
	"context"
	goerrors "errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/twitter/ice/common/stats"
)

// ErrScopePanicked is the cause handed to releases when a scope body panicked.
var ErrScopePanicked = goerrors.New("ice: scope body panicked")

// ResolverOption configures a resolver tree at creation.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	log  log.FieldLogger
	stat stats.StatsReceiver
}

// WithLogger sets the logger every resolver of the tree logs to.
// Default is logrus' standard logger.
func WithLogger(l log.FieldLogger) ResolverOption {
	return func(c *resolverConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithStats sets where the tree reports its metrics, under "ice/<scope>".
// Default is stats.NilStatsReceiver().
func WithStats(s stats.StatsReceiver) ResolverOption {
	return func(c *resolverConfig) {
		if s != nil {
			c.stat = s
		}
	}
}

// tree is the state shared by a root resolver and all of its descendants.
// Locking is per resolver: the tree itself is read-only after creation.
type tree struct {
	chain *ScopeChain
	async bool
	log   log.FieldLogger
	stat  stats.StatsReceiver
	open  int64
}

func newTree(chain *ScopeChain, async bool, opts []ResolverOption) *tree {
	cfg := &resolverConfig{log: log.StandardLogger(), stat: stats.NilStatsReceiver()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &tree{
		chain: chain,
		async: async,
		log:   cfg.log,
		stat:  cfg.stat.Scope("ice"),
	}
}

// resolver is the engine bound to one scope instance. Resolver and AsyncResolver
// are thin handles around it.
//
// mu is only held for bookkeeping, never while a factory, acquire or release
// runs. Concurrent first use of one of r's names is collapsed by flights, so a
// slow factory only holds up callers that need its product.
type resolver struct {
	id        string
	tree      *tree
	scope     Scope
	container *Container
	parent    *resolver
	log       log.FieldLogger
	stat      stats.StatsReceiver
	flights   singleflight.Group

	mu       sync.RWMutex
	cache    map[string]interface{}
	closed   bool
	children []*resolver
	acquired []releaser
}

func newResolver(t *tree, s Scope, parent *resolver) *resolver {
	c, _ := t.chain.Container(s)
	id := newID()
	r := &resolver{
		id:        id,
		tree:      t,
		scope:     s,
		container: c,
		parent:    parent,
		log:       t.log.WithFields(log.Fields{"chain": t.chain.ID(), "scope": s, "resolver": id}),
		stat:      t.stat.Scope(string(s)),
		cache:     make(map[string]interface{}),
	}
	t.stat.Gauge(stats.IceOpenScopesGauge).Update(atomic.AddInt64(&t.open, 1))
	r.log.Debug("Entered scope")
	return r
}

func (r *resolver) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// lookup returns name from r's cache. A closed resolver has nothing cached.
func (r *resolver) lookup(name string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.cache[name]
	return v, ok
}

// owner finds the resolver, r or an ancestor, whose Container defines name.
func (r *resolver) owner(name string) (*resolver, Dependency, bool) {
	for o := r; o != nil; o = o.parent {
		if d, ok := o.container.provides[name]; ok {
			return o, d, true
		}
	}
	return nil, Dependency{}, false
}

func (r *resolver) resolve(ctx context.Context, name string, typ Type) (interface{}, error) {
	r.stat.Counter(stats.IceResolveCounter).Inc(1)
	v, err := r.doResolve(ctx, name, typ)
	if err != nil {
		r.stat.Counter(stats.IceResolveErrCounter).Inc(1)
		return nil, err
	}
	return v, nil
}

func (r *resolver) doResolve(ctx context.Context, name string, typ Type) (interface{}, error) {
	if v, ok := r.cached(name, typ); ok {
		return v, nil
	}
	if r.isClosed() {
		return nil, &ClosedScopeError{Scope: r.scope}
	}
	if err := ctx.Err(); err != nil {
		return nil, newInjectionError(err, nil)
	}
	e := &evaluation{ctx: ctx}
	v, err := r.eval(e, name, typ)
	if err != nil {
		return nil, newInjectionError(err, e.failed)
	}
	return v, nil
}

// cached is the fast path: only a hit that would pass every check counts.
func (r *resolver) cached(name string, typ Type) (interface{}, bool) {
	if r.isClosed() {
		return nil, false
	}
	o, d, ok := r.owner(name)
	if !ok || !o.container.matcher(typ, d.provides) {
		return nil, false
	}
	v, ok := o.lookup(name)
	if ok {
		o.stat.Counter(stats.IceCacheHitCounter).Inc(1)
	}
	return v, ok
}

// evaluation is the bookkeeping of one top-level resolve, or of one build
// running on behalf of several. It belongs to a single goroutine.
type evaluation struct {
	ctx    context.Context
	stack  stack
	failed stack
}

// fail records the frames in flight the first time something goes wrong.
func (e *evaluation) fail(err error) error {
	return e.failBelow(err, nil)
}

// failBelow is fail for an error that came out of another evaluation, whose
// frames below the top of e's stack are below.
func (e *evaluation) failBelow(err error, below stack) error {
	if e.failed != nil {
		return err
	}
	e.failed = append(stack{}, e.stack...)
	if len(below) > 0 && len(e.failed) > 0 && e.failed[len(e.failed)-1] == below[0] {
		e.failed = append(e.failed[:len(e.failed)-1], below...)
	}
	return err
}

func (e *evaluation) cyclePath(f frame) []string {
	start := 0
	for i := range e.stack {
		if e.stack[i] == f {
			start = i
			break
		}
	}
	path := make([]string, 0, len(e.stack)-start+1)
	for _, fr := range e.stack[start:] {
		path = append(path, fr.name)
	}
	return append(path, f.name)
}

func (e *evaluation) inProgress(f frame) bool {
	for _, fr := range e.stack {
		if fr == f {
			return true
		}
	}
	return false
}

func (r *resolver) eval(e *evaluation, name string, typ Type) (interface{}, error) {
	owner, dep, ok := r.owner(name)
	if !ok {
		return nil, e.fail(&NameNotFoundError{Name: name, Scope: r.scope})
	}
	if !owner.container.matcher(typ, dep.provides) {
		return nil, e.fail(&TypeMismatchError{Name: name, Scope: owner.scope, Requested: typ, Provided: dep.provides})
	}
	f := frame{scope: owner.scope, name: name}
	if e.inProgress(f) {
		return nil, e.fail(&CycleError{Path: e.cyclePath(f)})
	}
	if v, ok := owner.lookup(name); ok {
		owner.stat.Counter(stats.IceCacheHitCounter).Inc(1)
		return v, nil
	}

	e.stack = append(e.stack, f)
	defer func() {
		e.stack = e.stack[:len(e.stack)-1]
	}()
	// Whatever can reach a requirement loop fails before its factory runs, so
	// there is nothing to share. It's evaluated inline, keeping the whole loop
	// on one stack.
	if r.tree.chain.reachesCycle(f) {
		return owner.build(e, dep)
	}
	return owner.buildOnce(e, dep)
}

// built is what a shared build hands to everyone waiting on it.
type built struct {
	v      interface{}
	failed stack
	// the builder's context was done when it finished
	ctxDone bool
}

// buildOnce builds dep on r, or waits for the build already running. A waiter
// whose own ctx is still live retries when the build it joined gave up on the
// builder's ctx.
func (r *resolver) buildOnce(e *evaluation, dep Dependency) (interface{}, error) {
	ctx := e.ctx
	for {
		ch := r.flights.DoChan(dep.name, func() (interface{}, error) {
			if v, ok := r.lookup(dep.name); ok {
				return built{v: v}, nil
			}
			sub := &evaluation{ctx: ctx, stack: stack{{scope: r.scope, name: dep.name}}}
			v, err := r.build(sub, dep)
			return built{v: v, failed: sub.failed, ctxDone: ctx.Err() != nil}, err
		})
		select {
		case res := <-ch:
			b := res.Val.(built)
			if res.Err == nil {
				return b.v, nil
			}
			if b.ctxDone && ctx.Err() == nil {
				continue
			}
			return nil, e.failBelow(res.Err, b.failed)
		case <-ctx.Done():
			return nil, e.fail(ctx.Err())
		}
	}
}

// build constructs dep on r and caches it. If r was closed meanwhile, a freshly
// acquired resource is released on the spot.
func (r *resolver) build(e *evaluation, dep Dependency) (interface{}, error) {
	v, rel, err := r.create(e, dep)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		closed := &ClosedScopeError{Scope: r.scope}
		if rel.release != nil {
			_ = r.release(context.WithoutCancel(e.ctx), rel, closed)
		}
		return nil, e.fail(closed)
	}
	if rel.release != nil {
		r.acquired = append(r.acquired, rel)
	}
	r.cache[dep.name] = v
	r.mu.Unlock()
	return v, nil
}

// create resolves dep's requirements from r, the defining scope, upward and
// then runs its factory and, for a resource, the acquire step.
func (r *resolver) create(e *evaluation, dep Dependency) (interface{}, releaser, error) {
	args := make(Args, len(dep.requires))
	for _, req := range dep.requires {
		v, err := r.eval(e, req.Name, req.Type)
		if err != nil {
			return nil, releaser{}, err
		}
		args[req.Param] = v
	}

	if err := e.ctx.Err(); err != nil {
		return nil, releaser{}, e.fail(err)
	}
	latency := r.stat.Precision(time.Millisecond).Latency(stats.IceFactoryLatency_ms).Time()
	defer latency.Stop()

	v, err := r.invoke(e.ctx, dep, args)
	if err != nil {
		return nil, releaser{}, e.fail(err)
	}
	r.stat.Counter(stats.IceConstructCounter).Inc(1)
	logger := r.log.WithField("dependency", dep.name)
	if !dep.resource {
		logger.Debugf("Constructed %v", dep)
		return v, releaser{}, nil
	}

	if err := e.ctx.Err(); err != nil {
		return nil, releaser{}, e.fail(err)
	}
	inst, rel, err := r.acquire(e.ctx, dep, v)
	if err != nil {
		return nil, releaser{}, e.fail(err)
	}
	r.stat.Counter(stats.IceAcquireCounter).Inc(1)
	logger.Debugf("Acquired %v", dep)
	return inst, rel, nil
}

func (r *resolver) invoke(ctx context.Context, dep Dependency, args Args) (v interface{}, err error) {
	defer recoverPanic(dep.name, &err)
	if dep.async {
		v, err = dep.asyncFactory(ctx, args)
	} else {
		v, err = dep.factory(args)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "factory of %q failed", dep.name)
	}
	return v, nil
}

func (r *resolver) acquire(ctx context.Context, dep Dependency, v interface{}) (inst interface{}, rel releaser, err error) {
	defer recoverPanic(dep.name, &err)
	switch res := v.(type) {
	case Resource:
		inst, err = res.Acquire()
		rel = syncReleaser(dep.name, res)
	case AsyncResource:
		if !r.tree.async {
			return nil, releaser{}, &NotResourceError{Name: dep.name, Value: v}
		}
		inst, err = res.Acquire(ctx)
		rel = asyncReleaser(dep.name, res)
	default:
		return nil, releaser{}, &NotResourceError{Name: dep.name, Value: v}
	}
	if err != nil {
		return nil, releaser{}, errors.Wrapf(err, "acquiring %q failed", dep.name)
	}
	return inst, rel, nil
}

func recoverPanic(name string, err *error) {
	if p := recover(); p != nil {
		*err = &PanicError{Name: name, Value: p, GoStack: string(debug.Stack())}
	}
}

func (r *resolver) nextScope(ctx context.Context, explicit []Scope) (*resolver, error) {
	if len(explicit) > 1 {
		return nil, &ScopeOrderError{From: r.scope, Reason: fmt.Sprintf("at most one scope can be entered, got %v", explicit)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, &ClosedScopeError{Scope: r.scope}
	}
	next, ok := r.tree.chain.next(r.scope)
	if len(explicit) == 1 && explicit[0] != next {
		return nil, r.scopeOrderError(explicit[0], next)
	}
	if !ok {
		return nil, &ScopeOrderError{From: r.scope, Reason: "it is the last scope of the chain"}
	}
	child := newResolver(r.tree, next, r)
	r.children = append(r.children, child)
	return child, nil
}

func (r *resolver) scopeOrderError(to, next Scope) error {
	chain := r.tree.chain
	e := &ScopeOrderError{From: r.scope, To: to}
	idx, known := chain.index[to]
	switch {
	case !known:
		e.Reason = "it is not part of the scope chain"
	case idx <= chain.index[r.scope]:
		e.Reason = "it is not a descendant scope"
	default:
		e.Reason = fmt.Sprintf("only the next scope %q can be entered", next)
	}
	return e
}

type pendingRelease struct {
	owner *resolver
	rel   releaser
}

// close detaches r and its open descendants, then runs their releases:
// descendants latest first, each LIFO. Only r's subtree is locked, and no lock
// is held while releases run.
func (r *resolver) close(ctx context.Context, cause error) error {
	var pending []pendingRelease
	if !r.detach(&pending) {
		return nil
	}
	if p := r.parent; p != nil {
		p.removeChild(r)
	}

	var errs []error
	for _, p := range pending {
		if err := p.owner.release(ctx, p.rel, cause); err != nil {
			errs = append(errs, err)
		}
	}
	r.log.Debug("Exited scope")
	return goerrors.Join(errs...)
}

// detach marks r closed and collects what r and its children must release.
// It reports false if r was already closed.
func (r *resolver) detach(pending *[]pendingRelease) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	r.closed = true
	r.cache = nil
	children, acquired := r.children, r.acquired
	r.children, r.acquired = nil, nil
	r.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].detach(pending)
	}
	for i := len(acquired) - 1; i >= 0; i-- {
		*pending = append(*pending, pendingRelease{owner: r, rel: acquired[i]})
	}
	r.tree.stat.Gauge(stats.IceOpenScopesGauge).Update(atomic.AddInt64(&r.tree.open, -1))
	return true
}

func (r *resolver) removeChild(child *resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.children {
		if c == child {
			r.children = append(r.children[:i], r.children[i+1:]...)
			return
		}
	}
}

func (r *resolver) release(ctx context.Context, rel releaser, cause error) error {
	err := callRelease(ctx, rel, cause)
	r.stat.Counter(stats.IceReleaseCounter).Inc(1)
	logger := r.log.WithField("dependency", rel.name)
	if err != nil {
		r.stat.Counter(stats.IceReleaseErrCounter).Inc(1)
		logger.WithError(err).Error("Release failed")
		return err
	}
	logger.Debug("Released")
	return nil
}

func callRelease(ctx context.Context, rel releaser, cause error) (err error) {
	defer recoverPanic(rel.name, &err)
	if relErr := rel.release(ctx, cause); relErr != nil {
		return errors.Wrapf(relErr, "releasing %q failed", rel.name)
	}
	return nil
}

// runScoped runs body and then closeFn, on every exit path. A panicking body is
// closed with ErrScopePanicked and keeps panicking.
func runScoped(body func() error, closeFn func(cause error) error) (err error) {
	done := false
	defer func() {
		if !done {
			_ = closeFn(ErrScopePanicked)
		}
	}()
	err = body()
	done = true
	if closeErr := closeFn(err); closeErr != nil {
		return goerrors.Join(err, closeErr)
	}
	return err
}

// extract resolves name as whatever dest points to and stores the instance there.
func extract(dest interface{}, resolve func(typ Type) (interface{}, error)) error {
	ptr := reflect.ValueOf(dest)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return errors.Errorf("ice: extract needs a non-nil pointer, got %T", dest)
	}
	elem := ptr.Elem()
	v, err := resolve(elem.Type())
	if err != nil {
		return err
	}
	if v == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	val := reflect.ValueOf(v)
	if !val.Type().AssignableTo(elem.Type()) {
		return errors.Errorf("ice: instance of %s can't be stored in a %s", val.Type(), elem.Type())
	}
	elem.Set(val)
	return nil
}

// as asserts an instance to T; a nil instance is the zero T.
func as[T any](name string, v interface{}) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("ice: %q resolved to %T, not %s", name, v, typeName(TypeOf[T]()))
	}
	return t, nil
}
