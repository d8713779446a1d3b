package demo

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/twitter/ice/async"
	"github.com/twitter/ice/ice"
)

// Report is what Run observed.
type Report struct {
	Config  *Config
	Commits int
	Journal []string
}

// Run opens the root and app scopes, then runs requests handler scopes
// concurrently under the one app scope. Each request writes a key through
// foo_ctrl and reads it back through bar_ctrl.
func Run(ctx context.Context, chain *ice.ScopeChain, requests int, opts ...ice.ResolverOption) (*Report, error) {
	rep := &Report{}
	var journal *Journal
	err := ice.WithScopedResolver(chain, func(root *ice.Resolver) error {
		var err error
		if journal, err = ice.ResolveAs[*Journal](root, "journal"); err != nil {
			return err
		}
		return root.WithNextScope(func(app *ice.Resolver) error {
			g, ctx := errgroup.WithContext(ctx)
			for i := 0; i < requests; i++ {
				i := i
				g.Go(func() error {
					return app.WithNextScope(func(h *ice.Resolver) error {
						return Handle(ctx, h, i)
					})
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if rep.Config, err = ice.ResolveAs[*Config](app, "cfg"); err != nil {
				return err
			}
			db, err := ice.ResolveAs[*DB](app, "db")
			if err != nil {
				return err
			}
			rep.Commits = db.Commits()
			return nil
		}, AppScope)
	}, opts...)
	if journal != nil {
		rep.Journal = journal.Lines()
	}
	return rep, err
}

// Handle is one demo request, run inside a handler scope.
func Handle(ctx context.Context, h *ice.Resolver, i int) error {
	foo, err := ice.ResolveAs[*FooCtrl](h, "foo_ctrl")
	if err != nil {
		return err
	}
	bar, err := ice.ResolveAs[*BarCtrl](h, "bar_ctrl")
	if err != nil {
		return err
	}
	key, value := fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i)
	if err := foo.Put(ctx, key, value); err != nil {
		return err
	}
	got, err := bar.Get(key)
	if err != nil {
		return err
	}
	if got != value {
		return fmt.Errorf("read back %q for %s, wrote %q", got, key, value)
	}
	log.WithFields(log.Fields{"scope": h.Scope(), "resolver": h.ID()}).Debugf("handled %s", key)
	return nil
}

// RunAsync is Run over an AsyncResolver tree, so chains with async bindings
// (db type memory_async) work and ctx reaches every factory and acquire.
// Handler scopes run on an async.Runner and their results are collected on the
// calling goroutine.
func RunAsync(ctx context.Context, chain *ice.ScopeChain, requests int, opts ...ice.ResolverOption) (*Report, error) {
	rep := &Report{}
	var journal *Journal
	err := ice.WithScopedAsyncResolver(ctx, chain, func(root *ice.AsyncResolver) error {
		var err error
		if journal, err = ice.ResolveAsyncAs[*Journal](ctx, root, "journal"); err != nil {
			return err
		}
		return root.WithNextScope(ctx, func(app *ice.AsyncResolver) error {
			runner := async.NewRunner()
			var errs []error
			for i := 0; i < requests; i++ {
				i := i
				runner.RunAsync(func() (interface{}, error) {
					return nil, app.WithNextScope(ctx, func(h *ice.AsyncResolver) error {
						return HandleAsync(ctx, h, i)
					})
				}, func(_ interface{}, err error) {
					if err != nil {
						errs = append(errs, err)
					}
				})
			}
			// Every started request is waited for, even after ctx is done, so
			// no handler scope outlives the app scope.
			for runner.NumRunning() > 0 {
				runner.WaitMessages(context.WithoutCancel(ctx))
			}
			if len(errs) > 0 {
				return errs[0]
			}
			if rep.Config, err = ice.ResolveAsyncAs[*Config](ctx, app, "cfg"); err != nil {
				return err
			}
			db, err := ice.ResolveAsyncAs[*DB](ctx, app, "db")
			if err != nil {
				return err
			}
			rep.Commits = db.Commits()
			return nil
		}, AppScope)
	}, opts...)
	if journal != nil {
		rep.Journal = journal.Lines()
	}
	return rep, err
}

// HandleAsync is Handle inside an async handler scope. Both controllers are
// requested up front and awaited together.
func HandleAsync(ctx context.Context, h *ice.AsyncResolver, i int) error {
	fooF := h.ResolveAsync(ctx, "foo_ctrl", fooType)
	barF := h.ResolveAsync(ctx, "bar_ctrl", barType)
	// Both are awaited before either error is returned: the scope must not
	// close under a resolve still in flight.
	fooV, fooErr := fooF.Wait(context.WithoutCancel(ctx))
	barV, barErr := barF.Wait(context.WithoutCancel(ctx))
	if fooErr != nil {
		return fooErr
	}
	if barErr != nil {
		return barErr
	}
	foo, bar := fooV.(*FooCtrl), barV.(*BarCtrl)

	key, value := fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i)
	if err := foo.Put(ctx, key, value); err != nil {
		return err
	}
	got, err := bar.Get(key)
	if err != nil {
		return err
	}
	if got != value {
		return fmt.Errorf("read back %q for %s, wrote %q", got, key, value)
	}
	log.WithFields(log.Fields{"scope": h.Scope(), "resolver": h.ID()}).Debugf("handled %s", key)
	return nil
}
