package ice

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// root -> app -> handler, cfg / db, cache / transaction, foo_ctrl, bar_ctrl
func threeScopes(t *testing.T, rec *recorder) *ScopeChain {
	chain, err := ChainOf([]Scope{"root", "app", "handler"},
		bagOf(resourceNode(rec, "cfg")),
		bagOf(resourceNode(rec, "db", "cfg"), resourceNode(rec, "cache", "cfg")),
		bagOf(
			resourceNode(rec, "transaction", "db"),
			node(rec, "foo_ctrl", "transaction"),
			node(rec, "bar_ctrl", "transaction", "cache"),
		))
	require.NoError(t, err)
	return chain
}

func TestThreeScopeScenario(t *testing.T) {
	rec := newRecorder()
	chain := threeScopes(t, rec)

	err := WithScopedResolver(chain, func(root *Resolver) error {
		return root.WithNextScope(func(app *Resolver) error {
			assert.Equal(t, Scope("app"), app.Scope())
			return app.WithNextScope(func(handler *Resolver) error {
				if _, err := handler.Resolve("foo_ctrl", stringType); err != nil {
					return err
				}
				_, err := handler.Resolve("bar_ctrl", stringType)
				return err
			}, "handler")
		})
	})
	require.NoError(t, err)

	for _, name := range []string{"cfg", "db", "cache", "transaction", "foo_ctrl", "bar_ctrl"} {
		assert.Equal(t, 1, rec.count(name), "%s built more than once", name)
	}
	assert.Equal(t, []string{
		"build:cfg", "build:db", "build:transaction", "build:foo_ctrl",
		"build:cache", "build:bar_ctrl",
		"release:transaction",
		"release:cache", "release:db",
		"release:cfg",
	}, rec.log())
}

func TestHandlerScopesShareAppInstances(t *testing.T) {
	rec := newRecorder()
	chain := threeScopes(t, rec)

	root, err := CreateScopedResolver(chain)
	require.NoError(t, err)
	app, err := root.NextScope()
	require.NoError(t, err)

	var txs []interface{}
	for i := 0; i < 3; i++ {
		h, err := app.NextScope()
		require.NoError(t, err)
		tx, err := h.Resolve("transaction", stringType)
		require.NoError(t, err)
		txs = append(txs, tx)
		require.NoError(t, h.Close())
	}
	assert.Equal(t, 1, rec.count("db"))
	assert.Equal(t, 3, rec.count("transaction"))
	assert.Equal(t, []string{"transaction", "transaction", "transaction"}, rec.released())

	// the app scope is untouched by its children exiting
	db1, err := app.Resolve("db", stringType)
	require.NoError(t, err)
	assert.Equal(t, "db", db1)
	assert.Equal(t, 1, rec.count("db"))

	require.NoError(t, root.Close())
	assert.True(t, app.Closed())
	assert.Equal(t, []string{"transaction", "transaction", "transaction", "db", "cfg"}, rec.released())
}

func TestReleaseLIFOEvenWhenSiblingFails(t *testing.T) {
	rec := newRecorder()
	boom := errors.New("boom")
	failing := Provide("c", stringType, func(Args) (interface{}, error) { return nil, boom })
	c := mustContainer(resourceNode(rec, "a"), resourceNode(rec, "b"), failing,
		node(rec, "all", "a", "b", "c"))

	err := WithResolver(c, func(r *Resolver) error {
		_, err := r.Resolve("all", stringType)
		return err
	})
	assert.True(t, errors.Is(err, boom), "got %v", err)
	assert.Equal(t, []string{"b", "a"}, rec.released())
	assert.True(t, errors.Is(rec.causes["a"], boom), "release should see the body's error")
}

func TestFailedAcquireIsNotReleased(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	bad := NewMockResource(mockCtrl)
	bad.EXPECT().Acquire().Return(nil, errors.New("refused"))
	good := NewMockResource(mockCtrl)
	gomock.InOrder(
		good.EXPECT().Acquire().Return("conn", nil),
		good.EXPECT().Release(nil).Return(nil),
	)

	c := mustContainer(
		Provide("good", stringType, func(Args) (interface{}, error) { return good, nil }, AsResource()),
		Provide("bad", stringType, func(Args) (interface{}, error) { return bad, nil }, AsResource()),
	)
	r, err := CreateResolver(c)
	require.NoError(t, err)
	v, err := r.Resolve("good", stringType)
	require.NoError(t, err)
	assert.Equal(t, "conn", v)
	_, err = r.Resolve("bad", stringType)
	assert.Error(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestReleaseErrorsAreJoined(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	first := errors.New("first")
	second := errors.New("second")
	a := NewMockResource(mockCtrl)
	b := NewMockResource(mockCtrl)
	p := NewMockResource(mockCtrl)
	a.EXPECT().Acquire().Return("a", nil)
	b.EXPECT().Acquire().Return("b", nil)
	p.EXPECT().Acquire().Return("p", nil)
	gomock.InOrder(
		p.EXPECT().Release(gomock.Any()).Do(func(error) { panic("release panicked") }),
		b.EXPECT().Release(gomock.Any()).Return(second),
		a.EXPECT().Release(gomock.Any()).Return(first),
	)
	res := func(name string, m *MockResource) Dependency {
		return Provide(name, stringType, func(Args) (interface{}, error) { return m, nil }, AsResource())
	}
	r, err := CreateResolver(mustContainer(res("a", a), res("b", b), res("p", p)))
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "p"} {
		_, err := r.Resolve(name, stringType)
		require.NoError(t, err)
	}
	err = r.Close()
	assert.True(t, errors.Is(err, first))
	assert.True(t, errors.Is(err, second))
	pe := &PanicError{}
	assert.True(t, errors.As(err, &pe))
}

func TestCloseParentClosesOpenChildren(t *testing.T) {
	rec := newRecorder()
	chain := threeScopes(t, rec)
	root, err := CreateScopedResolver(chain)
	require.NoError(t, err)
	app, err := root.NextScope()
	require.NoError(t, err)
	h1, err := app.NextScope()
	require.NoError(t, err)
	h2, err := app.NextScope()
	require.NoError(t, err)

	_, err = h1.Resolve("bar_ctrl", stringType)
	require.NoError(t, err)
	_, err = h2.Resolve("transaction", stringType)
	require.NoError(t, err)

	require.NoError(t, app.Close())
	assert.True(t, h1.Closed())
	assert.True(t, h2.Closed())
	assert.False(t, root.Closed())
	// h2 was entered last, so it goes first; then h1; then app, LIFO
	assert.Equal(t, []string{"transaction", "transaction", "cache", "db"}, rec.released())

	_, err = h1.Resolve("foo_ctrl", stringType)
	assert.IsType(t, &ClosedScopeError{}, err)
	assert.NoError(t, h1.Close())

	_, err = root.Resolve("cfg", stringType)
	require.NoError(t, err)
	require.NoError(t, root.Close())
	assert.Equal(t, []string{"transaction", "transaction", "cache", "db", "cfg"}, rec.released())
}

func TestNextScopeOrder(t *testing.T) {
	rec := newRecorder()
	chain := threeScopes(t, rec)
	root, err := CreateScopedResolver(chain)
	require.NoError(t, err)
	defer root.Close()

	for _, s := range []Scope{"handler", "root", "nope"} {
		_, err := root.NextScope(s)
		order := &ScopeOrderError{}
		require.True(t, errors.As(err, &order), "%s: got %v", s, err)
		assert.Equal(t, Scope("root"), order.From)
		assert.Equal(t, s, order.To)
	}
	_, err = root.NextScope("app", "handler")
	assert.IsType(t, &ScopeOrderError{}, err)

	app, err := root.NextScope("app")
	require.NoError(t, err)
	h, err := app.NextScope()
	require.NoError(t, err)
	_, err = h.NextScope()
	order := &ScopeOrderError{}
	require.True(t, errors.As(err, &order))
	assert.Equal(t, Scope(""), order.To)
}

func TestWithScopeReleasesOnPanic(t *testing.T) {
	rec := newRecorder()
	c := mustContainer(resourceNode(rec, "conn"))

	func() {
		defer func() {
			assert.Equal(t, "body blew up", recover())
		}()
		_ = WithResolver(c, func(r *Resolver) error {
			if _, err := r.Resolve("conn", stringType); err != nil {
				return err
			}
			panic("body blew up")
		})
	}()
	assert.Equal(t, []string{"conn"}, rec.released())
	assert.Equal(t, ErrScopePanicked, rec.causes["conn"])
}

func TestChildReleasesOnlyItsOwn(t *testing.T) {
	rec := newRecorder()
	chain := threeScopes(t, rec)
	err := WithScopedResolver(chain, func(root *Resolver) error {
		return root.WithNextScope(func(app *Resolver) error {
			if _, err := app.Resolve("db", stringType); err != nil {
				return err
			}
			err := app.WithNextScope(func(h *Resolver) error {
				_, err := h.Resolve("transaction", stringType)
				return err
			})
			assert.Equal(t, []string{"transaction"}, rec.released())
			return err
		})
	})
	require.NoError(t, err)
}
