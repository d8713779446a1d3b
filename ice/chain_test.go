package ice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerDuplicateName(t *testing.T) {
	_, err := NewContainer([]Dependency{MakeIntBox("box", 1), MakeIntBox("box", 2)})
	dup := &DuplicateNameError{}
	require.True(t, errors.As(err, &dup), "expected DuplicateNameError, got %v", err)
	assert.Equal(t, "box", dup.Name)
}

func TestContainerInvalidDependency(t *testing.T) {
	cases := map[string]Dependency{
		"no name":    Provide("", intBoxType, func(Args) (interface{}, error) { return nil, nil }),
		"no type":    Provide("x", nil, func(Args) (interface{}, error) { return nil, nil }),
		"no factory": Provide("x", intBoxType, nil),
		"no async":   ProvideAsync("x", intBoxType, nil),
		"twice": Provide("x", intBoxType, func(Args) (interface{}, error) { return nil, nil },
			Requires("p", "a", intBoxType), Requires("p", "b", intBoxType)),
		"nil req type": Provide("x", intBoxType, func(Args) (interface{}, error) { return nil, nil },
			Requires("p", "a", nil)),
	}
	for name, d := range cases {
		_, err := NewContainer([]Dependency{d})
		invalid := &InvalidDependencyError{}
		assert.True(t, errors.As(err, &invalid), "%s: expected InvalidDependencyError, got %v", name, err)
	}
}

func TestContainerAccessors(t *testing.T) {
	c := mustContainer(NewMemStorage(), NewYesAuther(), NewDB())
	assert.Equal(t, []string{"storage", "auther", "db"}, c.Names())
	assert.Equal(t, 3, c.Len())
	d, ok := c.Lookup("db")
	require.True(t, ok)
	assert.Equal(t, dbType, d.ProvidesType())
	assert.Len(t, d.Requires(), 2)
	assert.False(t, d.IsResource())
	assert.False(t, d.IsAsync())
	_, ok = c.Lookup("nope")
	assert.False(t, ok)
}

func TestMagicBagModules(t *testing.T) {
	bag := NewMagicBag()
	bag.InstallModule(ModuleFunc(func(b *MagicBag) {
		b.PutMany(NewMemStorage(), NewYesAuther())
	}))
	bag.Put(NewDB())
	assert.Len(t, bag.Dependencies(), 3)
	c, err := bag.Container(WithTypeMatcher(AssignableMatch))
	require.NoError(t, err)
	assert.True(t, c.TypeMatcher()(storageType, TypeOf[*memStorage]()))
}

func TestChainDuplicateScope(t *testing.T) {
	c := mustContainer()
	_, err := NewScopeChain([]Scope{"app", "app"}, map[Scope]*Container{"app": c})
	dup := &DuplicateScopeError{}
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, Scope("app"), dup.Scope)
}

func TestChainShape(t *testing.T) {
	c := mustContainer()
	_, err := NewScopeChain(nil, nil)
	assert.IsType(t, &InvalidChainError{}, err)

	_, err = NewScopeChain([]Scope{"app"}, map[Scope]*Container{})
	assert.IsType(t, &InvalidChainError{}, err)

	_, err = NewScopeChain([]Scope{"app"}, map[Scope]*Container{"app": c, "other": c})
	assert.IsType(t, &InvalidChainError{}, err)

	_, err = ChainOf([]Scope{"app", "handler"}, NewMagicBag())
	assert.IsType(t, &InvalidChainError{}, err)
}

func TestChainForwardReference(t *testing.T) {
	rec := newRecorder()
	_, err := NewScopeChain([]Scope{"app", "handler"}, map[Scope]*Container{
		"app":     mustContainer(node(rec, "db", "transaction")),
		"handler": mustContainer(node(rec, "transaction")),
	})
	undef := &UndefinedReferenceError{}
	require.True(t, errors.As(err, &undef), "got %v", err)
	assert.Equal(t, Scope("app"), undef.Scope)
	assert.Equal(t, "db", undef.Dependency)
	assert.Equal(t, "transaction", undef.Name)
	assert.Equal(t, Scope("handler"), undef.DefinedIn)
	assert.Contains(t, err.Error(), "future scope")
}

func TestChainUndefinedReference(t *testing.T) {
	rec := newRecorder()
	_, err := SingleScope(mustContainer(node(rec, "a", "missing")))
	undef := &UndefinedReferenceError{}
	require.True(t, errors.As(err, &undef), "got %v", err)
	assert.Equal(t, Scope(""), undef.DefinedIn)
}

func TestChainReportsFirstViolation(t *testing.T) {
	rec := newRecorder()
	build := func() error {
		_, err := NewScopeChain([]Scope{"app", "handler"}, map[Scope]*Container{
			"app":     mustContainer(node(rec, "a", "x"), node(rec, "b", "y")),
			"handler": mustContainer(node(rec, "c", "z")),
		})
		return err
	}
	first := build()
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Error(), build().Error())
	}
	assert.Contains(t, first.Error(), `"x"`)
}

func TestChainEdgeTypeMismatch(t *testing.T) {
	bad := Provide("reader", intBoxType, func(Args) (interface{}, error) { return nil, nil },
		Requires("s", "storage", stringType))
	_, err := SingleScope(mustContainer(NewMemStorage(), bad))
	mismatch := &TypeMismatchError{}
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, "storage", mismatch.Name)
	assert.Equal(t, stringType, mismatch.Requested)
	assert.Equal(t, storageType, mismatch.Provided)
}

func TestChainShadowing(t *testing.T) {
	app := mustContainer(MakeIntBox("box", 1))
	handler := mustContainer(MakeIntBox("box", 2))
	chain, err := NewScopeChain([]Scope{"app", "handler"}, map[Scope]*Container{"app": app, "handler": handler})
	require.NoError(t, err)

	err = WithScopedResolver(chain, func(r *Resolver) error {
		b, err := ResolveAs[intBox](r, "box")
		require.NoError(t, err)
		assert.Equal(t, 1, b.i)
		return r.WithNextScope(func(h *Resolver) error {
			b, err := ResolveAs[intBox](h, "box")
			require.NoError(t, err)
			assert.Equal(t, 2, b.i)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestChainAccessors(t *testing.T) {
	chain, err := ChainOf([]Scope{"root", "app"}, NewMagicBag(), NewMagicBag())
	require.NoError(t, err)
	assert.Equal(t, []Scope{"root", "app"}, chain.Order())
	assert.Equal(t, Scope("root"), chain.Root())
	assert.NotEmpty(t, chain.ID())
	_, ok := chain.Container("app")
	assert.True(t, ok)

	other, err := ChainOf([]Scope{"root", "app"}, NewMagicBag(), NewMagicBag())
	require.NoError(t, err)
	assert.NotEqual(t, chain.ID(), other.ID())
}
