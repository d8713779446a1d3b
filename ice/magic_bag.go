package ice

// Container is the immutable registry of one scope: name -> Dependency, plus the
// TypeMatcher used whenever one of its Dependencies is requested.
// It is safe to share between any number of Resolver trees.
type Container struct {
	provides map[string]Dependency
	order    []string
	matcher  TypeMatcher
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithTypeMatcher sets the TypeMatcher for the Container. Default is ExactMatch.
func WithTypeMatcher(m TypeMatcher) ContainerOption {
	return func(c *Container) {
		if m != nil {
			c.matcher = m
		}
	}
}

// NewContainer builds a Container out of deps. It fails with a DuplicateNameError
// if two of them share a name, or an InvalidDependencyError for an unusable one.
func NewContainer(deps []Dependency, opts ...ContainerOption) (*Container, error) {
	c := &Container{
		provides: make(map[string]Dependency, len(deps)),
		order:    make([]string, 0, len(deps)),
		matcher:  ExactMatch,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, d := range deps {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, ok := c.provides[d.name]; ok {
			return nil, &DuplicateNameError{Name: d.name}
		}
		c.provides[d.name] = d
		c.order = append(c.order, d.name)
	}
	return c, nil
}

// Lookup returns the Dependency registered under name.
func (c *Container) Lookup(name string) (Dependency, bool) {
	d, ok := c.provides[name]
	return d, ok
}

// Names returns the registered names in registration order.
func (c *Container) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

func (c *Container) Len() int { return len(c.order) }

// TypeMatcher returns the predicate this Container matches types with.
func (c *Container) TypeMatcher() TypeMatcher { return c.matcher }

// MagicBag collects Dependencies until it's turned into a Container.
// It's the mutable, order-preserving builder side of a Container.
type MagicBag struct {
	deps []Dependency
}

// Module can install many things at once.
// It could be just []Dependency, but this lets Module code look a little nicer.
type Module interface {
	Install(b *MagicBag)
}

// ModuleFunc lets a plain func act as a Module.
type ModuleFunc func(b *MagicBag)

func (f ModuleFunc) Install(b *MagicBag) { f(b) }

func NewMagicBag() *MagicBag {
	return &MagicBag{}
}

func (b *MagicBag) InstallModule(m Module) {
	m.Install(b)
}

// Put adds d to the bag. Duplicates are kept and reported by Container.
func (b *MagicBag) Put(d Dependency) {
	b.deps = append(b.deps, d)
}

func (b *MagicBag) PutMany(ds ...Dependency) {
	for _, d := range ds {
		b.Put(d)
	}
}

// Dependencies returns what was put in so far, in order.
func (b *MagicBag) Dependencies() []Dependency {
	deps := make([]Dependency, len(b.deps))
	copy(deps, b.deps)
	return deps
}

// Container freezes the bag's current content into a Container.
func (b *MagicBag) Container(opts ...ContainerOption) (*Container, error) {
	return NewContainer(b.deps, opts...)
}
