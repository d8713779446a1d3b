package ice

import (
	"context"
	"fmt"
)

// Args holds the resolved instances handed to a Factory, keyed by the local
// parameter name of each requirement.
type Args map[string]interface{}

// Arg returns args[param] as a T. The zero T is returned if the param is missing
// or holds something else; the engine only ever hands over values whose declared
// type passed the TypeMatcher, so a failed assertion here means the factory and its
// requirements disagree.
func Arg[T any](args Args, param string) T {
	v, _ := args[param].(T)
	return v
}

// Factory creates the value of a Dependency from its resolved requirements.
// If the Dependency is a resource, the returned value must be a Resource.
type Factory func(args Args) (interface{}, error)

// AsyncFactory is a Factory that may block on ctx, e.g. dialing a remote store.
// If the Dependency is a resource, the returned value must be an AsyncResource
// (or a plain Resource, which is then acquired inline).
type AsyncFactory func(ctx context.Context, args Args) (interface{}, error)

// Requirement is one declared input of a Dependency: the local parameter name
// the Factory sees, and the name and type looked up in the scope chain.
type Requirement struct {
	Param string
	Name  string
	Type  Type
}

func (r Requirement) String() string {
	return fmt.Sprintf("%s=%s:%s", r.Param, r.Name, typeName(r.Type))
}

// Dependency is the immutable description of one injectable component.
// Create it with Provide or ProvideAsync.
type Dependency struct {
	name         string
	provides     Type
	requires     []Requirement
	factory      Factory
	asyncFactory AsyncFactory
	resource     bool
	async        bool
}

// Option configures a Dependency at creation time.
type Option func(*Dependency)

// Requires declares that the factory's param is bound to the instance named name,
// which must be compatible with typ. Requirements are resolved in the order they
// are declared.
func Requires(param, name string, typ Type) Option {
	return func(d *Dependency) {
		d.requires = append(d.requires, Requirement{Param: param, Name: name, Type: typ})
	}
}

// RequiresAll declares several requirements at once, keeping their order.
func RequiresAll(reqs ...Requirement) Option {
	return func(d *Dependency) {
		d.requires = append(d.requires, reqs...)
	}
}

// AsResource marks the factory's product as a Resource: the engine acquires it
// right away, hands out what Acquire returned and schedules Release for the time
// the owning scope closes.
func AsResource() Option {
	return func(d *Dependency) {
		d.resource = true
	}
}

// Provide describes a Dependency with a synchronous factory.
func Provide(name string, provides Type, factory Factory, opts ...Option) Dependency {
	d := Dependency{name: name, provides: provides, factory: factory}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// ProvideAsync describes a Dependency whose factory (and, for resources, whose
// Acquire and Release) may block on a context. Only async resolvers accept it.
func ProvideAsync(name string, provides Type, factory AsyncFactory, opts ...Option) Dependency {
	d := Dependency{name: name, provides: provides, asyncFactory: factory, async: true}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d Dependency) Name() string       { return d.name }
func (d Dependency) ProvidesType() Type { return d.provides }
func (d Dependency) IsResource() bool   { return d.resource }
func (d Dependency) IsAsync() bool      { return d.async }

// Requires returns a copy of the declared requirements, in order.
func (d Dependency) Requires() []Requirement {
	reqs := make([]Requirement, len(d.requires))
	copy(reqs, d.requires)
	return reqs
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s:%s", d.name, typeName(d.provides))
}

// validate checks the Dependency is usable at all; it's called when a Container
// is built.
func (d Dependency) validate() error {
	switch {
	case d.name == "":
		return &InvalidDependencyError{Name: d.name, Reason: "name must not be empty"}
	case d.provides == nil:
		return &InvalidDependencyError{Name: d.name, Reason: "provided type must not be nil"}
	case !d.async && d.factory == nil, d.async && d.asyncFactory == nil:
		return &InvalidDependencyError{Name: d.name, Reason: "factory must not be nil"}
	}
	params := make(map[string]bool, len(d.requires))
	for _, req := range d.requires {
		if req.Param == "" || req.Name == "" {
			return &InvalidDependencyError{Name: d.name, Reason: fmt.Sprintf("requirement %v needs a param and a name", req)}
		}
		if req.Type == nil {
			return &InvalidDependencyError{Name: d.name, Reason: fmt.Sprintf("requirement %q has a nil type", req.Param)}
		}
		if params[req.Param] {
			return &InvalidDependencyError{Name: d.name, Reason: fmt.Sprintf("param %q is bound twice", req.Param)}
		}
		params[req.Param] = true
	}
	return nil
}
