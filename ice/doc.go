/*
ice is a lightweight, scope-aware Dependency Injection Framework

ice's central metaphor is a "Magic Bag".

It's a Bag because you put things in and then take things out.

Imagine a bag where you put in building materials and an Ikea instruction manual,
and then you pull out a fully-formed desk. The bag did the assembly! Magic!

Bags are stacked. Each bag belongs to a Scope (for example
root, app, handler) and the scopes form a chain. Values pulled out of a bag are kept
for as long as the scope that owns the bag is open, and anything that needed an
explicit teardown is torn down, last acquired first, when that scope closes.

Lifecycle

1) Create an Empty Bag per scope
2) Insert Dependencies
  a) or a Module, which can insert many Dependencies at once
3) Turn each Bag into an immutable Container
4) Chain the Containers into a ScopeChain (root first)
5) Create a Resolver for the root scope, then NextScope for each nested lifetime
6) Resolve Values
7) Close Resolvers, innermost first

Terms

Dependency: a named, typed recipe. It has a Factory, the names (and types) of the
Dependencies its Factory needs, and flags saying whether the Factory produces a
Resource and whether it is async.

Container: an immutable name -> Dependency map plus the TypeMatcher to use for it.

ScopeChain: ordered scopes, each bound to a Container. A Dependency may only require
names defined in its own scope or in an earlier one.

Resolver: the stateful side. One per open scope. It caches what it constructed,
remembers which Resources it acquired, and asks its parent for names it doesn't own.

Resource: a value with a two-phase Acquire/Release. The Release runs when the
owning Resolver closes.

Example

	root := ice.NewMagicBag()
	root.Put(ice.Provide("cfg", ice.TypeOf[*Config](), newConfig))

	app := ice.NewMagicBag()
	app.Put(ice.Provide("db", ice.TypeOf[*DB](), newDB,
		ice.Requires("cfg", "cfg", ice.TypeOf[*Config]()),
		ice.AsResource()))

	chain, err := ice.ChainOf([]ice.Scope{"root", "app"}, root, app)
	...
	err = ice.WithScopedResolver(chain, func(r *ice.Resolver) error {
		return r.WithNextScope(func(app *ice.Resolver) error {
			db, err := ice.ResolveAs[*DB](app, "db")
			...
		})
	})

Notes

ice does not infer dependencies from constructor signatures: every requirement is
declared explicitly by name and type. Resolution of independent requirements is
sequential, in declaration order, so acquisition (and release) order is reproducible.
*/
package ice
