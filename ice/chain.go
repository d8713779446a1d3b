package ice

import (
	"fmt"

	"github.com/twitter/ice/common"
)

// Scope identifies a lifetime tier, e.g. "app" or "handler".
type Scope string

// DefaultScope is the scope of a resolver created straight from a Container.
const DefaultScope Scope = "root"

// ScopeChain binds an ordered list of scopes (ancestor first) to their Containers.
// It's validated at construction and immutable afterwards.
type ScopeChain struct {
	id     string
	order  []Scope
	index  map[Scope]int
	scopes map[Scope]*Container
	// Dependencies from which a requirement loop can be reached
	cyclic map[frame]bool
}

// NewScopeChain validates and builds a ScopeChain.
//
// It fails with DuplicateScopeError for a repeated scope, InvalidChainError if order
// and scopes don't describe the same set, UndefinedReferenceError if a requirement
// names something not defined in its own scope or an ancestor, and
// TypeMismatchError if a requirement's type is rejected by the TypeMatcher of the
// Container that defines the required name. Violations are reported in a fixed
// order: scopes in chain order, Dependencies in registration order,
// requirements in declaration order.
func NewScopeChain(order []Scope, scopes map[Scope]*Container) (*ScopeChain, error) {
	if len(order) == 0 {
		return nil, &InvalidChainError{Reason: "scope order is empty"}
	}
	ch := &ScopeChain{
		id:     newID(),
		order:  make([]Scope, len(order)),
		index:  make(map[Scope]int, len(order)),
		scopes: make(map[Scope]*Container, len(order)),
	}
	copy(ch.order, order)
	for i, s := range order {
		if _, ok := ch.index[s]; ok {
			return nil, &DuplicateScopeError{Scope: s}
		}
		ch.index[s] = i
		c, ok := scopes[s]
		if !ok || c == nil {
			return nil, &InvalidChainError{Reason: fmt.Sprintf("no container for scope %q", s)}
		}
		ch.scopes[s] = c
	}
	if len(scopes) != len(order) {
		for s := range scopes {
			if _, ok := ch.index[s]; !ok {
				return nil, &InvalidChainError{Reason: fmt.Sprintf("container for scope %q is not in the scope order", s)}
			}
		}
	}
	if err := ch.validateReferences(); err != nil {
		return nil, err
	}
	ch.markCycles()
	return ch, nil
}

// ChainOf is a shorthand building one Container per bag, bags given in scope order.
func ChainOf(order []Scope, bags ...*MagicBag) (*ScopeChain, error) {
	if len(bags) != len(order) {
		return nil, &InvalidChainError{Reason: fmt.Sprintf("%d scopes but %d bags", len(order), len(bags))}
	}
	scopes := make(map[Scope]*Container, len(order))
	for i, s := range order {
		c, err := bags[i].Container()
		if err != nil {
			return nil, err
		}
		scopes[s] = c
	}
	return NewScopeChain(order, scopes)
}

// SingleScope wraps one Container into a chain of just DefaultScope.
func SingleScope(c *Container) (*ScopeChain, error) {
	return NewScopeChain([]Scope{DefaultScope}, map[Scope]*Container{DefaultScope: c})
}

// validateReferences walks each scope's Dependencies and checks that every
// requirement resolves, starting at the scope that defines the Dependency and
// walking towards the root: the same walk a Resolver does.
func (ch *ScopeChain) validateReferences() error {
	for i, s := range ch.order {
		c := ch.scopes[s]
		for _, name := range c.order {
			dep := c.provides[name]
			for _, req := range dep.requires {
				owner, target, ok := ch.lookupFrom(i, req.Name)
				if !ok {
					return &UndefinedReferenceError{
						Scope:      s,
						Dependency: name,
						Param:      req.Param,
						Name:       req.Name,
						DefinedIn:  ch.definedAfter(i, req.Name),
					}
				}
				if !ch.scopes[owner].matcher(req.Type, target.provides) {
					return &TypeMismatchError{
						Name:      req.Name,
						Scope:     owner,
						Requested: req.Type,
						Provided:  target.provides,
					}
				}
			}
		}
	}
	return nil
}

// markCycles fills ch.cyclic. Loops are legal in a chain: resolving into one
// fails with a CycleError.
func (ch *ScopeChain) markCycles() {
	const (
		visiting = iota + 1
		visited
	)
	ch.cyclic = map[frame]bool{}
	state := map[frame]int{}
	var visit func(idx int, name string) bool
	visit = func(idx int, name string) bool {
		s := ch.order[idx]
		f := frame{scope: s, name: name}
		switch state[f] {
		case visiting:
			ch.cyclic[f] = true
			return true
		case visited:
			return ch.cyclic[f]
		}
		state[f] = visiting
		for _, req := range ch.scopes[s].provides[name].requires {
			owner, _, _ := ch.lookupFrom(idx, req.Name)
			if visit(ch.index[owner], req.Name) {
				ch.cyclic[f] = true
			}
		}
		state[f] = visited
		return ch.cyclic[f]
	}
	for i, s := range ch.order {
		for _, name := range ch.scopes[s].order {
			visit(i, name)
		}
	}
}

func (ch *ScopeChain) reachesCycle(f frame) bool {
	return ch.cyclic[f]
}

// lookupFrom finds name in scope idx or the nearest ancestor.
func (ch *ScopeChain) lookupFrom(idx int, name string) (Scope, Dependency, bool) {
	for i := idx; i >= 0; i-- {
		s := ch.order[i]
		if d, ok := ch.scopes[s].provides[name]; ok {
			return s, d, true
		}
	}
	return "", Dependency{}, false
}

func (ch *ScopeChain) definedAfter(idx int, name string) Scope {
	for i := idx + 1; i < len(ch.order); i++ {
		s := ch.order[i]
		if _, ok := ch.scopes[s].provides[name]; ok {
			return s
		}
	}
	return ""
}

// ID is a random identifier of this chain, handy to tell chains apart in logs.
func (ch *ScopeChain) ID() string { return ch.id }

// Order returns the scopes, root first.
func (ch *ScopeChain) Order() []Scope {
	order := make([]Scope, len(ch.order))
	copy(order, ch.order)
	return order
}

// Root is the first scope of the chain.
func (ch *ScopeChain) Root() Scope { return ch.order[0] }

// Container returns the Container bound to s.
func (ch *ScopeChain) Container(s Scope) (*Container, bool) {
	c, ok := ch.scopes[s]
	return c, ok
}

// next returns the scope that follows s.
func (ch *ScopeChain) next(s Scope) (Scope, bool) {
	i := ch.index[s] + 1
	if i >= len(ch.order) {
		return "", false
	}
	return ch.order[i], true
}

// firstAsync returns the first async Dependency in chain order, if any.
func (ch *ScopeChain) firstAsync() (Scope, string, bool) {
	for _, s := range ch.order {
		c := ch.scopes[s]
		for _, name := range c.order {
			if c.provides[name].async {
				return s, name, true
			}
		}
	}
	return "", "", false
}

func newID() string {
	return common.GenUUID()
}
