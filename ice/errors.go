package ice

import (
	"fmt"
	"strings"
)

// InvalidDependencyError is returned by NewContainer for a Dependency that can't be
// used at all (no name, no type, no factory, malformed requirements).
type InvalidDependencyError struct {
	Name   string
	Reason string
}

func (e *InvalidDependencyError) Error() string {
	return fmt.Sprintf("invalid dependency %q: %s", e.Name, e.Reason)
}

// DuplicateNameError is returned by NewContainer when two Dependencies share a name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("dependency %q is provided more than once", e.Name)
}

// DuplicateScopeError is returned by NewScopeChain when a scope appears twice in the order.
type DuplicateScopeError struct {
	Scope Scope
}

func (e *DuplicateScopeError) Error() string {
	return fmt.Sprintf("scope %q appears more than once in the scope order", e.Scope)
}

// InvalidChainError is returned by NewScopeChain when order and containers don't line up.
type InvalidChainError struct {
	Reason string
}

func (e *InvalidChainError) Error() string {
	return "invalid scope chain: " + e.Reason
}

// UndefinedReferenceError means a Dependency requires a name that is neither defined
// in its own scope nor in an ancestor. DefinedIn is set when the name exists, but
// only in a descendant scope.
type UndefinedReferenceError struct {
	Scope      Scope
	Dependency string
	Param      string
	Name       string
	DefinedIn  Scope
}

func (e *UndefinedReferenceError) Error() string {
	msg := fmt.Sprintf("dependency %q in scope %q requires %q (param %q), which is not defined in that scope or an ancestor",
		e.Dependency, e.Scope, e.Name, e.Param)
	if e.DefinedIn != "" {
		msg += fmt.Sprintf(": declared for future scope %q", e.DefinedIn)
	}
	return msg
}

// NameNotFoundError means nothing visible from the resolving scope defines Name.
type NameNotFoundError struct {
	Name  string
	Scope Scope
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("dependency %q not found from scope %q", e.Name, e.Scope)
}

// TypeMismatchError means the declared type of a Dependency failed the TypeMatcher
// against the type it was requested as.
type TypeMismatchError struct {
	Name      string
	Scope     Scope
	Requested Type
	Provided  Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("dependency %q (scope %q) provides %s, which does not match requested %s",
		e.Name, e.Scope, typeName(e.Provided), typeName(e.Requested))
}

// CycleError means resolving a name led back to itself. Path starts and ends with
// the repeated name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "dependency cycle detected"
	}
	return "dependency cycle detected: " + strings.Join(e.Path, " -> ")
}

// ClosedScopeError is returned when a Resolver is used after its scope was closed.
type ClosedScopeError struct {
	Scope Scope
}

func (e *ClosedScopeError) Error() string {
	return fmt.Sprintf("scope %q is already closed", e.Scope)
}

// ScopeOrderError is returned by NextScope when the requested scope can't follow
// the current one.
type ScopeOrderError struct {
	From   Scope
	To     Scope
	Reason string
}

func (e *ScopeOrderError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("no next scope after %q: %s", e.From, e.Reason)
	}
	return fmt.Sprintf("cannot enter scope %q from %q: %s", e.To, e.From, e.Reason)
}

// AsyncDependencyError is returned when a sync resolver is created over a chain
// containing async Dependencies.
type AsyncDependencyError struct {
	Name  string
	Scope Scope
}

func (e *AsyncDependencyError) Error() string {
	return fmt.Sprintf("dependency %q in scope %q is async; use an async resolver", e.Name, e.Scope)
}

// NotResourceError means a Dependency marked AsResource got something from its
// factory that can't be acquired.
type NotResourceError struct {
	Name  string
	Value interface{}
}

func (e *NotResourceError) Error() string {
	return fmt.Sprintf("dependency %q is declared as a resource, but its factory returned %T", e.Name, e.Value)
}

// PanicError wraps a panic raised by a factory or an Acquire.
type PanicError struct {
	Name    string
	Value   interface{}
	GoStack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dependency %q panicked: %v", e.Name, e.Value)
}

// what we were constructing when something failed
type frame struct {
	scope Scope
	name  string
}

func (f frame) String() string {
	return fmt.Sprintf("%s/%s", f.scope, f.name)
}

// a stack is just the in-order frames of our evaluation
type stack []frame

func (s stack) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return strings.Join(parts, " -> ")
}

// InjectionError is what Resolve returns on failure. It records the chain of
// constructions that were in flight and wraps the underlying cause, so
// errors.As(err, &cycleErr) and friends keep working.
type InjectionError struct {
	underlying error
	iceStack   stack
}

func newInjectionError(err error, s stack) *InjectionError {
	stackCopy := make(stack, len(s))
	copy(stackCopy, s)
	return &InjectionError{underlying: err, iceStack: stackCopy}
}

// Chain returns the constructor chain, outermost first, as "scope/name" strings.
func (e *InjectionError) Chain() []string {
	chain := make([]string, len(e.iceStack))
	for i, f := range e.iceStack {
		chain[i] = f.String()
	}
	return chain
}

func (e *InjectionError) Error() string {
	if len(e.iceStack) == 0 {
		return fmt.Sprintf("ice injection error: %v", e.underlying)
	}
	return fmt.Sprintf("ice injection error: %v (constructor chain: %v)", e.underlying, e.iceStack)
}

func (e *InjectionError) Unwrap() error {
	return e.underlying
}

// Cause lets github.com/pkg/errors.Cause see through the InjectionError.
func (e *InjectionError) Cause() error {
	return e.underlying
}
