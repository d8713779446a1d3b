package ice

import (
	"reflect"
)

// Type is the type tag a Dependency declares it provides, and the type a caller
// asks for when resolving.
type Type = reflect.Type

// TypeOf returns the Type for T. Works for interface types too:
//
//	ice.TypeOf[io.Reader]()
func TypeOf[T any]() Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TypeMatcher decides whether a value of the provided type may satisfy a request
// for the requested type.
type TypeMatcher func(requested, provided Type) bool

// ExactMatch only accepts the very same type. It's the default for a Container.
func ExactMatch(requested, provided Type) bool {
	return requested == provided
}

// AssignableMatch accepts any provided type that is assignable to the requested
// one, e.g. a *memStorage satisfies a request for Storage.
func AssignableMatch(requested, provided Type) bool {
	if requested == nil || provided == nil {
		return false
	}
	return provided.AssignableTo(requested)
}

func typeName(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
