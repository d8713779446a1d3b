package stats

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
)

// Checker reports why a rendered stat fails a Rule, or "" when it passes.
// found is false when the stat isn't registered.
type Checker func(got interface{}, found bool, want interface{}) string

// Int64Eq passes when the stat renders as the int64 want.
var Int64Eq Checker = func(got interface{}, found bool, want interface{}) string {
	if !found {
		return fmt.Sprintf("missing, want %v", want)
	}
	g, ok := got.(int64)
	if !ok || g != int64(want.(int)) {
		return fmt.Sprintf("got %v (%T), want %v", got, got, want)
	}
	return ""
}

// Absent passes when the stat was never registered.
var Absent Checker = func(got interface{}, found bool, _ interface{}) string {
	if found {
		return fmt.Sprintf("got %v, want no such stat", got)
	}
	return ""
}

// Rule is a Checker and the value it compares against.
type Rule struct {
	Checker Checker
	Value   interface{}
}

// VerifyStats checks every rule against reg's rendered contents and dumps the
// registry once if any fail.
func VerifyStats(t assert.TestingT, reg *Registry, rules map[string]Rule) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	rendered := reg.MarshalAll()
	ok := true
	for name, rule := range rules {
		got, found := rendered[name]
		if msg := rule.Checker(got, found, rule.Value); msg != "" {
			ok = assert.Fail(t, name+": "+msg)
		}
	}
	if !ok {
		assert.Fail(t, "stats registry", spew.Sdump(rendered))
	}
	return ok
}
