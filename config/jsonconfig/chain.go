package jsonconfig

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/twitter/ice/ice"
)

// ChainSchema is one Schema per scope, plus the order scopes chain in.
type ChainSchema struct {
	Order  []ice.Scope
	Scopes map[ice.Scope]Schema
}

// ChainConfiguration is a parsed chain document:
//
//	{
//	  "Scopes": ["root", "app", "handler"],
//	  "Bindings": {
//	    "app": {"db": {"Type": "memory", "ConnectAttempts": 3}}
//	  }
//	}
//
// Scopes may be omitted, in which case the ChainSchema's Order is used; listing a
// prefix of it builds a shorter chain. Bindings left out use their "" default.
type ChainConfiguration struct {
	Scopes   []ice.Scope
	Bindings map[ice.Scope]Configuration
}

type chainDocument struct {
	Scopes   []ice.Scope
	Bindings map[ice.Scope]map[string]json.RawMessage
}

// Parse reads a JSON or YAML chain document.
func (cs ChainSchema) Parse(text []byte) (*ChainConfiguration, error) {
	text, err := ToJSON(text)
	if err != nil {
		return nil, err
	}
	var doc chainDocument
	if err := json.Unmarshal(text, &doc); err != nil {
		return nil, fmt.Errorf("Couldn't parse chain config: %v", err)
	}

	order := doc.Scopes
	if len(order) == 0 {
		order = cs.Order
	}
	if len(order) > len(cs.Order) {
		return nil, fmt.Errorf("Error parsing chain config: %d scopes listed but only %d known (%v)", len(order), len(cs.Order), cs.Order)
	}
	for i, s := range order {
		if cs.Order[i] != s {
			return nil, fmt.Errorf("Error parsing chain config: scope %d is %q, expected %q", i, s, cs.Order[i])
		}
	}
	inChain := make(map[ice.Scope]bool, len(order))
	for _, s := range order {
		inChain[s] = true
	}
	for s := range doc.Bindings {
		if !inChain[s] {
			return nil, fmt.Errorf("Error parsing chain config: bindings given for scope %q, which is not in %v", s, order)
		}
	}

	cc := &ChainConfiguration{Scopes: order, Bindings: make(map[ice.Scope]Configuration, len(order))}
	for _, s := range order {
		conf, err := cs.Scopes[s].parse(doc.Bindings[s])
		if err != nil {
			return nil, fmt.Errorf("scope %q: %v", s, err)
		}
		cc.Bindings[s] = conf
	}
	return cc, nil
}

// Bags installs each scope's Configuration into its own MagicBag, in scope order.
func (cc *ChainConfiguration) Bags() []*ice.MagicBag {
	bags := make([]*ice.MagicBag, len(cc.Scopes))
	for i, s := range cc.Scopes {
		bags[i] = ice.NewMagicBag()
		bags[i].InstallModule(cc.Bindings[s])
	}
	return bags
}

// Chain builds and validates the ScopeChain the document describes.
func (cc *ChainConfiguration) Chain(opts ...ice.ContainerOption) (*ice.ScopeChain, error) {
	scopes := make(map[ice.Scope]*ice.Container, len(cc.Scopes))
	for i, b := range cc.Bags() {
		c, err := b.Container(opts...)
		if err != nil {
			return nil, err
		}
		scopes[cc.Scopes[i]] = c
	}
	return ice.NewScopeChain(cc.Scopes, scopes)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
