package demo

import (
	"github.com/twitter/ice/config/jsonconfig"
	"github.com/twitter/ice/ice"
)

type JournalConfig struct {
	Type string
}

func (c *JournalConfig) Install(bag *ice.MagicBag) {
	bag.Put(provideJournal())
}

type CfgConfig struct {
	Type string
	Name string
	DSN  string
}

func (c *CfgConfig) Install(bag *ice.MagicBag) {
	bag.Put(provideConfig(Config{Name: c.Name, DSN: c.DSN}))
}

// MemDBConfig configures the in-memory DB. FailConnects makes the first
// connect attempts fail, to exercise the retry.
type MemDBConfig struct {
	Type            string
	ConnectAttempts int
	FailConnects    int `json:",omitempty"`
}

func (c *MemDBConfig) Install(bag *ice.MagicBag) {
	bag.Put(provideDB(c.ConnectAttempts, c.FailConnects))
}

// AsyncMemDBConfig is MemDBConfig connecting under the resolve's context.
// It needs an async resolver tree.
type AsyncMemDBConfig struct {
	Type            string
	ConnectAttempts int
	FailConnects    int `json:",omitempty"`
}

func (c *AsyncMemDBConfig) Install(bag *ice.MagicBag) {
	bag.Put(provideAsyncDB(c.ConnectAttempts, c.FailConnects))
}

type LRUCacheConfig struct {
	Type string
	Size int
}

func (c *LRUCacheConfig) Install(bag *ice.MagicBag) {
	bag.Put(provideCache(c.Size))
}

// RateLimiterConfig is a token bucket. PerSecond <= 0 means unlimited.
type RateLimiterConfig struct {
	Type      string
	PerSecond float64
	Burst     int
}

func (c *RateLimiterConfig) Install(bag *ice.MagicBag) {
	bag.Put(provideLimiter(c.PerSecond, c.Burst))
}

type TxConfig struct {
	Type string
}

func (c *TxConfig) Install(bag *ice.MagicBag) {
	bag.Put(provideTx())
}

type ControllersConfig struct {
	Type string
}

func (c *ControllersConfig) Install(bag *ice.MagicBag) {
	bag.PutMany(provideFoo(), provideBar())
}

// Schema is the demo's chain configuration schema.
func Schema() jsonconfig.ChainSchema {
	return jsonconfig.ChainSchema{
		Order: Scopes,
		Scopes: map[ice.Scope]jsonconfig.Schema{
			RootScope: {
				"journal": {
					"": &JournalConfig{},
				},
				"cfg": {
					"default": &CfgConfig{},
					"":        &CfgConfig{Type: "default", Name: "demo", DSN: "mem://demo"},
				},
			},
			AppScope: {
				"db": {
					"memory":       &MemDBConfig{},
					"memory_async": &AsyncMemDBConfig{},
					"":             &MemDBConfig{Type: "memory", ConnectAttempts: 3},
				},
				"cache": {
					"lru": &LRUCacheConfig{},
					"":    &LRUCacheConfig{Type: "lru", Size: DefaultCacheSize},
				},
				"limiter": {
					"token_bucket": &RateLimiterConfig{},
					"":             &RateLimiterConfig{Type: "token_bucket", PerSecond: 100, Burst: 10},
				},
			},
			HandlerScope: {
				"transaction": {
					"": &TxConfig{},
				},
				"controllers": {
					"": &ControllersConfig{},
				},
			},
		},
	}
}

// Chain parses a demo chain document (JSON or YAML; empty means all defaults)
// and builds the ScopeChain.
func Chain(text []byte, opts ...ice.ContainerOption) (*ice.ScopeChain, error) {
	cc, err := Schema().Parse(text)
	if err != nil {
		return nil, err
	}
	return cc.Chain(opts...)
}
