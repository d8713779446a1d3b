// Package demo is a small three-scope application built on ice: a root scope
// with process settings, an app scope with a database, a cache and a rate
// limiter, and a handler scope opened per request with a transaction and two
// controllers. icectl uses it for its demo and serve commands.
package demo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	lru "github.com/hashicorp/golang-lru"
	"github.com/luci/go-render/render"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/twitter/ice/ice"
)

const (
	RootScope    ice.Scope = "root"
	AppScope     ice.Scope = "app"
	HandlerScope ice.Scope = "handler"
)

// Scopes is the demo chain order.
var Scopes = []ice.Scope{RootScope, AppScope, HandlerScope}

var (
	journalType = ice.TypeOf[*Journal]()
	configType  = ice.TypeOf[*Config]()
	dbType      = ice.TypeOf[*DB]()
	cacheType   = ice.TypeOf[*Cache]()
	limiterType = ice.TypeOf[*rate.Limiter]()
	txType      = ice.TypeOf[*Tx]()
	fooType     = ice.TypeOf[*FooCtrl]()
	barType     = ice.TypeOf[*BarCtrl]()
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

// Time between db connect attempts.
var ConnectRetryInterval = 10 * time.Millisecond

const DefaultCacheSize = 128

// Config holds the root-scoped settings.
type Config struct {
	Name string
	DSN  string
}

func (c *Config) String() string {
	return render.Render(*c)
}

// DB is an in-memory key/value store, written to only by committed transactions.
type DB struct {
	dsn     string
	mu      sync.RWMutex
	rows    map[string]string
	commits int
	closed  bool
}

// retries allows attempts connects in total, ConnectRetryInterval apart.
func retries(attempts int) backoff.BackOff {
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(ConnectRetryInterval), uint64(attempts-1))
}

// connect opens the DB, retrying refused connects as b allows. failFirst
// simulates that many refused attempts before the store comes up.
func connect(dsn string, failFirst int, b backoff.BackOff) (*DB, error) {
	try := 0
	var db *DB
	err := backoff.Retry(func() error {
		try++
		if try <= failFirst {
			return fmt.Errorf("connect %s: attempt %d refused", dsn, try)
		}
		db = &DB{dsn: dsn, rows: map[string]string{}}
		return nil
	}, b)
	if err != nil {
		return nil, errors.Wrapf(err, "gave up after %d attempts", try)
	}
	return db, nil
}

func (db *DB) Get(key string) (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.rows[key]
	return v, ok
}

func (db *DB) commit(writes map[string]string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return fmt.Errorf("db %s is closed", db.dsn)
	}
	for k, v := range writes {
		db.rows[k] = v
	}
	db.commits++
	return nil
}

// Commits is the number of committed transactions.
func (db *DB) Commits() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.commits
}

func (db *DB) close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
}

// Cache is an LRU of values read through BarCtrl.
type Cache struct {
	lru *lru.Cache
}

func newCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *Cache) Add(key, value string) { c.lru.Add(key, value) }
func (c *Cache) Remove(key string)     { c.lru.Remove(key) }
func (c *Cache) Len() int              { return c.lru.Len() }

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}

var txIDs int64

// Tx buffers writes for one handler scope. It commits when the scope closes
// cleanly and rolls back when the scope closes with an error.
type Tx struct {
	ID     int64
	db     *DB
	mu     sync.Mutex
	writes map[string]string
}

func newTx(db *DB) *Tx {
	return &Tx{ID: atomic.AddInt64(&txIDs, 1), db: db, writes: map[string]string{}}
}

func (tx *Tx) Get(key string) (string, bool) {
	tx.mu.Lock()
	v, ok := tx.writes[key]
	tx.mu.Unlock()
	if ok {
		return v, true
	}
	return tx.db.Get(key)
}

func (tx *Tx) Put(key, value string) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.writes[key] = value
}

func (tx *Tx) finish(cause error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if cause != nil || len(tx.writes) == 0 {
		tx.writes = nil
		return nil
	}
	err := tx.db.commit(tx.writes)
	tx.writes = nil
	return errors.Wrapf(err, "commit tx %d", tx.ID)
}

// FooCtrl writes and reads through the transaction, paced by the app limiter.
type FooCtrl struct {
	tx      *Tx
	limiter *rate.Limiter
}

func (c *FooCtrl) Get(ctx context.Context, key string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	v, ok := c.tx.Get(key)
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "foo %q", key)
	}
	return v, nil
}

func (c *FooCtrl) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.Wrap(ErrBadRequest, "empty key")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	c.tx.Put(key, value)
	return nil
}

// BarCtrl reads through the app cache.
type BarCtrl struct {
	tx    *Tx
	cache *Cache
}

func (c *BarCtrl) Get(key string) (string, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, ok := c.tx.Get(key)
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "bar %q", key)
	}
	c.cache.Add(key, v)
	return v, nil
}

// Forget drops key from the cache.
func (c *BarCtrl) Forget(key string) {
	c.cache.Remove(key)
}

func journalArg(args ice.Args) *Journal {
	return ice.Arg[*Journal](args, "journal")
}

var needsJournal = ice.Requires("journal", "journal", journalType)

func provideJournal() ice.Dependency {
	return ice.Provide("journal", journalType, func(ice.Args) (interface{}, error) {
		return NewJournal(), nil
	})
}

func provideConfig(c Config) ice.Dependency {
	return ice.Provide("cfg", configType, func(args ice.Args) (interface{}, error) {
		j := journalArg(args)
		cfg := c
		j.Built("cfg")
		return ice.Guard(&cfg, func(cause error) error {
			j.Released("cfg", cause)
			return nil
		}), nil
	}, needsJournal, ice.AsResource())
}

func provideDB(attempts, failFirst int) ice.Dependency {
	return ice.Provide("db", dbType, func(args ice.Args) (interface{}, error) {
		j := journalArg(args)
		cfg := ice.Arg[*Config](args, "cfg")
		var db *DB
		return ice.NewResource(func() (interface{}, error) {
			var err error
			if db, err = connect(cfg.DSN, failFirst, retries(attempts)); err != nil {
				return nil, err
			}
			j.Built("db")
			return db, nil
		}, func(cause error) error {
			db.close()
			j.Released("db", cause)
			return nil
		}), nil
	}, needsJournal, ice.Requires("cfg", "cfg", configType), ice.AsResource())
}

// provideAsyncDB connects under the resolve's context, so a cancelled resolve
// stops retrying. Only an AsyncResolver tree accepts it.
func provideAsyncDB(attempts, failFirst int) ice.Dependency {
	return ice.ProvideAsync("db", dbType, func(_ context.Context, args ice.Args) (interface{}, error) {
		j := journalArg(args)
		cfg := ice.Arg[*Config](args, "cfg")
		var db *DB
		return ice.NewAsyncResource(func(ctx context.Context) (interface{}, error) {
			var err error
			if db, err = connect(cfg.DSN, failFirst, backoff.WithContext(retries(attempts), ctx)); err != nil {
				return nil, err
			}
			j.Built("db")
			return db, nil
		}, func(_ context.Context, cause error) error {
			db.close()
			j.Released("db", cause)
			return nil
		}), nil
	}, needsJournal, ice.Requires("cfg", "cfg", configType), ice.AsResource())
}

func provideCache(size int) ice.Dependency {
	return ice.Provide("cache", cacheType, func(args ice.Args) (interface{}, error) {
		j := journalArg(args)
		c, err := newCache(size)
		if err != nil {
			return nil, err
		}
		j.Built("cache")
		return ice.Guard(c, func(cause error) error {
			c.lru.Purge()
			j.Released("cache", cause)
			return nil
		}), nil
	}, needsJournal, ice.Requires("cfg", "cfg", configType), ice.AsResource())
}

func provideLimiter(perSecond float64, burst int) ice.Dependency {
	return ice.Provide("limiter", limiterType, func(ice.Args) (interface{}, error) {
		return newLimiter(perSecond, burst), nil
	})
}

func provideTx() ice.Dependency {
	return ice.Provide("transaction", txType, func(args ice.Args) (interface{}, error) {
		j := journalArg(args)
		tx := newTx(ice.Arg[*DB](args, "db"))
		j.Built("transaction")
		return ice.Guard(tx, func(cause error) error {
			j.Released("transaction", cause)
			return tx.finish(cause)
		}), nil
	}, needsJournal, ice.Requires("db", "db", dbType), ice.AsResource())
}

func provideFoo() ice.Dependency {
	return ice.Provide("foo_ctrl", fooType, func(args ice.Args) (interface{}, error) {
		journalArg(args).Built("foo_ctrl")
		return &FooCtrl{
			tx:      ice.Arg[*Tx](args, "tx"),
			limiter: ice.Arg[*rate.Limiter](args, "limiter"),
		}, nil
	}, needsJournal, ice.Requires("tx", "transaction", txType), ice.Requires("limiter", "limiter", limiterType))
}

func provideBar() ice.Dependency {
	return ice.Provide("bar_ctrl", barType, func(args ice.Args) (interface{}, error) {
		journalArg(args).Built("bar_ctrl")
		return &BarCtrl{
			tx:    ice.Arg[*Tx](args, "tx"),
			cache: ice.Arg[*Cache](args, "cache"),
		}, nil
	}, needsJournal, ice.Requires("tx", "transaction", txType), ice.Requires("cache", "cache", cacheType))
}
