package ice

import (
	"fmt"
	"sync"
)

type intBox struct {
	i int
}

var intBoxType = TypeOf[intBox]()

func MakeIntBox(name string, i int) Dependency {
	return Provide(name, intBoxType, func(Args) (interface{}, error) {
		return intBox{i: i}, nil
	})
}

type Storage interface {
	Set(i int)
	Get() int
}

type memStorage struct {
	val int
}

func (s *memStorage) Set(i int) { s.val = i }
func (s *memStorage) Get() int  { return s.val }

var storageType = TypeOf[Storage]()

func NewMemStorage() Dependency {
	return Provide("storage", storageType, func(Args) (interface{}, error) {
		return &memStorage{}, nil
	})
}

type Auther interface {
	Auth(token string) error
}

type yesAuther struct{}

func (a *yesAuther) Auth(token string) error { return nil }

var autherType = TypeOf[Auther]()

func NewYesAuther() Dependency {
	return Provide("auther", autherType, func(Args) (interface{}, error) {
		return &yesAuther{}, nil
	})
}

type DB struct {
	s Storage
	a Auther
}

var dbType = TypeOf[DB]()

func NewDB() Dependency {
	return Provide("db", dbType, func(args Args) (interface{}, error) {
		return DB{s: Arg[Storage](args, "s"), a: Arg[Auther](args, "a")}, nil
	}, Requires("s", "storage", storageType), Requires("a", "auther", autherType))
}

func (db DB) IsEven(token string) (bool, error) {
	if err := db.a.Auth(token); err != nil {
		return false, err
	}
	return db.s.Get()%2 == 0, nil
}

func (db DB) Inc(token string) error {
	if err := db.a.Auth(token); err != nil {
		return err
	}
	db.s.Set(db.s.Get() + 1)
	return nil
}

type Evener struct {
	odder *Odder
}

type Odder struct {
	evener *Evener
}

var (
	evenerType = TypeOf[*Evener]()
	odderType  = TypeOf[*Odder]()
)

func MakeEvener() Dependency {
	return Provide("evener", evenerType, func(args Args) (interface{}, error) {
		return &Evener{Arg[*Odder](args, "o")}, nil
	}, Requires("o", "odder", odderType))
}

func MakeOdder() Dependency {
	return Provide("odder", odderType, func(args Args) (interface{}, error) {
		return &Odder{Arg[*Evener](args, "e")}, nil
	}, Requires("e", "evener", evenerType))
}

// recorder collects construction and release events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	counts map[string]int
	causes map[string]error
}

func newRecorder() *recorder {
	return &recorder{counts: map[string]int{}, causes: map[string]error{}}
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) built(name string) {
	r.mu.Lock()
	r.counts[name]++
	r.mu.Unlock()
	r.add("build:" + name)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

func (r *recorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

func (r *recorder) released() []string {
	var out []string
	for _, e := range r.log() {
		if len(e) > len("release:") && e[:len("release:")] == "release:" {
			out = append(out, e[len("release:"):])
		}
	}
	return out
}

var stringType = TypeOf[string]()

// node is a plain string Dependency whose value lists what it was built from.
func node(rec *recorder, name string, reqs ...string) Dependency {
	opts := make([]Option, 0, len(reqs))
	for _, req := range reqs {
		opts = append(opts, Requires(req, req, stringType))
	}
	return Provide(name, stringType, func(args Args) (interface{}, error) {
		rec.built(name)
		return fmt.Sprintf("%s%v", name, len(args)), nil
	}, opts...)
}

// resourceNode is node declared as a resource, recording its release.
func resourceNode(rec *recorder, name string, reqs ...string) Dependency {
	opts := []Option{AsResource()}
	for _, req := range reqs {
		opts = append(opts, Requires(req, req, stringType))
	}
	return Provide(name, stringType, func(args Args) (interface{}, error) {
		rec.built(name)
		return NewResource(
			func() (interface{}, error) { return name, nil },
			func(cause error) error {
				rec.mu.Lock()
				rec.causes[name] = cause
				rec.mu.Unlock()
				rec.add("release:" + name)
				return nil
			},
		), nil
	}, opts...)
}

func mustContainer(deps ...Dependency) *Container {
	c, err := NewContainer(deps)
	if err != nil {
		panic(err)
	}
	return c
}
