// Async provides tools for asynchronous callback processing using Goroutines
package async

import (
	"context"
	"fmt"
	"runtime/debug"
)

// A Runner is a helper to spawn Go Routines running functions
// and to associate callbacks with them.  This builds
// ontop of Mailbox to simplify the code that needs to be written.
//
// The below example builds three connections concurrently and keeps
// the ones that could be opened:
//
//	func dialAll(addrs []string) []*Conn {
//	  var conns []*Conn
//	  returned := 0
//
//	  runner := NewRunner()
//
//	  cb := func(v interface{}, err error) {
//	    if err == nil {
//	      conns = append(conns, v.(*Conn))
//	    }
//	    returned++
//	  }
//
//	  for _, addr := range addrs {
//	    addr := addr
//	    runner.RunAsync(func() (interface{}, error) { return dial(addr) }, cb)
//	  }
//
//	  for returned < len(addrs) {
//	    runner.ProcessMessages()
//	  }
//	  return conns
//	}
type Runner struct {
	bx *Mailbox
}

func NewRunner() Runner {
	return Runner{
		bx: NewMailbox(),
	}
}

func (r *Runner) NumRunning() int {
	return r.bx.Count()
}

// RunAsync creates a go routine to run the specified function f.
// The callback, cb, is invoked once f is completed by calling ProcessMessages.
// A panic in f completes the Future with a *PanicError instead of crashing.
func (r *Runner) RunAsync(f func() (interface{}, error), cb ResponseHandler) {
	Go(r.bx.NewFuture(cb), f)
}

// Invokes all callbacks of completed async functions.
// Callbacks are ran synchronously and by the calling go routine
func (r *Runner) ProcessMessages() {
	r.bx.ProcessMessages()
}

// WaitMessages blocks for the oldest running function, then invokes the
// callbacks of everything completed.
func (r *Runner) WaitMessages(ctx context.Context) error {
	return r.bx.WaitMessages(ctx)
}

// Go runs f in a new go routine and completes rsp with its result.
func Go(rsp *Future, f func() (interface{}, error)) {
	go func() {
		var (
			val interface{}
			err error
		)
		defer func() {
			if p := recover(); p != nil {
				val, err = nil, &PanicError{Value: p, GoStack: string(debug.Stack())}
			}
			rsp.SetValue(val, err)
		}()
		val, err = f()
	}()
}

// PanicError is how a panicking async function completes its Future.
type PanicError struct {
	Value   interface{}
	GoStack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("async function panicked: %v", e.Value)
}
