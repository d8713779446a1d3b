package async

import (
	"context"
)

// Future is an async value that will eventually hold a result and an error.
// The result is supplied by calling SetValue, exactly once.
// Once supplied the Future is considered completed, and the result can be
// retrieved with TryGetValue or waited for with Wait.
//
// Unlike a Mailbox, a Future may be shared between go routines: SetValue happens
// before any read that observes the Future as completed.
type Future struct {
	done chan struct{}
	val  interface{}
	err  error
}

func NewFuture() *Future {
	return &Future{
		done: make(chan struct{}),
	}
}

// Completed returns a Future that already holds val and err.
func Completed(val interface{}, err error) *Future {
	f := NewFuture()
	f.SetValue(val, err)
	return f
}

// Sets the value for the Future.  Marks the Future as Completed.
// This method should only ever be called once per Future instance.
// Calling this method more than once will panic
func (f *Future) SetValue(val interface{}, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Done is closed once the Future is completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Returns the Status of this Future:
// Completed(true) or Pending(false)
// and the value of the Future if it is Completed.
//
// If the Future is not completed the returned value and error are nil.
func (f *Future) TryGetValue() (bool, interface{}, error) {
	select {
	case <-f.done:
		return true, f.val, f.err
	default:
		return false, nil, nil
	}
}

// Wait blocks until the Future completes or ctx is done, whichever comes first.
// In the latter case ctx.Err() is returned and the Future is left untouched.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
