package async

import (
	"context"
)

// A Mailbox stores Futures and their associated callbacks
// and invokes them once the Future is completed
//
// Often times we may spawn go routines in an event loop to do some concurrent work,
// go routines provide no way to return a response, however we may want
// to be notified when the work completed, with its result, and then take some
// action based on that result. Mailbox provides a construct to do this.
//
// The below example opens several handler scopes concurrently under one shared
// app scope, and counts how many of them served their request:
//
//	func serveAll(app *ice.AsyncResolver, reqs []Request) int {
//	  served, returned := 0, 0
//	  mailbox := NewMailbox()
//
//	  cb := func(_ interface{}, err error) {
//	    if err == nil {
//	      served++
//	    }
//	    returned++
//	  }
//
//	  for _, req := range reqs {
//	    go func(rsp *Future, req Request) {
//	      rsp.SetValue(nil, app.WithNextScope(ctx, func(h *ice.AsyncResolver) error {
//	        return handle(ctx, h, req)
//	      }))
//	    }(mailbox.NewFuture(cb), req)
//	  }
//
//	  for returned < len(reqs) {
//	    mailbox.ProcessMessages()
//	  }
//	  return served
//	}
//
// A Mailbox is not a concurrent structure and should only
// ever be accessed from a single go routine.  This ensures that the callbacks
// are always executed within the same context and only one at a time.
type Mailbox struct {
	msgs []message
}

// The function type of the callback invoked when a Future is Completed
type ResponseHandler func(interface{}, error)

// message is a Future and its associated callback
type message struct {
	future   *Future
	callback ResponseHandler
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		msgs: make([]message, 0),
	}
}

func (bx *Mailbox) Count() int {
	return len(bx.msgs)
}

// Creates a new Future and associates the supplied callback with it.
// Once the Future has been completed, SetValue called, the callback
// will be invoked on the next execution of ProcessMessages
func (bx *Mailbox) NewFuture(cb ResponseHandler) *Future {
	f := NewFuture()
	bx.Watch(f, cb)
	return f
}

// Watch hooks cb to a Future created elsewhere, e.g. one returned by
// ResolveAsync.
func (bx *Mailbox) Watch(f *Future, cb ResponseHandler) {
	bx.msgs = append(bx.msgs, message{future: f, callback: cb})
}

// Processes the mailbox.  For all messages with completed Futures
// invokes the callback function and removes the message from the mailbox
func (bx *Mailbox) ProcessMessages() {
	var unCompletedMsgs []message
	for _, msg := range bx.msgs {
		ok, val, err := msg.future.TryGetValue()

		// if a Future's value has been set, invoke the callback
		if ok {
			msg.callback(val, err)
		} else {
			unCompletedMsgs = append(unCompletedMsgs, msg)
		}
	}

	// reset inProgress messages to unCompletedMsgs only
	bx.msgs = unCompletedMsgs
}

// WaitMessages blocks until the oldest pending Future completes or ctx is done,
// then processes the mailbox.
func (bx *Mailbox) WaitMessages(ctx context.Context) error {
	if len(bx.msgs) > 0 {
		select {
		case <-bx.msgs[0].future.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	bx.ProcessMessages()
	return nil
}
