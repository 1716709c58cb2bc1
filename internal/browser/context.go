// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext returns a context derived from session (which carries the
// chromedp target) that is also canceled when op is canceled. Values come from
// session only; op contributes its cancellation and deadline signal.
func CombineContext(session, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(session)
	if deadline, ok := op.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}

	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// valueOnlyContext inherits values from its parent but never its deadline or
// cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }

func (valueOnlyContext) Done() <-chan struct{} { return nil }

func (valueOnlyContext) Err() error { return nil }

// Detach returns a context that keeps ctx's values (the CDP target) but outlives
// ctx. Used for teardown that must run after the operation context expired.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
