// internal/probe/probe.go
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTimeout bounds all three phases together.
	DefaultTimeout = 5 * time.Second
	// DefaultPollInterval is the pause between attempts within a phase.
	DefaultPollInterval = 100 * time.Millisecond
)

var (
	ErrNotFound   = errors.New("element not found")
	ErrNotVisible = errors.New("element not visible")
	ErrNotEnabled = errors.New("element disabled")
)

// Element is a located node that can report its readiness.
type Element interface {
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
}

// Querier finds the first element matching a selector in document order.
type Querier[E Element] interface {
	Query(ctx context.Context, selector string) (E, bool, error)
}

// WaitSpec describes what "ready" means for one wait.
type WaitSpec struct {
	Selector       string
	Timeout        time.Duration
	RequireVisible bool
	RequireEnabled bool
	PollInterval   time.Duration
}

// DefaultSpec returns a spec for selector with the default timeout, requiring
// both visibility and enabled state.
func DefaultSpec(selector string) WaitSpec {
	return WaitSpec{
		Selector:       selector,
		Timeout:        DefaultTimeout,
		RequireVisible: true,
		RequireEnabled: true,
		PollInterval:   DefaultPollInterval,
	}
}

// WaitError reports which phase gave up, for which selector, after how long.
type WaitError struct {
	Reason   error
	Selector string
	Waited   time.Duration
}

func (e *WaitError) Error() string {
	var label string
	switch e.Reason {
	case ErrNotFound:
		label = "Element not found"
	case ErrNotVisible:
		label = "Element not visible"
	case ErrNotEnabled:
		label = "Element disabled"
	default:
		label = e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s (waited %dms)", label, e.Selector, e.Waited.Milliseconds())
}

func (e *WaitError) Unwrap() error { return e.Reason }

// WaitForElement polls until selector resolves to an element that satisfies
// spec, in three phases sharing one deadline: existence, visibility, enabled.
// The element found in the first phase is the one checked by the later ones.
// Query and check errors abort the wait immediately.
func WaitForElement[E Element](ctx context.Context, q Querier[E], spec WaitSpec) (E, error) {
	var zero E

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := spec.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	w := &waiter{
		start:    time.Now(),
		interval: interval,
		selector: spec.Selector,
	}
	w.deadline = w.start.Add(timeout)

	var el E
	err := w.poll(ctx, ErrNotFound, func() (bool, error) {
		found, ok, err := q.Query(ctx, spec.Selector)
		if err != nil {
			return false, err
		}
		if ok {
			el = found
		}
		return ok, nil
	})
	if err != nil {
		return zero, err
	}

	if spec.RequireVisible {
		if err := w.poll(ctx, ErrNotVisible, func() (bool, error) { return el.Visible(ctx) }); err != nil {
			return zero, err
		}
	}

	if spec.RequireEnabled {
		if err := w.poll(ctx, ErrNotEnabled, func() (bool, error) { return el.Enabled(ctx) }); err != nil {
			return zero, err
		}
	}

	return el, nil
}

type waiter struct {
	start    time.Time
	deadline time.Time
	interval time.Duration
	selector string
}

// poll runs check until it succeeds or the shared deadline passes. A phase
// entered after the deadline fails without running check.
func (w *waiter) poll(ctx context.Context, reason error, check func() (bool, error)) error {
	for {
		remaining := time.Until(w.deadline)
		if remaining <= 0 {
			return w.fail(reason)
		}

		ok, err := check()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		remaining = time.Until(w.deadline)
		if remaining <= 0 {
			return w.fail(reason)
		}
		if err := sleep(ctx, min(w.interval, remaining)); err != nil {
			return err
		}
	}
}

func (w *waiter) fail(reason error) error {
	return &WaitError{Reason: reason, Selector: w.selector, Waited: time.Since(w.start)}
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
