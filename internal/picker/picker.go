// internal/picker/picker.go
package picker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/browserctl/internal/browser"
)

// eventBuffer bounds how many page events may queue before the owner
// goroutine consumes them. Human input never comes close.
const eventBuffer = 64

// teardownTimeout bounds the best-effort cleanup after cancellation.
const teardownTimeout = 2 * time.Second

// Host is the page side of a pick: it draws the UI and reports interactions.
type Host interface {
	// Subscribe starts delivering page events. stop releases the subscription.
	Subscribe(ctx context.Context) (events <-chan Event, stop func(), err error)
	// Install makes the picker available in the page; repeated calls are no-ops.
	Install(ctx context.Context) error
	// Start shows the overlay and banner and begins listening for input.
	Start(ctx context.Context, banner string) error
	// Apply performs an effect in the page.
	Apply(ctx context.Context, effect Effect) error
}

// Picker runs interactive element selection sessions against a Host.
type Picker struct {
	host   Host
	logger *zap.Logger
}

// New returns a Picker driving host.
func New(host Host, logger *zap.Logger) *Picker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Picker{host: host, logger: logger.Named("picker")}
}

// Pick shows message in the page and waits for the user to finish. It
// returns when the user resolves or cancels the session, when the page goes
// away (ErrNavigation), or when ctx ends.
func (p *Picker) Pick(ctx context.Context, message string) (Result, error) {
	sess, err := NewSession(message)
	if err != nil {
		return Result{}, err
	}

	// Subscribe first so no interaction between Start and the loop is lost.
	events, stop, err := p.host.Subscribe(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("subscribing to page events: %w", err)
	}
	defer stop()

	if err := p.host.Install(ctx); err != nil {
		return Result{}, fmt.Errorf("installing picker: %w", err)
	}
	if err := p.host.Start(ctx, sess.Banner()); err != nil {
		return Result{}, fmt.Errorf("starting picker: %w", err)
	}
	p.logger.Debug("Pick session started.")

	for {
		select {
		case <-ctx.Done():
			p.cleanup(ctx)
			return Result{}, ctx.Err()

		case ev := <-events:
			if ev.Kind == EventGone {
				sess.Handle(ev)
				p.logger.Info("Page went away during pick.")
				return Result{}, browser.Wrap(browser.ErrNavigation, fmt.Errorf("page navigated or closed during pick"))
			}

			effect := sess.Handle(ev)
			res, done := sess.Result()
			if !effect.Empty() {
				if err := p.host.Apply(ctx, effect); err != nil {
					if !done {
						return Result{}, fmt.Errorf("updating picker: %w", err)
					}
					p.logger.Warn("Failed to tear down picker UI.", zap.Error(err))
				}
			}
			if done {
				p.logger.Debug("Pick session finished.",
					zap.Stringer("state", sess.State()),
					zap.Int("selections", len(res.Selections)))
				return res, nil
			}
		}
	}
}

// cleanup removes the UI after the caller gave up, on a context that
// outlives ctx.
func (p *Picker) cleanup(ctx context.Context) {
	tctx, cancel := context.WithTimeout(browser.Detach(ctx), teardownTimeout)
	defer cancel()
	if err := p.host.Apply(tctx, Effect{Teardown: true}); err != nil {
		p.logger.Debug("Teardown after cancellation failed.", zap.Error(err))
	}
}
