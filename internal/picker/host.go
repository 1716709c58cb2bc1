// internal/picker/host.go
package picker

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browserctl/internal/browser"
)

// PageHost runs the picker UI inside an attached browser tab.
type PageHost struct {
	page   *browser.Page
	logger *zap.Logger
	script string
}

var _ Host = (*PageHost)(nil)

// NewPageHost prepares the page script for p.
func NewPageHost(p *browser.Page, logger *zap.Logger) (*PageHost, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	script, err := BuildScript(pickerTemplate, BindingName)
	if err != nil {
		return nil, fmt.Errorf("building picker script: %w", err)
	}
	return &PageHost{page: p, logger: logger.Named("picker_host"), script: script}, nil
}

// Subscribe adds the event binding and forwards binding calls and document
// lifecycle events. The listener runs on chromedp's event goroutine, so it
// never blocks: a full buffer drops the event.
func (h *PageHost) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	if err := h.page.AddBinding(ctx, BindingName); err != nil {
		return nil, nil, err
	}

	events := make(chan Event, eventBuffer)
	forward := func(ev Event) {
		select {
		case events <- ev:
		default:
			h.logger.Warn("Dropping picker event; buffer full.")
		}
	}

	stop := h.page.Listen(func(raw any) {
		switch ev := raw.(type) {
		case *runtime.EventBindingCalled:
			if ev.Name != BindingName {
				return
			}
			parsed, err := parsePayload(ev.Payload)
			if err != nil {
				h.logger.Debug("Ignoring malformed picker event.", zap.Error(err))
				return
			}
			forward(parsed)
		case *page.EventFrameNavigated:
			if ev.Frame != nil && ev.Frame.ParentID == "" {
				forward(Event{Kind: EventGone})
			}
		case *runtime.EventExecutionContextsCleared:
			forward(Event{Kind: EventGone})
		case *inspector.EventDetached:
			forward(Event{Kind: EventGone})
		}
	})
	return events, stop, nil
}

// Install evaluates the picker script. The script checks its own marker, so
// a page that already has it is left untouched.
func (h *PageHost) Install(ctx context.Context) error {
	var fresh bool
	if err := h.page.EvaluateInto(ctx, h.script, &fresh); err != nil {
		return err
	}
	h.logger.Debug("Picker script evaluated.", zap.Bool("fresh_install", fresh))
	return nil
}

// Start shows the overlay with banner as its status text.
func (h *PageHost) Start(ctx context.Context, banner string) error {
	expr, err := startExpression(banner)
	if err != nil {
		return err
	}
	return h.page.EvaluateInto(ctx, expr, nil)
}

// Apply forwards an effect to the page.
func (h *PageHost) Apply(ctx context.Context, effect Effect) error {
	if effect.Teardown && effect.Outline == 0 && effect.Banner == "" {
		return h.page.EvaluateInto(ctx, teardownExpression(), nil)
	}
	expr, err := applyExpression(effect)
	if err != nil {
		return err
	}
	return h.page.EvaluateInto(ctx, expr, nil)
}
