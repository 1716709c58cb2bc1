// internal/browser/client.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Client is a connection to an already running browser. It never owns the
// browser process: Disconnect drops the connection and leaves every tab open.
type Client struct {
	logger *zap.Logger

	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc

	mu    sync.Mutex
	pages []*Page
}

// Connect attaches to the browser listening on url (for example
// http://localhost:9222). The handshake is bounded by timeout; any failure is
// reported as ErrConnection with the start hint as its message.
func Connect(ctx context.Context, url string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("browser")

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(context.Background(), url)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	c := &Client{
		logger:        log,
		allocCtx:      allocCtx,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
	}

	opCtx, cancelOp := context.WithTimeout(ctx, timeout)
	defer cancelOp()

	// The websocket lives as long as the context of the first call on
	// browserCtx, so the handshake runs on browserCtx itself and opCtx only
	// bounds the wait.
	err := within(opCtx, func() error {
		_, err := chromedp.Targets(browserCtx)
		return err
	})
	if err != nil {
		log.Debug("Browser handshake failed.", zap.String("url", url), zap.Error(err))
		c.Disconnect()
		return nil, &connectionError{cause: err}
	}

	log.Debug("Connected to browser.", zap.String("url", url))
	return c, nil
}

// Pages lists the page-type targets in CDP order.
func (c *Client) Pages(ctx context.Context) ([]*target.Info, error) {
	opCtx, cancel := CombineContext(c.browserCtx, ctx)
	defer cancel()

	infos, err := chromedp.Targets(opCtx)
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}
	return filterPages(infos), nil
}

// filterPages keeps page targets, preserving order.
func filterPages(infos []*target.Info) []*target.Info {
	pages := make([]*target.Info, 0, len(infos))
	for _, info := range infos {
		if info != nil && info.Type == "page" {
			pages = append(pages, info)
		}
	}
	return pages
}

// ActivePage attaches to the last page target reported by the browser, the
// most recently opened tab.
func (c *Client) ActivePage(ctx context.Context) (*Page, error) {
	pages, err := c.Pages(ctx)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoActivePage
	}
	info := pages[len(pages)-1]

	tabCtx, cancel := chromedp.NewContext(c.browserCtx, chromedp.WithTargetID(info.TargetID))
	p := c.track(tabCtx, cancel, info)

	if err := p.attach(ctx); err != nil {
		return nil, fmt.Errorf("attaching to tab %s: %w", info.TargetID, err)
	}
	return p, nil
}

// NewPage opens a fresh tab. The tab stays open after Disconnect.
func (c *Client) NewPage(ctx context.Context) (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	p := c.track(tabCtx, cancel, nil)

	// The first run creates the target and attaches to it.
	if err := p.attach(ctx); err != nil {
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	if t := chromedp.FromContext(tabCtx).Target; t != nil {
		p.info = &target.Info{TargetID: t.TargetID, Type: "page"}
	}
	return p, nil
}

func (c *Client) track(tabCtx context.Context, cancel context.CancelFunc, info *target.Info) *Page {
	p := &Page{ctx: tabCtx, cancel: cancel, info: info, logger: c.logger}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p
}

// Disconnect releases every attached page and the browser connection. Pages
// are released without closing their targets.
func (c *Client) Disconnect() {
	c.mu.Lock()
	pages := c.pages
	c.pages = nil
	c.mu.Unlock()

	for _, p := range pages {
		p.release()
	}
	c.cancelBrowser()
	c.cancelAlloc()
}

// within runs fn and waits for it until op ends. fn keeps running after a
// timeout; the caller tears down the contexts fn uses.
func within(op context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-op.Done():
		return op.Err()
	}
}
