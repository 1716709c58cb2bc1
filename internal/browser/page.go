// internal/browser/page.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/browserctl/internal/probe"
)

// Page is an attached browser tab. Its context carries the chromedp target;
// every operation takes a separate operational context for its deadline.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	info   *target.Info
	logger *zap.Logger
}

// ID returns the target id of the tab, or "" when it is not known yet.
func (p *Page) ID() target.ID {
	if p.info == nil {
		return ""
	}
	return p.info.TargetID
}

// Context returns the session context of the tab, for chromedp listeners.
func (p *Page) Context() context.Context { return p.ctx }

// queryGroup holds every element handle Query hands out, so they can be
// dropped together.
const queryGroup = "browserctl-query"

// releaseTimeout bounds the cleanup calls made while detaching.
const releaseTimeout = time.Second

// release drops the element handles and detaches from the tab without closing
// it. chromedp closes any target it is attached to when the context is
// canceled, unless Target is cleared.
func (p *Page) release() {
	if c := chromedp.FromContext(p.ctx); c != nil && c.Target != nil {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		if err := p.Run(ctx, runtime.ReleaseObjectGroup(queryGroup)); err != nil {
			p.logger.Debug("Failed to release element handles.", zap.Error(err))
		}
		cancel()
		c.Target = nil
	}
	p.cancel()
}

// attach starts the tab session. chromedp runs the tab's event loop on the
// context of the first call, so that call uses the session context and ctx
// only bounds the wait.
func (p *Page) attach(ctx context.Context) error {
	return within(ctx, func() error { return chromedp.Run(p.ctx) })
}

// Run executes chromedp actions against the tab, bounded by ctx.
func (p *Page) Run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(p.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Evaluate runs expression in the page's main world, awaiting promises and
// returning the result by value. A thrown exception becomes an ExceptionError.
func (p *Page) Evaluate(ctx context.Context, expression string) (*runtime.RemoteObject, error) {
	var obj *runtime.RemoteObject
	err := p.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exp, err := runtime.Evaluate(expression).
			WithAwaitPromise(true).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exceptionError(exp)
		}
		obj = res
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// EvaluateInto evaluates expression and decodes the JSON result into res.
// An undefined result leaves res untouched.
func (p *Page) EvaluateInto(ctx context.Context, expression string, res any) error {
	obj, err := p.Evaluate(ctx, expression)
	if err != nil {
		return err
	}
	if res == nil || obj == nil || obj.Type == runtime.TypeUndefined || len(obj.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(obj.Value, res); err != nil {
		return fmt.Errorf("decoding evaluation result: %w", err)
	}
	return nil
}

// Query returns the first element matching selector in document order.
// found is false when nothing matches; an invalid selector is an error.
func (p *Page) Query(ctx context.Context, selector string) (*Element, bool, error) {
	var (
		id    runtime.RemoteObjectID
		found bool
	)
	expression := fmt.Sprintf("document.querySelector(%s)", jsString(selector))
	err := p.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exp, err := runtime.Evaluate(expression).WithObjectGroup(queryGroup).Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exceptionError(exp)
		}
		if res == nil || res.ObjectID == "" || res.Subtype == runtime.SubtypeNull {
			return nil
		}
		id, found = res.ObjectID, true
		return nil
	}))
	if err != nil {
		return nil, false, fmt.Errorf("querying %q: %w", selector, err)
	}
	if !found {
		return nil, false, nil
	}
	return &Element{page: p, id: id, selector: selector}, true, nil
}

// WaitFor waits until selector exists, without visibility or enabled checks.
func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := probe.WaitForElement[*Element](ctx, p, probe.WaitSpec{
		Selector:       selector,
		Timeout:        timeout,
		RequireVisible: false,
		RequireEnabled: false,
	})
	return err
}

// WaitForElement runs the readiness probe against this tab.
func (p *Page) WaitForElement(ctx context.Context, spec probe.WaitSpec) (*Element, error) {
	return probe.WaitForElement[*Element](ctx, p, spec)
}

// Navigate loads url in the tab, bounded by ctx.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.Run(ctx, chromedp.Navigate(url)); err != nil {
		return Wrap(ErrNavigation, fmt.Errorf("navigating to %s: %w", url, err))
	}
	return nil
}

// URL returns the current document location.
func (p *Page) URL(ctx context.Context) (string, error) {
	var loc string
	if err := p.Run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

// Title returns the current document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	var title string
	if err := p.Run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("reading title: %w", err)
	}
	return title, nil
}

// DocumentHTML returns the serialized DOM, shadow roots and iframes included,
// as the browser currently sees it.
func (p *Page) DocumentHTML(ctx context.Context) (string, error) {
	var html string
	err := p.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		root, err := dom.GetDocument().WithDepth(-1).WithPierce(true).Do(ctx)
		if err != nil {
			return fmt.Errorf("getting document: %w", err)
		}
		html, err = dom.GetOuterHTML().WithNodeID(root.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("getting outer HTML: %w", err)
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return html, nil
}

// Screenshot captures the visible viewport as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// Cookie is the printed form of a browser cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	Expires  float64 `json:"expires"`
}

// Cookies returns every cookie visible to the tab, including HTTP-only ones.
func (p *Page) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := p.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		if c != nil {
			cookies = append(cookies, cookieFrom(c))
		}
	}
	return cookies, nil
}

func cookieFrom(c *network.Cookie) Cookie {
	return Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		Expires:  c.Expires,
	}
}

// AddBinding installs window[name] in the page; calls to it surface as
// *runtime.EventBindingCalled on Listen.
func (p *Page) AddBinding(ctx context.Context, name string) error {
	if err := p.Run(ctx, runtime.AddBinding(name)); err != nil {
		return fmt.Errorf("adding binding %s: %w", name, err)
	}
	return nil
}

// Listen registers fn for target events until the returned stop is called.
// fn runs on chromedp's event goroutine and must not block.
func (p *Page) Listen(fn func(ev any)) (stop func()) {
	lctx, cancel := context.WithCancel(p.ctx)
	chromedp.ListenTarget(lctx, fn)
	return cancel
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
