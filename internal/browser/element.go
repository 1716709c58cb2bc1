// internal/browser/element.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
)

// Element is a handle to a DOM node located by Query. It is only valid while
// the page it came from stays attached and the document is not replaced.
type Element struct {
	page     *Page
	id       runtime.RemoteObjectID
	selector string
}

// Selector returns the selector the element was found with.
func (e *Element) Selector() string { return e.selector }

const visibleFn = `function() {
	const style = window.getComputedStyle(this);
	return style.display !== 'none' &&
		style.visibility !== 'hidden' &&
		style.opacity !== '0' &&
		this.offsetParent !== null;
}`

const enabledFn = `function() { return !this.disabled; }`

// Visible reports whether the element is rendered: not display:none, not
// visibility:hidden, opacity not exactly "0", and with an offset parent.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	var ok bool
	if err := e.Call(ctx, visibleFn, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Enabled reports whether the element's disabled property is falsy.
func (e *Element) Enabled(ctx context.Context) (bool, error) {
	var ok bool
	if err := e.Call(ctx, enabledFn, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Call invokes fn with this bound to the element and args passed by value,
// decoding the returned value into res when res is non-nil.
func (e *Element) Call(ctx context.Context, fn string, res any, args ...any) error {
	callArgs := make([]*runtime.CallArgument, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding argument: %w", err)
		}
		callArgs = append(callArgs, &runtime.CallArgument{Value: b})
	}

	return e.page.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exp, err := runtime.CallFunctionOn(fn).
			WithObjectID(e.id).
			WithArguments(callArgs).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return exceptionError(exp)
		}
		if res == nil || obj == nil || obj.Type == runtime.TypeUndefined || len(obj.Value) == 0 {
			return nil
		}
		return json.Unmarshal(obj.Value, res)
	}))
}

// Click scrolls the element into view and presses the left mouse button at
// the centre of its first content quad.
func (e *Element) Click(ctx context.Context) error {
	return e.page.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithObjectID(e.id).Do(ctx); err != nil {
			return fmt.Errorf("scrolling %q into view: %w", e.selector, err)
		}
		quads, err := dom.GetContentQuads().WithObjectID(e.id).Do(ctx)
		if err != nil {
			return fmt.Errorf("locating %q: %w", e.selector, err)
		}
		x, y, ok := quadCentre(quads)
		if !ok {
			return fmt.Errorf("element %q has no clickable area", e.selector)
		}

		press := input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).
			WithClickCount(1)
		release := input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).
			WithClickCount(1)
		if err := press.Do(ctx); err != nil {
			return fmt.Errorf("mouse down on %q: %w", e.selector, err)
		}
		if err := release.Do(ctx); err != nil {
			return fmt.Errorf("mouse up on %q: %w", e.selector, err)
		}
		return nil
	}))
}

// quadCentre returns the centroid of the first quad with a non-zero area.
func quadCentre(quads []dom.Quad) (x, y float64, ok bool) {
	for _, q := range quads {
		if len(q) != 8 {
			continue
		}
		area := 0.0
		for i := 0; i < 4; i++ {
			j := (i + 1) % 4
			area += q[i*2]*q[j*2+1] - q[j*2]*q[i*2+1]
		}
		if area == 0 {
			continue
		}
		return (q[0] + q[2] + q[4] + q[6]) / 4, (q[1] + q[3] + q[5] + q[7]) / 4, true
	}
	return 0, 0, false
}

// setValueFn assigns the value directly and, when a framework-controlled
// input swallowed the assignment, retries through the prototype's native
// setter. input, change and blur are dispatched afterwards.
const setValueFn = `function(text, clear) {
	if (clear) {
		this.value = '';
	}
	this.value = text;
	if (this.value !== text) {
		const proto = this.tagName === 'TEXTAREA'
			? HTMLTextAreaElement.prototype
			: HTMLInputElement.prototype;
		const desc = Object.getOwnPropertyDescriptor(proto, 'value');
		if (desc && desc.set) {
			desc.set.call(this, text);
		}
	}
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
	this.dispatchEvent(new FocusEvent('blur', { bubbles: true }));
}`

// Type sets the element's value to text and dispatches input, change and
// blur. clear empties the field first.
func (e *Element) Type(ctx context.Context, text string, clear bool) error {
	if err := e.Call(ctx, setValueFn, nil, text, clear); err != nil {
		return fmt.Errorf("typing into %q: %w", e.selector, err)
	}
	return nil
}

// SetFiles assigns local files to a file input.
func (e *Element) SetFiles(ctx context.Context, paths []string) error {
	err := e.page.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return dom.SetFileInputFiles(paths).WithObjectID(e.id).Do(ctx)
	}))
	if err != nil {
		return Wrap(ErrUpload, fmt.Errorf("setting files on %q: %w", e.selector, err))
	}
	return nil
}
