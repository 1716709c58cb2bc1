// internal/probe/probe_test.go
package probe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// -- Fakes --

// fakeElement becomes visible and enabled after a configurable number of checks.
type fakeElement struct {
	mu            sync.Mutex
	name          string
	visibleAfter  int // -1 never
	enabledAfter  int // -1 never
	visibleChecks int
	enabledChecks int
	checkErr      error
}

func (e *fakeElement) Visible(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.checkErr != nil {
		return false, e.checkErr
	}
	e.visibleChecks++
	return e.visibleAfter >= 0 && e.visibleChecks > e.visibleAfter, nil
}

func (e *fakeElement) Enabled(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabledChecks++
	return e.enabledAfter >= 0 && e.enabledChecks > e.enabledAfter, nil
}

// fakePage returns nothing for the first missCount queries, then the
// elements in order, one per query.
type fakePage struct {
	mu        sync.Mutex
	missCount int
	elements  []*fakeElement
	queries   int
	queryErr  error
}

func (p *fakePage) Query(ctx context.Context, selector string) (*fakeElement, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries++
	if p.queryErr != nil {
		return nil, false, p.queryErr
	}
	if p.queries <= p.missCount || len(p.elements) == 0 {
		return nil, false, nil
	}
	idx := p.queries - p.missCount - 1
	if idx >= len(p.elements) {
		idx = len(p.elements) - 1
	}
	return p.elements[idx], true, nil
}

func fastSpec(selector string) WaitSpec {
	spec := DefaultSpec(selector)
	spec.Timeout = 300 * time.Millisecond
	spec.PollInterval = 5 * time.Millisecond
	return spec
}

// -- Tests --

func TestWaitForElement_ReadyImmediately(t *testing.T) {
	el := &fakeElement{name: "button"}
	page := &fakePage{elements: []*fakeElement{el}}

	got, err := WaitForElement[*fakeElement](context.Background(), page, fastSpec("#submit"))
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 1, page.queries)
	assert.Equal(t, 1, el.visibleChecks)
	assert.Equal(t, 1, el.enabledChecks)
}

func TestWaitForElement_AppearsLater(t *testing.T) {
	el := &fakeElement{}
	page := &fakePage{missCount: 3, elements: []*fakeElement{el}}

	got, err := WaitForElement[*fakeElement](context.Background(), page, fastSpec("#late"))
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 4, page.queries)
}

func TestWaitForElement_NotFound(t *testing.T) {
	page := &fakePage{}
	spec := fastSpec("#missing")
	spec.Timeout = 60 * time.Millisecond

	start := time.Now()
	_, err := WaitForElement[*fakeElement](context.Background(), page, spec)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Element not found: #missing (waited ")
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, 60*time.Millisecond+200*time.Millisecond, "the last sleep is clamped to the remaining time")

	var we *WaitError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "#missing", we.Selector)
	assert.GreaterOrEqual(t, we.Waited, 60*time.Millisecond)
}

func TestWaitForElement_NotVisible(t *testing.T) {
	el := &fakeElement{visibleAfter: -1}
	page := &fakePage{elements: []*fakeElement{el}}

	_, err := WaitForElement[*fakeElement](context.Background(), page, fastSpec(".hidden"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotVisible)
	assert.Contains(t, err.Error(), "Element not visible: .hidden")
	assert.Equal(t, 0, el.enabledChecks, "enabled phase must not run after visibility failed")
}

func TestWaitForElement_Disabled(t *testing.T) {
	el := &fakeElement{enabledAfter: -1}
	page := &fakePage{elements: []*fakeElement{el}}

	_, err := WaitForElement[*fakeElement](context.Background(), page, fastSpec("button[disabled]"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEnabled)
	assert.Contains(t, err.Error(), "Element disabled: button[disabled]")
}

func TestWaitForElement_BecomesVisibleAndEnabled(t *testing.T) {
	el := &fakeElement{visibleAfter: 2, enabledAfter: 3}
	page := &fakePage{elements: []*fakeElement{el}}

	got, err := WaitForElement[*fakeElement](context.Background(), page, fastSpec("#btn"))
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 3, el.visibleChecks)
	assert.Equal(t, 4, el.enabledChecks)
}

func TestWaitForElement_HandleCapturedOnce(t *testing.T) {
	// The first element never becomes visible; a second one that would is
	// available on re-query. The probe must stick with the first.
	first := &fakeElement{visibleAfter: -1}
	second := &fakeElement{}
	page := &fakePage{elements: []*fakeElement{first, second}}

	_, err := WaitForElement[*fakeElement](context.Background(), page, fastSpec("li"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotVisible)
	assert.Equal(t, 1, page.queries)
	assert.Equal(t, 0, second.visibleChecks)
}

func TestWaitForElement_ChecksSkippedWhenNotRequired(t *testing.T) {
	el := &fakeElement{visibleAfter: -1}
	page := &fakePage{elements: []*fakeElement{el}}
	spec := fastSpec(`input[type="file"]`)
	spec.RequireVisible = false

	got, err := WaitForElement[*fakeElement](context.Background(), page, spec)
	require.NoError(t, err)
	assert.Same(t, el, got)
	assert.Equal(t, 0, el.visibleChecks)
	assert.Equal(t, 1, el.enabledChecks)
}

func TestWaitForElement_ExpiredPhaseFailsWithoutChecking(t *testing.T) {
	// Existence consumes the whole budget through a slow query; the
	// visibility phase then starts past the deadline.
	el := &fakeElement{}
	slow := &slowPage{delay: 40 * time.Millisecond, el: el}
	spec := fastSpec("#slow")
	spec.Timeout = 30 * time.Millisecond

	_, err := WaitForElement[*fakeElement](context.Background(), slow, spec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotVisible)
	assert.Equal(t, 0, el.visibleChecks)
}

type slowPage struct {
	delay time.Duration
	el    *fakeElement
}

func (p *slowPage) Query(ctx context.Context, selector string) (*fakeElement, bool, error) {
	time.Sleep(p.delay)
	return p.el, true, nil
}

func TestWaitForElement_QueryErrorPropagates(t *testing.T) {
	boom := errors.New("SyntaxError: not a valid selector")
	page := &fakePage{queryErr: boom}

	_, err := WaitForElement[*fakeElement](context.Background(), page, fastSpec("##"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, page.queries, "errors are not retried")
}

func TestWaitForElement_CheckErrorPropagates(t *testing.T) {
	boom := errors.New("object reference not found")
	el := &fakeElement{checkErr: boom}
	page := &fakePage{elements: []*fakeElement{el}}

	_, err := WaitForElement[*fakeElement](context.Background(), page, fastSpec("#gone"))
	assert.ErrorIs(t, err, boom)
}

func TestWaitForElement_ContextCancelled(t *testing.T) {
	page := &fakePage{}
	spec := fastSpec("#never")
	spec.Timeout = 5 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := WaitForElement[*fakeElement](ctx, page, spec)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForElement_Defaults(t *testing.T) {
	spec := DefaultSpec("#x")
	assert.Equal(t, 5*time.Second, spec.Timeout)
	assert.True(t, spec.RequireVisible)
	assert.True(t, spec.RequireEnabled)
	assert.Equal(t, 100*time.Millisecond, spec.PollInterval)
}

// -- testify/mock based querier --

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Query(ctx context.Context, selector string) (*fakeElement, bool, error) {
	args := m.Called(ctx, selector)
	el, _ := args.Get(0).(*fakeElement)
	return el, args.Bool(1), args.Error(2)
}

func TestWaitForElement_WithMockQuerier(t *testing.T) {
	el := &fakeElement{}
	q := new(mockQuerier)
	q.On("Query", mock.Anything, "[data-testid='save']").Return(nil, false, nil).Twice()
	q.On("Query", mock.Anything, "[data-testid='save']").Return(el, true, nil).Once()

	got, err := WaitForElement[*fakeElement](context.Background(), q, fastSpec("[data-testid='save']"))
	require.NoError(t, err)
	assert.Same(t, el, got)
	q.AssertExpectations(t)
	q.AssertNumberOfCalls(t, "Query", 3)
}
