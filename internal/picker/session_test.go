// internal/picker/session_test.go
package picker

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/browserctl/internal/browser"
)

func click(token ElementToken, modifier bool, tag string) Event {
	return Event{Kind: EventClick, Token: token, Modifier: modifier, Element: RawElement{Tag: tag, HTML: "<" + tag + ">"}}
}

func key(k string) Event { return Event{Kind: EventKey, Key: k} }

func TestNewSession(t *testing.T) {
	_, err := NewSession("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrInvalidArgument))

	s, err := NewSession("Pick the login button")
	require.NoError(t, err)
	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, "Pick the login button (0 selected, Cmd/Ctrl+click to add, Enter to finish, ESC to cancel)", s.Banner())
}

func TestSession_PlainClickResolvesSingle(t *testing.T) {
	s, _ := NewSession("pick")

	eff := s.Handle(click(1, false, "button"))
	assert.Equal(t, Effect{Teardown: true}, eff)

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, Single, res.Kind)
	require.Len(t, res.Selections, 1)
	assert.Equal(t, "button", res.Selections[0].Tag)
	assert.Equal(t, StateResolved, s.State())
}

func TestSession_ModifiedClicksThenEnter(t *testing.T) {
	s, _ := NewSession("cards")

	eff := s.Handle(click(1, true, "article"))
	assert.Equal(t, ElementToken(1), eff.Outline)
	assert.Contains(t, eff.Banner, "(1 selected,")
	assert.False(t, eff.Teardown)

	eff = s.Handle(click(2, true, "section"))
	assert.Equal(t, ElementToken(2), eff.Outline)
	assert.Contains(t, eff.Banner, "(2 selected,")

	_, done := s.Result()
	assert.False(t, done)

	eff = s.Handle(key("Enter"))
	assert.True(t, eff.Teardown)

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, Multiple, res.Kind)
	want := []Selection{
		BuildSelection(RawElement{Tag: "article", HTML: "<article>"}),
		BuildSelection(RawElement{Tag: "section", HTML: "<section>"}),
	}
	if diff := cmp.Diff(want, res.Selections); diff != "" {
		t.Errorf("selections out of click order. Diff:\n%s", diff)
	}
}

func TestSession_DuplicateModifiedClickIsNoop(t *testing.T) {
	s, _ := NewSession("dedupe")

	s.Handle(click(7, true, "li"))
	eff := s.Handle(click(7, true, "li"))
	assert.True(t, eff.Empty())
	assert.Equal(t, 1, s.Len())

	// Same tag and html, different identity: both kept.
	s.Handle(click(8, true, "li"))
	assert.Equal(t, 2, s.Len())
}

func TestSession_PlainClickFinalizesPending(t *testing.T) {
	s, _ := NewSession("finish")

	s.Handle(click(1, true, "td"))
	eff := s.Handle(click(2, false, "th"))
	assert.True(t, eff.Teardown)

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, Multiple, res.Kind)
	require.Len(t, res.Selections, 1)
	assert.Equal(t, "td", res.Selections[0].Tag, "the plain-clicked element is not added")
}

func TestSession_EscapeCancels(t *testing.T) {
	s, _ := NewSession("cancel")

	eff := s.Handle(key("Escape"))
	assert.True(t, eff.Teardown)

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, Cancelled, res.Kind)
	assert.Equal(t, StateCancelled, s.State())
	assert.Equal(t, []Selection{}, res.List())
}

func TestSession_EscapeDiscardsPending(t *testing.T) {
	s, _ := NewSession("cancel")
	s.Handle(click(1, true, "div"))
	s.Handle(key("Escape"))

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, Cancelled, res.Kind)
}

func TestSession_EnterWithoutSelectionsIsNoop(t *testing.T) {
	s, _ := NewSession("enter")

	eff := s.Handle(key("Enter"))
	assert.True(t, eff.Empty())
	assert.Equal(t, StateActive, s.State())

	eff = s.Handle(key("a"))
	assert.True(t, eff.Empty())
}

func TestSession_EventsAfterTerminalIgnored(t *testing.T) {
	s, _ := NewSession("done")
	s.Handle(click(1, false, "a"))

	assert.True(t, s.Handle(click(2, false, "b")).Empty())
	assert.True(t, s.Handle(key("Escape")).Empty())

	res, _ := s.Result()
	assert.Equal(t, Single, res.Kind)
	assert.Equal(t, "a", res.Selections[0].Tag)
}

func TestSession_GoneAbandons(t *testing.T) {
	s, _ := NewSession("nav")
	s.Handle(click(1, true, "a"))
	s.Handle(Event{Kind: EventGone})

	assert.Equal(t, StateAbandoned, s.State())
	_, ok := s.Result()
	assert.False(t, ok)
}

func TestResultList(t *testing.T) {
	one := Selection{Tag: "a"}
	assert.Equal(t, []Selection{one}, Result{Kind: Single, Selections: []Selection{one}}.List())
	assert.Equal(t, []Selection{}, Result{Kind: Cancelled}.List())
}

func TestSession_ConcurrentHandle(t *testing.T) {
	s, _ := NewSession("race")

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(tok int) {
			defer wg.Done()
			s.Handle(click(ElementToken(tok%10+1), true, "div"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
}
