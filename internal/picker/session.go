// internal/picker/session.go
package picker

import (
	"fmt"
	"sync"

	"github.com/xkilldash9x/browserctl/internal/browser"
)

// ElementToken identifies a DOM node for the lifetime of a page. The page
// assigns it, so two look-alike elements always get different tokens.
type ElementToken int64

// EventKind discriminates page events.
type EventKind int

const (
	EventClick EventKind = iota + 1
	EventKey
	// EventGone means the document went away: navigation, reload, or the
	// tab being closed or detached.
	EventGone
)

// Event is one user interaction reported by the page.
type Event struct {
	Kind     EventKind
	Token    ElementToken
	Modifier bool
	Key      string
	Element  RawElement
}

// Effect is what the page should do in response to an event.
type Effect struct {
	// Outline, when non-zero, marks the element as selected.
	Outline ElementToken `json:"outline,omitempty"`
	// Banner, when non-empty, replaces the status text.
	Banner string `json:"banner,omitempty"`
	// Teardown removes the overlay, banner, listeners and outlines.
	Teardown bool `json:"teardown,omitempty"`
}

// Empty reports whether the effect requires no page update.
func (e Effect) Empty() bool {
	return e.Outline == 0 && e.Banner == "" && !e.Teardown
}

// State is the lifecycle stage of a pick session.
type State int

const (
	StateIdle State = iota
	StateActive
	StateResolved
	StateCancelled
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateResolved:
		return "resolved"
	case StateCancelled:
		return "cancelled"
	case StateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Kind discriminates pick results.
type Kind int

const (
	Cancelled Kind = iota
	Single
	Multiple
)

// Result is the outcome of a pick: Cancelled, Single(one selection) or
// Multiple(ordered selections).
type Result struct {
	Kind       Kind
	Selections []Selection
}

// List returns the result in printed form: empty when cancelled, the lone
// selection wrapped in a list for Single, the ordered list for Multiple.
func (r Result) List() []Selection {
	if r.Kind == Cancelled || r.Selections == nil {
		return []Selection{}
	}
	return r.Selections
}

// Session holds the state of one pick. It is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	message    string
	state      State
	selections []Selection
	selected   map[ElementToken]struct{}
	result     Result
}

// NewSession validates message and returns an active session.
func NewSession(message string) (*Session, error) {
	if message == "" {
		return nil, browser.InvalidArgument("pick requires a message")
	}
	return &Session{
		message:  message,
		state:    StateActive,
		selected: make(map[ElementToken]struct{}),
	}, nil
}

// Banner returns the status line shown to the user.
func (s *Session) Banner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bannerLocked()
}

func (s *Session) bannerLocked() string {
	return fmt.Sprintf("%s (%d selected, Cmd/Ctrl+click to add, Enter to finish, ESC to cancel)", s.message, len(s.selections))
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Len returns the number of accumulated selections.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selections)
}

// Result returns the outcome once the session reached Resolved or Cancelled.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateResolved, StateCancelled:
		return s.result, true
	default:
		return Result{}, false
	}
}

// Handle applies one page event and returns the page update it calls for.
// Events after a terminal state are ignored.
func (s *Session) Handle(ev Event) Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return Effect{}
	}

	switch ev.Kind {
	case EventClick:
		if ev.Modifier {
			if _, dup := s.selected[ev.Token]; dup {
				return Effect{}
			}
			s.selected[ev.Token] = struct{}{}
			s.selections = append(s.selections, BuildSelection(ev.Element))
			return Effect{Outline: ev.Token, Banner: s.bannerLocked()}
		}
		// A plain click while selections are pending finishes the set
		// instead of adding the clicked element.
		if len(s.selections) > 0 {
			s.resolveLocked(Result{Kind: Multiple, Selections: s.selections})
		} else {
			s.resolveLocked(Result{Kind: Single, Selections: []Selection{BuildSelection(ev.Element)}})
		}
		return Effect{Teardown: true}

	case EventKey:
		switch ev.Key {
		case "Escape":
			s.state = StateCancelled
			s.result = Result{Kind: Cancelled}
			return Effect{Teardown: true}
		case "Enter":
			if len(s.selections) == 0 {
				return Effect{}
			}
			s.resolveLocked(Result{Kind: Multiple, Selections: s.selections})
			return Effect{Teardown: true}
		}
		return Effect{}

	case EventGone:
		s.state = StateAbandoned
		return Effect{}
	}
	return Effect{}
}

func (s *Session) resolveLocked(r Result) {
	s.state = StateResolved
	s.result = r
}
