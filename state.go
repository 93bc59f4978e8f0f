package session

import (
	"context"
	"github.com/rs/zerolog"
	"github.com/viant/session/refresh"
	"github.com/viant/session/store"
	"sync"
)

// State represents the session lifecycle state
type State int32

const (
	LoggedOut State = iota
	LoggingIn
	Active
	Refreshing
	// Expired sessions need a new login; Refresh is allowed to retry one whose tokens were retained
	Expired
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "loggedOut"
	case LoggingIn:
		return "loggingIn"
	case Active:
		return "active"
	case Refreshing:
		return "refreshing"
	case Expired:
		return "expired"
	}
	return "unknown"
}

type tracker struct {
	mu     sync.RWMutex
	state  State
	store  store.Store
	logger *zerolog.Logger
}

func (t *tracker) get() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *tracker) set(next State) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.state
	t.state = next
	if prev != next {
		t.logger.Debug().Str("from", prev.String()).Str("to", next.String()).Msg("session state")
	}
	return prev
}

// onRefresh follows the refresher lifecycle
func (t *tracker) onRefresh(event refresh.Event) {
	switch event.Kind {
	case refresh.Started:
		t.set(Refreshing)
	case refresh.Succeeded:
		t.set(Active)
	case refresh.Failed:
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.state == LoggedOut || t.state == LoggingIn || t.replaced(event.RefreshToken) {
			return
		}
		t.logger.Debug().Str("from", t.state.String()).Str("to", Expired.String()).Msg("session state")
		t.state = Expired
	}
}

// replaced reports whether a login stored a new session after refreshToken was used.
// Login stores its pair before leaving LoggingIn, so checking under mu sees it.
func (t *tracker) replaced(refreshToken string) bool {
	if refreshToken == "" || t.store == nil {
		return false
	}
	pair, err := t.store.Get(context.Background())
	if err != nil {
		return false
	}
	return pair.RefreshToken != refreshToken
}
