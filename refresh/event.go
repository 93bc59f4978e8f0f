package refresh

// EventKind represents a refresh lifecycle step
type EventKind int

const (
	// Started is emitted before the refresh request is sent
	Started EventKind = iota
	// Succeeded is emitted once the new access token is stored
	Succeeded
	// Failed is emitted when the session can not be refreshed
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Event is reported once per coalesced refresh, never per waiter
type Event struct {
	Kind EventKind
	// RefreshToken is the token the refresh was attempted with, empty when none was stored
	RefreshToken string
	Err          error
}

// Observer receives refresh events; it is called synchronously and must not block
type Observer func(event Event)
