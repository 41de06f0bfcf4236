// Package session implements the search session controller of the gallery:
// validating queries, sequencing fetch and render for a new search and for
// "load more", deciding when results are exhausted and driving the loading,
// notice and control affordances of whatever surface it is wired to.
//
// The controller holds no per-search state. A Session value is passed into
// every operation and the updated Session is returned.
package session

import (
	"github.com/Sternrassler/pixabay-gallery/pkg/pagination"
)

// State is the position of a Session in the search lifecycle.
type State int

const (
	// StateIdle is the state before any search was submitted.
	StateIdle State = iota
	// StateLoading is held while a fetch is in flight.
	StateLoading
	// StateHasMore means results were rendered and more pages exist.
	StateHasMore
	// StateExhausted means every hit of the query has been rendered.
	StateExhausted
	// StateEmpty means the query matched nothing.
	StateEmpty
	// StateError means the last action failed.
	StateError
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateLoading:   "loading",
	StateHasMore:   "has_more",
	StateExhausted: "exhausted",
	StateEmpty:     "empty",
	StateError:     "error",
}

// String returns the snake_case name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Session is one search: the query and how far it has been paged.
type Session struct {
	Query string
	pagination.Cursor
	State State
}

// New returns the session for a fresh query positioned on page 1.
func New(query string, pageSize int) Session {
	return Session{
		Query:  query,
		Cursor: pagination.NewCursor(pageSize),
		State:  StateLoading,
	}
}

// CanLoadMore reports whether LoadMore may be called with s. A failed
// LoadMore can be retried as long as the totals of the query are known.
func (s Session) CanLoadMore() bool {
	switch s.State {
	case StateHasMore:
		return true
	case StateError:
		return s.Query != "" && s.Known && s.Cursor.HasMore()
	default:
		return false
	}
}
