package session

import "errors"

var (
	// ErrValidation is returned by Submit for a blank query. No fetch is issued.
	ErrValidation = errors.New("search query is empty")

	// ErrNoResults is returned by Submit when the query matched nothing.
	ErrNoResults = errors.New("no images found")

	// ErrBusy is returned when an action is already in flight on the controller.
	ErrBusy = errors.New("another search action is in progress")

	// ErrNotPaginating is returned by LoadMore for a session without further pages.
	ErrNotPaginating = errors.New("session has no further pages")
)
