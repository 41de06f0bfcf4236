package web

import "github.com/Sternrassler/pixabay-gallery/pkg/session"

// Events sent by the browser.
const (
	EventSubmit    = "submit"
	EventLoadMore  = "loadMore"
	EventScrollTop = "scrollTop"
	EventLayout    = "layout"
)

// Event is one user event forwarded by the browser shell.
type Event struct {
	Type string `json:"type"`
	// Query is the raw input value of a submit.
	Query string `json:"query,omitempty"`
	// EntryHeight is the height in pixels of the first gallery entry,
	// reported with every layout event.
	EntryHeight float64 `json:"entryHeight,omitempty"`
}

// Operations sent to the browser.
const (
	OpAppend   = "append"
	OpClear    = "clear"
	OpControl  = "control"
	OpLoader   = "loader"
	OpToast    = "toast"
	OpLightbox = "lightbox"
	OpScroll   = "scroll"
	OpInput    = "input"
)

// Control names.
const (
	ControlLoadMore  = "loadMore"
	ControlBackToTop = "backToTop"
)

// Lightbox actions.
const (
	LightboxInit    = "init"
	LightboxRefresh = "refresh"
	LightboxDestroy = "destroy"
)

// Op is one view operation the browser shell applies.
type Op struct {
	Op string `json:"op"`

	// append
	HTML string `json:"html,omitempty"`

	// control, loader
	Name     string `json:"name,omitempty"`
	Visible  bool   `json:"visible"`
	Position string `json:"position,omitempty"`

	// toast
	Notice *session.Notice `json:"notice,omitempty"`

	// lightbox
	Action string `json:"action,omitempty"`

	// scroll
	By     float64 `json:"by,omitempty"`
	Top    bool    `json:"top,omitempty"`
	Smooth bool    `json:"smooth,omitempty"`

	// input
	Value *string `json:"value,omitempty"`
}
