package session

import (
	"context"

	"github.com/Sternrassler/pixabay-gallery/pkg/pixabay"
)

// Fetcher retrieves one page of search results. *pixabay.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, query string, page, pageSize int) (*pixabay.Result, error)
}

// Gallery displays results. *gallery.Renderer implements it.
type Gallery interface {
	Render(ctx context.Context, images []pixabay.Image) error
	Clear() error
}

// Notifier shows user-visible notices.
type Notifier interface {
	Notify(n Notice) error
}

// LoaderPosition anchors the loading indicator relative to the gallery.
type LoaderPosition string

const (
	// LoaderBottom is used while the first page of a search loads.
	LoaderBottom LoaderPosition = "bottom"
	// LoaderTop is used while a further page loads.
	LoaderTop LoaderPosition = "top"
)

// Controls are the search page affordances besides the gallery itself.
type Controls interface {
	SetLoadMoreVisible(visible bool) error
	SetBackToTopVisible(visible bool) error
	ShowLoader(pos LoaderPosition) error
	HideLoader() error
	ClearInput() error
}

// Viewport is the scrollable area showing the gallery.
type Viewport interface {
	// EntryHeight returns the rendered height of the first gallery entry.
	// ok is false while nothing has been measured.
	EntryHeight() (height float64, ok bool)
	ScrollBy(dy float64) error
	ScrollToTop() error
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Fetcher  Fetcher
	Gallery  Gallery
	Notifier Notifier
	Controls Controls
	Viewport Viewport
}
