// Package gallery renders image search results into an append-only gallery.
//
// The Renderer owns the ordered list of rendered entries and an optional
// lightbox overlay. Where the entries are displayed is up to the Surface it
// is given, so the same Renderer drives a browser connection or a terminal.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sternrassler/pixabay-gallery/pkg/pixabay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var entriesRendered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gallery_entries_rendered_total",
	Help: "Total number of gallery entries appended to a surface",
})

// ErrOverlay marks a Render failure that happened after the entries were
// appended. The entries stay displayed and counted.
var ErrOverlay = errors.New("gallery overlay")

// Entry is one rendered gallery item.
type Entry struct {
	// Index is the 0-based position of the entry since the last Clear.
	Index  int
	Image  pixabay.Image
	Markup string
}

// Surface displays gallery entries.
type Surface interface {
	// Append adds entries after the ones already displayed, in order.
	Append(entries []Entry) error
	// Clear removes every displayed entry.
	Clear() error
}

// Overlay is the click-to-enlarge navigation over the displayed entries.
type Overlay interface {
	// Refresh makes newly appended entries reachable in the overlay.
	Refresh() error
}

// OverlayFactory constructs the overlay over the entries currently displayed.
type OverlayFactory func() (Overlay, error)

// Renderer appends images to a Surface and keeps the overlay bound to them.
type Renderer struct {
	mu         sync.Mutex
	surface    Surface
	newOverlay OverlayFactory
	overlay    Overlay
	entries    []Entry
}

// New creates a Renderer. newOverlay may be nil when the surface has no overlay.
func New(surface Surface, newOverlay OverlayFactory) *Renderer {
	if surface == nil {
		panic("gallery surface cannot be nil")
	}
	return &Renderer{
		surface:    surface,
		newOverlay: newOverlay,
	}
}

// Render appends one entry per image, in order, then builds the overlay on
// first use or refreshes it. Rendering no images does nothing. An overlay
// failure is returned wrapping ErrOverlay.
func (r *Renderer) Render(ctx context.Context, images []pixabay.Image) error {
	if len(images) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make([]Entry, 0, len(images))
	for i, img := range images {
		markup, err := renderItem(ctx, img)
		if err != nil {
			return err
		}
		batch = append(batch, Entry{
			Index:  len(r.entries) + i,
			Image:  img,
			Markup: markup,
		})
	}

	if err := r.surface.Append(batch); err != nil {
		return fmt.Errorf("append to surface: %w", err)
	}
	r.entries = append(r.entries, batch...)
	entriesRendered.Add(float64(len(batch)))

	return r.ensureOverlay()
}

// ensureOverlay constructs the overlay once and refreshes it afterwards.
func (r *Renderer) ensureOverlay() error {
	if r.overlay != nil {
		if err := r.overlay.Refresh(); err != nil {
			return fmt.Errorf("%w: refresh: %w", ErrOverlay, err)
		}
		return nil
	}
	if r.newOverlay == nil {
		return nil
	}
	overlay, err := r.newOverlay()
	if err != nil {
		return fmt.Errorf("%w: create: %w", ErrOverlay, err)
	}
	r.overlay = overlay
	return nil
}

// Clear removes every entry. The overlay is kept and refreshed on the next Render.
func (r *Renderer) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	if err := r.surface.Clear(); err != nil {
		return fmt.Errorf("clear surface: %w", err)
	}
	return nil
}

// Len returns the number of rendered entries.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Entries returns a copy of the rendered entries in display order.
func (r *Renderer) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
