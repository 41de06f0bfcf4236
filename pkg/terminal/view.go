// Package terminal renders the gallery as styled text cards, driving the
// same session controller as the browser surface.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Sternrassler/pixabay-gallery/pkg/gallery"
	"github.com/Sternrassler/pixabay-gallery/pkg/session"
	"github.com/charmbracelet/lipgloss"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 0, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32")).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("32")).
			Padding(0, 1)

	loaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)
)

// View writes the gallery to w. It implements gallery.Surface and every view
// interface of session.Deps. Scrolling has no meaning on a terminal.
type View struct {
	mu sync.Mutex
	w  io.Writer

	cardHeight int
	loadMore   bool
	backToTop  bool
	refreshes  int
}

// NewView creates a view writing to w.
func NewView(w io.Writer) *View {
	return &View{w: w}
}

// Append writes one card per entry.
func (v *View) Append(entries []gallery.Entry) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, e := range entries {
		card := renderCard(e)
		if v.cardHeight == 0 {
			v.cardHeight = lipgloss.Height(card)
		}
		if _, err := fmt.Fprintln(v.w, card); err != nil {
			return err
		}
	}
	return nil
}

func renderCard(e gallery.Entry) string {
	img := e.Image
	tags := img.Tags
	if tags == "" {
		tags = "untitled"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("#%d %s", e.Index+1, tags)))
	b.WriteString("\n")
	b.WriteString(urlStyle.Render(img.FullSizeURL))
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(fmt.Sprintf("Likes %s | Views %s | Comments %s | Downloads %s",
		gallery.FormatCount(img.Likes),
		gallery.FormatCount(img.Views),
		gallery.FormatCount(img.Comments),
		gallery.FormatCount(img.Downloads),
	)))
	return cardStyle.Render(b.String())
}

// Clear forgets the measured card height. Printed output cannot be taken back.
func (v *View) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cardHeight = 0
	return nil
}

// NewOverlay is the gallery.OverlayFactory of the terminal: the cards already
// carry their full-size links, so the overlay only counts refreshes.
func (v *View) NewOverlay() (gallery.Overlay, error) {
	return v, nil
}

// Refresh implements gallery.Overlay.
func (v *View) Refresh() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshes++
	return nil
}

// Notify prints a notice.
func (v *View) Notify(n session.Notice) error {
	style := infoStyle
	if n.Severity == session.SeverityError {
		style = errorStyle
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := fmt.Fprintln(v.w, style.Render(n.Title+": "+n.Message))
	return err
}

func (v *View) SetLoadMoreVisible(visible bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadMore = visible
	return nil
}

func (v *View) SetBackToTopVisible(visible bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.backToTop = visible
	return nil
}

// ShowLoader prints a loading line.
func (v *View) ShowLoader(pos session.LoaderPosition) error {
	msg := "Loading images..."
	if pos == session.LoaderTop {
		msg = "Loading more images..."
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := fmt.Fprintln(v.w, loaderStyle.Render(msg))
	return err
}

func (v *View) HideLoader() error { return nil }

func (v *View) ClearInput() error { return nil }

// EntryHeight is the height in lines of the first card since the last Clear.
func (v *View) EntryHeight() (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return float64(v.cardHeight), v.cardHeight > 0
}

func (v *View) ScrollBy(float64) error { return nil }

func (v *View) ScrollToTop() error { return nil }

// LoadMoreVisible reports whether more pages can be requested.
func (v *View) LoadMoreVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadMore
}
