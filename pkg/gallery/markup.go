package gallery

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/pixabay-gallery/pkg/pixabay"
	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var counts = message.NewPrinter(language.English)

// FormatCount renders a counter with locale digit grouping (12345 -> "12,345").
func FormatCount(n int) string {
	return counts.Sprintf("%d", n)
}

// Item is the markup of one gallery entry: a link to the full-size image
// wrapping the thumbnail and its counters.
func Item(img pixabay.Image) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		href := templ.URL(img.FullSizeURL)
		src := templ.URL(img.ThumbnailURL)
		if _, err := fmt.Fprintf(w,
			`<a class="gallery-item" href="%s"><img class="gallery-image" src="%s" alt="%s" loading="lazy" />`,
			templ.EscapeString(string(href)),
			templ.EscapeString(string(src)),
			templ.EscapeString(img.Tags),
		); err != nil {
			return err
		}
		if err := info(img).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</a>`)
		return err
	})
}

func info(img pixabay.Image) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		stats := []struct {
			label string
			value int
		}{
			{"Likes", img.Likes},
			{"Views", img.Views},
			{"Comments", img.Comments},
			{"Downloads", img.Downloads},
		}
		if _, err := io.WriteString(w, `<div class="info">`); err != nil {
			return err
		}
		for _, s := range stats {
			if _, err := fmt.Fprintf(w, `<p><b>%s</b> %s</p>`, s.label, FormatCount(s.value)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// renderItem renders Item to a string.
func renderItem(ctx context.Context, img pixabay.Image) (string, error) {
	var buf bytes.Buffer
	if err := Item(img).Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("render gallery item %d: %w", img.ID, err)
	}
	return buf.String(), nil
}
