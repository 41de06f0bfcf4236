package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Sternrassler/pixabay-gallery/pkg/config"
	"github.com/Sternrassler/pixabay-gallery/pkg/gallery"
	"github.com/Sternrassler/pixabay-gallery/pkg/logging"
	"github.com/Sternrassler/pixabay-gallery/pkg/session"
	"github.com/Sternrassler/pixabay-gallery/pkg/terminal"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search images and print them as cards",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "pages",
				Usage: "Number of pages to load",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			client, err := newPixabayClient(cfg, nil)
			if err != nil {
				return fmt.Errorf("creating pixabay client: %w", err)
			}
			query := strings.Join(c.Args().Slice(), " ")
			return search(ctx, cfg, client, query, c.Int("pages"), os.Stdout)
		},
	}
}

// search runs a Submit followed by up to pages-1 LoadMore on a terminal view.
func search(ctx context.Context, cfg *config.Config, fetcher session.Fetcher, query string, pages int, w io.Writer) error {
	view := terminal.NewView(w)

	ctrl, err := session.NewController(session.Deps{
		Fetcher:  fetcher,
		Gallery:  gallery.New(view, view.NewOverlay),
		Notifier: view,
		Controls: view,
		Viewport: view,
	}, sessionConfig(cfg), logging.NewLogger(logging.ComponentTerminal))
	if err != nil {
		return err
	}

	s, err := ctrl.Submit(ctx, session.Session{}, query)
	if errors.Is(err, session.ErrNoResults) {
		return nil
	}
	if err != nil {
		return err
	}

	for page := 1; page < pages && s.CanLoadMore(); page++ {
		if s, err = ctrl.LoadMore(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
