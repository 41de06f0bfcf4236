package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Sternrassler/pixabay-gallery/pkg/config"
	"github.com/Sternrassler/pixabay-gallery/pkg/logging"
	"github.com/Sternrassler/pixabay-gallery/pkg/pixabay"
	"github.com/Sternrassler/pixabay-gallery/pkg/session"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "gallery",
		Usage: "Search Pixabay images from the browser or the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Configuration file path",
				Value:   "gallery.toml",
				Sources: cli.EnvVars("GALLERY_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "log-pretty",
				Usage:   "Human readable log output instead of JSON",
				Sources: cli.EnvVars("LOG_PRETTY"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			searchCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("gallery failed")
	}
}

// loadConfig loads and validates the configuration named by the global
// flags and sets up logging from it.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"), ".env")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Bool("debug") {
		cfg.Log.Level = string(logging.LevelDebug)
	}
	if cmd.Bool("log-pretty") {
		cfg.Log.Pretty = true
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func sessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		PageSize:      cfg.Gallery.PageSize,
		ScrollDelay:   cfg.Gallery.ScrollDelay.Duration,
		ScrollEntries: cfg.Gallery.ScrollEntries,
	}
}

func newPixabayClient(cfg *config.Config, limiter pixabay.Limiter) (*pixabay.Client, error) {
	pcfg := pixabay.DefaultConfig(cfg.Pixabay.APIKey)
	pcfg.BaseURL = cfg.Pixabay.BaseURL
	pcfg.ImageType = cfg.Pixabay.ImageType
	pcfg.Orientation = cfg.Pixabay.Orientation
	pcfg.SafeSearch = cfg.Pixabay.SafeSearch
	pcfg.Timeout = cfg.Pixabay.Timeout.Duration
	pcfg.Limiter = limiter
	return pixabay.New(pcfg)
}
