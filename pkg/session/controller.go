package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/pixabay-gallery/pkg/gallery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gallery_actions_total",
	Help: "Total search actions by action and outcome",
}, []string{"action", "outcome"})

const (
	actionSubmit   = "submit"
	actionLoadMore = "load_more"
)

// Config holds controller settings.
type Config struct {
	// PageSize is the number of images requested per page.
	PageSize int

	// ScrollDelay is how long LoadMore waits for layout to settle before
	// scrolling to the new entries.
	ScrollDelay time.Duration

	// ScrollEntries is how many entry heights LoadMore scrolls by.
	ScrollEntries int
}

// DefaultConfig returns the gallery defaults: 40 images per page, scroll by
// two entries 100ms after a LoadMore.
func DefaultConfig() Config {
	return Config{
		PageSize:      40,
		ScrollDelay:   100 * time.Millisecond,
		ScrollEntries: 2,
	}
}

// Controller sequences search actions against its collaborators.
// At most one Submit or LoadMore runs at a time.
type Controller struct {
	deps   Deps
	config Config
	logger zerolog.Logger
	busy   atomic.Bool
}

// NewController creates a controller. Every dependency is required.
func NewController(deps Deps, cfg Config, logger zerolog.Logger) (*Controller, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, fmt.Errorf("fetcher is required")
	case deps.Gallery == nil:
		return nil, fmt.Errorf("gallery is required")
	case deps.Notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	case deps.Controls == nil:
		return nil, fmt.Errorf("controls are required")
	case deps.Viewport == nil:
		return nil, fmt.Errorf("viewport is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive (got %d)", cfg.PageSize)
	}
	if cfg.ScrollEntries < 0 {
		cfg.ScrollEntries = 0
	}

	return &Controller{
		deps:   deps,
		config: cfg,
		logger: logger,
	}, nil
}

// Submit starts a new search for raw. A blank query only shows a notice and
// returns prev unchanged with ErrValidation. Otherwise the gallery is cleared
// and the first page is fetched and rendered; the returned Session reflects
// the outcome. Fetch failures are shown as a notice and returned.
func (c *Controller) Submit(ctx context.Context, prev Session, raw string) (Session, error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Warn().Str("action", actionSubmit).Msg("Action rejected, another one is in flight")
		actionsTotal.WithLabelValues(actionSubmit, "busy").Inc()
		return prev, ErrBusy
	}
	defer c.busy.Store(false)

	query := strings.TrimSpace(raw)
	if query == "" {
		c.notify(errorNotice(MsgEmptyQuery))
		actionsTotal.WithLabelValues(actionSubmit, "validation").Inc()
		return prev, ErrValidation
	}

	s := New(query, c.config.PageSize)

	c.view("clear gallery", c.deps.Gallery.Clear())
	c.view("hide load more", c.deps.Controls.SetLoadMoreVisible(false))
	c.view("show loader", c.deps.Controls.ShowLoader(LoaderBottom))
	defer func() {
		c.view("hide loader", c.deps.Controls.HideLoader())
	}()

	s, err := c.fetchPage(ctx, s)
	switch {
	case err != nil:
		// Nothing of the query is displayed, so it cannot be paged.
		s.Known = false
		s.State = StateError
		c.notify(failureNotice(err))
		c.view("clear input", c.deps.Controls.ClearInput())

	case s.State == StateEmpty:
		c.notify(errorNotice(MsgNoImages))
		c.view("hide load more", c.deps.Controls.SetLoadMoreVisible(false))
		c.view("hide back to top", c.deps.Controls.SetBackToTopVisible(false))
		err = ErrNoResults

	case s.State == StateHasMore:
		c.view("show load more", c.deps.Controls.SetLoadMoreVisible(true))
		c.view("show back to top", c.deps.Controls.SetBackToTopVisible(true))
		c.view("clear input", c.deps.Controls.ClearInput())

	default:
		c.notify(endNotice())
		c.view("hide back to top", c.deps.Controls.SetBackToTopVisible(false))
		c.view("clear input", c.deps.Controls.ClearInput())
	}

	c.record(actionSubmit, s, err)
	return s, err
}

// LoadMore fetches and appends the page after cur. It is only valid while
// cur.CanLoadMore() holds. On failure the returned Session keeps the page of
// cur and is in StateError, so LoadMore can be retried.
func (c *Controller) LoadMore(ctx context.Context, cur Session) (Session, error) {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Warn().Str("action", actionLoadMore).Msg("Action rejected, another one is in flight")
		actionsTotal.WithLabelValues(actionLoadMore, "busy").Inc()
		return cur, ErrBusy
	}
	defer c.busy.Store(false)

	if !cur.CanLoadMore() {
		actionsTotal.WithLabelValues(actionLoadMore, "not_paginating").Inc()
		return cur, ErrNotPaginating
	}

	s := cur
	s.Cursor = cur.Next()
	s.State = StateLoading

	c.view("show loader", c.deps.Controls.ShowLoader(LoaderTop))
	defer func() {
		c.view("hide loader", c.deps.Controls.HideLoader())
	}()

	s, err := c.fetchPage(ctx, s)
	if err != nil {
		failed := cur
		failed.State = StateError
		c.notify(failureNotice(err))
		c.record(actionLoadMore, failed, err)
		return failed, err
	}

	if s.State != StateHasMore {
		s.State = StateExhausted
		c.view("hide load more", c.deps.Controls.SetLoadMoreVisible(false))
		c.view("hide back to top", c.deps.Controls.SetBackToTopVisible(false))
		c.notify(endNotice())
	}

	c.scheduleScroll()
	c.record(actionLoadMore, s, nil)
	return s, nil
}

// ScrollToTop scrolls the viewport back to the start of the gallery.
func (c *Controller) ScrollToTop() error {
	return c.deps.Viewport.ScrollToTop()
}

// Busy reports whether an action is in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// fetchPage fetches and renders the page s points at and records the totals.
// The returned state is StateEmpty, StateHasMore or StateExhausted.
func (c *Controller) fetchPage(ctx context.Context, s Session) (Session, error) {
	res, err := c.deps.Fetcher.Fetch(ctx, s.Query, s.Page, s.PageSize)
	if err != nil {
		c.logger.Error().Err(err).Str("query", s.Query).Int("page", s.Page).Msg("Fetch failed")
		return s, err
	}

	s.Observe(res.TotalHits)

	if len(res.Images) == 0 && s.Page == 1 {
		s.State = StateEmpty
		return s, nil
	}

	err = c.deps.Gallery.Render(ctx, res.Images)
	switch {
	case errors.Is(err, gallery.ErrOverlay):
		// The page is displayed; only click-to-enlarge is missing.
		c.view("overlay", err)
	case err != nil:
		c.logger.Error().Err(err).Str("query", s.Query).Int("page", s.Page).Msg("Render failed")
		return s, fmt.Errorf("render page %d: %w", s.Page, err)
	}

	if s.HasMore() {
		s.State = StateHasMore
	} else {
		s.State = StateExhausted
	}
	return s, nil
}

// scheduleScroll moves the viewport into freshly appended entries once the
// layout had time to settle. The scroll is best effort and never awaited.
func (c *Controller) scheduleScroll() {
	if c.config.ScrollEntries == 0 {
		return
	}
	time.AfterFunc(c.config.ScrollDelay, func() {
		height, ok := c.deps.Viewport.EntryHeight()
		if !ok || height <= 0 {
			return
		}
		c.view("scroll", c.deps.Viewport.ScrollBy(height*float64(c.config.ScrollEntries)))
	})
}

func (c *Controller) notify(n Notice) {
	if err := c.deps.Notifier.Notify(n); err != nil {
		c.logger.Warn().Err(err).Str("message", n.Message).Msg("Failed to show notice")
	}
}

// view logs a failed view update. View failures never fail an action.
func (c *Controller) view(op string, err error) {
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Msg("View update failed")
	}
}

func (c *Controller) record(action string, s Session, err error) {
	outcome := s.State.String()
	actionsTotal.WithLabelValues(action, outcome).Inc()

	ev := c.logger.Info()
	if err != nil && !errors.Is(err, ErrNoResults) {
		ev = c.logger.Warn().Err(err)
	}
	ev.Str("action", action).
		Str("query", s.Query).
		Int("page", s.Page).
		Int("total_hits", s.TotalHits).
		Str("state", outcome).
		Msg("Search action completed")
}
