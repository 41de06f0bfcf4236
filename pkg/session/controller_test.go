package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Sternrassler/pixabay-gallery/pkg/gallery"
	"github.com/Sternrassler/pixabay-gallery/pkg/pixabay"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	ctrl     *Controller
	fetcher  *fakeFetcher
	view     *fakeView
	renderer *gallery.Renderer
}

func newHarness(t *testing.T, totalHits int) *harness {
	t.Helper()

	fetcher := &fakeFetcher{totalHits: totalHits}
	view := &fakeView{}
	renderer := gallery.New(view, nil)

	cfg := DefaultConfig()
	cfg.ScrollDelay = time.Millisecond

	ctrl, err := NewController(Deps{
		Fetcher:  fetcher,
		Gallery:  renderer,
		Notifier: view,
		Controls: view,
		Viewport: view,
	}, cfg, zerolog.Nop())
	require.NoError(t, err)

	return &harness{ctrl: ctrl, fetcher: fetcher, view: view, renderer: renderer}
}

func endOfResults() Notice {
	return Notice{Severity: SeverityInfo, Title: "End", Message: MsgEnd, Position: PositionTopRight}
}

func TestNewController_RequiresDeps(t *testing.T) {
	view := &fakeView{}
	full := Deps{
		Fetcher:  &fakeFetcher{},
		Gallery:  gallery.New(view, nil),
		Notifier: view,
		Controls: view,
		Viewport: view,
	}

	tests := []struct {
		name   string
		mutate func(*Deps, *Config)
		errMsg string
	}{
		{"no fetcher", func(d *Deps, _ *Config) { d.Fetcher = nil }, "fetcher is required"},
		{"no gallery", func(d *Deps, _ *Config) { d.Gallery = nil }, "gallery is required"},
		{"no notifier", func(d *Deps, _ *Config) { d.Notifier = nil }, "notifier is required"},
		{"no controls", func(d *Deps, _ *Config) { d.Controls = nil }, "controls are required"},
		{"no viewport", func(d *Deps, _ *Config) { d.Viewport = nil }, "viewport is required"},
		{"zero page size", func(_ *Deps, c *Config) { c.PageSize = 0 }, "page size must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, cfg := full, DefaultConfig()
			tt.mutate(&deps, &cfg)
			_, err := NewController(deps, cfg, zerolog.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSubmit_FetchesFirstPageOnce(t *testing.T) {
	h := newHarness(t, 120)

	s, err := h.ctrl.Submit(context.Background(), Session{}, "  cats  ")
	require.NoError(t, err)

	assert.Equal(t, []fetchCall{{Query: "cats", Page: 1, PageSize: 40}}, h.fetcher.Calls())
	assert.Equal(t, "cats", s.Query)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 120, s.TotalHits)
}

func TestSubmit_BlankQuery(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		h := newHarness(t, 120)
		ctx := context.Background()

		prev, err := h.ctrl.Submit(ctx, Session{}, "birds")
		require.NoError(t, err)
		before := h.view.Shown()

		s, err := h.ctrl.Submit(ctx, prev, raw)
		require.ErrorIs(t, err, ErrValidation)

		assert.Equal(t, prev, s, "session unchanged")
		assert.Len(t, h.fetcher.Calls(), 1, "no fetch for blank input")
		assert.Equal(t, before, h.view.Shown(), "gallery unchanged")

		notices := h.view.Notices()
		require.Len(t, notices, 1)
		assert.Equal(t, errorNotice(MsgEmptyQuery), notices[0])
	}
}

func TestSubmit_BlankQueryFromIdle(t *testing.T) {
	h := newHarness(t, 0)

	s, err := h.ctrl.Submit(context.Background(), Session{}, "")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StateIdle, s.State)
	assert.Empty(t, h.fetcher.Calls())
	assert.Empty(t, h.view.Ops(), "no view changes besides the notice")
}

func TestScenario_LoadMoreUntilExhausted(t *testing.T) {
	h := newHarness(t, 120)
	ctx := context.Background()

	s, err := h.ctrl.Submit(ctx, Session{}, "cats")
	require.NoError(t, err)
	assert.Equal(t, StateHasMore, s.State)
	assert.Equal(t, 40, h.view.Shown())
	loadMore, backToTop, loader := h.view.Controls()
	assert.True(t, loadMore)
	assert.True(t, backToTop)
	assert.False(t, loader)
	assert.Empty(t, h.view.Notices())

	s, err = h.ctrl.LoadMore(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, StateHasMore, s.State)
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, 80, h.view.Shown())
	loadMore, _, _ = h.view.Controls()
	assert.True(t, loadMore)
	assert.Empty(t, h.view.Notices())

	s, err = h.ctrl.LoadMore(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, StateExhausted, s.State)
	assert.Equal(t, 3, s.Page)
	assert.Equal(t, 120, h.view.Shown())
	loadMore, backToTop, loader = h.view.Controls()
	assert.False(t, loadMore)
	assert.False(t, backToTop)
	assert.False(t, loader)
	assert.Equal(t, []Notice{endOfResults()}, h.view.Notices())

	assert.Equal(t, []fetchCall{
		{"cats", 1, 40},
		{"cats", 2, 40},
		{"cats", 3, 40},
	}, h.fetcher.Calls())

	_, err = h.ctrl.LoadMore(ctx, s)
	require.ErrorIs(t, err, ErrNotPaginating)
	assert.Len(t, h.fetcher.Calls(), 3)
}

func TestAppendLaw(t *testing.T) {
	h := newHarness(t, 65)
	ctx := context.Background()

	s, err := h.ctrl.Submit(ctx, Session{}, "cats")
	require.NoError(t, err)
	_, err = h.ctrl.LoadMore(ctx, s)
	require.NoError(t, err)

	entries := h.renderer.Entries()
	require.Len(t, entries, 65)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Image.ID, "entries are in fetch order")
	}
}

func TestExhaustionBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("40 hits", func(t *testing.T) {
		h := newHarness(t, 40)
		s, err := h.ctrl.Submit(ctx, Session{}, "cats")
		require.NoError(t, err)
		assert.False(t, s.HasMore())
		assert.Equal(t, StateExhausted, s.State)
		assert.Equal(t, []Notice{endOfResults()}, h.view.Notices())
		loadMore, backToTop, _ := h.view.Controls()
		assert.False(t, loadMore)
		assert.False(t, backToTop)
	})

	t.Run("41 hits", func(t *testing.T) {
		h := newHarness(t, 41)
		s, err := h.ctrl.Submit(ctx, Session{}, "cats")
		require.NoError(t, err)
		assert.True(t, s.HasMore())

		s, err = h.ctrl.LoadMore(ctx, s)
		require.NoError(t, err)
		assert.False(t, s.HasMore())
		assert.Equal(t, StateExhausted, s.State)
		assert.Equal(t, 41, h.view.Shown())
	})
}

func TestSubmit_NoResults(t *testing.T) {
	h := newHarness(t, 0)

	s, err := h.ctrl.Submit(context.Background(), Session{}, "xyz")
	require.ErrorIs(t, err, ErrNoResults)

	assert.Equal(t, StateEmpty, s.State)
	assert.False(t, s.CanLoadMore())
	assert.Equal(t, 0, h.view.Shown())
	assert.Equal(t, []Notice{errorNotice(MsgNoImages)}, h.view.Notices())
	loadMore, backToTop, loader := h.view.Controls()
	assert.False(t, loadMore)
	assert.False(t, backToTop)
	assert.False(t, loader)
}

func TestSubmit_ClearsPreviousGallery(t *testing.T) {
	h := newHarness(t, 120)
	ctx := context.Background()

	s, err := h.ctrl.Submit(ctx, Session{}, "cats")
	require.NoError(t, err)
	s, err = h.ctrl.LoadMore(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 80, h.view.Shown())

	s, err = h.ctrl.Submit(ctx, s, "dogs")
	require.NoError(t, err)
	assert.Equal(t, "dogs", s.Query)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 40, h.view.Shown())
}

func TestSubmit_FetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"network", &pixabay.NetworkError{Err: io.ErrUnexpectedEOF}, MsgNoResponse},
		{"service", &pixabay.ServiceError{StatusCode: 503}, "Server error: 503"},
		{"rate limited by pixabay", &pixabay.ServiceError{StatusCode: 429}, "Server error: 429"},
		{"other", errors.New("decode search response: EOF"), MsgGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 120)
			ctx := context.Background()

			prev, err := h.ctrl.Submit(ctx, Session{}, "cats")
			require.NoError(t, err)

			h.fetcher.setErr(tt.err)
			s, err := h.ctrl.Submit(ctx, prev, "dogs")
			require.ErrorIs(t, err, tt.err)

			assert.Equal(t, StateError, s.State)
			assert.Equal(t, "dogs", s.Query)
			assert.False(t, s.CanLoadMore())
			assert.Equal(t, 0, h.view.Shown(), "gallery stays cleared")
			assert.Equal(t, []Notice{errorNotice(tt.message)}, h.view.Notices())

			_, _, loader := h.view.Controls()
			assert.False(t, loader, "loader hidden after failure")
		})
	}
}

func TestLoaderPositions(t *testing.T) {
	h := newHarness(t, 120)
	ctx := context.Background()

	s, err := h.ctrl.Submit(ctx, Session{}, "cats")
	require.NoError(t, err)
	_, err = h.ctrl.LoadMore(ctx, s)
	require.NoError(t, err)

	ops := h.view.Ops()
	assert.Equal(t, []string{
		"clear",
		"loader:bottom",
		"append",
		"clear-input",
		"loader:hidden",
		"loader:top",
		"append",
		"loader:hidden",
	}, ops)
}

func TestLoadMore_FailureKeepsPageAndRetries(t *testing.T) {
	h := newHarness(t, 120)
	ctx := context.Background()

	s, err := h.ctrl.Submit(ctx, Session{}, "cats")
	require.NoError(t, err)

	h.fetcher.setErr(&pixabay.ServiceError{StatusCode: 500})
	failed, err := h.ctrl.LoadMore(ctx, s)
	require.Error(t, err)

	assert.Equal(t, StateError, failed.State)
	assert.Equal(t, 1, failed.Page, "failed page is not counted")
	assert.Equal(t, 40, h.view.Shown())
	assert.Equal(t, []Notice{errorNotice("Server error: 500")}, h.view.Notices())
	assert.True(t, failed.CanLoadMore())
	_, _, loader := h.view.Controls()
	assert.False(t, loader)

	h.fetcher.setErr(nil)
	s, err = h.ctrl.LoadMore(ctx, failed)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, StateHasMore, s.State)
	assert.Equal(t, 80, h.view.Shown())
}

func TestOverlayFailureKeepsPage(t *testing.T) {
	fetcher := &fakeFetcher{totalHits: 120}
	view := &fakeView{}
	renderer := gallery.New(view, func() (gallery.Overlay, error) {
		return nil, errors.New("lightbox unavailable")
	})

	cfg := DefaultConfig()
	cfg.ScrollDelay = time.Millisecond
	ctrl, err := NewController(Deps{
		Fetcher:  fetcher,
		Gallery:  renderer,
		Notifier: view,
		Controls: view,
		Viewport: view,
	}, cfg, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	s, err := ctrl.Submit(ctx, Session{}, "cats")
	require.NoError(t, err)
	assert.Equal(t, StateHasMore, s.State)
	assert.True(t, s.Known)
	assert.Equal(t, 40, view.Shown())
	assert.Empty(t, view.Notices())
	loadMore, _, _ := view.Controls()
	assert.True(t, loadMore)

	s, err = ctrl.LoadMore(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, 80, view.Shown())
}

func TestLoadMore_RequiresPagination(t *testing.T) {
	h := newHarness(t, 120)
	ctx := context.Background()

	for _, s := range []Session{
		{},
		{Query: "cats", State: StateExhausted},
		{Query: "cats", State: StateEmpty},
		{Query: "cats", State: StateError},
	} {
		got, err := h.ctrl.LoadMore(ctx, s)
		require.ErrorIs(t, err, ErrNotPaginating, "state %s", s.State)
		assert.Equal(t, s, got)
	}
	assert.Empty(t, h.fetcher.Calls())
	assert.Empty(t, h.view.Ops())
}

func TestLoadMore_ScrollsByTwoEntries(t *testing.T) {
	h := newHarness(t, 120)
	h.view.height = 150
	ctx := context.Background()

	s, err := h.ctrl.Submit(ctx, Session{}, "cats")
	require.NoError(t, err)
	assert.Empty(t, h.view.ScrolledBy(), "no auto scroll after a submit")

	_, err = h.ctrl.LoadMore(ctx, s)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(h.view.ScrolledBy()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []float64{300}, h.view.ScrolledBy())
}

func TestLoadMore_NoScrollWithoutMeasurement(t *testing.T) {
	h := newHarness(t, 120)
	ctx := context.Background()

	s, err := h.ctrl.Submit(ctx, Session{}, "cats")
	require.NoError(t, err)
	_, err = h.ctrl.LoadMore(ctx, s)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, h.view.ScrolledBy())
}

func TestBusy_RejectsOverlappingActions(t *testing.T) {
	h := newHarness(t, 120)
	h.fetcher.block = make(chan struct{})
	ctx := context.Background()

	done := make(chan Session)
	go func() {
		s, _ := h.ctrl.Submit(ctx, Session{}, "cats")
		done <- s
	}()

	require.Eventually(t, h.ctrl.Busy, time.Second, time.Millisecond)

	prev := Session{Query: "x"}
	got, err := h.ctrl.Submit(ctx, prev, "dogs")
	require.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, prev, got)

	pending := Session{Query: "cats", State: StateHasMore}
	_, err = h.ctrl.LoadMore(ctx, pending)
	require.ErrorIs(t, err, ErrBusy)

	close(h.fetcher.block)
	s := <-done
	assert.Equal(t, StateHasMore, s.State)
	assert.Len(t, h.fetcher.Calls(), 1)
	assert.False(t, h.ctrl.Busy())
}

func TestScrollToTop(t *testing.T) {
	h := newHarness(t, 0)

	require.NoError(t, h.ctrl.ScrollToTop())
	assert.Equal(t, []string{"scroll-top"}, h.view.Ops())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "has_more", StateHasMore.String())
	assert.Equal(t, "exhausted", StateExhausted.String())
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "unknown", State(42).String())
}
