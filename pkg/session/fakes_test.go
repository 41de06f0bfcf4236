package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sternrassler/pixabay-gallery/pkg/gallery"
	"github.com/Sternrassler/pixabay-gallery/pkg/pixabay"
)

type fetchCall struct {
	Query    string
	Page     int
	PageSize int
}

// fakeFetcher serves totalHits generated images per query, or fails with err.
type fakeFetcher struct {
	mu        sync.Mutex
	totalHits int
	err       error
	calls     []fetchCall
	// block, when set, is waited on before answering.
	block chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, query string, page, pageSize int) (*pixabay.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{query, page, pageSize})
	block, err, total := f.block, f.err, f.totalHits
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	first := (page - 1) * pageSize
	last := min(first+pageSize, total)
	res := &pixabay.Result{Total: total, TotalHits: total}
	for id := first + 1; id <= last; id++ {
		res.Images = append(res.Images, pixabay.Image{
			ID:           id,
			FullSizeURL:  fmt.Sprintf("https://cdn.example.com/%d_1280.jpg", id),
			ThumbnailURL: fmt.Sprintf("https://cdn.example.com/%d_640.jpg", id),
		})
	}
	return res, nil
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

// fakeView records every view operation the controller performs.
type fakeView struct {
	mu sync.Mutex

	shown      []gallery.Entry
	notices    []Notice
	ops        []string
	loadMore   bool
	backToTop  bool
	loader     bool
	loaderPos  LoaderPosition
	height     float64
	scrolledBy []float64
}

func (v *fakeView) Append(entries []gallery.Entry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shown = append(v.shown, entries...)
	v.ops = append(v.ops, "append")
	return nil
}

func (v *fakeView) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shown = nil
	v.ops = append(v.ops, "clear")
	return nil
}

func (v *fakeView) Notify(n Notice) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, n)
	return nil
}

func (v *fakeView) SetLoadMoreVisible(visible bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadMore = visible
	return nil
}

func (v *fakeView) SetBackToTopVisible(visible bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.backToTop = visible
	return nil
}

func (v *fakeView) ShowLoader(pos LoaderPosition) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loader = true
	v.loaderPos = pos
	v.ops = append(v.ops, "loader:"+string(pos))
	return nil
}

func (v *fakeView) HideLoader() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loader = false
	v.ops = append(v.ops, "loader:hidden")
	return nil
}

func (v *fakeView) ClearInput() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ops = append(v.ops, "clear-input")
	return nil
}

func (v *fakeView) EntryHeight() (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.height, v.height > 0
}

func (v *fakeView) ScrollBy(dy float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolledBy = append(v.scrolledBy, dy)
	return nil
}

func (v *fakeView) ScrollToTop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ops = append(v.ops, "scroll-top")
	return nil
}

func (v *fakeView) Shown() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.shown)
}

func (v *fakeView) Notices() []Notice {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Notice(nil), v.notices...)
}

func (v *fakeView) Ops() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.ops...)
}

func (v *fakeView) ScrolledBy() []float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]float64(nil), v.scrolledBy...)
}

func (v *fakeView) Controls() (loadMore, backToTop, loader bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadMore, v.backToTop, v.loader
}
