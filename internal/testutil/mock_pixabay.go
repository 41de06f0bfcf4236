// Package testutil provides testing utilities for the gallery.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MockHit is the JSON shape of one Pixabay hit served by MockPixabay.
type MockHit struct {
	ID            int    `json:"id"`
	PageURL       string `json:"pageURL"`
	Tags          string `json:"tags"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	Views         int    `json:"views"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	Comments      int    `json:"comments"`
	User          string `json:"user"`
}

// MockResponse overrides the response for every request.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockPixabay is a configurable mock Pixabay search server.
// By default it serves a corpus of TotalHits generated hits for every query,
// paginated with the page and per_page parameters of the request.
type MockPixabay struct {
	server *httptest.Server

	mu        sync.RWMutex
	totalHits map[string]int
	override  *MockResponse
	remaining int

	// Tracking
	RequestCount int
	LastQuery    url.Values
	Requests     []url.Values
}

// NewMockPixabay creates a new mock server.
func NewMockPixabay() *MockPixabay {
	mock := &MockPixabay{
		totalHits: make(map[string]int),
		remaining: 100,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock search endpoint URL.
func (m *MockPixabay) URL() string {
	return m.server.URL + "/api/"
}

// Close shuts down the mock server.
func (m *MockPixabay) Close() {
	m.server.Close()
}

// SetTotalHits sets how many hits a query has.
func (m *MockPixabay) SetTotalHits(query string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalHits[query] = total
}

// SetResponse makes every following request return resp.
func (m *MockPixabay) SetResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = &resp
}

// ClearResponse restores the generated corpus responses.
func (m *MockPixabay) ClearResponse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = nil
}

// SetRemaining sets the X-RateLimit-Remaining value reported by the server.
func (m *MockPixabay) SetRemaining(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = n
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockPixabay) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastQuery returns the query parameters of the latest request.
func (m *MockPixabay) GetLastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

func (m *MockPixabay) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.LastQuery = r.URL.Query()
	m.Requests = append(m.Requests, r.URL.Query())
	override := m.override
	remaining := m.remaining
	total := m.totalHits[r.URL.Query().Get("q")]
	m.mu.Unlock()

	w.Header().Set("X-RateLimit-Limit", "100")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", "60")

	if override != nil {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		for k, v := range override.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	if r.URL.Query().Get("key") == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`[ERROR 400] "key" is a required parameter.`))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	first := (page - 1) * perPage
	if first > total {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`[ERROR 400] "page" is out of valid range.`))
		return
	}
	last := min(first+perPage, total)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"total":     total,
		"totalHits": total,
		"hits":      GenerateHits(first, last-first),
	})
}

// GenerateHits returns n deterministic hits whose ids start at offset+1.
func GenerateHits(offset, n int) []MockHit {
	hits := make([]MockHit, 0, n)
	for i := 0; i < n; i++ {
		id := offset + i + 1
		hits = append(hits, MockHit{
			ID:            id,
			PageURL:       fmt.Sprintf("https://pixabay.com/photos/%d/", id),
			Tags:          fmt.Sprintf("tag%d, nature", id),
			WebformatURL:  fmt.Sprintf("https://cdn.pixabay.com/photo/%d_640.jpg", id),
			LargeImageURL: fmt.Sprintf("https://cdn.pixabay.com/photo/%d_1280.jpg", id),
			Views:         id * 100,
			Downloads:     id * 10,
			Likes:         id,
			Comments:      id % 7,
			User:          "tester",
		})
	}
	return hits
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "internal error",
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       "[ERROR 429] Too many requests.",
		Headers: map[string]string{
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "30",
		},
	}
}

// NewMalformedResponse creates a 200 response that is not valid JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       "{not json",
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
