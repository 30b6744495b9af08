// Package testutil provides testing utilities for kinofetch.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior of one mock site response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSite is a configurable mock of the film catalog site. Each path can be
// given a sequence of responses; the last one repeats once the script is
// spent, so flaky-server behavior (429, 429, 200) is easy to stage.
type MockSite struct {
	server *httptest.Server

	mu        sync.Mutex
	scripts   map[string][]MockResponse
	positions map[string]int
	handlers  map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	PathCounts        map[string]int
	LastRequestHeader http.Header
}

// NewMockSite creates a mock site server.
func NewMockSite() *MockSite {
	mock := &MockSite{
		scripts:    make(map[string][]MockResponse),
		positions:  make(map[string]int),
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		handler := mock.handlers[r.URL.Path]
		var resp *MockResponse
		if handler == nil {
			if script, ok := mock.scripts[r.URL.Path]; ok {
				pos := mock.positions[r.URL.Path]
				if pos >= len(script) {
					pos = len(script) - 1
				} else {
					mock.positions[r.URL.Path]++
				}
				resp = &script[pos]
			}
		}
		mock.mu.Unlock()

		switch {
		case handler != nil:
			handler(w, r)
		case resp != nil:
			writeResponse(w, *resp)
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// URL returns the mock server URL.
func (m *MockSite) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSite) Close() {
	m.server.Close()
}

// Reset clears tracking counters and script positions.
func (m *MockSite) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.positions = make(map[string]int)
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSite) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// Script sets the response sequence for a path. The last response repeats
// after the sequence is exhausted.
func (m *MockSite) Script(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[path] = responses
	m.positions[path] = 0
}

// GetRequestCount returns the total number of requests served.
func (m *MockSite) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// GetPathCount returns how many requests hit a specific path.
func (m *MockSite) GetPathCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PathCounts[path]
}

// FilmPage renders a film detail page with the given title and total fees,
// matching the markup the extractor targets.
func FilmPage(title, totalFees string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="ru">
<head><title>%s</title></head>
<body>
  <h1>%s</h1>
  <div class="card-film-age"><div>16+</div></div>
  <p><span class="-nowrap">Страна:</span> <span>Россия</span></p>
  <p><span class="-nowrap">Старт:</span> <span>28 авг. 2025</span></p>
  <p><span class="-nowrap">Год:</span> <span>2025</span></p>
  <div>Общие сборы</div>
  <span class="-val">%s</span>
</body>
</html>`, title, title, totalFees)
}

// ListingPage renders a catalog listing page linking to the given detail
// paths.
func ListingPage(detailPaths ...string) string {
	links := ""
	for i, path := range detailPaths {
		links += fmt.Sprintf("  <article><a href=%q>Фильм %d</a></article>\n", path, i+1)
	}
	return "<html><body>\n" + links + "</body></html>"
}

// NewFilmResponse creates a 200 response carrying a film detail page.
func NewFilmResponse(title, totalFees string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       FilmPage(title, totalFees),
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       "Too many requests",
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal server error",
	}
}

// NewEmptyPageResponse creates a 200 response whose body yields no film
// fields, for exercising the extraction-failure path.
func NewEmptyPageResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       "<html><body><p>страница не найдена</p></body></html>",
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
	}
}
