// Package helpers provides testing utilities for integration tests.
package helpers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// detailsPathPrefix mirrors the source site's details route.
const detailsPathPrefix = "/cardetails/"

// MockVehicleSite simulates the source site for lookup tests. Known
// registrations get a details page; everything else gets the site's
// not-found page with a 200 status, the way the real site answers. Request
// counts per registration let tests assert cache behavior.
type MockVehicleSite struct {
	Server *httptest.Server

	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

// NewMockVehicleSite starts a site serving the given fixtures.
func NewMockVehicleSite(fixtures ...VehicleFixture) *MockVehicleSite {
	site := &MockVehicleSite{
		pages: make(map[string]string, len(fixtures)),
		hits:  make(map[string]int),
	}

	for _, fixture := range fixtures {
		site.pages[strings.ToUpper(fixture.Registration)] = DetailsPageHTML(fixture)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(detailsPathPrefix, site.serveDetails)
	site.Server = httptest.NewServer(mux)

	return site
}

// BaseURL returns the site root with a trailing slash, the shape extractor
// configuration expects.
func (s *MockVehicleSite) BaseURL() string {
	return s.Server.URL + "/"
}

// Hits returns how many times a registration's details page was requested.
func (s *MockVehicleSite) Hits(registration string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[strings.ToUpper(registration)]
}

// Close shuts the site down.
func (s *MockVehicleSite) Close() {
	s.Server.Close()
}

// serveDetails answers a details-page request. The site routes lowercase
// registrations, so the path tail is uppercased before lookup.
func (s *MockVehicleSite) serveDetails(w http.ResponseWriter, r *http.Request) {
	registration := strings.ToUpper(strings.TrimPrefix(r.URL.Path, detailsPathPrefix))

	s.mu.Lock()
	s.hits[registration]++
	page, known := s.pages[registration]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if known {
		_, _ = fmt.Fprint(w, page)
		return
	}
	_, _ = fmt.Fprint(w, NotFoundPageHTML())
}

// MockBlockedSite simulates a site whose defenses reject every request with
// a challenge page.
func MockBlockedSite() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, ChallengePageHTML())
	})
	return httptest.NewServer(mux)
}
