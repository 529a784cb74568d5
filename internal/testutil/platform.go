package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Platform is a fake backend for gateway and service tests. Tests register
// handlers per method and path; every request is counted so assertions can
// verify how many calls (including zero) actually hit the wire.
type Platform struct {
	srv *httptest.Server
	mux *http.ServeMux

	mu    sync.Mutex
	calls map[string]int
}

// NewPlatform starts a fake backend and closes it on test cleanup.
func NewPlatform(t TestingTB) *Platform {
	t.Helper()

	p := &Platform{
		mux:   http.NewServeMux(),
		calls: make(map[string]int),
	}
	p.srv = httptest.NewServer(p.mux)
	t.Cleanup(p.srv.Close)
	return p
}

// URL returns the backend base URL.
func (p *Platform) URL() string {
	return p.srv.URL
}

// Client returns the HTTP client wired to the backend.
func (p *Platform) Client() *http.Client {
	return p.srv.Client()
}

// Handle registers a handler for one method and path and counts its calls.
func (p *Platform) Handle(method, path string, fn http.HandlerFunc) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	p.mux.HandleFunc(method+" "+path, func(w http.ResponseWriter, r *http.Request) {
		p.record(r)
		fn(w, r)
	})
}

// StubJSON registers a handler that always answers with the given status and
// JSON-encoded body.
func (p *Platform) StubJSON(method, path string, status int, body any) {
	p.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

func (p *Platform) record(r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[r.Method+" "+r.URL.Path]++
}

// Calls reports how many requests hit the given method and path.
func (p *Platform) Calls(method, path string) int {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method+" "+path]
}

// TotalCalls reports how many requests hit the backend in total.
func (p *Platform) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

// WriteJSON encodes body as the response with a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		panic(fmt.Sprintf("testutil: encode response body: %v", err))
	}
}

// BearerToken extracts the bearer credential from a request, or "".
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimPrefix(auth, prefix)
}

// DecodeBody unmarshals the request body into v; it panics on malformed
// input since test fixtures control both sides.
func DecodeBody(r *http.Request, v any) {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		panic(fmt.Sprintf("testutil: decode request body: %v", err))
	}
}
