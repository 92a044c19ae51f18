// Package testutil provides small helpers for exercising the reference
// host's HTTP surface end-to-end in tests outside internal/httpapi.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amichne/konditional/internal/codec"
	"github.com/amichne/konditional/internal/demo"
	"github.com/amichne/konditional/internal/httpapi"
	"github.com/amichne/konditional/internal/registry"
)

// NewTestServer builds an httpapi.Server wired to a fresh in-memory
// registry for namespaceID's compile-time feature set (internal/demo),
// with a per-IP rate limit of 1000 requests per minute.
func NewTestServer(t *testing.T, namespaceID string) (*httpapi.Server, *registry.Registry) {
	t.Helper()
	ns, err := demo.BuildNamespace(namespaceID)
	if err != nil {
		t.Fatalf("BuildNamespace(%q): %v", namespaceID, err)
	}
	reg := registry.New(ns)
	return httpapi.New(reg, ns, codec.Options{}, 1000), reg
}

// HTTPRequest describes a single request to send to a test handler.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do sends the request to handler and returns the recorded response.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
