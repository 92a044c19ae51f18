package testutil

import (
	"net/http"
	"testing"
)

func TestNewTestServer_HealthCheckSucceeds(t *testing.T) {
	server, reg := NewTestServer(t, "app")
	if server == nil {
		t.Fatal("expected a non-nil server")
	}
	if reg == nil {
		t.Fatal("expected a non-nil registry")
	}

	req := &HTTPRequest{Method: http.MethodGet, Path: "/healthz"}
	rr := req.Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("expected body 'ok', got %q", rr.Body.String())
	}
}

func TestHTTPRequest_DoSetsJSONContentType(t *testing.T) {
	server, _ := NewTestServer(t, "app")

	req := &HTTPRequest{
		Method: http.MethodPost,
		Path:   "/v1/overrides",
		Body:   `{"featureKey":"darkMode","type":"BOOLEAN","value":true}`,
	}
	rr := req.Do(t, server.Router())

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHTTPRequest_HeaderOverride(t *testing.T) {
	server, _ := NewTestServer(t, "app")

	req := &HTTPRequest{
		Method:  http.MethodPost,
		Path:    "/v1/overrides",
		Body:    `not json`,
		Headers: map[string]string{"Content-Type": "text/plain"},
	}
	rr := req.Do(t, server.Router())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON body, got %d", rr.Code)
	}
}
