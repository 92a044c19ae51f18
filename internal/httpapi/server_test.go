package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amichne/konditional/internal/codec"
	"github.com/amichne/konditional/internal/demo"
	"github.com/amichne/konditional/internal/registry"
)

func newTestServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()
	ns, err := demo.BuildNamespace("app")
	if err != nil {
		t.Fatalf("BuildNamespace failed: %v", err)
	}
	reg := registry.New(ns)
	return New(reg, ns, codec.Options{}, 1000), reg
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %q", rr.Body.String())
	}
}

func TestHandleEvaluate_UnloadedFeatureReturnsZeroValue(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	body, _ := json.Marshal(evaluateRequest{
		FeatureKey: "darkMode",
		Locale:     "UNITED_STATES",
		Platform:   "IOS",
		Version:    "1.0.0",
		StableID:   "user-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Outcome != "FLAG_NOT_FOUND" {
		t.Errorf("expected FLAG_NOT_FOUND, got %s", resp.Outcome)
	}
	if resp.Value != false {
		t.Errorf("expected zero value false, got %v", resp.Value)
	}
}

func TestHandleEvaluate_MissingFeatureKeyIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	body, _ := json.Marshal(evaluateRequest{StableID: "user-1", Version: "1.0.0"})
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleSetOverride_ThenEvaluateReflectsIt(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	overrideBody, _ := json.Marshal(overrideRequest{FeatureKey: "darkMode", Type: "BOOLEAN", Value: true})
	req := httptest.NewRequest(http.MethodPost, "/v1/overrides", bytes.NewReader(overrideBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 setting override, got %d: %s", rr.Code, rr.Body.String())
	}

	evalBody, _ := json.Marshal(evaluateRequest{FeatureKey: "darkMode", Version: "1.0.0", StableID: "user-1"})
	req = httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewReader(evalBody))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp evaluateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Value != true {
		t.Errorf("expected overridden value true, got %v", resp.Value)
	}
}

func TestHandleKillAll(t *testing.T) {
	srv, reg := newTestServer(t)
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/v1/kill-all", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if reg.Snapshot().Source != "disabled" {
		t.Errorf("expected registry to be disabled, got source=%s", reg.Snapshot().Source)
	}
}

func TestHandleSnapshot_ReturnsCanonicalJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected valid JSON snapshot: %v", err)
	}
}
