package ctlclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amichne/konditional/internal/testutil"
)

func TestClient_GetSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/snapshot" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"namespaceId":"app"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	body, err := c.GetSnapshot(context.Background())
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if string(body) != `{"namespaceId":"app"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestClient_Rollback(t *testing.T) {
	var gotBody map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/snapshots/rollback" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Rollback(context.Background(), 3); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if gotBody["steps"] != 3 {
		t.Errorf("expected steps=3, got %v", gotBody)
	}
}

func TestClient_SetOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["featureKey"] != "darkMode" || body["type"] != "BOOLEAN" || body["value"] != true {
			t.Errorf("unexpected body: %+v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.SetOverride(context.Background(), "darkMode", "BOOLEAN", true); err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}
}

func TestClient_AgainstRealServer_SetOverrideThenFetchSnapshot(t *testing.T) {
	apiServer, _ := testutil.NewTestServer(t, "app")
	srv := httptest.NewServer(apiServer.Router())
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	if err := c.SetOverride(ctx, "darkMode", "BOOLEAN", true); err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}
	if err := c.ClearOverride(ctx, "darkMode"); err != nil {
		t.Fatalf("ClearOverride failed: %v", err)
	}

	payload, err := c.GetSnapshot(ctx)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	var snap map[string]any
	if err := json.Unmarshal(payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if _, ok := snap["meta"]; !ok {
		t.Fatalf("expected a meta field in the encoded snapshot, got %+v", snap)
	}
}

func TestClient_PropagatesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.KillAll(context.Background()); err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}
}
