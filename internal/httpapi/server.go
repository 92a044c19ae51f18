// Package httpapi is the reference host's HTTP surface: an
// illustrative embedding example, not part of the core. It demonstrates
// wiring a registry.Registry and its hooks.Hooks slot to chi routes for
// evaluation, snapshot inspection and loading, rollback, kill-all,
// overrides, and an
// SSE change stream (spec.md §6 scopes this surface out of the core).
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/amichne/konditional/internal/codec"
	"github.com/amichne/konditional/internal/evalctx"
	"github.com/amichne/konditional/internal/flagdef"
	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
	"github.com/amichne/konditional/internal/version"
)

// Server wires one registry and namespace to an HTTP surface. Each
// namespace a host serves gets its own Server and its own route mount.
type Server struct {
	reg          *registry.Registry
	namespace    *konfig.Namespace
	codecOptions codec.Options
	rateLimitRPM int
}

// New builds a Server for namespace ns backed by reg.
func New(reg *registry.Registry, ns *konfig.Namespace, codecOptions codec.Options, rateLimitPerMinute int) *Server {
	if rateLimitPerMinute <= 0 {
		rateLimitPerMinute = 100
	}
	return &Server{reg: reg, namespace: ns, codecOptions: codecOptions, rateLimitRPM: rateLimitPerMinute}
}

// Router builds the chi handler tree. Rate limiting and CORS are
// illustrative defaults; a production embedding host is expected to
// front this with its own TLS termination and auth (spec.md §1).
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Use(httprate.LimitByIP(s.rateLimitRPM, time.Minute))

		r.Get("/v1/snapshot", s.handleSnapshot)
		r.Post("/v1/evaluate", s.handleEvaluate)
		r.Post("/v1/snapshots", s.handleLoadSnapshot)
		r.Post("/v1/snapshots/rollback", s.handleRollback)
		r.Post("/v1/kill-all", s.handleKillAll)
		r.Post("/v1/overrides", s.handleSetOverride)
		r.Delete("/v1/overrides/{featureKey}", s.handleClearOverride)
	})

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Get("/v1/stream", s.handleStream)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	payload, err := codec.Encode(s.reg.Snapshot(), s.namespace)
	if err != nil {
		internalError(w, r, "failed to encode snapshot: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(payload)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		internalError(w, r, "streaming unsupported")
		return
	}

	sseClients.Inc()
	defer sseClients.Dec()

	updates, unsubscribe := s.reg.Subscribe()
	defer unsubscribe()

	writeSSE(w, "init", map[string]string{"version": s.reg.Snapshot().Version})
	flusher.Flush()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			writeSSE(w, "update", map[string]string{"version": snap.Version, "source": snap.Source})
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		body = []byte(`{"error":"marshal failed"}`)
	}
	_, _ = w.Write([]byte("event: " + event + "\n"))
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n\n"))
}

type evaluateRequest struct {
	FeatureKey string            `json:"featureKey"`
	Locale     string            `json:"locale"`
	Platform   string            `json:"platform"`
	Version    string            `json:"version"`
	StableID   string            `json:"stableId"`
	Axes       map[string]string `json:"axes,omitempty"`
}

type evaluateResponse struct {
	FeatureKey string `json:"featureKey"`
	Outcome    string `json:"outcome"`
	Value      any    `json:"value"`
	Note       string `json:"note,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.FeatureKey) == "" {
		badRequest(w, r, ErrCodeBadRequest, "featureKey is required")
		return
	}

	ctx, err := buildContext(req)
	if err != nil {
		unprocessable(w, r, err.Error())
		return
	}

	decision := s.reg.Evaluate(req.FeatureKey, ctx)
	writeJSON(w, http.StatusOK, evaluateResponse{
		FeatureKey: req.FeatureKey,
		Outcome:    string(decision.Outcome),
		Value:      toJSON(decision.Value),
		Note:       decision.Note,
	})
}

func buildContext(req evaluateRequest) (evalctx.Static, error) {
	if strings.TrimSpace(req.StableID) == "" {
		return evalctx.Static{}, fmt.Errorf("stableId is required")
	}
	stableID, err := evalctx.NewStableID(req.StableID)
	if err != nil {
		return evalctx.Static{}, err
	}
	v, err := version.Parse(req.Version)
	if err != nil {
		return evalctx.Static{}, fmt.Errorf("invalid version %q: %w", req.Version, err)
	}
	return evalctx.NewStatic(req.Locale, req.Platform, v, stableID, req.Axes), nil
}

func toJSON(v flagdef.Value) any {
	switch v.Kind {
	case konfig.Boolean:
		b, _ := v.Bool()
		return b
	case konfig.String:
		s, _ := v.String()
		return s
	case konfig.Int:
		i, _ := v.Int()
		return i
	case konfig.Double:
		d, _ := v.Double()
		return d
	case konfig.Enum:
		e, _ := v.Enum()
		return e
	case konfig.Record:
		rec, _ := v.Record()
		return rec
	default:
		return nil
	}
}

func (s *Server) handleLoadSnapshot(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		badRequest(w, r, ErrCodeInvalidJSON, "failed to read request body: "+err.Error())
		return
	}
	snap, err := codec.Decode(body, s.namespace, s.codecOptions)
	if err != nil {
		unprocessable(w, r, "failed to decode snapshot: "+err.Error())
		return
	}
	s.reg.Load(snap)
	writeJSON(w, http.StatusOK, map[string]string{"version": snap.Version, "source": snap.Source})
}

type rollbackRequest struct {
	Steps int `json:"steps"`
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}
	if !s.reg.Rollback(req.Steps) {
		unprocessable(w, r, fmt.Sprintf("insufficient rollback history for %d steps", req.Steps))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": s.reg.Snapshot().Version})
}

func (s *Server) handleKillAll(w http.ResponseWriter, r *http.Request) {
	s.reg.DisableAll()
	writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}

type overrideRequest struct {
	FeatureKey string `json:"featureKey"`
	Type       string `json:"type"`
	Value      any    `json:"value"`
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, ErrCodeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}
	feature, known := s.namespace.Feature(req.FeatureKey)
	if !known {
		notFound(w, r, "unknown feature: "+req.FeatureKey)
		return
	}

	value, err := overrideValue(feature, req.Value)
	if err != nil {
		unprocessable(w, r, err.Error())
		return
	}

	s.reg.SetOverride(req.FeatureKey, value)
	writeJSON(w, http.StatusOK, map[string]string{"featureKey": req.FeatureKey, "status": "overridden"})
}

func overrideValue(feature *konfig.Feature, raw any) (flagdef.Value, error) {
	switch feature.Type {
	case konfig.Boolean:
		b, ok := raw.(bool)
		if !ok {
			return flagdef.Value{}, fmt.Errorf("value for %s must be a boolean", feature.ID)
		}
		return flagdef.BoolValue(b), nil
	case konfig.String:
		str, ok := raw.(string)
		if !ok {
			return flagdef.Value{}, fmt.Errorf("value for %s must be a string", feature.ID)
		}
		return flagdef.StringValue(str), nil
	case konfig.Int:
		f, ok := raw.(float64)
		if !ok {
			return flagdef.Value{}, fmt.Errorf("value for %s must be a number", feature.ID)
		}
		return flagdef.IntValue(int64(f)), nil
	case konfig.Double:
		f, ok := raw.(float64)
		if !ok {
			return flagdef.Value{}, fmt.Errorf("value for %s must be a number", feature.ID)
		}
		return flagdef.DoubleValue(f), nil
	case konfig.Enum:
		str, ok := raw.(string)
		if !ok {
			return flagdef.Value{}, fmt.Errorf("value for %s must be an enum member string", feature.ID)
		}
		v := flagdef.EnumValue(str)
		if err := v.ConformsTo(feature); err != nil {
			return flagdef.Value{}, err
		}
		return v, nil
	case konfig.Record:
		rec, ok := raw.(map[string]any)
		if !ok {
			return flagdef.Value{}, fmt.Errorf("value for %s must be an object", feature.ID)
		}
		v := flagdef.RecordValue(rec)
		if err := v.ConformsTo(feature); err != nil {
			return flagdef.Value{}, err
		}
		return v, nil
	default:
		return flagdef.Value{}, fmt.Errorf("unsupported feature type %q", feature.Type)
	}
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	featureKey := chi.URLParam(r, "featureKey")
	s.reg.ClearOverride(featureKey)
	writeJSON(w, http.StatusOK, map[string]string{"featureKey": featureKey, "status": "cleared"})
}
