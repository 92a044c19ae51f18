// Command konditionald is the reference host for the konditional
// engine: it loads configuration, wires a Postgres-backed snapshot
// transport to a registry, exposes an HTTP surface for evaluation and
// operator actions, and reports observability events to Prometheus.
// It is scaffolding that demonstrates the core, not the core itself
// (spec.md §1, §6).
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amichne/konditional/internal/codec"
	"github.com/amichne/konditional/internal/demo"
	"github.com/amichne/konditional/internal/hooks"
	"github.com/amichne/konditional/internal/hooks/promsink"
	"github.com/amichne/konditional/internal/hostconfig"
	"github.com/amichne/konditional/internal/httpapi"
	"github.com/amichne/konditional/internal/konfig"
	"github.com/amichne/konditional/internal/registry"
	"github.com/amichne/konditional/internal/transport/postgres"
	"github.com/amichne/konditional/internal/webhook"
)

func main() {
	cfg, err := hostconfig.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ns, err := demo.BuildNamespace(cfg.Namespace)
	if err != nil {
		log.Fatalf("namespace: %v", err)
	}

	promReg := prometheus.NewRegistry()
	httpapi.InitMetrics(promReg)
	sink := promsink.New(promReg)

	h := hooks.New(ns.ID())
	h.Register(sink)

	reg := registry.New(ns, registry.WithHistoryDepth(cfg.RollbackDepth), registry.WithHooks(h))

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("postgres pool: %v", err)
	}
	transport := postgres.NewTransport(pool)
	defer transport.Close()

	codecOpts := codec.Options{SkipUnknown: cfg.SkipUnknown}

	if err := transport.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	initial, err := transport.Load(ctx, ns, codecOpts)
	if err != nil {
		log.Fatalf("load initial snapshot: %v", err)
	}
	reg.Load(initial)
	log.Printf("[konditionald] snapshot loaded: namespace=%s features=%d source=%s", ns.ID(), len(initial.Features), initial.Source)

	go persistOnChange(reg, transport, ns)

	endpoints := make([]webhook.Endpoint, len(cfg.WebhookURLs))
	for i, url := range cfg.WebhookURLs {
		endpoints[i] = webhook.Endpoint{URL: url, Secret: cfg.WebhookSecret}
	}
	dispatcher := webhook.NewDispatcher(endpoints)
	dispatcher.Start()
	defer dispatcher.Close()
	go notifyWebhooks(reg, dispatcher, ns)

	srv := httpapi.New(reg, ns, codecOpts, cfg.RateLimitPerIP)
	apiSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // keep SSE connections alive
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("[konditionald] http server listening on %s", cfg.HTTPAddr)
		if err := apiSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      metricsMux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("[konditionald] metrics server listening on %s", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics server: %v", err)
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	log.Println("[konditionald] shutdown signal received, stopping servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[konditionald] error during http shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[konditionald] error during metrics shutdown: %v", err)
	}
	log.Println("[konditionald] servers stopped")
}

// persistOnChange saves every published snapshot to the transport so
// the next boot resumes from the most recent state. A save failure is
// logged, never fatal: the in-memory registry stays authoritative for
// the running process regardless of transport health.
func persistOnChange(reg *registry.Registry, transport *postgres.Transport, ns *konfig.Namespace) {
	updates, unsubscribe := reg.Subscribe()
	defer unsubscribe()
	for snap := range updates {
		if err := transport.Save(context.Background(), snap, ns); err != nil {
			log.Printf("[konditionald] failed to persist snapshot: %v", err)
		}
	}
}

// notifyWebhooks dispatches a snapshot.changed event, carrying the diff
// against the previously published snapshot, for every registry publish
// after the subscription starts. The first such publish is diffed
// against the snapshot current at that point (the one loaded at boot).
func notifyWebhooks(reg *registry.Registry, dispatcher *webhook.Dispatcher, ns *konfig.Namespace) {
	updates, unsubscribe := reg.Subscribe()
	defer unsubscribe()
	previous := reg.Snapshot()
	for snap := range updates {
		if previous != nil {
			patch, err := codec.Diff(previous, snap, ns)
			if err != nil {
				log.Printf("[konditionald] failed to diff snapshot for webhook dispatch: %v", err)
			} else {
				dispatcher.Dispatch(webhook.NewSnapshotChangedEvent(ns.ID(), patch, time.Now()))
			}
		}
		previous = snap
	}
}
