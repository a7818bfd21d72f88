//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package metrics exposes pipeline counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
)

// Registry holds every pipeline metric.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// APIRequests counts upstream requests by source and outcome.
	APIRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_api_requests_total",
			Help: "Upstream API requests by source and status",
		},
		[]string{"source", "status"},
	)

	// RowsLoaded counts rows written per table and load mode.
	RowsLoaded = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_rows_loaded_total",
			Help: "Rows written to the warehouse by table and mode",
		},
		[]string{"table", "mode"},
	)

	// WriteDuration observes load and merge transactions.
	WriteDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boxoffice_write_duration_seconds",
			Help:    "Duration of warehouse write transactions",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"table", "mode"},
	)

	// MatchOutcomes counts box office rows per reconciliation outcome.
	MatchOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_match_outcomes_total",
			Help: "Box office rows by match outcome",
		},
		[]string{"outcome"},
	)

	// EntityRuns counts entity runs by flow and status.
	EntityRuns = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_entity_runs_total",
			Help: "Entity pipeline runs by entity, flow and status",
		},
		[]string{"entity", "flow", "status"},
	)
)

// ObserveWrite records a finished write.
func ObserveWrite(table, mode string, rows int64, started time.Time) {
	RowsLoaded.WithLabelValues(table, mode).Add(float64(rows))
	WriteDuration.WithLabelValues(table, mode).Observe(time.Since(started).Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logging.Info().Str("addr", addr).Msg("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
