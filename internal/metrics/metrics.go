// Package metrics exposes Prometheus instrumentation for storage and reminder
// delivery. Collectors register on the default registry at init.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/habitual/internal/kv"
)

var (
	// StoreOperations counts key-value operations by outcome.
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitual_store_operations_total",
			Help: "Total number of key-value store operations",
		},
		[]string{"backend", "operation", "key", "status"}, // status: ok, miss, error
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habitual_store_operation_duration_seconds",
			Help:    "Key-value store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"backend", "operation"},
	)

	RemindersDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitual_reminders_delivered_total",
			Help: "Total number of reminder notifications delivered",
		},
		[]string{"status"}, // status: success, failed
	)

	RemindersScheduled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "habitual_reminders_scheduled",
			Help: "Number of reminder triggers currently scheduled",
		},
	)
)

// RecordStoreOperation records one Get or Set.
func RecordStoreOperation(backend, operation, key, status string, duration time.Duration) {
	StoreOperations.WithLabelValues(backend, operation, key, status).Inc()
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// IncrementReminderDelivered counts a reminder delivery attempt.
func IncrementReminderDelivered(err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	RemindersDelivered.WithLabelValues(status).Inc()
}

func SetRemindersScheduled(n int) {
	RemindersScheduled.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// InstrumentedStore wraps a kv.Store and records every operation.
type InstrumentedStore struct {
	kv.Store
	backend string
}

func InstrumentStore(s kv.Store, backend string) *InstrumentedStore {
	return &InstrumentedStore{Store: s, backend: backend}
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, ok, err := s.Store.Get(ctx, key)
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case !ok:
		status = "miss"
	}
	RecordStoreOperation(s.backend, "get", key, status, time.Since(start))
	return v, ok, err
}

func (s *InstrumentedStore) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.Store.Set(ctx, key, value)
	status := "ok"
	if err != nil {
		status = "error"
	}
	RecordStoreOperation(s.backend, "set", key, status, time.Since(start))
	return err
}

// Ping forwards to the wrapped store.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return kv.Ping(ctx, s.Store)
}

// Unwrap returns the wrapped store.
func (s *InstrumentedStore) Unwrap() kv.Store {
	return s.Store
}
