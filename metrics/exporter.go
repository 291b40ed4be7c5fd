package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Exporter serves the /metrics HTTP endpoint.
type Exporter struct {
	registry *prometheus.Registry
	server   *http.Server
	log      zerolog.Logger
}

// NewExporter builds a fresh registry for the HTTP exporter. Go's
// Prometheus client has no native multi-process collector the way some
// other ecosystems do; a dedicated registry per process is the idiomatic
// Go substitute. When the PROMETHEUS_MULTIPROC_DIR hint is set,
// NewExporter logs it at info level; the hint does not change which
// registry is used.
func NewExporter(addr string, log zerolog.Logger) (*Exporter, *Collector) {
	registry := prometheus.NewRegistry()
	collector := New(registry, true)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	if dir := os.Getenv("PROMETHEUS_MULTIPROC_DIR"); dir != "" {
		log.Info().Str("multiproc_dir", dir).Msg("prometheus multiprocess hint present; using a dedicated per-process registry")
	}

	return &Exporter{
		registry: registry,
		server:   &http.Server{Addr: addr, Handler: mux},
		log:      log,
	}, collector
}

// ListenAndServe blocks serving /metrics until ctx is cancelled.
func (e *Exporter) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Addr reports the listener address, for logging and tests.
func (e *Exporter) Addr() string {
	return e.server.Addr
}

// DefaultAddr builds "host:port". An empty host falls back to
// AR_METRICS_ADDR and then 0.0.0.0; a zero port falls back to a positive
// AR_METRICS_PORT and then 9108.
func DefaultAddr(host string, port int) string {
	if host == "" {
		host = os.Getenv("AR_METRICS_ADDR")
	}
	if host == "" {
		host = "0.0.0.0"
	}
	if port == 0 {
		if p, err := strconv.Atoi(os.Getenv("AR_METRICS_PORT")); err == nil && p > 0 {
			port = p
		} else {
			port = 9108
		}
	}
	return fmt.Sprintf("%s:%d", host, port)
}
