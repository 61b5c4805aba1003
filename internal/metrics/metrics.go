// Package metrics holds the Prometheus counters a gameshelf run updates
// and writes them in node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gameshelf"

// Metrics is one run's counter set on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	GamesProcessed       prometheus.Counter
	PlaysProcessed       prometheus.Counter
	CategoriesAppended   prometheus.Counter
	UncategorizedGames   prometheus.Gauge
	FetchRequests        *prometheus.CounterVec
	FetchRetries         prometheus.Counter
	ReportsWritten       *prometheus.CounterVec
	LastSuccessTimestamp prometheus.Gauge
}

// New registers a fresh counter set.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		GamesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_processed_total",
			Help:      "Games read from the collection source",
		}),
		PlaysProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plays_processed_total",
			Help:      "Play records read from the play history source",
		}),
		CategoriesAppended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_records_appended_total",
			Help:      "Games appended to the category store with an empty category",
		}),
		UncategorizedGames: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uncategorized_games",
			Help:      "Games in the last processed collection whose category is empty",
		}),
		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Catalog requests by endpoint and HTTP status",
		}, []string{"endpoint", "status"}),
		FetchRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Catalog requests retried after a transient response",
		}),
		ReportsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_written_total",
			Help:      "Report files written by format",
		}, []string{"format"}),
		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful command",
		}),
	}
}

// MarkSuccess stamps the last success gauge with the current time.
func (m *Metrics) MarkSuccess() {
	if m == nil {
		return
	}
	m.LastSuccessTimestamp.SetToCurrentTime()
}

// WriteTextfile writes the registry to path. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
