// Package metrics holds the Prometheus instruments for the harness. The run
// command pushes them to a Pushgateway when one is configured; the serve
// command exposes them on /metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtsbench_matches_total",
		Help: "Total number of matches played, by outcome",
	}, []string{"result"})

	MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtsbench_match_duration_seconds",
		Help:    "Wall-clock duration of helper subprocess matches",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtsbench_builds_total",
		Help: "Total number of toolchain build steps run, by step",
	}, []string{"step"})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtsbench_build_duration_seconds",
		Help:    "Duration of toolchain build steps",
		Buckets: prometheus.DefBuckets,
	})
)

// Push sends the default registry to a Pushgateway, grouped by run ID so
// consecutive benchmark runs do not overwrite each other.
func Push(gatewayURL, runID string) error {
	if err := push.New(gatewayURL, "rtsbench").
		Gatherer(prometheus.DefaultGatherer).
		Grouping("run_id", runID).
		Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
