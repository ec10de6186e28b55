// Package metrics exposes pipeline and query telemetry, including the
// heartbeat gauge used for uptime monitoring.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Heartbeat = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "patline_heartbeat_timestamp_seconds",
		Help: "Unix time of the most recent heartbeat tick.",
	})

	PipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "patline_pipeline_runs_total",
		Help: "Pipeline runs by outcome.",
	}, []string{"result"})

	RowsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patline_rows_rejected_total",
		Help: "Schedule rows rejected for unparseable time fields.",
	})

	MeridiemsInferred = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patline_meridiems_inferred_total",
		Help: "Time fields whose AM/PM marker was recovered heuristically.",
	})

	TripQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "patline_trip_queries_total",
		Help: "Trip queries by outcome.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(Heartbeat, PipelineRuns, RowsRejected, MeridiemsInferred, TripQueries)
}

// RunHeartbeat updates the heartbeat gauge on an interval until the context
// is cancelled.
func RunHeartbeat(ctx context.Context, interval time.Duration) {
	Heartbeat.SetToCurrentTime()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Heartbeat.SetToCurrentTime()
		}
	}
}
