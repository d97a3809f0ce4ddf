package metrics

import (
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    registry = prometheus.NewRegistry()
    once     sync.Once

    pagesTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "img2pdf",
            Name:      "pages_total",
            Help:      "Images handled by result (added, skipped)",
        },
        []string{"result"},
    )

    runsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "img2pdf",
            Name:      "runs_total",
            Help:      "Pipeline runs by outcome (success, soft_failure, failure)",
        },
        []string{"outcome"},
    )

    runDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "img2pdf",
            Name:      "run_duration_seconds",
            Help:      "Wall time of a pipeline run",
            Buckets:   prometheus.DefBuckets,
        },
    )

    stagedBytes = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "img2pdf",
            Name:      "staged_bytes_total",
            Help:      "Bytes copied into staging",
        },
    )
)

// Init registers collectors. Safe to call more than once.
func Init() {
    once.Do(func() {
        registry.MustRegister(pagesTotal, runsTotal, runDuration, stagedBytes)
    })
}

func IncPage(result string) { pagesTotal.WithLabelValues(result).Inc() }
func AddStaged(n int64)     { stagedBytes.Add(float64(n)) }

func ObserveRun(outcome string, dur time.Duration) {
    runsTotal.WithLabelValues(outcome).Inc()
    runDuration.Observe(dur.Seconds())
}

// WriteTextfile dumps all metrics in the node_exporter textfile format.
// An empty path is a no-op.
func WriteTextfile(path string) error {
    if path == "" {
        return nil
    }
    Init()
    return prometheus.WriteToTextfile(path, registry)
}
