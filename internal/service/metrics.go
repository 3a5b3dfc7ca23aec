package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the run-level prometheus collectors.
type Metrics struct {
	runsTotal        *prometheus.CounterVec
	linksProcessed   prometheus.Counter
	batchesGenerated prometheus.Counter
	runDuration      prometheus.Histogram
}

// NewMetrics creates and registers the run metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbatch_runs_total",
				Help: "Total number of processing runs by platform and outcome.",
			},
			[]string{"platform", "status"},
		),
		linksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkbatch_links_processed_total",
			Help: "Total number of links written into generated documents.",
		}),
		batchesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkbatch_batches_generated_total",
			Help: "Total number of batch documents generated.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkbatch_run_duration_seconds",
			Help:    "End-to-end duration of processing runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.runsTotal, m.linksProcessed, m.batchesGenerated, m.runDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRun(platform, status string, links, batches int, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(platform, status).Inc()
	if status == "success" {
		m.linksProcessed.Add(float64(links))
		m.batchesGenerated.Add(float64(batches))
	}
	m.runDuration.Observe(seconds)
}
