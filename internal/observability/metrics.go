package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floodmon"

// Metrics holds the Prometheus counters, histograms, and gauges for ingestion
// and the scheduled jobs.
type Metrics struct {
	ReadingsIngested    prometheus.Counter
	ReadingsRejected    *prometheus.CounterVec // labels: reason={validation,store}
	ImplausibleReadings prometheus.Counter
	IngestDuration      prometheus.Histogram

	// Kafka ingest metrics.
	KafkaMessages   *prometheus.CounterVec // labels: outcome={ingested,skipped,retried}
	ConsumerRunning prometheus.Gauge

	// Classification metrics.
	Verdicts          *prometheus.CounterVec // labels: source={REMOTE,FALLBACK}, status
	PredictorDuration prometheus.Histogram
	PredictorCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Notification metrics.
	Notifications *prometheus.CounterVec // labels: sink, outcome={sent,failed}

	// Scheduled job metrics.
	JobRuns         *prometheus.CounterVec   // labels: job={rollup,cleanup}, outcome={success,error}
	JobDuration     *prometheus.HistogramVec // labels: job
	JobLastSuccess  *prometheus.GaugeVec     // labels: job
	ReadingsPurged  prometheus.Counter
	SchedulerActive prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ReadingsIngested,
		m.ReadingsRejected,
		m.ImplausibleReadings,
		m.IngestDuration,
		m.KafkaMessages,
		m.ConsumerRunning,
		m.Verdicts,
		m.PredictorDuration,
		m.PredictorCache,
		m.Notifications,
		m.JobRuns,
		m.JobDuration,
		m.JobLastSuccess,
		m.ReadingsPurged,
		m.SchedulerActive,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Readings persisted by the ingestion pipeline.",
		}),
		ReadingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_rejected_total",
			Help:      "Ingest requests that failed, by reason.",
		}, []string{"reason"}),
		ImplausibleReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_implausible_total",
			Help:      "Accepted readings carrying negative values.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete store-classify-notify ingest.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		KafkaMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_total",
			Help:      "Reading messages consumed from Kafka, by outcome.",
		}, []string{"outcome"}),
		ConsumerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kafka_consumer_running",
			Help:      "1 when the Kafka reading consumer is running, 0 when stopped.",
		}),
		Verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Classification verdicts by source and status.",
		}, []string{"source", "status"}),
		PredictorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predictor_duration_seconds",
			Help:      "Remote classifier request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		PredictorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictor_cache_total",
			Help:      "Predictor cache lookups by result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Alert deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by job and outcome.",
		}, []string{"job", "outcome"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job executions.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"job"}),
		JobLastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per job.",
		}, []string{"job"}),
		ReadingsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_purged_total",
			Help:      "Readings deleted by the retention sweeper.",
		}),
		SchedulerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_active",
			Help:      "1 when the scheduler is running, 0 when stopped.",
		}),
	}
}
