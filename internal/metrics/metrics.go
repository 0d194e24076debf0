package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	newsFetches *prometheus.CounterVec
	generations *prometheus.CounterVec
	tokens      prometheus.Counter
	jobs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		newsFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bloggpt_news_fetches_total",
			Help: "News searches by outcome.",
		}, []string{"outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bloggpt_generations_total",
			Help: "Post generations by outcome and failing step.",
		}, []string{"outcome", "step"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bloggpt_completion_tokens_total",
			Help: "Completion tokens consumed by generation calls.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bloggpt_jobs_total",
			Help: "Deferred jobs by final status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloggpt_pipeline_duration_seconds",
			Help:    "Wall time of the fetch and generate pipeline.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.newsFetches,
		m.generations,
		m.tokens,
		m.jobs,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) NewsFetch(err error) {
	if m == nil {
		return
	}
	m.newsFetches.WithLabelValues(outcome(err)).Inc()
}

// Generation records one finished generation. step is the failing step, or
// empty on success.
func (m *Metrics) Generation(step string, tokens int64, err error) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome(err), step).Inc()
	if tokens > 0 {
		m.tokens.Add(float64(tokens))
	}
}

func (m *Metrics) Job(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
}

func (m *Metrics) Pipeline(start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
