package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"github.com/shouni/gemini-jewelry-studio/pkg/studio"
)

// Metrics はオーケストレーションの結果を Prometheus に公開します。studio.Observer を実装します。
type Metrics struct {
	registry        *prometheus.Registry
	generations     *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	historyFailures prometheus.Counter
}

// New は専用のレジストリに collector を登録します。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_generations_total",
			Help: "Number of finished generation invocations by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studio_generation_duration_seconds",
			Help:    "Time from validation to the terminal state.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"mode"}),
		historyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studio_history_failures_total",
			Help: "Number of history writes that failed after a successful generation.",
		}),
	}
	m.registry.MustRegister(
		m.generations,
		m.duration,
		m.historyFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveGeneration(mode domain.GeneratorMode, outcome studio.Outcome, elapsed time.Duration) {
	label := string(mode)
	if label == "" {
		label = "unknown"
	}
	m.generations.WithLabelValues(label, string(outcome)).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveHistoryFailure() {
	m.historyFailures.Inc()
}

// Handler は /metrics 用のハンドラーです。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry はテストや追加の collector 登録用にレジストリを返します。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
