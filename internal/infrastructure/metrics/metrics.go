package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/ports"
)

const namespace = "articleschat"

// Recorder exposes pipeline metrics through a dedicated Prometheus registry.
type Recorder struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	requestLatency prometheus.Histogram
	modelCalls     *prometheus.CounterVec
	modelLatency   *prometheus.HistogramVec
	rankerDegraded *prometheus.CounterVec
}

var _ ports.PipelineObserver = (*Recorder)(nil)

// NewRecorder registers all collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		// Labels: outcome (ok or error kind), fallback (true, false)
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_requests_total",
			Help:      "Chat pipeline runs by outcome (ok or error kind) and whether the fallback path answered.",
		}, []string{"outcome", "fallback"}),
		requestLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end chat pipeline latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
		// Labels: stage, result (ok, error)
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Language model invocations by stage and result.",
		}, []string{"stage", "result"}),
		modelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Language model call latency by stage.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}, []string{"stage"}),
		// Labels: reason (model_error, unparseable, prompt_error)
		rankerDegraded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranker_degraded_total",
			Help:      "Ranker responses that fell back to selecting the whole corpus, by reason.",
		}, []string{"reason"}),
	}
}

// Registry exposes the underlying registry (tests and custom exporters).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RequestFinished records one pipeline run.
func (r *Recorder) RequestFinished(outcome domain.ErrorKind, fallback bool, elapsed time.Duration) {
	label := string(outcome)
	if outcome == domain.KindNone {
		label = "ok"
	}
	fb := "false"
	if fallback {
		fb = "true"
	}
	r.requests.WithLabelValues(label, fb).Inc()
	r.requestLatency.Observe(elapsed.Seconds())
}

// ModelCall records one language model invocation.
func (r *Recorder) ModelCall(stage string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.modelCalls.WithLabelValues(stage, result).Inc()
	r.modelLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RankerDegraded records a ranker response that could not be used as-is.
func (r *Recorder) RankerDegraded(reason string) {
	r.rankerDegraded.WithLabelValues(reason).Inc()
}

// InstrumentModel wraps a ChatModel so every call is reported under stage.
func InstrumentModel(stage string, model ports.ChatModel, observer ports.PipelineObserver) ports.ChatModel {
	if observer == nil {
		return model
	}
	return &instrumentedModel{stage: stage, next: model, observer: observer}
}

type instrumentedModel struct {
	stage    string
	next     ports.ChatModel
	observer ports.PipelineObserver
}

func (m *instrumentedModel) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	start := time.Now()
	out, err := m.next.Generate(ctx, messages)
	m.observer.ModelCall(m.stage, time.Since(start), err)
	return out, err
}
