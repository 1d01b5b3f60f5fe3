// Package metrics exposes Prometheus instrumentation for the generation pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "keyword_blog"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	decoderStrategy   *prometheus.CounterVec
	synthesizedFields *prometheus.CounterVec
	slugLookups       prometheus.Histogram
	slugExhausted     prometheus.Counter
	generations       *prometheus.CounterVec
	highlightCache    *prometheus.CounterVec
}

// New creates a registry with process/go collectors and the pipeline collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		decoderStrategy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decoder_strategy_total",
			Help:      "Generation responses decoded, by winning strategy",
		}, []string{"strategy"}),
		synthesizedFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesized_fields_total",
			Help:      "Document fields filled by the completion step instead of the model",
		}, []string{"field"}),
		slugLookups: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slug_lookups",
			Help:      "Existence lookups needed to allocate one slug",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		slugExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slug_exhausted_total",
			Help:      "Slug allocations that ran out of deterministic candidates",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Blog generation attempts by outcome",
		}, []string{"outcome"}),
		highlightCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "highlight_cache_total",
			Help:      "Highlight cache lookups by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.decoderStrategy,
		m.synthesizedFields,
		m.slugLookups,
		m.slugExhausted,
		m.generations,
		m.highlightCache,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveDecoderStrategy(strategy string) {
	if m == nil {
		return
	}
	m.decoderStrategy.WithLabelValues(strategy).Inc()
}

func (m *Metrics) ObserveSynthesizedFields(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.synthesizedFields.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) ObserveSlugAllocation(lookups int, exhausted bool) {
	if m == nil {
		return
	}
	m.slugLookups.Observe(float64(lookups))
	if exhausted {
		m.slugExhausted.Inc()
	}
}

// Generation outcomes
const (
	OutcomeSuccess    = "success"
	OutcomeUpstream   = "upstream_error"
	OutcomeIncomplete = "incomplete_document"
	OutcomeStorage    = "storage_error"
)

func (m *Metrics) ObserveGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHighlightCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.highlightCache.WithLabelValues(result).Inc()
}
