// Package metrics собирает Prometheus-метрики сервиса: попадания в кеш рейтингов,
// время агрегации и HTTP-запросы.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option настраивает Recorder
type Option func(*Recorder)

// WithNamespace задает namespace метрик
func WithNamespace(ns string) Option {
	return func(r *Recorder) { r.namespace = ns }
}

// WithRegistry задает реестр, в котором регистрируются метрики
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Recorder) { r.registry = reg }
}

// WithBuckets задает границы гистограмм (в секундах)
func WithBuckets(buckets []float64) Option {
	return func(r *Recorder) { r.buckets = buckets }
}

// Recorder хранит зарегистрированные метрики. Методы безопасны для nil-получателя,
// поэтому сервисы могут работать без метрик.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry
	buckets   []float64

	cacheLookups       *prometheus.CounterVec
	aggregationSeconds *prometheus.HistogramVec
	aggregationErrors  *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New создает Recorder. По умолчанию используется собственный реестр с Go/process коллекторами.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "wikatalk",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(r.registry)

	r.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "rankings",
		Name:      "cache_lookups_total",
		Help:      "Rank cache lookups by entry kind and result",
	}, []string{"kind", "result"})

	r.aggregationSeconds = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "rankings",
		Name:      "aggregation_duration_seconds",
		Help:      "Time spent computing a leaderboard from the stores",
		Buckets:   r.buckets,
	}, []string{"type"})

	r.aggregationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "rankings",
		Name:      "aggregation_errors_total",
		Help:      "Failed leaderboard or personal rank computations",
	}, []string{"type"})

	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	r.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   r.buckets,
	}, []string{"route", "method"})

	return r
}

// CacheHit учитывает попадание в кеш; kind: "board" или "user_rank"
func (r *Recorder) CacheHit(kind string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(kind, "hit").Inc()
}

// CacheMiss учитывает промах кеша
func (r *Recorder) CacheMiss(kind string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(kind, "miss").Inc()
}

// ObserveAggregation фиксирует длительность вычисления таблицы
func (r *Recorder) ObserveAggregation(rankingType string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.aggregationSeconds.WithLabelValues(rankingType).Observe(d.Seconds())
	if err != nil {
		r.aggregationErrors.WithLabelValues(rankingType).Inc()
	}
}

// AggregationFailed учитывает ошибку без замера длительности
func (r *Recorder) AggregationFailed(rankingType string) {
	if r == nil {
		return
	}
	r.aggregationErrors.WithLabelValues(rankingType).Inc()
}

// ObserveHTTP фиксирует обработанный HTTP-запрос
func (r *Recorder) ObserveHTTP(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Registry возвращает реестр метрик
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler отдает метрики в формате Prometheus
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
