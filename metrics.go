package ticdb

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 查询层指标，nil 时所有方法为空操作
type Metrics struct {
	reflections   *prometheus.CounterVec
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	chunks        *prometheus.HistogramVec
	discarded     *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		reflections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reflections_total",
				Help:      "Total number of remote schema reflections",
			},
			[]string{"database", "status"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of catalog queries",
			},
			[]string{"kind", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Duration of catalog queries in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"kind"},
		),
		chunks: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_chunks",
				Help:      "Number of round trips per id query",
				Buckets:   []float64{1, 2, 4, 8, 16, 64},
			},
			[]string{"database"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discarded_connections_total",
				Help:      "Connections discarded because they were created by another process",
			},
			[]string{"database"},
		),
	}
}

// Register 注册全部指标，已注册的同名指标直接复用
func (m *Metrics) Register(r prometheus.Registerer) error {
	var err error
	if m.reflections, err = register(r, m.reflections); err != nil {
		return err
	}
	if m.queries, err = register(r, m.queries); err != nil {
		return err
	}
	if m.queryDuration, err = register(r, m.queryDuration); err != nil {
		return err
	}
	if m.chunks, err = register(r, m.chunks); err != nil {
		return err
	}
	if m.discarded, err = register(r, m.discarded); err != nil {
		return err
	}
	return nil
}

func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "register metrics failed")
	}
	return c, nil
}

func (m *Metrics) observeReflection(database string, err error) {
	if m == nil {
		return
	}
	m.reflections.WithLabelValues(database, status(err)).Inc()
}

func (m *Metrics) observeQuery(kind string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(kind, status(err)).Inc()
	m.queryDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) observeChunks(database string, n int) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(database).Observe(float64(n))
}

func (m *Metrics) observeDiscard(database string) {
	if m == nil {
		return
	}
	m.discarded.WithLabelValues(database).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
