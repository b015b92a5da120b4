package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mit-kavli-institute/ticdb/log/logger"
)

type ObservableStoreOptions struct {
	// Name 组件名称，作为指标名前缀、日志 component 字段和 span 属性
	Name string `cfg:"name" def:"store"`

	EnableMetrics bool `cfg:"enableMetrics" def:"true"`
	EnableTracing bool `cfg:"enableTracing"`

	// Registerer 指标注册位置，为空时使用 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer `cfg:"-"`
	// Logger 为空时不记录日志
	Logger logger.Logger `cfg:"-"`
}

// ObservableMetrics 封装 prometheus 指标
type ObservableMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

func NewObservableMetrics(name string) *ObservableMetrics {
	return &ObservableMetrics{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_operation_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
			},
			[]string{"operation"},
		),
	}
}

// Register 注册指标，重复注册时复用已注册的收集器
func (m *ObservableMetrics) Register(r prometheus.Registerer) error {
	counter, err := registerOrExisting(r, m.operationCounter)
	if err != nil {
		return err
	}
	duration, err := registerOrExisting(r, m.operationDuration)
	if err != nil {
		return err
	}
	m.operationCounter = counter
	m.operationDuration = duration
	return nil
}

func registerOrExisting[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
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

// ObservableStore 为底层存储增加指标、追踪和日志
type ObservableStore[K comparable, V any] struct {
	store   Store[K, V]
	logger  logger.Logger
	metrics *ObservableMetrics
	tracer  trace.Tracer
	name    string
}

func NewObservableStoreWithOptions[K comparable, V any](store Store[K, V], options *ObservableStoreOptions) (*ObservableStore[K, V], error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if options == nil {
		options = &ObservableStoreOptions{Name: "store", EnableMetrics: true}
	}

	obs := &ObservableStore[K, V]{
		store: store,
		name:  options.Name,
	}

	if options.Logger != nil {
		obs.logger = options.Logger.WithGroup("observableStore")
	}

	if options.EnableMetrics {
		obs.metrics = NewObservableMetrics(options.Name)
		r := options.Registerer
		if r == nil {
			r = prometheus.DefaultRegisterer
		}
		if err := obs.metrics.Register(r); err != nil {
			return nil, err
		}
	}

	if options.EnableTracing {
		obs.tracer = otel.Tracer(fmt.Sprintf("store.%s", options.Name))
	}

	return obs, nil
}

func (obs *ObservableStore[K, V]) observeOperation(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span
	if obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, fmt.Sprintf("store.%s", operation),
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("operation", operation),
			),
		)
		defer span.End()
	}

	err := fn(ctx)
	duration := time.Since(start)

	// 未命中不算失败
	status := "success"
	switch {
	case errors.Is(err, ErrKeyNotFound):
		status = "miss"
	case err != nil:
		status = "error"
	}

	if span != nil {
		span.SetAttributes(attribute.String("status", status))
		if status == "error" {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		obs.metrics.operationCounter.WithLabelValues(operation, status).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}

	if obs.logger != nil {
		if status == "error" {
			obs.logger.ErrorContext(ctx, "store operation failed",
				"component", obs.name,
				"operation", operation,
				"duration", duration,
				"error", err.Error(),
			)
		} else {
			obs.logger.DebugContext(ctx, "store operation completed",
				"component", obs.name,
				"operation", operation,
				"status", status,
				"duration", duration,
			)
		}
	}

	return err
}

func (obs *ObservableStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	return obs.observeOperation(ctx, "set", func(ctx context.Context) error {
		return obs.store.Set(ctx, key, value, opts...)
	})
}

func (obs *ObservableStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	var value V
	err := obs.observeOperation(ctx, "get", func(ctx context.Context) error {
		var err error
		value, err = obs.store.Get(ctx, key)
		return err
	})
	return value, err
}

func (obs *ObservableStore[K, V]) Del(ctx context.Context, key K) error {
	return obs.observeOperation(ctx, "del", func(ctx context.Context) error {
		return obs.store.Del(ctx, key)
	})
}

func (obs *ObservableStore[K, V]) Range(ctx context.Context, fn func(key K, value V) bool) error {
	return obs.store.Range(ctx, fn)
}

func (obs *ObservableStore[K, V]) Close() error {
	return obs.store.Close()
}
