package ticdb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mit-kavli-institute/ticdb/cfg"
	"github.com/mit-kavli-institute/ticdb/cfg/validator"
	"github.com/mit-kavli-institute/ticdb/log"
	"github.com/mit-kavli-institute/ticdb/log/logger"
	"github.com/mit-kavli-institute/ticdb/rdb/database"
	"github.com/mit-kavli-institute/ticdb/rdb/schema"
)

const (
	DefaultDatabase = "tic_82"
	DefaultTable    = "ticentries"

	// DefaultMaxInParams 单条语句中 IN 列表的最大参数个数
	DefaultMaxInParams = 65535
)

type ClientOptions struct {
	// ConfigPath 凭据文件路径，为空时使用 $HOME/.config/tic/db.conf
	ConfigPath  string `cfg:"configPath"`
	Database    string `cfg:"database" def:"tic_82"`
	Table       string `cfg:"table" def:"ticentries"`
	MaxInParams int    `cfg:"maxInParams" def:"65535" validate:"min=1,max=65535"`

	EnableMetrics bool `cfg:"enableMetrics"`
	EnableTracing bool `cfg:"enableTracing"`

	// Logger 为空时使用 log.Default()
	Logger logger.Logger `cfg:"-"`
	// Registerer 为空时使用 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer `cfg:"-"`
	// Cache 为空时按 ConfigPath 新建，ConfigPath 也为空时使用 Databases
	Cache *TableReflectionCache `cfg:"-"`
}

// Client 星表查询客户端，可被多个 goroutine 共享
type Client struct {
	options  *ClientOptions
	cache    *TableReflectionCache
	observer *observer
}

func NewClientWithOptions(options *ClientOptions) (*Client, error) {
	if options == nil {
		options = &ClientOptions{}
	}
	if err := cfg.SetDefaults(options); err != nil {
		return nil, err
	}
	if err := validator.ValidateStruct(options); err != nil {
		return nil, errors.Wrap(cfg.ErrInvalidConfig, err.Error())
	}

	obs := &observer{logger: options.Logger, tracer: noopTracer}
	if obs.logger == nil {
		obs.logger = log.Default()
	}
	if options.EnableTracing {
		obs.tracer = otel.Tracer("github.com/mit-kavli-institute/ticdb")
	}
	if options.EnableMetrics {
		registerer := options.Registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		obs.metrics = NewMetrics("ticdb")
		if err := obs.metrics.Register(registerer); err != nil {
			return nil, err
		}
	}

	cache := options.Cache
	if cache == nil {
		if options.ConfigPath == "" {
			cache = Databases
		} else {
			var err error
			cache, err = NewTableReflectionCacheWithOptions(&CacheOptions{
				ConfigPath: options.ConfigPath,
				Logger:     obs.logger,
				Metrics:    obs.metrics,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return &Client{
		options:  options,
		cache:    cache,
		observer: obs,
	}, nil
}

// Databases 客户端使用的反射缓存
func (c *Client) Databases() *TableReflectionCache {
	return c.cache
}

// Resolve 解析数据库和表，空字符串使用默认值
func (c *Client) Resolve(ctx context.Context, databaseName, tableName string) (*Resolved, error) {
	if databaseName == "" {
		databaseName = c.options.Database
	}
	if tableName == "" {
		tableName = c.options.Table
	}

	entry, err := c.cache.Get(ctx, databaseName)
	if err != nil {
		return nil, err
	}
	r, err := NewResolved(databaseName, entry, tableName)
	if err != nil {
		return nil, err
	}
	r.MaxInParams = c.options.MaxInParams
	r.observer = c.observer
	return r, nil
}

func (c *Client) resolve(ctx context.Context, opts []QueryOption) (*Resolved, *queryOptions, error) {
	o := newQueryOptions(opts)
	r, err := c.Resolve(ctx, o.database, o.table)
	if err != nil {
		return nil, nil, err
	}
	return r, o, nil
}

func (c *Client) QueryByID(ctx context.Context, id any, fields []string, opts ...QueryOption) (*database.Result, error) {
	r, _, err := c.resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	return QueryByID(ctx, r, id, fields, opts...)
}

func (c *Client) QueryByLoc(ctx context.Context, ra, dec, radius float64, fields []string, opts ...QueryOption) (*database.Result, error) {
	r, _, err := c.resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	return QueryByLoc(ctx, r, ra, dec, radius, fields, opts...)
}

// QueryRaw 与其他查询一样先解析数据库和表，表不存在时不执行
func (c *Client) QueryRaw(ctx context.Context, sql string, opts ...QueryOption) (*database.Result, error) {
	r, _, err := c.resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	return QueryRaw(ctx, r, sql)
}

func (c *Client) InspectSchema(ctx context.Context, opts ...QueryOption) (*schema.Table, error) {
	r, _, err := c.resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	return InspectSchema(ctx, r), nil
}

// Close 关闭客户端自建的缓存，共享的缓存由创建者关闭
func (c *Client) Close() error {
	if c.options.Cache == nil && c.cache != Databases {
		return c.cache.Close()
	}
	return nil
}

// Resolved 已解析的数据库和表
type Resolved struct {
	Database string
	Schema   *schema.Schema
	Sessions *database.SessionFactory
	Table    *schema.Table

	// MaxInParams 单条语句的绑定参数上限，不在 [1, 65535] 内时使用 DefaultMaxInParams
	MaxInParams int

	observer *observer
}

// NewResolved 在 Entry 中查找表，table 为空时查找 ticentries
func NewResolved(databaseName string, entry *Entry, tableName string) (*Resolved, error) {
	if entry == nil || entry.Schema == nil {
		return nil, errors.Errorf("database %q has no reflected schema", databaseName)
	}
	if tableName == "" {
		tableName = DefaultTable
	}
	table, err := entry.Schema.Table(tableName)
	if err != nil {
		return nil, errors.WithMessagef(err, "database %q", databaseName)
	}
	return &Resolved{
		Database:    databaseName,
		Schema:      entry.Schema,
		Sessions:    entry.Sessions,
		Table:       table,
		MaxInParams: DefaultMaxInParams,
	}, nil
}

// Session 新建一个会话，调用方负责 Close
func (r *Resolved) Session() (*database.Session, error) {
	if r.Sessions == nil {
		return nil, errors.Errorf("database %q has no session factory", r.Database)
	}
	return r.Sessions.New(), nil
}

func (r *Resolved) maxInParams() int {
	if r.MaxInParams < 1 || r.MaxInParams > DefaultMaxInParams {
		return DefaultMaxInParams
	}
	return r.MaxInParams
}

func (r *Resolved) obs() *observer {
	if r.observer == nil {
		return &observer{logger: log.Default(), tracer: noopTracer}
	}
	return r.observer
}

type observer struct {
	logger  logger.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

var noopTracer = noop.NewTracerProvider().Tracer("")
