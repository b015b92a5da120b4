package ticdb

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/mit-kavli-institute/ticdb/cfg"
	"github.com/mit-kavli-institute/ticdb/kv/store"
	"github.com/mit-kavli-institute/ticdb/log"
	"github.com/mit-kavli-institute/ticdb/log/logger"
	"github.com/mit-kavli-institute/ticdb/rdb/database"
	"github.com/mit-kavli-institute/ticdb/rdb/schema"
)

// Entry 一个逻辑数据库的反射结构和会话工厂
type Entry struct {
	Schema   *schema.Schema
	Sessions *database.SessionFactory
}

// Loader 为未缓存的数据库名构建 Entry
type Loader func(ctx context.Context, name string) (*Entry, error)

type CacheOptions struct {
	// ConfigPath 凭据文件路径，为空时使用 $HOME/.config/tic/db.conf
	ConfigPath string `cfg:"configPath"`

	// Loader 为空时从凭据文件加载并连接远端数据库
	Loader Loader `cfg:"-"`

	// Guard 连接进程守卫选项，仅作用于默认 Loader
	Guard *database.GuardOptions `cfg:"-"`

	Logger     logger.Logger         `cfg:"-"`
	Registerer prometheus.Registerer `cfg:"-"`
	Metrics    *Metrics              `cfg:"-"`
}

// TableReflectionCache 按数据库名缓存反射结果，进程内不失效
// 同一个名字并发首次访问时只反射一次
type TableReflectionCache struct {
	store  store.Store[string, *Entry]
	group  singleflight.Group
	loader Loader
	logger logger.Logger

	metrics *Metrics
	tracer  trace.Tracer
}

func NewTableReflectionCacheWithOptions(options *CacheOptions) (*TableReflectionCache, error) {
	if options == nil {
		options = &CacheOptions{}
	}

	c := &TableReflectionCache{
		logger:  options.Logger,
		metrics: options.Metrics,
		tracer:  otel.Tracer("github.com/mit-kavli-institute/ticdb"),
	}

	var s store.Store[string, *Entry] = store.NewSyncMapStore[string, *Entry]()
	if options.Registerer != nil {
		obs, err := store.NewObservableStoreWithOptions(s, &store.ObservableStoreOptions{
			Name:          "ticdb_reflection_cache",
			EnableMetrics: true,
			Registerer:    options.Registerer,
			Logger:        options.Logger,
		})
		if err != nil {
			return nil, err
		}
		s = obs
	}
	c.store = s

	c.loader = options.Loader
	if c.loader == nil {
		path := options.ConfigPath
		if path == "" {
			path = cfg.DefaultPath()
		}
		c.loader = c.fileLoader(path, options.Guard)
	}

	return c, nil
}

func (c *TableReflectionCache) fileLoader(path string, guard *database.GuardOptions) Loader {
	return func(ctx context.Context, name string) (*Entry, error) {
		var options database.Options
		if err := cfg.LoadSection(path, name, &options); err != nil {
			return nil, err
		}

		g := &database.GuardOptions{Logger: c.log().With("database", name)}
		if guard != nil {
			g.Pid = guard.Pid
			if guard.Logger != nil {
				g.Logger = guard.Logger
			}
		}
		g.OnDiscard = func(created, current int) {
			c.metrics.observeDiscard(name)
			if guard != nil && guard.OnDiscard != nil {
				guard.OnDiscard(created, current)
			}
		}

		c.log().InfoContext(ctx, "reflecting database", "database", name, "url", options.RedactedURL())
		engine, err := database.NewEngineWithOptions(ctx, &options, g)
		if err != nil {
			return nil, err
		}

		reflected, err := engine.Reflect(ctx)
		if err != nil {
			_ = engine.Close()
			return nil, errors.WithMessagef(err, "reflect database %q", name)
		}

		return &Entry{Schema: reflected, Sessions: engine.Sessions()}, nil
	}
}

func (c *TableReflectionCache) log() logger.Logger {
	if c.logger == nil {
		return log.Default()
	}
	return c.logger
}

// Get 返回数据库名对应的 Entry，未缓存时加载
// 加载失败不会缓存，下一次访问会重新加载
func (c *TableReflectionCache) Get(ctx context.Context, name string) (*Entry, error) {
	if entry, err := c.store.Get(ctx, name); err == nil {
		return entry, nil
	}

	// 共享的加载不随某一个调用方取消，各调用方只放弃自己的等待
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(name, func() (any, error) {
		ctx := shared
		// 等待期间可能已被其他调用写入
		if entry, err := c.store.Get(ctx, name); err == nil {
			return entry, nil
		}

		ctx, span := c.tracer.Start(ctx, "ticdb.reflect", trace.WithAttributes(attribute.String("database", name)))
		defer span.End()

		entry, err := c.loader(ctx, name)
		c.metrics.observeReflection(name, err)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
			return nil, err
		}
		if entry == nil || entry.Schema == nil {
			return nil, errors.Errorf("loader returned no schema for %q", name)
		}

		if err := c.store.Set(ctx, name, entry); err != nil {
			return nil, err
		}
		c.log().InfoContext(ctx, "database reflected", "database", name, "tables", len(entry.Schema.Tables))
		return entry, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	}
}

// Set 直接写入缓存，覆盖已有的 Entry
func (c *TableReflectionCache) Set(name string, entry *Entry) error {
	if entry == nil || entry.Schema == nil {
		return errors.Errorf("entry for %q has no schema", name)
	}
	return c.store.Set(context.Background(), name, entry)
}

// Names 已缓存的数据库名，排序后返回
func (c *TableReflectionCache) Names() []string {
	var names []string
	_ = c.store.Range(context.Background(), func(name string, _ *Entry) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// Close 关闭所有连接池并清空缓存
func (c *TableReflectionCache) Close() error {
	var errs []error
	_ = c.store.Range(context.Background(), func(name string, entry *Entry) bool {
		if entry.Sessions != nil && entry.Sessions.Engine() != nil {
			if err := entry.Sessions.Engine().Close(); err != nil {
				errs = append(errs, errors.Wrapf(err, "close %q", name))
			}
		}
		return true
	})
	if err := c.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Databases 进程默认缓存，使用默认凭据文件
var Databases = mustNewTableReflectionCache(&CacheOptions{})

func mustNewTableReflectionCache(options *CacheOptions) *TableReflectionCache {
	c, err := NewTableReflectionCacheWithOptions(options)
	if err != nil {
		panic(err)
	}
	return c
}
