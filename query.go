package ticdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mit-kavli-institute/ticdb/chunk"
	"github.com/mit-kavli-institute/ticdb/rdb/database"
	"github.com/mit-kavli-institute/ticdb/rdb/query"
	"github.com/mit-kavli-institute/ticdb/rdb/schema"
)

type queryOptions struct {
	database    string
	table       string
	expressions []query.Query
	keywords    []query.Keyword
}

type QueryOption func(*queryOptions)

func newQueryOptions(opts []QueryOption) *queryOptions {
	o := &queryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDatabase 指定逻辑数据库名，只对 Client 的方法生效
func WithDatabase(name string) QueryOption {
	return func(o *queryOptions) {
		o.database = name
	}
}

// WithTable 指定表名，只对 Client 的方法生效
func WithTable(name string) QueryOption {
	return func(o *queryOptions) {
		o.table = name
	}
}

// WithExpressions 追加结构化谓词，按传入顺序组合
func WithExpressions(expressions ...query.Query) QueryOption {
	return func(o *queryOptions) {
		o.expressions = append(o.expressions, expressions...)
	}
}

// WithKeyword 追加一个 column__operator 形式的过滤条件
func WithKeyword(name string, value any) QueryOption {
	return func(o *queryOptions) {
		o.keywords = append(o.keywords, query.Keyword{Name: name, Value: value})
	}
}

// WithKeywords 按键名排序后追加
func WithKeywords(keywords map[string]any) QueryOption {
	return func(o *queryOptions) {
		o.keywords = append(o.keywords, query.KeywordsFromMap(keywords)...)
	}
}

// identColumn 返回用于 id 查询的列
func identColumn(table *schema.Table) (string, error) {
	switch len(table.PrimaryKey) {
	case 1:
		return table.PrimaryKey[0], nil
	case 0:
		if table.HasColumn("id") {
			return "id", nil
		}
		return "", errors.Wrapf(ErrNoPrimaryKey, "table %q has no primary key and no id column", table.Name)
	default:
		return "", errors.Wrapf(ErrNotImplemented, "table %q has composite primary key %v", table.Name, table.PrimaryKey)
	}
}

// filters 编译输出列和过滤条件，返回不带谓词的语句和过滤谓词
func filters(r *Resolved, fields []string, o *queryOptions) (*query.Select, []query.Query, error) {
	stmt, err := query.NewSelect(r.Table, fields...)
	if err != nil {
		return nil, nil, err
	}
	filtered, err := query.ApplyFilters(stmt, r.Table, o.expressions, o.keywords)
	if err != nil {
		return nil, nil, err
	}
	return stmt, filtered.Wheres, nil
}

// QueryByID 按主键查询，id 为单个值或 id 集合
// 集合去重后查询，id 与过滤条件的参数合计超过 MaxInParams 时分批查询，按批次顺序拼接结果
func QueryByID(ctx context.Context, r *Resolved, id any, fields []string, opts ...QueryOption) (*database.Result, error) {
	o := newQueryOptions(opts)

	ident, err := identColumn(r.Table)
	if err != nil {
		return nil, err
	}
	ids, scalar, err := normalizeIDs(id)
	if err != nil {
		return nil, err
	}
	stmt, wheres, err := filters(r, fields, o)
	if err != nil {
		return nil, err
	}
	size, err := batchSize(r.maxInParams(), wheres)
	if err != nil {
		return nil, err
	}

	return observe(ctx, r, "id", func(ctx context.Context, session *database.Session) (*database.Result, error) {
		if scalar {
			return session.Select(ctx, stmt.Where(&query.TermQuery{Field: ident, Value: ids[0]}).Where(wheres...))
		}

		var result *database.Result
		batches := 0
		for batch := range chunk.Slice(ids, size) {
			res, err := session.Select(ctx, stmt.Where(idsQuery(ident, batch)).Where(wheres...))
			if err != nil {
				return nil, err
			}
			batches++
			if result == nil {
				result = res
			} else if err := result.Append(res); err != nil {
				return nil, err
			}
		}
		if result == nil {
			// 空集合仍然执行一次，得到带列名的空结果
			res, err := session.Select(ctx, stmt.Where(idsQuery(ident, nil)).Where(wheres...))
			if err != nil {
				return nil, err
			}
			result, batches = res, 1
		}

		r.obs().metrics.observeChunks(r.Database, batches)
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("ticdb.ids", len(ids)),
			attribute.Int("ticdb.batches", batches),
		)
		return result, nil
	})
}

// batchSize 每批 id 个数，过滤条件的参数与 id 共用 maxParams
func batchSize(maxParams int, wheres []query.Query) (int, error) {
	used := 0
	for _, q := range wheres {
		_, args, err := q.ToSQL(query.ANSI)
		if err != nil {
			return 0, err
		}
		used += len(args)
	}
	if used >= maxParams {
		return 0, errors.Wrapf(ErrTooManyParams, "filters use %d of %d bind parameters", used, maxParams)
	}
	return maxParams - used, nil
}

func idsQuery(field string, ids []int64) *query.TermsQuery {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return &query.TermsQuery{Field: field, Values: values}
}

// QueryByLoc 锥形检索，以 ra/dec 为中心、radius 为半径（度）
func QueryByLoc(ctx context.Context, r *Resolved, ra, dec, radius float64, fields []string, opts ...QueryOption) (*database.Result, error) {
	o := newQueryOptions(opts)

	radial := query.NewRadialQuery(ra, dec, radius)
	if _, err := r.Table.Lookup(radial.RAField, radial.DecField); err != nil {
		return nil, err
	}
	stmt, wheres, err := filters(r, fields, o)
	if err != nil {
		return nil, err
	}

	return observe(ctx, r, "loc", func(ctx context.Context, session *database.Session) (*database.Result, error) {
		return session.Select(ctx, stmt.Where(radial).Where(wheres...))
	})
}

// QueryRaw 原样执行 SQL
func QueryRaw(ctx context.Context, r *Resolved, sql string) (*database.Result, error) {
	return observe(ctx, r, "raw", func(ctx context.Context, session *database.Session) (*database.Result, error) {
		return session.Query(ctx, sql)
	})
}

// InspectSchema 返回已解析表的反射结构，不访问数据库
func InspectSchema(ctx context.Context, r *Resolved) *schema.Table {
	r.obs().logger.DebugContext(ctx, "inspect schema",
		"database", r.Database, "table", r.Table.Name, "columns", len(r.Table.Columns))
	return r.Table
}

// observe 新建会话执行 fn，所有退出路径上关闭会话，并记录日志、指标和 span
func observe(ctx context.Context, r *Resolved, kind string, fn func(context.Context, *database.Session) (*database.Result, error)) (*database.Result, error) {
	obs := r.obs()

	attrs := []attribute.KeyValue{attribute.String("ticdb.database", r.Database)}
	if r.Table != nil {
		attrs = append(attrs, attribute.String("ticdb.table", r.Table.Name))
	}
	ctx, span := obs.tracer.Start(ctx, "ticdb.query."+kind, trace.WithAttributes(attrs...))
	defer span.End()

	session, err := r.Session()
	if err != nil {
		return nil, err
	}
	defer session.Close()

	start := time.Now()
	result, err := fn(ctx, session)
	elapsed := time.Since(start)

	obs.metrics.observeQuery(kind, elapsed.Seconds(), err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		obs.logger.DebugContext(ctx, "query failed", "kind", kind, "database", r.Database, "error", err)
		return nil, err
	}

	rows, cols := result.Shape()
	span.SetAttributes(attribute.Int("ticdb.rows", rows))
	obs.logger.DebugContext(ctx, "query done",
		"kind", kind, "database", r.Database, "rows", rows, "columns", cols, "elapsed", elapsed)
	return result, nil
}
