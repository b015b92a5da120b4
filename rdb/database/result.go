package database

import (
	"reflect"
	"slices"
	"time"

	"github.com/pkg/errors"
)

// Result 完全读入内存的查询结果，行内数据与 Columns 按位置对应
type Result struct {
	Columns []string
	Rows    []Row
	Start   time.Time
	End     time.Time

	index map[string]int
}

// Row 一行数据，支持按位置和列名访问
type Row struct {
	values []any
	index  map[string]int
}

func NewResult(columns []string) *Result {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := index[c]; !ok {
			index[c] = i
		}
	}
	return &Result{Columns: columns, index: index}
}

// NewRow 构建属于 r 的一行，values 需与 Columns 对齐
func (r *Result) NewRow(values ...any) Row {
	return Row{values: values, index: r.index}
}

func (r *Result) Len() int {
	return len(r.Rows)
}

// Shape 行数和列数
func (r *Result) Shape() (int, int) {
	return len(r.Rows), len(r.Columns)
}

// Elapsed 查询耗时，分批查询时为首批开始到末批结束
func (r *Result) Elapsed() time.Duration {
	return r.End.Sub(r.Start)
}

// Append 追加另一结果的行，两者的列必须一致
func (r *Result) Append(other *Result) error {
	if !slices.Equal(r.Columns, other.Columns) {
		return errors.Errorf("cannot append result with columns %v to %v", other.Columns, r.Columns)
	}
	for _, row := range other.Rows {
		r.Rows = append(r.Rows, Row{values: row.values, index: r.index})
	}
	if r.Start.IsZero() || (!other.Start.IsZero() && other.Start.Before(r.Start)) {
		r.Start = other.Start
	}
	if other.End.After(r.End) {
		r.End = other.End
	}
	return nil
}

// Column 按列名取整列
func (r *Result) Column(name string) ([]any, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, errors.Errorf("no column %q in result", name)
	}
	values := make([]any, len(r.Rows))
	for j, row := range r.Rows {
		values[j] = row.values[i]
	}
	return values, nil
}

// ToMapping 以 ident 列的值为键组织结果，ident 为空时使用 id
func (r *Result) ToMapping(ident string) (map[any]Row, error) {
	if ident == "" {
		ident = "id"
	}
	i, ok := r.index[ident]
	if !ok {
		return nil, errors.Errorf("no column %q in result", ident)
	}
	m := make(map[any]Row, len(r.Rows))
	for _, row := range r.Rows {
		key := row.values[i]
		if key != nil && !reflect.TypeOf(key).Comparable() {
			return nil, errors.Errorf("column %q holds unhashable %T", ident, key)
		}
		m[key] = row
	}
	return m, nil
}

// Apply 对每一行调用 fn，返回按行顺序的结果
func (r *Result) Apply(fn func(Row) any) []any {
	out := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = fn(row)
	}
	return out
}

// Maps 每行转成列名到值的映射
func (r *Result) Maps() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for j, c := range r.Columns {
			m[c] = row.values[j]
		}
		out[i] = m
	}
	return out
}

func (row Row) Values() []any {
	return row.values
}

func (row Row) Len() int {
	return len(row.values)
}

func (row Row) Index(i int) any {
	return row.values[i]
}

// Get 按列名取值
func (row Row) Get(name string) (any, bool) {
	i, ok := row.index[name]
	if !ok {
		return nil, false
	}
	return row.values[i], true
}
