package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/mit-kavli-institute/ticdb/rdb/schema"
)

// Keyword 形如 column__operator 的过滤条件
type Keyword struct {
	Name  string
	Value any
}

// KeywordsFromMap 按名称排序，保证生成的 SQL 稳定
func KeywordsFromMap(m map[string]any) []Keyword {
	keywords := make([]Keyword, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		keywords = append(keywords, Keyword{Name: name, Value: m[name]})
	}
	return keywords
}

type operatorFunc func(field string, value any) (Query, error)

var operators = map[string]operatorFunc{
	"eq": func(field string, value any) (Query, error) {
		if value == nil {
			return &MissingQuery{Field: field}, nil
		}
		return &TermQuery{Field: field, Value: value}, nil
	},
	"ne": func(field string, value any) (Query, error) {
		if value == nil {
			return &ExistsQuery{Field: field}, nil
		}
		return &NotTermQuery{Field: field, Value: value}, nil
	},
	"lt": ordering(func(q *RangeQuery, v any) { q.Lt = v }),
	"le": ordering(func(q *RangeQuery, v any) { q.Lte = v }),
	"gt": ordering(func(q *RangeQuery, v any) { q.Gt = v }),
	"ge": ordering(func(q *RangeQuery, v any) { q.Gte = v }),
	"in": func(field string, value any) (Query, error) {
		return NewTermsQuery(field, value, false)
	},
	"notin": func(field string, value any) (Query, error) {
		return NewTermsQuery(field, value, true)
	},
	"is_": func(field string, value any) (Query, error) {
		return NewIsQuery(field, value, false)
	},
	"is_not": func(field string, value any) (Query, error) {
		return NewIsQuery(field, value, true)
	},
}

func ordering(set func(q *RangeQuery, v any)) operatorFunc {
	return func(field string, value any) (Query, error) {
		if value == nil {
			return nil, errors.Wrapf(ErrInvalidKeyword, "ordering comparison on %q against null", field)
		}
		q := &RangeQuery{Field: field}
		set(q, value)
		return q, nil
	}
}

// SupportedOperators 返回所有支持的操作符
func SupportedOperators() []string {
	return slices.Sorted(maps.Keys(operators))
}

// ParseKeyword 按第一个 __ 拆分列名和操作符
func ParseKeyword(name string) (column string, operator string, err error) {
	column, operator, ok := strings.Cut(name, "__")
	if !ok || column == "" || operator == "" {
		return "", "", errors.Wrapf(ErrInvalidKeyword, "%q is not of the form column__operator", name)
	}
	return column, operator, nil
}

// FromKeyword 将关键字过滤条件编译为谓词
// 先校验列，再校验操作符
func FromKeyword(table *schema.Table, name string, value any) (Query, error) {
	column, operator, err := ParseKeyword(name)
	if err != nil {
		return nil, err
	}

	if _, err := table.Column(column); err != nil {
		return nil, err
	}

	fn, ok := operators[operator]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedOperator, "%q in %q, supported: %s",
			operator, name, strings.Join(SupportedOperators(), ", "))
	}

	return fn(column, value)
}

// IsQuery IS [NOT] NULL / TRUE / FALSE
type IsQuery struct {
	Field string
	Value *bool // nil 表示 NULL
	Not   bool
}

func NewIsQuery(field string, value any, not bool) (*IsQuery, error) {
	switch v := value.(type) {
	case nil:
		return &IsQuery{Field: field, Not: not}, nil
	case bool:
		return &IsQuery{Field: field, Value: &v, Not: not}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidKeyword, "identity comparison on %q needs null or bool, got %T", field, value)
	}
}

func (q *IsQuery) Type() QueryType {
	return QueryTypeExists
}

func (q *IsQuery) ToSQL(d Dialect) (string, []any, error) {
	op := "IS"
	if q.Not {
		op = "IS NOT"
	}
	literal := "NULL"
	if q.Value != nil {
		literal = "FALSE"
		if *q.Value {
			literal = "TRUE"
		}
	}
	return fmt.Sprintf("%s %s %s", d.QuoteIdentifier(q.Field), op, literal), nil, nil
}
