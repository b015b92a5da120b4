package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// TermQuery 精确匹配查询
type TermQuery struct {
	Field string
	Value any
}

func (q *TermQuery) Type() QueryType {
	return QueryTypeTerm
}

func (q *TermQuery) ToSQL(d Dialect) (string, []any, error) {
	return fmt.Sprintf("%s = ?", d.QuoteIdentifier(q.Field)), []any{q.Value}, nil
}

// NotTermQuery 不等查询
type NotTermQuery struct {
	Field string
	Value any
}

func (q *NotTermQuery) Type() QueryType {
	return QueryTypeTerm
}

func (q *NotTermQuery) ToSQL(d Dialect) (string, []any, error) {
	return fmt.Sprintf("%s <> ?", d.QuoteIdentifier(q.Field)), []any{q.Value}, nil
}

// TermsQuery 集合成员查询，Not 为 true 时为 NOT IN
// 空集合不会生成非法的 IN ()，而是恒假（Not 时恒真）
type TermsQuery struct {
	Field  string
	Values []any
	Not    bool
}

func (q *TermsQuery) Type() QueryType {
	return QueryTypeTerms
}

func (q *TermsQuery) ToSQL(d Dialect) (string, []any, error) {
	if len(q.Values) == 0 {
		if q.Not {
			return "1 = 1", nil, nil
		}
		return "1 = 0", nil, nil
	}

	op := "IN"
	if q.Not {
		op = "NOT IN"
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(q.Values)), ", ")
	args := make([]any, len(q.Values))
	copy(args, q.Values)

	return fmt.Sprintf("%s %s (%s)", d.QuoteIdentifier(q.Field), op, placeholders), args, nil
}

// NewTermsQuery 从任意切片或数组构建 TermsQuery，字符串视为单个值
func NewTermsQuery(field string, values any, not bool) (*TermsQuery, error) {
	if s, ok := values.(string); ok {
		return &TermsQuery{Field: field, Values: []any{s}, Not: not}, nil
	}

	rv := reflect.ValueOf(values)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, errors.Wrapf(ErrInvalidKeyword, "membership on %q needs a list, got %T", field, values)
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return &TermsQuery{Field: field, Values: items, Not: not}, nil
}

// ExistsQuery 字段非空查询
type ExistsQuery struct {
	Field string
}

func (q *ExistsQuery) Type() QueryType {
	return QueryTypeExists
}

func (q *ExistsQuery) ToSQL(d Dialect) (string, []any, error) {
	return fmt.Sprintf("%s IS NOT NULL", d.QuoteIdentifier(q.Field)), nil, nil
}

// MissingQuery 字段为空查询
type MissingQuery struct {
	Field string
}

func (q *MissingQuery) Type() QueryType {
	return QueryTypeExists
}

func (q *MissingQuery) ToSQL(d Dialect) (string, []any, error) {
	return fmt.Sprintf("%s IS NULL", d.QuoteIdentifier(q.Field)), nil, nil
}
