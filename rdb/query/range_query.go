package query

import (
	"fmt"
	"strings"
)

// RangeQuery 范围查询，未设置的边界不参与比较
type RangeQuery struct {
	Field string
	Gt    any
	Gte   any
	Lt    any
	Lte   any
}

func (q *RangeQuery) Type() QueryType {
	return QueryTypeRange
}

func (q *RangeQuery) ToSQL(d Dialect) (string, []any, error) {
	var conditions []string
	var args []any

	field := d.QuoteIdentifier(q.Field)
	if q.Gt != nil {
		conditions = append(conditions, fmt.Sprintf("%s > ?", field))
		args = append(args, q.Gt)
	}
	if q.Gte != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= ?", field))
		args = append(args, q.Gte)
	}
	if q.Lt != nil {
		conditions = append(conditions, fmt.Sprintf("%s < ?", field))
		args = append(args, q.Lt)
	}
	if q.Lte != nil {
		conditions = append(conditions, fmt.Sprintf("%s <= ?", field))
		args = append(args, q.Lte)
	}

	if len(conditions) == 0 {
		return "1 = 1", nil, nil
	}

	return strings.Join(conditions, " AND "), args, nil
}
