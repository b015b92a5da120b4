package query

import (
	"fmt"
	"strings"
)

// BoolQuery 布尔查询
type BoolQuery struct {
	Must           []Query
	Should         []Query
	MustNot        []Query
	MinShouldMatch *int
}

func (q *BoolQuery) Type() QueryType {
	return QueryTypeBool
}

// And 将多个谓词合取
func And(queries ...Query) *BoolQuery {
	return &BoolQuery{Must: queries}
}

func (q *BoolQuery) ToSQL(d Dialect) (string, []any, error) {
	var conditions []string
	var args []any

	build := func(queries []Query, wrap string) ([]string, error) {
		parts := make([]string, 0, len(queries))
		for _, query := range queries {
			sql, queryArgs, err := query.ToSQL(d)
			if err != nil {
				return nil, err
			}
			parts = append(parts, fmt.Sprintf(wrap, sql))
			args = append(args, queryArgs...)
		}
		return parts, nil
	}

	must, err := build(q.Must, "(%s)")
	if err != nil {
		return "", nil, err
	}
	if len(must) > 0 {
		conditions = append(conditions, strings.Join(must, " AND "))
	}

	should, err := build(q.Should, "(%s)")
	if err != nil {
		return "", nil, err
	}
	if len(should) > 0 {
		// 至少命中 MinShouldMatch 个时使用条件计数
		if q.MinShouldMatch != nil && *q.MinShouldMatch != 1 {
			cases := make([]string, len(should))
			for i, condition := range should {
				cases[i] = fmt.Sprintf("CASE WHEN %s THEN 1 ELSE 0 END", condition)
			}
			conditions = append(conditions, fmt.Sprintf("(%s) >= %d", strings.Join(cases, " + "), *q.MinShouldMatch))
		} else {
			conditions = append(conditions, "("+strings.Join(should, " OR ")+")")
		}
	}

	mustNot, err := build(q.MustNot, "NOT (%s)")
	if err != nil {
		return "", nil, err
	}
	if len(mustNot) > 0 {
		conditions = append(conditions, strings.Join(mustNot, " AND "))
	}

	if len(conditions) == 0 {
		return "1 = 1", nil, nil
	}

	return strings.Join(conditions, " AND "), args, nil
}
