package query

import "fmt"

// DefaultRadialFunction q3c 扩展提供的索引加速圆锥检索函数
const DefaultRadialFunction = "q3c_radial_query"

// RadialQuery 以 (RA, Dec) 为中心、Radius 度为半径的圆锥检索
type RadialQuery struct {
	Function string
	RAField  string
	DecField string
	RA       float64
	Dec      float64
	Radius   float64
}

// NewRadialQuery 使用默认函数和 ra/dec 列构建圆锥检索
func NewRadialQuery(ra, dec, radius float64) *RadialQuery {
	return &RadialQuery{
		Function: DefaultRadialFunction,
		RAField:  "ra",
		DecField: "dec",
		RA:       ra,
		Dec:      dec,
		Radius:   radius,
	}
}

func (q *RadialQuery) Type() QueryType {
	return QueryTypeRadial
}

func (q *RadialQuery) ToSQL(d Dialect) (string, []any, error) {
	function := q.Function
	if function == "" {
		function = DefaultRadialFunction
	}
	return fmt.Sprintf("%s(%s, %s, ?, ?, ?)",
		function, d.QuoteIdentifier(q.RAField), d.QuoteIdentifier(q.DecField),
	), []any{q.RA, q.Dec, q.Radius}, nil
}

// RawQuery 调用方提供的条件片段，原样拼接
type RawQuery struct {
	SQL  string
	Args []any
}

func Raw(sql string, args ...any) *RawQuery {
	return &RawQuery{SQL: sql, Args: args}
}

func (q *RawQuery) Type() QueryType {
	return QueryTypeRaw
}

func (q *RawQuery) ToSQL(Dialect) (string, []any, error) {
	return q.SQL, q.Args, nil
}
