package query

import (
	"fmt"
	"strings"

	"github.com/mit-kavli-institute/ticdb/rdb/schema"
)

// Select 单表查询语句，不可变，Where 返回新的语句
type Select struct {
	Table  string
	Fields []string
	Wheres []Query
}

// NewSelect 校验输出列后创建语句
func NewSelect(table *schema.Table, fields ...string) (*Select, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	if _, err := table.Lookup(fields...); err != nil {
		return nil, err
	}

	return &Select{
		Table:  table.Name,
		Fields: append([]string(nil), fields...),
	}, nil
}

// Where 追加谓词，各谓词之间为 AND 关系
func (s *Select) Where(queries ...Query) *Select {
	wheres := make([]Query, 0, len(s.Wheres)+len(queries))
	wheres = append(wheres, s.Wheres...)
	wheres = append(wheres, queries...)
	return &Select{
		Table:  s.Table,
		Fields: s.Fields,
		Wheres: wheres,
	}
}

func (s *Select) ToSQL(d Dialect) (string, []any, error) {
	fields := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = d.QuoteIdentifier(f)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(fields, ", "), d.QuoteIdentifier(s.Table))

	var args []any
	for i, q := range s.Wheres {
		sql, queryArgs, err := q.ToSQL(d)
		if err != nil {
			return "", nil, err
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString("(" + sql + ")")
		args = append(args, queryArgs...)
	}

	return Rebind(d, sb.String()), args, nil
}

// ApplyFilters 在语句上追加结构化谓词和关键字过滤条件
// 所有关键字先编译完成，任一失败则不返回语句
func ApplyFilters(stmt *Select, table *schema.Table, predicates []Query, keywords []Keyword) (*Select, error) {
	compiled := make([]Query, 0, len(keywords))
	for _, kw := range keywords {
		q, err := FromKeyword(table, kw.Name, kw.Value)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, q)
	}

	return stmt.Where(predicates...).Where(compiled...), nil
}
