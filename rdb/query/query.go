package query

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrInvalidKeyword      = errors.New("invalid keyword filter")
	ErrNoFields            = errors.New("no output fields")
)

// QueryType 查询类型
type QueryType string

const (
	QueryTypeBool   QueryType = "bool"
	QueryTypeTerm   QueryType = "term"
	QueryTypeTerms  QueryType = "terms"
	QueryTypeRange  QueryType = "range"
	QueryTypeExists QueryType = "exists"
	QueryTypeRadial QueryType = "radial"
	QueryTypeRaw    QueryType = "raw"
)

// Query 作用于单表的布尔谓词
// ToSQL 输出使用 ? 占位符的条件片段，由 Select 统一改写为方言占位符
type Query interface {
	Type() QueryType
	ToSQL(d Dialect) (string, []any, error)
}

// Dialect SQL 方言差异
type Dialect interface {
	// QuoteIdentifier 引用标识符
	QuoteIdentifier(name string) string
	// BindVar 第 n 个参数的占位符，n 从 1 开始
	BindVar(n int) string
}

type ansiDialect struct{}

func (ansiDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (ansiDialect) BindVar(int) string {
	return "?"
}

type dollarDialect struct {
	ansiDialect
}

func (dollarDialect) BindVar(n int) string {
	return "$" + strconv.Itoa(n)
}

type backtickDialect struct{}

func (backtickDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (backtickDialect) BindVar(int) string {
	return "?"
}

var (
	// ANSI 双引号标识符，? 占位符（sqlite）
	ANSI Dialect = ansiDialect{}
	// Dollar 双引号标识符，$n 占位符（postgres）
	Dollar Dialect = dollarDialect{}
	// Backtick 反引号标识符，? 占位符（mysql）
	Backtick Dialect = backtickDialect{}
)

// Rebind 将 ? 占位符改写为方言占位符
// 单引号字符串、双引号标识符和注释中的 ? 保持不变
func Rebind(d Dialect, sql string) string {
	if d.BindVar(1) == "?" {
		return sql
	}

	var sb strings.Builder
	sb.Grow(len(sql) + 8)
	n := 0
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			end := strings.IndexByte(sql[i+1:], c)
			if end < 0 {
				sb.WriteString(sql[i:])
				return sb.String()
			}
			// 连续两个引号是转义，下一轮会作为新的引号段继续跳过
			sb.WriteString(sql[i : i+end+2])
			i += end + 1
		case c == '-' && strings.HasPrefix(sql[i:], "--"):
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				sb.WriteString(sql[i:])
				return sb.String()
			}
			sb.WriteString(sql[i : i+end+1])
			i += end
		case c == '/' && strings.HasPrefix(sql[i:], "/*"):
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				sb.WriteString(sql[i:])
				return sb.String()
			}
			sb.WriteString(sql[i : i+end+4])
			i += end + 3
		case c == '?':
			n++
			sb.WriteString(d.BindVar(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
