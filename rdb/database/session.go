package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/mit-kavli-institute/ticdb/rdb/query"
)

// SessionFactory 创建绑定到同一连接池的会话
type SessionFactory struct {
	engine *Engine
}

func (f *SessionFactory) New() *Session {
	return &Session{engine: f.engine}
}

func (f *SessionFactory) Engine() *Engine {
	return f.engine
}

// Session 短生命周期会话，首次使用时从池中取出一个连接，Close 时归还
// 不能被多个 goroutine 同时使用
type Session struct {
	engine *Engine
	conn   *sql.Conn
	closed bool
}

func (s *Session) acquire(ctx context.Context) (*sql.Conn, error) {
	if s.closed {
		return nil, errors.New("session is closed")
	}
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.engine.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn, nil
}

func (s *Session) Dialect() query.Dialect {
	return s.engine.dialect
}

// Select 执行查询语句，结果全部读入内存
func (s *Session) Select(ctx context.Context, stmt *query.Select) (*Result, error) {
	sqlStr, args, err := stmt.ToSQL(s.engine.dialect)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, sqlStr, args...)
}

// Query 原样执行 SQL，不做任何改写
func (s *Session) Query(ctx context.Context, sqlStr string, args ...any) (*Result, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	result.Start = start
	result.End = time.Now()
	return result, nil
}

// WithTx 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (s *Session) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Close 归还连接，可重复调用
func (s *Session) Close() error {
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func scanRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := NewResult(columns)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			// 文本列在部分驱动中以 []byte 返回
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, Row{values: values, index: result.index})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
