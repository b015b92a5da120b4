package ticdb

import "github.com/pkg/errors"

var (
	// ErrNotImplemented 复合主键等尚未支持的查询
	ErrNotImplemented = errors.New("not implemented")
	// ErrNoPrimaryKey 表既没有主键也没有 id 列
	ErrNoPrimaryKey = errors.New("no primary key")
	ErrInvalidID    = errors.New("invalid id")
	// ErrTooManyParams 过滤条件本身已用完单条语句的参数上限
	ErrTooManyParams = errors.New("too many bind parameters")
)
