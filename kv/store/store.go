package store

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrConditionFailed = errors.New("condition failed")
)

type setOptions struct {
	IfNotExist bool
}

type setOption func(*setOptions)

// WithIfNotExist 键已存在时返回 ErrConditionFailed
func WithIfNotExist() setOption {
	return func(options *setOptions) {
		options.IfNotExist = true
	}
}

// Store 进程内 KV 存储接口
type Store[K, V any] interface {
	// Set 设置键值对，WithIfNotExist 时键存在则返回 ErrConditionFailed
	Set(ctx context.Context, key K, value V, opts ...setOption) error
	// Get 获取键对应的值，键不存在时返回 ErrKeyNotFound
	Get(ctx context.Context, key K) (V, error)
	// Del 删除键，键不存在时也返回成功
	Del(ctx context.Context, key K) error
	// Range 遍历所有键值对，fn 返回 false 时停止
	Range(ctx context.Context, fn func(key K, value V) bool) error
	Close() error
}
