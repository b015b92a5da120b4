package ref

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrNotRegistered = errors.New("not registered")
	ErrConflict      = errors.New("already registered with a different value")
)

// Registry 按名称注册的构造函数或取值，名称不区分大小写，并发安全
type Registry[V any] struct {
	namespace string
	m         sync.Map
}

func NewRegistry[V any](namespace string) *Registry[V] {
	return &Registry[V]{namespace: namespace}
}

// Register 注册 name，重复注册同一个值时忽略，注册不同的值返回 ErrConflict
func (r *Registry[V]) Register(name string, v V) error {
	key := strings.ToLower(name)
	existing, loaded := r.m.LoadOrStore(key, v)
	if !loaded || isSame(existing, v) {
		return nil
	}
	return errors.Wrapf(ErrConflict, "%s:%s", r.namespace, key)
}

func (r *Registry[V]) MustRegister(name string, v V) {
	if err := r.Register(name, v); err != nil {
		panic(err)
	}
}

func (r *Registry[V]) Lookup(name string) (V, error) {
	key := strings.ToLower(name)
	value, ok := r.m.Load(key)
	if !ok {
		var zero V
		return zero, errors.Wrapf(ErrNotRegistered, "%s:%s", r.namespace, key)
	}
	return value.(V), nil
}

// Names 已注册的名称，排序后返回
func (r *Registry[V]) Names() []string {
	var names []string
	r.m.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	slices.Sort(names)
	return names
}

func isSame(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	// 函数只能比较指针
	if va.Kind() == reflect.Func && vb.Kind() == reflect.Func {
		return va.Pointer() == vb.Pointer()
	}
	return reflect.DeepEqual(a, b)
}
