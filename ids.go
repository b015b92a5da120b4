package ticdb

import (
	"iter"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// normalizeIDs 区分单个 id 和 id 集合
// 字符串视为单个 id，不会被逐字符迭代；集合去重后升序返回
func normalizeIDs(id any) (ids []int64, scalar bool, err error) {
	switch v := id.(type) {
	case nil:
		return nil, false, errors.Wrap(ErrInvalidID, "id is nil")
	case iter.Seq[int64]:
		return dedupe(slices.Collect(v)), false, nil
	case iter.Seq[int]:
		for i := range v {
			ids = append(ids, int64(i))
		}
		return dedupe(ids), false, nil
	}

	if n, err := toID(id); err == nil {
		return []int64{n}, true, nil
	} else if !errors.Is(err, errNotScalar) {
		return nil, false, err
	}

	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		ids = make([]int64, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, err := elementID(rv.Index(i).Interface())
			if err != nil {
				return nil, false, err
			}
			ids = append(ids, n)
		}
	case reflect.Map:
		ids = make([]int64, 0, rv.Len())
		keys := rv.MapRange()
		for keys.Next() {
			n, err := elementID(keys.Key().Interface())
			if err != nil {
				return nil, false, err
			}
			ids = append(ids, n)
		}
	default:
		return nil, false, errors.Wrapf(ErrInvalidID, "unsupported id type %T", id)
	}
	return dedupe(ids), false, nil
}

func elementID(v any) (int64, error) {
	n, err := toID(v)
	if errors.Is(err, errNotScalar) {
		return 0, errors.Wrapf(ErrInvalidID, "nested id collection %T", v)
	}
	return n, err
}

var errNotScalar = errors.New("not a scalar id")

func toID(v any) (int64, error) {
	if v == nil {
		return 0, errors.Wrap(ErrInvalidID, "id is nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errors.Wrapf(ErrInvalidID, "id %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, errors.Wrapf(ErrInvalidID, "id %v is not an integer", f)
		}
		return int64(f), nil
	case reflect.String:
		n, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidID, "id %q is not an integer", rv.String())
		}
		return n, nil
	case reflect.Slice, reflect.Array, reflect.Map:
		return 0, errNotScalar
	}
	return 0, errors.Wrapf(ErrInvalidID, "unsupported id type %T", v)
}

func dedupe(ids []int64) []int64 {
	slices.Sort(ids)
	return slices.Compact(ids)
}
