package storage

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MapStorage 基于 map 和 slice 的存储实现
type MapStorage struct {
	data any
}

func NewMapStorage(data any) *MapStorage {
	return &MapStorage{data: data}
}

// Data 获取存储的原始数据
func (ms *MapStorage) Data() any {
	return ms.data
}

func (ms *MapStorage) Sub(key string) Storage {
	if key == "" {
		return ms
	}
	// 键名本身可能含点号
	if v := lookup(ms.data, key); v != nil {
		return NewMapStorage(v)
	}

	current := ms.data
	for _, k := range strings.Split(key, ".") {
		current = lookup(current, k)
		if current == nil {
			return nil
		}
	}
	return NewMapStorage(current)
}

func (ms *MapStorage) Keys() []string {
	rv := reflect.ValueOf(ms.data)
	if rv.Kind() != reflect.Map {
		return nil
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, fmt.Sprint(k.Interface()))
	}
	slices.Sort(keys)
	return keys
}

func (ms *MapStorage) ConvertTo(object any) error {
	dst := reflect.ValueOf(object)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return fmt.Errorf("object must be a non-nil pointer, got %T", object)
	}
	return convertValue(ms.data, dst)
}

func lookup(data any, key string) any {
	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			if fmt.Sprint(k.Interface()) == key {
				return rv.MapIndex(k).Interface()
			}
		}
	case reflect.Slice, reflect.Array:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= rv.Len() {
			return nil
		}
		return rv.Index(index).Interface()
	}
	return nil
}

func convertValue(src any, dst reflect.Value) error {
	srcValue := reflect.ValueOf(src)
	if !srcValue.IsValid() {
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convertValue(src, dst.Elem())
	}

	if srcValue.Type().AssignableTo(dst.Type()) {
		dst.Set(srcValue)
		return nil
	}

	if dst.Type() == reflect.TypeOf(time.Duration(0)) {
		return convertToDuration(srcValue, dst)
	}

	switch dst.Kind() {
	case reflect.Map:
		return convertToMap(srcValue, dst)
	case reflect.Slice:
		return convertToSlice(srcValue, dst)
	case reflect.Struct:
		return convertToStruct(srcValue, dst)
	case reflect.Interface:
		if dst.Type().NumMethod() == 0 {
			dst.Set(srcValue)
			return nil
		}
	case reflect.String:
		// INI 中的值都是字符串，YAML 中的数字密码等也按字符串读取
		switch srcValue.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64, reflect.Bool:
			dst.SetString(fmt.Sprint(srcValue.Interface()))
			return nil
		case reflect.String:
			dst.SetString(srcValue.String())
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return convertToInt(srcValue, dst)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return convertToUint(srcValue, dst)
	case reflect.Float32, reflect.Float64:
		return convertToFloat(srcValue, dst)
	case reflect.Bool:
		if srcValue.Kind() == reflect.String {
			b, err := strconv.ParseBool(strings.TrimSpace(srcValue.String()))
			if err != nil {
				return fmt.Errorf("cannot parse %q as bool", srcValue.String())
			}
			dst.SetBool(b)
			return nil
		}
	}

	return fmt.Errorf("cannot convert %v to %v", srcValue.Type(), dst.Type())
}

func convertToInt(src, dst reflect.Value) error {
	var n int64
	switch src.Kind() {
	case reflect.String:
		v, err := strconv.ParseInt(strings.TrimSpace(src.String()), 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("cannot parse %q as %v", src.String(), dst.Type())
		}
		n = v
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = src.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = int64(src.Uint())
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if f != float64(int64(f)) {
			return fmt.Errorf("cannot convert non-integral %v to %v", f, dst.Type())
		}
		n = int64(f)
	default:
		return fmt.Errorf("cannot convert %v to %v", src.Type(), dst.Type())
	}
	if dst.OverflowInt(n) {
		return fmt.Errorf("%d overflows %v", n, dst.Type())
	}
	dst.SetInt(n)
	return nil
}

func convertToUint(src, dst reflect.Value) error {
	tmp := reflect.New(reflect.TypeOf(int64(0))).Elem()
	if err := convertToInt(src, tmp); err != nil {
		return err
	}
	n := tmp.Int()
	if n < 0 || dst.OverflowUint(uint64(n)) {
		return fmt.Errorf("%d overflows %v", n, dst.Type())
	}
	dst.SetUint(uint64(n))
	return nil
}

func convertToFloat(src, dst reflect.Value) error {
	switch src.Kind() {
	case reflect.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(src.String()), dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("cannot parse %q as %v", src.String(), dst.Type())
		}
		dst.SetFloat(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetFloat(float64(src.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetFloat(float64(src.Uint()))
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(src.Float())
	default:
		return fmt.Errorf("cannot convert %v to %v", src.Type(), dst.Type())
	}
	return nil
}

func convertToDuration(src, dst reflect.Value) error {
	switch src.Kind() {
	case reflect.String:
		d, err := time.ParseDuration(strings.TrimSpace(src.String()))
		if err != nil {
			return fmt.Errorf("failed to parse duration %q: %v", src.String(), err)
		}
		dst.SetInt(int64(d))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(src.Int())
		return nil
	case reflect.Float32, reflect.Float64:
		// 浮点数视为秒
		dst.SetInt(int64(src.Float() * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("cannot convert %v to time.Duration", src.Type())
}

func convertToMap(src, dst reflect.Value) error {
	if src.Kind() != reflect.Map {
		return fmt.Errorf("source is not a map")
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}

	for _, key := range src.MapKeys() {
		dstValue := reflect.New(dst.Type().Elem()).Elem()
		if err := convertValue(src.MapIndex(key).Interface(), dstValue); err != nil {
			return fmt.Errorf("key %v: %w", key.Interface(), err)
		}
		dstKey := reflect.New(dst.Type().Key()).Elem()
		if err := convertValue(key.Interface(), dstKey); err != nil {
			return err
		}
		dst.SetMapIndex(dstKey, dstValue)
	}
	return nil
}

func convertToSlice(src, dst reflect.Value) error {
	if src.Kind() == reflect.String {
		// 逗号分隔的列表
		parts := strings.Split(src.String(), ",")
		items := make([]any, len(parts))
		for i, p := range parts {
			items[i] = strings.TrimSpace(p)
		}
		src = reflect.ValueOf(items)
	}
	if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
		return fmt.Errorf("source is not a slice or array")
	}

	length := src.Len()
	dst.Set(reflect.MakeSlice(dst.Type(), length, length))
	for i := 0; i < length; i++ {
		if err := convertValue(src.Index(i).Interface(), dst.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

// convertToStruct 字段名优先取 cfg tag，其次 json/yaml tag，最后字段名（忽略大小写）
func convertToStruct(src, dst reflect.Value) error {
	if src.Kind() != reflect.Map {
		return fmt.Errorf("source is not a map")
	}

	entries := make(map[string]reflect.Value, src.Len())
	for _, key := range src.MapKeys() {
		entries[strings.ToLower(fmt.Sprint(key.Interface()))] = src.MapIndex(key)
	}

	dstType := dst.Type()
	for i := 0; i < dstType.NumField(); i++ {
		field := dstType.Field(i)
		fieldValue := dst.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}
		value, ok := entries[strings.ToLower(name)]
		if !ok {
			continue
		}
		if err := convertValue(value.Interface(), fieldValue); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func fieldName(field reflect.StructField) string {
	for _, tagKey := range []string{"cfg", "json", "yaml"} {
		if tag := field.Tag.Get(tagKey); tag != "" {
			if name := strings.Split(tag, ",")[0]; name != "" {
				return name
			}
		}
	}
	return field.Name
}
