package storage

// Storage 配置数据存储接口
type Storage interface {
	// Sub 获取子配置，key 可以用点号表示多级嵌套，例如 "tic_82.port"
	// 不存在时返回 nil
	Sub(key string) Storage

	// Keys 返回当前层级的键，排序后返回
	Keys() []string

	// ConvertTo 将配置数据转成结构体或 map/slice 等任意结构
	ConvertTo(object any) error
}
