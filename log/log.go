package log

import (
	"sync/atomic"

	"github.com/mit-kavli-institute/ticdb/log/logger"
)

var defaultLogger atomic.Pointer[logger.Logger]

func init() {
	// 默认向 stderr 输出 text 格式日志
	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{
		Level:  "info",
		Format: "text",
	})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	SetDefault(l)
}

func Default() logger.Logger {
	return *defaultLogger.Load()
}

// SetDefault 替换默认日志器，nil 被忽略
func SetDefault(l logger.Logger) {
	if l != nil {
		defaultLogger.Store(&l)
	}
}
