package writer

import (
	"fmt"
	"io"
)

// Writer 日志输出器接口
type Writer interface {
	io.Writer
	io.Closer
}

// Options 输出器配置，Type 为 console 或 file
type Options struct {
	Type    string               `cfg:"type" def:"console" validate:"omitempty,oneof=console file"`
	Console ConsoleWriterOptions `cfg:"console"`
	File    FileWriterOptions    `cfg:"file"`
}

// New 按类型创建输出器
func New(options *Options) (Writer, error) {
	if options == nil {
		return NewConsoleWriterWithOptions(nil)
	}

	switch options.Type {
	case "", "console":
		return NewConsoleWriterWithOptions(&options.Console)
	case "file":
		return NewFileWriterWithOptions(&options.File)
	default:
		return nil, fmt.Errorf("unsupported writer type: %s", options.Type)
	}
}
