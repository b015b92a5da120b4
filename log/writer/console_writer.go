package writer

import (
	"io"
	"os"
)

// ConsoleWriterOptions 控制台输出配置
type ConsoleWriterOptions struct {
	// 输出目标：stdout, stderr
	Target string `cfg:"target" def:"stderr"`
}

// ConsoleWriter 控制台输出器
// 查询结果写 stdout，日志默认写 stderr 以免混在一起
type ConsoleWriter struct {
	writer io.Writer
	target string
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	target := "stderr"
	if options != nil && options.Target == "stdout" {
		target = "stdout"
	}

	w := io.Writer(os.Stderr)
	if target == "stdout" {
		w = os.Stdout
	}

	return &ConsoleWriter{writer: w, target: target}, nil
}

func (c *ConsoleWriter) Write(p []byte) (n int, err error) {
	return c.writer.Write(p)
}

// Close 控制台不需要关闭
func (c *ConsoleWriter) Close() error {
	return nil
}
