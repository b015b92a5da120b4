package decoder

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mit-kavli-institute/ticdb/cfg/storage"
	"github.com/mit-kavli-institute/ticdb/ref"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

// Decoder 将原始数据解码为存储对象
type Decoder interface {
	Decode(data []byte) (storage.Storage, error)
}

var decoders = ref.NewRegistry[func() Decoder]("decoder")

func newIni() Decoder  { return NewIniDecoder() }
func newYaml() Decoder { return NewYamlDecoder() }
func newToml() Decoder { return NewTomlDecoder() }
func newJson() Decoder { return NewJsonDecoder() }

func init() {
	// 无扩展名的凭据文件视为 INI
	for _, ext := range []string{"", ".conf", ".ini", ".cfg"} {
		decoders.MustRegister(ext, newIni)
	}
	decoders.MustRegister(".yaml", newYaml)
	decoders.MustRegister(".yml", newYaml)
	decoders.MustRegister(".toml", newToml)
	decoders.MustRegister(".json", newJson)
}

// Register 为扩展名注册解码器，ext 包含前导点
func Register(ext string, newDecoder func() Decoder) error {
	return decoders.Register(ext, newDecoder)
}

// ForPath 按文件扩展名选择解码器
func ForPath(path string) (Decoder, error) {
	ext := filepath.Ext(path)
	newDecoder, err := decoders.Lookup(ext)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", strings.ToLower(ext))
	}
	return newDecoder(), nil
}
