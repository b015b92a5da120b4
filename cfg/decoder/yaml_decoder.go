package decoder

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mit-kavli-institute/ticdb/cfg/storage"
)

// YamlDecoder YAML 格式解码器
type YamlDecoder struct{}

func NewYamlDecoder() *YamlDecoder {
	return &YamlDecoder{}
}

func (y *YamlDecoder) Decode(data []byte) (storage.Storage, error) {
	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "decode YAML failed")
	}
	return storage.NewMapStorage(result), nil
}
