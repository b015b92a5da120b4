package decoder

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/mit-kavli-institute/ticdb/cfg/storage"
)

// TomlDecoder TOML 格式解码器
type TomlDecoder struct{}

func NewTomlDecoder() *TomlDecoder {
	return &TomlDecoder{}
}

func (t *TomlDecoder) Decode(data []byte) (storage.Storage, error) {
	var result map[string]any
	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "decode TOML failed")
	}
	return storage.NewMapStorage(result), nil
}
