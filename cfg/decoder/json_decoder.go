package decoder

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mit-kavli-institute/ticdb/cfg/storage"
)

// JsonDecoder JSON 格式解码器，数字保留为 json.Number 以免精度丢失
type JsonDecoder struct{}

func NewJsonDecoder() *JsonDecoder {
	return &JsonDecoder{}
}

func (j *JsonDecoder) Decode(data []byte) (storage.Storage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var result map[string]any
	if err := dec.Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode JSON failed")
	}
	return storage.NewMapStorage(result), nil
}
