package decoder

import (
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	"github.com/mit-kavli-institute/ticdb/cfg/storage"
)

// IniDecoder INI 格式解码器
// 值一律保留为字符串，由 ConvertTo 按目标字段类型转换，避免纯数字密码被解析成数字
type IniDecoder struct {
	// AllowBoolKeys 允许无值的键，值为 "true"
	AllowBoolKeys bool
}

func NewIniDecoder() *IniDecoder {
	return &IniDecoder{AllowBoolKeys: true}
}

func (i *IniDecoder) Decode(data []byte) (storage.Storage, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         i.AllowBoolKeys,
		SpaceBeforeInlineComment: true,
		IgnoreInlineComment:      false,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "decode INI failed")
	}

	result := make(map[string]any)
	for _, section := range file.Sections() {
		values := make(map[string]any, len(section.Keys()))
		for _, key := range section.Keys() {
			values[key.Name()] = key.String()
		}

		// 没有 section 头的键放在顶层
		if section.Name() == ini.DefaultSection {
			for k, v := range values {
				result[k] = v
			}
			continue
		}
		result[section.Name()] = values
	}

	return storage.NewMapStorage(result), nil
}
