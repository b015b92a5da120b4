package cfg

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mit-kavli-institute/ticdb/cfg/decoder"
	"github.com/mit-kavli-institute/ticdb/cfg/storage"
	"github.com/mit-kavli-institute/ticdb/cfg/validator"
)

var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrSectionNotFound = errors.New("config section not found")
	ErrInvalidConfig   = errors.New("invalid config")
)

// DefaultPath 默认凭据文件 $HOME/.config/tic/db.conf
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "tic", "db.conf")
	}
	return filepath.Join(home, ".config", "tic", "db.conf")
}

// ReadFile 读取并解码配置文件，格式由扩展名决定
func ReadFile(path string) (storage.Storage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrConfigNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "read config %s failed", path)
	}

	d, err := decoder.ForPath(path)
	if err != nil {
		return nil, err
	}

	s, err := d.Decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "config %s", path)
	}
	return s, nil
}

// Sections 列出配置文件中的所有顶层 section
func Sections(path string) ([]string, error) {
	s, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Keys(), nil
}

// LoadSection 将配置文件中的一个 section 解析到 out
// 依次执行类型转换、def 默认值和 validate 校验
func LoadSection(path string, section string, out any) error {
	s, err := ReadFile(path)
	if err != nil {
		return err
	}
	return Bind(s, section, out)
}

// Bind 将已解码配置中的 section 解析到 out
func Bind(s storage.Storage, section string, out any) error {
	sub := s.Sub(section)
	if sub == nil {
		return errors.Wrapf(ErrSectionNotFound, "%q", section)
	}

	if err := sub.ConvertTo(out); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "section %q: %v", section, err)
	}
	if err := SetDefaults(out); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "section %q: %v", section, err)
	}
	if err := validator.ValidateStruct(out); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "section %q: %v", section, err)
	}
	return nil
}
