package schema

import (
	"slices"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrNoSuchTable  = errors.New("no such table")
	ErrNoSuchColumn = errors.New("no such column")
)

// Schema 反射得到的远端库结构，构建后只读
type Schema struct {
	Tables map[string]*Table
}

// Table 表结构
type Table struct {
	Name       string
	Columns    []*Column
	PrimaryKey []string // 主键列，按反射顺序

	index map[string]*Column
}

// Column 列结构
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
}

func NewSchema(tables ...*Table) *Schema {
	s := &Schema{Tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.Tables[t.Name] = t
	}
	return s
}

// NewTable 创建表结构，主键由列上的 PrimaryKey 标记推导
func NewTable(name string, columns ...*Column) *Table {
	t := &Table{
		Name:    name,
		Columns: columns,
		index:   make(map[string]*Column, len(columns)),
	}
	for _, c := range columns {
		t.index[c.Name] = c
		if c.PrimaryKey {
			t.PrimaryKey = append(t.PrimaryKey, c.Name)
		}
	}
	return t
}

// Table 按名称查找表
func (s *Schema) Table(name string) (*Table, error) {
	if t, ok := s.Tables[name]; ok {
		return t, nil
	}
	return nil, errors.Wrapf(ErrNoSuchTable, "table %q", name)
}

// TableNames 返回排序后的表名
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Column 按名称查找列
func (t *Table) Column(name string) (*Column, error) {
	if c, ok := t.index[name]; ok {
		return c, nil
	}
	return nil, errors.Wrapf(ErrNoSuchColumn, "column %q on table %q", name, t.Name)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup 按顺序解析一组列名，任一不存在即失败
func (t *Table) Lookup(names ...string) ([]*Column, error) {
	columns := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, nil
}

func (t *Table) IsPrimaryKey(name string) bool {
	return slices.Contains(t.PrimaryKey, name)
}
