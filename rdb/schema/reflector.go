package schema

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Reflector 从在线连接中反射出表、列和主键
type Reflector interface {
	Reflect(ctx context.Context) (*Schema, error)
}

// GormReflector 基于 gorm Migrator 的反射实现，支持 gorm 所有方言
type GormReflector struct {
	db *gorm.DB
}

func NewGormReflector(db *gorm.DB) *GormReflector {
	return &GormReflector{db: db}
}

func (r *GormReflector) Reflect(ctx context.Context) (*Schema, error) {
	migrator := r.db.WithContext(ctx).Migrator()

	names, err := migrator.GetTables()
	if err != nil {
		return nil, errors.Wrap(err, "list tables failed")
	}

	tables := make([]*Table, 0, len(names))
	for _, name := range names {
		// sqlite 内部表
		if strings.HasPrefix(name, "sqlite_") {
			continue
		}

		columnTypes, err := migrator.ColumnTypes(name)
		if err != nil {
			return nil, errors.Wrapf(err, "reflect columns of %q failed", name)
		}

		columns := make([]*Column, 0, len(columnTypes))
		for _, ct := range columnTypes {
			column := &Column{
				Name: ct.Name(),
				Type: ct.DatabaseTypeName(),
			}
			if nullable, ok := ct.Nullable(); ok {
				column.Nullable = nullable
			}
			if pk, ok := ct.PrimaryKey(); ok {
				column.PrimaryKey = pk
			}
			columns = append(columns, column)
		}

		tables = append(tables, NewTable(name, columns...))
	}

	return NewSchema(tables...), nil
}
