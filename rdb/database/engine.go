package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mit-kavli-institute/ticdb/rdb/query"
	"github.com/mit-kavli-institute/ticdb/rdb/schema"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Engine 一个逻辑数据库的连接池，查询走 database/sql，结构反射走 gorm
type Engine struct {
	db        *sql.DB
	gorm      *gorm.DB
	family    Family
	dialect   query.Dialect
	connector *GuardedConnector
	options   *Options
}

// NewEngineWithOptions 创建连接池并检查连通性
func NewEngineWithOptions(ctx context.Context, options *Options, guard *GuardOptions) (*Engine, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	family, err := options.Family()
	if err != nil {
		return nil, err
	}
	driverName, err := options.DriverName()
	if err != nil {
		return nil, err
	}
	dsn, err := options.DSN()
	if err != nil {
		return nil, err
	}

	connector, err := NewGuardedConnectorWithDriver(driverName, dsn, guard)
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(options.MaxConns)
	db.SetMaxIdleConns(options.MaxIdle)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "connect %s failed", options.RedactedURL())
	}

	gdb, err := gorm.Open(gormDialector(family, driverName, db), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "gorm open failed")
	}

	return &Engine{
		db:        db,
		gorm:      gdb,
		family:    family,
		dialect:   family.QueryDialect(),
		connector: connector,
		options:   options,
	}, nil
}

func gormDialector(family Family, driverName string, db *sql.DB) gorm.Dialector {
	switch family {
	case FamilyPostgres:
		return postgres.New(postgres.Config{DriverName: driverName, Conn: db})
	case FamilyMySQL:
		return mysql.New(mysql.Config{DriverName: driverName, Conn: db, SkipInitializeWithVersion: true})
	default:
		return &sqlite.Dialector{DriverName: driverName, Conn: db}
	}
}

// Reflect 反射表、列和主键
func (e *Engine) Reflect(ctx context.Context) (*schema.Schema, error) {
	return schema.NewGormReflector(e.gorm).Reflect(ctx)
}

func (e *Engine) Dialect() query.Dialect {
	return e.dialect
}

func (e *Engine) Family() Family {
	return e.family
}

func (e *Engine) Options() *Options {
	return e.options
}

func (e *Engine) Connector() *GuardedConnector {
	return e.connector
}

func (e *Engine) DB() *sql.DB {
	return e.db
}

// Sessions 绑定到此连接池的会话工厂
func (e *Engine) Sessions() *SessionFactory {
	return &SessionFactory{engine: e}
}

func (e *Engine) Close() error {
	return e.db.Close()
}
