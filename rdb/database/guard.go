package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/mit-kavli-institute/ticdb/log/logger"
)

var ErrDisconnected = errors.New("connection created by another process")

// GuardOptions 进程守卫选项
type GuardOptions struct {
	// Pid 返回当前进程号，默认 os.Getpid
	Pid func() int
	// OnDiscard 连接因进程号不一致被丢弃时回调
	OnDiscard func(created, current int)
	Logger    logger.Logger
}

// GuardedConnector 为每个连接记录创建时的进程号，复用时进程号不一致则丢弃连接
type GuardedConnector struct {
	connector driver.Connector
	pid       func() int
	onDiscard func(created, current int)
	logger    logger.Logger

	opened    atomic.Int64
	discarded atomic.Int64
}

func NewGuardedConnector(connector driver.Connector, options *GuardOptions) *GuardedConnector {
	if options == nil {
		options = &GuardOptions{}
	}
	c := &GuardedConnector{
		connector: connector,
		pid:       options.Pid,
		onDiscard: options.OnDiscard,
		logger:    options.Logger,
	}
	if c.pid == nil {
		c.pid = os.Getpid
	}
	if c.logger == nil {
		c.logger = logger.NewDiscard()
	}
	return c
}

// NewGuardedConnectorWithDriver 按驱动名和 DSN 创建守卫连接器
func NewGuardedConnectorWithDriver(driverName, dsn string, options *GuardOptions) (*GuardedConnector, error) {
	// sql.Open 不建立连接，只用于取得已注册的驱动
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open driver %q failed", driverName)
	}
	d := db.Driver()
	_ = db.Close()

	var connector driver.Connector
	if dc, ok := d.(driver.DriverContext); ok {
		connector, err = dc.OpenConnector(dsn)
		if err != nil {
			return nil, errors.Wrapf(err, "open connector of %q failed", driverName)
		}
	} else {
		connector = &dsnConnector{dsn: dsn, driver: d}
	}

	return NewGuardedConnector(connector, options), nil
}

// Opened 已创建的连接数
func (c *GuardedConnector) Opened() int64 {
	return c.opened.Load()
}

// Discarded 因跨进程被丢弃的连接数
func (c *GuardedConnector) Discarded() int64 {
	return c.discarded.Load()
}

func (c *GuardedConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	c.opened.Add(1)
	return &guardedConn{Conn: conn, pid: c.pid(), connector: c}, nil
}

func (c *GuardedConnector) Driver() driver.Driver {
	return c.connector.Driver()
}

func (c *GuardedConnector) check(ctx context.Context, created int) error {
	current := c.pid()
	if current == created {
		return nil
	}

	c.discarded.Add(1)
	c.logger.WarnContext(ctx, "discarding connection created by another process",
		"created", created, "current", current)
	if c.onDiscard != nil {
		c.onDiscard(created, current)
	}
	return fmt.Errorf("%w: %w: created by pid %d, current pid %d",
		ErrDisconnected, driver.ErrBadConn, created, current)
}

type dsnConnector struct {
	dsn    string
	driver driver.Driver
}

func (c *dsnConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *dsnConnector) Driver() driver.Driver {
	return c.driver
}

// guardedConn 转发底层连接的可选接口，底层未实现时返回 driver.ErrSkip
type guardedConn struct {
	driver.Conn
	pid       int
	connector *GuardedConnector
}

// ResetSession 连接从池中取出复用前调用
func (c *guardedConn) ResetSession(ctx context.Context) error {
	if err := c.connector.check(ctx, c.pid); err != nil {
		return err
	}
	if r, ok := c.Conn.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}

// IsValid 连接放回池中前调用
func (c *guardedConn) IsValid() bool {
	if c.connector.pid() != c.pid {
		return false
	}
	if v, ok := c.Conn.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}

func (c *guardedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if q, ok := c.Conn.(driver.QueryerContext); ok {
		return q.QueryContext(ctx, query, args)
	}
	return nil, driver.ErrSkip
}

func (c *guardedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if e, ok := c.Conn.(driver.ExecerContext); ok {
		return e.ExecContext(ctx, query, args)
	}
	return nil, driver.ErrSkip
}

func (c *guardedConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if p, ok := c.Conn.(driver.ConnPrepareContext); ok {
		return p.PrepareContext(ctx, query)
	}
	return c.Conn.Prepare(query)
}

func (c *guardedConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if b, ok := c.Conn.(driver.ConnBeginTx); ok {
		return b.BeginTx(ctx, opts)
	}
	return c.Conn.Begin()
}

func (c *guardedConn) Ping(ctx context.Context) error {
	if p, ok := c.Conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *guardedConn) CheckNamedValue(nv *driver.NamedValue) error {
	if n, ok := c.Conn.(driver.NamedValueChecker); ok {
		return n.CheckNamedValue(nv)
	}
	return driver.ErrSkip
}
