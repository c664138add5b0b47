package staticdata

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
)

// fakeSQLDriver accepts any statement and returns empty result sets. It
// exists so dialect plumbing can be exercised without a live server.
type fakeSQLDriver struct {
	execErr    error
	prepareErr error
}

func (d *fakeSQLDriver) Open(string) (driver.Conn, error) {
	return &fakeSQLConn{execErr: d.execErr, prepareErr: d.prepareErr}, nil
}

type fakeSQLConn struct {
	execErr    error
	prepareErr error
}

func (c *fakeSQLConn) Prepare(string) (driver.Stmt, error) {
	if c.prepareErr != nil {
		return nil, c.prepareErr
	}
	return &fakeSQLStmt{}, nil
}

func (c *fakeSQLConn) Close() error { return nil }

func (c *fakeSQLConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions unsupported")
}

func (c *fakeSQLConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	if c.execErr != nil {
		return nil, c.execErr
	}
	return driver.RowsAffected(1), nil
}

type fakeSQLStmt struct{}

func (*fakeSQLStmt) Close() error   { return nil }
func (*fakeSQLStmt) NumInput() int  { return -1 }
func (*fakeSQLStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}
func (*fakeSQLStmt) Query([]driver.Value) (driver.Rows, error) {
	return &fakeSQLRows{}, nil
}

type fakeSQLRows struct{}

func (*fakeSQLRows) Columns() []string        { return []string{"v", "ea"} }
func (*fakeSQLRows) Close() error             { return nil }
func (*fakeSQLRows) Next([]driver.Value) error { return io.EOF }

func init() {
	sql.Register("staticfake", &fakeSQLDriver{})
	sql.Register("staticfake_exec", &fakeSQLDriver{execErr: errors.New("exec boom")})
	sql.Register("staticfake_prepare", &fakeSQLDriver{prepareErr: errors.New("prepare boom")})
}
