// Package noopdb registers the "noop" database/sql driver. It accepts every
// statement with any number of arguments, keeps nothing, and answers every
// query with zero rows. A server running on it starts and serves, but no
// member can ever be found.
package noopdb

import (
	"database/sql"
	"database/sql/driver"
	"io"
)

const DriverName = "noop"

func init() {
	sql.Register(DriverName, Driver{})
}

type Driver struct{}

type Conn struct{}

type Stmt struct{}

type Result struct{}

type Rows struct{}

type Tx struct{}

func (Driver) Open(_ string) (driver.Conn, error) {
	return Conn{}, nil
}

func (Conn) Prepare(_ string) (driver.Stmt, error) {
	return Stmt{}, nil
}

func (Conn) Close() error {
	return nil
}

func (Conn) Begin() (driver.Tx, error) {
	return Tx{}, nil
}

func (Stmt) Close() error {
	return nil
}

// NumInput returns -1 so database/sql skips its argument count check.
func (Stmt) NumInput() int {
	return -1
}

func (Stmt) Exec(_ []driver.Value) (driver.Result, error) {
	return Result{}, nil
}

func (Stmt) Query(_ []driver.Value) (driver.Rows, error) {
	return Rows{}, nil
}

func (Result) LastInsertId() (int64, error) {
	return 0, nil
}

func (Result) RowsAffected() (int64, error) {
	return 0, nil
}

func (Rows) Columns() []string {
	return nil
}

func (Rows) Close() error {
	return nil
}

func (Rows) Next(_ []driver.Value) error {
	return io.EOF
}

func (Tx) Commit() error {
	return nil
}

func (Tx) Rollback() error {
	return nil
}
