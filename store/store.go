//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"github.com/ktb3/community-go/conf"
	"github.com/ktb3/community-go/lib/conv"
	"github.com/ktb3/community-go/lib/noopdb"
	"github.com/ktb3/community-go/store/fakedb"
	"log/slog"
	"net"
)

//go:embed schema/current.sql
var CurrentSchema string

//go:embed schema/*-from-*.sql
var Migrations embed.FS

// SqlDB opens the community database described by dbStoreCfg, optionally
// bringing its schema up to date.
func SqlDB(ctx context.Context, dbStoreCfg conf.DBStore, migrateDB bool) (*sql.DB, error) {
	var mariaCfg conf.DBStoreMaria
	var err error
	switch dbStoreCfg.Type {
	case conf.DBStoreTypeNoOp:
		// This is a DB that does nothing and returns nothing on querying.
		// It's really only useful as a stand-in for testing.
		slog.Info("Using NoOp DB")
		return sql.Open(noopdb.DriverName, "")
	case conf.DBStoreTypeFake:
		mariaCfg, err = startFakeDB(ctx, dbStoreCfg.Fake)
		if err != nil {
			return nil, fmt.Errorf("[startFakeDB]: %w", err)
		}
	case conf.DBStoreTypeMaria:
		fallthrough
	default:
		mariaCfg = dbStoreCfg.MariaDB
	}

	db, err := openDB(ctx, mariaCfg)
	if err != nil {
		return nil, fmt.Errorf("[openDB]: %w", err)
	}

	if migrateDB {
		err = MigrateDB(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("[MigrateDB]: %w", err)
		}
	} else {
		slog.Info("Community DB migration not requested")
	}

	slog.Info("Connected to community database")
	return db, nil
}

func openDB(ctx context.Context, mariaCfg conf.DBStoreMaria) (*sql.DB, error) {
	slog.Info("Setting up community DB connection")

	cfg := mysql.NewConfig()
	cfg.User = mariaCfg.Username
	cfg.Passwd = mariaCfg.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(mariaCfg.HostName, conv.FormatInt(mariaCfg.HostPort))
	cfg.DBName = mariaCfg.Database
	cfg.MultiStatements = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("[sql.Open]: %w", err)
	}
	// MariaDB starts refusing connections if the server hits it with
	// too many parallel requests.
	if mariaCfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(int(mariaCfg.MaxOpenConns))
	}
	pingErr := db.PingContext(ctx)
	if pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[db.PingContext]: %w", pingErr)
	}
	return db, nil
}

func startFakeDB(ctx context.Context, mariaCfg conf.DBStoreMaria) (conf.DBStoreMaria, error) {
	addr, err := fakedb.Start(ctx,
		mariaCfg.Database,
		net.JoinHostPort(mariaCfg.HostName, conv.FormatInt(mariaCfg.HostPort)),
		mariaCfg.Username, mariaCfg.Password,
	)
	if err != nil {
		return mariaCfg, fmt.Errorf("[fakedb.Start]: %w", err)
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return mariaCfg, fmt.Errorf("[SplitHostPort]: %w", err)
	}
	mariaCfg.HostName = host
	mariaCfg.HostPort, err = conv.ParseInt32(port)
	if err != nil {
		return mariaCfg, fmt.Errorf("[ParseInt32]: %w", err)
	}

	slog.Info("Started volatile fake DB", "addr", addr, "database", mariaCfg.Database)
	return mariaCfg, nil
}
