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

package integration_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"fmt"
	"github.com/ktb3/community-go/conf"
	"github.com/ktb3/community-go/lib/testctr"
	"github.com/ktb3/community-go/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"golang.org/x/sync/errgroup"
	"io"
	"slices"
	"testing"
)

//go:embed 01.sql
var schema01 string

// TestMigrateSameAsCurrentSchema checks that a database created at schema
// version 1 (01.sql in this dir, before refresh tokens were persisted)
// ends up identical to a fresh one once it has been walked through every
// NN-from-MM.sql migration. Both sides must have the same tables, each
// with the same "CREATE TABLE" SQL. A difference means a migration is
// missing.
func TestMigrateSameAsCurrentSchema(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("needs Docker")
	}
	ctx := t.Context()

	database := rand.Text()
	username := rand.Text()
	password := rand.Text()

	// Bring up two DB containers in parallel
	var db1, db2 *sql.DB
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		_, db1 = newUnmigratedDB(t, groupCtx, database, username, password)
		return nil
	})
	group.Go(func() error {
		_, db2 = newUnmigratedDB(t, groupCtx, database, username, password)
		return nil
	})
	require.NoError(t, group.Wait())
	defer shut(db1)
	defer shut(db2)

	// DB 1 starts with schema version 1, then gets migrated to the latest
	// DB 2 starts with no tables, then gets migrated to the latest

	// DB1: Load the version 1 schema
	err := runScript(ctx, db1, schema01)
	require.NoError(t, err)
	// DB1: Now migrate to current schema version
	err = store.MigrateDB(ctx, db1)
	require.NoError(t, err)

	// DB2: migrate straight up to current schema version
	err = store.MigrateDB(ctx, db2)
	require.NoError(t, err)
	// Run MigrateDB again, which is a no-op
	err = store.MigrateDB(ctx, db2)
	require.NoError(t, err)

	// The two databases should have the same set of tables
	var dbTables [2][]string

	for i, db := range []*sql.DB{db1, db2} {
		rows, err := db.QueryContext(ctx, `show tables`)
		require.NoError(t, err)
		for rows.Next() {
			var tableName string
			require.NoError(t, rows.Scan(&tableName))
			dbTables[i] = append(dbTables[i], tableName)
		}
		require.NoError(t, rows.Err())
		slices.Sort(dbTables[i])
		shut(rows)
	}
	require.Equal(t, dbTables[0], dbTables[1])

	// for each table, check that the two databases have the same
	// "CREATE TABLE" statement.
	for _, tableName := range dbTables[0] {
		row1 := db1.QueryRowContext(ctx, `show create table `+tableName)
		var scannedName string
		var createTable1 string
		require.NoError(t, row1.Scan(&scannedName, &createTable1))

		row2 := db2.QueryRowContext(ctx, `show create table `+tableName)
		var createTable2 string
		require.NoError(t, row2.Scan(&scannedName, &createTable2))

		assert.Equal(t, createTable1, createTable2)
	}
}

func newUnmigratedDB(t *testing.T, ctx context.Context, database, username, password string) (testcontainers.Container, *sql.DB) {
	t.Helper()

	ctr, cleanup, dbHostPort, err := testctr.MariaDBContainer(ctx, database, username, password)
	t.Cleanup(cleanup)
	require.NoError(t, err)

	db, err := store.SqlDB(ctx,
		conf.DBStore{
			Type: conf.DBStoreTypeMaria,
			MariaDB: conf.DBStoreMaria{
				HostName: "",
				HostPort: dbHostPort,
				Database: database,
				Username: username,
				Password: password,
			},
		},
		false,
	)
	require.NoError(t, err)
	return ctr, db
}

func runScript(ctx context.Context, db *sql.DB, script string) error {
	_, err := db.ExecContext(ctx, script)
	if err != nil {
		return fmt.Errorf("[ExecContext]: %w", err)
	}
	return nil
}

func shut(c io.Closer) {
	_ = c.Close()
}
