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
	"database/sql"
	"fmt"
	"github.com/ktb3/community-go/conf"
	"github.com/ktb3/community-go/directory"
	"github.com/ktb3/community-go/directory/directorytest"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/session"
	"github.com/ktb3/community-go/session/sessiontest"
	"github.com/ktb3/community-go/store"
	"github.com/ktb3/community-go/store/communitydb"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestMigrateFakeDB(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	db, err := store.SqlDB(ctx,
		conf.DBStore{
			Type: conf.DBStoreTypeFake,
			Fake: conf.DefaultCommunity().Store.Fake,
		},
		true,
	)
	require.NoError(t, err)
	defer shut(db)

	r := db.QueryRowContext(ctx, "select VERSION from SCHEMA_INFO")
	var version int64
	require.NoError(t, r.Scan(&version))
	require.Equal(t, int64(2), version)
}

func TestRefreshTokensOnFakeDB(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	db, err := store.SqlDB(ctx,
		conf.DBStore{
			Type: conf.DBStoreTypeFake,
			Fake: conf.DefaultCommunity().Store.Fake,
		},
		true,
	)
	require.NoError(t, err)
	defer shut(db)
	// The fake server doesn't isolate concurrent writers the way InnoDB
	// does, so the swap races go through a single connection here.
	db.SetMaxOpenConns(1)

	const firstID = authz.MemberID(100)
	seedMembers(t, db, firstID, 10)

	refreshTokens := store.NewRefreshTokens(store.NewDBQ(db, communitydb.New()))
	sessiontest.TestRefreshStore(t, func(t *testing.T) session.RefreshStore {
		return refreshTokens
	}, firstID)
}

func TestMembersOnFakeDB(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	db, err := store.SqlDB(ctx,
		conf.DBStore{
			Type: conf.DBStoreTypeFake,
			Fake: conf.DefaultCommunity().Store.Fake,
		},
		true,
	)
	require.NoError(t, err)
	defer shut(db)

	members := store.NewMembers(store.NewDBQ(db, communitydb.New()))
	directorytest.TestRepository(t, func(t *testing.T) directory.Repository {
		return members
	})
}

func seedMembers(t *testing.T, db *sql.DB, firstID authz.MemberID, n int) {
	t.Helper()
	for i := range n {
		id := int64(firstID) + int64(i)
		_, err := db.ExecContext(t.Context(),
			"insert into MEMBER (ID, EMAIL, NICKNAME, CREATED_AT) values (?, ?, ?, ?)",
			id, fmt.Sprintf("member%d@example.com", id), fmt.Sprintf("member%d", id), 1.7e9,
		)
		require.NoError(t, err)
	}
}
