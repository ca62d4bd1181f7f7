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
	"fmt"
	"github.com/ktb3/community-go/store/communitydb"
	"log/slog"
	"time"
)

// DBQ combines the SQL database and the Querier for the community datastore.
// Every query it runs is timed and logged at debug level.
type DBQ struct {
	*sql.DB
	q communitydb.Querier
}

func NewDBQ(sqlDB *sql.DB, querier communitydb.Querier) *DBQ {
	return &DBQ{
		DB: sqlDB,
		q:  querier,
	}
}

func logQuery(queryName string, start time.Time, err error) {
	durationMS := float64(time.Since(start).Microseconds()) / 1000.0
	slog.Debug("Ran community SQL: "+queryName,
		"duration", fmt.Sprintf("%.3fms", durationMS),
		"err", err,
	)
}

// Force DBQ to implement the communitydb.Querier interface.
var _ communitydb.Querier = (*DBQ)(nil)

func (l DBQ) SchemaVersion(ctx context.Context, db communitydb.DBTX) (int16, error) {
	start := time.Now()
	result, err := l.q.SchemaVersion(ctx, db)
	logQuery("SchemaVersion", start, err)
	return result, err
}

func (l DBQ) CreateMember(ctx context.Context, db communitydb.DBTX, arg communitydb.CreateMemberParams) (int64, error) {
	start := time.Now()
	result, err := l.q.CreateMember(ctx, db, arg)
	logQuery("CreateMember", start, err)
	return result, err
}

func (l DBQ) CreateMemberAuth(ctx context.Context, db communitydb.DBTX, arg communitydb.CreateMemberAuthParams) error {
	start := time.Now()
	err := l.q.CreateMemberAuth(ctx, db, arg)
	logQuery("CreateMemberAuth", start, err)
	return err
}

func (l DBQ) LiveMember(ctx context.Context, db communitydb.DBTX, id int64) (communitydb.Member, error) {
	start := time.Now()
	result, err := l.q.LiveMember(ctx, db, id)
	logQuery("LiveMember", start, err)
	return result, err
}

func (l DBQ) LiveMemberByEmail(ctx context.Context, db communitydb.DBTX, email string) (communitydb.Member, error) {
	start := time.Now()
	result, err := l.q.LiveMemberByEmail(ctx, db, email)
	logQuery("LiveMemberByEmail", start, err)
	return result, err
}

func (l DBQ) EmailExists(ctx context.Context, db communitydb.DBTX, email string) (bool, error) {
	start := time.Now()
	result, err := l.q.EmailExists(ctx, db, email)
	logQuery("EmailExists", start, err)
	return result, err
}

func (l DBQ) NicknameExists(ctx context.Context, db communitydb.DBTX, nickname string) (bool, error) {
	start := time.Now()
	result, err := l.q.NicknameExists(ctx, db, nickname)
	logQuery("NicknameExists", start, err)
	return result, err
}

func (l DBQ) MemberPassword(ctx context.Context, db communitydb.DBTX, memberID int64) (string, error) {
	start := time.Now()
	result, err := l.q.MemberPassword(ctx, db, memberID)
	logQuery("MemberPassword", start, err)
	return result, err
}

func (l DBQ) UpdateMemberPassword(ctx context.Context, db communitydb.DBTX, arg communitydb.UpdateMemberPasswordParams) error {
	start := time.Now()
	err := l.q.UpdateMemberPassword(ctx, db, arg)
	logQuery("UpdateMemberPassword", start, err)
	return err
}

func (l DBQ) UpdateMemberNickname(ctx context.Context, db communitydb.DBTX, arg communitydb.UpdateMemberNicknameParams) error {
	start := time.Now()
	err := l.q.UpdateMemberNickname(ctx, db, arg)
	logQuery("UpdateMemberNickname", start, err)
	return err
}

func (l DBQ) SoftDeleteMember(ctx context.Context, db communitydb.DBTX, arg communitydb.SoftDeleteMemberParams) (int64, error) {
	start := time.Now()
	result, err := l.q.SoftDeleteMember(ctx, db, arg)
	logQuery("SoftDeleteMember", start, err)
	return result, err
}

func (l DBQ) CreateFile(ctx context.Context, db communitydb.DBTX, arg communitydb.CreateFileParams) (int64, error) {
	start := time.Now()
	result, err := l.q.CreateFile(ctx, db, arg)
	logQuery("CreateFile", start, err)
	return result, err
}

func (l DBQ) LiveProfileFile(ctx context.Context, db communitydb.DBTX, memberID int64) (communitydb.File, error) {
	start := time.Now()
	result, err := l.q.LiveProfileFile(ctx, db, memberID)
	logQuery("LiveProfileFile", start, err)
	return result, err
}

func (l DBQ) SoftDeleteProfileFiles(ctx context.Context, db communitydb.DBTX, arg communitydb.SoftDeleteProfileFilesParams) error {
	start := time.Now()
	err := l.q.SoftDeleteProfileFiles(ctx, db, arg)
	logQuery("SoftDeleteProfileFiles", start, err)
	return err
}

func (l DBQ) RefreshToken(ctx context.Context, db communitydb.DBTX, memberID int64) (communitydb.RefreshToken, error) {
	start := time.Now()
	result, err := l.q.RefreshToken(ctx, db, memberID)
	logQuery("RefreshToken", start, err)
	return result, err
}

func (l DBQ) UpsertRefreshToken(ctx context.Context, db communitydb.DBTX, arg communitydb.UpsertRefreshTokenParams) error {
	start := time.Now()
	err := l.q.UpsertRefreshToken(ctx, db, arg)
	logQuery("UpsertRefreshToken", start, err)
	return err
}

func (l DBQ) SwapRefreshToken(ctx context.Context, db communitydb.DBTX, arg communitydb.SwapRefreshTokenParams) (int64, error) {
	start := time.Now()
	result, err := l.q.SwapRefreshToken(ctx, db, arg)
	logQuery("SwapRefreshToken", start, err)
	return result, err
}

func (l DBQ) DeleteRefreshToken(ctx context.Context, db communitydb.DBTX, memberID int64) error {
	start := time.Now()
	err := l.q.DeleteRefreshToken(ctx, db, memberID)
	logQuery("DeleteRefreshToken", start, err)
	return err
}
