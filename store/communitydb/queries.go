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

package communitydb

import (
	"context"
	"database/sql"
)

const schemaVersion = `-- name: SchemaVersion :one
select VERSION from SCHEMA_INFO
`

func (q *Queries) SchemaVersion(ctx context.Context, db DBTX) (int16, error) {
	row := db.QueryRowContext(ctx, schemaVersion)
	var version int16
	err := row.Scan(&version)
	return version, err
}

const createMember = `-- name: CreateMember :execlastid
insert into MEMBER (EMAIL, NICKNAME, CREATED_AT)
values (?, ?, ?)
`

type CreateMemberParams struct {
	Email     string
	Nickname  string
	CreatedAt float64
}

func (q *Queries) CreateMember(ctx context.Context, db DBTX, arg CreateMemberParams) (int64, error) {
	result, err := db.ExecContext(ctx, createMember, arg.Email, arg.Nickname, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const createMemberAuth = `-- name: CreateMemberAuth :exec
insert into MEMBER_AUTH (MEMBER_ID, PASSWORD)
values (?, ?)
`

type CreateMemberAuthParams struct {
	MemberID int64
	Password string
}

func (q *Queries) CreateMemberAuth(ctx context.Context, db DBTX, arg CreateMemberAuthParams) error {
	_, err := db.ExecContext(ctx, createMemberAuth, arg.MemberID, arg.Password)
	return err
}

const liveMember = `-- name: LiveMember :one
select ID, EMAIL, NICKNAME, CREATED_AT, DELETED_AT
from MEMBER
where ID = ? and DELETED_AT is null
`

func (q *Queries) LiveMember(ctx context.Context, db DBTX, id int64) (Member, error) {
	row := db.QueryRowContext(ctx, liveMember, id)
	var m Member
	err := row.Scan(&m.ID, &m.Email, &m.Nickname, &m.CreatedAt, &m.DeletedAt)
	return m, err
}

const liveMemberByEmail = `-- name: LiveMemberByEmail :one
select ID, EMAIL, NICKNAME, CREATED_AT, DELETED_AT
from MEMBER
where EMAIL = ? and DELETED_AT is null
`

func (q *Queries) LiveMemberByEmail(ctx context.Context, db DBTX, email string) (Member, error) {
	row := db.QueryRowContext(ctx, liveMemberByEmail, email)
	var m Member
	err := row.Scan(&m.ID, &m.Email, &m.Nickname, &m.CreatedAt, &m.DeletedAt)
	return m, err
}

const emailExists = `-- name: EmailExists :one
select exists(select 1 from MEMBER where EMAIL = ?)
`

func (q *Queries) EmailExists(ctx context.Context, db DBTX, email string) (bool, error) {
	row := db.QueryRowContext(ctx, emailExists, email)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const nicknameExists = `-- name: NicknameExists :one
select exists(select 1 from MEMBER where NICKNAME = ?)
`

func (q *Queries) NicknameExists(ctx context.Context, db DBTX, nickname string) (bool, error) {
	row := db.QueryRowContext(ctx, nicknameExists, nickname)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const memberPassword = `-- name: MemberPassword :one
select PASSWORD from MEMBER_AUTH
where MEMBER_ID = ?
`

func (q *Queries) MemberPassword(ctx context.Context, db DBTX, memberID int64) (string, error) {
	row := db.QueryRowContext(ctx, memberPassword, memberID)
	var password string
	err := row.Scan(&password)
	return password, err
}

const updateMemberPassword = `-- name: UpdateMemberPassword :exec
update MEMBER_AUTH set PASSWORD = ?
where MEMBER_ID = ?
`

type UpdateMemberPasswordParams struct {
	MemberID int64
	Password string
}

func (q *Queries) UpdateMemberPassword(ctx context.Context, db DBTX, arg UpdateMemberPasswordParams) error {
	_, err := db.ExecContext(ctx, updateMemberPassword, arg.Password, arg.MemberID)
	return err
}

const updateMemberNickname = `-- name: UpdateMemberNickname :exec
update MEMBER set NICKNAME = ?
where ID = ? and DELETED_AT is null
`

type UpdateMemberNicknameParams struct {
	ID       int64
	Nickname string
}

func (q *Queries) UpdateMemberNickname(ctx context.Context, db DBTX, arg UpdateMemberNicknameParams) error {
	_, err := db.ExecContext(ctx, updateMemberNickname, arg.Nickname, arg.ID)
	return err
}

const softDeleteMember = `-- name: SoftDeleteMember :execrows
update MEMBER set DELETED_AT = ?
where ID = ? and DELETED_AT is null
`

type SoftDeleteMemberParams struct {
	ID        int64
	DeletedAt float64
}

func (q *Queries) SoftDeleteMember(ctx context.Context, db DBTX, arg SoftDeleteMemberParams) (int64, error) {
	result, err := db.ExecContext(ctx, softDeleteMember, arg.DeletedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createFile = `-- name: CreateFile :execlastid
insert into FILE (MEMBER_ID, TYPE, FILE_PATH, FILE_NAME, FILE_SIZE, MIME_TYPE, FILE_ORDER, CREATED_AT)
values (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateFileParams struct {
	MemberID  sql.NullInt64
	Type      FileType
	FilePath  string
	FileName  string
	FileSize  int64
	MimeType  string
	FileOrder int32
	CreatedAt float64
}

func (q *Queries) CreateFile(ctx context.Context, db DBTX, arg CreateFileParams) (int64, error) {
	result, err := db.ExecContext(ctx, createFile,
		arg.MemberID,
		arg.Type,
		arg.FilePath,
		arg.FileName,
		arg.FileSize,
		arg.MimeType,
		arg.FileOrder,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const liveProfileFile = `-- name: LiveProfileFile :one
select ID, MEMBER_ID, TYPE, FILE_PATH, FILE_NAME, FILE_SIZE, MIME_TYPE, FILE_ORDER, CREATED_AT, DELETED_AT
from FILE
where MEMBER_ID = ? and TYPE = 'profile' and DELETED_AT is null
order by ID desc
limit 1
`

func (q *Queries) LiveProfileFile(ctx context.Context, db DBTX, memberID int64) (File, error) {
	row := db.QueryRowContext(ctx, liveProfileFile, memberID)
	var f File
	err := row.Scan(
		&f.ID,
		&f.MemberID,
		&f.Type,
		&f.FilePath,
		&f.FileName,
		&f.FileSize,
		&f.MimeType,
		&f.FileOrder,
		&f.CreatedAt,
		&f.DeletedAt,
	)
	return f, err
}

const softDeleteProfileFiles = `-- name: SoftDeleteProfileFiles :exec
update FILE set DELETED_AT = ?
where MEMBER_ID = ? and TYPE = 'profile' and DELETED_AT is null
`

type SoftDeleteProfileFilesParams struct {
	MemberID  int64
	DeletedAt float64
}

func (q *Queries) SoftDeleteProfileFiles(ctx context.Context, db DBTX, arg SoftDeleteProfileFilesParams) error {
	_, err := db.ExecContext(ctx, softDeleteProfileFiles, arg.DeletedAt, arg.MemberID)
	return err
}

const refreshToken = `-- name: RefreshToken :one
select MEMBER_ID, TOKEN, EXPIRES_AT
from REFRESH_TOKEN
where MEMBER_ID = ?
`

func (q *Queries) RefreshToken(ctx context.Context, db DBTX, memberID int64) (RefreshToken, error) {
	row := db.QueryRowContext(ctx, refreshToken, memberID)
	var r RefreshToken
	err := row.Scan(&r.MemberID, &r.Token, &r.ExpiresAt)
	return r, err
}

const upsertRefreshToken = `-- name: UpsertRefreshToken :exec
insert into REFRESH_TOKEN (MEMBER_ID, TOKEN, EXPIRES_AT)
values (?, ?, ?)
on duplicate key update TOKEN = values(TOKEN), EXPIRES_AT = values(EXPIRES_AT)
`

type UpsertRefreshTokenParams struct {
	MemberID  int64
	Token     string
	ExpiresAt float64
}

func (q *Queries) UpsertRefreshToken(ctx context.Context, db DBTX, arg UpsertRefreshTokenParams) error {
	_, err := db.ExecContext(ctx, upsertRefreshToken, arg.MemberID, arg.Token, arg.ExpiresAt)
	return err
}

// The TOKEN condition makes this a compare-and-swap. Zero rows affected
// means some other writer got there first.
const swapRefreshToken = `-- name: SwapRefreshToken :execrows
update REFRESH_TOKEN set TOKEN = ?, EXPIRES_AT = ?
where MEMBER_ID = ? and TOKEN = ?
`

type SwapRefreshTokenParams struct {
	MemberID  int64
	Presented string
	Token     string
	ExpiresAt float64
}

func (q *Queries) SwapRefreshToken(ctx context.Context, db DBTX, arg SwapRefreshTokenParams) (int64, error) {
	result, err := db.ExecContext(ctx, swapRefreshToken, arg.Token, arg.ExpiresAt, arg.MemberID, arg.Presented)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRefreshToken = `-- name: DeleteRefreshToken :exec
delete from REFRESH_TOKEN
where MEMBER_ID = ?
`

func (q *Queries) DeleteRefreshToken(ctx context.Context, db DBTX, memberID int64) error {
	_, err := db.ExecContext(ctx, deleteRefreshToken, memberID)
	return err
}
