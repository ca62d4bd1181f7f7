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
	"errors"
	"fmt"
	"github.com/go-sql-driver/mysql"
	"github.com/ktb3/community-go/directory"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/conv"
	"github.com/ktb3/community-go/lib/dbx"
	"github.com/ktb3/community-go/session"
	"github.com/ktb3/community-go/store/communitydb"
	"path"
	"time"
)

const duplicateEntryError = 1062

// Members is the MySQL directory.Repository, over the MEMBER, MEMBER_AUTH,
// and FILE tables.
type Members struct {
	dbq *DBQ
}

func NewMembers(dbq *DBQ) *Members {
	return &Members{dbq: dbq}
}

var _ directory.Repository = (*Members)(nil)

func (m *Members) CreateMember(ctx context.Context, nm directory.NewMember) (authz.MemberID, error) {
	var id int64
	err := dbx.WithTx(ctx, m.dbq.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		id, err = m.dbq.CreateMember(ctx, tx, communitydb.CreateMemberParams{
			Email:     nm.Email,
			Nickname:  nm.Nickname,
			CreatedAt: conv.TimeToFloat(nm.CreatedAt),
		})
		if err != nil {
			return fmt.Errorf("[CreateMember]: %w", err)
		}
		err = m.dbq.CreateMemberAuth(ctx, tx, communitydb.CreateMemberAuthParams{
			MemberID: id,
			Password: nm.PasswordHash,
		})
		if err != nil {
			return fmt.Errorf("[CreateMemberAuth]: %w", err)
		}
		return nil
	})
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryError {
		return 0, fmt.Errorf("%w: %w", directory.ErrDuplicate, err)
	}
	if err != nil {
		return 0, err
	}
	return authz.MemberID(id), nil
}

func toMember(row communitydb.Member) session.Member {
	return session.Member{
		ID:       authz.MemberID(row.ID),
		Email:    row.Email,
		Nickname: row.Nickname,
	}
}

func (m *Members) LiveMember(ctx context.Context, id authz.MemberID) (session.Member, bool, error) {
	row, err := m.dbq.LiveMember(ctx, m.dbq, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return session.Member{}, false, nil
	}
	if err != nil {
		return session.Member{}, false, fmt.Errorf("[LiveMember]: %w", err)
	}
	return toMember(row), true, nil
}

func (m *Members) LiveMemberByEmail(ctx context.Context, email string) (session.Member, bool, error) {
	row, err := m.dbq.LiveMemberByEmail(ctx, m.dbq, email)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Member{}, false, nil
	}
	if err != nil {
		return session.Member{}, false, fmt.Errorf("[LiveMemberByEmail]: %w", err)
	}
	return toMember(row), true, nil
}

func (m *Members) PasswordHash(ctx context.Context, id authz.MemberID) (string, bool, error) {
	hash, err := m.dbq.MemberPassword(ctx, m.dbq, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("[MemberPassword]: %w", err)
	}
	return hash, true, nil
}

func (m *Members) UpdatePasswordHash(ctx context.Context, id authz.MemberID, hash string) error {
	err := m.dbq.UpdateMemberPassword(ctx, m.dbq, communitydb.UpdateMemberPasswordParams{
		MemberID: int64(id),
		Password: hash,
	})
	if err != nil {
		return fmt.Errorf("[UpdateMemberPassword]: %w", err)
	}
	return nil
}

func (m *Members) EmailTaken(ctx context.Context, email string) (bool, error) {
	taken, err := m.dbq.EmailExists(ctx, m.dbq, email)
	if err != nil {
		return false, fmt.Errorf("[EmailExists]: %w", err)
	}
	return taken, nil
}

func (m *Members) NicknameTaken(ctx context.Context, nickname string) (bool, error) {
	taken, err := m.dbq.NicknameExists(ctx, m.dbq, nickname)
	if err != nil {
		return false, fmt.Errorf("[NicknameExists]: %w", err)
	}
	return taken, nil
}

func (m *Members) Withdraw(ctx context.Context, id authz.MemberID, at time.Time) (bool, error) {
	var withdrawn bool
	err := dbx.WithTx(ctx, m.dbq.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		affected, err := m.dbq.SoftDeleteMember(ctx, tx, communitydb.SoftDeleteMemberParams{
			ID:        int64(id),
			DeletedAt: conv.TimeToFloat(at),
		})
		if err != nil {
			return fmt.Errorf("[SoftDeleteMember]: %w", err)
		}
		if affected == 0 {
			return nil
		}
		withdrawn = true
		err = m.dbq.SoftDeleteProfileFiles(ctx, tx, communitydb.SoftDeleteProfileFilesParams{
			MemberID:  int64(id),
			DeletedAt: conv.TimeToFloat(at),
		})
		if err != nil {
			return fmt.Errorf("[SoftDeleteProfileFiles]: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return withdrawn, nil
}

// SetProfileImage retires the member's current profile image, if any, and
// records img in its place.
func (m *Members) SetProfileImage(ctx context.Context, id authz.MemberID, img directory.ProfileImage, at time.Time) error {
	return dbx.WithTx(ctx, m.dbq.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := m.dbq.SoftDeleteProfileFiles(ctx, tx, communitydb.SoftDeleteProfileFilesParams{
			MemberID:  int64(id),
			DeletedAt: conv.TimeToFloat(at),
		})
		if err != nil {
			return fmt.Errorf("[SoftDeleteProfileFiles]: %w", err)
		}
		_, err = m.dbq.CreateFile(ctx, tx, communitydb.CreateFileParams{
			MemberID:  sql.NullInt64{Int64: int64(id), Valid: true},
			Type:      communitydb.FileTypeProfile,
			FilePath:  img.Key,
			FileName:  fileName(img),
			FileSize:  img.FileSize,
			MimeType:  img.MimeType,
			CreatedAt: conv.TimeToFloat(at),
		})
		if err != nil {
			return fmt.Errorf("[CreateFile]: %w", err)
		}
		return nil
	})
}

func (m *Members) UpdateNickname(ctx context.Context, id authz.MemberID, nickname string) error {
	err := m.dbq.UpdateMemberNickname(ctx, m.dbq, communitydb.UpdateMemberNicknameParams{
		ID:       int64(id),
		Nickname: nickname,
	})
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryError {
		return fmt.Errorf("%w: %w", directory.ErrDuplicate, err)
	}
	if err != nil {
		return fmt.Errorf("[UpdateMemberNickname]: %w", err)
	}
	return nil
}

func (m *Members) DeleteProfileImage(ctx context.Context, id authz.MemberID, at time.Time) error {
	err := m.dbq.SoftDeleteProfileFiles(ctx, m.dbq, communitydb.SoftDeleteProfileFilesParams{
		MemberID:  int64(id),
		DeletedAt: conv.TimeToFloat(at),
	})
	if err != nil {
		return fmt.Errorf("[SoftDeleteProfileFiles]: %w", err)
	}
	return nil
}

func fileName(img directory.ProfileImage) string {
	if img.FileName != "" {
		return img.FileName
	}
	return path.Base(img.Key)
}

func (m *Members) ProfileImage(ctx context.Context, id authz.MemberID) (directory.ProfileImage, bool, error) {
	row, err := m.dbq.LiveProfileFile(ctx, m.dbq, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return directory.ProfileImage{}, false, nil
	}
	if err != nil {
		return directory.ProfileImage{}, false, fmt.Errorf("[LiveProfileFile]: %w", err)
	}
	return directory.ProfileImage{
		Key:      row.FilePath,
		FileName: row.FileName,
		FileSize: row.FileSize,
		MimeType: row.MimeType,
	}, true, nil
}
