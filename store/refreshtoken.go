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
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/conv"
	"github.com/ktb3/community-go/session"
	"github.com/ktb3/community-go/store/communitydb"
	"time"
)

// RefreshTokens keeps each member's refresh token in the REFRESH_TOKEN
// table, keyed by MEMBER_ID.
type RefreshTokens struct {
	dbq *DBQ
}

func NewRefreshTokens(dbq *DBQ) *RefreshTokens {
	return &RefreshTokens{dbq: dbq}
}

var _ session.RefreshStore = (*RefreshTokens)(nil)

func (r *RefreshTokens) Put(ctx context.Context, id authz.MemberID, token string, expiresAt time.Time) error {
	err := r.dbq.UpsertRefreshToken(ctx, r.dbq, communitydb.UpsertRefreshTokenParams{
		MemberID:  int64(id),
		Token:     token,
		ExpiresAt: conv.TimeToFloat(expiresAt),
	})
	if err != nil {
		return fmt.Errorf("[UpsertRefreshToken]: %w", err)
	}
	return nil
}

func (r *RefreshTokens) Get(ctx context.Context, id authz.MemberID) (session.RefreshRecord, bool, error) {
	row, err := r.dbq.RefreshToken(ctx, r.dbq, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return session.RefreshRecord{}, false, nil
	}
	if err != nil {
		return session.RefreshRecord{}, false, fmt.Errorf("[RefreshToken]: %w", err)
	}
	return session.RefreshRecord{
		MemberID:  authz.MemberID(row.MemberID),
		Token:     row.Token,
		ExpiresAt: conv.FloatToTime(row.ExpiresAt),
	}, true, nil
}

func (r *RefreshTokens) Delete(ctx context.Context, id authz.MemberID) error {
	if err := r.dbq.DeleteRefreshToken(ctx, r.dbq, int64(id)); err != nil {
		return fmt.Errorf("[DeleteRefreshToken]: %w", err)
	}
	return nil
}

func (r *RefreshTokens) Swap(ctx context.Context, id authz.MemberID, presented, next string, expiresAt time.Time) (bool, error) {
	affected, err := r.dbq.SwapRefreshToken(ctx, r.dbq, communitydb.SwapRefreshTokenParams{
		MemberID:  int64(id),
		Presented: presented,
		Token:     next,
		ExpiresAt: conv.TimeToFloat(expiresAt),
	})
	if err != nil {
		return false, fmt.Errorf("[SwapRefreshToken]: %w", err)
	}
	return affected == 1, nil
}
