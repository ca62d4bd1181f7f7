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

package session

import (
	"context"
	"fmt"
	"github.com/ktb3/community-go/lib/authz"
	"time"
)

// Tokens is an access token and the refresh token that can replace it.
type Tokens struct {
	Access  authz.Issued
	Refresh authz.Issued
}

// Issuer creates and rotates a member's token pair, and keeps the
// RefreshStore in step with the refresh token it last handed out.
type Issuer struct {
	codec      *authz.Codec
	store      RefreshStore
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *authz.Codec, store RefreshStore, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (i *Issuer) issuePair(id authz.MemberID) Tokens {
	return Tokens{
		Access:  i.codec.Issue(id, authz.ClassAccess, i.accessTTL),
		Refresh: i.codec.Issue(id, authz.ClassRefresh, i.refreshTTL),
	}
}

// CreateTokens starts a new session for a member. Any session the member
// already had is replaced, since only one refresh token is kept per member.
func (i *Issuer) CreateTokens(ctx context.Context, id authz.MemberID) (Tokens, error) {
	tokens := i.issuePair(id)
	err := i.store.Put(ctx, id, tokens.Refresh.Token, tokens.Refresh.ExpiresAt)
	if err != nil {
		return Tokens{}, fmt.Errorf("[Put]: %w", err)
	}
	return tokens, nil
}

// RotateTokens exchanges a presented refresh token for a new pair. The
// record is what ValidateRefreshToken found in the store. If the stored
// token isn't the one presented, or another rotation replaced it first,
// the presented token is a replay and ErrReplaySuspected is returned.
func (i *Issuer) RotateTokens(ctx context.Context, record RefreshRecord, presented string, id authz.MemberID) (Tokens, error) {
	if record.MemberID != id || record.Token != presented {
		return Tokens{}, NewError(ErrReplaySuspected, "Refresh token is no longer valid",
			fmt.Errorf("presented refresh token for member %v doesn't match the stored one", id))
	}
	tokens := i.issuePair(id)
	swapped, err := i.store.Swap(ctx, id, presented, tokens.Refresh.Token, tokens.Refresh.ExpiresAt)
	if err != nil {
		return Tokens{}, fmt.Errorf("[Swap]: %w", err)
	}
	if !swapped {
		return Tokens{}, NewError(ErrReplaySuspected, "Refresh token is no longer valid",
			fmt.Errorf("refresh token for member %v was rotated or revoked concurrently", id))
	}
	return tokens, nil
}

// ValidateRefreshToken checks the token's signature, expiry and class, then
// returns the stored record for the member the token names.
func (i *Issuer) ValidateRefreshToken(ctx context.Context, token string) (RefreshRecord, error) {
	claims, err := i.codec.Validate(token, authz.ClassRefresh)
	if err != nil {
		return RefreshRecord{}, NewError(ErrUnauthenticated, "Invalid refresh token", fmt.Errorf("[Validate]: %w", err))
	}
	// Validate has already checked the subject
	id, _ := claims.MemberID()
	record, found, err := i.store.Get(ctx, id)
	if err != nil {
		return RefreshRecord{}, fmt.Errorf("[Get]: %w", err)
	}
	if !found || !record.ExpiresAt.After(i.codec.Now()) {
		return RefreshRecord{}, NewError(ErrUnauthenticated, "Invalid refresh token",
			fmt.Errorf("no live refresh token stored for member %v", id))
	}
	return record, nil
}

func (i *Issuer) DeleteRefreshToken(ctx context.Context, id authz.MemberID) error {
	if err := i.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("[Delete]: %w", err)
	}
	return nil
}
