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
	"errors"
	"fmt"
	"github.com/ktb3/community-go/lib/authz"
	"log/slog"
)

// Service runs the login, refresh, logout and password change flows.
type Service struct {
	issuer   *Issuer
	codec    *authz.Codec
	members  Members
	creds    Credentials
	images   ProfileImages
	notifier Notifier
	metrics  *Metrics
}

func NewService(
	codec *authz.Codec,
	issuer *Issuer,
	members Members,
	creds Credentials,
	images ProfileImages,
) *Service {
	return &Service{
		issuer:   issuer,
		codec:    codec,
		members:  members,
		creds:    creds,
		images:   images,
		notifier: noopNotifier{},
	}
}

func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) WithMetrics(m *Metrics) *Service {
	s.metrics = m
	return s
}

// noMember is an id no member ever has.
const noMember authz.MemberID = 0

// LoginResult is a member's profile along with a fresh token pair.
type LoginResult struct {
	Member          Member
	ProfileImageURL string
	Tokens          Tokens
}

// Login checks a member's email and password and starts a session. An
// unknown email and a wrong password fail in exactly the same way.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	member, found, err := s.members.FindLiveMemberByEmail(ctx, email)
	if err != nil {
		s.metrics.login(resultError)
		return LoginResult{}, fmt.Errorf("[FindLiveMemberByEmail]: %w", err)
	}
	if !found {
		// spend the same time as a wrong password would
		_, _ = s.creds.Verify(ctx, noMember, password)
		s.metrics.login(resultDenied)
		return LoginResult{}, badCredentials(errors.New("login attempt for nonexistent or withdrawn member"))
	}
	matched, err := s.creds.Verify(ctx, member.ID, password)
	if err != nil {
		s.metrics.login(resultError)
		return LoginResult{}, fmt.Errorf("[Verify]: %w", err)
	}
	if !matched {
		s.metrics.login(resultDenied)
		return LoginResult{}, badCredentials(fmt.Errorf("bad password for member %v", member.ID))
	}

	tokens, err := s.issuer.CreateTokens(ctx, member.ID)
	if err != nil {
		s.metrics.login(resultError)
		return LoginResult{}, fmt.Errorf("[CreateTokens]: %w", err)
	}
	s.metrics.login(resultOK)
	s.notify(ctx, EventIssued, member.ID)
	slog.Info("Member logged in", "member", member.ID)

	return LoginResult{
		Member:          member,
		ProfileImageURL: s.profileImageURL(ctx, member.ID),
		Tokens:          tokens,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair. Presenting a
// refresh token that has already been exchanged fails with ErrReplaySuspected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	if refreshToken == "" {
		s.metrics.refresh(resultDenied)
		return LoginResult{}, NewError(ErrUnauthenticated, "No refresh token was provided", nil)
	}
	record, err := s.issuer.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		s.metrics.refresh(outcome(err))
		return LoginResult{}, fmt.Errorf("[ValidateRefreshToken]: %w", err)
	}
	member, found, err := s.members.FindLiveMember(ctx, record.MemberID)
	if err != nil {
		s.metrics.refresh(resultError)
		return LoginResult{}, fmt.Errorf("[FindLiveMember]: %w", err)
	}
	if !found {
		s.metrics.refresh(resultDenied)
		return LoginResult{}, NewError(ErrNotFound, "Member not found",
			fmt.Errorf("refresh for nonexistent or withdrawn member %v", record.MemberID))
	}
	tokens, err := s.issuer.RotateTokens(ctx, record, refreshToken, member.ID)
	if err != nil {
		if errors.Is(err, ErrReplaySuspected) {
			slog.Warn("Refresh token replay suspected", "member", member.ID)
		}
		s.metrics.refresh(outcome(err))
		return LoginResult{}, fmt.Errorf("[RotateTokens]: %w", err)
	}
	s.metrics.refresh(resultOK)
	s.notify(ctx, EventRotated, member.ID)

	return LoginResult{
		Member:          member,
		ProfileImageURL: s.profileImageURL(ctx, member.ID),
		Tokens:          tokens,
	}, nil
}

// Logout ends the session of whichever member the presented tokens name.
// The refresh token is preferred, then the access token. Missing, expired
// or otherwise invalid tokens make this a no-op. Logout never fails.
func (s *Service) Logout(ctx context.Context, refreshToken, accessToken string) {
	id, ok := s.identify(refreshToken, authz.ClassRefresh)
	if !ok {
		id, ok = s.identify(accessToken, authz.ClassAccess)
	}
	if !ok {
		slog.Debug("Logout without a valid token")
		return
	}
	if s.revoke(ctx, id) {
		s.metrics.logout()
		slog.Info("Member logged out", "member", id)
	}
}

// Revoke ends the member's session, if they have one. Like Logout, it never
// fails: a store error is logged and the record is left to expire.
func (s *Service) Revoke(ctx context.Context, id authz.MemberID) {
	if s.revoke(ctx, id) {
		slog.Info("Revoked member session", "member", id)
	}
}

func (s *Service) revoke(ctx context.Context, id authz.MemberID) bool {
	if err := s.issuer.DeleteRefreshToken(ctx, id); err != nil {
		slog.Warn("Failed to delete refresh token", "member", id, "error", err)
		return false
	}
	s.notify(ctx, EventRevoked, id)
	return true
}

func (s *Service) identify(token string, class authz.TokenClass) (authz.MemberID, bool) {
	if token == "" {
		return 0, false
	}
	claims, err := s.codec.Validate(token, class)
	if err != nil {
		return 0, false
	}
	return claims.MemberID()
}

// ChangePassword replaces a member's password after checking the current
// one. Existing sessions are left alone: the member's refresh token keeps
// working after the change.
func (s *Service) ChangePassword(ctx context.Context, id authz.MemberID, current, next string) error {
	_, found, err := s.members.FindLiveMember(ctx, id)
	if err != nil {
		s.metrics.passwordChange(resultError)
		return fmt.Errorf("[FindLiveMember]: %w", err)
	}
	if !found {
		s.metrics.passwordChange(resultDenied)
		return NewError(ErrNotFound, "Member not found", fmt.Errorf("password change for nonexistent or withdrawn member %v", id))
	}
	matched, err := s.creds.Verify(ctx, id, current)
	if err != nil {
		s.metrics.passwordChange(resultError)
		return fmt.Errorf("[Verify]: %w", err)
	}
	if !matched {
		s.metrics.passwordChange(resultDenied)
		return NewError(ErrUnauthenticated, "Current password does not match",
			fmt.Errorf("bad current password for member %v", id))
	}
	// current is known to match the stored hash, so comparing plaintexts is
	// the same as checking next against the hash
	if next == current {
		s.metrics.passwordChange(resultDenied)
		return NewError(ErrConflict, "New password must differ from the current password", nil)
	}
	hash, err := s.creds.Encode(next)
	if err != nil {
		s.metrics.passwordChange(resultError)
		return fmt.Errorf("[Encode]: %w", err)
	}
	if err = s.creds.UpdatePassword(ctx, id, hash); err != nil {
		s.metrics.passwordChange(resultError)
		return fmt.Errorf("[UpdatePassword]: %w", err)
	}
	s.metrics.passwordChange(resultOK)
	slog.Info("Member changed password", "member", id)
	return nil
}

// profileImageURL is decoration only, so a lookup failure just leaves it empty.
func (s *Service) profileImageURL(ctx context.Context, id authz.MemberID) string {
	if s.images == nil {
		return ""
	}
	url, found, err := s.images.ProfileImageURL(ctx, id)
	if err != nil {
		slog.Warn("Failed to look up profile image", "member", id, "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return url
}

func (s *Service) notify(ctx context.Context, kind EventKind, id authz.MemberID) {
	s.notifier.SessionChanged(ctx, SessionEvent{Kind: kind, MemberID: id, At: s.codec.Now()})
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrReplaySuspected):
		return resultReplay
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrNotFound):
		return resultDenied
	default:
		return resultError
	}
}
