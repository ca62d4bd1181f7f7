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
	"github.com/ktb3/community-go/lib/authz"
	"time"
)

// RefreshRecord is the one live refresh token a member may hold.
type RefreshRecord struct {
	MemberID  authz.MemberID
	Token     string
	ExpiresAt time.Time
}

// RefreshStore keeps at most one RefreshRecord per member. Every method is
// atomic for a given member.
type RefreshStore interface {
	// Put inserts or replaces the member's record.
	Put(ctx context.Context, id authz.MemberID, token string, expiresAt time.Time) error
	// Get returns false if the member has no record.
	Get(ctx context.Context, id authz.MemberID) (RefreshRecord, bool, error)
	// Delete succeeds whether or not a record exists.
	Delete(ctx context.Context, id authz.MemberID) error
	// Swap replaces the record with next only if the stored token still
	// equals presented. It returns false if it didn't.
	Swap(ctx context.Context, id authz.MemberID, presented, next string, expiresAt time.Time) (bool, error)
}

type Member struct {
	ID       authz.MemberID
	Email    string
	Nickname string
}

// Members looks up members that haven't been withdrawn.
type Members interface {
	FindLiveMemberByEmail(ctx context.Context, email string) (Member, bool, error)
	FindLiveMember(ctx context.Context, id authz.MemberID) (Member, bool, error)
}

type Credentials interface {
	// Verify reports whether plaintext is the member's password. For an id
	// with no stored password it must still do the work of a real
	// comparison before reporting false.
	Verify(ctx context.Context, id authz.MemberID, plaintext string) (bool, error)
	Encode(plaintext string) (string, error)
	UpdatePassword(ctx context.Context, id authz.MemberID, hash string) error
}

type ProfileImages interface {
	ProfileImageURL(ctx context.Context, id authz.MemberID) (string, bool, error)
}

type EventKind string

const (
	EventIssued  EventKind = "session.issued"
	EventRotated EventKind = "session.rotated"
	EventRevoked EventKind = "session.revoked"
)

type SessionEvent struct {
	Kind     EventKind      `json:"kind"`
	MemberID authz.MemberID `json:"memberId"`
	At       time.Time      `json:"at"`
}

// Notifier hears about session changes. It must not block.
type Notifier interface {
	SessionChanged(ctx context.Context, ev SessionEvent)
}

type noopNotifier struct{}

func (noopNotifier) SessionChanged(context.Context, SessionEvent) {}
