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

// Package memstore keeps refresh tokens in process memory. Everything is
// lost on restart, so it's for tests and local development.
package memstore

import (
	"context"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/session"
	"sync"
	"time"
)

type RefreshTokens struct {
	mu      sync.Mutex
	records map[authz.MemberID]session.RefreshRecord
}

func NewRefreshTokens() *RefreshTokens {
	return &RefreshTokens{
		records: make(map[authz.MemberID]session.RefreshRecord),
	}
}

var _ session.RefreshStore = (*RefreshTokens)(nil)

func (s *RefreshTokens) Put(_ context.Context, id authz.MemberID, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = session.RefreshRecord{MemberID: id, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (s *RefreshTokens) Get(_ context.Context, id authz.MemberID) (session.RefreshRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok, nil
}

func (s *RefreshTokens) Delete(_ context.Context, id authz.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *RefreshTokens) Swap(_ context.Context, id authz.MemberID, presented, next string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.Token != presented {
		return false, nil
	}
	s.records[id] = session.RefreshRecord{MemberID: id, Token: next, ExpiresAt: expiresAt}
	return true, nil
}

// Len is the number of stored records.
func (s *RefreshTokens) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
