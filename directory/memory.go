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

package directory

import (
	"context"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/session"
	"sync"
	"time"
)

// MemoryRepository is a Repository that lives in process memory, for tests.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  authz.MemberID
	members map[authz.MemberID]*memoryMember
}

type memoryMember struct {
	session.Member
	passwordHash string
	withdrawn    bool
	image        *ProfileImage
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:  1,
		members: make(map[authz.MemberID]*memoryMember),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) CreateMember(_ context.Context, m NewMember) (authz.MemberID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.Email == m.Email || existing.Nickname == m.Nickname {
			return 0, ErrDuplicate
		}
	}
	id := r.nextID
	r.nextID++
	r.members[id] = &memoryMember{
		Member:       session.Member{ID: id, Email: m.Email, Nickname: m.Nickname},
		passwordHash: m.PasswordHash,
	}
	return id, nil
}

func (r *MemoryRepository) live(id authz.MemberID) (*memoryMember, bool) {
	m, ok := r.members[id]
	if !ok || m.withdrawn {
		return nil, false
	}
	return m, true
}

func (r *MemoryRepository) LiveMember(_ context.Context, id authz.MemberID) (session.Member, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.live(id)
	if !ok {
		return session.Member{}, false, nil
	}
	return m.Member, true, nil
}

func (r *MemoryRepository) LiveMemberByEmail(_ context.Context, email string) (session.Member, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Email == email && !m.withdrawn {
			return m.Member, true, nil
		}
	}
	return session.Member{}, false, nil
}

func (r *MemoryRepository) PasswordHash(_ context.Context, id authz.MemberID) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return "", false, nil
	}
	return m.passwordHash, true, nil
}

func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, id authz.MemberID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		m.passwordHash = hash
	}
	return nil
}

func (r *MemoryRepository) EmailTaken(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) NicknameTaken(_ context.Context, nickname string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) Withdraw(_ context.Context, id authz.MemberID, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.live(id)
	if !ok {
		return false, nil
	}
	m.withdrawn = true
	m.image = nil
	return true, nil
}

func (r *MemoryRepository) SetProfileImage(_ context.Context, id authz.MemberID, img ProfileImage, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.live(id); ok {
		m.image = &img
	}
	return nil
}

func (r *MemoryRepository) UpdateNickname(_ context.Context, id authz.MemberID, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for otherID, other := range r.members {
		if otherID != id && other.Nickname == nickname {
			return ErrDuplicate
		}
	}
	if m, ok := r.live(id); ok {
		m.Nickname = nickname
	}
	return nil
}

func (r *MemoryRepository) DeleteProfileImage(_ context.Context, id authz.MemberID, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.live(id); ok {
		m.image = nil
	}
	return nil
}

func (r *MemoryRepository) ProfileImage(_ context.Context, id authz.MemberID) (ProfileImage, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.live(id)
	if !ok || m.image == nil {
		return ProfileImage{}, false, nil
	}
	return *m.image, true, nil
}
