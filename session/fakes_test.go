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

package session_test

import (
	"context"
	"errors"
	"github.com/ktb3/community-go/lib/authn"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/session"
	"github.com/ktb3/community-go/store/memstore"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeDirectory is a member directory, credential store and profile image
// lookup all in one.
type fakeDirectory struct {
	mu        sync.Mutex
	verifies  int
	members   map[authz.MemberID]session.Member
	hashes    map[authz.MemberID]string
	withdrawn map[authz.MemberID]bool
	images    map[authz.MemberID]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		members:   make(map[authz.MemberID]session.Member),
		hashes:    make(map[authz.MemberID]string),
		withdrawn: make(map[authz.MemberID]bool),
		images:    make(map[authz.MemberID]string),
	}
}

func (d *fakeDirectory) add(id authz.MemberID, email, nickname, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[id] = session.Member{ID: id, Email: email, Nickname: nickname}
	d.hashes[id] = authn.NewSaltedArgon2idDevOnly(password)
}

func (d *fakeDirectory) withdraw(id authz.MemberID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.withdrawn[id] = true
}

func (d *fakeDirectory) FindLiveMemberByEmail(_ context.Context, email string) (session.Member, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, m := range d.members {
		if strings.EqualFold(m.Email, email) && !d.withdrawn[id] {
			return m, true, nil
		}
	}
	return session.Member{}, false, nil
}

func (d *fakeDirectory) FindLiveMember(_ context.Context, id authz.MemberID) (session.Member, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.members[id]
	if !ok || d.withdrawn[id] {
		return session.Member{}, false, nil
	}
	return m, true, nil
}

func (d *fakeDirectory) Verify(_ context.Context, id authz.MemberID, plaintext string) (bool, error) {
	d.mu.Lock()
	d.verifies++
	hash, ok := d.hashes[id]
	d.mu.Unlock()
	if !ok {
		return false, nil
	}
	return authn.Verify(plaintext, hash)
}

func (d *fakeDirectory) Encode(plaintext string) (string, error) {
	return authn.NewSaltedArgon2idDevOnly(plaintext), nil
}

func (d *fakeDirectory) UpdatePassword(_ context.Context, id authz.MemberID, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hashes[id] = hash
	return nil
}

func (d *fakeDirectory) ProfileImageURL(_ context.Context, id authz.MemberID) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	url, ok := d.images[id]
	return url, ok, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []session.SessionEvent
}

func (n *recordingNotifier) SessionChanged(_ context.Context, ev session.SessionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) kinds() []session.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []session.EventKind
	for _, ev := range n.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func (d *fakeDirectory) verifyCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.verifies
}

var errStoreDown = errors.New("store down")

// flakyStore fails whichever RefreshStore operations are switched on.
type flakyStore struct {
	session.RefreshStore
	failPut    atomic.Bool
	failSwap   atomic.Bool
	failDelete atomic.Bool
}

func (s *flakyStore) Put(ctx context.Context, id authz.MemberID, token string, expiresAt time.Time) error {
	if s.failPut.Load() {
		return errStoreDown
	}
	return s.RefreshStore.Put(ctx, id, token, expiresAt)
}

func (s *flakyStore) Swap(ctx context.Context, id authz.MemberID, presented, next string, expiresAt time.Time) (bool, error) {
	if s.failSwap.Load() {
		return false, errStoreDown
	}
	return s.RefreshStore.Swap(ctx, id, presented, next, expiresAt)
}

func (s *flakyStore) Delete(ctx context.Context, id authz.MemberID) error {
	if s.failDelete.Load() {
		return errStoreDown
	}
	return s.RefreshStore.Delete(ctx, id)
}

type fixture struct {
	svc      *session.Service
	issuer   *session.Issuer
	codec    *authz.Codec
	dir      *fakeDirectory
	store    *memstore.RefreshTokens
	notifier *recordingNotifier
	// flaky wraps store, and is what the issuer writes through
	flaky *flakyStore
	// now is the codec's clock
	now *time.Time
}

const (
	aliceID       authz.MemberID = 1
	aliceEmail                   = "a@x.com"
	alicePassword                = "p1"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Now()
	f := &fixture{
		dir:      newFakeDirectory(),
		store:    memstore.NewRefreshTokens(),
		notifier: &recordingNotifier{},
		now:      &now,
	}
	f.codec = authz.NewCodec("test-secret", authz.WithClock(func() time.Time { return *f.now }))
	f.flaky = &flakyStore{RefreshStore: f.store}
	f.issuer = session.NewIssuer(f.codec, f.flaky, 15*time.Minute, 14*24*time.Hour)
	f.svc = session.NewService(f.codec, f.issuer, f.dir, f.dir, f.dir).WithNotifier(f.notifier)
	f.dir.add(aliceID, aliceEmail, "alice", alicePassword)
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}
