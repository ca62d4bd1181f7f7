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
	"errors"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"time"
)

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.dir.images[aliceID] = "https://img.example/alice.png"
	ctx := t.Context()

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	assert.Equal(t, aliceID, res.Member.ID)
	assert.Equal(t, "alice", res.Member.Nickname)
	assert.Equal(t, "https://img.example/alice.png", res.ProfileImageURL)

	claims, err := f.codec.Validate(res.Tokens.Access.Token, authz.ClassAccess)
	require.NoError(t, err)
	id, _ := claims.MemberID()
	assert.Equal(t, aliceID, id)

	r, found, err := f.store.Get(ctx, aliceID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, res.Tokens.Refresh.Token, r.Token)
	assert.Equal(t, []session.EventKind{session.EventIssued}, f.notifier.kinds())
}

func TestLogin_failuresLookTheSame(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	_, wrongPassword := f.svc.Login(ctx, aliceEmail, "not p1")
	_, unknownEmail := f.svc.Login(ctx, "nobody@x.com", alicePassword)
	f.dir.withdraw(aliceID)
	_, withdrawn := f.svc.Login(ctx, aliceEmail, alicePassword)

	for _, err := range []error{wrongPassword, unknownEmail, withdrawn} {
		require.ErrorIs(t, err, session.ErrUnauthenticated)
		var sErr *session.Error
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, "Invalid email or password", sErr.Message)
	}
	assert.Equal(t, 0, f.store.Len())
}

func TestRefresh_scenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	first, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	r1 := first.Tokens.Refresh.Token

	f.advance(time.Second)
	second, err := f.svc.Refresh(ctx, r1)
	require.NoError(t, err)
	r2 := second.Tokens.Refresh.Token
	require.NotEqual(t, r1, r2)
	require.NotEqual(t, first.Tokens.Access.Token, second.Tokens.Access.Token)
	assert.Equal(t, aliceID, second.Member.ID)

	_, err = f.svc.Refresh(ctx, r1)
	require.ErrorIs(t, err, session.ErrReplaySuspected)

	third, err := f.svc.Refresh(ctx, r2)
	require.NoError(t, err)
	require.NotEqual(t, r2, third.Tokens.Refresh.Token)

	assert.Equal(t,
		[]session.EventKind{session.EventIssued, session.EventRotated, session.EventRotated},
		f.notifier.kinds(),
	)
}

func TestRefresh_rejections(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.Refresh(ctx, "")
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	_, err = f.svc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	// an access token isn't a refresh token
	_, err = f.svc.Refresh(ctx, res.Tokens.Access.Token)
	require.ErrorIs(t, err, session.ErrUnauthenticated)
	require.ErrorIs(t, err, authz.ErrWrongClass)

	f.dir.withdraw(aliceID)
	_, err = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestRefresh_expired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	f.advance(14*24*time.Hour + time.Second)
	_, err = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	require.ErrorIs(t, err, session.ErrUnauthenticated)
	require.ErrorIs(t, err, authz.ErrExpired)
}

func TestRefresh_concurrent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()
	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	errs := make(chan error, 2)
	start := make(chan struct{})
	for range 2 {
		go func() {
			<-start
			_, err := f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
			errs <- err
		}()
	}
	close(start)
	var succeeded, replayed int
	for range 2 {
		err := <-errs
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, session.ErrReplaySuspected):
			replayed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, replayed)
}

// Only one refresh token is kept per member, so logging in again (say, on a
// second device) retires the first session's refresh token.
func TestSingleActiveSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	laptop, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	phone, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	require.Equal(t, 1, f.store.Len())

	_, err = f.svc.Refresh(ctx, laptop.Tokens.Refresh.Token)
	require.ErrorIs(t, err, session.ErrReplaySuspected)
	_, err = f.svc.Refresh(ctx, phone.Tokens.Refresh.Token)
	require.NoError(t, err)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	// no tokens at all
	f.svc.Logout(ctx, "", "")
	require.Equal(t, 1, f.store.Len())

	// junk tokens
	f.svc.Logout(ctx, "junk", "more junk")
	require.Equal(t, 1, f.store.Len())

	f.svc.Logout(ctx, res.Tokens.Refresh.Token, "")
	require.Equal(t, 0, f.store.Len())

	_, err = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	// again, now with nothing stored
	f.svc.Logout(ctx, res.Tokens.Refresh.Token, "")
	assert.Equal(t,
		[]session.EventKind{session.EventIssued, session.EventRevoked, session.EventRevoked},
		f.notifier.kinds(),
	)
}

func TestLogout_accessTokenFallback(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	f.svc.Logout(ctx, "", res.Tokens.Access.Token)
	require.Equal(t, 0, f.store.Len())
}

func TestLogout_expiredIsNoOp(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	f.advance(15 * 24 * time.Hour)
	f.svc.Logout(ctx, res.Tokens.Refresh.Token, res.Tokens.Access.Token)
	require.Equal(t, 1, f.store.Len())
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, aliceID, alicePassword, alicePassword)
	require.ErrorIs(t, err, session.ErrConflict)

	err = f.svc.ChangePassword(ctx, aliceID, "wrong", "p2")
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	err = f.svc.ChangePassword(ctx, 999, alicePassword, "p2")
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, f.svc.ChangePassword(ctx, aliceID, alicePassword, "p2"))

	_, err = f.svc.Login(ctx, aliceEmail, alicePassword)
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	// Changing the password doesn't end the existing session.
	_, err = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, aliceEmail, "p2")
	require.NoError(t, err)
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()
	reg := prometheus.NewRegistry()
	f.svc.WithMetrics(session.NewMetrics(reg))

	_, _ = f.svc.Login(ctx, aliceEmail, "nope")
	_, _ = f.svc.Login(ctx, "who@x.com", "nope")
	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	require.NoError(t, err)
	_, _ = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	f.svc.Logout(ctx, "", res.Tokens.Access.Token)

	expected := `
# HELP community_session_logins_total Login attempts by result.
# TYPE community_session_logins_total counter
community_session_logins_total{result="denied"} 2
community_session_logins_total{result="ok"} 1
# HELP community_session_logouts_total Logouts that named a member with a valid token.
# TYPE community_session_logouts_total counter
community_session_logouts_total 1
# HELP community_session_refreshes_total Token refresh attempts by result.
# TYPE community_session_refreshes_total counter
community_session_refreshes_total{result="ok"} 1
community_session_refreshes_total{result="replay"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"community_session_logins_total",
		"community_session_logouts_total",
		"community_session_refreshes_total",
	))
}

func TestLogin_unknownEmailStillVerifies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.Login(ctx, "nobody@x.com", alicePassword)
	require.ErrorIs(t, err, session.ErrUnauthenticated)
	assert.Equal(t, 1, f.dir.verifyCount())

	_, err = f.svc.Login(ctx, aliceEmail, "not p1")
	require.ErrorIs(t, err, session.ErrUnauthenticated)
	assert.Equal(t, 2, f.dir.verifyCount())
}

func TestStoreFailuresAreNotBusinessErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	f.flaky.failPut.Store(true)
	_, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.ErrorIs(t, err, errStoreDown)
	var sErr *session.Error
	require.False(t, errors.As(err, &sErr))
	require.Equal(t, 0, f.store.Len())
	f.flaky.failPut.Store(false)

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	// a rotation that can't reach the store fails, and leaves the old token in place
	f.flaky.failSwap.Store(true)
	_, err = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	require.ErrorIs(t, err, errStoreDown)
	require.False(t, errors.As(err, &sErr))
	r, found, err := f.store.Get(ctx, aliceID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, res.Tokens.Refresh.Token, r.Token)

	f.flaky.failSwap.Store(false)
	_, err = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	require.NoError(t, err)
}

func TestLogout_storeFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	f.flaky.failDelete.Store(true)
	f.svc.Logout(ctx, res.Tokens.Refresh.Token, res.Tokens.Access.Token)
	f.svc.Revoke(ctx, aliceID)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, []session.EventKind{session.EventIssued}, f.notifier.kinds())
}

func TestRevoke(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	f.svc.Revoke(ctx, aliceID)
	require.Equal(t, 0, f.store.Len())
	_, err = f.svc.Refresh(ctx, res.Tokens.Refresh.Token)
	require.ErrorIs(t, err, session.ErrUnauthenticated)
	assert.Equal(t, []session.EventKind{session.EventIssued, session.EventRevoked}, f.notifier.kinds())
}
