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

// Package sessiontest has the behavior tests every session.RefreshStore
// must pass, so each backend runs the same checks.
package sessiontest

import (
	"context"
	"errors"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"sync/atomic"
	"testing"
	"time"
)

// TestRefreshStore runs the RefreshStore checks. Each check gets its own
// store from newStore, and uses member IDs starting at firstID.
func TestRefreshStore(t *testing.T, newStore func(t *testing.T) session.RefreshStore, firstID authz.MemberID) {
	t.Helper()
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("put then get", func(t *testing.T) {
		s, ctx, id := newStore(t), t.Context(), firstID
		_, found, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.False(t, found)

		require.NoError(t, s.Put(ctx, id, "token-1", expiry))
		r, found, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id, r.MemberID)
		assert.Equal(t, "token-1", r.Token)
		assert.True(t, expiry.Equal(r.ExpiresAt), "%v != %v", expiry, r.ExpiresAt)
	})

	t.Run("put replaces", func(t *testing.T) {
		s, ctx, id := newStore(t), t.Context(), firstID+1
		require.NoError(t, s.Put(ctx, id, "token-1", expiry))
		require.NoError(t, s.Put(ctx, id, "token-2", expiry))
		r, found, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "token-2", r.Token)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s, ctx, id := newStore(t), t.Context(), firstID+2
		require.NoError(t, s.Delete(ctx, id))
		require.NoError(t, s.Put(ctx, id, "token-1", expiry))
		require.NoError(t, s.Delete(ctx, id))
		require.NoError(t, s.Delete(ctx, id))
		_, found, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("members are independent", func(t *testing.T) {
		s, ctx, id := newStore(t), t.Context(), firstID+3
		require.NoError(t, s.Put(ctx, id, "a", expiry))
		require.NoError(t, s.Put(ctx, id+1, "b", expiry))
		require.NoError(t, s.Delete(ctx, id))
		r, found, err := s.Get(ctx, id+1)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "b", r.Token)
	})

	t.Run("swap", func(t *testing.T) {
		s, ctx, id := newStore(t), t.Context(), firstID+5
		swapped, err := s.Swap(ctx, id, "token-1", "token-2", expiry)
		require.NoError(t, err)
		require.False(t, swapped, "nothing stored yet")

		require.NoError(t, s.Put(ctx, id, "token-1", expiry))
		swapped, err = s.Swap(ctx, id, "wrong", "token-2", expiry)
		require.NoError(t, err)
		require.False(t, swapped)

		later := expiry.Add(time.Hour)
		swapped, err = s.Swap(ctx, id, "token-1", "token-2", later)
		require.NoError(t, err)
		require.True(t, swapped)
		r, _, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "token-2", r.Token)
		assert.True(t, later.Equal(r.ExpiresAt))

		swapped, err = s.Swap(ctx, id, "token-1", "token-3", expiry)
		require.NoError(t, err)
		require.False(t, swapped, "old token can't be swapped twice")
	})

	t.Run("concurrent swaps", func(t *testing.T) {
		s, ctx, id := newStore(t), t.Context(), firstID+6
		require.NoError(t, s.Put(ctx, id, "token-1", expiry))
		const racers = 8
		var wins atomic.Int32
		g := errgroup.Group{}
		for i := range racers {
			g.Go(func() error {
				swapped, err := s.Swap(ctx, id, "token-1", "next-"+string(rune('a'+i)), expiry)
				if swapped {
					wins.Add(1)
				}
				return err
			})
		}
		require.NoError(t, g.Wait())
		require.Equal(t, int32(1), wins.Load())
	})

	t.Run("concurrent rotations", func(t *testing.T) {
		s, ctx, id := newStore(t), t.Context(), firstID+7
		succeeded, replayed := RaceRotations(ctx, t, s, id)
		require.Equal(t, 1, succeeded)
		require.Equal(t, 1, replayed)
	})

	t.Run("rotation after delete", func(t *testing.T) {
		s, ctx, id := newStore(t), t.Context(), firstID+8
		issuer := session.NewIssuer(authz.NewCodec("secret"), s, time.Minute, time.Hour)
		tokens, err := issuer.CreateTokens(ctx, id)
		require.NoError(t, err)
		record, err := issuer.ValidateRefreshToken(ctx, tokens.Refresh.Token)
		require.NoError(t, err)

		require.NoError(t, issuer.DeleteRefreshToken(ctx, id))
		_, err = issuer.RotateTokens(ctx, record, tokens.Refresh.Token, id)
		require.ErrorIs(t, err, session.ErrReplaySuspected)
		_, err = issuer.ValidateRefreshToken(ctx, tokens.Refresh.Token)
		require.ErrorIs(t, err, session.ErrUnauthenticated)
	})
}

// RaceRotations logs a member in, then rotates the same refresh token from
// two goroutines at once. It returns how many rotations succeeded and how
// many were rejected as replays.
func RaceRotations(ctx context.Context, t *testing.T, s session.RefreshStore, id authz.MemberID) (succeeded, replayed int) {
	t.Helper()
	issuer := session.NewIssuer(authz.NewCodec("secret"), s, time.Minute, time.Hour)
	tokens, err := issuer.CreateTokens(ctx, id)
	require.NoError(t, err)
	record, err := issuer.ValidateRefreshToken(ctx, tokens.Refresh.Token)
	require.NoError(t, err)

	var ok, replay atomic.Int32
	start := make(chan struct{})
	g := errgroup.Group{}
	for range 2 {
		g.Go(func() error {
			<-start
			_, err := issuer.RotateTokens(ctx, record, tokens.Refresh.Token, id)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, session.ErrReplaySuspected):
				replay.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	close(start)
	require.NoError(t, g.Wait())
	return int(ok.Load()), int(replay.Load())
}
