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

package redisstore_test

import (
	"github.com/alicebob/miniredis/v2"
	"github.com/ktb3/community-go/session"
	"github.com/ktb3/community-go/session/sessiontest"
	"github.com/ktb3/community-go/store/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newStore(t *testing.T) (*redisstore.RefreshTokens, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewRefreshTokens(client, "test:refresh:"), mr
}

func TestRefreshStore(t *testing.T) {
	t.Parallel()
	sessiontest.TestRefreshStore(t, func(t *testing.T) session.RefreshStore {
		s, _ := newStore(t)
		return s
	}, 1)
}

func TestKeysArePrefixed(t *testing.T) {
	t.Parallel()
	s, mr := newStore(t)
	require.NoError(t, s.Put(t.Context(), 42, "tok", time.Now().Add(time.Hour)))
	assert.Equal(t, []string{"test:refresh:42"}, mr.Keys())
	assert.Equal(t, "tok", mr.HGet("test:refresh:42", "token"))
}

func TestRecordsExpire(t *testing.T) {
	t.Parallel()
	s, mr := newStore(t)
	ctx := t.Context()
	require.NoError(t, s.Put(ctx, 42, "tok", time.Now().Add(time.Minute)))

	_, found, err := s.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)

	mr.FastForward(2 * time.Minute)
	_, found, err = s.Get(ctx, 42)
	require.NoError(t, err)
	require.False(t, found)
}

func TestSwapMovesExpiry(t *testing.T) {
	t.Parallel()
	s, mr := newStore(t)
	ctx := t.Context()
	require.NoError(t, s.Put(ctx, 42, "tok", time.Now().Add(time.Minute)))

	swapped, err := s.Swap(ctx, 42, "tok", "tok-2", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.True(t, swapped)

	mr.FastForward(2 * time.Minute)
	r, found, err := s.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tok-2", r.Token)
}

func TestRedisDown(t *testing.T) {
	t.Parallel()
	s, mr := newStore(t)
	mr.Close()
	_, _, err := s.Get(t.Context(), 42)
	require.Error(t, err)
	_, err = s.Swap(t.Context(), 42, "a", "b", time.Now().Add(time.Hour))
	require.Error(t, err)
}
