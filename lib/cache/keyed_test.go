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

package cache_test

import (
	"context"
	"errors"
	"github.com/ktb3/community-go/lib/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyed(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	keyed := cache.NewKeyed[string, string](time.Hour, func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		return "value-of-" + key, nil
	})

	group, ctx := errgroup.WithContext(t.Context())
	for range 50 {
		group.Go(func() error {
			v, err := keyed.Get(ctx, "a")
			if err != nil {
				return err
			}
			if *v != "value-of-a" {
				return errors.New("wrong value " + *v)
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())
	assert.Equal(t, int64(1), calls.Load())

	v, err := keyed.Get(t.Context(), "b")
	require.NoError(t, err)
	assert.Equal(t, "value-of-b", *v)
	assert.Equal(t, int64(2), calls.Load())
	assert.Equal(t, 2, keyed.Len())

	keyed.Forget("a")
	assert.Equal(t, 1, keyed.Len())
	_, err = keyed.Get(t.Context(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestKeyed_errorsAreNotCached(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	keyed := cache.NewKeyed[int, int](time.Hour, func(ctx context.Context, key int) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("flaky")
		}
		return key * 2, nil
	})
	_, err := keyed.Get(t.Context(), 21)
	require.ErrorContains(t, err, "flaky")
	v, err := keyed.Get(t.Context(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42, *v)
}

func TestKeyed_dropsStaleKeys(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{}
	keyed := cache.NewKeyed[int, int](time.Minute, func(ctx context.Context, key int) (int, error) {
		return key, nil
	}, cache.WithClock(clock.Now))

	for i := range 64 {
		_, err := keyed.Get(t.Context(), i)
		require.NoError(t, err)
	}
	assert.Equal(t, 64, keyed.Len())

	// all 64 are fresh, so a new key only grows the set
	_, err := keyed.Get(t.Context(), 64)
	require.NoError(t, err)
	assert.Equal(t, 65, keyed.Len())

	clock.Advance(2 * time.Minute)
	for i := 65; i < 128; i++ {
		_, err = keyed.Get(t.Context(), i)
		require.NoError(t, err)
	}
	assert.Equal(t, 128, keyed.Len())
	// the next new key sweeps out the 65 expired ones
	_, err = keyed.Get(t.Context(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 64, keyed.Len())
}
