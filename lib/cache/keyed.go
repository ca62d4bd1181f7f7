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

package cache

import (
	"context"
	"sync"
	"time"
)

// Keyed is a set of InMemory caches, one per key, that share a ttl and a
// refresher. Each key refreshes on its own schedule.
type Keyed[K comparable, T any] struct {
	ttl       time.Duration
	refresher func(context.Context, K) (T, error)
	opts      []Option

	mu      sync.Mutex
	entries map[K]*InMemory[T]
	// sweepAt is the size at which the next new key first drops stale entries.
	sweepAt int
}

const minSweepAt = 64

func NewKeyed[K comparable, T any](
	ttl time.Duration,
	refresher func(context.Context, K) (T, error),
	opts ...Option,
) *Keyed[K, T] {
	return &Keyed[K, T]{
		ttl:       ttl,
		refresher: refresher,
		opts:      opts,
		entries:   make(map[K]*InMemory[T]),
		sweepAt:   minSweepAt,
	}
}

func (k *Keyed[K, T]) Get(ctx context.Context, key K) (*T, error) {
	return k.entry(key).Get(ctx)
}

// Forget drops the cached value for key, if there is one.
func (k *Keyed[K, T]) Forget(key K) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, key)
}

// Len is the number of keys currently held, fresh or stale.
func (k *Keyed[K, T]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func (k *Keyed[K, T]) entry(key K) *InMemory[T] {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		if len(k.entries) >= k.sweepAt {
			k.sweep()
		}
		e = New[T](k.ttl, func(ctx context.Context) (T, error) {
			return k.refresher(ctx, key)
		}, k.opts...)
		k.entries[key] = e
	}
	return e
}

// sweep drops every entry that holds no fresh value. Callers hold k.mu.
func (k *Keyed[K, T]) sweep() {
	for key, e := range k.entries {
		if !e.fresh(e.current.Load()) {
			delete(k.entries, key)
		}
	}
	k.sweepAt = max(minSweepAt, 2*len(k.entries))
}
