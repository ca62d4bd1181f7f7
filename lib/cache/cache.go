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
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for deciding whether a value is still fresh.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// InMemory holds one lazily refreshed value. Reads of a fresh value take no
// lock, and at most one refresh runs at a time.
type InMemory[T any] struct {
	current   atomic.Pointer[entry[T]]
	ttl       time.Duration
	refresher func(context.Context) (T, error)
	now       func() time.Time
	writeMu   sync.Mutex
}

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

// New creates a new InMemory cache. The ttl indicates how long a cached value is valid, and the refresher
// function is what fetches a new value for the cache when a refresh is needed.
func New[T any](
	ttl time.Duration,
	refresher func(context.Context) (T, error),
	opts ...Option,
) *InMemory[T] {
	return &InMemory[T]{
		ttl:       ttl,
		refresher: refresher,
		now:       buildOptions(opts).now,
	}
}

func (im *InMemory[T]) Get(ctx context.Context) (*T, error) {
	if e := im.current.Load(); im.fresh(e) {
		return &e.data, nil
	}
	im.writeMu.Lock()
	defer im.writeMu.Unlock()
	// another caller may have refreshed while we waited
	if e := im.current.Load(); im.fresh(e) {
		return &e.data, nil
	}
	val, err := im.refresher(ctx)
	if err != nil {
		return nil, fmt.Errorf("[refresher]: %w", err)
	}
	im.current.Store(&entry[T]{
		data:      val,
		expiresAt: im.now().Add(im.ttl),
	})
	return &val, nil
}

// Invalidate forces the next Get to refresh.
func (im *InMemory[T]) Invalidate() {
	im.writeMu.Lock()
	defer im.writeMu.Unlock()
	im.current.Store(nil)
}

func (im *InMemory[T]) fresh(e *entry[T]) bool {
	return e != nil && im.now().Before(e.expiresAt)
}
