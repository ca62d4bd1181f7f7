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

// Package redisstore keeps refresh tokens in Redis, one hash per member.
// Redis drops each hash on its own once the token has expired.
package redisstore

import (
	"context"
	"fmt"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/conv"
	"github.com/ktb3/community-go/session"
	"github.com/redis/go-redis/v9"
	"time"
)

const (
	fieldToken   = "token"
	fieldExpires = "exp"
)

// KEYS[1] member key
// ARGV[1] presented token, ARGV[2] next token, ARGV[3] next expiry in unix ms
const swapScript = `
local current = redis.call("HGET", KEYS[1], "token")
if current ~= ARGV[1] then
  return 0
end
redis.call("HSET", KEYS[1], "token", ARGV[2], "exp", ARGV[3])
redis.call("PEXPIREAT", KEYS[1], ARGV[3])
return 1
`

var swapLua = redis.NewScript(swapScript)

type RefreshTokens struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRefreshTokens(client redis.UniversalClient, prefix string) *RefreshTokens {
	return &RefreshTokens{redis: client, prefix: prefix}
}

var _ session.RefreshStore = (*RefreshTokens)(nil)

func (s *RefreshTokens) key(id authz.MemberID) string {
	return s.prefix + conv.FormatInt(id)
}

func (s *RefreshTokens) Put(ctx context.Context, id authz.MemberID, token string, expiresAt time.Time) error {
	key := s.key(id)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldToken, token, fieldExpires, expiresAt.UnixMilli())
		pipe.PExpireAt(ctx, key, expiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("[TxPipelined]: %w", err)
	}
	return nil
}

func (s *RefreshTokens) Get(ctx context.Context, id authz.MemberID) (session.RefreshRecord, bool, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return session.RefreshRecord{}, false, fmt.Errorf("[HGetAll]: %w", err)
	}
	token, ok := fields[fieldToken]
	if !ok {
		return session.RefreshRecord{}, false, nil
	}
	expiresMS, err := conv.ParseInt64(fields[fieldExpires])
	if err != nil {
		return session.RefreshRecord{}, false, fmt.Errorf("[ParseInt64]: %w", err)
	}
	return session.RefreshRecord{
		MemberID:  id,
		Token:     token,
		ExpiresAt: time.UnixMilli(expiresMS),
	}, true, nil
}

func (s *RefreshTokens) Delete(ctx context.Context, id authz.MemberID) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("[Del]: %w", err)
	}
	return nil
}

func (s *RefreshTokens) Swap(ctx context.Context, id authz.MemberID, presented, next string, expiresAt time.Time) (bool, error) {
	swapped, err := swapLua.Run(ctx, s.redis,
		[]string{s.key(id)},
		presented, next, expiresAt.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("[swapLua]: %w", err)
	}
	return swapped == 1, nil
}
