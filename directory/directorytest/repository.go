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

// Package directorytest has the behavior tests every directory.Repository
// must pass.
package directorytest

import (
	"crypto/rand"
	"github.com/ktb3/community-go/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

// TestRepository runs the Repository checks, each against its own
// repository from newRepo. Repositories may be shared, since every check
// makes up its own emails and nicknames.
func TestRepository(t *testing.T, newRepo func(t *testing.T) directory.Repository) {
	t.Helper()
	now := time.Unix(1_750_000_000, 0)

	newMember := func() directory.NewMember {
		name := rand.Text()
		return directory.NewMember{
			Email:        name + "@example.com",
			Nickname:     name,
			PasswordHash: "$argon2id$placeholder",
			CreatedAt:    now,
		}
	}

	t.Run("create and look up", func(t *testing.T) {
		repo, ctx := newRepo(t), t.Context()
		nm := newMember()
		id, err := repo.CreateMember(ctx, nm)
		require.NoError(t, err)
		require.Positive(t, id)

		m, found, err := repo.LiveMember(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, nm.Email, m.Email)
		assert.Equal(t, nm.Nickname, m.Nickname)

		m, found, err = repo.LiveMemberByEmail(ctx, nm.Email)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id, m.ID)

		hash, found, err := repo.PasswordHash(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, nm.PasswordHash, hash)

		_, found, err = repo.LiveMemberByEmail(ctx, "nobody-"+nm.Email)
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("duplicates", func(t *testing.T) {
		repo, ctx := newRepo(t), t.Context()
		first := newMember()
		_, err := repo.CreateMember(ctx, first)
		require.NoError(t, err)

		sameEmail := newMember()
		sameEmail.Email = first.Email
		_, err = repo.CreateMember(ctx, sameEmail)
		require.ErrorIs(t, err, directory.ErrDuplicate)

		sameNickname := newMember()
		sameNickname.Nickname = first.Nickname
		_, err = repo.CreateMember(ctx, sameNickname)
		require.ErrorIs(t, err, directory.ErrDuplicate)

		taken, err := repo.EmailTaken(ctx, first.Email)
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = repo.NicknameTaken(ctx, first.Nickname)
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = repo.NicknameTaken(ctx, "free-"+first.Nickname)
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("update password", func(t *testing.T) {
		repo, ctx := newRepo(t), t.Context()
		id, err := repo.CreateMember(ctx, newMember())
		require.NoError(t, err)
		require.NoError(t, repo.UpdatePasswordHash(ctx, id, "$argon2id$other"))
		hash, _, err := repo.PasswordHash(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$other", hash)
	})

	t.Run("profile image", func(t *testing.T) {
		repo, ctx := newRepo(t), t.Context()
		id, err := repo.CreateMember(ctx, newMember())
		require.NoError(t, err)

		_, found, err := repo.ProfileImage(ctx, id)
		require.NoError(t, err)
		require.False(t, found)

		first := directory.ProfileImage{Key: "profile/1/a.png", FileName: "a.png", FileSize: 10, MimeType: "image/png"}
		require.NoError(t, repo.SetProfileImage(ctx, id, first, now))
		second := directory.ProfileImage{Key: "profile/1/b.jpg", FileName: "b.jpg", FileSize: 20, MimeType: "image/jpeg"}
		require.NoError(t, repo.SetProfileImage(ctx, id, second, now.Add(time.Minute)))

		img, found, err := repo.ProfileImage(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, second, img)
	})

	t.Run("update nickname", func(t *testing.T) {
		repo, ctx := newRepo(t), t.Context()
		id, err := repo.CreateMember(ctx, newMember())
		require.NoError(t, err)
		other := newMember()
		_, err = repo.CreateMember(ctx, other)
		require.NoError(t, err)

		renamed := "r" + rand.Text()[:8]
		require.NoError(t, repo.UpdateNickname(ctx, id, renamed))
		m, _, err := repo.LiveMember(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, renamed, m.Nickname)

		err = repo.UpdateNickname(ctx, id, other.Nickname)
		require.ErrorIs(t, err, directory.ErrDuplicate)
	})

	t.Run("delete profile image", func(t *testing.T) {
		repo, ctx := newRepo(t), t.Context()
		id, err := repo.CreateMember(ctx, newMember())
		require.NoError(t, err)
		require.NoError(t, repo.DeleteProfileImage(ctx, id, now))

		require.NoError(t, repo.SetProfileImage(ctx, id, directory.ProfileImage{Key: "profile/d.png", FileName: "d.png", MimeType: "image/png"}, now))
		require.NoError(t, repo.DeleteProfileImage(ctx, id, now.Add(time.Minute)))
		_, found, err := repo.ProfileImage(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("withdraw", func(t *testing.T) {
		repo, ctx := newRepo(t), t.Context()
		nm := newMember()
		id, err := repo.CreateMember(ctx, nm)
		require.NoError(t, err)
		require.NoError(t, repo.SetProfileImage(ctx, id, directory.ProfileImage{Key: "profile/x.png", FileName: "x.png", MimeType: "image/png"}, now))

		withdrawn, err := repo.Withdraw(ctx, id, now)
		require.NoError(t, err)
		require.True(t, withdrawn)

		_, found, err := repo.LiveMember(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)
		_, found, err = repo.LiveMemberByEmail(ctx, nm.Email)
		require.NoError(t, err)
		assert.False(t, found)
		_, found, err = repo.ProfileImage(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)

		// a withdrawn member's email stays taken
		taken, err := repo.EmailTaken(ctx, nm.Email)
		require.NoError(t, err)
		assert.True(t, taken)

		withdrawn, err = repo.Withdraw(ctx, id, now)
		require.NoError(t, err)
		assert.False(t, withdrawn)
	})
}
