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

package directory_test

import (
	"context"
	"github.com/ktb3/community-go/directory"
	"github.com/ktb3/community-go/directory/directorytest"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestMemoryRepository(t *testing.T) {
	t.Parallel()
	directorytest.TestRepository(t, func(t *testing.T) directory.Repository {
		return directory.NewMemoryRepository()
	})
}

type fakeObjects struct {
	keys      map[string]bool
	forgotten map[string]bool
}

func newFakeObjects() fakeObjects {
	return fakeObjects{keys: map[string]bool{}, forgotten: map[string]bool{}}
}

func (f fakeObjects) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://objects.example/" + key + "?signed", nil
}

func (f fakeObjects) Exists(_ context.Context, key string) (bool, error) {
	return f.keys[key], nil
}

func (f fakeObjects) Forget(key string) {
	f.forgotten[key] = true
}

func newDirectory(objects directory.Objects) *directory.Directory {
	return directory.New(directory.NewMemoryRepository(), objects).WithDevPasswordHashing()
}

func signUp(t *testing.T, d *directory.Directory, email, nickname, password string) session.Member {
	t.Helper()
	m, err := d.SignUp(t.Context(), directory.SignUp{
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
		Nickname:        nickname,
	})
	require.NoError(t, err)
	return m
}

func TestSignUpAndVerify(t *testing.T) {
	t.Parallel()
	d := newDirectory(nil)
	ctx := t.Context()
	m := signUp(t, d, " Alice@Example.com ", "alice", "p1")
	assert.Equal(t, "alice@example.com", m.Email)

	found, ok, err := d.FindLiveMemberByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m.ID, found.ID)

	valid, err := d.Verify(ctx, m.ID, "p1")
	require.NoError(t, err)
	assert.True(t, valid)
	valid, err = d.Verify(ctx, m.ID, "p2")
	require.NoError(t, err)
	assert.False(t, valid)
	valid, err = d.Verify(ctx, 999, "p1")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestSignUp_rejections(t *testing.T) {
	t.Parallel()
	d := newDirectory(nil)
	ctx := t.Context()
	signUp(t, d, "a@x.com", "alice", "p1")

	_, err := d.SignUp(ctx, directory.SignUp{Email: "b@x.com", Nickname: "bob", Password: "p1", PasswordConfirm: "p2"})
	require.ErrorIs(t, err, session.ErrInvalidInput)
	_, err = d.SignUp(ctx, directory.SignUp{Email: "not-an-email", Nickname: "bob", Password: "p1", PasswordConfirm: "p1"})
	require.ErrorIs(t, err, session.ErrInvalidInput)
	_, err = d.SignUp(ctx, directory.SignUp{Email: "b@x.com", Nickname: " ", Password: "p1", PasswordConfirm: "p1"})
	require.ErrorIs(t, err, session.ErrInvalidInput)

	_, err = d.SignUp(ctx, directory.SignUp{Email: "A@x.com", Nickname: "bob", Password: "p1", PasswordConfirm: "p1"})
	require.ErrorIs(t, err, session.ErrConflict)
	_, err = d.SignUp(ctx, directory.SignUp{Email: "b@x.com", Nickname: "alice", Password: "p1", PasswordConfirm: "p1"})
	require.ErrorIs(t, err, session.ErrConflict)

	taken, err := d.EmailTaken(ctx, "a@X.com")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = d.NicknameTaken(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestEncodeThenUpdate(t *testing.T) {
	t.Parallel()
	d := newDirectory(nil)
	ctx := t.Context()
	m := signUp(t, d, "a@x.com", "alice", "p1")

	hash, err := d.Encode("p2")
	require.NoError(t, err)
	require.NoError(t, d.UpdatePassword(ctx, m.ID, hash))
	valid, err := d.Verify(ctx, m.ID, "p2")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestWithdraw(t *testing.T) {
	t.Parallel()
	d := newDirectory(nil)
	ctx := t.Context()
	m := signUp(t, d, "a@x.com", "alice", "p1")

	require.NoError(t, d.Withdraw(ctx, m.ID))
	_, found, err := d.FindLiveMember(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, found)
	require.ErrorIs(t, d.Withdraw(ctx, m.ID), session.ErrNotFound)
}

func TestProfileImage_withoutObjectStore(t *testing.T) {
	t.Parallel()
	d := newDirectory(nil)
	ctx := t.Context()
	m := signUp(t, d, "a@x.com", "alice", "p1")

	_, found, err := d.ProfileImageURL(ctx, m.ID)
	require.NoError(t, err)
	require.False(t, found)

	key := directory.ProfileImagePrefix(m.ID) + "me.png"
	require.NoError(t, d.SetProfileImage(ctx, m.ID, directory.ProfileImage{Key: key, FileName: "me.png", MimeType: "image/png"}))
	url, found, err := d.ProfileImageURL(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, key, url)
}

func TestProfileImage_withObjectStore(t *testing.T) {
	t.Parallel()
	objects := newFakeObjects()
	d := newDirectory(objects)
	ctx := t.Context()
	m := signUp(t, d, "a@x.com", "alice", "p1")
	key := directory.ProfileImagePrefix(m.ID) + "me.png"

	// not uploaded yet
	err := d.SetProfileImage(ctx, m.ID, directory.ProfileImage{Key: key})
	require.ErrorIs(t, err, session.ErrInvalidInput)

	objects.keys[key] = true
	require.NoError(t, d.SetProfileImage(ctx, m.ID, directory.ProfileImage{Key: key}))
	url, found, err := d.ProfileImageURL(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://objects.example/"+key+"?signed", url)

	// someone else's upload
	other := directory.ProfileImagePrefix(m.ID+1) + "x.png"
	objects.keys[other] = true
	err = d.SetProfileImage(ctx, m.ID, directory.ProfileImage{Key: other})
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestSetProfileImage_unknownMember(t *testing.T) {
	t.Parallel()
	d := newDirectory(nil)
	id := authz.MemberID(42)
	err := d.SetProfileImage(t.Context(), id, directory.ProfileImage{Key: directory.ProfileImagePrefix(id) + "x.png"})
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestProfileImage_forgetsReplacedKeys(t *testing.T) {
	t.Parallel()
	objects := newFakeObjects()
	d := newDirectory(objects)
	ctx := t.Context()
	m := signUp(t, d, "a@x.com", "alice", "p1")
	first := directory.ProfileImagePrefix(m.ID) + "1.png"
	second := directory.ProfileImagePrefix(m.ID) + "2.png"
	objects.keys[first] = true
	objects.keys[second] = true

	require.NoError(t, d.SetProfileImage(ctx, m.ID, directory.ProfileImage{Key: first}))
	assert.Empty(t, objects.forgotten)
	require.NoError(t, d.SetProfileImage(ctx, m.ID, directory.ProfileImage{Key: second}))
	assert.True(t, objects.forgotten[first])
	assert.False(t, objects.forgotten[second])

	require.NoError(t, d.Withdraw(ctx, m.ID))
	assert.True(t, objects.forgotten[second])
}

func TestDeleteProfileImage(t *testing.T) {
	t.Parallel()
	objects := newFakeObjects()
	d := newDirectory(objects)
	ctx := t.Context()
	m := signUp(t, d, "a@x.com", "alice", "p1")

	// nothing to delete is fine
	require.NoError(t, d.DeleteProfileImage(ctx, m.ID))

	key := directory.ProfileImagePrefix(m.ID) + "me.png"
	objects.keys[key] = true
	require.NoError(t, d.SetProfileImage(ctx, m.ID, directory.ProfileImage{Key: key}))
	require.NoError(t, d.DeleteProfileImage(ctx, m.ID))
	_, found, err := d.ProfileImageURL(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, objects.forgotten[key])

	require.ErrorIs(t, d.DeleteProfileImage(ctx, m.ID+1), session.ErrNotFound)
}

func TestUpdateMember(t *testing.T) {
	t.Parallel()
	objects := newFakeObjects()
	d := newDirectory(objects)
	ctx := t.Context()
	m := signUp(t, d, "a@x.com", "alice", "p1")
	signUp(t, d, "b@x.com", "bob", "p1")
	nickname := func(s string) *string { return &s }

	_, err := d.UpdateMember(ctx, m.ID, directory.MemberUpdate{})
	require.ErrorIs(t, err, session.ErrInvalidInput)

	for _, bad := range []string{"", "has space", "elevenchars"} {
		_, err = d.UpdateMember(ctx, m.ID, directory.MemberUpdate{Nickname: nickname(bad)})
		require.ErrorIsf(t, err, session.ErrInvalidInput, "%q", bad)
	}
	_, err = d.UpdateMember(ctx, m.ID, directory.MemberUpdate{Nickname: nickname("bob")})
	require.ErrorIs(t, err, session.ErrConflict)

	// keeping the current nickname is not a change
	updated, err := d.UpdateMember(ctx, m.ID, directory.MemberUpdate{Nickname: nickname("alice")})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Nickname)

	updated, err = d.UpdateMember(ctx, m.ID, directory.MemberUpdate{Nickname: nickname("앨리스")})
	require.NoError(t, err)
	assert.Equal(t, "앨리스", updated.Nickname)
	byEmail, _, err := d.FindLiveMemberByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "앨리스", byEmail.Nickname)

	key := directory.ProfileImagePrefix(m.ID) + "me.png"
	objects.keys[key] = true
	_, err = d.UpdateMember(ctx, m.ID, directory.MemberUpdate{Image: &directory.ProfileImage{Key: key}})
	require.NoError(t, err)
	_, hasImage, err := d.ProfileImageURL(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, hasImage)

	_, err = d.UpdateMember(ctx, m.ID, directory.MemberUpdate{
		Image:       &directory.ProfileImage{Key: key},
		DeleteImage: true,
	})
	require.NoError(t, err)
	_, hasImage, err = d.ProfileImageURL(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, hasImage)

	_, err = d.UpdateMember(ctx, m.ID+7, directory.MemberUpdate{DeleteImage: true})
	require.ErrorIs(t, err, session.ErrNotFound)
}
