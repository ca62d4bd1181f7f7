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

// Package directory is the member directory: who exists, how they prove
// it, and what their profile image is.
package directory

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"github.com/ktb3/community-go/lib/authn"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/conv"
	"github.com/ktb3/community-go/session"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// ErrDuplicate is returned by a Repository when an email or nickname is
// already taken.
var ErrDuplicate = errors.New("duplicate member")

type NewMember struct {
	Email        string
	Nickname     string
	PasswordHash string
	CreatedAt    time.Time
}

type ProfileImage struct {
	Key      string
	FileName string
	FileSize int64
	MimeType string
}

// Repository persists members. Withdrawn members are invisible to every
// lookup, though their email and nickname stay taken.
type Repository interface {
	CreateMember(ctx context.Context, m NewMember) (authz.MemberID, error)
	LiveMember(ctx context.Context, id authz.MemberID) (session.Member, bool, error)
	LiveMemberByEmail(ctx context.Context, email string) (session.Member, bool, error)
	PasswordHash(ctx context.Context, id authz.MemberID) (string, bool, error)
	UpdatePasswordHash(ctx context.Context, id authz.MemberID, hash string) error
	EmailTaken(ctx context.Context, email string) (bool, error)
	NicknameTaken(ctx context.Context, nickname string) (bool, error)
	// Withdraw soft-deletes the member and their profile image. It returns
	// false if the member wasn't live.
	Withdraw(ctx context.Context, id authz.MemberID, at time.Time) (bool, error)
	// UpdateNickname returns ErrDuplicate if the nickname is taken.
	UpdateNickname(ctx context.Context, id authz.MemberID, nickname string) error
	SetProfileImage(ctx context.Context, id authz.MemberID, img ProfileImage, at time.Time) error
	DeleteProfileImage(ctx context.Context, id authz.MemberID, at time.Time) error
	ProfileImage(ctx context.Context, id authz.MemberID) (ProfileImage, bool, error)
}

// Objects is the object store the profile images live in.
type Objects interface {
	PresignDownload(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Forget drops anything held for key once it's no longer anyone's image.
	Forget(key string)
}

type Directory struct {
	repo    Repository
	objects Objects
	hash    func(password string) string
	now     func() time.Time
	// decoy is checked against when there's no real hash, so that unknown
	// members take as long to reject as known ones.
	decoy func() string
}

var (
	_ session.Members       = (*Directory)(nil)
	_ session.Credentials   = (*Directory)(nil)
	_ session.ProfileImages = (*Directory)(nil)
)

// New makes a Directory. objects may be nil, in which case profile images
// are served by their stored key and aren't checked for existence.
func New(repo Repository, objects Objects) *Directory {
	d := &Directory{
		repo:    repo,
		objects: objects,
		hash:    authn.NewSaltedArgon2id,
		now:     time.Now,
	}
	d.decoy = sync.OnceValue(func() string {
		return d.hash(rand.Text())
	})
	return d
}

// WithDevPasswordHashing makes new password hashes cheap to compute. Never
// use this outside of development and tests.
func (d *Directory) WithDevPasswordHashing() *Directory {
	d.hash = authn.NewSaltedArgon2idDevOnly
	return d
}

func (d *Directory) FindLiveMemberByEmail(ctx context.Context, email string) (session.Member, bool, error) {
	m, found, err := d.repo.LiveMemberByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return session.Member{}, false, fmt.Errorf("[LiveMemberByEmail]: %w", err)
	}
	return m, found, nil
}

func (d *Directory) FindLiveMember(ctx context.Context, id authz.MemberID) (session.Member, bool, error) {
	m, found, err := d.repo.LiveMember(ctx, id)
	if err != nil {
		return session.Member{}, false, fmt.Errorf("[LiveMember]: %w", err)
	}
	return m, found, nil
}

// Verify checks plaintext against the member's stored hash. An unknown id
// costs a full hash comparison too, and never matches.
func (d *Directory) Verify(ctx context.Context, id authz.MemberID, plaintext string) (bool, error) {
	stored, found, err := d.repo.PasswordHash(ctx, id)
	if err != nil {
		return false, fmt.Errorf("[PasswordHash]: %w", err)
	}
	if !found {
		_, _ = authn.Verify(plaintext, d.decoy())
		return false, nil
	}
	ok, err := authn.Verify(plaintext, stored)
	if err != nil {
		return false, fmt.Errorf("[authn.Verify]: %w", err)
	}
	return ok, nil
}

func (d *Directory) Encode(plaintext string) (string, error) {
	return d.hash(plaintext), nil
}

func (d *Directory) UpdatePassword(ctx context.Context, id authz.MemberID, hash string) error {
	if err := d.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return fmt.Errorf("[UpdatePasswordHash]: %w", err)
	}
	return nil
}

// ProfileImageURL is a presigned download URL when there's an object store,
// otherwise the stored key as-is.
func (d *Directory) ProfileImageURL(ctx context.Context, id authz.MemberID) (string, bool, error) {
	img, found, err := d.repo.ProfileImage(ctx, id)
	if err != nil {
		return "", false, fmt.Errorf("[ProfileImage]: %w", err)
	}
	if !found {
		return "", false, nil
	}
	if d.objects == nil {
		return img.Key, true, nil
	}
	url, err := d.objects.PresignDownload(ctx, img.Key)
	if err != nil {
		return "", false, fmt.Errorf("[PresignDownload]: %w", err)
	}
	return url, true, nil
}

type SignUp struct {
	Email           string
	Password        string
	PasswordConfirm string
	Nickname        string
}

func (d *Directory) SignUp(ctx context.Context, req SignUp) (session.Member, error) {
	email := normalizeEmail(req.Email)
	nickname := strings.TrimSpace(req.Nickname)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return session.Member{}, session.NewError(session.ErrInvalidInput, "A valid email is required", nil)
	case nickname == "":
		return session.Member{}, session.NewError(session.ErrInvalidInput, "A nickname is required", nil)
	case req.Password == "":
		return session.Member{}, session.NewError(session.ErrInvalidInput, "A password is required", nil)
	case req.Password != req.PasswordConfirm:
		return session.Member{}, session.NewError(session.ErrInvalidInput, "Password confirmation does not match", nil)
	}

	id, err := d.repo.CreateMember(ctx, NewMember{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: d.hash(req.Password),
		CreatedAt:    d.now(),
	})
	if errors.Is(err, ErrDuplicate) {
		return session.Member{}, session.NewError(session.ErrConflict, "Email or nickname is already in use", err)
	}
	if err != nil {
		return session.Member{}, fmt.Errorf("[CreateMember]: %w", err)
	}
	slog.Info("Created member", "member", id)
	return session.Member{ID: id, Email: email, Nickname: nickname}, nil
}

func (d *Directory) EmailTaken(ctx context.Context, email string) (bool, error) {
	taken, err := d.repo.EmailTaken(ctx, normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("[EmailTaken]: %w", err)
	}
	return taken, nil
}

func (d *Directory) NicknameTaken(ctx context.Context, nickname string) (bool, error) {
	taken, err := d.repo.NicknameTaken(ctx, strings.TrimSpace(nickname))
	if err != nil {
		return false, fmt.Errorf("[NicknameTaken]: %w", err)
	}
	return taken, nil
}

// Withdraw soft-deletes the member. It doesn't touch their session; the
// caller revokes it.
func (d *Directory) Withdraw(ctx context.Context, id authz.MemberID) error {
	img, hadImage, err := d.repo.ProfileImage(ctx, id)
	if err != nil {
		return fmt.Errorf("[ProfileImage]: %w", err)
	}
	withdrawn, err := d.repo.Withdraw(ctx, id, d.now())
	if err != nil {
		return fmt.Errorf("[Withdraw]: %w", err)
	}
	if !withdrawn {
		return session.NewError(session.ErrNotFound, "Member not found", fmt.Errorf("withdrawal of nonexistent or withdrawn member %v", id))
	}
	if hadImage {
		d.forget(img.Key)
	}
	slog.Info("Member withdrew", "member", id)
	return nil
}

// ProfileImagePrefix is where a member's profile image uploads must go.
func ProfileImagePrefix(id authz.MemberID) string {
	return "profile/" + conv.FormatInt(id) + "/"
}

func (d *Directory) SetProfileImage(ctx context.Context, id authz.MemberID, img ProfileImage) error {
	if !strings.HasPrefix(img.Key, ProfileImagePrefix(id)) {
		return session.NewError(session.ErrInvalidInput, "That key is not one of your profile image uploads", nil)
	}
	if _, found, err := d.FindLiveMember(ctx, id); err != nil {
		return err
	} else if !found {
		return session.NewError(session.ErrNotFound, "Member not found", nil)
	}
	if d.objects != nil {
		exists, err := d.objects.Exists(ctx, img.Key)
		if err != nil {
			return fmt.Errorf("[Exists]: %w", err)
		}
		if !exists {
			return session.NewError(session.ErrInvalidInput, "No uploaded file was found for that key", nil)
		}
	}
	old, hadImage, err := d.repo.ProfileImage(ctx, id)
	if err != nil {
		return fmt.Errorf("[ProfileImage]: %w", err)
	}
	if err := d.repo.SetProfileImage(ctx, id, img, d.now()); err != nil {
		return fmt.Errorf("[SetProfileImage]: %w", err)
	}
	if hadImage && old.Key != img.Key {
		d.forget(old.Key)
	}
	return nil
}

// DeleteProfileImage retires the member's profile image. Having none is fine.
func (d *Directory) DeleteProfileImage(ctx context.Context, id authz.MemberID) error {
	if _, found, err := d.FindLiveMember(ctx, id); err != nil {
		return err
	} else if !found {
		return session.NewError(session.ErrNotFound, "Member not found", nil)
	}
	img, hadImage, err := d.repo.ProfileImage(ctx, id)
	if err != nil {
		return fmt.Errorf("[ProfileImage]: %w", err)
	}
	if !hadImage {
		return nil
	}
	if err := d.repo.DeleteProfileImage(ctx, id, d.now()); err != nil {
		return fmt.Errorf("[DeleteProfileImage]: %w", err)
	}
	d.forget(img.Key)
	return nil
}

const maxNicknameLength = 10

func validNickname(nickname string) bool {
	n := utf8.RuneCountInString(nickname)
	return n >= 1 && n <= maxNicknameLength && !strings.ContainsFunc(nickname, unicode.IsSpace)
}

// MemberUpdate says what to change about a member. At least one change is
// required. DeleteImage wins over Image.
type MemberUpdate struct {
	Nickname    *string
	Image       *ProfileImage
	DeleteImage bool
}

func (d *Directory) UpdateMember(ctx context.Context, id authz.MemberID, upd MemberUpdate) (session.Member, error) {
	if upd.Nickname == nil && upd.Image == nil && !upd.DeleteImage {
		return session.Member{}, session.NewError(session.ErrInvalidInput, "There is nothing to change", nil)
	}
	member, found, err := d.FindLiveMember(ctx, id)
	if err != nil {
		return session.Member{}, err
	}
	if !found {
		return session.Member{}, session.NewError(session.ErrNotFound, "Member not found", nil)
	}
	if upd.Nickname != nil && *upd.Nickname != member.Nickname {
		nickname := *upd.Nickname
		if !validNickname(nickname) {
			return session.Member{}, session.NewError(session.ErrInvalidInput,
				"A nickname must be 1 to 10 characters with no spaces", nil)
		}
		err = d.repo.UpdateNickname(ctx, id, nickname)
		if errors.Is(err, ErrDuplicate) {
			return session.Member{}, session.NewError(session.ErrConflict, "That nickname is already in use", err)
		}
		if err != nil {
			return session.Member{}, fmt.Errorf("[UpdateNickname]: %w", err)
		}
		member.Nickname = nickname
	}
	switch {
	case upd.DeleteImage:
		err = d.DeleteProfileImage(ctx, id)
	case upd.Image != nil:
		err = d.SetProfileImage(ctx, id, *upd.Image)
	}
	if err != nil {
		return session.Member{}, err
	}
	return member, nil
}

// forget tells the object store a key is no longer anyone's profile image.
func (d *Directory) forget(key string) {
	if d.objects != nil {
		d.objects.Forget(key)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
