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

package authz_test

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const secret = "some-secret"

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()
	now := time.Unix(1750000000, 0)
	codec := authz.NewCodec(secret, authz.WithClock(func() time.Time { return now }))

	issued := codec.Issue(12345, authz.ClassAccess, 15*time.Minute)
	require.Equal(t, authz.ClassAccess, issued.Class)
	require.Equal(t, now.Add(15*time.Minute), issued.ExpiresAt)

	claims, err := codec.Validate(issued.Token, authz.ClassAccess)
	require.NoError(t, err)
	id, ok := claims.MemberID()
	require.True(t, ok)
	require.Equal(t, authz.MemberID(12345), id)
	require.Equal(t, authz.DefaultIssuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)

	// same token, same clock, same verdict
	again, err := codec.Validate(issued.Token, authz.ClassAccess)
	require.NoError(t, err)
	require.Equal(t, claims, again)

	now = now.Add(15*time.Minute - time.Second)
	_, err = codec.Validate(issued.Token, authz.ClassAccess)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = codec.Validate(issued.Token, authz.ClassAccess)
	require.ErrorIs(t, err, authz.ErrExpired)
	require.ErrorIs(t, err, authz.ErrInvalidToken)
}

func TestIssue_uniqueWithinSameInstant(t *testing.T) {
	t.Parallel()
	now := time.Unix(1750000000, 0)
	codec := authz.NewCodec(secret, authz.WithClock(func() time.Time { return now }))
	a := codec.Issue(1, authz.ClassRefresh, time.Hour)
	b := codec.Issue(1, authz.ClassRefresh, time.Hour)
	require.NotEqual(t, a.Token, b.Token)
}

func TestValidate_signatureMismatch(t *testing.T) {
	t.Parallel()
	other := authz.NewCodec("some-other-secret").Issue(1, authz.ClassAccess, time.Hour)
	_, err := authz.NewCodec(secret).Validate(other.Token, authz.ClassAccess)
	require.ErrorIs(t, err, authz.ErrSignatureMismatch)

	// expired and forged reports the forgery
	past := time.Now().Add(-2 * time.Hour)
	expiredForged := authz.NewCodec("some-other-secret", authz.WithClock(func() time.Time { return past })).
		Issue(1, authz.ClassAccess, time.Hour)
	_, err = authz.NewCodec(secret).Validate(expiredForged.Token, authz.ClassAccess)
	require.ErrorIs(t, err, authz.ErrSignatureMismatch)
}

func TestValidate_disallowedAlgorithm(t *testing.T) {
	t.Parallel()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "1",
		"cls": "access",
		"jti": "x",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = authz.NewCodec(secret).Validate(tok, authz.ClassAccess)
	require.ErrorIs(t, err, authz.ErrSignatureMismatch)
}

func TestValidate_wrongClass(t *testing.T) {
	t.Parallel()
	codec := authz.NewCodec(secret)
	refresh := codec.Issue(7, authz.ClassRefresh, time.Hour)
	_, err := codec.Validate(refresh.Token, authz.ClassAccess)
	require.ErrorIs(t, err, authz.ErrWrongClass)

	access := codec.Issue(7, authz.ClassAccess, time.Hour)
	_, err = codec.Validate(access.Token, authz.ClassRefresh)
	require.ErrorIs(t, err, authz.ErrWrongClass)
}

func TestValidate_malformed(t *testing.T) {
	t.Parallel()
	codec := authz.NewCodec(secret)
	for _, tok := range []string{"", "abc", "a.b.c", "ey.ey.ey"} {
		_, err := codec.Validate(tok, authz.ClassAccess)
		require.ErrorIs(t, err, authz.ErrMalformed, "token %q", tok)
	}
}

func TestValidate_failsClosedOnClaims(t *testing.T) {
	t.Parallel()
	exp := time.Now().Add(time.Hour).Unix()
	testCases := map[string]jwt.MapClaims{
		"no class":      {"sub": "1", "jti": "x", "exp": exp},
		"class number":  {"sub": "1", "jti": "x", "exp": exp, "cls": 5},
		"no subject":    {"jti": "x", "exp": exp, "cls": "access"},
		"bad subject":   {"sub": "me", "jti": "x", "exp": exp, "cls": "access"},
		"subject type":  {"sub": 1, "jti": "x", "exp": exp, "cls": "access"},
		"no expiration": {"sub": "1", "jti": "x", "cls": "access"},
		"no token ID":   {"sub": "1", "exp": exp, "cls": "access"},
	}
	codec := authz.NewCodec(secret)
	for name, claims := range testCases {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = codec.Validate(tok, authz.ClassAccess)
		assert.ErrorIs(t, err, authz.ErrMalformed, name)
	}
}

func TestExtractFromCarrier(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	_, found := authz.ExtractFromCarrier(req, authz.ClassAccess)
	require.False(t, found)

	req.AddCookie(&http.Cookie{Name: authz.AccessTokenCookieName, Value: "abc"})
	tok, found := authz.ExtractFromCarrier(req, authz.ClassAccess)
	require.True(t, found)
	require.Equal(t, "abc", tok)

	_, found = authz.ExtractFromCarrier(req, authz.ClassRefresh)
	require.False(t, found)
}

func TestSetAndClearCarrier(t *testing.T) {
	t.Parallel()
	issued := authz.NewCodec(secret).Issue(3, authz.ClassRefresh, time.Hour)

	rec := httptest.NewRecorder()
	authz.SetCarrier(rec, issued)
	authz.ClearCarrier(rec, authz.ClassAccess)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	set := cookies[0]
	assert.Equal(t, authz.RefreshTokenCookieName, set.Name)
	assert.Equal(t, issued.Token, set.Value)
	assert.True(t, set.HttpOnly)
	assert.True(t, set.Secure)
	assert.Equal(t, http.SameSiteStrictMode, set.SameSite)
	assert.InDelta(t, 3600, set.MaxAge, 5)

	cleared := cookies[1]
	assert.Equal(t, authz.AccessTokenCookieName, cleared.Name)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}
