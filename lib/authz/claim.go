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

package authz

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/ktb3/community-go/lib/conv"
	"time"
)

// MemberID identifies a member. It's carried as the JWT subject.
type MemberID int64

type TokenClass string

const (
	ClassAccess  TokenClass = "access"
	ClassRefresh TokenClass = "refresh"
)

type SessionClaims struct {
	jwt.RegisteredClaims
	Class TokenClass `json:"cls"`
}

func (c SessionClaims) WithExpiration(t time.Time) SessionClaims {
	c.ExpiresAt = jwt.NewNumericDate(t)
	return c
}

func (c SessionClaims) WithIssuedAt(t time.Time) SessionClaims {
	c.IssuedAt = jwt.NewNumericDate(t)
	return c
}

func (c SessionClaims) WithIssuer(s string) SessionClaims {
	c.Issuer = s
	return c
}

func (c SessionClaims) WithSubject(id MemberID) SessionClaims {
	c.Subject = conv.FormatInt(int64(id))
	return c
}

func (c SessionClaims) WithID(jti string) SessionClaims {
	c.ID = jti
	return c
}

func (c SessionClaims) WithClass(class TokenClass) SessionClaims {
	c.Class = class
	return c
}

// MemberID returns the subject as a MemberID. It returns false if the
// subject is missing or isn't a positive decimal integer.
func (c SessionClaims) MemberID() (MemberID, bool) {
	if c.Subject == "" {
		return 0, false
	}
	n, err := conv.ParseInt64(c.Subject)
	if err != nil || n <= 0 {
		return 0, false
	}
	return MemberID(n), true
}
