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
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"time"
)

var (
	// ErrInvalidToken is wrapped by every validation failure below.
	ErrInvalidToken = errors.New("invalid token")

	ErrMalformed         = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrSignatureMismatch = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrExpired           = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrWrongClass        = fmt.Errorf("%w: wrong token class", ErrInvalidToken)
)

const DefaultIssuer = "community"

// Codec issues and validates signed session tokens. It's safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{
		secret: []byte(secret),
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now is the Codec's clock reading.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Issued is a freshly signed token along with its expiry.
type Issued struct {
	Token     string
	Class     TokenClass
	ExpiresAt time.Time
}

// Issue signs a token of the given class for a member, valid for ttl.
// Every token carries a random ID, so two tokens issued for the same member
// in the same second still differ.
func (c *Codec) Issue(id MemberID, class TokenClass, ttl time.Duration) Issued {
	now := c.now()
	expiresAt := now.Add(ttl)
	token, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		SessionClaims{}.
			WithIssuedAt(now).
			WithExpiration(expiresAt).
			WithIssuer(c.issuer).
			WithSubject(id).
			WithID(uuid.NewString()).
			WithClass(class),
	).SignedString(c.secret)
	if err != nil {
		// HS256 signing only fails for a non-[]byte key
		panic(fmt.Sprintf("[SignedString]: %v", err))
	}
	return Issued{Token: token, Class: class, ExpiresAt: jwt.NewNumericDate(expiresAt).Time}
}

// Validate returns the claims of a token signed by this Codec, which hasn't
// expired and is of the wanted class. Any other token gets an error wrapping
// ErrMalformed, ErrSignatureMismatch, ErrExpired or ErrWrongClass.
func (c *Codec) Validate(token string, want TokenClass) (*SessionClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}
	claims := SessionClaims{}
	tok, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if tok == nil || !tok.Valid {
		return nil, fmt.Errorf("%w: token is invalid", ErrMalformed)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: no token ID", ErrMalformed)
	}
	if _, ok := claims.MemberID(); !ok {
		return nil, fmt.Errorf("%w: bad subject %q", ErrMalformed, claims.Subject)
	}
	switch claims.Class {
	case "":
		return nil, fmt.Errorf("%w: no token class", ErrMalformed)
	case want:
		return &claims, nil
	default:
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongClass, claims.Class, want)
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
