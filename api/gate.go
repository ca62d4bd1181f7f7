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

package api

import (
	"context"
	"errors"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/herr"
	"log/slog"
	"net/http"
	"strings"
)

// Exemption names requests that the RequestGate lets through without an
// access token. An empty Method matches any method. If Prefix is set, the
// request path may also be anything under Path, i.e. Path followed by "/".
type Exemption struct {
	Method string
	Path   string
	Prefix bool
}

func (e Exemption) matches(method, path string) bool {
	if e.Method != "" && e.Method != method {
		return false
	}
	if e.Path == "" {
		return true
	}
	if path == e.Path {
		return true
	}
	return e.Prefix && strings.HasPrefix(path, strings.TrimSuffix(e.Path, "/")+"/")
}

// PublicRoutes are the requests anyone may make.
var PublicRoutes = []Exemption{
	// CORS pre-flight, for any path
	{Method: http.MethodOptions},
	{Path: "/favicon.ico"},
	{Method: http.MethodPost, Path: "/api/users"},
	{Method: http.MethodPost, Path: "/api/users/email"},
	{Method: http.MethodPost, Path: "/api/users/nickname"},
	{Method: http.MethodPost, Path: "/api/auth"},
	{Path: "/api/auth/refresh"},
	// Logout has to work with an expired access token
	{Method: http.MethodPost, Path: "/api/auth/logout"},
	{Path: "/api/terms", Prefix: true},
	{Path: "/api/privacy", Prefix: true},
	{Method: http.MethodGet, Path: "/api/ping"},
	{Method: http.MethodGet, Path: "/metrics"},
}

func exempt(exemptions []Exemption, method, path string) bool {
	for _, e := range exemptions {
		if e.matches(method, path) {
			return true
		}
	}
	return false
}

type ContextKey string

const IdentityContextKey ContextKey = "MemberID"

// IdentityFrom returns the member the RequestGate authenticated, if any.
func IdentityFrom(ctx context.Context) (authz.MemberID, bool) {
	id, ok := ctx.Value(IdentityContextKey).(authz.MemberID)
	return id, ok
}

// WithIdentity is what the RequestGate does to an authenticated request's
// context.
func WithIdentity(ctx context.Context, id authz.MemberID) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

const invalidAccessToken = "Invalid or missing access token"

// RequestGate lets exempt requests through untouched. Every other request
// needs a valid access token cookie, and goes on with the token's member
// attached to its context. The rest are answered 401 with the same body
// whatever the reason.
func RequestGate(codec *authz.Codec, exemptions []Exemption) Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt(exemptions, r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			id, err := authenticate(codec, r)
			if err != nil {
				slog.Debug("Rejected request at the gate",
					"method", r.Method,
					"path", r.URL.Path,
					"reason", err,
				)
				herr.Unauthorized(invalidAccessToken, err).SetExpectedError().WriteResponse(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

var errNoAccessToken = errors.New("no access token presented")

func authenticate(codec *authz.Codec, r *http.Request) (authz.MemberID, error) {
	token, ok := authz.ExtractFromCarrier(r, authz.ClassAccess)
	if !ok {
		return 0, errNoAccessToken
	}
	claims, err := codec.Validate(token, authz.ClassAccess)
	if err != nil {
		return 0, err
	}
	id, ok := claims.MemberID()
	if !ok {
		return 0, authz.ErrInvalidToken
	}
	return id, nil
}

// mustIdentity is for handlers behind the gate. A missing identity means
// the route was wrongly exempted.
func mustIdentity(req *http.Request) (authz.MemberID, *herr.HTTPError) {
	id, ok := IdentityFrom(req.Context())
	if !ok {
		return 0, herr.InternalServerError("This endpoint has been misconfigured", nil)
	}
	return id, nil
}
