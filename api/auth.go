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
	"errors"
	"github.com/ktb3/community-go/events"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/herr"
	"github.com/ktb3/community-go/session"
	"net/http"
)

type PostAuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MemberResponse struct {
	MemberID        int64  `json:"memberId"`
	Email           string `json:"email"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// AuthResponse is sent on login and refresh. The tokens themselves only go
// in cookies.
type AuthResponse struct {
	MemberResponse
	AccessExpiresUnixMs  int64 `json:"accessExpiresUnixMs"`
	RefreshExpiresUnixMs int64 `json:"refreshExpiresUnixMs"`
}

func newAuthResponse(result session.LoginResult) AuthResponse {
	return AuthResponse{
		MemberResponse: MemberResponse{
			MemberID:        int64(result.Member.ID),
			Email:           result.Member.Email,
			Nickname:        result.Member.Nickname,
			ProfileImageURL: result.ProfileImageURL,
		},
		AccessExpiresUnixMs:  result.Tokens.Access.ExpiresAt.UnixMilli(),
		RefreshExpiresUnixMs: result.Tokens.Refresh.ExpiresAt.UnixMilli(),
	}
}

func setTokenCarriers(w http.ResponseWriter, tokens session.Tokens) {
	authz.SetCarrier(w, tokens.Access)
	authz.SetCarrier(w, tokens.Refresh)
}

func clearTokenCarriers(w http.ResponseWriter) {
	authz.ClearCarrier(w, authz.ClassAccess)
	authz.ClearCarrier(w, authz.ClassRefresh)
}

type PostAuth struct {
	sessions *session.Service
}

func (action PostAuth) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	result, errHTTP := action.postAuth(req)
	if errHTTP != nil {
		errHTTP.From("[postAuth]").WriteResponse(w)
		return
	}
	setTokenCarriers(w, result.Tokens)
	mustWriteJSON(w, req, newAuthResponse(result))
}

func (action PostAuth) postAuth(req *http.Request) (session.LoginResult, *herr.HTTPError) {
	vals, errHTTP := readBodyAs[PostAuthRequest](req)
	if errHTTP != nil {
		return session.LoginResult{}, errHTTP.From("[readBodyAs]")
	}
	result, err := action.sessions.Login(req.Context(), vals.Email, vals.Password)
	if err != nil {
		return session.LoginResult{}, fromSessionErr(err).From("[Login]")
	}
	return result, nil
}

// RefreshAuth swaps the refresh token cookie for a new token pair.
type RefreshAuth struct {
	sessions *session.Service
}

func (action RefreshAuth) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	refreshToken, _ := authz.ExtractFromCarrier(req, authz.ClassRefresh)
	result, err := action.sessions.Refresh(req.Context(), refreshToken)
	if err != nil {
		// A refresh token that was refused once will be refused again
		if errors.Is(err, session.ErrUnauthenticated) || errors.Is(err, session.ErrReplaySuspected) {
			clearTokenCarriers(w)
		}
		fromSessionErr(err).From("[Refresh]").WriteResponse(w)
		return
	}
	setTokenCarriers(w, result.Tokens)
	mustWriteJSON(w, req, newAuthResponse(result))
}

// PostLogout always succeeds, whatever tokens came with it.
type PostLogout struct {
	sessions *session.Service
}

func (action PostLogout) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	refreshToken, _ := authz.ExtractFromCarrier(req, authz.ClassRefresh)
	accessToken, _ := authz.ExtractFromCarrier(req, authz.ClassAccess)
	action.sessions.Logout(req.Context(), refreshToken, accessToken)
	clearTokenCarriers(w)
	herr.WriteNoContentResponse(w)
}

// GetSessionEvents streams the caller's own session events.
type GetSessionEvents struct {
	relay *events.Relay
}

func (action GetSessionEvents) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	id, errHTTP := mustIdentity(req)
	if errHTTP != nil {
		errHTTP.From("[mustIdentity]").WriteResponse(w)
		return
	}
	action.relay.Handler(id).ServeHTTP(w, req)
}
