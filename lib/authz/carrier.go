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
	"net/http"
	"time"
)

// Session tokens travel between server and browser as HttpOnly cookies.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

func CookieName(class TokenClass) string {
	if class == ClassRefresh {
		return RefreshTokenCookieName
	}
	return AccessTokenCookieName
}

// ExtractFromCarrier returns the token of the given class presented with the
// request, or false if there isn't one.
func ExtractFromCarrier(req *http.Request, class TokenClass) (string, bool) {
	cookie, err := req.Cookie(CookieName(class))
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SetCarrier sets the cookie for a freshly issued token.
func SetCarrier(w http.ResponseWriter, issued Issued) {
	maxAge := int(time.Until(issued.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, newCookie(CookieName(issued.Class), issued.Token, maxAge))
}

// ClearCarrier tells the browser to drop the cookie for a token class.
func ClearCarrier(w http.ResponseWriter, class TokenClass) {
	http.SetCookie(w, newCookie(CookieName(class), "", -1))
}

func newCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
