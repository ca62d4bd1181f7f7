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

package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/ktb3/community-go/conf"
	"github.com/ktb3/community-go/lib/herr"
	"github.com/ktb3/community-go/web/template"
)

func AddToMux(mux *http.ServeMux, cfg *conf.CommunityConfig) *http.ServeMux {
	if mux == nil {
		mux = http.NewServeMux()
	}

	// Supply a default versionName and fake ref, in case BuildInfo is unavailable.
	// This version name is just the current UTC time, all smushed together.
	versionName := time.Now().UTC().Format("20060102150405")
	versionRef := "deadbeef"
	bi, _ := debug.ReadBuildInfo()
	if bi != nil {
		// e.g. "20250629122355-7254ff315bc4"
		if _, name, ok := strings.Cut(bi.Main.Version, "-"); ok {
			versionName = name
		}
		for _, v := range bi.Settings {
			if v.Key == "vcs.revision" {
				versionRef = v.Value
			}
		}
	}

	deployment := string(cfg.Core.Deployment)
	mux.Handle("GET /api/terms",
		AdaptTempl(template.Page(deployment, versionName, versionRef, template.Terms), cfg.Core.CacheControlLong),
	)
	mux.Handle("GET /api/privacy",
		AdaptTempl(template.Page(deployment, versionName, versionRef, template.Privacy), cfg.Core.CacheControlLong),
	)

	// Requests to the above with a trailing slash would otherwise get a 404
	for _, page := range []string{"/api/terms", "/api/privacy"} {
		mux.HandleFunc("GET "+page+"/{anything...}", func(w http.ResponseWriter, r *http.Request) {
			if before, ok := strings.CutSuffix(r.URL.Path, "/"); ok && before == page {
				http.Redirect(w, r, before, http.StatusMovedPermanently)
				return
			}
			http.NotFound(w, r)
		})
	}

	return mux
}

func CacheControl(maxAge time.Duration) Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			durSec := maxAge.Milliseconds() / 1000
			w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%v", durSec))
			next.ServeHTTP(w, r)
		})
	}
}

type Adapter func(http.Handler) http.Handler

func Adapt(h http.HandlerFunc, adapters ...Adapter) http.Handler {
	handler := http.Handler(h)
	for i := range adapters {
		adapter := adapters[len(adapters)-1-i] // range in reverse
		handler = adapter(handler)
	}
	return handler
}

func AdaptTempl(comp templ.Component, cacheControlLong time.Duration, adapters ...Adapter) http.Handler {
	adapters = append(adapters, CacheControl(cacheControlLong))
	return Adapt(
		func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			err := comp.Render(req.Context(), w)
			if err != nil {
				slog.Error("Failed to render template", "error", err)
				herr.InternalServerError("Failed to render page", err).From("[Render]").WriteResponse(w)
				return
			}
		},
		adapters...,
	)
}
