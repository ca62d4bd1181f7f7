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
	"fmt"
	"github.com/ktb3/community-go/conf"
	"github.com/ktb3/community-go/directory"
	"github.com/ktb3/community-go/events"
	"github.com/ktb3/community-go/lib/authz"
	"github.com/ktb3/community-go/lib/herr"
	"github.com/ktb3/community-go/lib/objectstore"
	"github.com/ktb3/community-go/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"
)

// Services are what the API handlers are built from. Objects and Relay may
// be nil, which turns off file uploads and the session event stream.
type Services struct {
	Codec     *authz.Codec
	Sessions  *session.Service
	Directory *directory.Directory
	Objects   *objectstore.Client
	Relay     *events.Relay
	Gatherer  prometheus.Gatherer
}

// AddToMux registers the API routes on mux, then returns mux wrapped in the
// RequestGate. Serve the returned handler, not mux.
func AddToMux(mux *http.ServeMux, cfg *conf.CommunityConfig, svc Services) http.Handler {
	if mux == nil {
		mux = http.NewServeMux()
	}

	mux.Handle("POST /api/auth",
		Adapt(
			PostAuth{svc.Sessions},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("/api/auth/refresh",
		Adapt(
			RefreshAuth{svc.Sessions},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST /api/auth/logout",
		Adapt(
			PostLogout{svc.Sessions},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	if svc.Relay != nil {
		mux.Handle("GET /api/auth/events",
			Adapt(
				GetSessionEvents{svc.Relay},
				RecoverFromPanic(),
				LogRequest(),
			),
		)
	}

	mux.Handle("POST /api/users",
		Adapt(
			PostUser{svc.Directory},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST /api/users/email",
		Adapt(
			CheckEmail{svc.Directory},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST /api/users/nickname",
		Adapt(
			CheckNickname{svc.Directory},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("GET /api/users/me",
		Adapt(
			GetMe{svc.Directory},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("PATCH /api/users/me",
		Adapt(
			PatchMe{svc.Directory},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("PATCH /api/users/password",
		Adapt(
			PatchPassword{svc.Sessions},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("DELETE /api/users/withdraw",
		Adapt(
			DeleteMe{svc.Directory, svc.Sessions},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("PUT /api/users/me/profile-image",
		Adapt(
			PutProfileImage{svc.Directory},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.Handle("POST /api/files/presigned",
		Adapt(
			PostPresigned{svc.Objects},
			RecoverFromPanic(),
			LogRequest(),
			LimitRequestBytes(cfg.Core.MaxRequestBytes),
		),
	)

	mux.HandleFunc("GET /api/ping",
		func(w http.ResponseWriter, req *http.Request) {
			herr.WriteOKResponse(w, "ack")
		},
	)

	mux.Handle("GET /api/debug/buildinfo",
		Adapt(
			GetBuildInfo{},
			RecoverFromPanic(),
			LogRequest(),
		),
	)

	if cfg.Metrics.Enabled && svc.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	return Adapt(mux, RequestGate(svc.Codec, PublicRoutes))
}

var buildInfo = sync.OnceValue[debug.BuildInfo](func() debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if ok {
		return *bi
	}
	slog.Info("Build info was unavailable, so an empty placeholder will be used instead")
	return debug.BuildInfo{}
})

type Adapter func(http.Handler) http.Handler

// responseWriter is a wrapper around http.ResponseWriter that lets us
// capture details about the response.
type responseWriter struct {
	http.ResponseWriter
	http.Flusher
	code int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.code = code
	rw.ResponseWriter.WriteHeader(code)
}

func LimitRequestBytes(maxRequestBytes int64) Adapter {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, maxRequestBytes)
	}
}

func LogRequest() Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			flusher, _ := w.(http.Flusher)
			writ := &responseWriter{w, flusher, http.StatusOK}

			next.ServeHTTP(writ, r)

			member := "(unauthenticated)"
			if id, ok := IdentityFrom(r.Context()); ok {
				member = fmt.Sprint(id)
			}

			durationMS := float64(time.Since(start).Microseconds()) / 1000.0
			slog.Debug(fmt.Sprintf("Served request for: %v %v ", r.Method, r.URL.Path),
				"duration", fmt.Sprintf("%.3fms", durationMS),
				"method", r.Method,
				"member", member,
				"code", writ.code,
			)
		})
	}
}

func RecoverFromPanic() Adapter {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					slog.Error("Recovered from panic", "err", err)
					debug.PrintStack()
					http.Error(w, "The server malfunctioned", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func Adapt(handler http.Handler, adapters ...Adapter) http.Handler {
	for i := range adapters {
		adapter := adapters[len(adapters)-1-i] // range in reverse
		handler = adapter(handler)
	}
	return handler
}
