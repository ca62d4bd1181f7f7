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
	"encoding/json"
	"errors"
	"github.com/ktb3/community-go/lib/herr"
	"github.com/ktb3/community-go/session"
	"io"
	"log/slog"
	"net/http"
)

func readBodyAs[T any](req *http.Request) (T, *herr.HTTPError) {
	empty := *new(T)
	defer shut(req.Body)
	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return empty, herr.RequestEntityTooLarge("Request body is too large", err).From("[io.ReadAll]")
		}
		return empty, herr.BadRequest("Failed to read request body", err).From("[io.ReadAll]")
	}
	var t T
	err = json.Unmarshal(bodyBytes, &t)
	if err != nil {
		return empty, herr.BadRequest("Failed to unmarshal request body", err).From("[Unmarshal]")
	}
	return t, nil
}

func mustWriteJSON(w http.ResponseWriter, req *http.Request, resp any) (success bool) {
	marshalled, err := json.Marshal(resp)
	if err != nil {
		herr.InternalServerError("Failed to marshal JSON", err).From("[Marshal]").WriteResponse(w)
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(marshalled)
	if err != nil {
		herr.InternalServerError("Failed to write JSON", err).From("[Write]").WriteResponse(w)
		return false
	}
	return true
}

// fromSessionErr turns an error from the session or directory layer into
// the HTTP response for it. Only a business error's Message reaches the
// client.
func fromSessionErr(err error) *herr.HTTPError {
	var bizErr *session.Error
	if !errors.As(err, &bizErr) {
		return herr.InternalServerError("Unknown server error", err)
	}
	switch {
	case errors.Is(err, session.ErrReplaySuspected), errors.Is(err, session.ErrUnauthenticated):
		return herr.Unauthorized(bizErr.Message, err).SetExpectedError()
	case errors.Is(err, session.ErrConflict):
		return herr.Conflict(bizErr.Message, err).SetExpectedError()
	case errors.Is(err, session.ErrNotFound):
		return herr.NotFound(bizErr.Message, err).SetExpectedError()
	case errors.Is(err, session.ErrInvalidInput):
		return herr.BadRequest(bizErr.Message, err).SetExpectedError()
	default:
		return herr.InternalServerError("Unknown server error", err)
	}
}

func shut(c io.Closer) {
	err := c.Close()
	if err != nil {
		slog.Error("Failed to close Closer", "error", err)
	}
}
