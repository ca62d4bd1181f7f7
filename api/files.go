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
	"github.com/ktb3/community-go/lib/herr"
	"github.com/ktb3/community-go/lib/objectstore"
	"github.com/ktb3/community-go/store/communitydb"
	"net/http"
	"strings"
)

type PostPresignedRequest struct {
	Type        string `json:"type"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type PostPresignedResponse struct {
	URL       string              `json:"url"`
	Method    string              `json:"method"`
	Headers   map[string][]string `json:"headers,omitempty"`
	Key       string              `json:"key"`
	ExpiresAt int64               `json:"expiresUnixMs"`
}

// PostPresigned hands out a URL the client can upload one file to directly.
type PostPresigned struct {
	objects *objectstore.Client
}

func (action PostPresigned) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.postPresigned(req)
	if errHTTP != nil {
		errHTTP.From("[postPresigned]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	mustWriteJSON(w, req, resp)
}

func (action PostPresigned) postPresigned(req *http.Request) (PostPresignedResponse, *herr.HTTPError) {
	if action.objects == nil {
		return PostPresignedResponse{}, herr.ServiceUnavailable("File uploads are not enabled on this server", nil)
	}
	id, errHTTP := mustIdentity(req)
	if errHTTP != nil {
		return PostPresignedResponse{}, errHTTP.From("[mustIdentity]")
	}
	vals, errHTTP := readBodyAs[PostPresignedRequest](req)
	if errHTTP != nil {
		return PostPresignedResponse{}, errHTTP.From("[readBodyAs]")
	}
	kind := communitydb.FileType(strings.ToLower(vals.Type))
	if !kind.Valid() {
		return PostPresignedResponse{}, herr.BadRequest("File type must be profile or post", nil).SetExpectedError()
	}
	key := objectstore.NewKey(string(kind), int64(id), vals.FileName)
	presigned, err := action.objects.PresignUpload(req.Context(), key, vals.ContentType)
	if err != nil {
		return PostPresignedResponse{}, herr.InternalServerError("Failed to presign upload", err).From("[PresignUpload]")
	}
	return PostPresignedResponse{
		URL:       presigned.URL,
		Method:    presigned.Method,
		Headers:   presigned.Header,
		Key:       key,
		ExpiresAt: presigned.ExpiresAt.UnixMilli(),
	}, nil
}
