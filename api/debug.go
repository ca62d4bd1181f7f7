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
	"net/http"
)

// GetBuildInfo is open to any signed-in member.
type GetBuildInfo struct{}

func (action GetBuildInfo) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if _, errHTTP := mustIdentity(req); errHTTP != nil {
		errHTTP.From("[mustIdentity]").WriteResponse(w)
		return
	}
	bi := buildInfo()
	w.Header().Set("Cache-Control", "no-cache")
	http.Error(w, bi.String(), http.StatusOK)
}
