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

package communitydb

import (
	"database/sql"
)

type FileType string

const (
	FileTypeProfile FileType = "profile"
	FileTypePost    FileType = "post"
)

func (t FileType) Valid() bool {
	return t == FileTypeProfile || t == FileTypePost
}

// Times are stored as float seconds since the epoch.

type Member struct {
	ID        int64
	Email     string
	Nickname  string
	CreatedAt float64
	DeletedAt sql.NullFloat64
}

type File struct {
	ID        int64
	MemberID  sql.NullInt64
	Type      FileType
	FilePath  string
	FileName  string
	FileSize  int64
	MimeType  string
	FileOrder int32
	CreatedAt float64
	DeletedAt sql.NullFloat64
}

type RefreshToken struct {
	MemberID  int64
	Token     string
	ExpiresAt float64
}
