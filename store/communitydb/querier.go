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
	"context"
)

type Querier interface {
	SchemaVersion(ctx context.Context, db DBTX) (int16, error)

	CreateMember(ctx context.Context, db DBTX, arg CreateMemberParams) (int64, error)
	CreateMemberAuth(ctx context.Context, db DBTX, arg CreateMemberAuthParams) error
	LiveMember(ctx context.Context, db DBTX, id int64) (Member, error)
	LiveMemberByEmail(ctx context.Context, db DBTX, email string) (Member, error)
	EmailExists(ctx context.Context, db DBTX, email string) (bool, error)
	NicknameExists(ctx context.Context, db DBTX, nickname string) (bool, error)
	MemberPassword(ctx context.Context, db DBTX, memberID int64) (string, error)
	UpdateMemberPassword(ctx context.Context, db DBTX, arg UpdateMemberPasswordParams) error
	UpdateMemberNickname(ctx context.Context, db DBTX, arg UpdateMemberNicknameParams) error
	SoftDeleteMember(ctx context.Context, db DBTX, arg SoftDeleteMemberParams) (int64, error)

	CreateFile(ctx context.Context, db DBTX, arg CreateFileParams) (int64, error)
	LiveProfileFile(ctx context.Context, db DBTX, memberID int64) (File, error)
	SoftDeleteProfileFiles(ctx context.Context, db DBTX, arg SoftDeleteProfileFilesParams) error

	RefreshToken(ctx context.Context, db DBTX, memberID int64) (RefreshToken, error)
	UpsertRefreshToken(ctx context.Context, db DBTX, arg UpsertRefreshTokenParams) error
	SwapRefreshToken(ctx context.Context, db DBTX, arg SwapRefreshTokenParams) (int64, error)
	DeleteRefreshToken(ctx context.Context, db DBTX, memberID int64) error
}
