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
	"github.com/ktb3/community-go/directory"
	"github.com/ktb3/community-go/lib/herr"
	"github.com/ktb3/community-go/session"
	"net/http"
)

type PostUserRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Nickname        string `json:"nickname"`
}

type PostUser struct {
	directory *directory.Directory
}

func (action PostUser) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.postUser(req)
	if errHTTP != nil {
		errHTTP.From("[postUser]").WriteResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	mustWriteJSON(w, req, resp)
}

func (action PostUser) postUser(req *http.Request) (MemberResponse, *herr.HTTPError) {
	vals, errHTTP := readBodyAs[PostUserRequest](req)
	if errHTTP != nil {
		return MemberResponse{}, errHTTP.From("[readBodyAs]")
	}
	member, err := action.directory.SignUp(req.Context(), directory.SignUp{
		Email:           vals.Email,
		Password:        vals.Password,
		PasswordConfirm: vals.PasswordConfirm,
		Nickname:        vals.Nickname,
	})
	if err != nil {
		return MemberResponse{}, fromSessionErr(err).From("[SignUp]")
	}
	return MemberResponse{
		MemberID: int64(member.ID),
		Email:    member.Email,
		Nickname: member.Nickname,
	}, nil
}

type DuplicateResponse struct {
	IsDuplicate bool `json:"isDuplicate"`
}

type CheckEmail struct {
	directory *directory.Directory
}

func (action CheckEmail) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	vals, errHTTP := readBodyAs[struct {
		Email string `json:"email"`
	}](req)
	if errHTTP != nil {
		errHTTP.From("[readBodyAs]").WriteResponse(w)
		return
	}
	taken, err := action.directory.EmailTaken(req.Context(), vals.Email)
	if err != nil {
		herr.InternalServerError("Failed to check email", err).From("[EmailTaken]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, DuplicateResponse{IsDuplicate: taken})
}

type CheckNickname struct {
	directory *directory.Directory
}

func (action CheckNickname) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	vals, errHTTP := readBodyAs[struct {
		Nickname string `json:"nickname"`
	}](req)
	if errHTTP != nil {
		errHTTP.From("[readBodyAs]").WriteResponse(w)
		return
	}
	taken, err := action.directory.NicknameTaken(req.Context(), vals.Nickname)
	if err != nil {
		herr.InternalServerError("Failed to check nickname", err).From("[NicknameTaken]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, DuplicateResponse{IsDuplicate: taken})
}

type GetMe struct {
	directory *directory.Directory
}

func (action GetMe) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.getMe(req)
	if errHTTP != nil {
		errHTTP.From("[getMe]").WriteResponse(w)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	mustWriteJSON(w, req, resp)
}

func (action GetMe) getMe(req *http.Request) (MemberResponse, *herr.HTTPError) {
	ctx := req.Context()
	id, errHTTP := mustIdentity(req)
	if errHTTP != nil {
		return MemberResponse{}, errHTTP.From("[mustIdentity]")
	}
	member, found, err := action.directory.FindLiveMember(ctx, id)
	if err != nil {
		return MemberResponse{}, herr.InternalServerError("Failed to fetch member", err).From("[FindLiveMember]")
	}
	if !found {
		return MemberResponse{}, herr.NotFound("Member not found", nil).SetExpectedError()
	}
	url, _, err := action.directory.ProfileImageURL(ctx, id)
	if err != nil {
		return MemberResponse{}, herr.InternalServerError("Failed to fetch profile image", err).From("[ProfileImageURL]")
	}
	return MemberResponse{
		MemberID:        int64(member.ID),
		Email:           member.Email,
		Nickname:        member.Nickname,
		ProfileImageURL: url,
	}, nil
}

type PatchPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type PatchPassword struct {
	sessions *session.Service
}

func (action PatchPassword) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if errHTTP := action.patchPassword(req); errHTTP != nil {
		errHTTP.From("[patchPassword]").WriteResponse(w)
		return
	}
	herr.WriteNoContentResponse(w)
}

func (action PatchPassword) patchPassword(req *http.Request) *herr.HTTPError {
	id, errHTTP := mustIdentity(req)
	if errHTTP != nil {
		return errHTTP.From("[mustIdentity]")
	}
	vals, errHTTP := readBodyAs[PatchPasswordRequest](req)
	if errHTTP != nil {
		return errHTTP.From("[readBodyAs]")
	}
	if vals.NewPassword == "" {
		return herr.BadRequest("A new password is required", nil).SetExpectedError()
	}
	if err := action.sessions.ChangePassword(req.Context(), id, vals.CurrentPassword, vals.NewPassword); err != nil {
		return fromSessionErr(err).From("[ChangePassword]")
	}
	return nil
}

// DeleteMe withdraws the caller's membership and ends their session.
type DeleteMe struct {
	directory *directory.Directory
	sessions  *session.Service
}

func (action DeleteMe) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if errHTTP := action.deleteMe(req); errHTTP != nil {
		errHTTP.From("[deleteMe]").WriteResponse(w)
		return
	}
	clearTokenCarriers(w)
	herr.WriteNoContentResponse(w)
}

func (action DeleteMe) deleteMe(req *http.Request) *herr.HTTPError {
	ctx := req.Context()
	id, errHTTP := mustIdentity(req)
	if errHTTP != nil {
		return errHTTP.From("[mustIdentity]")
	}
	if err := action.directory.Withdraw(ctx, id); err != nil {
		return fromSessionErr(err).From("[Withdraw]")
	}
	action.sessions.Revoke(ctx, id)
	return nil
}

type PutProfileImageRequest struct {
	Key      string `json:"key"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

type PutProfileImage struct {
	directory *directory.Directory
}

func (action PutProfileImage) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.putProfileImage(req)
	if errHTTP != nil {
		errHTTP.From("[putProfileImage]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action PutProfileImage) putProfileImage(req *http.Request) (MemberResponse, *herr.HTTPError) {
	ctx := req.Context()
	id, errHTTP := mustIdentity(req)
	if errHTTP != nil {
		return MemberResponse{}, errHTTP.From("[mustIdentity]")
	}
	vals, errHTTP := readBodyAs[PutProfileImageRequest](req)
	if errHTTP != nil {
		return MemberResponse{}, errHTTP.From("[readBodyAs]")
	}
	err := action.directory.SetProfileImage(ctx, id, directory.ProfileImage{
		Key:      vals.Key,
		FileName: vals.FileName,
		FileSize: vals.FileSize,
		MimeType: vals.MimeType,
	})
	if err != nil {
		return MemberResponse{}, fromSessionErr(err).From("[SetProfileImage]")
	}
	return GetMe{action.directory}.getMe(req)
}

// PatchMeRequest changes any of the caller's nickname and profile image.
// DeleteProfileImage wins over ProfileImage.
type PatchMeRequest struct {
	Nickname           *string                 `json:"nickname"`
	ProfileImage       *PutProfileImageRequest `json:"profileImage"`
	DeleteProfileImage bool                    `json:"deleteProfileImage"`
}

type PatchMe struct {
	directory *directory.Directory
}

func (action PatchMe) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, errHTTP := action.patchMe(req)
	if errHTTP != nil {
		errHTTP.From("[patchMe]").WriteResponse(w)
		return
	}
	mustWriteJSON(w, req, resp)
}

func (action PatchMe) patchMe(req *http.Request) (MemberResponse, *herr.HTTPError) {
	id, errHTTP := mustIdentity(req)
	if errHTTP != nil {
		return MemberResponse{}, errHTTP.From("[mustIdentity]")
	}
	vals, errHTTP := readBodyAs[PatchMeRequest](req)
	if errHTTP != nil {
		return MemberResponse{}, errHTTP.From("[readBodyAs]")
	}
	upd := directory.MemberUpdate{
		Nickname:    vals.Nickname,
		DeleteImage: vals.DeleteProfileImage,
	}
	if img := vals.ProfileImage; img != nil {
		upd.Image = &directory.ProfileImage{
			Key:      img.Key,
			FileName: img.FileName,
			FileSize: img.FileSize,
			MimeType: img.MimeType,
		}
	}
	if _, err := action.directory.UpdateMember(req.Context(), id, upd); err != nil {
		return MemberResponse{}, fromSessionErr(err).From("[UpdateMember]")
	}
	return GetMe{action.directory}.getMe(req)
}
