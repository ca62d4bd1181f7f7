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

package session

import (
	"errors"
	"fmt"
)

// These are the kinds of business error the session layer reports. Match
// them with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrReplaySuspected = errors.New("refresh token replay suspected")
	ErrInvalidInput    = errors.New("invalid input")
)

// Error is a business error. Message is safe to show to the member, while
// Err holds the detail for the server log.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: %v: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a business error of the given kind.
func NewError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

const badCredentialsMessage = "Invalid email or password"

// badCredentials is the one error for every failed login, whatever the
// reason. Only the internal error differs.
func badCredentials(err error) *Error {
	return NewError(ErrUnauthenticated, badCredentialsMessage, err)
}
