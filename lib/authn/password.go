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

package authn

import (
	"errors"
	"github.com/ktb3/community-go/lib/argon2id"
	"strings"
	"sync"
)

// ErrUnsupportedHash is returned for stored values that aren't Argon2id hashes.
var ErrUnsupportedHash = errors.New("unsupported non-argon2id stored password")

// argonLocker disallows concurrent calls into the Argon2id hash algorithm.
// Each call allocates Params.Memory KiB, and a burst of logins can otherwise
// push the process over its container memory limit.
var argonLocker sync.Mutex

// Verify reports whether password matches the stored Argon2id hash.
func Verify(password, storedValue string) (isValid bool, err error) {
	if !strings.HasPrefix(storedValue, "$argon2id") {
		return false, ErrUnsupportedHash
	}
	argonLocker.Lock()
	defer argonLocker.Unlock()
	return argon2id.ComparePasswordAndHash(password, storedValue)
}

// NewSaltedArgon2id hashes a password for storage.
func NewSaltedArgon2id(password string) string {
	argonLocker.Lock()
	defer argonLocker.Unlock()
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

func NewSaltedArgon2idDevOnly(password string) string {
	// do not use DevelopmentParams for production use!
	return argon2id.CreateHash(password, argon2id.DevelopmentParams)
}
