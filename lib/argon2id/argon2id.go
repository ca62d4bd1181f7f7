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

// Package argon2id creates and verifies Argon2id password hashes in the
// PHC string format, e.g.
//
//	$argon2id$v=19$m=65536,t=1,p=2$<salt>$<key>
//
// Salt and key are unpadded standard base64.
package argon2id

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"golang.org/x/crypto/argon2"
	"strconv"
	"strings"
)

var (
	// ErrInvalidHash means the encoded hash isn't a well-formed PHC string.
	ErrInvalidHash = errors.New("argon2id: hash is not in the correct format")

	// ErrIncompatibleVariant means the hash was made with a different Argon2 variant.
	ErrIncompatibleVariant = errors.New("argon2id: incompatible variant of argon2")

	// ErrIncompatibleVersion means the hash was made with a different Argon2 version.
	ErrIncompatibleVersion = errors.New("argon2id: incompatible version of argon2")
)

var b64 = base64.RawStdEncoding.Strict()

type Params struct {
	// Memory is in KiB.
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the OWASP minimum recommendation for Argon2id.
var DefaultParams = &Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// DevelopmentParams make a single pass, which is quicker for tests and fake
// data. Don't use them for real member passwords.
var DevelopmentParams = &Params{
	Memory:      64 * 1024,
	Iterations:  1,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// CreateHash returns an encoded Argon2id hash of password, using a fresh
// random salt.
func CreateHash(password string, params *Params) string {
	salt := make([]byte, params.SaltLength)
	// crypto/rand.Read never returns an error
	_, _ = rand.Read(salt)

	key := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	)
}

// ComparePasswordAndHash reports whether password matches the encoded hash.
func ComparePasswordAndHash(password, hash string) (match bool, err error) {
	match, _, err = CheckHash(password, hash)
	return match, err
}

// CheckHash is like ComparePasswordAndHash, but it also returns the
// parameters the hash was created with.
func CheckHash(password, hash string) (match bool, params *Params, err error) {
	params, salt, key, err := DecodeHash(hash)
	if err != nil {
		return false, nil, err
	}
	otherKey := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	if subtle.ConstantTimeEq(int32(len(key)), int32(len(otherKey))) == 0 {
		return false, params, nil
	}
	return subtle.ConstantTimeCompare(key, otherKey) == 1, params, nil
}

// DecodeHash splits an encoded hash into its parameters, salt and key.
func DecodeHash(hash string) (params *Params, salt, key []byte, err error) {
	vals := strings.Split(hash, "$")
	if len(vals) != 6 || vals[0] != "" {
		return nil, nil, nil, ErrInvalidHash
	}
	if vals[1] != "argon2id" {
		return nil, nil, nil, ErrIncompatibleVariant
	}

	version, err := parseField(vals[2], "v")
	if err != nil {
		return nil, nil, nil, err
	}
	if version != argon2.Version {
		return nil, nil, nil, ErrIncompatibleVersion
	}

	fields := strings.Split(vals[3], ",")
	if len(fields) != 3 {
		return nil, nil, nil, ErrInvalidHash
	}
	memory, err := parseField(fields[0], "m")
	if err != nil {
		return nil, nil, nil, err
	}
	iterations, err := parseField(fields[1], "t")
	if err != nil {
		return nil, nil, nil, err
	}
	parallelism, err := parseField(fields[2], "p")
	if err != nil {
		return nil, nil, nil, err
	}
	if parallelism > 255 {
		return nil, nil, nil, ErrInvalidHash
	}

	// The decoder silently skips CR and LF
	if strings.ContainsAny(vals[4], "\r\n") || strings.ContainsAny(vals[5], "\r\n") {
		return nil, nil, nil, ErrInvalidHash
	}
	salt, err = b64.DecodeString(vals[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	key, err = b64.DecodeString(vals[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: key: %w", ErrInvalidHash, err)
	}

	params = &Params{
		Memory:      memory,
		Iterations:  iterations,
		Parallelism: uint8(parallelism),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}
	return params, salt, key, nil
}

// parseField reads "name=123". Anything other than decimal digits in the
// value, or a different name, is rejected.
func parseField(field, name string) (uint32, error) {
	k, v, ok := strings.Cut(field, "=")
	if !ok || k != name || v == "" {
		return 0, ErrInvalidHash
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, ErrInvalidHash
		}
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	return uint32(n), nil
}
