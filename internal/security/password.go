// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives a bcrypt hash from the given password. The cleartext
// is never stored; only the hash travels to the database.
func HashPassword(password Secret) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored bcrypt hash.
// A missing or malformed hash simply fails the check.
func CheckPassword(hash string, password Secret) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
