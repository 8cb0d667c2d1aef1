// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package ledger

import (
	"errors"

	"github.com/toeirei/keydepot/internal/db"
)

// The ledger error taxonomy. Everything here is recoverable at the request
// boundary: the caller re-presents the form with an explanatory message.
var (
	// ErrNotFound means the referenced entity does not exist. It aliases the
	// store sentinel so errors.Is works across layers.
	ErrNotFound = db.ErrNotFound

	// ErrConflict means a deletion or pairing would violate a referential or
	// availability invariant (e.g. the key is still checked out).
	ErrConflict = db.ErrConflict

	// ErrDuplicateKey means a key with that name already exists.
	ErrDuplicateKey = errors.New("key already exists")

	// ErrDuplicateUser means the username or email is already taken by
	// another user.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrValidation means the boundary layer handed in malformed input; it is
	// rejected before reaching the store.
	ErrValidation = errors.New("invalid input")

	// ErrInvalidCredentials collapses unknown user, login-disabled user and
	// password mismatch into one indistinguishable outcome.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrAborted reports that a staged deletion was declined; no state changed.
	ErrAborted = errors.New("deletion aborted")
)
