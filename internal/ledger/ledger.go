// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toeirei/keydepot/internal/db"
	"github.com/toeirei/keydepot/internal/model"
	"github.com/toeirei/keydepot/internal/security"
)

// Ledger is the aggregate of create/edit/delete operations over Key, User and
// Assignment. It is the only sanctioned mutator of the store.
type Ledger struct {
	store db.Store

	// enforceOpenPairingOnEdit extends the "one open pairing" invariant from
	// assignment creation to assignment edits. Off by default: edits are
	// trusted administrative corrections.
	enforceOpenPairingOnEdit bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithEnforceOpenPairingOnEdit controls whether editing an assignment
// re-checks the "at most one open pairing per (user, key)" invariant that
// creation always enforces.
func WithEnforceOpenPairingOnEdit(on bool) Option {
	return func(l *Ledger) { l.enforceOpenPairingOnEdit = on }
}

// New builds a Ledger over the given store.
func New(store db.Store, opts ...Option) *Ledger {
	l := &Ledger{store: store}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// --- Key operations ---

// CreateKey adds a new key to the inventory with status Active.
func (l *Ledger) CreateKey(name, description string) (*model.Key, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: key name cannot be empty", ErrValidation)
	}
	if err := l.store.AddKey(name, description); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, name)
		}
		return nil, err
	}
	return &model.Key{Name: name, Description: description, Status: model.KeyStatusActive}, nil
}

// EditKey updates a key's description and status. The name is immutable.
func (l *Ledger) EditKey(name, description string, status model.KeyStatus) (*model.Key, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown key status %q", ErrValidation, status)
	}
	if err := l.store.UpdateKey(name, description, status); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: key %q", ErrNotFound, name)
		}
		return nil, err
	}
	return &model.Key{Name: name, Description: description, Status: status}, nil
}

// DeleteKey removes a key. It fails with ErrConflict while any open
// assignment still references the key.
func (l *Ledger) DeleteKey(name string) error {
	err := l.store.DeleteKey(name)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: key %q", ErrNotFound, name)
	case errors.Is(err, db.ErrConflict):
		return fmt.Errorf("%w: key %q is still checked out", ErrConflict, name)
	}
	return err
}

// Keys lists every key in the inventory, ordered by name.
func (l *Ledger) Keys() ([]model.Key, error) {
	return l.store.GetAllKeys()
}

// AssignableKeys lists the keys offered as assignment choices: Active only.
func (l *Ledger) AssignableKeys() ([]model.Key, error) {
	return l.store.GetActiveKeys()
}

// FindKey is the canonical lookup for a key by name.
func (l *Ledger) FindKey(name string) (*model.Key, error) {
	k, err := l.store.GetKeyByName(name)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, fmt.Errorf("%w: key %q", ErrNotFound, name)
	}
	return k, nil
}

// --- User operations ---

// NewUser carries the fields for user creation. The password travels as a
// redacting Secret and is hashed before it reaches the store.
type NewUser struct {
	Username    string
	Email       string
	DisplayName string
	Password    security.Secret
	CanLogin    bool
}

// CreateUser adds a new user, hashing the password. Username and (non-empty)
// email must be unused.
func (l *Ledger) CreateUser(nu NewUser) (*model.User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	if nu.Username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}
	hash, err := security.HashPassword(nu.Password)
	if err != nil {
		return nil, err
	}
	id, err := l.store.AddUser(nu.Username, nu.Email, nu.DisplayName, hash, nu.CanLogin)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateUser, nu.Username)
		}
		return nil, err
	}
	return &model.User{
		ID:          id,
		Username:    nu.Username,
		Email:       nu.Email,
		DisplayName: nu.DisplayName,
		CanLogin:    nu.CanLogin,
	}, nil
}

// EditUser updates a user's fields, re-validating username/email uniqueness
// against all other users; matching the record's own current values is not a
// collision. The password is never changed by this operation.
func (l *Ledger) EditUser(id int, username, email, displayName string, canLogin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}
	if err := l.store.UpdateUser(id, username, email, displayName, canLogin); err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("%w: user id %d", ErrNotFound, id)
		case errors.Is(err, db.ErrDuplicate):
			return nil, fmt.Errorf("%w: %q", ErrDuplicateUser, username)
		}
		return nil, err
	}
	return &model.User{ID: id, Username: username, Email: email, DisplayName: displayName, CanLogin: canLogin}, nil
}

// SetPassword re-hashes and replaces a user's credential. This is the only
// operation that touches the stored hash after creation.
func (l *Ledger) SetPassword(id int, password security.Secret) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	if err := l.store.UpdateUserPasswordHash(id, hash); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user id %d", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// DeleteUser removes a user. It fails with ErrConflict while the user still
// has keys checked out, no matter how many closed assignments exist.
func (l *Ledger) DeleteUser(username string) error {
	err := l.store.DeleteUser(username)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: user %q", ErrNotFound, username)
	case errors.Is(err, db.ErrConflict):
		return fmt.Errorf("%w: user %q still has keys checked out", ErrConflict, username)
	}
	return err
}

// Users lists every user, ordered by username.
func (l *Ledger) Users() ([]model.User, error) {
	return l.store.GetAllUsers()
}

// FindUser is the canonical lookup for a user by username.
func (l *Ledger) FindUser(username string) (*model.User, error) {
	u, err := l.store.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	return u, nil
}

// FindUserByID is the canonical lookup for a user by surrogate id.
func (l *Ledger) FindUserByID(id int) (*model.User, error) {
	u, err := l.store.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user id %d", ErrNotFound, id)
	}
	return u, nil
}

// Authenticate verifies a login attempt. Unknown username, can_login disabled
// and password mismatch all return the same ErrInvalidCredentials.
func (l *Ledger) Authenticate(username string, password security.Secret) (*model.User, error) {
	u, err := l.store.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.CanLogin {
		return nil, ErrInvalidCredentials
	}
	hash, err := l.store.GetUserPasswordHash(username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !security.CheckPassword(hash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// --- Assignment operations ---

// Assign checks out keys to users: one open assignment per (user, key) pair
// in the cross-product. Pairings that are already open are skipped and
// reported as non-fatal conflict notices; the rest of the batch proceeds.
// The whole batch runs inside one store transaction.
func (l *Ledger) Assign(usernames, keyNames []string, dateOut time.Time) ([]model.AssignOutcome, error) {
	usernames = dedupe(usernames)
	keyNames = dedupe(keyNames)
	if len(usernames) == 0 || len(keyNames) == 0 {
		return nil, fmt.Errorf("%w: at least one user and one key required", ErrValidation)
	}
	if dateOut.IsZero() {
		return nil, fmt.Errorf("%w: checkout date required", ErrValidation)
	}
	for _, username := range usernames {
		if _, err := l.FindUser(username); err != nil {
			return nil, err
		}
	}
	for _, keyName := range keyNames {
		if _, err := l.FindKey(keyName); err != nil {
			return nil, err
		}
	}
	return l.store.AssignKeys(usernames, keyNames, normalizeDate(dateOut))
}

// EditAssignment overwrites all mutable fields of an assignment. Setting
// dateIn closes the checkout; passing nil re-opens it. The open-pairing
// invariant is only re-checked when the ledger was built with
// WithEnforceOpenPairingOnEdit(true).
func (l *Ledger) EditAssignment(id int, username, keyName string, dateOut time.Time, dateIn *time.Time) (*model.Assignment, error) {
	if dateOut.IsZero() {
		return nil, fmt.Errorf("%w: checkout date required", ErrValidation)
	}
	if l.enforceOpenPairingOnEdit && dateIn == nil {
		open, err := l.store.FindOpenAssignment(username, keyName)
		if err != nil {
			return nil, err
		}
		if open != nil && open.ID != id {
			return nil, fmt.Errorf("%w: key %q is already checked out to %q", ErrConflict, keyName, username)
		}
	}
	a := model.Assignment{ID: id, Username: username, KeyName: keyName, DateOut: normalizeDate(dateOut)}
	if dateIn != nil {
		d := normalizeDate(*dateIn)
		a.DateIn = &d
	}
	if err := l.store.UpdateAssignment(a); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: assignment %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &a, nil
}

// ReturnAssignment closes an open assignment by setting its return date.
func (l *Ledger) ReturnAssignment(id int, dateIn time.Time) (*model.Assignment, error) {
	a, err := l.FindAssignment(id)
	if err != nil {
		return nil, err
	}
	return l.EditAssignment(a.ID, a.Username, a.KeyName, a.DateOut, &dateIn)
}

// DeleteAssignment removes an assignment outright; assignment rows carry no
// downstream referential constraints of their own.
func (l *Ledger) DeleteAssignment(id int) error {
	if err := l.store.DeleteAssignment(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: assignment %d", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// Assignments lists the full checkout history, oldest first.
func (l *Ledger) Assignments() ([]model.Assignment, error) {
	return l.store.GetAllAssignments()
}

// FindAssignment is the canonical lookup for an assignment by id.
func (l *Ledger) FindAssignment(id int) (*model.Assignment, error) {
	a, err := l.store.GetAssignmentByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: assignment %d", ErrNotFound, id)
	}
	return a, nil
}

// normalizeDate truncates a timestamp to its date in UTC; checkout dates are
// date-only values.
func normalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
