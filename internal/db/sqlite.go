// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Keydepot.
// This file contains the SQLite implementation of the database store.
package db // import "github.com/toeirei/keydepot/internal/db"

import (
	"time"

	"github.com/toeirei/keydepot/internal/model"
	"github.com/uptrace/bun"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SqliteStore is the SQLite implementation of the Store interface.
type SqliteStore struct {
	bun *bun.DB
}

// GetAllKeys retrieves all keys from the database.
func (s *SqliteStore) GetAllKeys() ([]model.Key, error) {
	return GetAllKeysBun(s.bun)
}

// GetActiveKeys retrieves all keys with status Active.
func (s *SqliteStore) GetActiveKeys() ([]model.Key, error) {
	return GetActiveKeysBun(s.bun)
}

// GetKeyByName retrieves a single key by its name.
func (s *SqliteStore) GetKeyByName(name string) (*model.Key, error) {
	return GetKeyByNameBun(s.bun, name)
}

// AddKey adds a new key to the database.
func (s *SqliteStore) AddKey(name, description string) error {
	return AddKeyBun(s.bun, name, description)
}

// UpdateKey updates a key's description and status.
func (s *SqliteStore) UpdateKey(name, description string, status model.KeyStatus) error {
	return UpdateKeyBun(s.bun, name, description, status)
}

// DeleteKey removes a key unless it is still checked out.
func (s *SqliteStore) DeleteKey(name string) error {
	return DeleteKeyBun(s.bun, name)
}

// GetAllUsers retrieves all users from the database.
func (s *SqliteStore) GetAllUsers() ([]model.User, error) {
	return GetAllUsersBun(s.bun)
}

// GetUserByID retrieves a user by its numeric ID.
func (s *SqliteStore) GetUserByID(id int) (*model.User, error) {
	return GetUserByIDBun(s.bun, id)
}

// GetUserByUsername retrieves a user by username.
func (s *SqliteStore) GetUserByUsername(username string) (*model.User, error) {
	return GetUserByUsernameBun(s.bun, username)
}

// GetUserPasswordHash retrieves the stored credential hash for a username.
func (s *SqliteStore) GetUserPasswordHash(username string) (string, error) {
	return GetUserPasswordHashBun(s.bun, username)
}

// AddUser adds a new user and returns its ID.
func (s *SqliteStore) AddUser(username, email, displayName, passwordHash string, canLogin bool) (int, error) {
	return AddUserBun(s.bun, username, email, displayName, passwordHash, canLogin)
}

// UpdateUser updates a user's fields; the credential is left untouched.
func (s *SqliteStore) UpdateUser(id int, username, email, displayName string, canLogin bool) error {
	return UpdateUserBun(s.bun, id, username, email, displayName, canLogin)
}

// UpdateUserPasswordHash replaces a user's credential hash.
func (s *SqliteStore) UpdateUserPasswordHash(id int, passwordHash string) error {
	return UpdateUserPasswordHashBun(s.bun, id, passwordHash)
}

// DeleteUser removes a user unless they still have keys checked out.
func (s *SqliteStore) DeleteUser(username string) error {
	return DeleteUserBun(s.bun, username)
}

// GetAllAssignments retrieves the full assignment history.
func (s *SqliteStore) GetAllAssignments() ([]model.Assignment, error) {
	return GetAllAssignmentsBun(s.bun)
}

// GetOpenAssignments retrieves all assignments that have not been returned.
func (s *SqliteStore) GetOpenAssignments() ([]model.Assignment, error) {
	return GetOpenAssignmentsBun(s.bun)
}

// GetAssignmentByID retrieves an assignment by its numeric ID.
func (s *SqliteStore) GetAssignmentByID(id int) (*model.Assignment, error) {
	return GetAssignmentByIDBun(s.bun, id)
}

// FindOpenAssignment returns the open assignment for a (user, key) pairing, if any.
func (s *SqliteStore) FindOpenAssignment(username, keyName string) (*model.Assignment, error) {
	return FindOpenAssignmentBun(s.bun, username, keyName)
}

// AssignKeys creates open assignments for the user x key cross-product.
func (s *SqliteStore) AssignKeys(usernames, keyNames []string, dateOut time.Time) ([]model.AssignOutcome, error) {
	return AssignKeysBun(s.bun, usernames, keyNames, dateOut)
}

// UpdateAssignment overwrites an assignment's mutable fields.
func (s *SqliteStore) UpdateAssignment(a model.Assignment) error {
	return UpdateAssignmentBun(s.bun, a)
}

// DeleteAssignment removes an assignment by ID.
func (s *SqliteStore) DeleteAssignment(id int) error {
	return DeleteAssignmentBun(s.bun, id)
}

// CountOpenAssignmentsForKey counts open assignments referencing a key.
func (s *SqliteStore) CountOpenAssignmentsForKey(keyName string) (int, error) {
	return CountOpenAssignmentsForKeyBun(s.bun, keyName)
}

// CountOpenAssignmentsForUser counts open assignments referencing a user.
func (s *SqliteStore) CountOpenAssignmentsForUser(username string) (int, error) {
	return CountOpenAssignmentsForUserBun(s.bun, username)
}
