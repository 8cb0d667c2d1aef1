// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Keydepot.
// This file contains the PostgreSQL implementation of the database store.
// Note: This implementation is considered experimental.
package db // import "github.com/toeirei/keydepot/internal/db"

import (
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/toeirei/keydepot/internal/model"
	"github.com/uptrace/bun"
)

// PostgresStore is the PostgreSQL implementation of the Store interface.
// All operations delegate to the shared, dialect-agnostic Bun adapter.
type PostgresStore struct {
	bun *bun.DB
}

func (s *PostgresStore) GetAllKeys() ([]model.Key, error)             { return GetAllKeysBun(s.bun) }
func (s *PostgresStore) GetActiveKeys() ([]model.Key, error)          { return GetActiveKeysBun(s.bun) }
func (s *PostgresStore) GetKeyByName(name string) (*model.Key, error) { return GetKeyByNameBun(s.bun, name) }

func (s *PostgresStore) AddKey(name, description string) error {
	return AddKeyBun(s.bun, name, description)
}

func (s *PostgresStore) UpdateKey(name, description string, status model.KeyStatus) error {
	return UpdateKeyBun(s.bun, name, description, status)
}

func (s *PostgresStore) DeleteKey(name string) error { return DeleteKeyBun(s.bun, name) }

func (s *PostgresStore) GetAllUsers() ([]model.User, error)       { return GetAllUsersBun(s.bun) }
func (s *PostgresStore) GetUserByID(id int) (*model.User, error)  { return GetUserByIDBun(s.bun, id) }

func (s *PostgresStore) GetUserByUsername(username string) (*model.User, error) {
	return GetUserByUsernameBun(s.bun, username)
}

func (s *PostgresStore) GetUserPasswordHash(username string) (string, error) {
	return GetUserPasswordHashBun(s.bun, username)
}

func (s *PostgresStore) AddUser(username, email, displayName, passwordHash string, canLogin bool) (int, error) {
	return AddUserBun(s.bun, username, email, displayName, passwordHash, canLogin)
}

func (s *PostgresStore) UpdateUser(id int, username, email, displayName string, canLogin bool) error {
	return UpdateUserBun(s.bun, id, username, email, displayName, canLogin)
}

func (s *PostgresStore) UpdateUserPasswordHash(id int, passwordHash string) error {
	return UpdateUserPasswordHashBun(s.bun, id, passwordHash)
}

func (s *PostgresStore) DeleteUser(username string) error { return DeleteUserBun(s.bun, username) }

func (s *PostgresStore) GetAllAssignments() ([]model.Assignment, error) {
	return GetAllAssignmentsBun(s.bun)
}

func (s *PostgresStore) GetOpenAssignments() ([]model.Assignment, error) {
	return GetOpenAssignmentsBun(s.bun)
}

func (s *PostgresStore) GetAssignmentByID(id int) (*model.Assignment, error) {
	return GetAssignmentByIDBun(s.bun, id)
}

func (s *PostgresStore) FindOpenAssignment(username, keyName string) (*model.Assignment, error) {
	return FindOpenAssignmentBun(s.bun, username, keyName)
}

func (s *PostgresStore) AssignKeys(usernames, keyNames []string, dateOut time.Time) ([]model.AssignOutcome, error) {
	return AssignKeysBun(s.bun, usernames, keyNames, dateOut)
}

func (s *PostgresStore) UpdateAssignment(a model.Assignment) error {
	return UpdateAssignmentBun(s.bun, a)
}

func (s *PostgresStore) DeleteAssignment(id int) error { return DeleteAssignmentBun(s.bun, id) }

func (s *PostgresStore) CountOpenAssignmentsForKey(keyName string) (int, error) {
	return CountOpenAssignmentsForKeyBun(s.bun, keyName)
}

func (s *PostgresStore) CountOpenAssignmentsForUser(username string) (int, error) {
	return CountOpenAssignmentsForUserBun(s.bun, username)
}
