// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Keydepot.
// This file contains the MySQL implementation of the database store.
// Note: This implementation is considered experimental. The MySQL DSN should
// include `?parseTime=true&multiStatements=true` so DATE columns scan into
// time.Time and multi-statement migrations apply.
package db // import "github.com/toeirei/keydepot/internal/db"

import (
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/toeirei/keydepot/internal/model"
	"github.com/uptrace/bun"
)

// MySQLStore is the MySQL implementation of the Store interface.
// All operations delegate to the shared, dialect-agnostic Bun adapter.
type MySQLStore struct {
	bun *bun.DB
}

func (s *MySQLStore) GetAllKeys() ([]model.Key, error)             { return GetAllKeysBun(s.bun) }
func (s *MySQLStore) GetActiveKeys() ([]model.Key, error)          { return GetActiveKeysBun(s.bun) }
func (s *MySQLStore) GetKeyByName(name string) (*model.Key, error) { return GetKeyByNameBun(s.bun, name) }

func (s *MySQLStore) AddKey(name, description string) error {
	return AddKeyBun(s.bun, name, description)
}

func (s *MySQLStore) UpdateKey(name, description string, status model.KeyStatus) error {
	return UpdateKeyBun(s.bun, name, description, status)
}

func (s *MySQLStore) DeleteKey(name string) error { return DeleteKeyBun(s.bun, name) }

func (s *MySQLStore) GetAllUsers() ([]model.User, error)      { return GetAllUsersBun(s.bun) }
func (s *MySQLStore) GetUserByID(id int) (*model.User, error) { return GetUserByIDBun(s.bun, id) }

func (s *MySQLStore) GetUserByUsername(username string) (*model.User, error) {
	return GetUserByUsernameBun(s.bun, username)
}

func (s *MySQLStore) GetUserPasswordHash(username string) (string, error) {
	return GetUserPasswordHashBun(s.bun, username)
}

func (s *MySQLStore) AddUser(username, email, displayName, passwordHash string, canLogin bool) (int, error) {
	return AddUserBun(s.bun, username, email, displayName, passwordHash, canLogin)
}

func (s *MySQLStore) UpdateUser(id int, username, email, displayName string, canLogin bool) error {
	return UpdateUserBun(s.bun, id, username, email, displayName, canLogin)
}

func (s *MySQLStore) UpdateUserPasswordHash(id int, passwordHash string) error {
	return UpdateUserPasswordHashBun(s.bun, id, passwordHash)
}

func (s *MySQLStore) DeleteUser(username string) error { return DeleteUserBun(s.bun, username) }

func (s *MySQLStore) GetAllAssignments() ([]model.Assignment, error) {
	return GetAllAssignmentsBun(s.bun)
}

func (s *MySQLStore) GetOpenAssignments() ([]model.Assignment, error) {
	return GetOpenAssignmentsBun(s.bun)
}

func (s *MySQLStore) GetAssignmentByID(id int) (*model.Assignment, error) {
	return GetAssignmentByIDBun(s.bun, id)
}

func (s *MySQLStore) FindOpenAssignment(username, keyName string) (*model.Assignment, error) {
	return FindOpenAssignmentBun(s.bun, username, keyName)
}

func (s *MySQLStore) AssignKeys(usernames, keyNames []string, dateOut time.Time) ([]model.AssignOutcome, error) {
	return AssignKeysBun(s.bun, usernames, keyNames, dateOut)
}

func (s *MySQLStore) UpdateAssignment(a model.Assignment) error {
	return UpdateAssignmentBun(s.bun, a)
}

func (s *MySQLStore) DeleteAssignment(id int) error { return DeleteAssignmentBun(s.bun, id) }

func (s *MySQLStore) CountOpenAssignmentsForKey(keyName string) (int, error) {
	return CountOpenAssignmentsForKeyBun(s.bun, keyName)
}

func (s *MySQLStore) CountOpenAssignmentsForUser(username string) (int, error) {
	return CountOpenAssignmentsForUserBun(s.bun, username)
}
