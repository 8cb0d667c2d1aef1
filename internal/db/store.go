// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"time"

	"github.com/toeirei/keydepot/internal/model"
)

// Store defines the interface for all database operations in Keydepot.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Key methods
	GetAllKeys() ([]model.Key, error)
	GetActiveKeys() ([]model.Key, error)
	GetKeyByName(name string) (*model.Key, error)
	AddKey(name, description string) error
	UpdateKey(name, description string, status model.KeyStatus) error
	DeleteKey(name string) error

	// User methods
	GetAllUsers() ([]model.User, error)
	GetUserByID(id int) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserPasswordHash(username string) (string, error)
	AddUser(username, email, displayName, passwordHash string, canLogin bool) (int, error)
	UpdateUser(id int, username, email, displayName string, canLogin bool) error
	UpdateUserPasswordHash(id int, passwordHash string) error
	DeleteUser(username string) error

	// Assignment methods
	GetAllAssignments() ([]model.Assignment, error)
	GetOpenAssignments() ([]model.Assignment, error)
	GetAssignmentByID(id int) (*model.Assignment, error)
	FindOpenAssignment(username, keyName string) (*model.Assignment, error)
	AssignKeys(usernames, keyNames []string, dateOut time.Time) ([]model.AssignOutcome, error)
	UpdateAssignment(a model.Assignment) error
	DeleteAssignment(id int) error
	CountOpenAssignmentsForKey(keyName string) (int, error)
	CountOpenAssignmentsForUser(username string) (int, error)
}
