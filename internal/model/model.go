// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "time"

// DateFormat is the canonical date-only layout used for checkout dates.
const DateFormat = "2006-01-02"

// KeyStatus is the lifecycle status of a physical key.
type KeyStatus string

const (
	KeyStatusActive   KeyStatus = "Active"
	KeyStatusInactive KeyStatus = "Inactive"
)

// Valid reports whether s is one of the known key statuses.
func (s KeyStatus) Valid() bool {
	return s == KeyStatusActive || s == KeyStatusInactive
}

// Key represents a single physical key tracked in the inventory.
// The name is the primary key and is immutable once created.
type Key struct {
	Name        string
	Description string
	Status      KeyStatus
}

// User represents a person who can check keys out, and optionally log in.
type User struct {
	ID          int
	Username    string
	Email       string
	DisplayName string
	CanLogin    bool
}

// Display returns the user's display name, falling back to the username.
func (u User) Display() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Assignment records one checkout of a key to a user. A nil DateIn means the
// key is still out (the assignment is "open").
type Assignment struct {
	ID       int
	Username string
	KeyName  string
	DateOut  time.Time
	DateIn   *time.Time
}

// Open reports whether the key has not yet been returned.
func (a Assignment) Open() bool { return a.DateIn == nil }

// AssignOutcome reports the result of a single (user, key) pairing from a
// batch assignment. Skipped pairings already had an open assignment and are
// non-fatal; the rest of the batch still proceeds.
type AssignOutcome struct {
	Username     string
	KeyName      string
	AssignmentID int
	Skipped      bool
}

// Holding is one row of the current-holdings projection: a grouping value
// (user display name or key name) and its comma-joined members.
type Holding struct {
	Group   string
	Members string
}
