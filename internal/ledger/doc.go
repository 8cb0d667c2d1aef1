// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ledger is the assignment ledger for Keydepot: the one place that
// knows the rules for creating, mutating and deleting keys, users and
// assignments, and for deriving the current-holdings projection from the
// checkout history.
package ledger
