// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db implements the persistence layer for Keydepot: a Store interface
// with SQLite, PostgreSQL and MySQL backends built on Bun, plus embedded
// schema migrations and engine maintenance helpers.
package db
