// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model contains the shared domain types for Keydepot: keys, users,
// assignments, and the derived holdings projection rows.
package model
