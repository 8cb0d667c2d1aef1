// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds credential primitives: the redacting Secret wrapper
// and bcrypt password hashing/verification.
package security
