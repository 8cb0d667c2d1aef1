// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/toeirei/keydepot/internal/logging"

// dbLogf routes db diagnostics through the application logger's debug level,
// so they only appear when debug logging is enabled.
func dbLogf(format string, v ...any) {
	logging.Debugf(format, v...)
}
