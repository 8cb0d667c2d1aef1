// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads Keydepot configuration from YAML files, environment
// variables and command-line flags via viper.
package config
