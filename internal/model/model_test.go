// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"testing"
	"time"
)

func TestKeyStatus_Valid(t *testing.T) {
	if !KeyStatusActive.Valid() || !KeyStatusInactive.Valid() {
		t.Fatalf("expected known statuses to be valid")
	}
	if KeyStatus("Lost").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
	if KeyStatus("active").Valid() {
		t.Fatalf("status comparison must be case-sensitive")
	}
}

func TestUser_DisplayFallback(t *testing.T) {
	u := User{Username: "mike"}
	if u.Display() != "mike" {
		t.Fatalf("expected username fallback, got %q", u.Display())
	}
	u.DisplayName = "Mike M."
	if u.Display() != "Mike M." {
		t.Fatalf("expected display name, got %q", u.Display())
	}
}

func TestAssignment_Open(t *testing.T) {
	a := Assignment{Username: "mike", KeyName: "garage"}
	if !a.Open() {
		t.Fatalf("expected assignment without return date to be open")
	}
	in := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	a.DateIn = &in
	if a.Open() {
		t.Fatalf("expected assignment with return date to be closed")
	}
}
