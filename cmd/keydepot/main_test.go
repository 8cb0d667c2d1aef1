// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/toeirei/keydepot/internal/db"
	"github.com/toeirei/keydepot/internal/ledger"
	"github.com/toeirei/keydepot/internal/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func newTestDepot(t *testing.T) {
	t.Helper()
	dsn := "file:test_cmd_" + t.Name() + "?mode=memory&cache=shared"
	if err := db.InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	if !db.IsInitialized() {
		t.Fatalf("expected store to be initialized")
	}
	depot = ledger.New(db.Default())
}

func tempOut(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestNewRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "db-type", "db-dsn", "lang", "debug"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Fatalf("expected persistent flag %q to be defined", name)
		}
	}
	for _, sub := range []string{"key", "user", "assign", "assignment", "return", "holdings", "maintenance"} {
		found := false
		for _, c := range cmd.Commands() {
			if c.Name() == sub {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected subcommand %q to be registered", sub)
		}
	}
}

func TestRootPreRun_KeepsInitErrorVerbatim(t *testing.T) {
	viper.Set("database.type", "bogus%s")
	viper.Set("database.dsn", "./nowhere.db")
	t.Cleanup(func() {
		viper.Set("database.type", "sqlite")
		viper.Set("database.dsn", "./keydepot.db")
	})

	cmd := newRootCmd()
	err := cmd.PersistentPreRunE(cmd, nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered driver")
	}
	// The driver name carries a format verb; it must survive untouched.
	if !strings.Contains(err.Error(), "bogus%s") {
		t.Fatalf("expected the driver name verbatim in the error, got %v", err)
	}
	if strings.Contains(err.Error(), "MISSING") {
		t.Fatalf("error text was re-interpreted as a format string: %v", err)
	}
}

func TestConfirmDelete_Declined(t *testing.T) {
	newTestDepot(t)
	if _, err := depot.CreateKey("front-door", ""); err != nil {
		t.Fatalf("seeding key failed: %v", err)
	}

	in := bufio.NewReader(strings.NewReader("n\n"))
	if err := confirmDelete(ledger.KindKey, "front-door", in, tempOut(t)); err != nil {
		t.Fatalf("a declined delete is not an error: %v", err)
	}
	if _, err := depot.FindKey("front-door"); err != nil {
		t.Fatalf("declined delete must keep the key: %v", err)
	}
}

func TestConfirmDelete_Accepted(t *testing.T) {
	newTestDepot(t)
	if _, err := depot.CreateKey("garage", ""); err != nil {
		t.Fatalf("seeding key failed: %v", err)
	}

	in := bufio.NewReader(strings.NewReader("y\n"))
	if err := confirmDelete(ledger.KindKey, "garage", in, tempOut(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := depot.FindKey("garage"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected key to be gone, got %v", err)
	}
}

func TestConfirmDelete_MissingTarget(t *testing.T) {
	newTestDepot(t)
	in := bufio.NewReader(strings.NewReader("y\n"))
	if err := confirmDelete(ledger.KindKey, "no-such", in, tempOut(t)); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any prompt, got %v", err)
	}
}

func TestConfirmDelete_ConflictSurfacesOnConfirm(t *testing.T) {
	newTestDepot(t)
	if _, err := depot.CreateKey("cellar", ""); err != nil {
		t.Fatalf("seeding key failed: %v", err)
	}
	if _, err := depot.CreateUser(ledger.NewUser{Username: "aaron"}); err != nil {
		t.Fatalf("seeding user failed: %v", err)
	}
	if _, err := depot.Assign([]string{"aaron"}, []string{"cellar"}, mustDate(t, "2025-01-02")); err != nil {
		t.Fatalf("seeding assignment failed: %v", err)
	}

	in := bufio.NewReader(strings.NewReader("yes\n"))
	if err := confirmDelete(ledger.KindKey, "cellar", in, tempOut(t)); !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("expected ErrConflict for a checked-out key, got %v", err)
	}
}
