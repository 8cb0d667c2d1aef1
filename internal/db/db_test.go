// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/toeirei/keydepot/internal/model"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	return dsn
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func TestInitDB_Migrations_Applied(t *testing.T) {
	dsn := newTestDB(t)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sql.DB for inspection: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	rows, err := sqlDB.Query("PRAGMA table_info(schema_migrations)")
	if err != nil {
		t.Fatalf("failed to query schema_migrations table info: %v", err)
	}
	defer func() { _ = rows.Close() }()

	foundAppliedAt := false
	for rows.Next() {
		var cid int
		var name string
		var typ string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("failed scanning pragma row: %v", err)
		}
		if name == "applied_at" {
			foundAppliedAt = true
			break
		}
	}
	if !foundAppliedAt {
		t.Fatalf("expected schema_migrations.applied_at column to exist after migrations")
	}
}

func TestKey_AddDuplicate(t *testing.T) {
	_ = newTestDB(t)
	st := Default()

	if err := st.AddKey("front-door", "main entrance"); err != nil {
		t.Fatalf("unexpected error adding key: %v", err)
	}
	err := st.AddKey("front-door", "again")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	k, err := st.GetKeyByName("front-door")
	if err != nil {
		t.Fatalf("unexpected error fetching key: %v", err)
	}
	if k.Status != model.KeyStatusActive {
		t.Fatalf("expected new key to default to Active, got %q", k.Status)
	}
	if k.Description != "main entrance" {
		t.Fatalf("duplicate add must not overwrite, got description %q", k.Description)
	}
}

func TestKey_UpdateAndMissing(t *testing.T) {
	_ = newTestDB(t)
	st := Default()

	if err := st.AddKey("garage", ""); err != nil {
		t.Fatalf("unexpected error adding key: %v", err)
	}
	if err := st.UpdateKey("garage", "side garage", model.KeyStatusInactive); err != nil {
		t.Fatalf("unexpected error updating key: %v", err)
	}
	k, err := st.GetKeyByName("garage")
	if err != nil {
		t.Fatalf("unexpected error fetching key: %v", err)
	}
	if k.Status != model.KeyStatusInactive || k.Description != "side garage" {
		t.Fatalf("update not persisted: %+v", k)
	}

	if err := st.UpdateKey("no-such-key", "", model.KeyStatusActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if missing, err := st.GetKeyByName("no-such-key"); err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing key, got %v, %v", missing, err)
	}
}

func TestKey_GetActiveKeys(t *testing.T) {
	_ = newTestDB(t)
	st := Default()

	for _, name := range []string{"cellar", "attic"} {
		if err := st.AddKey(name, ""); err != nil {
			t.Fatalf("unexpected error adding key: %v", err)
		}
	}
	if err := st.UpdateKey("attic", "", model.KeyStatusInactive); err != nil {
		t.Fatalf("unexpected error updating key: %v", err)
	}

	active, err := st.GetActiveKeys()
	if err != nil {
		t.Fatalf("unexpected error listing active keys: %v", err)
	}
	if len(active) != 1 || active[0].Name != "cellar" {
		t.Fatalf("expected only 'cellar' to be active, got %+v", active)
	}
}

func TestUser_AddDuplicates(t *testing.T) {
	_ = newTestDB(t)
	st := Default()

	id, err := st.AddUser("alice", "alice@example.com", "Alice A.", "", false)
	if err != nil {
		t.Fatalf("unexpected error adding user: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected a positive generated id, got %d", id)
	}

	if _, err := st.AddUser("alice", "other@example.com", "", "", false); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on username, got %v", err)
	}
	if _, err := st.AddUser("alice2", "alice@example.com", "", "", false); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on email, got %v", err)
	}

	// Empty emails map to NULL and must not collide with each other.
	if _, err := st.AddUser("bob", "", "", "", false); err != nil {
		t.Fatalf("unexpected error adding user without email: %v", err)
	}
	if _, err := st.AddUser("carol", "", "", "", false); err != nil {
		t.Fatalf("expected second empty email to be allowed, got %v", err)
	}
}

func TestUser_UpdateSelfCollision(t *testing.T) {
	_ = newTestDB(t)
	st := Default()

	id, err := st.AddUser("dave", "dave@example.com", "Dave", "", true)
	if err != nil {
		t.Fatalf("unexpected error adding user: %v", err)
	}

	// Re-saving a user with its own username/email is not a duplicate.
	if err := st.UpdateUser(id, "dave", "dave@example.com", "David", true); err != nil {
		t.Fatalf("expected self-update to succeed, got %v", err)
	}
	u, err := st.GetUserByID(id)
	if err != nil {
		t.Fatalf("unexpected error fetching user: %v", err)
	}
	if u.DisplayName != "David" {
		t.Fatalf("update not persisted: %+v", u)
	}

	if _, err := st.AddUser("erin", "erin@example.com", "", "", false); err != nil {
		t.Fatalf("unexpected error adding user: %v", err)
	}
	if err := st.UpdateUser(id, "erin", "dave@example.com", "", true); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate when taking another user's name, got %v", err)
	}
}

func TestUser_PasswordHashRoundTrip(t *testing.T) {
	_ = newTestDB(t)
	st := Default()

	id, err := st.AddUser("frank", "", "", "initial-hash", true)
	if err != nil {
		t.Fatalf("unexpected error adding user: %v", err)
	}
	hash, err := st.GetUserPasswordHash("frank")
	if err != nil {
		t.Fatalf("unexpected error fetching hash: %v", err)
	}
	if hash != "initial-hash" {
		t.Fatalf("expected stored hash, got %q", hash)
	}

	if err := st.UpdateUserPasswordHash(id, "rotated-hash"); err != nil {
		t.Fatalf("unexpected error rotating hash: %v", err)
	}
	hash, err = st.GetUserPasswordHash("frank")
	if err != nil {
		t.Fatalf("unexpected error fetching hash: %v", err)
	}
	if hash != "rotated-hash" {
		t.Fatalf("expected rotated hash, got %q", hash)
	}

	if err := st.UpdateUserPasswordHash(99999, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user id, got %v", err)
	}
}

func seedAssignFixtures(t *testing.T, st Store) {
	t.Helper()
	for _, name := range []string{"front-door", "garage"} {
		if err := st.AddKey(name, ""); err != nil {
			t.Fatalf("unexpected error adding key: %v", err)
		}
	}
	for _, name := range []string{"aaron", "mike"} {
		if _, err := st.AddUser(name, "", "", "", false); err != nil {
			t.Fatalf("unexpected error adding user: %v", err)
		}
	}
}

func TestAssignKeys_CrossProduct(t *testing.T) {
	_ = newTestDB(t)
	st := Default()
	seedAssignFixtures(t, st)

	out := mustDate(t, "2025-01-02")
	outcomes, err := st.AssignKeys([]string{"aaron", "mike"}, []string{"front-door", "garage"}, out)
	if err != nil {
		t.Fatalf("unexpected error assigning: %v", err)
	}
	if len(outcomes) != 4 {
		t.Fatalf("expected 4 outcomes for 2x2 batch, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Skipped {
			t.Fatalf("no pairing should be skipped on first assign: %+v", o)
		}
		if o.AssignmentID == 0 {
			t.Fatalf("expected assignment id on created outcome: %+v", o)
		}
	}

	open, err := st.GetOpenAssignments()
	if err != nil {
		t.Fatalf("unexpected error listing open assignments: %v", err)
	}
	if len(open) != 4 {
		t.Fatalf("expected 4 open assignments, got %d", len(open))
	}
}

func TestAssignKeys_SkipsOpenPairings(t *testing.T) {
	_ = newTestDB(t)
	st := Default()
	seedAssignFixtures(t, st)

	out := mustDate(t, "2025-01-02")
	if _, err := st.AssignKeys([]string{"aaron"}, []string{"front-door"}, out); err != nil {
		t.Fatalf("unexpected error on first assign: %v", err)
	}

	outcomes, err := st.AssignKeys([]string{"aaron", "mike"}, []string{"front-door"}, out)
	if err != nil {
		t.Fatalf("unexpected error on second assign: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	var skipped, created int
	for _, o := range outcomes {
		if o.Skipped {
			skipped++
			if o.Username != "aaron" {
				t.Fatalf("expected aaron's pairing to be skipped, got %+v", o)
			}
		} else {
			created++
		}
	}
	if skipped != 1 || created != 1 {
		t.Fatalf("expected 1 skipped + 1 created, got %d/%d", skipped, created)
	}

	// A returned key can be checked out again.
	a, err := st.FindOpenAssignment("aaron", "front-door")
	if err != nil || a == nil {
		t.Fatalf("expected an open assignment for aaron/front-door, got %v, %v", a, err)
	}
	in := mustDate(t, "2025-01-05")
	a.DateIn = &in
	if err := st.UpdateAssignment(*a); err != nil {
		t.Fatalf("unexpected error closing assignment: %v", err)
	}

	outcomes, err = st.AssignKeys([]string{"aaron"}, []string{"front-door"}, mustDate(t, "2025-01-06"))
	if err != nil {
		t.Fatalf("unexpected error on re-assign: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Skipped {
		t.Fatalf("expected a fresh assignment after return, got %+v", outcomes)
	}
}

func TestFindOpenAssignment_IgnoresClosed(t *testing.T) {
	_ = newTestDB(t)
	st := Default()
	seedAssignFixtures(t, st)

	out := mustDate(t, "2025-02-01")
	outcomes, err := st.AssignKeys([]string{"mike"}, []string{"garage"}, out)
	if err != nil {
		t.Fatalf("unexpected error assigning: %v", err)
	}

	a, err := st.GetAssignmentByID(outcomes[0].AssignmentID)
	if err != nil {
		t.Fatalf("unexpected error fetching assignment: %v", err)
	}
	in := mustDate(t, "2025-02-03")
	a.DateIn = &in
	if err := st.UpdateAssignment(*a); err != nil {
		t.Fatalf("unexpected error closing assignment: %v", err)
	}

	if found, err := st.FindOpenAssignment("mike", "garage"); err != nil || found != nil {
		t.Fatalf("expected no open assignment once closed, got %v, %v", found, err)
	}
}

func TestDeleteKey_BlockedByOpenAssignment(t *testing.T) {
	_ = newTestDB(t)
	st := Default()
	seedAssignFixtures(t, st)

	out := mustDate(t, "2025-03-01")
	outcomes, err := st.AssignKeys([]string{"aaron"}, []string{"front-door"}, out)
	if err != nil {
		t.Fatalf("unexpected error assigning: %v", err)
	}

	if err := st.DeleteKey("front-door"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while key is out, got %v", err)
	}
	n, err := st.CountOpenAssignmentsForKey("front-door")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 open assignment for key, got %d (%v)", n, err)
	}

	a, err := st.GetAssignmentByID(outcomes[0].AssignmentID)
	if err != nil {
		t.Fatalf("unexpected error fetching assignment: %v", err)
	}
	in := mustDate(t, "2025-03-02")
	a.DateIn = &in
	if err := st.UpdateAssignment(*a); err != nil {
		t.Fatalf("unexpected error closing assignment: %v", err)
	}

	// A closed history row no longer blocks deletion, and survives it.
	if err := st.DeleteKey("front-door"); err != nil {
		t.Fatalf("expected delete to succeed after return, got %v", err)
	}
	kept, err := st.GetAssignmentByID(outcomes[0].AssignmentID)
	if err != nil {
		t.Fatalf("closed assignment should outlive the key row: %v", err)
	}
	if kept.KeyName != "front-door" {
		t.Fatalf("history row lost its key name: %+v", kept)
	}
}

func TestDeleteUser_BlockedByOpenAssignment(t *testing.T) {
	_ = newTestDB(t)
	st := Default()
	seedAssignFixtures(t, st)

	out := mustDate(t, "2025-03-01")
	if _, err := st.AssignKeys([]string{"mike"}, []string{"garage"}, out); err != nil {
		t.Fatalf("unexpected error assigning: %v", err)
	}

	if err := st.DeleteUser("mike"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while user holds keys, got %v", err)
	}
	n, err := st.CountOpenAssignmentsForUser("mike")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 open assignment for user, got %d (%v)", n, err)
	}

	if err := st.DeleteUser("aaron"); err != nil {
		t.Fatalf("expected delete of key-free user to succeed, got %v", err)
	}
	if gone, err := st.GetUserByUsername("aaron"); err != nil || gone != nil {
		t.Fatalf("expected aaron to be gone, got %v, %v", gone, err)
	}
}

func TestDeleteAssignment_RemovesRow(t *testing.T) {
	_ = newTestDB(t)
	st := Default()
	seedAssignFixtures(t, st)

	outcomes, err := st.AssignKeys([]string{"aaron"}, []string{"garage"}, mustDate(t, "2025-04-01"))
	if err != nil {
		t.Fatalf("unexpected error assigning: %v", err)
	}
	id := outcomes[0].AssignmentID

	if err := st.DeleteAssignment(id); err != nil {
		t.Fatalf("unexpected error deleting assignment: %v", err)
	}
	if gone, err := st.GetAssignmentByID(id); err != nil || gone != nil {
		t.Fatalf("expected assignment to be gone, got %v, %v", gone, err)
	}
	if err := st.DeleteAssignment(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
