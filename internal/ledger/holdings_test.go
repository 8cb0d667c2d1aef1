// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package ledger

import (
	"errors"
	"testing"
)

func seedHoldings(t *testing.T, l *Ledger) {
	t.Helper()
	if _, err := l.CreateUser(NewUser{Username: "aaron", DisplayName: "Aaron A."}); err != nil {
		t.Fatalf("seeding aaron failed: %v", err)
	}
	if _, err := l.CreateUser(NewUser{Username: "mike"}); err != nil {
		t.Fatalf("seeding mike failed: %v", err)
	}
	for _, k := range []string{"front-door", "garage", "mailbox"} {
		seedKey(t, l, k)
	}

	out := mustDate(t, "2025-01-02")
	if _, err := l.Assign([]string{"aaron"}, []string{"front-door", "garage"}, out); err != nil {
		t.Fatalf("seeding aaron's checkouts failed: %v", err)
	}
	if _, err := l.Assign([]string{"mike"}, []string{"front-door", "mailbox"}, out); err != nil {
		t.Fatalf("seeding mike's checkouts failed: %v", err)
	}

	// Close mike/mailbox; it must disappear from the projection.
	a, err := l.store.FindOpenAssignment("mike", "mailbox")
	if err != nil || a == nil {
		t.Fatalf("expected open mike/mailbox assignment: %v, %v", a, err)
	}
	if _, err := l.ReturnAssignment(a.ID, mustDate(t, "2025-01-03")); err != nil {
		t.Fatalf("closing mike/mailbox failed: %v", err)
	}
}

func TestCurrentHoldings_ByUser(t *testing.T) {
	l := newTestLedger(t)
	seedHoldings(t, l)

	holdings, err := l.CurrentHoldings(ByUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("expected 2 groups, got %+v", holdings)
	}
	// Groups ascend by username; members ascend within the group.
	if holdings[0].Group != "Aaron A." || holdings[0].Members != "front-door, garage" {
		t.Fatalf("unexpected first group: %+v", holdings[0])
	}
	if holdings[1].Group != "mike" || holdings[1].Members != "front-door" {
		t.Fatalf("unexpected second group: %+v", holdings[1])
	}
}

func TestCurrentHoldings_ByKey(t *testing.T) {
	l := newTestLedger(t)
	seedHoldings(t, l)

	holdings, err := l.CurrentHoldings(ByKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("expected 2 groups (mailbox is back in), got %+v", holdings)
	}
	if holdings[0].Group != "front-door" || holdings[0].Members != "Aaron A., mike" {
		t.Fatalf("unexpected first group: %+v", holdings[0])
	}
	if holdings[1].Group != "garage" || holdings[1].Members != "Aaron A." {
		t.Fatalf("unexpected second group: %+v", holdings[1])
	}
}

func TestCurrentHoldings_OrdersByUsernameNotDisplayName(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.CreateUser(NewUser{Username: "zoe", DisplayName: "Abby Z."}); err != nil {
		t.Fatalf("seeding zoe failed: %v", err)
	}
	if _, err := l.CreateUser(NewUser{Username: "mike"}); err != nil {
		t.Fatalf("seeding mike failed: %v", err)
	}
	seedKey(t, l, "front-door")
	seedKey(t, l, "garage")

	out := mustDate(t, "2025-01-02")
	if _, err := l.Assign([]string{"zoe", "mike"}, []string{"front-door"}, out); err != nil {
		t.Fatalf("seeding front-door checkouts failed: %v", err)
	}
	if _, err := l.Assign([]string{"zoe"}, []string{"garage"}, out); err != nil {
		t.Fatalf("seeding garage checkout failed: %v", err)
	}

	// "Abby Z." would sort before "mike", but usernames decide the order.
	holdings, err := l.CurrentHoldings(ByUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holdings) != 2 || holdings[0].Group != "mike" || holdings[1].Group != "Abby Z." {
		t.Fatalf("expected username-ordered groups [mike, Abby Z.], got %+v", holdings)
	}
	if holdings[1].Members != "front-door, garage" {
		t.Fatalf("unexpected members for zoe: %+v", holdings[1])
	}

	// Same rule for members of a key group.
	holdings, err = l.CurrentHoldings(ByKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holdings) != 2 || holdings[0].Group != "front-door" {
		t.Fatalf("expected front-door first, got %+v", holdings)
	}
	if holdings[0].Members != "mike, Abby Z." {
		t.Fatalf("expected username-ordered members, got %+v", holdings[0])
	}
}

func TestCurrentHoldings_EmptyAndInvalid(t *testing.T) {
	l := newTestLedger(t)

	holdings, err := l.CurrentHoldings(ByUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holdings) != 0 {
		t.Fatalf("expected empty projection, got %+v", holdings)
	}

	if _, err := l.CurrentHoldings(Sort("by_moon_phase")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown sort, got %v", err)
	}
}
