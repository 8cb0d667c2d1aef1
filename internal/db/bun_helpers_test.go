// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/uptrace/bun"
)

func TestExecRawAndQueryRawInto(t *testing.T) {
	_ = newTestDB(t)
	s, ok := Default().(*SqliteStore)
	if !ok {
		t.Fatalf("expected a SqliteStore, got %T", Default())
	}

	ctx := context.Background()
	if _, err := ExecRaw(ctx, s.bun, "INSERT INTO keys (name, description, status) VALUES (?, ?, ?)", "raw-key", "", "Active"); err != nil {
		t.Fatalf("ExecRaw failed: %v", err)
	}

	var count int
	if err := QueryRawInto(ctx, s.bun, &count, "SELECT COUNT(*) FROM keys WHERE name = ?", "raw-key"); err != nil {
		t.Fatalf("QueryRawInto failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 raw-inserted key, got %d", count)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	_ = newTestDB(t)
	s, ok := Default().(*SqliteStore)
	if !ok {
		t.Fatalf("expected a SqliteStore, got %T", Default())
	}

	boom := errors.New("boom")
	err := WithTx(context.Background(), s.bun, func(ctx context.Context, tx bun.Tx) error {
		if _, err := ExecRaw(ctx, tx, "INSERT INTO keys (name, description, status) VALUES (?, ?, ?)", "doomed", "", "Active"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	k, err := s.GetKeyByName("doomed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k != nil {
		t.Fatalf("expected rollback to discard the insert, got %+v", k)
	}
}
