package persistence_test

import (
	"MintLedger/internal/ledger"
	"MintLedger/internal/persistence"
	"MintLedger/internal/store"
	"MintLedger/internal/testutil"
	"context"
	"testing"
)

func TestApplyOutput_WritesRowsAndCursor(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	migrator := persistence.NewMigrator(db, "../../migrations")
	if err := migrator.Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	writer := persistence.NewRowWriter(db)

	token := testutil.Addr(1)
	alice := testutil.Addr(10)
	out := persistence.Output{
		Ref:         "100/0",
		EventType:   "Transfer",
		BlockNumber: 100,
		LogIndex:    0,
		Ops: []store.Op{
			{Kind: store.OpUpsert, Entity: &ledger.TokenBalance{Token: token, Owner: alice, Value: testutil.Big(500)}},
			{Kind: store.OpUpsert, Entity: &ledger.TokenSupply{Token: token, Value: testutil.Big(500)}},
		},
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := writer.ApplyOutput(ctx, tx, out); err != nil {
		tx.Rollback()
		t.Fatalf("apply: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var value string
	err = db.QueryRowContext(ctx, `
		SELECT value FROM token_balances WHERE token = $1 AND owner = $2
	`, token.Hex(), alice.Hex()).Scan(&value)
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}
	if value != "500" {
		t.Errorf("balance: got %q, want %q", value, "500")
	}

	blockNumber, logIndex, found, err := writer.LoadCursor(ctx)
	if err != nil {
		t.Fatalf("load cursor: %v", err)
	}
	if !found {
		t.Fatal("cursor should exist")
	}
	if blockNumber != 100 || logIndex != 0 {
		t.Errorf("cursor: got %d/%d, want 100/0", blockNumber, logIndex)
	}
}

func TestApplyOutput_UpsertIsIdempotent(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	migrator := persistence.NewMigrator(db, "../../migrations")
	if err := migrator.Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	writer := persistence.NewRowWriter(db)
	token := testutil.Addr(1)
	alice := testutil.Addr(10)

	apply := func(value int64, block uint64) {
		t.Helper()
		out := persistence.Output{
			Ref:         "replay",
			EventType:   "Transfer",
			BlockNumber: block,
			LogIndex:    0,
			Ops: []store.Op{
				{Kind: store.OpUpsert, Entity: &ledger.TokenBalance{Token: token, Owner: alice, Value: testutil.Big(value)}},
			},
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := writer.ApplyOutput(ctx, tx, out); err != nil {
			tx.Rollback()
			t.Fatalf("apply: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	apply(500, 100)
	apply(700, 101)

	var value string
	if err := db.QueryRowContext(ctx, `
		SELECT value FROM token_balances WHERE token = $1 AND owner = $2
	`, token.Hex(), alice.Hex()).Scan(&value); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	if value != "700" {
		t.Errorf("balance: got %q, want %q (last write wins)", value, "700")
	}
}
