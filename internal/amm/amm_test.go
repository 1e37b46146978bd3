package amm_test

import (
	"MintLedger/internal/amm"
	"MintLedger/internal/event"
	"MintLedger/internal/store"
	"MintLedger/internal/testutil"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func newTestRecorder() (*amm.Recorder, *store.Changelog) {
	log := store.NewChangelog()
	return amm.NewRecorder(log), log
}

func TestRecordGaugeTransfer_BothEndpoints(t *testing.T) {
	r, log := newTestRecorder()

	err := r.RecordGaugeTransfer(&event.GaugeTransfer{
		Meta:  testutil.Meta(100, 0),
		Gauge: testutil.Addr(5),
		Pool:  testutil.Addr(6),
		From:  testutil.Addr(10),
		To:    testutil.Addr(11),
		Value: testutil.Big(250),
	})
	if err != nil {
		t.Fatalf("record gauge transfer: %v", err)
	}

	ops := log.Drain()
	if len(ops) != 2 {
		t.Fatalf("staged ops: got %d, want 2", len(ops))
	}

	out := ops[0].Entity.(*amm.LpDeposit)
	if out.Direction != amm.DirectionOut || out.Value.Int64() != -250 {
		t.Errorf("out fact: direction=%d value=%s, want -1/-250", out.Direction, out.Value)
	}
	in := ops[1].Entity.(*amm.LpDeposit)
	if in.Direction != amm.DirectionIn || in.Value.Int64() != 250 {
		t.Errorf("in fact: direction=%d value=%s, want 1/250", in.Direction, in.Value)
	}
}

func TestRecordGaugeTransfer_MintSkipsZeroEndpoint(t *testing.T) {
	r, log := newTestRecorder()

	// A gauge deposit mints shares from the zero address: only the
	// receiving endpoint yields a fact.
	err := r.RecordGaugeTransfer(&event.GaugeTransfer{
		Meta:  testutil.Meta(100, 0),
		Gauge: testutil.Addr(5),
		Pool:  testutil.Addr(6),
		From:  common.Address{},
		To:    testutil.Addr(11),
		Value: testutil.Big(250),
	})
	if err != nil {
		t.Fatalf("record gauge transfer: %v", err)
	}

	ops := log.Drain()
	if len(ops) != 1 {
		t.Fatalf("staged ops: got %d, want 1", len(ops))
	}
	fact := ops[0].Entity.(*amm.LpDeposit)
	if fact.Direction != amm.DirectionIn {
		t.Errorf("direction: got %d, want 1", fact.Direction)
	}
}

func TestRecordRewardClaim_UsesTransferReceiver(t *testing.T) {
	r, log := newTestRecorder()
	pool := testutil.Addr(6)

	err := r.RecordRewardClaim(&event.Transfer{
		Meta:  testutil.Meta(100, 0),
		Token: testutil.Addr(3),
		From:  testutil.Addr(5),
		To:    testutil.Addr(11),
		Value: testutil.Big(40),
	}, pool)
	if err != nil {
		t.Fatalf("record claim: %v", err)
	}

	ops := log.Drain()
	if len(ops) != 1 {
		t.Fatalf("staged ops: got %d, want 1", len(ops))
	}
	claim := ops[0].Entity.(*amm.LpRewardsClaim)
	if claim.Owner != testutil.Addr(11) {
		t.Errorf("owner: got %s, want receiver", claim.Owner.Hex())
	}
	if claim.Pool != pool {
		t.Errorf("pool: got %s, want %s", claim.Pool.Hex(), pool.Hex())
	}
}

func TestRecordExchange_StagesSwapFact(t *testing.T) {
	r, log := newTestRecorder()

	err := r.RecordExchange(&event.TokenExchange{
		Meta:         testutil.Meta(100, 0),
		Pool:         testutil.Addr(6),
		Buyer:        testutil.Addr(12),
		TokenSold:    testutil.Addr(1),
		TokenBought:  testutil.Addr(2),
		AmountSold:   testutil.Big(700),
		AmountBought: testutil.Big(690),
	})
	if err != nil {
		t.Fatalf("record exchange: %v", err)
	}

	ops := log.Drain()
	if len(ops) != 1 {
		t.Fatalf("staged ops: got %d, want 1", len(ops))
	}
	swap := ops[0].Entity.(*amm.LpSwap)
	if swap.ValueFrom.Int64() != 700 || swap.ValueTo.Int64() != 690 {
		t.Errorf("amounts: from=%s to=%s, want 700/690", swap.ValueFrom, swap.ValueTo)
	}
}
