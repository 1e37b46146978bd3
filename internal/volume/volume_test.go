package volume_test

import (
	"MintLedger/internal/event"
	"MintLedger/internal/store"
	"MintLedger/internal/testutil"
	"MintLedger/internal/volume"
	"testing"
)

func newTestAccumulator() (*volume.Accumulator, *store.Changelog) {
	log := store.NewChangelog()
	return volume.NewAccumulator(log), log
}

func TestRecordMint_CountsUSDValueAndRewards(t *testing.T) {
	a, log := newTestAccumulator()

	err := a.RecordMint(&event.MintSwap{
		Meta:        testutil.Meta(100, 0),
		StableOwner: testutil.Addr(10),
		RWAToken:    testutil.Addr(1),
		RWAProvider: testutil.Addr(11),
		Amount:      testutil.Big(5000),
		PriceUSD:    testutil.Big(4900),
		Rewards:     testutil.Big(10),
	})
	if err != nil {
		t.Fatalf("record mint: %v", err)
	}

	value, rewards := a.Total()
	if value.Int64() != 4900 {
		t.Errorf("volume: got %s, want 4900", value)
	}
	if rewards.Int64() != 10 {
		t.Errorf("rewards: got %s, want 10", rewards)
	}

	var facts, totals, snaps int
	for _, op := range log.Drain() {
		switch op.Entity.(type) {
		case *volume.Mint:
			facts++
		case *volume.MintVolume:
			totals++
		case *volume.MintVolumeSnapshot:
			snaps++
		}
	}
	if facts != 1 || totals != 1 || snaps != 1 {
		t.Errorf("staged: facts=%d totals=%d snaps=%d, want 1 each", facts, totals, snaps)
	}
}

func TestRecordSwap_CountsUSDValue(t *testing.T) {
	a, _ := newTestAccumulator()

	if err := a.RecordMint(&event.MintSwap{
		Meta:        testutil.Meta(100, 0),
		StableOwner: testutil.Addr(10),
		RWAToken:    testutil.Addr(1),
		RWAProvider: testutil.Addr(11),
		Amount:      testutil.Big(5000),
		PriceUSD:    testutil.Big(4900),
		Rewards:     testutil.Big(10),
	}); err != nil {
		t.Fatalf("record mint: %v", err)
	}

	if err := a.RecordSwap(&event.Swap{
		Meta:         testutil.Meta(101, 0),
		Owner:        testutil.Addr(12),
		TokenSwapped: testutil.Addr(2),
		Amount:       testutil.Big(300),
		AmountUSD:    testutil.Big(290),
		Rewards:      testutil.Big(5),
	}); err != nil {
		t.Fatalf("record swap: %v", err)
	}

	value, rewards := a.Total()
	if value.Int64() != 5190 {
		t.Errorf("volume: got %s, want 5190", value)
	}
	if rewards.Int64() != 15 {
		t.Errorf("rewards: got %s, want 15", rewards)
	}
}

func TestRecordRedeem_DoesNotCount(t *testing.T) {
	a, log := newTestAccumulator()

	err := a.RecordRedeem(&event.Redeem{
		Meta:               testutil.Meta(100, 0),
		Owner:              testutil.Addr(10),
		CollateralToken:    testutil.Addr(1),
		ReturnedCollateral: testutil.Big(1000),
		Amount:             testutil.Big(980),
		Fee:                testutil.Big(20),
	})
	if err != nil {
		t.Fatalf("record redeem: %v", err)
	}

	value, rewards := a.Total()
	if value.Sign() != 0 || rewards.Sign() != 0 {
		t.Errorf("accumulator moved on redeem: value=%s rewards=%s", value, rewards)
	}

	ops := log.Drain()
	if len(ops) != 1 {
		t.Fatalf("staged ops: got %d, want 1 (fact only)", len(ops))
	}
	if _, ok := ops[0].Entity.(*volume.Redeem); !ok {
		t.Errorf("staged entity: got %T, want *volume.Redeem", ops[0].Entity)
	}
}
