package book_test

import (
	"MintLedger/internal/book"
	"MintLedger/internal/event"
	"MintLedger/internal/liquidity"
	"MintLedger/internal/store"
	"MintLedger/internal/testutil"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func newTestBook() (*book.Book, *liquidity.Aggregator, *store.Changelog) {
	log := store.NewChangelog()
	liq := liquidity.NewAggregator(log)
	return book.New(liq, log), liq, log
}

func liqOf(t *testing.T, liq *liquidity.Aggregator, token common.Address) int64 {
	t.Helper()
	v, _, _ := liq.Value(token)
	return v.Int64()
}

// ============================================================================
// Test: MINT pool lifecycle (Deposit / Withdraw / OfferCreated)
// ============================================================================

func TestDeposit_CreatesPendingOffer(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	offer, ok := b.GetOffer(token, 7)
	if !ok {
		t.Fatal("offer should exist")
	}
	if offer.Side != event.SideMint {
		t.Errorf("side: got %s, want MINT", offer.Side)
	}
	if offer.Status != book.StatusPending {
		t.Errorf("status: got %s, want PENDING", offer.Status)
	}
	if offer.TotalValue.Int64() != 300 || offer.RemainingValue.Int64() != 300 {
		t.Errorf("values: total=%s remaining=%s, want 300/300", offer.TotalValue, offer.RemainingValue)
	}

	comp, ok := b.GetComponent(token, 7, alice)
	if !ok {
		t.Fatal("component should exist")
	}
	if comp.Value.Int64() != 300 {
		t.Errorf("component value: got %s, want 300", comp.Value)
	}

	if got := liqOf(t, liq, token); got != 300 {
		t.Errorf("liquidity: got %d, want 300", got)
	}
}

func TestDeposit_AccumulatesPerCaller(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)
	bob := testutil.Addr(11)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if err := b.Deposit(testutil.Meta(100, 1), token, 7, bob, testutil.Big(200)); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}
	if err := b.Deposit(testutil.Meta(101, 0), token, 7, alice, testutil.Big(100)); err != nil {
		t.Fatalf("alice second deposit: %v", err)
	}

	offer, _ := b.GetOffer(token, 7)
	if offer.TotalValue.Int64() != 600 {
		t.Errorf("total: got %s, want 600", offer.TotalValue)
	}
	comp, _ := b.GetComponent(token, 7, alice)
	if comp.Value.Int64() != 400 {
		t.Errorf("alice component: got %s, want 400", comp.Value)
	}
	if b.ComponentCount(token, 7) != 2 {
		t.Errorf("component count: got %d, want 2", b.ComponentCount(token, 7))
	}
	if got := liqOf(t, liq, token); got != 600 {
		t.Errorf("liquidity: got %d, want 600", got)
	}
}

func TestDeposit_ZeroAmountFails(t *testing.T) {
	b, _, _ := newTestBook()

	err := b.Deposit(testutil.Meta(100, 0), testutil.Addr(1), 7, testutil.Addr(10), testutil.Big(0))
	if err == nil {
		t.Fatal("zero deposit should fail")
	}
}

func TestDeposit_ToOpenOfferFails(t *testing.T) {
	b, _, _ := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := b.OfferCreated(testutil.Meta(101, 0), event.SideMint, token, 7, alice, testutil.Big(0)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	err := b.Deposit(testutil.Meta(102, 0), token, 7, alice, testutil.Big(100))
	if err == nil {
		t.Fatal("deposit to OPEN offer should fail")
	}
}

func TestWithdraw_PartialRemovesComponentWhole(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)
	bob := testutil.Addr(11)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if err := b.Deposit(testutil.Meta(100, 1), token, 7, bob, testutil.Big(200)); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}

	if err := b.Withdraw(testutil.Meta(101, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	offer, _ := b.GetOffer(token, 7)
	if offer.TotalValue.Int64() != 200 {
		t.Errorf("total: got %s, want 200", offer.TotalValue)
	}
	if _, ok := b.GetComponent(token, 7, alice); ok {
		t.Error("alice's component should be gone")
	}
	if _, ok := b.GetComponent(token, 7, bob); !ok {
		t.Error("bob's component should survive")
	}
	if got := liqOf(t, liq, token); got != 200 {
		t.Errorf("liquidity: got %d, want 200", got)
	}
}

func TestWithdraw_FullDrainDeletesOffer(t *testing.T) {
	b, liq, log := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	log.Drain()

	if err := b.Withdraw(testutil.Meta(101, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if _, ok := b.GetOffer(token, 7); ok {
		t.Error("drained offer should be deleted")
	}
	if got := liqOf(t, liq, token); got != 0 {
		t.Errorf("liquidity: got %d, want 0", got)
	}

	var offerDeletes, compDeletes int
	for _, op := range log.Drain() {
		if op.Kind != store.OpDelete {
			continue
		}
		switch op.Entity.(type) {
		case *book.Offer:
			offerDeletes++
		case *book.Component:
			compDeletes++
		}
	}
	if offerDeletes != 1 || compDeletes != 1 {
		t.Errorf("deletes: offer=%d component=%d, want 1 each", offerDeletes, compDeletes)
	}
}

func TestWithdraw_DrainWithSurvivingComponentFails(t *testing.T) {
	b, _, _ := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)
	bob := testutil.Addr(11)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if err := b.Deposit(testutil.Meta(100, 1), token, 7, bob, testutil.Big(200)); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}

	// Alice withdraws the whole pool value, which would drain the offer
	// while bob's component still exists.
	err := b.Withdraw(testutil.Meta(101, 0), token, 7, alice, testutil.Big(500))
	if err == nil {
		t.Fatal("drain with surviving component should fail")
	}
}

func TestWithdraw_OverdrawFails(t *testing.T) {
	b, _, _ := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	err := b.Withdraw(testutil.Meta(101, 0), token, 7, alice, testutil.Big(400))
	if err == nil {
		t.Fatal("overdraw should fail")
	}
}

func TestWithdraw_UnknownOfferFails(t *testing.T) {
	b, _, _ := newTestBook()

	err := b.Withdraw(testutil.Meta(100, 0), testutil.Addr(1), 99, testutil.Addr(10), testutil.Big(100))
	if err == nil {
		t.Fatal("withdraw from unknown offer should fail")
	}
}

func TestOfferCreated_MintPublishesPendingOffer(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := b.OfferCreated(testutil.Meta(101, 0), event.SideMint, token, 7, alice, testutil.Big(0)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	offer, _ := b.GetOffer(token, 7)
	if offer.Status != book.StatusOpen {
		t.Errorf("status: got %s, want OPEN", offer.Status)
	}
	// Publication moves no value.
	if got := liqOf(t, liq, token); got != 300 {
		t.Errorf("liquidity: got %d, want 300", got)
	}
}

func TestOfferCreated_MintWithoutDepositsFails(t *testing.T) {
	b, _, _ := newTestBook()

	err := b.OfferCreated(testutil.Meta(100, 0), event.SideMint, testutil.Addr(1), 7, testutil.Addr(10), testutil.Big(0))
	if err == nil {
		t.Fatal("publishing a never-funded MINT offer should fail")
	}
}

// ============================================================================
// Test: PROVIDE lifecycle (create / modify / take / cancel)
// ============================================================================

func TestOfferCreated_ProvideCreatesWhole(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(2)
	owner := testutil.Addr(10)

	if err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, token, 3, owner, testutil.Big(1000)); err != nil {
		t.Fatalf("create: %v", err)
	}

	offer, ok := b.GetOffer(token, 3)
	if !ok {
		t.Fatal("offer should exist")
	}
	if offer.Side != event.SideProvide || offer.Status != book.StatusOpen {
		t.Errorf("got %s/%s, want PROVIDE/OPEN", offer.Side, offer.Status)
	}
	if b.ComponentCount(token, 3) != 1 {
		t.Errorf("component count: got %d, want 1", b.ComponentCount(token, 3))
	}
	if got := liqOf(t, liq, token); got != 1000 {
		t.Errorf("liquidity: got %d, want 1000", got)
	}
}

func TestOfferCreated_ProvideZeroAmountFails(t *testing.T) {
	b, _, _ := newTestBook()

	err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, testutil.Addr(2), 3, testutil.Addr(10), testutil.Big(0))
	if err == nil {
		t.Fatal("zero-amount PROVIDE create should fail")
	}
}

func TestOfferModified_AdjustsRemainingAndLiquidity(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(2)
	owner := testutil.Addr(10)

	if err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, token, 3, owner, testutil.Big(1000)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := b.OfferModified(testutil.Meta(101, 0), event.SideProvide, token, 3, owner, testutil.Big(600)); err != nil {
		t.Fatalf("modify down: %v", err)
	}

	offer, _ := b.GetOffer(token, 3)
	if offer.RemainingValue.Int64() != 600 {
		t.Errorf("remaining: got %s, want 600", offer.RemainingValue)
	}
	// TotalValue keeps the original placement size.
	if offer.TotalValue.Int64() != 1000 {
		t.Errorf("total: got %s, want 1000", offer.TotalValue)
	}
	if got := liqOf(t, liq, token); got != 600 {
		t.Errorf("liquidity: got %d, want 600", got)
	}

	if err := b.OfferModified(testutil.Meta(102, 0), event.SideProvide, token, 3, owner, testutil.Big(900)); err != nil {
		t.Fatalf("modify up: %v", err)
	}
	if got := liqOf(t, liq, token); got != 900 {
		t.Errorf("liquidity after raise: got %d, want 900", got)
	}
}

func TestOfferModified_ToZeroFails(t *testing.T) {
	b, _, _ := newTestBook()
	token := testutil.Addr(2)
	owner := testutil.Addr(10)

	if err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, token, 3, owner, testutil.Big(1000)); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := b.OfferModified(testutil.Meta(101, 0), event.SideProvide, token, 3, owner, testutil.Big(0))
	if err == nil {
		t.Fatal("modify to zero should fail")
	}
}

func TestOfferModified_WrongOwnerFails(t *testing.T) {
	b, _, _ := newTestBook()
	token := testutil.Addr(2)

	if err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, token, 3, testutil.Addr(10), testutil.Big(1000)); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := b.OfferModified(testutil.Meta(101, 0), event.SideProvide, token, 3, testutil.Addr(11), testutil.Big(600))
	if err == nil {
		t.Fatal("modify by non-owner should fail")
	}
}

func TestOfferModified_WrongSideFails(t *testing.T) {
	b, _, _ := newTestBook()
	token := testutil.Addr(2)
	owner := testutil.Addr(10)

	if err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, token, 3, owner, testutil.Big(1000)); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := b.OfferModified(testutil.Meta(101, 0), event.SideMint, token, 3, owner, testutil.Big(600))
	if err == nil {
		t.Fatal("MINT modify of a PROVIDE offer should fail")
	}
}

func TestOfferTaken_FillsAndReleasesLiquidity(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(2)
	owner := testutil.Addr(10)

	if err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, token, 3, owner, testutil.Big(1000)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := b.OfferTaken(testutil.Meta(101, 0), event.SideProvide, token, 3, owner); err != nil {
		t.Fatalf("take: %v", err)
	}

	offer, _ := b.GetOffer(token, 3)
	if offer.Status != book.StatusFilled {
		t.Errorf("status: got %s, want FILLED", offer.Status)
	}
	if offer.RemainingValue.Sign() != 0 {
		t.Errorf("remaining: got %s, want 0", offer.RemainingValue)
	}
	if got := liqOf(t, liq, token); got != 0 {
		t.Errorf("liquidity: got %d, want 0", got)
	}
}

func TestOfferTaken_TwiceFails(t *testing.T) {
	b, _, _ := newTestBook()
	token := testutil.Addr(2)
	owner := testutil.Addr(10)

	if err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, token, 3, owner, testutil.Big(1000)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := b.OfferTaken(testutil.Meta(101, 0), event.SideProvide, token, 3, owner); err != nil {
		t.Fatalf("take: %v", err)
	}

	err := b.OfferTaken(testutil.Meta(102, 0), event.SideProvide, token, 3, owner)
	if err == nil {
		t.Fatal("taking a FILLED offer should fail")
	}
}

func TestOfferCancelled_RetainsRemainingValue(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(2)
	owner := testutil.Addr(10)

	if err := b.OfferCreated(testutil.Meta(100, 0), event.SideProvide, token, 3, owner, testutil.Big(1000)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := b.OfferModified(testutil.Meta(101, 0), event.SideProvide, token, 3, owner, testutil.Big(400)); err != nil {
		t.Fatalf("modify: %v", err)
	}
	if err := b.OfferCancelled(testutil.Meta(102, 0), event.SideProvide, token, 3, owner); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	offer, _ := b.GetOffer(token, 3)
	if offer.Status != book.StatusCancelled {
		t.Errorf("status: got %s, want CANCELLED", offer.Status)
	}
	// The row keeps what was left when the offer was pulled.
	if offer.RemainingValue.Int64() != 400 {
		t.Errorf("remaining: got %s, want 400", offer.RemainingValue)
	}
	if got := liqOf(t, liq, token); got != 0 {
		t.Errorf("liquidity: got %d, want 0", got)
	}
}

// ============================================================================
// Test: MINT lifecycle through open/take with pooled components
// ============================================================================

func TestMintOffer_FullLifecycle(t *testing.T) {
	b, liq, _ := newTestBook()
	token := testutil.Addr(1)
	alice := testutil.Addr(10)
	bob := testutil.Addr(11)

	if err := b.Deposit(testutil.Meta(100, 0), token, 7, alice, testutil.Big(300)); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if err := b.Deposit(testutil.Meta(100, 1), token, 7, bob, testutil.Big(200)); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}
	if err := b.OfferCreated(testutil.Meta(101, 0), event.SideMint, token, 7, alice, testutil.Big(0)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// MINT transitions carry no ownership check: any pooled offer can be
	// modified and taken regardless of the acting address.
	if err := b.OfferModified(testutil.Meta(102, 0), event.SideMint, token, 7, testutil.Addr(12), testutil.Big(450)); err != nil {
		t.Fatalf("modify: %v", err)
	}
	if err := b.OfferTaken(testutil.Meta(103, 0), event.SideMint, token, 7, testutil.Addr(13)); err != nil {
		t.Fatalf("take: %v", err)
	}

	offer, _ := b.GetOffer(token, 7)
	if offer.Status != book.StatusFilled {
		t.Errorf("status: got %s, want FILLED", offer.Status)
	}
	if got := liqOf(t, liq, token); got != 0 {
		t.Errorf("liquidity: got %d, want 0", got)
	}
	// Components survive the fill as the payout record.
	if b.ComponentCount(token, 7) != 2 {
		t.Errorf("component count: got %d, want 2", b.ComponentCount(token, 7))
	}
}
