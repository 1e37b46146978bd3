// Package volume accumulates lifetime mint volume and records the
// immutable trade facts behind it. Mints and swaps feed the
// accumulator; redemptions are recorded but never counted.
package volume

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"MintLedger/internal/event"
	"MintLedger/internal/store"
)

// FactKey identifies a trade fact by its emitting log.
type FactKey struct {
	TxHash   common.Hash
	LogIndex uint32
}

// MintVolume is the singleton lifetime accumulator.
type MintVolume struct {
	Value   *big.Int
	Rewards *big.Int
}

// MintVolumeSnapshot is the accumulator as of the end of one block.
type MintVolumeSnapshot struct {
	Value       *big.Int
	Rewards     *big.Int
	BlockNumber uint64
	Timestamp   uint64
}

// Mint records a primary-market mint.
type Mint struct {
	TxHash      common.Hash
	LogIndex    uint32
	Owner       common.Address
	RWAToken    common.Address
	RWAProvider common.Address
	RWAValue    *big.Int
	Value       *big.Int
	Timestamp   uint64
}

// Swap records a secondary-market swap through the engine.
type Swap struct {
	TxHash    common.Hash
	LogIndex  uint32
	Owner     common.Address
	RWAToken  common.Address
	RWAValue  *big.Int
	Value     *big.Int
	Timestamp uint64
}

// Redeem records a redemption of stablecoin for collateral.
type Redeem struct {
	TxHash    common.Hash
	LogIndex  uint32
	Owner     common.Address
	RWAToken  common.Address
	RWAValue  *big.Int
	Value     *big.Int
	Fee       *big.Int
	Timestamp uint64
}

// Accumulator owns the volume singleton and the fact stores.
type Accumulator struct {
	total   *MintVolume
	mints   *store.Keyed[FactKey, *Mint]
	swaps   *store.Keyed[FactKey, *Swap]
	redeems *store.Keyed[FactKey, *Redeem]
	log     *store.Changelog
}

func NewAccumulator(log *store.Changelog) *Accumulator {
	return &Accumulator{
		total:   &MintVolume{Value: new(big.Int), Rewards: new(big.Int)},
		mints:   store.NewKeyed[FactKey, *Mint](),
		swaps:   store.NewKeyed[FactKey, *Swap](),
		redeems: store.NewKeyed[FactKey, *Redeem](),
		log:     log,
	}
}

func (a *Accumulator) accumulate(meta event.Meta, value, rewards *big.Int) {
	a.total.Value.Add(a.total.Value, value)
	a.total.Rewards.Add(a.total.Rewards, rewards)

	a.log.Upsert(&MintVolume{
		Value:   new(big.Int).Set(a.total.Value),
		Rewards: new(big.Int).Set(a.total.Rewards),
	})
	a.log.Upsert(&MintVolumeSnapshot{
		Value:       new(big.Int).Set(a.total.Value),
		Rewards:     new(big.Int).Set(a.total.Rewards),
		BlockNumber: meta.BlockNumber,
		Timestamp:   meta.BlockTime,
	})
}

// RecordMint stores the mint fact and counts its USD value and rewards.
func (a *Accumulator) RecordMint(e *event.MintSwap) error {
	meta := e.EventMeta()
	fact := &Mint{
		TxHash:      meta.TxHash,
		LogIndex:    meta.LogIndex,
		Owner:       e.StableOwner,
		RWAToken:    e.RWAToken,
		RWAProvider: e.RWAProvider,
		RWAValue:    new(big.Int).Set(e.Amount),
		Value:       new(big.Int).Set(e.PriceUSD),
		Timestamp:   meta.BlockTime,
	}
	a.mints.Put(FactKey{TxHash: meta.TxHash, LogIndex: meta.LogIndex}, fact)
	a.log.Upsert(fact)

	a.accumulate(meta, e.PriceUSD, e.Rewards)
	return nil
}

// RecordSwap stores the swap fact and counts its USD value and rewards.
func (a *Accumulator) RecordSwap(e *event.Swap) error {
	meta := e.EventMeta()
	fact := &Swap{
		TxHash:    meta.TxHash,
		LogIndex:  meta.LogIndex,
		Owner:     e.Owner,
		RWAToken:  e.TokenSwapped,
		RWAValue:  new(big.Int).Set(e.Amount),
		Value:     new(big.Int).Set(e.AmountUSD),
		Timestamp: meta.BlockTime,
	}
	a.swaps.Put(FactKey{TxHash: meta.TxHash, LogIndex: meta.LogIndex}, fact)
	a.log.Upsert(fact)

	a.accumulate(meta, e.AmountUSD, e.Rewards)
	return nil
}

// RecordRedeem stores the redemption fact. Redemptions leave the
// accumulator untouched.
func (a *Accumulator) RecordRedeem(e *event.Redeem) error {
	meta := e.EventMeta()
	fact := &Redeem{
		TxHash:    meta.TxHash,
		LogIndex:  meta.LogIndex,
		Owner:     e.Owner,
		RWAToken:  e.CollateralToken,
		RWAValue:  new(big.Int).Set(e.ReturnedCollateral),
		Value:     new(big.Int).Set(e.Amount),
		Fee:       new(big.Int).Set(e.Fee),
		Timestamp: meta.BlockTime,
	}
	a.redeems.Put(FactKey{TxHash: meta.TxHash, LogIndex: meta.LogIndex}, fact)
	a.log.Upsert(fact)
	return nil
}

// Total returns the current accumulator value and rewards.
func (a *Accumulator) Total() (*big.Int, *big.Int) {
	return new(big.Int).Set(a.total.Value), new(big.Int).Set(a.total.Rewards)
}
