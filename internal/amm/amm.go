// Package amm records fact rows for the external reward-pool
// periphery: gauge share movements, pool swaps, and reward claims.
// None of these touch balances directly; gauge share tokens reach the
// ledger through the engine's transfer routing.
package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"MintLedger/internal/event"
	"MintLedger/internal/store"
)

// A gauge transfer yields up to two deposit facts, one per non-zero
// endpoint, distinguished by direction under the same log.
const (
	DirectionOut int8 = -1
	DirectionIn  int8 = 1
)

// DepositKey identifies one endpoint's fact within a gauge transfer log.
type DepositKey struct {
	TxHash    common.Hash
	LogIndex  uint32
	Direction int8
}

// FactKey identifies a single-fact log (swaps, claims).
type FactKey struct {
	TxHash   common.Hash
	LogIndex uint32
}

// LpDeposit is one holder's gauge share movement. Value is signed:
// negative on the way out, positive on the way in.
type LpDeposit struct {
	TxHash    common.Hash
	LogIndex  uint32
	Direction int8
	Owner     common.Address
	Pool      common.Address
	Value     *big.Int
	Timestamp uint64
}

// LpSwap is one exchange on the external pool.
type LpSwap struct {
	TxHash    common.Hash
	LogIndex  uint32
	Owner     common.Address
	Pool      common.Address
	TokenFrom common.Address
	TokenTo   common.Address
	ValueFrom *big.Int
	ValueTo   *big.Int
	Timestamp uint64
}

// LpRewardsClaim is one reward payout from the gauge.
type LpRewardsClaim struct {
	TxHash    common.Hash
	LogIndex  uint32
	Owner     common.Address
	Pool      common.Address
	Token     common.Address
	Value     *big.Int
	Timestamp uint64
}

// Recorder owns the periphery fact stores.
type Recorder struct {
	deposits *store.Keyed[DepositKey, *LpDeposit]
	swaps    *store.Keyed[FactKey, *LpSwap]
	claims   *store.Keyed[FactKey, *LpRewardsClaim]
	log      *store.Changelog
}

func NewRecorder(log *store.Changelog) *Recorder {
	return &Recorder{
		deposits: store.NewKeyed[DepositKey, *LpDeposit](),
		swaps:    store.NewKeyed[FactKey, *LpSwap](),
		claims:   store.NewKeyed[FactKey, *LpRewardsClaim](),
		log:      log,
	}
}

func (r *Recorder) saveDeposit(meta event.Meta, owner, pool common.Address, value *big.Int, direction int8) {
	if owner == (common.Address{}) {
		return
	}
	fact := &LpDeposit{
		TxHash:    meta.TxHash,
		LogIndex:  meta.LogIndex,
		Direction: direction,
		Owner:     owner,
		Pool:      pool,
		Value:     value,
		Timestamp: meta.BlockTime,
	}
	r.deposits.Put(DepositKey{TxHash: meta.TxHash, LogIndex: meta.LogIndex, Direction: direction}, fact)
	r.log.Upsert(fact)
}

// RecordGaugeTransfer emits a signed deposit fact per real endpoint of
// a gauge share transfer.
func (r *Recorder) RecordGaugeTransfer(e *event.GaugeTransfer) error {
	meta := e.EventMeta()
	r.saveDeposit(meta, e.From, e.Pool, new(big.Int).Neg(e.Value), DirectionOut)
	r.saveDeposit(meta, e.To, e.Pool, new(big.Int).Set(e.Value), DirectionIn)
	return nil
}

// RecordExchange stores a pool swap fact.
func (r *Recorder) RecordExchange(e *event.TokenExchange) error {
	meta := e.EventMeta()
	fact := &LpSwap{
		TxHash:    meta.TxHash,
		LogIndex:  meta.LogIndex,
		Owner:     e.Buyer,
		Pool:      e.Pool,
		TokenFrom: e.TokenSold,
		TokenTo:   e.TokenBought,
		ValueFrom: new(big.Int).Set(e.AmountSold),
		ValueTo:   new(big.Int).Set(e.AmountBought),
		Timestamp: meta.BlockTime,
	}
	r.swaps.Put(FactKey{TxHash: meta.TxHash, LogIndex: meta.LogIndex}, fact)
	r.log.Upsert(fact)
	return nil
}

// RecordRewardClaim stores a reward payout fact for a transfer of the
// reward token out of the gauge.
func (r *Recorder) RecordRewardClaim(e *event.Transfer, pool common.Address) error {
	meta := e.EventMeta()
	fact := &LpRewardsClaim{
		TxHash:    meta.TxHash,
		LogIndex:  meta.LogIndex,
		Owner:     e.To,
		Pool:      pool,
		Token:     e.Token,
		Value:     new(big.Int).Set(e.Value),
		Timestamp: meta.BlockTime,
	}
	r.claims.Put(FactKey{TxHash: meta.TxHash, LogIndex: meta.LogIndex}, fact)
	r.log.Upsert(fact)
	return nil
}
