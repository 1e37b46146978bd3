// Package liquidity maintains the per-token liquidity aggregate. Each
// token's aggregate is bound to the side (MINT or PROVIDE) that first
// touched it; the two orderbook flavors never share a token.
package liquidity

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"MintLedger/internal/event"
	"MintLedger/internal/store"
)

// Liquidity is the live aggregate for one token.
type Liquidity struct {
	Token common.Address
	Side  event.Side
	Value *big.Int
}

// Snapshot is the aggregate as of the end of one block.
type Snapshot struct {
	Token       common.Address
	Side        event.Side
	Value       *big.Int
	BlockNumber uint64
	Timestamp   uint64
}

// Aggregator folds offer value deltas into per-token totals.
type Aggregator struct {
	totals *store.Keyed[common.Address, *Liquidity]
	log    *store.Changelog
}

func NewAggregator(log *store.Changelog) *Aggregator {
	return &Aggregator{
		totals: store.NewKeyed[common.Address, *Liquidity](),
		log:    log,
	}
}

// Adjust adds delta to the token's aggregate on the given side.
func (a *Aggregator) Adjust(meta event.Meta, token common.Address, side event.Side, delta *big.Int) error {
	liq, existed := a.totals.GetOrCreate(token, func() *Liquidity {
		return &Liquidity{Token: token, Side: side, Value: new(big.Int)}
	})
	if existed && liq.Side != side {
		return fmt.Errorf("liquidity for token %s is %s-side, got %s adjustment",
			token.Hex(), liq.Side, side)
	}

	liq.Value.Add(liq.Value, delta)
	if liq.Value.Sign() < 0 {
		return fmt.Errorf("liquidity for token %s went negative: %s", token.Hex(), liq.Value.String())
	}

	a.log.Upsert(&Liquidity{Token: token, Side: liq.Side, Value: new(big.Int).Set(liq.Value)})
	a.log.Upsert(&Snapshot{
		Token:       token,
		Side:        liq.Side,
		Value:       new(big.Int).Set(liq.Value),
		BlockNumber: meta.BlockNumber,
		Timestamp:   meta.BlockTime,
	})
	return nil
}

// Value returns the current aggregate and its side. ok is false when
// the token has never been touched.
func (a *Aggregator) Value(token common.Address) (*big.Int, event.Side, bool) {
	liq, ok := a.totals.Get(token)
	if !ok {
		return new(big.Int), event.SideUnknown, false
	}
	return new(big.Int).Set(liq.Value), liq.Side, true
}
