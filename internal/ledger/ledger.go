// Package ledger tracks per-holder token balances and per-token total
// supply, with a block-numbered snapshot history for both.
package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"MintLedger/internal/event"
	"MintLedger/internal/store"
)

// BalanceKey identifies a holder's balance in one token.
type BalanceKey struct {
	Token common.Address
	Owner common.Address
}

// TokenBalance is the live row for one (token, owner) pair.
type TokenBalance struct {
	Token common.Address
	Owner common.Address
	Value *big.Int
}

// TokenBalanceSnapshot is the balance as of the end of one block.
// A later write in the same block replaces the earlier one.
type TokenBalanceSnapshot struct {
	Token       common.Address
	Owner       common.Address
	Value       *big.Int
	BlockNumber uint64
	Timestamp   uint64
}

// TokenSupply is the live circulating supply of one token.
type TokenSupply struct {
	Token common.Address
	Value *big.Int
}

// TokenSupplySnapshot is the supply as of the end of one block.
type TokenSupplySnapshot struct {
	Token       common.Address
	Value       *big.Int
	BlockNumber uint64
	Timestamp   uint64
}

// Ledger folds transfers into balances and supplies. Not safe for
// concurrent use; the engine owns it single-threaded.
type Ledger struct {
	balances *store.Keyed[BalanceKey, *TokenBalance]
	supplies *store.Keyed[common.Address, *TokenSupply]
	log      *store.Changelog
}

func New(log *store.Changelog) *Ledger {
	return &Ledger{
		balances: store.NewKeyed[BalanceKey, *TokenBalance](),
		supplies: store.NewKeyed[common.Address, *TokenSupply](),
		log:      log,
	}
}

// AdjustBalance adds delta to a holder's balance. The zero address is
// the mint/burn counterparty and carries no balance, so it is skipped.
func (l *Ledger) AdjustBalance(meta event.Meta, token, owner common.Address, delta *big.Int) error {
	if owner == (common.Address{}) {
		return nil
	}

	bal, _ := l.balances.GetOrCreate(BalanceKey{Token: token, Owner: owner}, func() *TokenBalance {
		return &TokenBalance{Token: token, Owner: owner, Value: new(big.Int)}
	})

	bal.Value.Add(bal.Value, delta)
	if bal.Value.Sign() < 0 {
		return fmt.Errorf("balance of %s in token %s went negative: %s",
			owner.Hex(), token.Hex(), bal.Value.String())
	}

	l.log.Upsert(&TokenBalance{Token: token, Owner: owner, Value: new(big.Int).Set(bal.Value)})
	l.log.Upsert(&TokenBalanceSnapshot{
		Token:       token,
		Owner:       owner,
		Value:       new(big.Int).Set(bal.Value),
		BlockNumber: meta.BlockNumber,
		Timestamp:   meta.BlockTime,
	})
	return nil
}

// AdjustSupply adds delta to a token's circulating supply.
func (l *Ledger) AdjustSupply(meta event.Meta, token common.Address, delta *big.Int) error {
	sup, _ := l.supplies.GetOrCreate(token, func() *TokenSupply {
		return &TokenSupply{Token: token, Value: new(big.Int)}
	})

	sup.Value.Add(sup.Value, delta)
	if sup.Value.Sign() < 0 {
		return fmt.Errorf("supply of token %s went negative: %s", token.Hex(), sup.Value.String())
	}

	l.log.Upsert(&TokenSupply{Token: token, Value: new(big.Int).Set(sup.Value)})
	l.log.Upsert(&TokenSupplySnapshot{
		Token:       token,
		Value:       new(big.Int).Set(sup.Value),
		BlockNumber: meta.BlockNumber,
		Timestamp:   meta.BlockTime,
	})
	return nil
}

// ApplyTransfer folds one transfer into balances, and into supply when
// exactly one endpoint is the zero address (mint or burn).
func (l *Ledger) ApplyTransfer(meta event.Meta, token, from, to common.Address, value *big.Int) error {
	if value.Sign() == 0 {
		return nil
	}

	neg := new(big.Int).Neg(value)
	if err := l.AdjustBalance(meta, token, from, neg); err != nil {
		return err
	}
	if err := l.AdjustBalance(meta, token, to, value); err != nil {
		return err
	}

	isMint := from == (common.Address{})
	isBurn := to == (common.Address{})
	if isMint != isBurn {
		delta := value
		if isBurn {
			delta = neg
		}
		if err := l.AdjustSupply(meta, token, delta); err != nil {
			return err
		}
	}
	return nil
}

// Balance returns the current balance, or zero if never touched.
func (l *Ledger) Balance(token, owner common.Address) *big.Int {
	if bal, ok := l.balances.Get(BalanceKey{Token: token, Owner: owner}); ok {
		return new(big.Int).Set(bal.Value)
	}
	return new(big.Int)
}

// Supply returns the current circulating supply, or zero if never touched.
func (l *Ledger) Supply(token common.Address) *big.Int {
	if sup, ok := l.supplies.Get(token); ok {
		return new(big.Int).Set(sup.Value)
	}
	return new(big.Int)
}

// SumBalances totals every tracked holder balance of one token.
func (l *Ledger) SumBalances(token common.Address) *big.Int {
	total := new(big.Int)
	l.balances.Range(func(key BalanceKey, bal *TokenBalance) bool {
		if key.Token == token {
			total.Add(total, bal.Value)
		}
		return true
	})
	return total
}
