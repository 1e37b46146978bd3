// internal/event/trades.go
package event

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MintSwap is a primary-market mint: a provider's RWA collateral is
// swapped for freshly minted stablecoin. PriceUSD is the USD value of
// the minted amount as reported by the engine contract.
type MintSwap struct {
	Meta
	StableOwner common.Address
	RWAToken    common.Address
	RWAProvider common.Address
	Amount      *big.Int
	PriceUSD    *big.Int
	Rewards     *big.Int
}

func (m *MintSwap) EventType() EventType {
	return EventTypeMintSwap
}

// Swap is a secondary-market swap through the engine.
type Swap struct {
	Meta
	Owner        common.Address
	TokenSwapped common.Address
	Amount       *big.Int
	AmountUSD    *big.Int
	Rewards      *big.Int
}

func (s *Swap) EventType() EventType {
	return EventTypeSwap
}

// Redeem burns stablecoin against returned collateral. Redemptions do
// not count toward mint volume.
type Redeem struct {
	Meta
	Owner              common.Address
	CollateralToken    common.Address
	ReturnedCollateral *big.Int
	Amount             *big.Int
	Fee                *big.Int
}

func (r *Redeem) EventType() EventType {
	return EventTypeRedeem
}

// TokenExchange is a swap on the external AMM pool. Coin addresses are
// resolved by the host from the pool's coin registry.
type TokenExchange struct {
	Meta
	Pool         common.Address
	Buyer        common.Address
	TokenSold    common.Address
	TokenBought  common.Address
	AmountSold   *big.Int
	AmountBought *big.Int
}

func (t *TokenExchange) EventType() EventType {
	return EventTypeTokenExchange
}
