// internal/event/offers.go
package event

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Deposit adds collateral to a pending MINT-side pool offer.
type Deposit struct {
	Meta
	Token   common.Address
	OfferID uint64
	Caller  common.Address
	Amount  *big.Int
}

func (d *Deposit) EventType() EventType {
	return EventTypeDeposit
}

// Withdraw removes the caller's collateral from a pending MINT-side
// pool offer.
type Withdraw struct {
	Meta
	Token   common.Address
	OfferID uint64
	Caller  common.Address
	Amount  *big.Int
}

func (w *Withdraw) EventType() EventType {
	return EventTypeWithdraw
}

// OfferCreated means different things per side: on MINT it publishes an
// already-funded PENDING offer (no value change), on PROVIDE it creates
// the offer outright with Amount as its full size.
type OfferCreated struct {
	Meta
	Side    Side
	Token   common.Address
	OfferID uint64
	Owner   common.Address
	Amount  *big.Int
}

func (o *OfferCreated) EventType() EventType {
	return EventTypeOfferCreated
}

// OfferModified replaces an OPEN offer's remaining value with Amount.
type OfferModified struct {
	Meta
	Side    Side
	Token   common.Address
	OfferID uint64
	Owner   common.Address
	Amount  *big.Int
}

func (o *OfferModified) EventType() EventType {
	return EventTypeOfferModified
}

// OfferTaken fills an OPEN offer completely.
type OfferTaken struct {
	Meta
	Side    Side
	Token   common.Address
	OfferID uint64
	Owner   common.Address
}

func (o *OfferTaken) EventType() EventType {
	return EventTypeOfferTaken
}

// OfferCancelled retires an OPEN offer without filling it.
type OfferCancelled struct {
	Meta
	Side    Side
	Token   common.Address
	OfferID uint64
	Owner   common.Address
}

func (o *OfferCancelled) EventType() EventType {
	return EventTypeOfferCancelled
}
