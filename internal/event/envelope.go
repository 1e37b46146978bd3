package event

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// EventType discriminator for event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeTransfer
	EventTypeGaugeTransfer
	EventTypeDeposit
	EventTypeWithdraw
	EventTypeOfferCreated
	EventTypeOfferModified
	EventTypeOfferTaken
	EventTypeOfferCancelled
	EventTypeMintSwap
	EventTypeSwap
	EventTypeRedeem
	EventTypeTokenExchange
	EventTypeNewBond
	EventTypeRemoveBond
)

func (et EventType) String() string {
	switch et {
	case EventTypeTransfer:
		return "Transfer"
	case EventTypeGaugeTransfer:
		return "GaugeTransfer"
	case EventTypeDeposit:
		return "Deposit"
	case EventTypeWithdraw:
		return "Withdraw"
	case EventTypeOfferCreated:
		return "OfferCreated"
	case EventTypeOfferModified:
		return "OfferModified"
	case EventTypeOfferTaken:
		return "OfferTaken"
	case EventTypeOfferCancelled:
		return "OfferCancelled"
	case EventTypeMintSwap:
		return "MintSwap"
	case EventTypeSwap:
		return "Swap"
	case EventTypeRedeem:
		return "Redeem"
	case EventTypeTokenExchange:
		return "TokenExchange"
	case EventTypeNewBond:
		return "NewBond"
	case EventTypeRemoveBond:
		return "RemoveBond"
	default:
		return "Unknown"
	}
}

// Side identifies which orderbook flavor emitted an offer event.
// The host derives it from the emitting contract, so every decoded
// offer event carries an explicit side.
type Side int32

const (
	SideUnknown Side = iota
	SideMint
	SideProvide
)

func (s Side) String() string {
	switch s {
	case SideMint:
		return "MINT"
	case SideProvide:
		return "PROVIDE"
	default:
		return "UNKNOWN"
	}
}

// Meta is the chain position shared by every decoded event. Ordering is
// (BlockNumber, LogIndex), assigned upstream and validated by the engine.
type Meta struct {
	// Block height the emitting log was mined in
	BlockNumber uint64

	// Block timestamp (unix seconds, NOT wall-clock)
	BlockTime uint64

	// Transaction that emitted the log
	TxHash common.Hash

	// Log position within the block
	LogIndex uint32
}

// EventMeta satisfies the Event interface for any struct embedding Meta.
func (m Meta) EventMeta() Meta {
	return m
}

// Ref is the stable dedup key: a log occupies exactly one block position.
func (m Meta) Ref() string {
	return fmt.Sprintf("%d/%d", m.BlockNumber, m.LogIndex)
}

// Event is the interface all decoded event payloads implement
type Event interface {
	// EventType returns the discriminator
	EventType() EventType

	// EventMeta returns the chain position of the emitting log
	EventMeta() Meta
}
