// Package book holds the offer state machine shared by the two
// orderbook flavors. MINT offers are pooled incrementally through
// Deposit/Withdraw and published later; PROVIDE offers are placed
// whole by a single owner. Both sides reuse the same event names for
// the open/modify/take/cancel transitions.
package book

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"MintLedger/internal/event"
	"MintLedger/internal/liquidity"
	"MintLedger/internal/store"
)

// Status is an offer's lifecycle stage.
type Status int32

const (
	StatusPending Status = iota
	StatusOpen
	StatusFilled
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusOpen:
		return "OPEN"
	case StatusFilled:
		return "FILLED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// OfferKey identifies one offer within a token's orderbook.
type OfferKey struct {
	Token   common.Address
	OfferID uint64
}

// Offer is the live row for one offer.
type Offer struct {
	Token          common.Address
	OfferID        uint64
	Side           event.Side
	Status         Status
	TotalValue     *big.Int
	RemainingValue *big.Int
}

// ComponentKey identifies one contributor's slice of an offer.
type ComponentKey struct {
	Token   common.Address
	OfferID uint64
	Owner   common.Address
}

// Component is one contributor's slice of an offer. PROVIDE offers
// always have exactly one; MINT offers accumulate one per depositor.
type Component struct {
	Token     common.Address
	OfferID   uint64
	Owner     common.Address
	Value     *big.Int
	TxHash    common.Hash
	Timestamp uint64
}

// Book folds offer events into offers, components and the liquidity
// aggregate. Not safe for concurrent use.
type Book struct {
	offers     *store.Keyed[OfferKey, *Offer]
	components *store.Keyed[ComponentKey, *Component]
	liq        *liquidity.Aggregator
	log        *store.Changelog
}

func New(liq *liquidity.Aggregator, log *store.Changelog) *Book {
	return &Book{
		offers:     store.NewKeyed[OfferKey, *Offer](),
		components: store.NewKeyed[ComponentKey, *Component](),
		liq:        liq,
		log:        log,
	}
}

// getOffer loads an offer and checks side and status. When owner is
// non-nil the offer must have exactly one component belonging to that
// owner; this is how PROVIDE transitions verify the acting owner.
func (b *Book) getOffer(token common.Address, offerID uint64, side event.Side, status Status, owner *common.Address) (*Offer, error) {
	offer, ok := b.offers.Get(OfferKey{Token: token, OfferID: offerID})
	if !ok {
		return nil, fmt.Errorf("offer %d for token %s not found", offerID, token.Hex())
	}
	if offer.Side != side {
		return nil, fmt.Errorf("offer %d for token %s is %s-side, expected %s",
			offerID, token.Hex(), offer.Side, side)
	}
	if offer.Status != status {
		return nil, fmt.Errorf("offer %d for token %s is %s, expected %s",
			offerID, token.Hex(), offer.Status, status)
	}
	if owner != nil {
		comps := b.componentsOf(token, offerID)
		if len(comps) != 1 {
			return nil, fmt.Errorf("offer %d for token %s has %d components, expected exactly 1",
				offerID, token.Hex(), len(comps))
		}
		if comps[0].Owner != *owner {
			return nil, fmt.Errorf("offer %d for token %s is owned by %s, not %s",
				offerID, token.Hex(), comps[0].Owner.Hex(), owner.Hex())
		}
	}
	return offer, nil
}

func (b *Book) componentsOf(token common.Address, offerID uint64) []*Component {
	var comps []*Component
	b.components.Range(func(key ComponentKey, c *Component) bool {
		if key.Token == token && key.OfferID == offerID {
			comps = append(comps, c)
		}
		return true
	})
	return comps
}

// Deposit adds collateral to a pending MINT offer, creating the offer
// and the caller's component on first touch.
func (b *Book) Deposit(meta event.Meta, token common.Address, offerID uint64, caller common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return fmt.Errorf("deposit of zero amount to offer %d for token %s", offerID, token.Hex())
	}

	key := OfferKey{Token: token, OfferID: offerID}
	offer, existed := b.offers.GetOrCreate(key, func() *Offer {
		return &Offer{
			Token:          token,
			OfferID:        offerID,
			Side:           event.SideMint,
			Status:         StatusPending,
			TotalValue:     new(big.Int),
			RemainingValue: new(big.Int),
		}
	})
	if existed {
		if offer.Side != event.SideMint {
			return fmt.Errorf("deposit to %s-side offer %d for token %s", offer.Side, offerID, token.Hex())
		}
		if offer.Status != StatusPending {
			return fmt.Errorf("deposit to %s offer %d for token %s", offer.Status, offerID, token.Hex())
		}
	}

	offer.TotalValue.Add(offer.TotalValue, amount)
	offer.RemainingValue.Set(offer.TotalValue)
	b.stageOffer(offer)

	comp, _ := b.components.GetOrCreate(ComponentKey{Token: token, OfferID: offerID, Owner: caller}, func() *Component {
		return &Component{Token: token, OfferID: offerID, Owner: caller, Value: new(big.Int)}
	})
	comp.Value.Add(comp.Value, amount)
	comp.TxHash = meta.TxHash
	comp.Timestamp = meta.BlockTime
	b.stageComponent(comp)

	return b.liq.Adjust(meta, token, event.SideMint, amount)
}

// Withdraw removes the caller's collateral from a pending MINT offer.
// Fully drained offers are deleted outright, never retained empty.
func (b *Book) Withdraw(meta event.Meta, token common.Address, offerID uint64, caller common.Address, amount *big.Int) error {
	offer, err := b.getOffer(token, offerID, event.SideMint, StatusPending, nil)
	if err != nil {
		return err
	}

	offer.TotalValue.Sub(offer.TotalValue, amount)
	offer.RemainingValue.Set(offer.TotalValue)
	if offer.TotalValue.Sign() < 0 {
		return fmt.Errorf("withdrawal overdraws offer %d for token %s: %s",
			offerID, token.Hex(), offer.TotalValue.String())
	}

	// The caller's component goes away whole regardless of the amount.
	compKey := ComponentKey{Token: token, OfferID: offerID, Owner: caller}
	if comp, ok := b.components.Get(compKey); ok {
		b.components.Delete(compKey)
		b.log.Delete(comp)
	}

	if offer.TotalValue.Sign() == 0 {
		if n := len(b.componentsOf(token, offerID)); n != 0 {
			return fmt.Errorf("drained offer %d for token %s still has %d components",
				offerID, token.Hex(), n)
		}
		b.offers.Delete(OfferKey{Token: token, OfferID: offerID})
		b.log.Delete(offer)
	} else {
		b.stageOffer(offer)
	}

	return b.liq.Adjust(meta, token, event.SideMint, new(big.Int).Neg(amount))
}

// OfferCreated publishes an offer. On MINT the offer already exists
// from deposits and merely transitions PENDING to OPEN; on PROVIDE the
// event creates the offer whole, with its single owner component.
func (b *Book) OfferCreated(meta event.Meta, side event.Side, token common.Address, offerID uint64, owner common.Address, amount *big.Int) error {
	if side == event.SideMint {
		offer, err := b.getOffer(token, offerID, event.SideMint, StatusPending, nil)
		if err != nil {
			return err
		}
		offer.Status = StatusOpen
		b.stageOffer(offer)
		return nil
	}

	if amount.Sign() == 0 {
		return fmt.Errorf("zero-amount offer %d created for token %s", offerID, token.Hex())
	}

	offer := &Offer{
		Token:          token,
		OfferID:        offerID,
		Side:           event.SideProvide,
		Status:         StatusOpen,
		TotalValue:     new(big.Int).Set(amount),
		RemainingValue: new(big.Int).Set(amount),
	}
	b.offers.Put(OfferKey{Token: token, OfferID: offerID}, offer)
	b.stageOffer(offer)

	comp := &Component{
		Token:     token,
		OfferID:   offerID,
		Owner:     owner,
		Value:     new(big.Int).Set(amount),
		TxHash:    meta.TxHash,
		Timestamp: meta.BlockTime,
	}
	b.components.Put(ComponentKey{Token: token, OfferID: offerID, Owner: owner}, comp)
	b.stageComponent(comp)

	return b.liq.Adjust(meta, token, event.SideProvide, amount)
}

// OfferModified replaces an open offer's remaining value with newAmount.
func (b *Book) OfferModified(meta event.Meta, side event.Side, token common.Address, offerID uint64, owner common.Address, newAmount *big.Int) error {
	offer, err := b.getOffer(token, offerID, side, StatusOpen, provideOwner(side, owner))
	if err != nil {
		return err
	}
	if newAmount.Sign() == 0 {
		return fmt.Errorf("offer %d for token %s modified to zero", offerID, token.Hex())
	}

	delta := new(big.Int).Sub(newAmount, offer.RemainingValue)
	offer.RemainingValue.Set(newAmount)
	b.stageOffer(offer)

	return b.liq.Adjust(meta, token, side, delta)
}

// OfferTaken fills an open offer completely.
func (b *Book) OfferTaken(meta event.Meta, side event.Side, token common.Address, offerID uint64, owner common.Address) error {
	offer, err := b.getOffer(token, offerID, side, StatusOpen, provideOwner(side, owner))
	if err != nil {
		return err
	}

	delta := new(big.Int).Neg(offer.RemainingValue)
	offer.Status = StatusFilled
	offer.RemainingValue.SetInt64(0)
	b.stageOffer(offer)

	return b.liq.Adjust(meta, token, side, delta)
}

// OfferCancelled retires an open offer. The remaining value stays on
// the row as a record of what was left when it was pulled.
func (b *Book) OfferCancelled(meta event.Meta, side event.Side, token common.Address, offerID uint64, owner common.Address) error {
	offer, err := b.getOffer(token, offerID, side, StatusOpen, provideOwner(side, owner))
	if err != nil {
		return err
	}

	offer.Status = StatusCancelled
	b.stageOffer(offer)

	return b.liq.Adjust(meta, token, side, new(big.Int).Neg(offer.RemainingValue))
}

// provideOwner returns the owner to verify against, which only the
// PROVIDE side does.
func provideOwner(side event.Side, owner common.Address) *common.Address {
	if side == event.SideProvide {
		return &owner
	}
	return nil
}

func (b *Book) stageOffer(o *Offer) {
	b.log.Upsert(&Offer{
		Token:          o.Token,
		OfferID:        o.OfferID,
		Side:           o.Side,
		Status:         o.Status,
		TotalValue:     new(big.Int).Set(o.TotalValue),
		RemainingValue: new(big.Int).Set(o.RemainingValue),
	})
}

func (b *Book) stageComponent(c *Component) {
	b.log.Upsert(&Component{
		Token:     c.Token,
		OfferID:   c.OfferID,
		Owner:     c.Owner,
		Value:     new(big.Int).Set(c.Value),
		TxHash:    c.TxHash,
		Timestamp: c.Timestamp,
	})
}

// GetOffer exposes the live offer row for the engine and tests.
func (b *Book) GetOffer(token common.Address, offerID uint64) (*Offer, bool) {
	return b.offers.Get(OfferKey{Token: token, OfferID: offerID})
}

// GetComponent exposes one contributor's live component row.
func (b *Book) GetComponent(token common.Address, offerID uint64, owner common.Address) (*Component, bool) {
	return b.components.Get(ComponentKey{Token: token, OfferID: offerID, Owner: owner})
}

// ComponentCount reports how many contributors an offer currently has.
func (b *Book) ComponentCount(token common.Address, offerID uint64) int {
	return len(b.componentsOf(token, offerID))
}
