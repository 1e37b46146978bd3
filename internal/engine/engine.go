// Package engine is the single-threaded fold loop. It validates event
// order, dispatches each event to the owning module, and emits the
// staged row mutations for persistence only when the whole event
// applied cleanly. The first invariant violation halts the engine for
// good; a halted view is stale but never wrong.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"MintLedger/internal/amm"
	"MintLedger/internal/bonds"
	"MintLedger/internal/book"
	"MintLedger/internal/event"
	"MintLedger/internal/ledger"
	"MintLedger/internal/liquidity"
	"MintLedger/internal/observability"
	"MintLedger/internal/store"
	"MintLedger/internal/volume"
)

// ErrHalted is returned for every event after an invariant violation.
var ErrHalted = errors.New("engine halted on invariant violation")

// Config carries the host-resolved deployment context. The original
// contracts expose these through discovery; here they are inputs.
type Config struct {
	// RewardToken transfers out of the gauge are reward claims and
	// bypass the ledger entirely.
	RewardToken common.Address

	// CurveGauge is the gauge whose outgoing reward transfers count
	// as claims.
	CurveGauge common.Address

	// CurvePool is the pool backing the gauge, stamped on claim facts.
	CurvePool common.Address
}

// Output is one applied event and the row mutations it staged.
type Output struct {
	Ref         string
	Type        event.EventType
	BlockNumber uint64
	LogIndex    uint32
	Ops         []store.Op
}

// Engine folds decoded events into the materialized view.
type Engine struct {
	cfg     Config
	ledger  *ledger.Ledger
	liq     *liquidity.Aggregator
	book    *book.Book
	volume  *volume.Accumulator
	bonds   *bonds.Registry
	amm     *amm.Recorder
	log     *store.Changelog
	metrics *observability.Metrics

	persistChan chan<- Output

	cursor    event.Meta
	cursorSet bool
	halted    bool
}

func New(cfg Config, persistChan chan<- Output, metrics *observability.Metrics) *Engine {
	log := store.NewChangelog()
	liq := liquidity.NewAggregator(log)

	return &Engine{
		cfg:         cfg,
		ledger:      ledger.New(log),
		liq:         liq,
		book:        book.New(liq, log),
		volume:      volume.NewAccumulator(log),
		bonds:       bonds.NewRegistry(log),
		amm:         amm.NewRecorder(log),
		log:         log,
		metrics:     metrics,
		persistChan: persistChan,
	}
}

// ProcessEvent is the main processing pipeline.
func (e *Engine) ProcessEvent(evt event.Event) error {
	start := time.Now()
	eventType := evt.EventType().String()
	meta := evt.EventMeta()

	if e.halted {
		return ErrHalted
	}

	// Step 1: ordering. The host delivers (block, logIndex) strictly
	// increasing; the same position twice is a redelivery, an earlier
	// position means the stream is broken.
	if e.cursorSet {
		switch cmp := comparePosition(meta, e.cursor); {
		case cmp == 0:
			if e.metrics != nil {
				e.metrics.EventsRejected.WithLabelValues(eventType, "duplicate").Inc()
			}
			return nil
		case cmp < 0:
			e.halt()
			return fmt.Errorf("event %s at %s is behind cursor %s", eventType, meta.Ref(), e.cursor.Ref())
		}
	}

	// Step 2: dispatch. Handlers stage all row mutations on the
	// changelog; nothing is emitted until the handler returned nil.
	if err := e.dispatchEvent(evt); err != nil {
		e.log.Discard()
		e.halt()
		if e.metrics != nil {
			e.metrics.EventsRejected.WithLabelValues(eventType, "invariant").Inc()
		}
		return fmt.Errorf("%s at %s: %w", eventType, meta.Ref(), err)
	}

	e.cursor = meta
	e.cursorSet = true

	// Step 3: emit. Blocking send; if the persistence worker falls
	// behind the fold loop stalls rather than dropping mutations.
	if ops := e.log.Drain(); len(ops) > 0 {
		e.persistChan <- Output{
			Ref:         meta.Ref(),
			Type:        evt.EventType(),
			BlockNumber: meta.BlockNumber,
			LogIndex:    meta.LogIndex,
			Ops:         ops,
		}
	}

	if e.metrics != nil {
		e.metrics.EventsApplied.WithLabelValues(eventType).Inc()
		e.metrics.EventDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
		e.metrics.LastBlock.Set(float64(meta.BlockNumber))
	}
	return nil
}

func (e *Engine) halt() {
	e.halted = true
	if e.metrics != nil {
		e.metrics.Halted.Set(1)
	}
}

// Halted reports whether the engine refuses further events.
func (e *Engine) Halted() bool {
	return e.halted
}

// RestoreCursor seeds the ordering cursor from the persisted position
// so redeliveries of already-committed events are skipped on restart.
func (e *Engine) RestoreCursor(blockNumber uint64, logIndex uint32) {
	e.cursor = event.Meta{BlockNumber: blockNumber, LogIndex: logIndex}
	e.cursorSet = true
}

func comparePosition(a, b event.Meta) int {
	if a.BlockNumber != b.BlockNumber {
		if a.BlockNumber < b.BlockNumber {
			return -1
		}
		return 1
	}
	if a.LogIndex != b.LogIndex {
		if a.LogIndex < b.LogIndex {
			return -1
		}
		return 1
	}
	return 0
}

func (e *Engine) dispatchEvent(evt event.Event) error {
	switch ev := evt.(type) {
	case *event.Transfer:
		return e.handleTransfer(ev)
	case *event.GaugeTransfer:
		return e.handleGaugeTransfer(ev)
	case *event.Deposit:
		return e.book.Deposit(ev.Meta, ev.Token, ev.OfferID, ev.Caller, ev.Amount)
	case *event.Withdraw:
		return e.book.Withdraw(ev.Meta, ev.Token, ev.OfferID, ev.Caller, ev.Amount)
	case *event.OfferCreated:
		return e.book.OfferCreated(ev.Meta, ev.Side, ev.Token, ev.OfferID, ev.Owner, ev.Amount)
	case *event.OfferModified:
		return e.book.OfferModified(ev.Meta, ev.Side, ev.Token, ev.OfferID, ev.Owner, ev.Amount)
	case *event.OfferTaken:
		return e.book.OfferTaken(ev.Meta, ev.Side, ev.Token, ev.OfferID, ev.Owner)
	case *event.OfferCancelled:
		return e.book.OfferCancelled(ev.Meta, ev.Side, ev.Token, ev.OfferID, ev.Owner)
	case *event.MintSwap:
		return e.volume.RecordMint(ev)
	case *event.Swap:
		return e.volume.RecordSwap(ev)
	case *event.Redeem:
		return e.volume.RecordRedeem(ev)
	case *event.TokenExchange:
		return e.amm.RecordExchange(ev)
	case *event.NewBond:
		return e.bonds.Register(ev)
	case *event.RemoveBond:
		return e.bonds.Deregister(ev)
	default:
		return fmt.Errorf("unknown event type: %T", evt)
	}
}

// handleTransfer routes by token. Reward-token transfers never touch
// the ledger: the only interesting ones leave the gauge, as claims.
// Zero-value transfers are no-ops on every path.
func (e *Engine) handleTransfer(ev *event.Transfer) error {
	if ev.Value.Sign() == 0 {
		return nil
	}
	if ev.Token == e.cfg.RewardToken {
		if ev.From == e.cfg.CurveGauge {
			return e.amm.RecordRewardClaim(ev, e.cfg.CurvePool)
		}
		return nil
	}
	return e.ledger.ApplyTransfer(ev.Meta, ev.Token, ev.From, ev.To, ev.Value)
}

// handleGaugeTransfer records share movement facts and folds the gauge
// token itself through the ledger like any other token.
func (e *Engine) handleGaugeTransfer(ev *event.GaugeTransfer) error {
	if ev.Value.Sign() == 0 {
		return nil
	}
	if err := e.amm.RecordGaugeTransfer(ev); err != nil {
		return err
	}
	return e.ledger.ApplyTransfer(ev.Meta, ev.Gauge, ev.From, ev.To, ev.Value)
}

// --- read access for tests and startup checks ---

func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

func (e *Engine) Liquidity() *liquidity.Aggregator {
	return e.liq
}

func (e *Engine) Book() *book.Book {
	return e.book
}

func (e *Engine) Volume() *volume.Accumulator {
	return e.volume
}

func (e *Engine) Bonds() *bonds.Registry {
	return e.bonds
}
