package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"MintLedger/internal/amm"
	"MintLedger/internal/bonds"
	"MintLedger/internal/book"
	"MintLedger/internal/ledger"
	"MintLedger/internal/liquidity"
	"MintLedger/internal/store"
	"MintLedger/internal/volume"
)

// Output mirrors engine.Output to avoid an import cycle. The
// orchestrator (cmd/main.go) bridges between the two.
type Output struct {
	Ref         string
	EventType   string
	BlockNumber uint64
	LogIndex    uint32
	Ops         []store.Op
}

// RowWriter translates staged row mutations into SQL against the view
// tables. Numeric token amounts are stored as NUMERIC and bound as
// their decimal string form.
type RowWriter struct {
	db *sql.DB
}

func NewRowWriter(db *sql.DB) *RowWriter {
	return &RowWriter{db: db}
}

func (w *RowWriter) DB() *sql.DB {
	return w.db
}

// ApplyOutput writes one event's mutations plus the cursor row inside
// the caller's transaction.
func (w *RowWriter) ApplyOutput(ctx context.Context, tx *sql.Tx, out Output) error {
	for _, op := range out.Ops {
		if err := w.applyOp(ctx, tx, op); err != nil {
			return fmt.Errorf("%s %T for event %s: %w", op.Kind, op.Entity, out.Ref, err)
		}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO applied_events (id, block_number, log_index, event_type)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			log_index = EXCLUDED.log_index,
			event_type = EXCLUDED.event_type
	`, out.BlockNumber, out.LogIndex, out.EventType)
	if err != nil {
		return fmt.Errorf("advance cursor for event %s: %w", out.Ref, err)
	}
	return nil
}

func (w *RowWriter) applyOp(ctx context.Context, tx *sql.Tx, op store.Op) error {
	if op.Kind == store.OpDelete {
		return w.applyDelete(ctx, tx, op.Entity)
	}
	return w.applyUpsert(ctx, tx, op.Entity)
}

func (w *RowWriter) applyUpsert(ctx context.Context, tx *sql.Tx, entity any) error {
	var err error

	switch e := entity.(type) {
	case *ledger.TokenBalance:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO token_balances (token, owner, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (token, owner) DO UPDATE SET value = EXCLUDED.value
		`, e.Token.Hex(), e.Owner.Hex(), e.Value.String())

	case *ledger.TokenBalanceSnapshot:
		// Same-block rewrites win: the snapshot is end-of-block state.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO token_balance_snapshots (token, owner, block_number, value, block_time)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (token, owner, block_number) DO UPDATE SET
				value = EXCLUDED.value,
				block_time = EXCLUDED.block_time
		`, e.Token.Hex(), e.Owner.Hex(), e.BlockNumber, e.Value.String(), e.Timestamp)

	case *ledger.TokenSupply:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO token_supplies (token, value)
			VALUES ($1, $2)
			ON CONFLICT (token) DO UPDATE SET value = EXCLUDED.value
		`, e.Token.Hex(), e.Value.String())

	case *ledger.TokenSupplySnapshot:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO token_supply_snapshots (token, block_number, value, block_time)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (token, block_number) DO UPDATE SET
				value = EXCLUDED.value,
				block_time = EXCLUDED.block_time
		`, e.Token.Hex(), e.BlockNumber, e.Value.String(), e.Timestamp)

	case *liquidity.Liquidity:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO liquidity (token, side, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (token) DO UPDATE SET value = EXCLUDED.value
		`, e.Token.Hex(), e.Side.String(), e.Value.String())

	case *liquidity.Snapshot:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO liquidity_snapshots (token, block_number, side, value, block_time)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (token, block_number) DO UPDATE SET
				value = EXCLUDED.value,
				block_time = EXCLUDED.block_time
		`, e.Token.Hex(), e.BlockNumber, e.Side.String(), e.Value.String(), e.Timestamp)

	case *book.Offer:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO offers (token, offer_id, side, status, total_value, remaining_value)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (token, offer_id) DO UPDATE SET
				status = EXCLUDED.status,
				total_value = EXCLUDED.total_value,
				remaining_value = EXCLUDED.remaining_value
		`, e.Token.Hex(), e.OfferID, e.Side.String(), e.Status.String(),
			e.TotalValue.String(), e.RemainingValue.String())

	case *book.Component:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO offer_components (token, offer_id, owner, value, tx_hash, block_time)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (token, offer_id, owner) DO UPDATE SET
				value = EXCLUDED.value,
				tx_hash = EXCLUDED.tx_hash,
				block_time = EXCLUDED.block_time
		`, e.Token.Hex(), e.OfferID, e.Owner.Hex(), e.Value.String(),
			e.TxHash.Hex(), e.Timestamp)

	case *volume.MintVolume:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mint_volume (id, value, rewards)
			VALUES (1, $1, $2)
			ON CONFLICT (id) DO UPDATE SET
				value = EXCLUDED.value,
				rewards = EXCLUDED.rewards
		`, e.Value.String(), e.Rewards.String())

	case *volume.MintVolumeSnapshot:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mint_volume_snapshots (block_number, value, rewards, block_time)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (block_number) DO UPDATE SET
				value = EXCLUDED.value,
				rewards = EXCLUDED.rewards,
				block_time = EXCLUDED.block_time
		`, e.BlockNumber, e.Value.String(), e.Rewards.String(), e.Timestamp)

	case *volume.Mint:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mints (tx_hash, log_index, owner, rwa_token, rwa_provider, rwa_value, value, block_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`, e.TxHash.Hex(), e.LogIndex, e.Owner.Hex(), e.RWAToken.Hex(),
			e.RWAProvider.Hex(), e.RWAValue.String(), e.Value.String(), e.Timestamp)

	case *volume.Swap:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO swaps (tx_hash, log_index, owner, rwa_token, rwa_value, value, block_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`, e.TxHash.Hex(), e.LogIndex, e.Owner.Hex(), e.RWAToken.Hex(),
			e.RWAValue.String(), e.Value.String(), e.Timestamp)

	case *volume.Redeem:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO redeems (tx_hash, log_index, owner, rwa_token, rwa_value, value, fee, block_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`, e.TxHash.Hex(), e.LogIndex, e.Owner.Hex(), e.RWAToken.Hex(),
			e.RWAValue.String(), e.Value.String(), e.Fee.String(), e.Timestamp)

	case *bonds.Bond:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bonds (address, name, symbol, start_block, end_block)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (address) DO UPDATE SET
				name = EXCLUDED.name,
				symbol = EXCLUDED.symbol,
				start_block = EXCLUDED.start_block,
				end_block = EXCLUDED.end_block
		`, e.Address.Hex(), e.Name, e.Symbol, e.StartBlock, e.EndBlock)

	case *amm.LpDeposit:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO lp_deposits (tx_hash, log_index, direction, owner, pool, value, block_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tx_hash, log_index, direction) DO NOTHING
		`, e.TxHash.Hex(), e.LogIndex, e.Direction, e.Owner.Hex(),
			e.Pool.Hex(), e.Value.String(), e.Timestamp)

	case *amm.LpSwap:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO lp_swaps (tx_hash, log_index, owner, pool, token_from, token_to, value_from, value_to, block_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`, e.TxHash.Hex(), e.LogIndex, e.Owner.Hex(), e.Pool.Hex(),
			e.TokenFrom.Hex(), e.TokenTo.Hex(), e.ValueFrom.String(),
			e.ValueTo.String(), e.Timestamp)

	case *amm.LpRewardsClaim:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO lp_rewards_claims (tx_hash, log_index, owner, pool, token, value, block_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`, e.TxHash.Hex(), e.LogIndex, e.Owner.Hex(), e.Pool.Hex(),
			e.Token.Hex(), e.Value.String(), e.Timestamp)

	default:
		return fmt.Errorf("unknown upsert entity type %T", entity)
	}

	return err
}

func (w *RowWriter) applyDelete(ctx context.Context, tx *sql.Tx, entity any) error {
	var err error

	switch e := entity.(type) {
	case *book.Offer:
		_, err = tx.ExecContext(ctx, `
			DELETE FROM offers WHERE token = $1 AND offer_id = $2
		`, e.Token.Hex(), e.OfferID)

	case *book.Component:
		_, err = tx.ExecContext(ctx, `
			DELETE FROM offer_components WHERE token = $1 AND offer_id = $2 AND owner = $3
		`, e.Token.Hex(), e.OfferID, e.Owner.Hex())

	case *bonds.Bond:
		_, err = tx.ExecContext(ctx, `
			DELETE FROM bonds WHERE address = $1
		`, e.Address.Hex())

	default:
		return fmt.Errorf("unknown delete entity type %T", entity)
	}

	return err
}

// LoadCursor reads the last applied event position, if any.
func (w *RowWriter) LoadCursor(ctx context.Context) (blockNumber uint64, logIndex uint32, found bool, err error) {
	err = w.db.QueryRowContext(ctx, `
		SELECT block_number, log_index FROM applied_events WHERE id = 1
	`).Scan(&blockNumber, &logIndex)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return blockNumber, logIndex, true, nil
}
