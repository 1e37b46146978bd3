package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound marks a lookup that matched no row; the HTTP layer maps
// it to a 404.
var ErrNotFound = errors.New("not found")

// Service provides read-only access to the view tables. Every response
// carries the persisted cursor so callers can reason about freshness.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) asOf(ctx context.Context) (AsOf, error) {
	var a AsOf
	err := s.db.QueryRowContext(ctx, `
		SELECT block_number, log_index FROM applied_events WHERE id = 1
	`).Scan(&a.BlockNumber, &a.LogIndex)
	if err == sql.ErrNoRows {
		return AsOf{}, nil
	}
	if err != nil {
		return AsOf{}, fmt.Errorf("load cursor: %w", err)
	}
	return a, nil
}

// GetBalance returns a holder's current balance, or its balance as of
// the given block when asOfBlock is non-nil.
func (s *Service) GetBalance(ctx context.Context, token, owner string, asOfBlock *uint64) (*BalanceResponse, error) {
	cursor, err := s.asOf(ctx)
	if err != nil {
		return nil, err
	}

	var value string
	if asOfBlock != nil {
		err = s.db.QueryRowContext(ctx, `
			SELECT value FROM token_balance_snapshots
			WHERE token = $1 AND owner = $2 AND block_number <= $3
			ORDER BY block_number DESC
			LIMIT 1
		`, token, owner, *asOfBlock).Scan(&value)
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT value FROM token_balances WHERE token = $1 AND owner = $2
		`, token, owner).Scan(&value)
	}
	if err == sql.ErrNoRows {
		value = "0"
	} else if err != nil {
		return nil, err
	}

	return &BalanceResponse{Token: token, Owner: owner, Value: value, AsOf: cursor}, nil
}

// GetSupply returns a token's circulating supply.
func (s *Service) GetSupply(ctx context.Context, token string) (*SupplyResponse, error) {
	cursor, err := s.asOf(ctx)
	if err != nil {
		return nil, err
	}

	var value string
	err = s.db.QueryRowContext(ctx, `
		SELECT value FROM token_supplies WHERE token = $1
	`, token).Scan(&value)
	if err == sql.ErrNoRows {
		value = "0"
	} else if err != nil {
		return nil, err
	}

	return &SupplyResponse{Token: token, Value: value, AsOf: cursor}, nil
}

// GetLiquidity returns a token's aggregate liquidity and side.
func (s *Service) GetLiquidity(ctx context.Context, token string) (*LiquidityResponse, error) {
	cursor, err := s.asOf(ctx)
	if err != nil {
		return nil, err
	}

	resp := &LiquidityResponse{Token: token, AsOf: cursor}
	err = s.db.QueryRowContext(ctx, `
		SELECT side, value FROM liquidity WHERE token = $1
	`, token).Scan(&resp.Side, &resp.Value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetOffer returns one offer.
func (s *Service) GetOffer(ctx context.Context, token string, offerID uint64) (*OfferResponse, error) {
	cursor, err := s.asOf(ctx)
	if err != nil {
		return nil, err
	}

	resp := &OfferResponse{Token: token, OfferID: offerID, AsOf: cursor}
	err = s.db.QueryRowContext(ctx, `
		SELECT side, status, total_value, remaining_value
		FROM offers WHERE token = $1 AND offer_id = $2
	`, token, offerID).Scan(&resp.Side, &resp.Status, &resp.TotalValue, &resp.RemainingValue)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListOffers returns a token's offers, optionally filtered by status.
func (s *Service) ListOffers(ctx context.Context, token string, status *string, limit int) ([]OfferResponse, error) {
	cursor, err := s.asOf(ctx)
	if err != nil {
		return nil, err
	}

	q := `
		SELECT offer_id, side, status, total_value, remaining_value
		FROM offers WHERE token = $1
	`
	args := []interface{}{token}
	argIdx := 2

	if status != nil {
		q += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *status)
		argIdx++
	}
	q += " ORDER BY offer_id"
	q += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []OfferResponse
	for rows.Next() {
		o := OfferResponse{Token: token, AsOf: cursor}
		if err := rows.Scan(&o.OfferID, &o.Side, &o.Status, &o.TotalValue, &o.RemainingValue); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// ListComponents returns the contributors of one offer.
func (s *Service) ListComponents(ctx context.Context, token string, offerID uint64) ([]ComponentResponse, error) {
	cursor, err := s.asOf(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT owner, value, tx_hash, block_time
		FROM offer_components
		WHERE token = $1 AND offer_id = $2
		ORDER BY owner
	`, token, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comps []ComponentResponse
	for rows.Next() {
		c := ComponentResponse{Token: token, OfferID: offerID, AsOf: cursor}
		if err := rows.Scan(&c.Owner, &c.Value, &c.TxHash, &c.BlockTime); err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

// GetVolume returns the lifetime mint volume accumulator.
func (s *Service) GetVolume(ctx context.Context) (*VolumeResponse, error) {
	cursor, err := s.asOf(ctx)
	if err != nil {
		return nil, err
	}

	resp := &VolumeResponse{Value: "0", Rewards: "0", AsOf: cursor}
	err = s.db.QueryRowContext(ctx, `
		SELECT value, rewards FROM mint_volume WHERE id = 1
	`).Scan(&resp.Value, &resp.Rewards)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return resp, nil
}

// ListMints returns mint facts newest-first with cursor pagination on
// block time.
func (s *Service) ListMints(ctx context.Context, limit int, beforeTime *uint64) ([]MintFactResponse, error) {
	q := `
		SELECT tx_hash, log_index, owner, rwa_token, rwa_provider, rwa_value, value, block_time
		FROM mints
	`
	args := []interface{}{}
	argIdx := 1

	if beforeTime != nil {
		q += fmt.Sprintf(" WHERE block_time < $%d", argIdx)
		args = append(args, *beforeTime)
		argIdx++
	}
	q += " ORDER BY block_time DESC, log_index DESC"
	q += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mints []MintFactResponse
	for rows.Next() {
		var m MintFactResponse
		if err := rows.Scan(&m.TxHash, &m.LogIndex, &m.Owner, &m.RWAToken,
			&m.RWAProvider, &m.RWAValue, &m.Value, &m.BlockTime); err != nil {
			return nil, err
		}
		mints = append(mints, m)
	}
	return mints, rows.Err()
}

// ListBonds returns all registered bond series.
func (s *Service) ListBonds(ctx context.Context) ([]BondResponse, error) {
	cursor, err := s.asOf(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT address, name, symbol, start_block, end_block
		FROM bonds ORDER BY start_block
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BondResponse
	for rows.Next() {
		b := BondResponse{AsOf: cursor}
		if err := rows.Scan(&b.Address, &b.Name, &b.Symbol, &b.StartBlock, &b.EndBlock); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
