package ingestion

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"MintLedger/internal/event"
)

// ParseRawEvent converts a RawEvent (JSON bytes + event type string)
// into a typed event.Event. The shell validates and converts here;
// the fold loop only ever sees typed events.
func ParseRawEvent(raw RawEvent) (event.Event, error) {
	switch raw.EventType {
	case "Transfer":
		return parseTransfer(raw.Data)
	case "GaugeTransfer":
		return parseGaugeTransfer(raw.Data)
	case "Deposit":
		return parseDeposit(raw.Data)
	case "Withdraw":
		return parseWithdraw(raw.Data)
	case "OfferCreated":
		return parseOfferCreated(raw.Data)
	case "OfferModified":
		return parseOfferModified(raw.Data)
	case "OfferTaken":
		return parseOfferTaken(raw.Data)
	case "OfferCancelled":
		return parseOfferCancelled(raw.Data)
	case "MintSwap":
		return parseMintSwap(raw.Data)
	case "Swap":
		return parseSwap(raw.Data)
	case "Redeem":
		return parseRedeem(raw.Data)
	case "TokenExchange":
		return parseTokenExchange(raw.Data)
	case "NewBond":
		return parseNewBond(raw.Data)
	case "RemoveBond":
		return parseRemoveBond(raw.Data)
	default:
		return nil, fmt.Errorf("unknown event type: %s", raw.EventType)
	}
}

// --- JSON wire formats ---
// Field names use snake_case to match the upstream decoder. Addresses
// and hashes are 0x-hex strings; amounts are decimal strings so
// 256-bit values survive the trip.

type metaJSON struct {
	BlockNumber uint64 `json:"block_number"`
	BlockTime   uint64 `json:"block_time"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint32 `json:"log_index"`
}

func (j metaJSON) toMeta() (event.Meta, error) {
	hash, err := parseHash(j.TxHash)
	if err != nil {
		return event.Meta{}, fmt.Errorf("parse tx_hash: %w", err)
	}
	return event.Meta{
		BlockNumber: j.BlockNumber,
		BlockTime:   j.BlockTime,
		TxHash:      hash,
		LogIndex:    j.LogIndex,
	}, nil
}

func parseAddr(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(s string) (common.Hash, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if len(trimmed) != 64 {
		return common.Hash{}, fmt.Errorf("invalid hash %q", s)
	}
	return common.HexToHash(s), nil
}

// parseAmount decodes a decimal amount string. On-chain amounts are
// uint256, so negative strings are rejected here rather than trusted to
// downstream sign checks.
func parseAmount(s, field string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s amount %q", field, s)
	}
	return v, nil
}

func parseSide(s string) (event.Side, error) {
	switch s {
	case "MINT":
		return event.SideMint, nil
	case "PROVIDE":
		return event.SideProvide, nil
	default:
		return event.SideUnknown, fmt.Errorf("invalid side %q", s)
	}
}

type transferJSON struct {
	metaJSON
	Token string `json:"token"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

func parseTransfer(data []byte) (*event.Transfer, error) {
	var j transferJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Transfer: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	token, err := parseAddr(j.Token)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	from, err := parseAddr(j.From)
	if err != nil {
		return nil, fmt.Errorf("parse from: %w", err)
	}
	to, err := parseAddr(j.To)
	if err != nil {
		return nil, fmt.Errorf("parse to: %w", err)
	}
	value, err := parseAmount(j.Value, "value")
	if err != nil {
		return nil, err
	}
	return &event.Transfer{Meta: meta, Token: token, From: from, To: to, Value: value}, nil
}

type gaugeTransferJSON struct {
	metaJSON
	Gauge string `json:"gauge"`
	Pool  string `json:"pool"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

func parseGaugeTransfer(data []byte) (*event.GaugeTransfer, error) {
	var j gaugeTransferJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse GaugeTransfer: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	gauge, err := parseAddr(j.Gauge)
	if err != nil {
		return nil, fmt.Errorf("parse gauge: %w", err)
	}
	pool, err := parseAddr(j.Pool)
	if err != nil {
		return nil, fmt.Errorf("parse pool: %w", err)
	}
	from, err := parseAddr(j.From)
	if err != nil {
		return nil, fmt.Errorf("parse from: %w", err)
	}
	to, err := parseAddr(j.To)
	if err != nil {
		return nil, fmt.Errorf("parse to: %w", err)
	}
	value, err := parseAmount(j.Value, "value")
	if err != nil {
		return nil, err
	}
	return &event.GaugeTransfer{Meta: meta, Gauge: gauge, Pool: pool, From: from, To: to, Value: value}, nil
}

type poolMoveJSON struct {
	metaJSON
	Token   string `json:"token"`
	OfferID uint64 `json:"offer_id"`
	Caller  string `json:"caller"`
	Amount  string `json:"amount"`
}

func parseDeposit(data []byte) (*event.Deposit, error) {
	var j poolMoveJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Deposit: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	token, err := parseAddr(j.Token)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	caller, err := parseAddr(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	amount, err := parseAmount(j.Amount, "amount")
	if err != nil {
		return nil, err
	}
	return &event.Deposit{Meta: meta, Token: token, OfferID: j.OfferID, Caller: caller, Amount: amount}, nil
}

func parseWithdraw(data []byte) (*event.Withdraw, error) {
	var j poolMoveJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Withdraw: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	token, err := parseAddr(j.Token)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	caller, err := parseAddr(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	amount, err := parseAmount(j.Amount, "amount")
	if err != nil {
		return nil, err
	}
	return &event.Withdraw{Meta: meta, Token: token, OfferID: j.OfferID, Caller: caller, Amount: amount}, nil
}

type offerJSON struct {
	metaJSON
	Side    string `json:"side"`
	Token   string `json:"token"`
	OfferID uint64 `json:"offer_id"`
	Owner   string `json:"owner"`
	Amount  string `json:"amount"`
}

func (j offerJSON) parts() (event.Meta, event.Side, common.Address, common.Address, error) {
	meta, err := j.toMeta()
	if err != nil {
		return event.Meta{}, event.SideUnknown, common.Address{}, common.Address{}, err
	}
	side, err := parseSide(j.Side)
	if err != nil {
		return event.Meta{}, event.SideUnknown, common.Address{}, common.Address{}, err
	}
	token, err := parseAddr(j.Token)
	if err != nil {
		return event.Meta{}, event.SideUnknown, common.Address{}, common.Address{}, fmt.Errorf("parse token: %w", err)
	}
	owner, err := parseAddr(j.Owner)
	if err != nil {
		return event.Meta{}, event.SideUnknown, common.Address{}, common.Address{}, fmt.Errorf("parse owner: %w", err)
	}
	return meta, side, token, owner, nil
}

func parseOfferCreated(data []byte) (*event.OfferCreated, error) {
	var j offerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse OfferCreated: %w", err)
	}
	meta, side, token, owner, err := j.parts()
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(j.Amount, "amount")
	if err != nil {
		return nil, err
	}
	return &event.OfferCreated{Meta: meta, Side: side, Token: token, OfferID: j.OfferID, Owner: owner, Amount: amount}, nil
}

func parseOfferModified(data []byte) (*event.OfferModified, error) {
	var j offerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse OfferModified: %w", err)
	}
	meta, side, token, owner, err := j.parts()
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(j.Amount, "amount")
	if err != nil {
		return nil, err
	}
	return &event.OfferModified{Meta: meta, Side: side, Token: token, OfferID: j.OfferID, Owner: owner, Amount: amount}, nil
}

func parseOfferTaken(data []byte) (*event.OfferTaken, error) {
	var j offerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse OfferTaken: %w", err)
	}
	meta, side, token, owner, err := j.parts()
	if err != nil {
		return nil, err
	}
	return &event.OfferTaken{Meta: meta, Side: side, Token: token, OfferID: j.OfferID, Owner: owner}, nil
}

func parseOfferCancelled(data []byte) (*event.OfferCancelled, error) {
	var j offerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse OfferCancelled: %w", err)
	}
	meta, side, token, owner, err := j.parts()
	if err != nil {
		return nil, err
	}
	return &event.OfferCancelled{Meta: meta, Side: side, Token: token, OfferID: j.OfferID, Owner: owner}, nil
}

type mintSwapJSON struct {
	metaJSON
	StableOwner string `json:"stable_owner"`
	RWAToken    string `json:"rwa_token"`
	RWAProvider string `json:"rwa_provider"`
	Amount      string `json:"amount"`
	PriceUSD    string `json:"price_usd"`
	Rewards     string `json:"rewards"`
}

func parseMintSwap(data []byte) (*event.MintSwap, error) {
	var j mintSwapJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse MintSwap: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	owner, err := parseAddr(j.StableOwner)
	if err != nil {
		return nil, fmt.Errorf("parse stable_owner: %w", err)
	}
	rwaToken, err := parseAddr(j.RWAToken)
	if err != nil {
		return nil, fmt.Errorf("parse rwa_token: %w", err)
	}
	provider, err := parseAddr(j.RWAProvider)
	if err != nil {
		return nil, fmt.Errorf("parse rwa_provider: %w", err)
	}
	amount, err := parseAmount(j.Amount, "amount")
	if err != nil {
		return nil, err
	}
	price, err := parseAmount(j.PriceUSD, "price_usd")
	if err != nil {
		return nil, err
	}
	rewards, err := parseAmount(j.Rewards, "rewards")
	if err != nil {
		return nil, err
	}
	return &event.MintSwap{
		Meta:        meta,
		StableOwner: owner,
		RWAToken:    rwaToken,
		RWAProvider: provider,
		Amount:      amount,
		PriceUSD:    price,
		Rewards:     rewards,
	}, nil
}

type swapJSON struct {
	metaJSON
	Owner        string `json:"owner"`
	TokenSwapped string `json:"token_swapped"`
	Amount       string `json:"amount"`
	AmountUSD    string `json:"amount_usd"`
	Rewards      string `json:"rewards"`
}

func parseSwap(data []byte) (*event.Swap, error) {
	var j swapJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Swap: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	owner, err := parseAddr(j.Owner)
	if err != nil {
		return nil, fmt.Errorf("parse owner: %w", err)
	}
	token, err := parseAddr(j.TokenSwapped)
	if err != nil {
		return nil, fmt.Errorf("parse token_swapped: %w", err)
	}
	amount, err := parseAmount(j.Amount, "amount")
	if err != nil {
		return nil, err
	}
	amountUSD, err := parseAmount(j.AmountUSD, "amount_usd")
	if err != nil {
		return nil, err
	}
	rewards, err := parseAmount(j.Rewards, "rewards")
	if err != nil {
		return nil, err
	}
	return &event.Swap{
		Meta:         meta,
		Owner:        owner,
		TokenSwapped: token,
		Amount:       amount,
		AmountUSD:    amountUSD,
		Rewards:      rewards,
	}, nil
}

type redeemJSON struct {
	metaJSON
	Owner              string `json:"owner"`
	CollateralToken    string `json:"collateral_token"`
	ReturnedCollateral string `json:"returned_collateral"`
	Amount             string `json:"amount"`
	Fee                string `json:"fee"`
}

func parseRedeem(data []byte) (*event.Redeem, error) {
	var j redeemJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Redeem: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	owner, err := parseAddr(j.Owner)
	if err != nil {
		return nil, fmt.Errorf("parse owner: %w", err)
	}
	token, err := parseAddr(j.CollateralToken)
	if err != nil {
		return nil, fmt.Errorf("parse collateral_token: %w", err)
	}
	returned, err := parseAmount(j.ReturnedCollateral, "returned_collateral")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(j.Amount, "amount")
	if err != nil {
		return nil, err
	}
	fee, err := parseAmount(j.Fee, "fee")
	if err != nil {
		return nil, err
	}
	return &event.Redeem{
		Meta:               meta,
		Owner:              owner,
		CollateralToken:    token,
		ReturnedCollateral: returned,
		Amount:             amount,
		Fee:                fee,
	}, nil
}

type tokenExchangeJSON struct {
	metaJSON
	Pool         string `json:"pool"`
	Buyer        string `json:"buyer"`
	TokenSold    string `json:"token_sold"`
	TokenBought  string `json:"token_bought"`
	AmountSold   string `json:"amount_sold"`
	AmountBought string `json:"amount_bought"`
}

func parseTokenExchange(data []byte) (*event.TokenExchange, error) {
	var j tokenExchangeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse TokenExchange: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	pool, err := parseAddr(j.Pool)
	if err != nil {
		return nil, fmt.Errorf("parse pool: %w", err)
	}
	buyer, err := parseAddr(j.Buyer)
	if err != nil {
		return nil, fmt.Errorf("parse buyer: %w", err)
	}
	sold, err := parseAddr(j.TokenSold)
	if err != nil {
		return nil, fmt.Errorf("parse token_sold: %w", err)
	}
	bought, err := parseAddr(j.TokenBought)
	if err != nil {
		return nil, fmt.Errorf("parse token_bought: %w", err)
	}
	amountSold, err := parseAmount(j.AmountSold, "amount_sold")
	if err != nil {
		return nil, err
	}
	amountBought, err := parseAmount(j.AmountBought, "amount_bought")
	if err != nil {
		return nil, err
	}
	return &event.TokenExchange{
		Meta:         meta,
		Pool:         pool,
		Buyer:        buyer,
		TokenSold:    sold,
		TokenBought:  bought,
		AmountSold:   amountSold,
		AmountBought: amountBought,
	}, nil
}

type newBondJSON struct {
	metaJSON
	Bond       string `json:"bond"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	StartBlock uint64 `json:"start_block"`
	EndBlock   uint64 `json:"end_block"`
}

func parseNewBond(data []byte) (*event.NewBond, error) {
	var j newBondJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse NewBond: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	bond, err := parseAddr(j.Bond)
	if err != nil {
		return nil, fmt.Errorf("parse bond: %w", err)
	}
	return &event.NewBond{
		Meta:       meta,
		Bond:       bond,
		Name:       j.Name,
		Symbol:     j.Symbol,
		StartBlock: j.StartBlock,
		EndBlock:   j.EndBlock,
	}, nil
}

type removeBondJSON struct {
	metaJSON
	Bond string `json:"bond"`
}

func parseRemoveBond(data []byte) (*event.RemoveBond, error) {
	var j removeBondJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse RemoveBond: %w", err)
	}
	meta, err := j.toMeta()
	if err != nil {
		return nil, err
	}
	bond, err := parseAddr(j.Bond)
	if err != nil {
		return nil, fmt.Errorf("parse bond: %w", err)
	}
	return &event.RemoveBond{Meta: meta, Bond: bond}, nil
}
