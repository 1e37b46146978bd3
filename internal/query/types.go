package query

// AsOf reports how fresh a response is: the chain position of the last
// event whose mutations were committed when the query ran.
type AsOf struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint32 `json:"log_index"`
}

type BalanceResponse struct {
	Token string `json:"token"`
	Owner string `json:"owner"`
	Value string `json:"value"`
	AsOf  AsOf   `json:"as_of"`
}

type SupplyResponse struct {
	Token string `json:"token"`
	Value string `json:"value"`
	AsOf  AsOf   `json:"as_of"`
}

type LiquidityResponse struct {
	Token string `json:"token"`
	Side  string `json:"side"`
	Value string `json:"value"`
	AsOf  AsOf   `json:"as_of"`
}

type OfferResponse struct {
	Token          string `json:"token"`
	OfferID        uint64 `json:"offer_id"`
	Side           string `json:"side"`
	Status         string `json:"status"`
	TotalValue     string `json:"total_value"`
	RemainingValue string `json:"remaining_value"`
	AsOf           AsOf   `json:"as_of"`
}

type ComponentResponse struct {
	Token     string `json:"token"`
	OfferID   uint64 `json:"offer_id"`
	Owner     string `json:"owner"`
	Value     string `json:"value"`
	TxHash    string `json:"tx_hash"`
	BlockTime uint64 `json:"block_time"`
	AsOf      AsOf   `json:"as_of"`
}

type VolumeResponse struct {
	Value   string `json:"value"`
	Rewards string `json:"rewards"`
	AsOf    AsOf   `json:"as_of"`
}

type MintFactResponse struct {
	TxHash      string `json:"tx_hash"`
	LogIndex    uint32 `json:"log_index"`
	Owner       string `json:"owner"`
	RWAToken    string `json:"rwa_token"`
	RWAProvider string `json:"rwa_provider"`
	RWAValue    string `json:"rwa_value"`
	Value       string `json:"value"`
	BlockTime   uint64 `json:"block_time"`
}

type BondResponse struct {
	Address    string `json:"address"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	StartBlock uint64 `json:"start_block"`
	EndBlock   uint64 `json:"end_block"`
	AsOf       AsOf   `json:"as_of"`
}
