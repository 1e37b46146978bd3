// internal/event/transfer.go
package event

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transfer is a plain ERC-20 transfer of any tracked token (stablecoin,
// bond token, reward token). Mints and burns arrive as transfers with the
// zero address on exactly one side.
type Transfer struct {
	Meta
	Token common.Address
	From  common.Address
	To    common.Address
	Value *big.Int
}

func (t *Transfer) EventType() EventType {
	return EventTypeTransfer
}

// GaugeTransfer is a transfer of a gauge's share token. The host enriches
// it with the pool the gauge stakes, which the contract exposes but the
// log does not carry.
type GaugeTransfer struct {
	Meta
	Gauge common.Address
	Pool  common.Address
	From  common.Address
	To    common.Address
	Value *big.Int
}

func (t *GaugeTransfer) EventType() EventType {
	return EventTypeGaugeTransfer
}
