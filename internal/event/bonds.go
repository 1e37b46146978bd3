// internal/event/bonds.go
package event

import "github.com/ethereum/go-ethereum/common"

// NewBond registers a bond token series. Name, symbol and the block
// window are read from the bond contract by the host at decode time.
type NewBond struct {
	Meta
	Bond       common.Address
	Name       string
	Symbol     string
	StartBlock uint64
	EndBlock   uint64
}

func (b *NewBond) EventType() EventType {
	return EventTypeNewBond
}

// RemoveBond retires a bond token series.
type RemoveBond struct {
	Meta
	Bond common.Address
}

func (b *RemoveBond) EventType() EventType {
	return EventTypeRemoveBond
}
