// Package bonds tracks the registry of bond token series. Transfers of
// a registered bond token flow through the ledger like any other token.
package bonds

import (
	"github.com/ethereum/go-ethereum/common"

	"MintLedger/internal/event"
	"MintLedger/internal/store"
)

// Bond is one registered bond token series.
type Bond struct {
	Address    common.Address
	Name       string
	Symbol     string
	StartBlock uint64
	EndBlock   uint64
}

// Registry is the live set of bond series.
type Registry struct {
	bonds *store.Keyed[common.Address, *Bond]
	log   *store.Changelog
}

func NewRegistry(log *store.Changelog) *Registry {
	return &Registry{
		bonds: store.NewKeyed[common.Address, *Bond](),
		log:   log,
	}
}

// Register upserts a bond series from its host-resolved metadata.
func (r *Registry) Register(e *event.NewBond) error {
	bond := &Bond{
		Address:    e.Bond,
		Name:       e.Name,
		Symbol:     e.Symbol,
		StartBlock: e.StartBlock,
		EndBlock:   e.EndBlock,
	}
	r.bonds.Put(e.Bond, bond)
	r.log.Upsert(bond)
	return nil
}

// Deregister hard-deletes a bond series. Removing an unknown bond is a
// no-op upstream quirk, not an error.
func (r *Registry) Deregister(e *event.RemoveBond) error {
	bond, ok := r.bonds.Get(e.Bond)
	if !ok {
		// Unknown bond: the contract emits RemoveBond unconditionally,
		// so stage a delete keyed by address alone and move on.
		bond = &Bond{Address: e.Bond}
	}
	r.bonds.Delete(e.Bond)
	r.log.Delete(bond)
	return nil
}

// Get returns a registered bond series.
func (r *Registry) Get(addr common.Address) (*Bond, bool) {
	return r.bonds.Get(addr)
}
