// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

// Params holds the privileged parameters, keyed by name.
type Params struct {
	storage *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(addr thor.Address, state *state.State) *Params {
	return &Params{
		storage: solidity.NewMapping[thor.Bytes32, *big.Int](solidity.NewContext(addr, state), thor.Bytes32{}),
	}
}

// Get native way to get param. An unset param reads as zero.
func (p *Params) Get(key thor.Bytes32) (*big.Int, error) {
	v, err := p.storage.Get(key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get param %v", key)
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

// Set native way to set param.
func (p *Params) Set(key thor.Bytes32, value *big.Int) error {
	if value.Sign() == 0 {
		p.storage.Delete(key)
		return nil
	}
	return p.storage.Set(key, value)
}

// GetAddress reads a param holding an address. It returns nil when unset.
func (p *Params) GetAddress(key thor.Bytes32) (*thor.Address, error) {
	v, err := p.Get(key)
	if err != nil || v.Sign() == 0 {
		return nil, err
	}
	addr := thor.BytesToAddress(v.Bytes())
	return &addr, nil
}

// SetAddress stores an address param. A nil address clears it.
func (p *Params) SetAddress(key thor.Bytes32, addr *thor.Address) error {
	if addr == nil {
		p.storage.Delete(key)
		return nil
	}
	return p.Set(key, new(big.Int).SetBytes(addr.Bytes()))
}
