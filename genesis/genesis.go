// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

// Genesis is a named genesis setup together with the constants the engine must run with.
type Genesis struct {
	builder *Builder
	name    string
}

// Build writes the genesis state and returns the events emitted at block 0.
func (g *Genesis) Build(stater *state.Stater) ([]*staker.Event, error) {
	return g.builder.Build(stater)
}

func (g *Genesis) Name() string {
	return g.name
}

// Config returns the engine constants the genesis was built for.
func (g *Genesis) Config() *staker.Config {
	if g.builder.config == nil {
		return staker.DefaultConfig()
	}
	return g.builder.config
}

func (g *Genesis) ExistentialDeposit() *big.Int {
	if g.builder.existentialDeposit == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(g.builder.existentialDeposit)
}

// Accounts returns the funded accounts in allocation order.
func (g *Genesis) Accounts() []thor.Address {
	accs := make([]thor.Address, 0, len(g.builder.allocs))
	for _, a := range g.builder.allocs {
		accs = append(accs, a.address)
	}
	return accs
}
