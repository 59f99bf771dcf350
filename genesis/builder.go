// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/currency"
	"github.com/vechain/collator-staking/builtin/params"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

// Builder helper to build the genesis state.
type Builder struct {
	config             *staker.Config
	existentialDeposit *big.Int
	allocs             []alloc
	staking            *staker.Genesis
	stateProcs         []func(state *state.State, ledger *currency.Ledger) error
}

type alloc struct {
	address thor.Address
	balance *big.Int
}

// Config set the staking engine constants.
func (b *Builder) Config(cfg *staker.Config) *Builder {
	b.config = cfg
	return b
}

// ExistentialDeposit set the minimum balance that keeps an account alive.
func (b *Builder) ExistentialDeposit(ed *big.Int) *Builder {
	b.existentialDeposit = ed
	return b
}

// Alloc mints balance to an account before staking is initialised.
func (b *Builder) Alloc(addr thor.Address, balance *big.Int) *Builder {
	b.allocs = append(b.allocs, alloc{addr, balance})
	return b
}

// Staking set the initial staking state.
func (b *Builder) Staking(g *staker.Genesis) *Builder {
	b.staking = g
	return b
}

// State add a state process. Processes run after the allocations and before staking is initialised.
func (b *Builder) State(proc func(state *state.State, ledger *currency.Ledger) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build writes the genesis state into the stater's store and returns the events of block 0.
func (b *Builder) Build(stater *state.Stater) ([]*staker.Event, error) {
	if b.staking == nil {
		return nil, errors.New("staking genesis is not set")
	}
	cfg := b.config
	if cfg == nil {
		cfg = staker.DefaultConfig()
	}
	ed := b.existentialDeposit
	if ed == nil {
		ed = new(big.Int)
	}

	st := stater.NewState()
	ledger := currency.New(thor.CurrencyAddress, st, ed)

	for _, a := range b.allocs {
		if err := ledger.Mint(a.address, a.balance); err != nil {
			return nil, errors.Wrapf(err, "alloc %v", a.address)
		}
	}
	for _, proc := range b.stateProcs {
		if err := proc(st, ledger); err != nil {
			return nil, errors.Wrap(err, "state process")
		}
	}

	stk := staker.New(thor.StakerAddress, st, params.New(thor.ParamsAddress, st), ledger, cfg)
	if err := stk.InitGenesis(b.staking, 0); err != nil {
		return nil, errors.Wrap(err, "init staking")
	}
	if err := stk.CheckInvariants(); err != nil {
		return nil, errors.Wrap(err, "staking invariants")
	}

	if err := st.Stage().Commit(); err != nil {
		return nil, errors.Wrap(err, "commit state")
	}
	return stk.DrainEvents(), nil
}
