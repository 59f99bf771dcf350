// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/thor"
)

// GenesisCandidate is a candidate present from the first round.
type GenesisCandidate struct {
	Account thor.Address
	Bond    *big.Int
}

// GenesisDelegation is a delegation present from the first round.
type GenesisDelegation struct {
	Delegator thor.Address
	Candidate thor.Address
	Amount    *big.Int
}

// Genesis is the initial staking state. Bonds are taken from the balances already held by the accounts.
type Genesis struct {
	BlocksPerRound       uint32
	TotalSelected        uint32
	CollatorCommission   thor.Perbill
	ParachainBondAccount *thor.Address
	ParachainBondPercent thor.Percent
	Inflation            round.InflationConfig
	Candidates           []GenesisCandidate
	Delegations          []GenesisDelegation
}

// InitGenesis writes the privileged settings, bonds the genesis candidates and delegations and starts round 1
// at block.
func (s *Staker) InitGenesis(g *Genesis, block uint64) error {
	if err := s.cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid staking config")
	}
	if !g.Inflation.Validate() {
		return errors.New("invalid genesis inflation config")
	}
	if g.TotalSelected < s.cfg.MinSelectedCandidates {
		return errors.New("genesis total selected is below the minimum")
	}
	if g.BlocksPerRound < s.cfg.MinBlocksPerRound || g.BlocksPerRound < g.TotalSelected {
		return errors.New("genesis round length is below the minimum or the total selected")
	}
	if !g.CollatorCommission.IsValid() || !g.ParachainBondPercent.IsValid() {
		return errors.New("genesis commission or reserve percent exceeds 100%")
	}

	return s.atomic("init_genesis", func() error {
		r, err := s.rounds.Get()
		if err != nil {
			return err
		}
		if r.Current != 0 {
			return errors.New("staking genesis already initialised")
		}

		for key, v := range map[thor.Bytes32]*big.Int{
			thor.KeyTotalSelected:        big.NewInt(int64(g.TotalSelected)),
			thor.KeyCollatorCommission:   big.NewInt(int64(g.CollatorCommission)),
			thor.KeyBlocksPerRound:       big.NewInt(int64(g.BlocksPerRound)),
			thor.KeyParachainBondPercent: big.NewInt(int64(g.ParachainBondPercent)),
			thor.KeyExpectMin:            g.Inflation.Expect.Min,
			thor.KeyExpectIdeal:          g.Inflation.Expect.Ideal,
			thor.KeyExpectMax:            g.Inflation.Expect.Max,
			thor.KeyAnnualMin:            big.NewInt(int64(g.Inflation.Annual.Min)),
			thor.KeyAnnualIdeal:          big.NewInt(int64(g.Inflation.Annual.Ideal)),
			thor.KeyAnnualMax:            big.NewInt(int64(g.Inflation.Annual.Max)),
		} {
			if err := s.params.Set(key, v); err != nil {
				return err
			}
		}
		if err := s.params.SetAddress(thor.KeyParachainBondAccount, g.ParachainBondAccount); err != nil {
			return err
		}
		if err := s.rounds.Set(&round.Round{First: block, Length: g.BlocksPerRound}); err != nil {
			return err
		}

		for i, c := range g.Candidates {
			if err := s.JoinCandidates(c.Account, c.Bond, uint32(i)); err != nil {
				return errors.Wrapf(err, "genesis candidate %v", c.Account)
			}
		}
		for _, d := range g.Delegations {
			if err := s.Delegate(d.Delegator, d.Candidate, d.Amount, ^uint32(0), ^uint32(0)); err != nil {
				return errors.Wrapf(err, "genesis delegation %v -> %v", d.Delegator, d.Candidate)
			}
		}

		r, err = s.rounds.Get()
		if err != nil {
			return err
		}
		_, err = s.startRound(r, block)
		return err
	})
}
