// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/thor"
)

//
// Privileged getters
//

func (s *Staker) InflationConfig() (*round.InflationConfig, error) {
	values := make([]*big.Int, 0, 6)
	for _, key := range []thor.Bytes32{
		thor.KeyExpectMin, thor.KeyExpectIdeal, thor.KeyExpectMax,
		thor.KeyAnnualMin, thor.KeyAnnualIdeal, thor.KeyAnnualMax,
	} {
		v, err := s.params.Get(key)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &round.InflationConfig{
		Expect: round.Range[*big.Int]{Min: values[0], Ideal: values[1], Max: values[2]},
		Annual: round.Range[thor.Perbill]{
			Min:   thor.Perbill(values[3].Uint64()),
			Ideal: thor.Perbill(values[4].Uint64()),
			Max:   thor.Perbill(values[5].Uint64()),
		},
	}, nil
}

func (s *Staker) TotalSelected() (uint32, error) {
	v, err := s.params.Get(thor.KeyTotalSelected)
	if err != nil {
		return 0, err
	}
	return uint32(v.Uint64()), nil
}

func (s *Staker) CollatorCommission() (thor.Perbill, error) {
	v, err := s.params.Get(thor.KeyCollatorCommission)
	if err != nil {
		return 0, err
	}
	return thor.Perbill(v.Uint64()), nil
}

// ParachainBond returns the account receiving the reserved part of each round's issuance, nil when unset.
func (s *Staker) ParachainBond() (*thor.Address, thor.Percent, error) {
	account, err := s.params.GetAddress(thor.KeyParachainBondAccount)
	if err != nil {
		return nil, 0, err
	}
	percent, err := s.params.Get(thor.KeyParachainBondPercent)
	if err != nil {
		return nil, 0, err
	}
	return account, thor.Percent(percent.Uint64()), nil
}

//
// Privileged setters
//

func (s *Staker) SetStakingExpectations(expect round.Range[*big.Int]) error {
	return s.setInflation("set_staking_expectations", EventStakeExpectationsSet, func(cfg *round.InflationConfig) {
		cfg.Expect = expect
	})
}

func (s *Staker) SetInflation(annual round.Range[thor.Perbill]) error {
	return s.setInflation("set_inflation", EventInflationSet, func(cfg *round.InflationConfig) {
		cfg.Annual = annual
	})
}

func (s *Staker) SetInflationConfig(cfg round.InflationConfig) error {
	return s.setInflation("set_inflation_config", EventInflationSet, func(current *round.InflationConfig) {
		*current = cfg
	})
}

func (s *Staker) setInflation(op string, kind EventKind, update func(cfg *round.InflationConfig)) error {
	err := s.atomic(op, func() error {
		current, err := s.InflationConfig()
		if err != nil {
			return err
		}
		next, err := s.InflationConfig()
		if err != nil {
			return err
		}
		update(next)
		if !next.Validate() {
			return reverts.ConfigInvariantViolated("inflation ranges must be ordered and rates at most 100%")
		}
		if sameInflation(current, next) {
			return reverts.InvalidState("inflation config is unchanged")
		}
		for key, v := range map[thor.Bytes32]*big.Int{
			thor.KeyExpectMin:   next.Expect.Min,
			thor.KeyExpectIdeal: next.Expect.Ideal,
			thor.KeyExpectMax:   next.Expect.Max,
			thor.KeyAnnualMin:   big.NewInt(int64(next.Annual.Min)),
			thor.KeyAnnualIdeal: big.NewInt(int64(next.Annual.Ideal)),
			thor.KeyAnnualMax:   big.NewInt(int64(next.Annual.Max)),
		} {
			if err := s.params.Set(key, v); err != nil {
				return err
			}
		}
		s.emit(kind, thor.Address{}, thor.Address{}, nil)
		return nil
	})
	if err != nil {
		logger.Warn("refused inflation update", "op", op, "error", err)
	}
	return err
}

func sameInflation(a, b *round.InflationConfig) bool {
	return a.Expect.Min.Cmp(b.Expect.Min) == 0 &&
		a.Expect.Ideal.Cmp(b.Expect.Ideal) == 0 &&
		a.Expect.Max.Cmp(b.Expect.Max) == 0 &&
		a.Annual == b.Annual
}

func (s *Staker) SetParachainBondAccount(account thor.Address) error {
	return s.atomic("set_parachain_bond_account", func() error {
		if err := s.params.SetAddress(thor.KeyParachainBondAccount, &account); err != nil {
			return err
		}
		s.emit(EventParachainBondAccountSet, account, thor.Address{}, nil)
		return nil
	})
}

func (s *Staker) SetParachainBondReservePercent(percent thor.Percent) error {
	err := s.atomic("set_parachain_bond_reserve_percent", func() error {
		if !percent.IsValid() {
			return reverts.ConfigInvariantViolated("reserve percent exceeds 100")
		}
		_, current, err := s.ParachainBond()
		if err != nil {
			return err
		}
		if current == percent {
			return reverts.InvalidState("reserve percent is unchanged")
		}
		if err := s.params.Set(thor.KeyParachainBondPercent, big.NewInt(int64(percent))); err != nil {
			return err
		}
		s.emit(EventParachainBondReservePercentSet, thor.Address{}, thor.Address{}, big.NewInt(int64(percent)))
		return nil
	})
	if err != nil {
		logger.Warn("refused reserve percent update", "percent", percent, "error", err)
	}
	return err
}

// SetTotalSelected sets the size of the active set. It cannot exceed the round length.
func (s *Staker) SetTotalSelected(n uint32) error {
	err := s.atomic("set_total_selected", func() error {
		if n < s.cfg.MinSelectedCandidates {
			return reverts.ConfigInvariantViolated("total selected is below the minimum")
		}
		r, err := s.rounds.Get()
		if err != nil {
			return err
		}
		if n > r.Length {
			return reverts.ConfigInvariantViolated("round length must not be below total selected")
		}
		current, err := s.TotalSelected()
		if err != nil {
			return err
		}
		if current == n {
			return reverts.InvalidState("total selected is unchanged")
		}
		if err := s.params.Set(thor.KeyTotalSelected, big.NewInt(int64(n))); err != nil {
			return err
		}
		s.emit(EventTotalSelectedSet, thor.Address{}, thor.Address{}, big.NewInt(int64(n)))
		return nil
	})
	if err != nil {
		logger.Warn("refused total selected update", "n", n, "error", err)
	}
	return err
}

func (s *Staker) SetCollatorCommission(commission thor.Perbill) error {
	err := s.atomic("set_collator_commission", func() error {
		if !commission.IsValid() {
			return reverts.ConfigInvariantViolated("commission exceeds 100%")
		}
		current, err := s.CollatorCommission()
		if err != nil {
			return err
		}
		if current == commission {
			return reverts.InvalidState("commission is unchanged")
		}
		if err := s.params.Set(thor.KeyCollatorCommission, big.NewInt(int64(commission))); err != nil {
			return err
		}
		s.emit(EventCollatorCommissionSet, thor.Address{}, thor.Address{}, big.NewInt(int64(commission)))
		return nil
	})
	if err != nil {
		logger.Warn("refused commission update", "commission", commission, "error", err)
	}
	return err
}

// SetBlocksPerRound changes the length of the current round and of every round after it.
func (s *Staker) SetBlocksPerRound(n uint32) error {
	err := s.atomic("set_blocks_per_round", func() error {
		if n < s.cfg.MinBlocksPerRound {
			return reverts.ConfigInvariantViolated("round length is below the minimum")
		}
		selected, err := s.TotalSelected()
		if err != nil {
			return err
		}
		if n < selected {
			return reverts.ConfigInvariantViolated("round length must not be below total selected")
		}
		r, err := s.rounds.Get()
		if err != nil {
			return err
		}
		if r.Length == n {
			return reverts.InvalidState("round length is unchanged")
		}
		r.Length = n
		if err := s.rounds.Set(r); err != nil {
			return err
		}
		if err := s.params.Set(thor.KeyBlocksPerRound, big.NewInt(int64(n))); err != nil {
			return err
		}
		s.emit(EventBlocksPerRoundSet, thor.Address{}, thor.Address{}, big.NewInt(int64(n)))
		return nil
	})
	if err != nil {
		logger.Warn("refused round length update", "n", n, "error", err)
	}
	return err
}
