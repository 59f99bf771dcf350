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

// Unit is one whole token.
var Unit = big.NewInt(1e18)

// Config holds the constants of the staking engine. Delays are in rounds.
type Config struct {
	LeaveCandidatesDelay    uint32 `yaml:"leaveCandidatesDelay"`
	CandidateBondLessDelay  uint32 `yaml:"candidateBondLessDelay"`
	LeaveDelegatorsDelay    uint32 `yaml:"leaveDelegatorsDelay"`
	RevokeDelegationDelay   uint32 `yaml:"revokeDelegationDelay"`
	DelegationBondLessDelay uint32 `yaml:"delegationBondLessDelay"`
	RewardPaymentDelay      uint32 `yaml:"rewardPaymentDelay"`

	MaxTopDelegationsPerCandidate    uint32 `yaml:"maxTopDelegationsPerCandidate"`
	MaxBottomDelegationsPerCandidate uint32 `yaml:"maxBottomDelegationsPerCandidate"`
	MaxDelegationsPerDelegator       uint32 `yaml:"maxDelegationsPerDelegator"`

	MinCandidateStk *big.Int `yaml:"-"`
	MinDelegatorStk *big.Int `yaml:"-"` // minimum total stake of a delegator
	MinDelegation   *big.Int `yaml:"-"` // minimum of each single delegation

	MinBlocksPerRound     uint32 `yaml:"minBlocksPerRound"`
	MinSelectedCandidates uint32 `yaml:"minSelectedCandidates"`

	// BlocksPerYear converts annual inflation into per-round issuance. Zero means thor.BlocksPerYear().
	BlocksPerYear uint64 `yaml:"blocksPerYear"`

	Curve round.IssuanceCurve `yaml:"-"`
}

// DefaultConfig returns the constants used when nothing else is configured.
func DefaultConfig() *Config {
	return &Config{
		LeaveCandidatesDelay:    2,
		CandidateBondLessDelay:  2,
		LeaveDelegatorsDelay:    2,
		RevokeDelegationDelay:   2,
		DelegationBondLessDelay: 2,
		RewardPaymentDelay:      2,

		MaxTopDelegationsPerCandidate:    300,
		MaxBottomDelegationsPerCandidate: 50,
		MaxDelegationsPerDelegator:       100,

		MinCandidateStk: new(big.Int).Mul(big.NewInt(1000), Unit),
		MinDelegatorStk: new(big.Int).Mul(big.NewInt(5), Unit),
		MinDelegation:   new(big.Int).Mul(big.NewInt(5), Unit),

		MinBlocksPerRound:     3,
		MinSelectedCandidates: 1,

		Curve: round.LinearCurve{},
	}
}

func (c *Config) Validate() error {
	if c.MaxTopDelegationsPerCandidate == 0 {
		return errors.New("max top delegations per candidate must be positive")
	}
	if c.MaxDelegationsPerDelegator == 0 {
		return errors.New("max delegations per delegator must be positive")
	}
	for name, v := range map[string]*big.Int{
		"min candidate stake": c.MinCandidateStk,
		"min delegator stake": c.MinDelegatorStk,
		"min delegation":      c.MinDelegation,
	} {
		if v == nil || v.Sign() <= 0 {
			return errors.Errorf("%s must be positive", name)
		}
	}
	if c.MinDelegatorStk.Cmp(c.MinDelegation) < 0 {
		return errors.New("min delegator stake must not be below min delegation")
	}
	if c.MinBlocksPerRound == 0 || c.MinSelectedCandidates == 0 {
		return errors.New("min blocks per round and min selected candidates must be positive")
	}
	if c.Curve == nil {
		return errors.New("issuance curve is not set")
	}
	return nil
}

func (c *Config) blocksPerYear() uint64 {
	if c.BlocksPerYear != 0 {
		return c.BlocksPerYear
	}
	return thor.BlocksPerYear()
}
