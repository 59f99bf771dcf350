// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/thor"
)

const (
	devCandidates = 4
	devAccountNum = 10
)

var devAccounts atomic.Value

// DevAccounts returns the pre-funded accounts of the devnet. The first four are genesis candidates, the rest
// delegate to them.
func DevAccounts() []thor.Address {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]thor.Address)
	}

	accs := make([]thor.Address, 0, devAccountNum)
	for i := range devAccountNum {
		h := thor.Blake2b([]byte(fmt.Sprintf("collator-staking-dev-%d", i)))
		accs = append(accs, thor.BytesToAddress(h.Bytes()))
	}
	devAccounts.Store(accs)
	return accs
}

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), staker.Unit)
}

// NewDevnet create genesis for local simulation.
func NewDevnet() *Genesis {
	accs := DevAccounts()
	cfg := staker.DefaultConfig()
	cfg.MaxTopDelegationsPerCandidate = 4
	cfg.MaxBottomDelegationsPerCandidate = 2

	staking := &staker.Genesis{
		BlocksPerRound:     20,
		TotalSelected:      3,
		CollatorCommission: thor.PerbillFromPercent(20),
		Inflation: round.InflationConfig{
			Expect: round.Range[*big.Int]{Min: units(3_000), Ideal: units(4_000), Max: units(5_000)},
			Annual: round.Range[thor.Perbill]{
				Min:   thor.PerbillFromPercent(4),
				Ideal: thor.PerbillFromPercent(5),
				Max:   thor.PerbillFromPercent(5),
			},
		},
	}
	builder := new(Builder).
		Config(cfg).
		ExistentialDeposit(units(1))

	for i, acc := range accs {
		builder.Alloc(acc, units(1_000_000))
		if i < devCandidates {
			staking.Candidates = append(staking.Candidates, staker.GenesisCandidate{
				Account: acc,
				Bond:    units(int64(1_000 * (i + 1))),
			})
			continue
		}
		staking.Delegations = append(staking.Delegations, staker.GenesisDelegation{
			Delegator: acc,
			Candidate: accs[i%devCandidates],
			Amount:    units(100),
		})
	}

	return &Genesis{builder: builder.Staking(staking), name: "devnet"}
}
