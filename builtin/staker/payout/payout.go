// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package payout

import (
	"math/big"

	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/thor"
)

// Snapshot freezes a selected collator's stake at the start of a round.
type Snapshot struct {
	Bond        *big.Int
	Delegations []delegation.Bond // top delegations only
	Total       *big.Int
}

// DelayedPayout is the reward pool of a finished round, paid out once the payment delay has passed.
type DelayedPayout struct {
	RoundIssuance      *big.Int
	TotalStakingReward *big.Int
	CollatorCommission thor.Perbill
}

// Reward is the split of one collator's share of a round reward.
type Reward struct {
	Collator    *big.Int
	Delegations []delegation.Bond
}

// Sum returns the total paid by the reward.
func (r *Reward) Sum() *big.Int {
	sum := new(big.Int).Set(r.Collator)
	for _, d := range r.Delegations {
		sum.Add(sum, d.Amount)
	}
	return sum
}

// Compute splits the round reward for a collator that earned points out of totalPoints. The commission is taken
// from the collator's share first, the rest is split pro rata over the snapshot. Every step rounds down.
func Compute(snap *Snapshot, dp *DelayedPayout, points, totalPoints uint32) *Reward {
	reward := &Reward{Collator: new(big.Int)}
	if totalPoints == 0 || points == 0 || snap.Total.Sign() == 0 {
		return reward
	}

	share := thor.MulDiv(dp.TotalStakingReward, big.NewInt(int64(points)), big.NewInt(int64(totalPoints)))
	commission := dp.CollatorCommission.MulFloor(share)
	remainder := new(big.Int).Sub(share, commission)

	reward.Collator = thor.MulDiv(remainder, snap.Bond, snap.Total)
	reward.Collator.Add(reward.Collator, commission)

	for _, d := range snap.Delegations {
		reward.Delegations = append(reward.Delegations, delegation.Bond{
			Owner:  d.Owner,
			Amount: thor.MulDiv(remainder, d.Amount, snap.Total),
		})
	}
	return reward
}
