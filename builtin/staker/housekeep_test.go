// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/payout"
	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/thor"
)

// rewardConfig issues 2.5% of the supply per round while stake stays in the expected range.
func rewardConfig() *Config {
	cfg := testConfig()
	cfg.BlocksPerYear = 10
	cfg.Curve = round.SteppedCurve{}
	return cfg
}

func TestRoundTransition(t *testing.T) {
	alice, bob, carol := addr("alice"), addr("bob"), addr("carol")
	env := newTestStaker(t, nil, nil, alice, bob, carol)
	s := env.staker

	NewSequence(env).
		Join(bob, M(300)).
		Join(carol, M(400)).
		Join(alice, M(500)).
		Run(t)
	s.DrainEvents()

	// blocks inside the round change nothing
	for env.block < 4 {
		env.block++
		require.NoError(t, s.OnInitialize(env.block))
	}
	assert.Equal(t, uint32(1), env.currentRound(t))
	assert.Empty(t, s.DrainEvents())

	env.nextRound(t)
	r, err := s.Round()
	require.NoError(t, err)
	assert.Equal(t, &round.Round{Current: 2, First: 5, Length: 5}, r)

	selected, err := s.SelectedCandidates()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{alice, carol}, selected)

	staked, err := s.Staked(2)
	require.NoError(t, err)
	assert.Equal(t, 0, staked.Cmp(M(900)))

	snap, err := s.Snapshot(2, alice)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.Total.Cmp(M(500)))
	snap, err = s.Snapshot(2, bob)
	require.NoError(t, err)
	assert.Nil(t, snap)

	var newRound *Event
	for _, ev := range s.DrainEvents() {
		if ev.Kind == EventNewRound {
			newRound = ev
		}
	}
	require.NotNil(t, newRound)
	assert.Equal(t, uint32(2), newRound.Round)
	assert.Equal(t, 0, newRound.Amount.Cmp(M(900)))

	// the reward pool of round 1 is waiting for its payment delay
	dp, err := s.DelayedPayout(1)
	require.NoError(t, err)
	require.NotNil(t, dp)
	assert.Equal(t, thor.PerbillFromPercent(20), dp.CollatorCommission)
}

func TestRoundLengthChange(t *testing.T) {
	env := newTestStaker(t, nil, nil)
	s := env.staker

	require.NoError(t, s.SetBlocksPerRound(8))
	env.nextRound(t)
	assert.Equal(t, uint64(8), env.block)

	r, err := s.Round()
	require.NoError(t, err)
	assert.Equal(t, &round.Round{Current: 2, First: 8, Length: 8}, r)
}

func TestNoteAuthor(t *testing.T) {
	alice, bob, carol := addr("alice"), addr("bob"), addr("carol")
	g := testGenesis()
	g.Candidates = []GenesisCandidate{
		{Account: alice, Bond: M(500)},
		{Account: bob, Bond: M(300)},
	}
	env := newTestStaker(t, nil, g, alice, bob, carol)
	s := env.staker

	NewSequence(env).
		Join(carol, M(100)).
		Author(alice, 3).
		Author(bob, 1).
		Author(carol, 2).
		Run(t)

	total, err := s.Points(1)
	require.NoError(t, err)
	assert.Equal(t, 4*thor.PointsPerBlock, total)

	pts, err := s.AwardedPoints(1, alice)
	require.NoError(t, err)
	assert.Equal(t, 3*thor.PointsPerBlock, pts)

	// carol is a candidate but was not selected for this round
	pts, err = s.AwardedPoints(1, carol)
	require.NoError(t, err)
	assert.Zero(t, pts)
}

// A collator with 600 of its own and delegations of 300 and 100 earning 20 of 100 points out of a
// 1000 reward pool at 10% commission receives 128, the delegators 54 and 18.
func TestPayOneCollatorReward(t *testing.T) {
	collator, alice, bob, other := addr("collator"), addr("alice"), addr("bob"), addr("other")
	env := newTestStaker(t, nil, nil)
	s := env.staker

	const paid = uint32(9)
	require.NoError(t, s.payouts.SetSnapshot(paid, collator, &payout.Snapshot{
		Bond: M(600),
		Delegations: []delegation.Bond{
			{Owner: alice, Amount: M(300)},
			{Owner: bob, Amount: M(100)},
		},
		Total: M(1000),
	}))
	require.NoError(t, s.payouts.SetDelayedPayout(paid, &payout.DelayedPayout{
		RoundIssuance:      M(1000),
		TotalStakingReward: M(1000),
		CollatorCommission: thor.PerbillFromPercent(10),
	}))
	require.NoError(t, s.payouts.Award(paid, collator, 20))
	require.NoError(t, s.payouts.Award(paid, other, 80))

	require.NoError(t, s.PayOneCollatorReward(paid))

	assert.Equal(t, 0, env.balance(t, collator).Cmp(M(128)))
	assert.Equal(t, 0, env.balance(t, alice).Cmp(M(54)))
	assert.Equal(t, 0, env.balance(t, bob).Cmp(M(18)))

	issued, err := env.ledger.TotalIssuance()
	require.NoError(t, err)
	assert.Equal(t, 0, issued.Cmp(M(200)))

	events := s.DrainEvents()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, EventRewarded, ev.Kind)
		assert.Equal(t, collator, ev.Target)
	}

	// the drained round is cleaned up and paying again is a no-op
	dp, err := s.DelayedPayout(paid)
	require.NoError(t, err)
	assert.Nil(t, dp)
	pts, err := s.Points(paid)
	require.NoError(t, err)
	assert.Zero(t, pts)

	require.NoError(t, s.PayOneCollatorReward(paid))
	assert.Equal(t, 0, env.balance(t, collator).Cmp(M(128)))
}

func TestPayOneCollatorRewardWithoutPoints(t *testing.T) {
	collator := addr("collator")
	env := newTestStaker(t, nil, nil)
	s := env.staker

	require.NoError(t, s.payouts.SetSnapshot(3, collator, &payout.Snapshot{Bond: M(100), Total: M(100)}))
	require.NoError(t, s.payouts.SetSnapshot(3, addr("second"), &payout.Snapshot{Bond: M(100), Total: M(100)}))
	require.NoError(t, s.payouts.SetDelayedPayout(3, &payout.DelayedPayout{
		RoundIssuance:      M(1000),
		TotalStakingReward: M(1000),
	}))

	require.NoError(t, s.PayOneCollatorReward(3))
	assert.Zero(t, env.balance(t, collator).Sign())

	// one collator is still pending
	dp, err := s.DelayedPayout(3)
	require.NoError(t, err)
	assert.NotNil(t, dp)
	pending, err := s.payouts.Pending(3)
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{addr("second")}, pending)

	require.NoError(t, s.PayOneCollatorReward(3))
	dp, err = s.DelayedPayout(3)
	require.NoError(t, err)
	assert.Nil(t, dp)
}

func TestRewardsEndToEnd(t *testing.T) {
	alice, bob, dave := addr("alice"), addr("bob"), addr("dave")
	g := testGenesis()
	g.Candidates = []GenesisCandidate{
		{Account: alice, Bond: M(500)},
		{Account: bob, Bond: M(300)},
	}
	g.Delegations = []GenesisDelegation{
		{Delegator: dave, Candidate: alice, Amount: M(100)},
	}
	env := newTestStaker(t, rewardConfig(), g, alice, bob, dave)
	s := env.staker

	selected, err := s.SelectedCandidates()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{alice, bob}, selected)

	NewSequence(env).
		Author(alice, 3).
		Author(bob, 1).
		NextRound().
		Run(t)

	// 30000 supply at 5% a year over half a year of blocks
	dp, err := s.DelayedPayout(1)
	require.NoError(t, err)
	require.NotNil(t, dp)
	assert.Equal(t, 0, dp.RoundIssuance.Cmp(M(750)))
	assert.Equal(t, 0, dp.TotalStakingReward.Cmp(M(750)))

	// nothing is paid before the delay has passed
	assert.Equal(t, 0, env.balance(t, alice).Cmp(M(9_500)))

	env.advanceTo(t, 4)

	// alice: 562 share, 112 commission, 450 * 500 / 600 = 375
	assert.Equal(t, 0, env.balance(t, alice).Cmp(M(9_500+487)), "alice %v", env.balance(t, alice))
	assert.Equal(t, 0, env.balance(t, dave).Cmp(M(9_900+75)), "dave %v", env.balance(t, dave))
	// bob: 187 share with no delegations
	assert.Equal(t, 0, env.balance(t, bob).Cmp(M(9_700+187)), "bob %v", env.balance(t, bob))

	dp, err = s.DelayedPayout(1)
	require.NoError(t, err)
	assert.Nil(t, dp)

	// every unit issued is either free or locked
	issued, err := env.ledger.TotalIssuance()
	require.NoError(t, err)
	locked, err := s.TotalLocked()
	require.NoError(t, err)
	sum := new(big.Int).Set(locked)
	for _, acc := range []thor.Address{alice, bob, dave} {
		sum.Add(sum, env.balance(t, acc))
	}
	assert.Equal(t, 0, issued.Cmp(sum), "issued %v, accounted %v", issued, sum)
	assert.Equal(t, 0, issued.Cmp(M(30_749)))
}

func TestParachainBondReserve(t *testing.T) {
	alice, treasury := addr("alice"), addr("treasury")
	g := testGenesis()
	g.Candidates = []GenesisCandidate{{Account: alice, Bond: M(500)}}
	g.ParachainBondAccount = &treasury
	g.ParachainBondPercent = 30
	env := newTestStaker(t, rewardConfig(), g, alice)
	s := env.staker

	env.nextRound(t)

	dp, err := s.DelayedPayout(1)
	require.NoError(t, err)
	require.NotNil(t, dp)
	assert.Equal(t, 0, dp.RoundIssuance.Cmp(M(250)))
	assert.Equal(t, 0, dp.TotalStakingReward.Cmp(M(175)))
	assert.Equal(t, 0, env.balance(t, treasury).Cmp(M(75)))

	var reserved bool
	for _, ev := range s.DrainEvents() {
		if ev.Kind == EventReservedForParachainBond {
			reserved = true
			assert.Equal(t, treasury, ev.Account)
		}
	}
	assert.True(t, reserved)
}

func TestWholeUnits(t *testing.T) {
	// 50 tokens in wei do not fit an int64
	locked := new(big.Int).Mul(big.NewInt(50), Unit)
	require.False(t, locked.IsInt64())

	units, ok := wholeUnits(locked)
	assert.True(t, ok)
	assert.Equal(t, int64(50), units)

	units, ok = wholeUnits(new(big.Int).Sub(Unit, big.NewInt(1)))
	assert.True(t, ok)
	assert.Zero(t, units)

	_, ok = wholeUnits(new(big.Int).Lsh(Unit, 80))
	assert.False(t, ok)
}
