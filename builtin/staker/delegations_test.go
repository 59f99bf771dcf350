// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/builtin/staker/scheduled"
	"github.com/vechain/collator-staking/thor"
)

func owners(t *testing.T, s *Staker, candidateAddr thor.Address) (top, bottom []thor.Address) {
	lists, err := s.Delegations(candidateAddr)
	require.NoError(t, err)
	for _, b := range lists.Top.Delegations {
		top = append(top, b.Owner)
	}
	for _, b := range lists.Bottom.Delegations {
		bottom = append(bottom, b.Owner)
	}
	return top, bottom
}

func TestDelegateChecks(t *testing.T) {
	alice, bob, carol, dave := addr("alice"), addr("bob"), addr("carol"), addr("dave")
	cfg := testConfig()
	cfg.MaxDelegationsPerDelegator = 2
	env := newTestStaker(t, cfg, nil, alice, bob, carol, dave)
	s := env.staker

	NewSequence(env).
		Join(alice, M(100)).
		Join(bob, M(100)).
		Join(carol, M(100)).
		Run(t)

	tests := []struct {
		name      string
		delegator thor.Address
		candidate thor.Address
		amount    int64
		kind      reverts.Kind
	}{
		{"unknown candidate", dave, addr("nobody"), 50, reverts.KindNotFound},
		{"candidate delegates", bob, alice, 50, reverts.KindInvalidState},
		{"below delegator minimum", dave, alice, 9, reverts.KindBelowMinimum},
		{"no balance", addr("poor"), alice, 50, reverts.KindInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Delegate(tt.delegator, tt.candidate, M(tt.amount), 10, 10)
			assert.True(t, reverts.Is(err, tt.kind), "got %v", err)
		})
	}

	require.NoError(t, s.Delegate(dave, alice, M(10), 0, 0))
	assert.True(t, reverts.Is(s.Delegate(dave, alice, M(10), 10, 10), reverts.KindAlreadyExists))
	// later delegations only need the per delegation minimum
	assert.True(t, reverts.Is(s.Delegate(dave, bob, M(4), 10, 10), reverts.KindBelowMinimum))
	assert.True(t, reverts.Is(s.Delegate(dave, bob, M(5), 10, 0), reverts.KindInsufficientHint))
	require.NoError(t, s.Delegate(dave, bob, M(5), 0, 1))
	assert.True(t, reverts.Is(s.Delegate(dave, carol, M(5), 10, 10), reverts.KindCapacityExceeded))

	AssertDelegator(s, dave).Total(M(15)).Delegation(alice, M(10)).Delegation(bob, M(5)).Assert(t)
	AssertCandidate(s, alice).TotalCounted(M(110)).DelegationCount(1).Assert(t)
	require.NoError(t, s.CheckInvariants())
}

// A new delegation larger than the lowest top delegation of a full top list demotes it.
func TestDelegateDisplacesTop(t *testing.T) {
	c, x, d := addr("candidate"), addr("x"), addr("d")
	cfg := testConfig()
	cfg.MaxTopDelegationsPerCandidate = 1
	env := newTestStaker(t, cfg, nil, c, x, d)
	s := env.staker

	NewSequence(env).
		Join(c, M(100)).
		Delegate(x, c, M(40)).
		Delegate(d, c, M(50)).
		Run(t)

	top, bottom := owners(t, s, c)
	assert.Equal(t, []thor.Address{d}, top)
	assert.Equal(t, []thor.Address{x}, bottom)
	AssertCandidate(s, c).
		TotalCounted(M(150)).
		TotalBond(M(190)).
		DelegationCount(2).
		Assert(t)
}

func TestDelegateKicksLowestBottom(t *testing.T) {
	alice := addr("alice")
	ds := []thor.Address{addr("d1"), addr("d2"), addr("d3"), addr("d4"), addr("d5"), addr("d6"), addr("d7")}
	env := newTestStaker(t, nil, nil, append([]thor.Address{alice}, ds...)...)
	s := env.staker

	NewSequence(env).
		Join(alice, M(100)).
		Delegate(ds[0], alice, M(50)).
		Delegate(ds[1], alice, M(40)).
		Delegate(ds[2], alice, M(30)).
		Delegate(ds[3], alice, M(20)).
		Run(t)

	top, bottom := owners(t, s, alice)
	assert.Equal(t, []thor.Address{ds[0], ds[1]}, top)
	assert.Equal(t, []thor.Address{ds[2], ds[3]}, bottom)

	// too small for either list
	err := s.Delegate(ds[4], alice, M(20), 10, 10)
	assert.True(t, reverts.Is(err, reverts.KindCapacityExceeded), "got %v", err)

	s.DrainEvents()
	require.NoError(t, s.Delegate(ds[4], alice, M(25), 10, 10))
	_, bottom = owners(t, s, alice)
	assert.Equal(t, []thor.Address{ds[2], ds[4]}, bottom)

	kicked, err := s.Delegator(ds[3])
	require.NoError(t, err)
	assert.Nil(t, kicked)
	assert.Equal(t, 0, env.balance(t, ds[3]).Cmp(M(10_000)))

	events := s.DrainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventDelegation, events[0].Kind)
	assert.Equal(t, EventDelegationKicked, events[1].Kind)
	assert.Equal(t, ds[3], events[1].Account)

	// a bond entering top pushes the demoted bond into a full bottom list
	require.NoError(t, s.Delegate(ds[5], alice, M(45), 10, 10))
	top, bottom = owners(t, s, alice)
	assert.Equal(t, []thor.Address{ds[0], ds[5]}, top)
	assert.Equal(t, []thor.Address{ds[1], ds[2]}, bottom)
	kicked, err = s.Delegator(ds[4])
	require.NoError(t, err)
	assert.Nil(t, kicked)

	AssertCandidate(s, alice).
		TotalCounted(M(195)).
		TotalBond(M(265)).
		DelegationCount(4).
		Assert(t)
	require.NoError(t, s.CheckInvariants())
}

func TestDelegatorBondMore(t *testing.T) {
	alice, d1, d2, d3 := addr("alice"), addr("d1"), addr("d2"), addr("d3")
	env := newTestStaker(t, nil, nil, alice, d1, d2, d3)
	s := env.staker

	NewSequence(env).
		Join(alice, M(100)).
		Delegate(d1, alice, M(50)).
		Delegate(d2, alice, M(40)).
		Delegate(d3, alice, M(30)).
		Run(t)

	assert.True(t, reverts.Is(s.DelegatorBondMore(alice, alice, M(1)), reverts.KindNotFound))

	// promotion from bottom to top
	require.NoError(t, s.DelegatorBondMore(d3, alice, M(15)))
	top, bottom := owners(t, s, alice)
	assert.Equal(t, []thor.Address{d1, d3}, top)
	assert.Equal(t, []thor.Address{d2}, bottom)
	AssertCandidate(s, alice).TotalCounted(M(195)).TotalBond(M(235)).Assert(t)
	AssertDelegator(s, d3).Total(M(45)).Delegation(alice, M(45)).Assert(t)

	// bonding more is refused while a revoke is pending
	require.NoError(t, s.ScheduleRevokeDelegation(d2, alice))
	assert.True(t, reverts.Is(s.DelegatorBondMore(d2, alice, M(1)), reverts.KindInvalidState))

	// but allowed next to a pending decrease
	require.NoError(t, s.ScheduleDelegatorBondLess(d1, alice, M(10)))
	require.NoError(t, s.DelegatorBondMore(d1, alice, M(10)))
	AssertDelegator(s, d1).Total(M(60)).LessTotal(M(10)).Assert(t)
	require.NoError(t, s.CheckInvariants())
}

// A decrease scheduled in round 5 with a two round delay can be executed from round 7.
func TestDelegationDecreaseMatures(t *testing.T) {
	alice, dave := addr("alice"), addr("dave")
	env := newTestStaker(t, nil, nil, alice, dave)
	s := env.staker

	NewSequence(env).
		Join(alice, M(100)).
		Delegate(dave, alice, M(100)).
		Run(t)

	env.advanceTo(t, 5)
	require.NoError(t, s.ScheduleDelegatorBondLess(dave, alice, M(20)))
	AssertDelegator(s, dave).Total(M(100)).LessTotal(M(20)).Assert(t)

	requests, err := s.DelegationRequests(alice)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, scheduled.KindDecrease, requests[0].Action.Kind)
	assert.Equal(t, uint32(7), requests[0].WhenExecutable)

	env.nextRound(t)
	assert.Equal(t, uint32(6), env.currentRound(t))
	err = s.ExecuteDelegationRequest(alice, dave, alice)
	assert.True(t, reverts.Is(err, reverts.KindNotYetMatured), "got %v", err)

	env.nextRound(t)
	before := env.balance(t, dave)
	require.NoError(t, s.ExecuteDelegationRequest(alice, dave, alice))

	AssertDelegator(s, dave).Total(M(80)).LessTotal(M(0)).Delegation(alice, M(80)).Assert(t)
	AssertCandidate(s, alice).TotalCounted(M(180)).TotalBond(M(180)).Assert(t)
	assert.Equal(t, 0, env.balance(t, dave).Cmp(before.Add(before, M(20))))

	err = s.ExecuteDelegationRequest(alice, dave, alice)
	assert.True(t, reverts.Is(err, reverts.KindNotFound), "got %v", err)
	require.NoError(t, s.CheckInvariants())
}

func TestDelegationRequestChecks(t *testing.T) {
	alice, bob, dave, eve := addr("alice"), addr("bob"), addr("dave"), addr("eve")
	env := newTestStaker(t, nil, nil, alice, bob, dave, eve)
	s := env.staker

	NewSequence(env).
		Join(alice, M(100)).
		Join(bob, M(100)).
		Delegate(dave, alice, M(20)).
		Delegate(dave, bob, M(8)).
		Delegate(eve, alice, M(12)).
		Run(t)

	tests := []struct {
		name string
		err  error
		kind reverts.Kind
	}{
		{"unknown delegator", s.ScheduleRevokeDelegation(addr("nobody"), alice), reverts.KindNotFound},
		{"unknown delegation", s.ScheduleRevokeDelegation(dave, addr("nobody")), reverts.KindNotFound},
		{"below delegation minimum", s.ScheduleDelegatorBondLess(dave, bob, M(4)), reverts.KindBelowMinimum},
		{"decrease too large", s.ScheduleDelegatorBondLess(dave, alice, M(19)), reverts.KindBelowMinimum},
		{"below delegator minimum", s.ScheduleDelegatorBondLess(eve, alice, M(3)), reverts.KindBelowMinimum},
		{"nothing to execute", s.ExecuteDelegationRequest(dave, dave, alice), reverts.KindNotFound},
		{"nothing to cancel", s.CancelDelegationRequest(dave, alice), reverts.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, reverts.Is(tt.err, tt.kind), "got %v", tt.err)
		})
	}

	require.NoError(t, s.ScheduleDelegatorBondLess(dave, alice, M(10)))
	assert.True(t, reverts.Is(s.ScheduleRevokeDelegation(dave, alice), reverts.KindAlreadyExists))
	assert.True(t, reverts.Is(s.ScheduleDelegatorBondLess(dave, alice, M(1)), reverts.KindAlreadyExists))
	require.NoError(t, s.ScheduleDelegatorBondLess(dave, bob, M(3)))
	AssertDelegator(s, dave).Total(M(28)).LessTotal(M(13)).Assert(t)
	require.NoError(t, s.CancelDelegationRequest(dave, bob))

	// cancel then execute
	require.NoError(t, s.CancelDelegationRequest(dave, alice))
	AssertDelegator(s, dave).LessTotal(M(0)).Assert(t)
	assert.True(t, reverts.Is(s.ExecuteDelegationRequest(dave, dave, alice), reverts.KindNotFound))
	require.NoError(t, s.CheckInvariants())
}

func TestRevokeDelegation(t *testing.T) {
	alice, bob, dave := addr("alice"), addr("bob"), addr("dave")
	env := newTestStaker(t, nil, nil, alice, bob, dave)
	s := env.staker

	NewSequence(env).
		Join(alice, M(100)).
		Join(bob, M(100)).
		Delegate(dave, alice, M(30)).
		Delegate(dave, bob, M(20)).
		Run(t)

	require.NoError(t, s.ScheduleRevokeDelegation(dave, bob))
	AssertDelegator(s, dave).Total(M(50)).LessTotal(M(20)).Assert(t)
	// the delegation keeps counting until executed
	AssertCandidate(s, bob).TotalCounted(M(120)).Assert(t)

	env.advanceTo(t, env.currentRound(t)+s.Config().RevokeDelegationDelay)
	before := env.balance(t, dave)
	require.NoError(t, s.ExecuteDelegationRequest(alice, dave, bob))

	AssertDelegator(s, dave).Total(M(30)).LessTotal(M(0)).Delegation(alice, M(30)).Assert(t)
	AssertCandidate(s, bob).TotalCounted(M(100)).DelegationCount(0).Assert(t)
	assert.Equal(t, 0, env.balance(t, dave).Cmp(before.Add(before, M(20))))

	d, err := s.Delegator(dave)
	require.NoError(t, err)
	_, ok := d.Get(bob)
	assert.False(t, ok)

	// revoking the last delegation removes the delegator
	require.NoError(t, s.ScheduleRevokeDelegation(dave, alice))
	env.advanceTo(t, env.currentRound(t)+s.Config().RevokeDelegationDelay)
	require.NoError(t, s.ExecuteDelegationRequest(dave, dave, alice))
	d, err = s.Delegator(dave)
	require.NoError(t, err)
	assert.Nil(t, d)

	delegators, err := s.Delegators()
	require.NoError(t, err)
	assert.NotContains(t, delegators, dave)
	assert.Equal(t, 0, env.balance(t, dave).Cmp(M(10_000)))
	require.NoError(t, s.CheckInvariants())
}

func TestLeaveDelegators(t *testing.T) {
	alice, bob, dave := addr("alice"), addr("bob"), addr("dave")
	env := newTestStaker(t, nil, nil, alice, bob, dave)
	s := env.staker

	NewSequence(env).
		Join(alice, M(100)).
		Join(bob, M(100)).
		Delegate(dave, alice, M(30)).
		Delegate(dave, bob, M(20)).
		Run(t)

	assert.True(t, reverts.Is(s.ScheduleLeaveDelegators(addr("nobody")), reverts.KindNotFound))
	assert.True(t, reverts.Is(s.CancelLeaveDelegators(dave), reverts.KindInvalidState))
	assert.True(t, reverts.Is(s.ExecuteLeaveDelegators(alice, dave, 2), reverts.KindInvalidState))

	// a pending request blocks the exit
	require.NoError(t, s.ScheduleDelegatorBondLess(dave, alice, M(5)))
	assert.True(t, reverts.Is(s.ScheduleLeaveDelegators(dave), reverts.KindAlreadyExists))
	require.NoError(t, s.CancelDelegationRequest(dave, alice))

	require.NoError(t, s.ScheduleLeaveDelegators(dave))
	AssertDelegator(s, dave).Total(M(50)).LessTotal(M(50)).Assert(t)
	assert.True(t, reverts.Is(s.ScheduleLeaveDelegators(dave), reverts.KindInvalidState))

	// a leaving delegator cannot change its delegations
	assert.True(t, reverts.Is(s.Delegate(dave, alice, M(10), 10, 10), reverts.KindInvalidState))
	assert.True(t, reverts.Is(s.DelegatorBondMore(dave, alice, M(1)), reverts.KindInvalidState))
	assert.True(t, reverts.Is(s.CancelDelegationRequest(dave, alice), reverts.KindInvalidState))

	// cancel and schedule again
	require.NoError(t, s.CancelLeaveDelegators(dave))
	AssertDelegator(s, dave).LessTotal(M(0)).Assert(t)
	requests, err := s.DelegationRequests(alice)
	require.NoError(t, err)
	assert.Empty(t, requests)

	require.NoError(t, s.ScheduleLeaveDelegators(dave))
	d, err := s.Delegator(dave)
	require.NoError(t, err)
	assert.True(t, reverts.Is(s.ExecuteLeaveDelegators(alice, dave, 2), reverts.KindNotYetMatured))

	env.advanceTo(t, d.LeavingRound)
	assert.True(t, reverts.Is(s.ExecuteLeaveDelegators(alice, dave, 1), reverts.KindInsufficientHint))
	require.NoError(t, s.ExecuteLeaveDelegators(alice, dave, 2))

	d, err = s.Delegator(dave)
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Equal(t, 0, env.balance(t, dave).Cmp(M(10_000)))
	AssertCandidate(s, alice).TotalCounted(M(100)).DelegationCount(0).Assert(t)
	AssertCandidate(s, bob).TotalCounted(M(100)).DelegationCount(0).Assert(t)

	for _, c := range []thor.Address{alice, bob} {
		requests, err := s.DelegationRequests(c)
		require.NoError(t, err)
		assert.Empty(t, requests)
	}
	require.NoError(t, s.CheckInvariants())
}

func TestDelegationRevokeMatchesLeave(t *testing.T) {
	alice, dave := addr("alice"), addr("dave")
	env := newTestStaker(t, nil, nil, alice, dave)
	s := env.staker

	NewSequence(env).
		Join(alice, M(100)).
		Delegate(dave, alice, M(30)).
		Run(t)

	// leaving with one delegation schedules the same revoke as revoking it directly
	require.NoError(t, s.ScheduleLeaveDelegators(dave))
	requests, err := s.DelegationRequests(alice)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, dave, requests[0].Delegator)
	assert.Equal(t, scheduled.KindRevoke, requests[0].Action.Kind)
	assert.Equal(t, 0, requests[0].Action.Amount.Cmp(M(30)))
}
