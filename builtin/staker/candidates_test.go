// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/builtin/staker/candidate"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

func TestJoinCandidates(t *testing.T) {
	alice, bob, poor := addr("alice"), addr("bob"), addr("poor")
	env := newTestStaker(t, nil, nil, alice, bob)
	s := env.staker

	// scenario A: a candidate joining with the minimum bond is immediately in the pool
	require.NoError(t, s.JoinCandidates(alice, M(100), 0))
	AssertCandidate(s, alice).
		Status(candidate.StatusActive).
		Bond(M(100)).
		TotalBond(M(100)).
		TotalCounted(M(100)).
		DelegationCount(0).
		Assert(t)

	pool, err := s.CandidatePool()
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, alice, pool[0].Owner)
	assert.Equal(t, 0, env.balance(t, alice).Cmp(M(9_900)))

	locked, err := s.TotalLocked()
	require.NoError(t, err)
	assert.Equal(t, 0, locked.Cmp(M(100)))

	tests := []struct {
		name    string
		account thor.Address
		bond    int64
		hint    uint32
		kind    reverts.Kind
	}{
		{"duplicate", alice, 100, 1, reverts.KindAlreadyExists},
		{"below minimum", bob, 99, 1, reverts.KindBelowMinimum},
		{"hint too low", bob, 100, 0, reverts.KindInsufficientHint},
		{"no balance", poor, 100, 1, reverts.KindInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.JoinCandidates(tt.account, M(tt.bond), tt.hint)
			assert.True(t, reverts.Is(err, tt.kind), "got %v", err)
		})
	}

	require.NoError(t, s.Delegate(bob, alice, M(10), 0, 0))
	err = s.JoinCandidates(bob, M(100), 1)
	assert.True(t, reverts.Is(err, reverts.KindInvalidState))
	require.NoError(t, s.CheckInvariants())
}

func TestLeaveCandidates(t *testing.T) {
	alice, bob, dave := addr("alice"), addr("bob"), addr("dave")
	env := newTestStaker(t, nil, nil, alice, bob, dave)
	s := env.staker

	NewSequence(env).
		Join(alice, M(500)).
		Join(bob, M(300)).
		Delegate(dave, alice, M(50)).
		Delegate(dave, bob, M(20)).
		Run(t)

	err := s.ScheduleLeaveCandidates(alice, 1)
	assert.True(t, reverts.Is(err, reverts.KindInsufficientHint))
	err = s.ScheduleLeaveCandidates(addr("nobody"), 2)
	assert.True(t, reverts.Is(err, reverts.KindNotFound))
	err = s.CancelLeaveCandidates(alice, 2)
	assert.True(t, reverts.Is(err, reverts.KindInvalidState))
	err = s.ExecuteLeaveCandidates(bob, alice, 10)
	assert.True(t, reverts.Is(err, reverts.KindInvalidState))

	require.NoError(t, s.ScheduleLeaveCandidates(alice, 2))
	AssertCandidate(s, alice).Status(candidate.StatusLeaving).Assert(t)
	assert.True(t, reverts.Is(s.ScheduleLeaveCandidates(alice, 2), reverts.KindInvalidState))

	// leaving candidates are not selectable and cannot take delegations
	pool, err := s.CandidatePool()
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, bob, pool[0].Owner)
	assert.True(t, reverts.Is(s.Delegate(addr("eve"), alice, M(50), 10, 10), reverts.KindInvalidState))

	// cancel and schedule again
	require.NoError(t, s.CancelLeaveCandidates(alice, 1))
	AssertCandidate(s, alice).Status(candidate.StatusActive).Assert(t)
	require.NoError(t, s.ScheduleLeaveCandidates(alice, 2))

	c, err := s.Candidate(alice)
	require.NoError(t, err)
	assert.Equal(t, env.currentRound(t)+s.Config().LeaveCandidatesDelay, c.LeavingRound)

	err = s.ExecuteLeaveCandidates(bob, alice, 1)
	assert.True(t, reverts.Is(err, reverts.KindNotYetMatured))

	env.advanceTo(t, c.LeavingRound)

	err = s.ExecuteLeaveCandidates(bob, alice, 0)
	assert.True(t, reverts.Is(err, reverts.KindInsufficientHint))

	aliceBefore := env.balance(t, alice)
	daveBefore := env.balance(t, dave)
	require.NoError(t, s.ExecuteLeaveCandidates(bob, alice, 1))

	assert.Equal(t, 0, env.balance(t, alice).Cmp(aliceBefore.Add(aliceBefore, M(500))))
	assert.Equal(t, 0, env.balance(t, dave).Cmp(daveBefore.Add(daveBefore, M(50))))

	c, err = s.Candidate(alice)
	require.NoError(t, err)
	assert.Nil(t, c)
	AssertDelegator(s, dave).Total(M(20)).Delegation(bob, M(20)).Assert(t)

	lists, err := s.Delegations(alice)
	require.NoError(t, err)
	assert.Equal(t, 0, lists.Len())
	require.NoError(t, s.CheckInvariants())

	assert.True(t, reverts.Is(s.ExecuteLeaveCandidates(bob, alice, 1), reverts.KindNotFound))
}

func TestLeaveCandidatesRemovesEmptyDelegator(t *testing.T) {
	alice, dave := addr("alice"), addr("dave")
	env := newTestStaker(t, nil, nil, alice, dave)
	s := env.staker

	NewSequence(env).
		Join(alice, M(500)).
		Delegate(dave, alice, M(50)).
		Run(t)
	require.NoError(t, s.ScheduleRevokeDelegation(dave, alice))
	require.NoError(t, s.ScheduleLeaveCandidates(alice, 1))
	env.advanceTo(t, env.currentRound(t)+s.Config().LeaveCandidatesDelay)

	require.NoError(t, s.ExecuteLeaveCandidates(dave, alice, 1))
	d, err := s.Delegator(dave)
	require.NoError(t, err)
	assert.Nil(t, d)

	requests, err := s.DelegationRequests(alice)
	require.NoError(t, err)
	assert.Empty(t, requests)
	require.NoError(t, s.CheckInvariants())
}

func TestGoOfflineOnline(t *testing.T) {
	alice := addr("alice")
	env := newTestStaker(t, nil, nil, alice)
	s := env.staker

	assert.True(t, reverts.Is(s.GoOffline(alice), reverts.KindNotFound))
	require.NoError(t, s.JoinCandidates(alice, M(100), 0))

	assert.True(t, reverts.Is(s.GoOnline(alice), reverts.KindInvalidState))
	require.NoError(t, s.GoOffline(alice))
	assert.True(t, reverts.Is(s.GoOffline(alice), reverts.KindInvalidState))

	AssertCandidate(s, alice).Status(candidate.StatusIdle).Bond(M(100)).Assert(t)
	size, err := s.candidates.PoolSize()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), size)

	// offline candidates are skipped by selection
	env.nextRound(t)
	selected, err := s.SelectedCandidates()
	require.NoError(t, err)
	assert.Empty(t, selected)

	require.NoError(t, s.GoOnline(alice))
	env.nextRound(t)
	selected, err = s.SelectedCandidates()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{alice}, selected)

	require.NoError(t, s.ScheduleLeaveCandidates(alice, 1))
	assert.True(t, reverts.Is(s.GoOffline(alice), reverts.KindInvalidState))
}

func TestCandidateBondMoreLess(t *testing.T) {
	alice, bob := addr("alice"), addr("bob")
	env := newTestStaker(t, nil, nil, alice, bob)
	s := env.staker

	NewSequence(env).
		Join(alice, M(200)).
		Join(bob, M(300)).
		Run(t)

	pool, err := s.CandidatePool()
	require.NoError(t, err)
	assert.Equal(t, bob, pool[0].Owner)

	// bonding more repositions the candidate
	require.NoError(t, s.CandidateBondMore(alice, M(150)))
	AssertCandidate(s, alice).Bond(M(350)).TotalCounted(M(350)).Assert(t)
	pool, err = s.CandidatePool()
	require.NoError(t, err)
	assert.Equal(t, alice, pool[0].Owner)

	assert.True(t, reverts.Is(s.ScheduleCandidateBondLess(alice, M(251)), reverts.KindBelowMinimum))
	assert.True(t, reverts.Is(s.ExecuteCandidateBondLess(bob, alice), reverts.KindNotFound))
	assert.True(t, reverts.Is(s.CancelCandidateBondLess(alice), reverts.KindNotFound))

	require.NoError(t, s.ScheduleCandidateBondLess(alice, M(100)))
	assert.True(t, reverts.Is(s.ScheduleCandidateBondLess(alice, M(10)), reverts.KindAlreadyExists))
	assert.True(t, reverts.Is(s.ExecuteCandidateBondLess(bob, alice), reverts.KindNotYetMatured))

	// cancel then execute
	require.NoError(t, s.CancelCandidateBondLess(alice))
	assert.True(t, reverts.Is(s.ExecuteCandidateBondLess(bob, alice), reverts.KindNotFound))

	require.NoError(t, s.ScheduleCandidateBondLess(alice, M(100)))
	c, err := s.Candidate(alice)
	require.NoError(t, err)
	require.NotNil(t, c.Request)
	env.advanceTo(t, c.Request.WhenExecutable)

	before := env.balance(t, alice)
	require.NoError(t, s.ExecuteCandidateBondLess(bob, alice))
	AssertCandidate(s, alice).Bond(M(250)).TotalBond(M(250)).Assert(t)
	assert.Equal(t, 0, env.balance(t, alice).Cmp(before.Add(before, M(100))))

	// executing twice fails
	assert.True(t, reverts.Is(s.ExecuteCandidateBondLess(bob, alice), reverts.KindNotFound))
	require.NoError(t, s.CheckInvariants())
}
