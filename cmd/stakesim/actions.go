// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/builtin/staker/candidate"
	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/test/datagen"
	"github.com/vechain/collator-staking/thor"
)

// errSkip is returned when an action finds nothing to act on.
var errSkip = errors.New("nothing to do")

type action struct {
	name   string
	weight int
	do     func(s *Simulator, stk *staker.Staker) error
}

var actions = []action{
	{"join_candidates", 2, joinCandidates},
	{"schedule_leave_candidates", 1, scheduleLeaveCandidates},
	{"execute_leave_candidates", 3, executeLeaveCandidates},
	{"cancel_leave_candidates", 1, cancelLeaveCandidates},
	{"go_offline", 1, goOffline},
	{"go_online", 2, goOnline},
	{"candidate_bond_more", 2, candidateBondMore},
	{"schedule_candidate_bond_less", 2, scheduleCandidateBondLess},
	{"execute_candidate_bond_less", 3, executeCandidateBondLess},
	{"cancel_candidate_bond_less", 1, cancelCandidateBondLess},
	{"delegate", 6, delegate},
	{"delegator_bond_more", 3, delegatorBondMore},
	{"schedule_delegator_bond_less", 2, scheduleDelegatorBondLess},
	{"schedule_revoke_delegation", 1, scheduleRevokeDelegation},
	{"execute_delegation_request", 4, executeDelegationRequest},
	{"cancel_delegation_request", 1, cancelDelegationRequest},
	{"schedule_leave_delegators", 1, scheduleLeaveDelegators},
	{"execute_leave_delegators", 2, executeLeaveDelegators},
	{"cancel_leave_delegators", 1, cancelLeaveDelegators},
}

func scaled(v *big.Int, n int64) *big.Int {
	return new(big.Int).Mul(v, big.NewInt(n))
}

func (s *Simulator) account() thor.Address {
	return datagen.Pick(s.rand, s.accounts)
}

func (s *Simulator) pickCandidate(stk *staker.Staker, match func(*candidate.Candidate) bool) (thor.Address, *candidate.Candidate, error) {
	addrs, err := stk.Candidates()
	if err != nil {
		return thor.Address{}, nil, err
	}
	var (
		matched []thor.Address
		found   []*candidate.Candidate
	)
	for _, addr := range addrs {
		c, err := stk.Candidate(addr)
		if err != nil {
			return thor.Address{}, nil, err
		}
		if c != nil && (match == nil || match(c)) {
			matched = append(matched, addr)
			found = append(found, c)
		}
	}
	if len(matched) == 0 {
		return thor.Address{}, nil, errSkip
	}
	i := s.rand.IntN(len(matched))
	return matched[i], found[i], nil
}

func (s *Simulator) pickDelegator(stk *staker.Staker, match func(*delegation.Delegator) bool) (thor.Address, *delegation.Delegator, error) {
	addrs, err := stk.Delegators()
	if err != nil {
		return thor.Address{}, nil, err
	}
	var (
		matched []thor.Address
		found   []*delegation.Delegator
	)
	for _, addr := range addrs {
		d, err := stk.Delegator(addr)
		if err != nil {
			return thor.Address{}, nil, err
		}
		if d != nil && len(d.Delegations) > 0 && (match == nil || match(d)) {
			matched = append(matched, addr)
			found = append(found, d)
		}
	}
	if len(matched) == 0 {
		return thor.Address{}, nil, errSkip
	}
	i := s.rand.IntN(len(matched))
	return matched[i], found[i], nil
}

// candidateCount is a hint never below the pool size, since the pool is a subset of all candidates.
func candidateCount(stk *staker.Staker) (uint32, error) {
	addrs, err := stk.Candidates()
	if err != nil {
		return 0, err
	}
	return uint32(len(addrs)), nil
}

func joinCandidates(s *Simulator, stk *staker.Staker) error {
	size, err := candidateCount(stk)
	if err != nil {
		return err
	}
	bond := s.rand.Amount(s.config.MinCandidateStk, scaled(s.config.MinCandidateStk, 3))
	return stk.JoinCandidates(s.account(), bond, size)
}

func scheduleLeaveCandidates(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickCandidate(stk, func(c *candidate.Candidate) bool { return !c.IsLeaving() })
	if err != nil {
		return err
	}
	size, err := candidateCount(stk)
	if err != nil {
		return err
	}
	return stk.ScheduleLeaveCandidates(addr, size)
}

func executeLeaveCandidates(s *Simulator, stk *staker.Staker) error {
	addr, c, err := s.pickCandidate(stk, (*candidate.Candidate).IsLeaving)
	if err != nil {
		return err
	}
	return stk.ExecuteLeaveCandidates(s.account(), addr, c.DelegationCount)
}

func cancelLeaveCandidates(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickCandidate(stk, (*candidate.Candidate).IsLeaving)
	if err != nil {
		return err
	}
	size, err := candidateCount(stk)
	if err != nil {
		return err
	}
	return stk.CancelLeaveCandidates(addr, size)
}

func goOffline(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickCandidate(stk, (*candidate.Candidate).IsActive)
	if err != nil {
		return err
	}
	return stk.GoOffline(addr)
}

func goOnline(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickCandidate(stk, func(c *candidate.Candidate) bool { return c.Status == candidate.StatusIdle })
	if err != nil {
		return err
	}
	return stk.GoOnline(addr)
}

func candidateBondMore(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickCandidate(stk, nil)
	if err != nil {
		return err
	}
	return stk.CandidateBondMore(addr, s.rand.Amount(s.config.MinDelegation, s.config.MinCandidateStk))
}

func scheduleCandidateBondLess(s *Simulator, stk *staker.Staker) error {
	addr, c, err := s.pickCandidate(stk, func(c *candidate.Candidate) bool { return c.Request == nil })
	if err != nil {
		return err
	}
	// a bond already at the minimum leaves no margin and the request is refused
	less := s.rand.Amount(big.NewInt(1), new(big.Int).Sub(c.Bond, s.config.MinCandidateStk))
	return stk.ScheduleCandidateBondLess(addr, less)
}

func executeCandidateBondLess(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickCandidate(stk, func(c *candidate.Candidate) bool { return c.Request != nil })
	if err != nil {
		return err
	}
	return stk.ExecuteCandidateBondLess(s.account(), addr)
}

func cancelCandidateBondLess(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickCandidate(stk, func(c *candidate.Candidate) bool { return c.Request != nil })
	if err != nil {
		return err
	}
	return stk.CancelCandidateBondLess(addr)
}

func delegate(s *Simulator, stk *staker.Staker) error {
	target, c, err := s.pickCandidate(stk, nil)
	if err != nil {
		return err
	}
	delegator := s.account()
	d, err := stk.Delegator(delegator)
	if err != nil {
		return err
	}
	var count uint32
	if d != nil {
		count = uint32(len(d.Delegations))
	}
	amount := s.rand.Amount(s.config.MinDelegation, scaled(s.config.MinDelegatorStk, 5))
	return stk.Delegate(delegator, target, amount, c.DelegationCount, count)
}

func pickDelegation(s *Simulator, d *delegation.Delegator) delegation.Bond {
	return datagen.Pick(s.rand, d.Delegations)
}

func delegatorBondMore(s *Simulator, stk *staker.Staker) error {
	addr, d, err := s.pickDelegator(stk, nil)
	if err != nil {
		return err
	}
	bond := pickDelegation(s, d)
	return stk.DelegatorBondMore(addr, bond.Owner, s.rand.Amount(s.config.MinDelegation, scaled(s.config.MinDelegation, 4)))
}

func scheduleDelegatorBondLess(s *Simulator, stk *staker.Staker) error {
	addr, d, err := s.pickDelegator(stk, nil)
	if err != nil {
		return err
	}
	bond := pickDelegation(s, d)
	less := s.rand.Amount(big.NewInt(1), new(big.Int).Div(bond.Amount, big.NewInt(2)))
	return stk.ScheduleDelegatorBondLess(addr, bond.Owner, less)
}

func scheduleRevokeDelegation(s *Simulator, stk *staker.Staker) error {
	addr, d, err := s.pickDelegator(stk, nil)
	if err != nil {
		return err
	}
	return stk.ScheduleRevokeDelegation(addr, pickDelegation(s, d).Owner)
}

func pickRequest(s *Simulator, stk *staker.Staker) (thor.Address, thor.Address, error) {
	addrs, err := stk.Candidates()
	if err != nil {
		return thor.Address{}, thor.Address{}, err
	}
	type pair struct{ delegator, candidate thor.Address }
	var pending []pair
	for _, addr := range addrs {
		reqs, err := stk.DelegationRequests(addr)
		if err != nil {
			return thor.Address{}, thor.Address{}, err
		}
		for _, r := range reqs {
			pending = append(pending, pair{r.Delegator, addr})
		}
	}
	if len(pending) == 0 {
		return thor.Address{}, thor.Address{}, errSkip
	}
	p := datagen.Pick(s.rand, pending)
	return p.delegator, p.candidate, nil
}

func executeDelegationRequest(s *Simulator, stk *staker.Staker) error {
	delegator, target, err := pickRequest(s, stk)
	if err != nil {
		return err
	}
	return stk.ExecuteDelegationRequest(s.account(), delegator, target)
}

func cancelDelegationRequest(s *Simulator, stk *staker.Staker) error {
	delegator, target, err := pickRequest(s, stk)
	if err != nil {
		return err
	}
	return stk.CancelDelegationRequest(delegator, target)
}

func scheduleLeaveDelegators(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickDelegator(stk, func(d *delegation.Delegator) bool { return !d.IsLeaving() })
	if err != nil {
		return err
	}
	return stk.ScheduleLeaveDelegators(addr)
}

func executeLeaveDelegators(s *Simulator, stk *staker.Staker) error {
	addr, d, err := s.pickDelegator(stk, (*delegation.Delegator).IsLeaving)
	if err != nil {
		return err
	}
	return stk.ExecuteLeaveDelegators(s.account(), addr, uint32(len(d.Delegations)))
}

func cancelLeaveDelegators(s *Simulator, stk *staker.Staker) error {
	addr, _, err := s.pickDelegator(stk, (*delegation.Delegator).IsLeaving)
	if err != nil {
		return err
	}
	return stk.CancelLeaveDelegators(addr)
}
