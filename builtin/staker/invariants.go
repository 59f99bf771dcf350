// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/thor"
)

type delegationKey struct {
	delegator thor.Address
	candidate thor.Address
}

// CheckInvariants verifies that candidate totals match their lists, that the lists are ordered, that the
// per-candidate and per-delegator views agree, and that the pool and the locked total are consistent.
func (s *Staker) CheckInvariants() error {
	all, err := s.candidates.All()
	if err != nil {
		return err
	}

	fromLists := make(map[delegationKey]*big.Int)
	locked := new(big.Int)
	active := 0
	for _, addr := range all {
		c, err := s.existingCandidate(addr)
		if err != nil {
			return errors.Wrapf(err, "indexed candidate %v", addr)
		}
		lists, err := s.delegations.GetLists(addr)
		if err != nil {
			return err
		}
		if err := lists.Validate(s.cfg.MaxTopDelegationsPerCandidate, s.cfg.MaxBottomDelegationsPerCandidate); err != nil {
			return errors.Wrapf(err, "candidate %v", addr)
		}

		counted := new(big.Int).Add(c.Bond, lists.Top.Total)
		if c.TotalCounted.Cmp(counted) != 0 {
			return errors.Errorf("candidate %v: counted %v, want %v", addr, c.TotalCounted, counted)
		}
		total := new(big.Int).Add(counted, lists.Bottom.Total)
		if c.TotalBond.Cmp(total) != 0 {
			return errors.Errorf("candidate %v: total bond %v, want %v", addr, c.TotalBond, total)
		}
		if c.DelegationCount != uint32(lists.Len()) {
			return errors.Errorf("candidate %v: delegation count %d, want %d", addr, c.DelegationCount, lists.Len())
		}
		for _, list := range []*delegation.Delegations{lists.Top, lists.Bottom} {
			for _, b := range list.Delegations {
				fromLists[delegationKey{b.Owner, addr}] = b.Amount
			}
		}
		if c.IsActive() {
			active++
		}
		locked.Add(locked, c.TotalBond)
	}

	delegators, err := s.delegations.Delegators()
	if err != nil {
		return err
	}
	seen := 0
	for _, addr := range delegators {
		d, err := s.existingDelegator(addr)
		if err != nil {
			return errors.Wrapf(err, "indexed delegator %v", addr)
		}
		sum := new(big.Int)
		less := new(big.Int)
		for _, b := range d.Delegations {
			amount, ok := fromLists[delegationKey{addr, b.Owner}]
			if !ok || amount.Cmp(b.Amount) != 0 {
				return errors.Errorf("delegator %v: delegation to %v disagrees with candidate lists", addr, b.Owner)
			}
			sum.Add(sum, b.Amount)
			seen++

			req, err := s.requests.Get(b.Owner, addr)
			if err != nil {
				return err
			}
			if req != nil {
				less.Add(less, req.Action.Amount)
			}
		}
		if d.Total.Cmp(sum) != 0 {
			return errors.Errorf("delegator %v: total %v, want %v", addr, d.Total, sum)
		}
		if d.LessTotal.Cmp(less) != 0 {
			return errors.Errorf("delegator %v: less total %v, want %v", addr, d.LessTotal, less)
		}
	}
	if seen != len(fromLists) {
		return errors.Errorf("candidate lists hold %d delegations, delegators hold %d", len(fromLists), seen)
	}

	pool, err := s.candidates.Pool()
	if err != nil {
		return err
	}
	if len(pool) != active {
		return errors.Errorf("pool holds %d candidates, %d are active", len(pool), active)
	}
	for i, entry := range pool {
		c, err := s.existingCandidate(entry.Owner)
		if err != nil {
			return err
		}
		if !c.IsActive() || c.TotalCounted.Cmp(entry.Amount) != 0 {
			return errors.Errorf("pool entry %v is stale", entry.Owner)
		}
		if i > 0 {
			prev := pool[i-1]
			if cmp := prev.Amount.Cmp(entry.Amount); cmp < 0 || (cmp == 0 && prev.Owner.Compare(entry.Owner) > 0) {
				return errors.Errorf("pool is not sorted at %v", entry.Owner)
			}
		}
	}

	totalLocked, err := s.totalLocked.Get()
	if err != nil {
		return err
	}
	if totalLocked.Cmp(locked) != 0 {
		return errors.Errorf("total locked %v, candidates hold %v", totalLocked, locked)
	}
	return nil
}
