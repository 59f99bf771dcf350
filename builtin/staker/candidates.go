// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/collator-staking/builtin/staker/candidate"
	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

// JoinCandidates bonds the account as a new collator candidate. candidateCount must be at least the pool size.
func (s *Staker) JoinCandidates(account thor.Address, bond *big.Int, candidateCount uint32) error {
	logger.Debug("joining candidates", "account", account, "bond", bond)

	err := s.atomic("join_candidates", func() error {
		if err := checkPositive(bond); err != nil {
			return err
		}
		if ok, err := s.candidates.IsCandidate(account); err != nil {
			return err
		} else if ok {
			return reverts.AlreadyExists("candidate already exists")
		}
		if ok, err := s.delegations.IsDelegator(account); err != nil {
			return err
		} else if ok {
			return reverts.InvalidState("delegator cannot become a candidate")
		}
		if bond.Cmp(s.cfg.MinCandidateStk) < 0 {
			return reverts.BelowMinimum("bond is below the minimum candidate stake")
		}
		if err := s.checkPoolHint(candidateCount); err != nil {
			return err
		}
		if err := s.lock(account, bond); err != nil {
			return err
		}
		if err := s.saveCandidate(account, candidate.NewCandidate(bond), delegation.NewLists()); err != nil {
			return err
		}
		s.emit(EventJoinedCandidates, account, account, bond)
		return nil
	})
	if err != nil {
		logger.Info("join candidates failed", "account", account, "error", err)
		return err
	}

	logger.Info("joined candidates", "account", account)
	return nil
}

// ScheduleLeaveCandidates takes the candidate out of selection. Its bonds can be released after LeaveCandidatesDelay.
func (s *Staker) ScheduleLeaveCandidates(account thor.Address, candidateCount uint32) error {
	logger.Debug("scheduling candidate exit", "account", account)

	return s.atomic("schedule_leave_candidates", func() error {
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		if c.IsLeaving() {
			return reverts.InvalidState("candidate is already leaving")
		}
		if err := s.checkPoolHint(candidateCount); err != nil {
			return err
		}
		current, err := s.currentRound()
		if err != nil {
			return err
		}
		c.Status = candidate.StatusLeaving
		c.LeavingRound = current + s.cfg.LeaveCandidatesDelay
		if err := s.candidates.Set(account, c); err != nil {
			return err
		}
		s.emit(EventCandidateScheduledExit, account, account, nil)
		return nil
	})
}

func (s *Staker) CancelLeaveCandidates(account thor.Address, candidateCount uint32) error {
	logger.Debug("cancelling candidate exit", "account", account)

	return s.atomic("cancel_leave_candidates", func() error {
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		if !c.IsLeaving() {
			return reverts.InvalidState("candidate is not leaving")
		}
		if err := s.checkPoolHint(candidateCount); err != nil {
			return err
		}
		c.Status = candidate.StatusActive
		c.LeavingRound = 0
		if err := s.candidates.Set(account, c); err != nil {
			return err
		}
		s.emit(EventCancelledCandidateExit, account, account, nil)
		return nil
	})
}

// ExecuteLeaveCandidates releases every bond of a candidate whose exit has matured. Anyone can call it.
func (s *Staker) ExecuteLeaveCandidates(executor, account thor.Address, delegationCount uint32) error {
	logger.Debug("executing candidate exit", "executor", executor, "account", account)

	err := s.atomic("execute_leave_candidates", func() error {
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		if !c.IsLeaving() {
			return reverts.InvalidState("candidate is not leaving")
		}
		current, err := s.currentRound()
		if err != nil {
			return err
		}
		if !c.CanLeave(current) {
			return reverts.NotYetMatured("candidate exit has not matured")
		}
		if delegationCount < c.DelegationCount {
			return reverts.InsufficientHint("delegation count hint is too low")
		}

		lists, err := s.delegations.GetLists(account)
		if err != nil {
			return err
		}
		for _, list := range []*delegation.Delegations{lists.Top, lists.Bottom} {
			for _, bond := range list.Delegations {
				if err := s.releaseDelegator(bond.Owner, account); err != nil {
					return err
				}
			}
		}
		if err := s.unlock(account, c.Bond); err != nil {
			return err
		}

		s.delegations.DeleteLists(account)
		s.requests.Delete(account)
		if err := s.candidates.Delete(account); err != nil {
			return err
		}
		s.emit(EventCandidateLeft, account, account, c.TotalBond)
		return nil
	})
	if err != nil {
		logger.Info("execute candidate exit failed", "account", account, "error", err)
		return err
	}

	logger.Info("candidate left", "account", account)
	return nil
}

// GoOffline keeps an active candidate out of selection without touching its bonds.
func (s *Staker) GoOffline(account thor.Address) error {
	return s.atomic("go_offline", func() error {
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		switch c.Status {
		case candidate.StatusLeaving:
			return reverts.InvalidState("candidate is leaving")
		case candidate.StatusIdle:
			return reverts.InvalidState("candidate is already offline")
		}
		c.Status = candidate.StatusIdle
		if err := s.candidates.Set(account, c); err != nil {
			return err
		}
		s.emit(EventCandidateWentOffline, account, account, nil)
		return nil
	})
}

func (s *Staker) GoOnline(account thor.Address) error {
	return s.atomic("go_online", func() error {
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		switch c.Status {
		case candidate.StatusLeaving:
			return reverts.InvalidState("candidate is leaving")
		case candidate.StatusActive:
			return reverts.InvalidState("candidate is already online")
		}
		c.Status = candidate.StatusActive
		if err := s.candidates.Set(account, c); err != nil {
			return err
		}
		s.emit(EventCandidateBackOnline, account, account, nil)
		return nil
	})
}

// CandidateBondMore raises the self bond immediately.
func (s *Staker) CandidateBondMore(account thor.Address, more *big.Int) error {
	logger.Debug("candidate bond more", "account", account, "more", more)

	return s.atomic("candidate_bond_more", func() error {
		if err := checkPositive(more); err != nil {
			return err
		}
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		if c.IsLeaving() {
			return reverts.InvalidState("candidate is leaving")
		}
		if err := s.lock(account, more); err != nil {
			return err
		}
		c.Bond = new(big.Int).Add(c.Bond, more)
		if err := s.refreshCandidate(account, c); err != nil {
			return err
		}
		s.emit(EventCandidateBondedMore, account, account, more)
		return nil
	})
}

func (s *Staker) ScheduleCandidateBondLess(account thor.Address, less *big.Int) error {
	logger.Debug("scheduling candidate bond less", "account", account, "less", less)

	return s.atomic("schedule_candidate_bond_less", func() error {
		if err := checkPositive(less); err != nil {
			return err
		}
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		if c.Request != nil {
			return reverts.AlreadyExists("candidate bond less request already exists")
		}
		if c.IsLeaving() {
			return reverts.InvalidState("candidate is leaving")
		}
		if new(big.Int).Sub(c.Bond, less).Cmp(s.cfg.MinCandidateStk) < 0 {
			return reverts.BelowMinimum("bond would fall below the minimum candidate stake")
		}
		current, err := s.currentRound()
		if err != nil {
			return err
		}
		c.Request = &candidate.BondLessRequest{
			Amount:         new(big.Int).Set(less),
			WhenExecutable: current + s.cfg.CandidateBondLessDelay,
		}
		if err := s.candidates.Set(account, c); err != nil {
			return err
		}
		s.emit(EventCandidateBondLessRequested, account, account, less)
		return nil
	})
}

// ExecuteCandidateBondLess applies a matured bond decrease. Anyone can call it.
func (s *Staker) ExecuteCandidateBondLess(executor, account thor.Address) error {
	logger.Debug("executing candidate bond less", "executor", executor, "account", account)

	return s.atomic("execute_candidate_bond_less", func() error {
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		if c.Request == nil {
			return reverts.NotFound("no pending candidate bond less request")
		}
		if c.IsLeaving() {
			return reverts.InvalidState("candidate is leaving")
		}
		current, err := s.currentRound()
		if err != nil {
			return err
		}
		if current < c.Request.WhenExecutable {
			return reverts.NotYetMatured("candidate bond less request has not matured")
		}
		less := c.Request.Amount
		if new(big.Int).Sub(c.Bond, less).Cmp(s.cfg.MinCandidateStk) < 0 {
			return reverts.BelowMinimum("bond would fall below the minimum candidate stake")
		}
		c.Bond = new(big.Int).Sub(c.Bond, less)
		c.Request = nil
		if err := s.refreshCandidate(account, c); err != nil {
			return err
		}
		if err := s.unlock(account, less); err != nil {
			return err
		}
		s.emit(EventCandidateBondedLess, account, account, less)
		return nil
	})
}

func (s *Staker) CancelCandidateBondLess(account thor.Address) error {
	return s.atomic("cancel_candidate_bond_less", func() error {
		c, err := s.existingCandidate(account)
		if err != nil {
			return err
		}
		if c.Request == nil {
			return reverts.NotFound("no pending candidate bond less request")
		}
		less := c.Request.Amount
		c.Request = nil
		if err := s.candidates.Set(account, c); err != nil {
			return err
		}
		s.emit(EventCancelledCandidateBondLess, account, account, less)
		return nil
	})
}

func (s *Staker) existingCandidate(account thor.Address) (*candidate.Candidate, error) {
	c, err := s.candidates.Get(account)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, reverts.NotFound("candidate not found")
	}
	return c, nil
}

func (s *Staker) checkPoolHint(candidateCount uint32) error {
	size, err := s.candidates.PoolSize()
	if err != nil {
		return err
	}
	if candidateCount < size {
		return reverts.InsufficientHint("candidate count hint is too low")
	}
	return nil
}

// saveCandidate is the single write path for a candidate and its delegation lists. Totals are derived from
// the lists before storing.
func (s *Staker) saveCandidate(account thor.Address, c *candidate.Candidate, lists *delegation.Lists) error {
	c.Refresh(lists)
	if err := s.delegations.SetLists(account, lists); err != nil {
		return err
	}
	return s.candidates.Set(account, c)
}

func (s *Staker) refreshCandidate(account thor.Address, c *candidate.Candidate) error {
	lists, err := s.delegations.GetLists(account)
	if err != nil {
		return err
	}
	return s.saveCandidate(account, c, lists)
}
