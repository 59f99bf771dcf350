// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/builtin/staker/scheduled"
	"github.com/vechain/collator-staking/thor"
)

// Delegate backs a candidate with stake. The hints must be at least the candidate's delegation count and the
// delegator's delegation count.
func (s *Staker) Delegate(
	delegator thor.Address,
	candidateAddr thor.Address,
	amount *big.Int,
	candidateDelegationCount uint32,
	delegationCount uint32,
) error {
	logger.Debug("adding delegation", "delegator", delegator, "candidate", candidateAddr, "amount", amount)

	err := s.atomic("delegate", func() error {
		if err := checkPositive(amount); err != nil {
			return err
		}
		c, err := s.existingCandidate(candidateAddr)
		if err != nil {
			return err
		}
		if c.IsLeaving() {
			return reverts.InvalidState("candidate is leaving")
		}
		if ok, err := s.candidates.IsCandidate(delegator); err != nil {
			return err
		} else if ok {
			return reverts.InvalidState("candidate cannot delegate")
		}

		d, err := s.delegations.GetDelegator(delegator)
		if err != nil {
			return err
		}
		if d != nil {
			if d.IsLeaving() {
				return reverts.InvalidState("delegator is leaving")
			}
			if _, ok := d.Get(candidateAddr); ok {
				return reverts.AlreadyExists("delegation already exists")
			}
			if uint32(d.Len()) >= s.cfg.MaxDelegationsPerDelegator {
				return reverts.CapacityExceeded("delegator has reached the maximum number of delegations")
			}
			if amount.Cmp(s.cfg.MinDelegation) < 0 {
				return reverts.BelowMinimum("amount is below the minimum delegation")
			}
		} else {
			if amount.Cmp(s.cfg.MinDelegatorStk) < 0 {
				return reverts.BelowMinimum("amount is below the minimum delegator stake")
			}
			d = delegation.NewDelegator()
		}
		if candidateDelegationCount < c.DelegationCount {
			return reverts.InsufficientHint("candidate delegation count hint is too low")
		}
		if delegationCount < uint32(d.Len()) {
			return reverts.InsufficientHint("delegation count hint is too low")
		}

		if err := s.lock(delegator, amount); err != nil {
			return err
		}
		lists, err := s.delegations.GetLists(candidateAddr)
		if err != nil {
			return err
		}
		kicked, err := lists.Add(delegation.Bond{Owner: delegator, Amount: new(big.Int).Set(amount)},
			s.cfg.MaxTopDelegationsPerCandidate, s.cfg.MaxBottomDelegationsPerCandidate)
		if err != nil {
			return err
		}
		d.Add(candidateAddr, amount)
		if err := s.delegations.SetDelegator(delegator, d); err != nil {
			return err
		}
		if err := s.saveCandidate(candidateAddr, c, lists); err != nil {
			return err
		}
		s.emit(EventDelegation, delegator, candidateAddr, amount)

		if kicked != nil {
			logger.Debug("delegation kicked", "delegator", kicked.Owner, "candidate", candidateAddr)
			if err := s.releaseDelegator(kicked.Owner, candidateAddr); err != nil {
				return err
			}
			s.emit(EventDelegationKicked, kicked.Owner, candidateAddr, kicked.Amount)
		}
		return nil
	})
	if err != nil {
		logger.Info("failed to add delegation", "delegator", delegator, "candidate", candidateAddr, "error", err)
		return err
	}

	logger.Info("added delegation", "delegator", delegator, "candidate", candidateAddr)
	return nil
}

// DelegatorBondMore raises a delegation immediately.
func (s *Staker) DelegatorBondMore(delegator, candidateAddr thor.Address, more *big.Int) error {
	logger.Debug("delegator bond more", "delegator", delegator, "candidate", candidateAddr, "more", more)

	return s.atomic("delegator_bond_more", func() error {
		if err := checkPositive(more); err != nil {
			return err
		}
		d, _, err := s.existingDelegation(delegator, candidateAddr)
		if err != nil {
			return err
		}
		if d.IsLeaving() {
			return reverts.InvalidState("delegator is leaving")
		}
		c, err := s.existingCandidate(candidateAddr)
		if err != nil {
			return err
		}
		if c.IsLeaving() {
			return reverts.InvalidState("candidate is leaving")
		}
		req, err := s.requests.Get(candidateAddr, delegator)
		if err != nil {
			return err
		}
		if req != nil && req.Action.Kind == scheduled.KindRevoke {
			return reverts.InvalidState("delegation revoke is pending")
		}

		if err := s.lock(delegator, more); err != nil {
			return err
		}
		lists, err := s.delegations.GetLists(candidateAddr)
		if err != nil {
			return err
		}
		if err := lists.Increase(delegator, more, s.cfg.MaxTopDelegationsPerCandidate); err != nil {
			return err
		}
		d.Increase(candidateAddr, more)
		if err := s.delegations.SetDelegator(delegator, d); err != nil {
			return err
		}
		if err := s.saveCandidate(candidateAddr, c, lists); err != nil {
			return err
		}
		s.emit(EventDelegationIncreased, delegator, candidateAddr, more)
		return nil
	})
}

func (s *Staker) ScheduleDelegatorBondLess(delegator, candidateAddr thor.Address, less *big.Int) error {
	logger.Debug("scheduling delegator bond less", "delegator", delegator, "candidate", candidateAddr, "less", less)

	return s.atomic("schedule_delegator_bond_less", func() error {
		if err := checkPositive(less); err != nil {
			return err
		}
		d, amount, err := s.existingDelegation(delegator, candidateAddr)
		if err != nil {
			return err
		}
		if err := s.checkNoRequest(delegator, candidateAddr); err != nil {
			return err
		}
		if d.IsLeaving() {
			return reverts.InvalidState("delegator is leaving")
		}
		if new(big.Int).Sub(amount, less).Cmp(s.cfg.MinDelegation) < 0 {
			return reverts.BelowMinimum("delegation would fall below the minimum delegation")
		}
		remaining := new(big.Int).Sub(d.Total, d.LessTotal)
		if remaining.Sub(remaining, less).Cmp(s.cfg.MinDelegatorStk) < 0 {
			return reverts.BelowMinimum("delegator stake would fall below the minimum delegator stake")
		}

		if err := s.schedule(delegator, candidateAddr, d, scheduled.KindDecrease, less, s.cfg.DelegationBondLessDelay); err != nil {
			return err
		}
		s.emit(EventDelegationDecreaseScheduled, delegator, candidateAddr, less)
		return nil
	})
}

func (s *Staker) ScheduleRevokeDelegation(delegator, candidateAddr thor.Address) error {
	logger.Debug("scheduling delegation revoke", "delegator", delegator, "candidate", candidateAddr)

	return s.atomic("schedule_revoke_delegation", func() error {
		d, amount, err := s.existingDelegation(delegator, candidateAddr)
		if err != nil {
			return err
		}
		if err := s.checkNoRequest(delegator, candidateAddr); err != nil {
			return err
		}
		if d.IsLeaving() {
			return reverts.InvalidState("delegator is leaving")
		}

		if err := s.schedule(delegator, candidateAddr, d, scheduled.KindRevoke, amount, s.cfg.RevokeDelegationDelay); err != nil {
			return err
		}
		s.emit(EventDelegationRevocationScheduled, delegator, candidateAddr, amount)
		return nil
	})
}

// ExecuteDelegationRequest applies a matured decrease or revoke. Anyone can call it.
func (s *Staker) ExecuteDelegationRequest(executor, delegator, candidateAddr thor.Address) error {
	logger.Debug("executing delegation request", "executor", executor, "delegator", delegator, "candidate", candidateAddr)

	return s.atomic("execute_delegation_request", func() error {
		req, err := s.requests.Get(candidateAddr, delegator)
		if err != nil {
			return err
		}
		if req == nil {
			return reverts.NotFound("no pending delegation request")
		}
		current, err := s.currentRound()
		if err != nil {
			return err
		}
		if !req.IsMatured(current) {
			return reverts.NotYetMatured("delegation request has not matured")
		}

		switch req.Action.Kind {
		case scheduled.KindRevoke:
			amount, err := s.removeDelegation(delegator, candidateAddr)
			if err != nil {
				return err
			}
			s.emit(EventDelegationRevoked, delegator, candidateAddr, amount)
			return nil
		case scheduled.KindDecrease:
			return s.executeDecrease(delegator, candidateAddr, req.Action.Amount)
		default:
			return errors.Errorf("unknown request kind %v", req.Action.Kind)
		}
	})
}

func (s *Staker) executeDecrease(delegator, candidateAddr thor.Address, less *big.Int) error {
	d, amount, err := s.existingDelegation(delegator, candidateAddr)
	if err != nil {
		return err
	}
	if new(big.Int).Sub(amount, less).Cmp(s.cfg.MinDelegation) < 0 {
		return reverts.BelowMinimum("delegation would fall below the minimum delegation")
	}
	if new(big.Int).Sub(d.Total, less).Cmp(s.cfg.MinDelegatorStk) < 0 {
		return reverts.BelowMinimum("delegator stake would fall below the minimum delegator stake")
	}
	c, err := s.existingCandidate(candidateAddr)
	if err != nil {
		return err
	}
	lists, err := s.delegations.GetLists(candidateAddr)
	if err != nil {
		return err
	}
	if err := lists.Decrease(delegator, less); err != nil {
		return err
	}
	if _, err := s.requests.Remove(candidateAddr, delegator); err != nil {
		return err
	}
	d.SubLess(less)
	d.Decrease(candidateAddr, less)
	if err := s.delegations.SetDelegator(delegator, d); err != nil {
		return err
	}
	if err := s.saveCandidate(candidateAddr, c, lists); err != nil {
		return err
	}
	if err := s.unlock(delegator, less); err != nil {
		return err
	}
	s.emit(EventDelegationDecreased, delegator, candidateAddr, less)
	return nil
}

func (s *Staker) CancelDelegationRequest(delegator, candidateAddr thor.Address) error {
	return s.atomic("cancel_delegation_request", func() error {
		req, err := s.requests.Get(candidateAddr, delegator)
		if err != nil {
			return err
		}
		if req == nil {
			return reverts.NotFound("no pending delegation request")
		}
		d, err := s.delegations.GetDelegator(delegator)
		if err != nil {
			return err
		}
		if d == nil {
			return errors.Errorf("request without delegator %v", delegator)
		}
		if d.IsLeaving() {
			return reverts.InvalidState("delegator is leaving, cancel the exit instead")
		}
		if _, err := s.requests.Remove(candidateAddr, delegator); err != nil {
			return err
		}
		d.SubLess(req.Action.Amount)
		if err := s.delegations.SetDelegator(delegator, d); err != nil {
			return err
		}
		s.emit(EventCancelledDelegationRequest, delegator, candidateAddr, req.Action.Amount)
		return nil
	})
}

// ScheduleLeaveDelegators schedules a revoke of every delegation of the account.
func (s *Staker) ScheduleLeaveDelegators(delegator thor.Address) error {
	logger.Debug("scheduling delegator exit", "delegator", delegator)

	return s.atomic("schedule_leave_delegators", func() error {
		d, err := s.existingDelegator(delegator)
		if err != nil {
			return err
		}
		if d.IsLeaving() {
			return reverts.InvalidState("delegator is already leaving")
		}
		for _, b := range d.Delegations {
			if err := s.checkNoRequest(delegator, b.Owner); err != nil {
				return err
			}
		}
		current, err := s.currentRound()
		if err != nil {
			return err
		}
		for _, b := range d.Delegations {
			if err := s.requests.Add(b.Owner, scheduled.Request{
				Delegator:      delegator,
				WhenExecutable: current + s.cfg.LeaveDelegatorsDelay,
				Action:         scheduled.Action{Kind: scheduled.KindRevoke, Amount: new(big.Int).Set(b.Amount)},
			}); err != nil {
				return err
			}
			d.AddLess(b.Amount)
		}
		d.Status = delegation.StatusLeaving
		d.LeavingRound = current + s.cfg.LeaveDelegatorsDelay
		if err := s.delegations.SetDelegator(delegator, d); err != nil {
			return err
		}
		s.emit(EventDelegatorExitScheduled, delegator, thor.Address{}, d.Total)
		return nil
	})
}

// ExecuteLeaveDelegators removes every delegation of a delegator whose exit has matured. Anyone can call it.
func (s *Staker) ExecuteLeaveDelegators(executor, delegator thor.Address, delegationCount uint32) error {
	logger.Debug("executing delegator exit", "executor", executor, "delegator", delegator)

	return s.atomic("execute_leave_delegators", func() error {
		d, err := s.existingDelegator(delegator)
		if err != nil {
			return err
		}
		if !d.IsLeaving() {
			return reverts.InvalidState("delegator is not leaving")
		}
		current, err := s.currentRound()
		if err != nil {
			return err
		}
		if current < d.LeavingRound {
			return reverts.NotYetMatured("delegator exit has not matured")
		}
		if delegationCount < uint32(d.Len()) {
			return reverts.InsufficientHint("delegation count hint is too low")
		}

		total := new(big.Int).Set(d.Total)
		targets := make([]thor.Address, 0, d.Len())
		for _, b := range d.Delegations {
			targets = append(targets, b.Owner)
		}
		for _, candidateAddr := range targets {
			amount, err := s.removeDelegation(delegator, candidateAddr)
			if err != nil {
				return err
			}
			s.emit(EventDelegationRevoked, delegator, candidateAddr, amount)
		}
		s.emit(EventDelegatorLeft, delegator, thor.Address{}, total)
		return nil
	})
}

func (s *Staker) CancelLeaveDelegators(delegator thor.Address) error {
	return s.atomic("cancel_leave_delegators", func() error {
		d, err := s.existingDelegator(delegator)
		if err != nil {
			return err
		}
		if !d.IsLeaving() {
			return reverts.InvalidState("delegator is not leaving")
		}
		for _, b := range d.Delegations {
			req, err := s.requests.Remove(b.Owner, delegator)
			if err != nil {
				return err
			}
			if req != nil {
				d.SubLess(req.Action.Amount)
			}
		}
		d.Status = delegation.StatusActive
		d.LeavingRound = 0
		if err := s.delegations.SetDelegator(delegator, d); err != nil {
			return err
		}
		s.emit(EventDelegatorExitCancelled, delegator, thor.Address{}, nil)
		return nil
	})
}

func (s *Staker) existingDelegator(addr thor.Address) (*delegation.Delegator, error) {
	d, err := s.delegations.GetDelegator(addr)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, reverts.NotFound("delegator not found")
	}
	return d, nil
}

func (s *Staker) existingDelegation(delegator, candidateAddr thor.Address) (*delegation.Delegator, *big.Int, error) {
	d, err := s.existingDelegator(delegator)
	if err != nil {
		return nil, nil, err
	}
	amount, ok := d.Get(candidateAddr)
	if !ok {
		return nil, nil, reverts.NotFound("delegation not found")
	}
	return d, amount, nil
}

func (s *Staker) checkNoRequest(delegator, candidateAddr thor.Address) error {
	req, err := s.requests.Get(candidateAddr, delegator)
	if err != nil {
		return err
	}
	if req != nil {
		return reverts.AlreadyExists("pending delegation request already exists")
	}
	return nil
}

func (s *Staker) schedule(
	delegator thor.Address,
	candidateAddr thor.Address,
	d *delegation.Delegator,
	kind scheduled.Kind,
	amount *big.Int,
	delay uint32,
) error {
	current, err := s.currentRound()
	if err != nil {
		return err
	}
	if err := s.requests.Add(candidateAddr, scheduled.Request{
		Delegator:      delegator,
		WhenExecutable: current + delay,
		Action:         scheduled.Action{Kind: kind, Amount: new(big.Int).Set(amount)},
	}); err != nil {
		return err
	}
	d.AddLess(amount)
	return s.delegations.SetDelegator(delegator, d)
}

// removeDelegation takes a delegation out of the candidate's lists and releases it from the delegator.
func (s *Staker) removeDelegation(delegator, candidateAddr thor.Address) (*big.Int, error) {
	c, err := s.existingCandidate(candidateAddr)
	if err != nil {
		return nil, err
	}
	lists, err := s.delegations.GetLists(candidateAddr)
	if err != nil {
		return nil, err
	}
	bond, ok := lists.Remove(delegator)
	if !ok {
		return nil, errors.Errorf("delegation of %v missing from candidate %v", delegator, candidateAddr)
	}
	if err := s.saveCandidate(candidateAddr, c, lists); err != nil {
		return nil, err
	}
	if err := s.releaseDelegator(delegator, candidateAddr); err != nil {
		return nil, err
	}
	return bond.Amount, nil
}

// releaseDelegator drops the delegation from the delegator's state together with any pending request and
// refunds the bond. The candidate's lists must already be updated by the caller.
func (s *Staker) releaseDelegator(delegator, candidateAddr thor.Address) error {
	d, err := s.delegations.GetDelegator(delegator)
	if err != nil {
		return err
	}
	if d == nil {
		return errors.Errorf("delegator %v missing", delegator)
	}
	amount, ok := d.Remove(candidateAddr)
	if !ok {
		return errors.Errorf("delegator %v has no delegation to %v", delegator, candidateAddr)
	}
	req, err := s.requests.Remove(candidateAddr, delegator)
	if err != nil {
		return err
	}
	if req != nil {
		d.SubLess(req.Action.Amount)
	}
	if err := s.delegations.SetDelegator(delegator, d); err != nil {
		return err
	}
	return s.unlock(delegator, amount)
}
