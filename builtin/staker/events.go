// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/vechain/collator-staking/thor"
)

type EventKind string

const (
	EventJoinedCandidates           EventKind = "JoinedCollatorCandidates"
	EventCandidateScheduledExit     EventKind = "CandidateScheduledExit"
	EventCancelledCandidateExit     EventKind = "CancelledCandidateExit"
	EventCandidateLeft              EventKind = "CandidateLeft"
	EventCandidateWentOffline       EventKind = "CandidateWentOffline"
	EventCandidateBackOnline        EventKind = "CandidateBackOnline"
	EventCandidateBondedMore        EventKind = "CandidateBondedMore"
	EventCandidateBondLessRequested EventKind = "CandidateBondLessRequested"
	EventCandidateBondedLess        EventKind = "CandidateBondedLess"
	EventCancelledCandidateBondLess EventKind = "CancelledCandidateBondLess"

	EventDelegation                    EventKind = "Delegation"
	EventDelegationKicked              EventKind = "DelegationKicked"
	EventDelegationIncreased           EventKind = "DelegationIncreased"
	EventDelegationDecreaseScheduled   EventKind = "DelegationDecreaseScheduled"
	EventDelegationRevocationScheduled EventKind = "DelegationRevocationScheduled"
	EventDelegationDecreased           EventKind = "DelegationDecreased"
	EventDelegationRevoked             EventKind = "DelegationRevoked"
	EventCancelledDelegationRequest    EventKind = "CancelledDelegationRequest"
	EventDelegatorExitScheduled        EventKind = "DelegatorExitScheduled"
	EventDelegatorLeft                 EventKind = "DelegatorLeft"
	EventDelegatorExitCancelled        EventKind = "DelegatorExitCancelled"

	EventNewRound                 EventKind = "NewRound"
	EventReservedForParachainBond EventKind = "ReservedForParachainBond"
	EventRewarded                 EventKind = "Rewarded"

	EventStakeExpectationsSet           EventKind = "StakeExpectationsSet"
	EventInflationSet                   EventKind = "InflationSet"
	EventParachainBondAccountSet        EventKind = "ParachainBondAccountSet"
	EventParachainBondReservePercentSet EventKind = "ParachainBondReservePercentSet"
	EventTotalSelectedSet               EventKind = "TotalSelectedSet"
	EventCollatorCommissionSet          EventKind = "CollatorCommissionSet"
	EventBlocksPerRoundSet              EventKind = "BlocksPerRoundSet"
)

// Event records a committed state change. Target is the candidate for delegation events.
type Event struct {
	Kind    EventKind
	Round   uint32
	Account thor.Address
	Target  thor.Address
	Amount  *big.Int
}

// Events returns the events recorded since the last drain.
func (s *Staker) Events() []*Event {
	return s.events
}

// DrainEvents returns and forgets the recorded events.
func (s *Staker) DrainEvents() []*Event {
	events := s.events
	s.events = nil
	return events
}

func (s *Staker) emit(kind EventKind, account, target thor.Address, amount *big.Int) {
	current := uint32(0)
	if r, err := s.rounds.Get(); err == nil {
		current = r.Current
	}
	ev := &Event{Kind: kind, Round: current, Account: account, Target: target}
	if amount != nil {
		ev.Amount = new(big.Int).Set(amount)
	}
	s.events = append(s.events, ev)
}
