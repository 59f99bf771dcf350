// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/builtin/staker/candidate"
	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/payout"
	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/builtin/staker/scheduled"
	"github.com/vechain/collator-staking/logdb"
	"github.com/vechain/collator-staking/thor"
)

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

type Round struct {
	Current uint32 `json:"current"`
	First   uint64 `json:"first"`
	Length  uint32 `json:"length"`
}

func convertRound(r *round.Round) *Round {
	return &Round{Current: r.Current, First: r.First, Length: r.Length}
}

type Range struct {
	Min   *math.HexOrDecimal256 `json:"min"`
	Ideal *math.HexOrDecimal256 `json:"ideal"`
	Max   *math.HexOrDecimal256 `json:"max"`
}

type PerbillRange struct {
	Min   thor.Perbill `json:"min"`
	Ideal thor.Perbill `json:"ideal"`
	Max   thor.Perbill `json:"max"`
}

type Inflation struct {
	Expect Range        `json:"expect"`
	Annual PerbillRange `json:"annual"`
}

type ParachainBond struct {
	Account *thor.Address `json:"account"`
	Percent thor.Percent  `json:"percent"`
}

// Config combines the engine constants with the privileged parameters.
type Config struct {
	LeaveCandidatesDelay    uint32 `json:"leaveCandidatesDelay"`
	CandidateBondLessDelay  uint32 `json:"candidateBondLessDelay"`
	LeaveDelegatorsDelay    uint32 `json:"leaveDelegatorsDelay"`
	RevokeDelegationDelay   uint32 `json:"revokeDelegationDelay"`
	DelegationBondLessDelay uint32 `json:"delegationBondLessDelay"`
	RewardPaymentDelay      uint32 `json:"rewardPaymentDelay"`

	MaxTopDelegationsPerCandidate    uint32 `json:"maxTopDelegationsPerCandidate"`
	MaxBottomDelegationsPerCandidate uint32 `json:"maxBottomDelegationsPerCandidate"`
	MaxDelegationsPerDelegator       uint32 `json:"maxDelegationsPerDelegator"`

	MinCandidateStk *math.HexOrDecimal256 `json:"minCandidateStk"`
	MinDelegatorStk *math.HexOrDecimal256 `json:"minDelegatorStk"`
	MinDelegation   *math.HexOrDecimal256 `json:"minDelegation"`

	TotalSelected      uint32                `json:"totalSelected"`
	CollatorCommission thor.Perbill          `json:"collatorCommission"`
	BlocksPerRound     uint32                `json:"blocksPerRound"`
	ParachainBond      ParachainBond         `json:"parachainBond"`
	Inflation          Inflation             `json:"inflation"`
	TotalLocked        *math.HexOrDecimal256 `json:"totalLocked"`
}

func convertConfig(cfg *staker.Config) *Config {
	return &Config{
		LeaveCandidatesDelay:    cfg.LeaveCandidatesDelay,
		CandidateBondLessDelay:  cfg.CandidateBondLessDelay,
		LeaveDelegatorsDelay:    cfg.LeaveDelegatorsDelay,
		RevokeDelegationDelay:   cfg.RevokeDelegationDelay,
		DelegationBondLessDelay: cfg.DelegationBondLessDelay,
		RewardPaymentDelay:      cfg.RewardPaymentDelay,

		MaxTopDelegationsPerCandidate:    cfg.MaxTopDelegationsPerCandidate,
		MaxBottomDelegationsPerCandidate: cfg.MaxBottomDelegationsPerCandidate,
		MaxDelegationsPerDelegator:       cfg.MaxDelegationsPerDelegator,

		MinCandidateStk: amount(cfg.MinCandidateStk),
		MinDelegatorStk: amount(cfg.MinDelegatorStk),
		MinDelegation:   amount(cfg.MinDelegation),
	}
}

func convertInflation(cfg *round.InflationConfig) Inflation {
	return Inflation{
		Expect: Range{
			Min:   amount(cfg.Expect.Min),
			Ideal: amount(cfg.Expect.Ideal),
			Max:   amount(cfg.Expect.Max),
		},
		Annual: PerbillRange{
			Min:   cfg.Annual.Min,
			Ideal: cfg.Annual.Ideal,
			Max:   cfg.Annual.Max,
		},
	}
}

type BondLessRequest struct {
	Amount         *math.HexOrDecimal256 `json:"amount"`
	WhenExecutable uint32                `json:"whenExecutable"`
}

type Candidate struct {
	Address         thor.Address          `json:"address"`
	Bond            *math.HexOrDecimal256 `json:"bond"`
	TotalCounted    *math.HexOrDecimal256 `json:"totalCounted"`
	TotalBond       *math.HexOrDecimal256 `json:"totalBond"`
	DelegationCount uint32                `json:"delegationCount"`
	Status          string                `json:"status"`
	LeavingRound    *uint32               `json:"leavingRound,omitempty"`
	Request         *BondLessRequest      `json:"request,omitempty"`
	Selected        bool                  `json:"selected"`
}

func convertCandidate(addr thor.Address, c *candidate.Candidate, selected bool) *Candidate {
	res := &Candidate{
		Address:         addr,
		Bond:            amount(c.Bond),
		TotalCounted:    amount(c.TotalCounted),
		TotalBond:       amount(c.TotalBond),
		DelegationCount: c.DelegationCount,
		Status:          c.Status.String(),
		Selected:        selected,
	}
	if c.Status == candidate.StatusLeaving {
		leaving := c.LeavingRound
		res.LeavingRound = &leaving
	}
	if c.Request != nil {
		res.Request = &BondLessRequest{
			Amount:         amount(c.Request.Amount),
			WhenExecutable: c.Request.WhenExecutable,
		}
	}
	return res
}

type Bond struct {
	Owner  thor.Address          `json:"owner"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func convertBonds(bonds []delegation.Bond) []Bond {
	res := make([]Bond, 0, len(bonds))
	for _, b := range bonds {
		res = append(res, Bond{Owner: b.Owner, Amount: amount(b.Amount)})
	}
	return res
}

type DelegationList struct {
	Delegations []Bond                `json:"delegations"`
	Total       *math.HexOrDecimal256 `json:"total"`
}

type Delegations struct {
	Top    DelegationList `json:"top"`
	Bottom DelegationList `json:"bottom"`
}

func convertList(d *delegation.Delegations) DelegationList {
	if d == nil {
		return DelegationList{Delegations: []Bond{}, Total: amount(new(big.Int))}
	}
	return DelegationList{Delegations: convertBonds(d.Delegations), Total: amount(d.Total)}
}

func convertLists(l *delegation.Lists) *Delegations {
	return &Delegations{Top: convertList(l.Top), Bottom: convertList(l.Bottom)}
}

type Request struct {
	Delegator      thor.Address          `json:"delegator"`
	WhenExecutable uint32                `json:"whenExecutable"`
	Kind           string                `json:"kind"`
	Amount         *math.HexOrDecimal256 `json:"amount"`
}

func convertRequests(reqs []scheduled.Request) []Request {
	res := make([]Request, 0, len(reqs))
	for _, r := range reqs {
		res = append(res, Request{
			Delegator:      r.Delegator,
			WhenExecutable: r.WhenExecutable,
			Kind:           r.Action.Kind.String(),
			Amount:         amount(r.Action.Amount),
		})
	}
	return res
}

// Delegator lists bonds by candidate. Owner in the embedded bonds is the candidate.
type Delegator struct {
	Address      thor.Address          `json:"address"`
	Delegations  []Bond                `json:"delegations"`
	Total        *math.HexOrDecimal256 `json:"total"`
	LessTotal    *math.HexOrDecimal256 `json:"lessTotal"`
	Status       string                `json:"status"`
	LeavingRound *uint32               `json:"leavingRound,omitempty"`
}

func convertDelegator(addr thor.Address, d *delegation.Delegator) *Delegator {
	res := &Delegator{
		Address:     addr,
		Delegations: convertBonds(d.Delegations),
		Total:       amount(d.Total),
		LessTotal:   amount(d.LessTotal),
		Status:      d.Status.String(),
	}
	if d.IsLeaving() {
		leaving := d.LeavingRound
		res.LeavingRound = &leaving
	}
	return res
}

type Payout struct {
	RoundIssuance      *math.HexOrDecimal256 `json:"roundIssuance"`
	TotalStakingReward *math.HexOrDecimal256 `json:"totalStakingReward"`
	CollatorCommission thor.Perbill          `json:"collatorCommission"`
}

// RoundInfo is the bookkeeping kept for one round. Payout is nil once every collator of the round is paid.
type RoundInfo struct {
	Round  uint32                `json:"round"`
	Staked *math.HexOrDecimal256 `json:"staked"`
	Points uint32                `json:"points"`
	Payout *Payout               `json:"payout"`
}

func convertPayout(p *payout.DelayedPayout) *Payout {
	if p == nil {
		return nil
	}
	return &Payout{
		RoundIssuance:      amount(p.RoundIssuance),
		TotalStakingReward: amount(p.TotalStakingReward),
		CollatorCommission: p.CollatorCommission,
	}
}

type Snapshot struct {
	Collator    thor.Address          `json:"collator"`
	Round       uint32                `json:"round"`
	Bond        *math.HexOrDecimal256 `json:"bond"`
	Delegations []Bond                `json:"delegations"`
	Total       *math.HexOrDecimal256 `json:"total"`
	Points      uint32                `json:"points"`
}

type Account struct {
	Address   thor.Address          `json:"address"`
	Free      *math.HexOrDecimal256 `json:"free"`
	Reducible *math.HexOrDecimal256 `json:"reducible"`
	Locked    *math.HexOrDecimal256 `json:"locked"`
}

type Rewards struct {
	Address thor.Address          `json:"address"`
	Total   *math.HexOrDecimal256 `json:"total"`
	From    uint32                `json:"from"`
	To      *uint32               `json:"to,omitempty"`
}

type FilteredEvent struct {
	BlockNumber uint32                `json:"blockNumber"`
	Index       uint32                `json:"index"`
	Round       uint32                `json:"round"`
	Kind        string                `json:"kind"`
	Account     thor.Address          `json:"account"`
	Target      *thor.Address         `json:"target,omitempty"`
	Amount      *math.HexOrDecimal256 `json:"amount,omitempty"`
}

func convertEvent(ev *logdb.Event) *FilteredEvent {
	res := &FilteredEvent{
		BlockNumber: ev.BlockNumber,
		Index:       ev.Index,
		Round:       ev.Round,
		Kind:        ev.Kind,
		Account:     ev.Account,
		Amount:      amount(ev.Amount),
	}
	if !ev.Target.IsZero() {
		target := ev.Target
		res.Target = &target
	}
	return res
}
