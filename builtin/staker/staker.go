// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/params"
	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/candidate"
	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/builtin/staker/payout"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/builtin/staker/scheduled"
	"github.com/vechain/collator-staking/log"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

var (
	logger = log.WithContext("pkg", "staker")

	slotTotalLocked = thor.BytesToBytes32([]byte("total-locked"))
)

// Currency is the balance primitive bonds are taken from and rewards are paid into.
type Currency interface {
	FreeBalance(addr thor.Address) (*big.Int, error)
	// ReducibleBalance is the amount that can be debited while keeping the account alive.
	ReducibleBalance(addr thor.Address) (*big.Int, error)
	Debit(addr thor.Address, amount *big.Int) error
	Credit(addr thor.Address, amount *big.Int) error
	// Issue raises the total issuance by a freshly minted amount.
	Issue(amount *big.Int) error
	TotalIssuance() (*big.Int, error)
}

// Staker implements the collator staking engine. It is not safe for concurrent use.
type Staker struct {
	cfg      *Config
	state    *state.State
	params   *params.Params
	currency Currency

	candidates  *candidate.Service
	delegations *delegation.Service
	requests    *scheduled.Service
	rounds      *round.Service
	payouts     *payout.Service
	totalLocked *solidity.Uint256

	events []*Event
}

// New create a new instance. A nil config selects DefaultConfig.
func New(addr thor.Address, state *state.State, params *params.Params, currency Currency, cfg *Config) *Staker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sctx := solidity.NewContext(addr, state)

	return &Staker{
		cfg:      cfg,
		state:    state,
		params:   params,
		currency: currency,

		candidates:  candidate.New(sctx),
		delegations: delegation.New(sctx),
		requests:    scheduled.New(sctx),
		rounds:      round.New(sctx),
		payouts:     payout.New(sctx),
		totalLocked: solidity.NewUint256(sctx, slotTotalLocked),
	}
}

// atomic runs fn inside a state checkpoint. On error every state change and event of fn is discarded.
func (s *Staker) atomic(op string, fn func() error) error {
	checkpoint := s.state.NewCheckpoint()
	events := len(s.events)

	if err := fn(); err != nil {
		s.state.RevertTo(checkpoint)
		s.events = s.events[:events]
		metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": "failed"})
		return err
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	if locked, err := s.totalLocked.Get(); err == nil {
		if units, ok := wholeUnits(locked); ok {
			metricTotalLocked().Set(units)
		}
	}
	return nil
}

// wholeUnits converts an amount to whole tokens for gauges.
func wholeUnits(amount *big.Int) (int64, bool) {
	units := new(big.Int).Quo(amount, Unit)
	if !units.IsInt64() {
		return 0, false
	}
	return units.Int64(), true
}

//
// Getters - no state change
//

func (s *Staker) Config() *Config {
	return s.cfg
}

func (s *Staker) Round() (*round.Round, error) {
	return s.rounds.Get()
}

func (s *Staker) currentRound() (uint32, error) {
	r, err := s.rounds.Get()
	if err != nil {
		return 0, err
	}
	return r.Current, nil
}

// Candidate returns nil if the account is not a candidate.
func (s *Staker) Candidate(addr thor.Address) (*candidate.Candidate, error) {
	return s.candidates.Get(addr)
}

// Candidates lists every candidate in join order.
func (s *Staker) Candidates() ([]thor.Address, error) {
	return s.candidates.All()
}

// CandidatePool lists the candidates eligible for selection with their effective stake, highest first.
func (s *Staker) CandidatePool() ([]delegation.Bond, error) {
	return s.candidates.Pool()
}

func (s *Staker) SelectedCandidates() ([]thor.Address, error) {
	return s.candidates.Selected()
}

// Delegations returns the top and bottom delegations of a candidate.
func (s *Staker) Delegations(candidateAddr thor.Address) (*delegation.Lists, error) {
	return s.delegations.GetLists(candidateAddr)
}

// Delegator returns nil if the account has no delegation.
func (s *Staker) Delegator(addr thor.Address) (*delegation.Delegator, error) {
	return s.delegations.GetDelegator(addr)
}

func (s *Staker) Delegators() ([]thor.Address, error) {
	return s.delegations.Delegators()
}

// DelegationRequests lists the pending requests against a candidate.
func (s *Staker) DelegationRequests(candidateAddr thor.Address) ([]scheduled.Request, error) {
	return s.requests.List(candidateAddr)
}

// TotalLocked is the sum of every bond held by the engine.
func (s *Staker) TotalLocked() (*big.Int, error) {
	return s.totalLocked.Get()
}

func (s *Staker) Staked(round uint32) (*big.Int, error) {
	return s.payouts.Staked(round)
}

func (s *Staker) Snapshot(round uint32, collator thor.Address) (*payout.Snapshot, error) {
	return s.payouts.GetSnapshot(round, collator)
}

func (s *Staker) DelayedPayout(round uint32) (*payout.DelayedPayout, error) {
	return s.payouts.GetDelayedPayout(round)
}

func (s *Staker) Points(round uint32) (uint32, error) {
	return s.payouts.Points(round)
}

func (s *Staker) AwardedPoints(round uint32, collator thor.Address) (uint32, error) {
	return s.payouts.AwardedPoints(round, collator)
}

//
// Balance helpers
//

// checkPositive rejects zero and negative amounts. A negative increase would otherwise lower a bond without
// the scheduled delay.
func checkPositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.BelowMinimum("amount must be positive")
	}
	return nil
}

func (s *Staker) lock(addr thor.Address, amount *big.Int) error {
	if err := checkPositive(amount); err != nil {
		return err
	}
	reducible, err := s.currency.ReducibleBalance(addr)
	if err != nil {
		return err
	}
	if reducible.Cmp(amount) < 0 {
		return reverts.InsufficientBalance("insufficient reducible balance")
	}
	if err := s.currency.Debit(addr, amount); err != nil {
		return errors.Wrap(err, "failed to debit bond")
	}
	return s.totalLocked.Add(amount)
}

func (s *Staker) unlock(addr thor.Address, amount *big.Int) error {
	if err := s.totalLocked.Sub(amount); err != nil {
		return err
	}
	return s.currency.Credit(addr, amount)
}

func (s *Staker) mint(addr thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	if err := s.currency.Issue(amount); err != nil {
		return err
	}
	return s.currency.Credit(addr, amount)
}
