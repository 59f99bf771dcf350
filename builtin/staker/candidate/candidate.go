// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package candidate

import (
	"math/big"

	"github.com/vechain/collator-staking/builtin/staker/delegation"
)

type Status uint8

const (
	StatusActive  Status = iota // eligible for selection
	StatusIdle                  // offline, keeps its bonds
	StatusLeaving               // scheduled to leave at LeavingRound
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusIdle:
		return "idle"
	case StatusLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}

// BondLessRequest is a scheduled decrease of the self bond.
type BondLessRequest struct {
	Amount         *big.Int
	WhenExecutable uint32
}

type Candidate struct {
	Bond            *big.Int // self bond
	TotalCounted    *big.Int // self bond plus top delegations
	TotalBond       *big.Int // self bond plus all delegations
	DelegationCount uint32
	Status          Status
	LeavingRound    uint32
	Request         *BondLessRequest `rlp:"nil"`
}

func NewCandidate(bond *big.Int) *Candidate {
	return &Candidate{
		Bond:         new(big.Int).Set(bond),
		TotalCounted: new(big.Int).Set(bond),
		TotalBond:    new(big.Int).Set(bond),
	}
}

func (c *Candidate) IsActive() bool {
	return c.Status == StatusActive
}

func (c *Candidate) IsLeaving() bool {
	return c.Status == StatusLeaving
}

// CanLeave reports whether the scheduled exit has matured.
func (c *Candidate) CanLeave(current uint32) bool {
	return c.IsLeaving() && c.LeavingRound <= current
}

// Refresh derives the totals from the self bond and the delegation lists.
func (c *Candidate) Refresh(lists *delegation.Lists) {
	c.TotalCounted = new(big.Int).Add(c.Bond, lists.Top.Total)
	c.TotalBond = new(big.Int).Add(c.TotalCounted, lists.Bottom.Total)
	c.DelegationCount = uint32(lists.Len())
}
