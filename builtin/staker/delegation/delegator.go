// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"

	"github.com/vechain/collator-staking/thor"
)

type Status uint8

const (
	StatusActive Status = iota
	StatusLeaving
)

func (s Status) String() string {
	if s == StatusLeaving {
		return "leaving"
	}
	return "active"
}

// Delegator is the per-account view of delegations. The owner of every bond is the candidate delegated to.
type Delegator struct {
	Delegations  []Bond
	Total        *big.Int
	LessTotal    *big.Int // sum of pending decrease and revoke amounts
	Status       Status
	LeavingRound uint32
}

func NewDelegator() *Delegator {
	return &Delegator{Total: new(big.Int), LessTotal: new(big.Int)}
}

func (d *Delegator) Len() int {
	return len(d.Delegations)
}

func (d *Delegator) IsEmpty() bool {
	return len(d.Delegations) == 0
}

func (d *Delegator) IsLeaving() bool {
	return d.Status == StatusLeaving
}

// Get returns the amount delegated to the candidate.
func (d *Delegator) Get(candidate thor.Address) (*big.Int, bool) {
	for _, b := range d.Delegations {
		if b.Owner == candidate {
			return b.Amount, true
		}
	}
	return nil, false
}

// Add records a new delegation. It returns false when one to the candidate already exists.
func (d *Delegator) Add(candidate thor.Address, amount *big.Int) bool {
	if _, ok := d.Get(candidate); ok {
		return false
	}
	d.Delegations = append(d.Delegations, Bond{Owner: candidate, Amount: new(big.Int).Set(amount)})
	d.Total = new(big.Int).Add(d.Total, amount)
	return true
}

func (d *Delegator) Increase(candidate thor.Address, more *big.Int) bool {
	for i, b := range d.Delegations {
		if b.Owner == candidate {
			d.Delegations[i].Amount = new(big.Int).Add(b.Amount, more)
			d.Total = new(big.Int).Add(d.Total, more)
			return true
		}
	}
	return false
}

func (d *Delegator) Decrease(candidate thor.Address, less *big.Int) bool {
	for i, b := range d.Delegations {
		if b.Owner == candidate {
			if b.Amount.Cmp(less) < 0 {
				return false
			}
			d.Delegations[i].Amount = new(big.Int).Sub(b.Amount, less)
			d.Total = new(big.Int).Sub(d.Total, less)
			return true
		}
	}
	return false
}

// Remove deletes the delegation to the candidate and returns its amount.
func (d *Delegator) Remove(candidate thor.Address) (*big.Int, bool) {
	for i, b := range d.Delegations {
		if b.Owner == candidate {
			d.Delegations = append(d.Delegations[:i], d.Delegations[i+1:]...)
			d.Total = new(big.Int).Sub(d.Total, b.Amount)
			return b.Amount, true
		}
	}
	return nil, false
}

func (d *Delegator) AddLess(amount *big.Int) {
	d.LessTotal = new(big.Int).Add(d.LessTotal, amount)
}

func (d *Delegator) SubLess(amount *big.Int) {
	d.LessTotal = new(big.Int).Sub(d.LessTotal, amount)
	if d.LessTotal.Sign() < 0 {
		d.LessTotal = new(big.Int)
	}
}
