// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"

	"github.com/vechain/collator-staking/thor"
)

// Bond is an amount staked by an owner.
type Bond struct {
	Owner  thor.Address
	Amount *big.Int
}

// Delegations is a list of bonds sorted by amount, descending. Bonds of equal amount keep their insertion order.
type Delegations struct {
	Delegations []Bond
	Total       *big.Int
}

func NewDelegations() *Delegations {
	return &Delegations{Total: new(big.Int)}
}

func (d *Delegations) Len() int {
	return len(d.Delegations)
}

// Lowest returns the last bond of the list.
func (d *Delegations) Lowest() (Bond, bool) {
	if len(d.Delegations) == 0 {
		return Bond{}, false
	}
	return d.Delegations[len(d.Delegations)-1], true
}

// Highest returns the first bond of the list.
func (d *Delegations) Highest() (Bond, bool) {
	if len(d.Delegations) == 0 {
		return Bond{}, false
	}
	return d.Delegations[0], true
}

// Find returns the index of the bond owned by owner.
func (d *Delegations) Find(owner thor.Address) (int, bool) {
	for i, b := range d.Delegations {
		if b.Owner == owner {
			return i, true
		}
	}
	return -1, false
}

// Insert places the bond after every bond of greater or equal amount.
func (d *Delegations) Insert(bond Bond) {
	pos := len(d.Delegations)
	for i, b := range d.Delegations {
		if b.Amount.Cmp(bond.Amount) < 0 {
			pos = i
			break
		}
	}
	d.Delegations = append(d.Delegations, Bond{})
	copy(d.Delegations[pos+1:], d.Delegations[pos:])
	d.Delegations[pos] = bond
	d.Total = new(big.Int).Add(d.Total, bond.Amount)
}

// Remove deletes the bond owned by owner and returns it.
func (d *Delegations) Remove(owner thor.Address) (Bond, bool) {
	i, ok := d.Find(owner)
	if !ok {
		return Bond{}, false
	}
	return d.removeAt(i), true
}

func (d *Delegations) PopLowest() (Bond, bool) {
	if len(d.Delegations) == 0 {
		return Bond{}, false
	}
	return d.removeAt(len(d.Delegations) - 1), true
}

func (d *Delegations) PopHighest() (Bond, bool) {
	if len(d.Delegations) == 0 {
		return Bond{}, false
	}
	return d.removeAt(0), true
}

func (d *Delegations) removeAt(i int) Bond {
	bond := d.Delegations[i]
	d.Delegations = append(d.Delegations[:i], d.Delegations[i+1:]...)
	d.Total = new(big.Int).Sub(d.Total, bond.Amount)
	return bond
}

// IsSorted reports whether the bonds are ordered and the total matches their sum.
func (d *Delegations) IsSorted() bool {
	sum := new(big.Int)
	for i, b := range d.Delegations {
		if i > 0 && d.Delegations[i-1].Amount.Cmp(b.Amount) < 0 {
			return false
		}
		sum.Add(sum, b.Amount)
	}
	return sum.Cmp(d.Total) == 0
}
