// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"

	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

// Lists holds the delegations backing a candidate. Only Top counts towards the candidate's effective stake.
// Every Top bond is greater than or equal to every Bottom bond, and Bottom is empty unless Top is full.
type Lists struct {
	Top    *Delegations
	Bottom *Delegations
}

func NewLists() *Lists {
	return &Lists{Top: NewDelegations(), Bottom: NewDelegations()}
}

func (l *Lists) Len() int {
	return l.Top.Len() + l.Bottom.Len()
}

// Total is the sum of both lists.
func (l *Lists) Total() *big.Int {
	return new(big.Int).Add(l.Top.Total, l.Bottom.Total)
}

// Get returns the bond of the delegator and whether it sits in Top.
func (l *Lists) Get(delegator thor.Address) (bond Bond, inTop bool, ok bool) {
	if i, found := l.Top.Find(delegator); found {
		return l.Top.Delegations[i], true, true
	}
	if i, found := l.Bottom.Find(delegator); found {
		return l.Bottom.Delegations[i], false, true
	}
	return Bond{}, false, false
}

// Add places a new delegation. A full Top admits the bond only when it is strictly greater than the lowest
// Top bond, which is then demoted to Bottom. A full Bottom admits a bond the same way, kicking its lowest.
// The kicked bond, if any, is returned and is no longer part of the lists.
func (l *Lists) Add(bond Bond, maxTop, maxBottom uint32) (kicked *Bond, err error) {
	if uint32(l.Top.Len()) < maxTop {
		l.Top.Insert(bond)
		return nil, nil
	}

	if lowest, ok := l.Top.Lowest(); ok && bond.Amount.Cmp(lowest.Amount) > 0 {
		demoted, _ := l.Top.PopLowest()
		l.Top.Insert(bond)
		return l.insertBottom(demoted, maxBottom), nil
	}

	if uint32(l.Bottom.Len()) < maxBottom {
		l.Bottom.Insert(bond)
		return nil, nil
	}
	if lowest, ok := l.Bottom.Lowest(); ok && bond.Amount.Cmp(lowest.Amount) > 0 {
		out, _ := l.Bottom.PopLowest()
		l.Bottom.Insert(bond)
		return &out, nil
	}
	return nil, reverts.CapacityExceeded("delegation does not fit in the top or bottom delegations")
}

// insertBottom places a bond demoted from Top, which is never lower than any Bottom bond.
func (l *Lists) insertBottom(bond Bond, maxBottom uint32) *Bond {
	if maxBottom == 0 {
		return &bond
	}
	var kicked *Bond
	if uint32(l.Bottom.Len()) >= maxBottom {
		out, _ := l.Bottom.PopLowest()
		kicked = &out
	}
	l.Bottom.Insert(bond)
	return kicked
}

// Increase raises the bond of a delegator, promoting it to Top when it now exceeds the lowest Top bond.
func (l *Lists) Increase(delegator thor.Address, more *big.Int, maxTop uint32) error {
	if bond, ok := l.Top.Remove(delegator); ok {
		bond.Amount = new(big.Int).Add(bond.Amount, more)
		l.Top.Insert(bond)
		return nil
	}
	bond, ok := l.Bottom.Remove(delegator)
	if !ok {
		return reverts.NotFound("delegation not found")
	}
	bond.Amount = new(big.Int).Add(bond.Amount, more)

	if uint32(l.Top.Len()) < maxTop {
		l.Top.Insert(bond)
		return nil
	}
	if lowest, ok := l.Top.Lowest(); ok && bond.Amount.Cmp(lowest.Amount) > 0 {
		demoted, _ := l.Top.PopLowest()
		l.Top.Insert(bond)
		l.Bottom.Insert(demoted)
		return nil
	}
	l.Bottom.Insert(bond)
	return nil
}

// Decrease lowers the bond of a delegator. A Top bond that falls below the highest Bottom bond swaps with it.
func (l *Lists) Decrease(delegator thor.Address, less *big.Int) error {
	current, inTop, ok := l.Get(delegator)
	if !ok {
		return reverts.NotFound("delegation not found")
	}
	if current.Amount.Cmp(less) < 0 {
		return reverts.BelowMinimum("decrease exceeds the delegated amount")
	}

	if !inTop {
		bond, _ := l.Bottom.Remove(delegator)
		bond.Amount = new(big.Int).Sub(bond.Amount, less)
		l.Bottom.Insert(bond)
		return nil
	}

	bond, _ := l.Top.Remove(delegator)
	bond.Amount = new(big.Int).Sub(bond.Amount, less)
	if highest, ok := l.Bottom.Highest(); ok && highest.Amount.Cmp(bond.Amount) > 0 {
		promoted, _ := l.Bottom.PopHighest()
		l.Top.Insert(promoted)
		l.Bottom.Insert(bond)
		return nil
	}
	l.Top.Insert(bond)
	return nil
}

// Remove deletes the delegation. A vacancy in Top is filled by the highest Bottom bond.
func (l *Lists) Remove(delegator thor.Address) (Bond, bool) {
	if bond, ok := l.Top.Remove(delegator); ok {
		if promoted, ok := l.Bottom.PopHighest(); ok {
			l.Top.Insert(promoted)
		}
		return bond, true
	}
	return l.Bottom.Remove(delegator)
}

// Validate checks ordering and capacity of both lists.
func (l *Lists) Validate(maxTop, maxBottom uint32) error {
	if !l.Top.IsSorted() || !l.Bottom.IsSorted() {
		return reverts.InvalidState("delegations are not sorted")
	}
	if uint32(l.Top.Len()) > maxTop || uint32(l.Bottom.Len()) > maxBottom {
		return reverts.InvalidState("delegations exceed capacity")
	}
	if l.Bottom.Len() > 0 && uint32(l.Top.Len()) < maxTop {
		return reverts.InvalidState("bottom delegations while top has room")
	}
	lowest, okTop := l.Top.Lowest()
	highest, okBottom := l.Bottom.Highest()
	if okTop && okBottom && lowest.Amount.Cmp(highest.Amount) < 0 {
		return reverts.InvalidState("bottom delegation exceeds top delegation")
	}
	return nil
}
