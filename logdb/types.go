// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/vechain/collator-staking/thor"
)

// Event is a staking event as stored in the db.
type Event struct {
	BlockNumber uint32
	Index       uint32 // position within the block
	Round       uint32
	Kind        string
	Account     thor.Address
	Target      thor.Address
	Amount      *big.Int // nil when the event carries no amount
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive range. A To below From leaves the range open ended.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events on every non-nil field.
type EventCriteria struct {
	Kind    *string
	Account *thor.Address
	Target  *thor.Address
}

// EventFilter selects events matching any of the criteria inside the block and round ranges.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range // blocks
	Rounds      *Range
	Options     *Options
	Order       Order // default asc
}
