// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"math/big"

	"github.com/vechain/collator-staking/thor"
)

// Reader defines the read side of the event history.
type Reader interface {
	// FilterEvents filters events based on the given criteria.
	FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error)

	// SumRewards adds up the rewards paid to the account inside the block range.
	SumRewards(ctx context.Context, account thor.Address, blocks *Range) (*big.Int, error)

	// NewestBlockNum returns the number of the newest block with events written. ok is false for an empty db.
	NewestBlockNum() (num uint32, ok bool, err error)
}

// Writer defines the interface for transactional event writing operations.
type Writer interface {
	// Write writes all events of the given block.
	Write(blockNum uint32, events []*Event) error

	// Commit commits accumulated events.
	Commit() error

	// Rollback rollbacks all uncommitted events.
	Rollback() error

	// Truncate deletes the events of blockNum and every later block.
	Truncate(blockNum uint32) error

	// UncommittedCount returns the count of uncommitted events.
	UncommittedCount() int
}
