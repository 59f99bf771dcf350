// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package round

import (
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/thor"
)

var slotRound = thor.BytesToBytes32([]byte("round"))

// Round is the current round window. Rounds are numbered from 1.
type Round struct {
	Current uint32
	First   uint64 // first block of the round
	Length  uint32 // in blocks
}

// ShouldUpdate reports whether the block starts a new round.
func (r *Round) ShouldUpdate(block uint64) bool {
	return block >= r.First+uint64(r.Length)
}

// Next returns the round starting at block.
func (r *Round) Next(block uint64) *Round {
	return &Round{
		Current: r.Current + 1,
		First:   block,
		Length:  r.Length,
	}
}

type Service struct {
	round *solidity.Raw[*Round]
}

func New(sctx *solidity.Context) *Service {
	return &Service{round: solidity.NewRaw[*Round](sctx, slotRound)}
}

// Get returns the zero round before the first one starts.
func (s *Service) Get() (*Round, error) {
	r, err := s.round.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get round")
	}
	if r == nil {
		return &Round{}, nil
	}
	return r, nil
}

func (s *Service) Set(r *Round) error {
	return s.round.Set(r)
}
