// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package candidate

import (
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/delegation"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotCandidates     = thor.BytesToBytes32([]byte("candidates"))
	slotCandidateIndex = thor.BytesToBytes32([]byte("candidate-index"))
	slotCandidatePool  = thor.BytesToBytes32([]byte("candidate-pool"))
	slotSelected       = thor.BytesToBytes32([]byte("selected-candidates"))
)

// Service stores candidates, the pool of candidates eligible for selection and the active set.
// The pool is sorted by effective stake, descending, ties by address ascending.
type Service struct {
	candidates *solidity.Mapping[thor.Address, *Candidate]
	index      *solidity.Raw[[]thor.Address]
	pool       *solidity.Raw[[]delegation.Bond]
	selected   *solidity.Raw[[]thor.Address]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		candidates: solidity.NewMapping[thor.Address, *Candidate](sctx, slotCandidates),
		index:      solidity.NewRaw[[]thor.Address](sctx, slotCandidateIndex),
		pool:       solidity.NewRaw[[]delegation.Bond](sctx, slotCandidatePool),
		selected:   solidity.NewRaw[[]thor.Address](sctx, slotSelected),
	}
}

// Get returns nil if the account is not a candidate.
func (s *Service) Get(addr thor.Address) (*Candidate, error) {
	c, err := s.candidates.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get candidate")
	}
	return c, nil
}

func (s *Service) IsCandidate(addr thor.Address) (bool, error) {
	return s.candidates.Exists(addr)
}

// Set stores the candidate and keeps the pool in line with its status and effective stake.
func (s *Service) Set(addr thor.Address, c *Candidate) error {
	exists, err := s.candidates.Exists(addr)
	if err != nil {
		return err
	}
	if err := s.candidates.Set(addr, c); err != nil {
		return errors.Wrap(err, "failed to set candidate")
	}
	if !exists {
		index, err := s.index.Get()
		if err != nil {
			return err
		}
		if err := s.index.Set(append(index, addr)); err != nil {
			return err
		}
	}
	if c.IsActive() {
		return s.upsertPool(addr, c.TotalCounted)
	}
	return s.removePool(addr)
}

// Delete removes the candidate from storage and from the pool.
func (s *Service) Delete(addr thor.Address) error {
	s.candidates.Delete(addr)
	index, err := s.index.Get()
	if err != nil {
		return err
	}
	if pos := slices.Index(index, addr); pos >= 0 {
		if err := s.index.Set(slices.Delete(index, pos, pos+1)); err != nil {
			return err
		}
	}
	return s.removePool(addr)
}

// All lists every candidate in join order.
func (s *Service) All() ([]thor.Address, error) {
	return s.index.Get()
}

func (s *Service) Pool() ([]delegation.Bond, error) {
	return s.pool.Get()
}

func (s *Service) PoolSize() (uint32, error) {
	pool, err := s.pool.Get()
	if err != nil {
		return 0, err
	}
	return uint32(len(pool)), nil
}

func (s *Service) upsertPool(addr thor.Address, amount *big.Int) error {
	pool, err := s.pool.Get()
	if err != nil {
		return err
	}
	if pos := slices.IndexFunc(pool, func(b delegation.Bond) bool { return b.Owner == addr }); pos >= 0 {
		pool = slices.Delete(pool, pos, pos+1)
	}
	entry := delegation.Bond{Owner: addr, Amount: new(big.Int).Set(amount)}
	pos, _ := slices.BinarySearchFunc(pool, entry, comparePool)
	return s.pool.Set(slices.Insert(pool, pos, entry))
}

func (s *Service) removePool(addr thor.Address) error {
	pool, err := s.pool.Get()
	if err != nil {
		return err
	}
	pos := slices.IndexFunc(pool, func(b delegation.Bond) bool { return b.Owner == addr })
	if pos < 0 {
		return nil
	}
	return s.pool.Set(slices.Delete(pool, pos, pos+1))
}

func comparePool(a, b delegation.Bond) int {
	if c := b.Amount.Cmp(a.Amount); c != 0 {
		return c
	}
	return a.Owner.Compare(b.Owner)
}

// SelectTop returns up to n pool members with the greatest effective stake.
func (s *Service) SelectTop(n uint32) ([]delegation.Bond, error) {
	pool, err := s.pool.Get()
	if err != nil {
		return nil, err
	}
	if uint32(len(pool)) > n {
		pool = pool[:n]
	}
	return pool, nil
}

func (s *Service) Selected() ([]thor.Address, error) {
	return s.selected.Get()
}

func (s *Service) SetSelected(selected []thor.Address) error {
	return s.selected.Set(selected)
}
