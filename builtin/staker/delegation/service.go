// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotTopDelegations    = thor.BytesToBytes32([]byte("top-delegations"))
	slotBottomDelegations = thor.BytesToBytes32([]byte("bottom-delegations"))
	slotDelegators        = thor.BytesToBytes32([]byte("delegators"))
	slotDelegatorIndex    = thor.BytesToBytes32([]byte("delegator-index"))
)

// Service stores the delegation lists of every candidate and the state of every delegator.
type Service struct {
	top        *solidity.Mapping[thor.Address, *Delegations]
	bottom     *solidity.Mapping[thor.Address, *Delegations]
	delegators *solidity.Mapping[thor.Address, *Delegator]
	index      *solidity.Raw[[]thor.Address]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		top:        solidity.NewMapping[thor.Address, *Delegations](sctx, slotTopDelegations),
		bottom:     solidity.NewMapping[thor.Address, *Delegations](sctx, slotBottomDelegations),
		delegators: solidity.NewMapping[thor.Address, *Delegator](sctx, slotDelegators),
		index:      solidity.NewRaw[[]thor.Address](sctx, slotDelegatorIndex),
	}
}

// GetLists returns the delegation lists of a candidate. Missing lists are returned empty.
func (s *Service) GetLists(candidate thor.Address) (*Lists, error) {
	top, err := s.top.Get(candidate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get top delegations")
	}
	bottom, err := s.bottom.Get(candidate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bottom delegations")
	}
	lists := NewLists()
	if top != nil {
		lists.Top = top
	}
	if bottom != nil {
		lists.Bottom = bottom
	}
	return lists, nil
}

func (s *Service) SetLists(candidate thor.Address, lists *Lists) error {
	if err := s.top.Set(candidate, lists.Top); err != nil {
		return errors.Wrap(err, "failed to set top delegations")
	}
	if err := s.bottom.Set(candidate, lists.Bottom); err != nil {
		return errors.Wrap(err, "failed to set bottom delegations")
	}
	return nil
}

func (s *Service) DeleteLists(candidate thor.Address) {
	s.top.Delete(candidate)
	s.bottom.Delete(candidate)
}

// GetDelegator returns nil when the account has no delegations.
func (s *Service) GetDelegator(addr thor.Address) (*Delegator, error) {
	d, err := s.delegators.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegator")
	}
	return d, nil
}

func (s *Service) IsDelegator(addr thor.Address) (bool, error) {
	return s.delegators.Exists(addr)
}

// SetDelegator stores the delegator, deleting it once it holds no delegation.
func (s *Service) SetDelegator(addr thor.Address, d *Delegator) error {
	index, err := s.index.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get delegator index")
	}
	pos := slices.Index(index, addr)

	if d.IsEmpty() {
		s.delegators.Delete(addr)
		if pos >= 0 {
			return s.index.Set(slices.Delete(index, pos, pos+1))
		}
		return nil
	}

	if err := s.delegators.Set(addr, d); err != nil {
		return errors.Wrap(err, "failed to set delegator")
	}
	if pos < 0 {
		return s.index.Set(append(index, addr))
	}
	return nil
}

// Delegators lists every account holding at least one delegation.
func (s *Service) Delegators() ([]thor.Address, error) {
	return s.index.Get()
}
