// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scheduled

import (
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/thor"
)

var slotRequests = thor.BytesToBytes32([]byte("delegation-requests"))

type Kind uint8

const (
	KindRevoke Kind = iota + 1
	KindDecrease
)

func (k Kind) String() string {
	switch k {
	case KindRevoke:
		return "revoke"
	case KindDecrease:
		return "decrease"
	default:
		return "unknown"
	}
}

type Action struct {
	Kind   Kind
	Amount *big.Int // the full bond for a revoke
}

// Request is a delegator's pending change against one candidate.
type Request struct {
	Delegator      thor.Address
	WhenExecutable uint32
	Action         Action
}

// IsMatured reports whether the request can be executed in the current round.
func (r *Request) IsMatured(current uint32) bool {
	return current >= r.WhenExecutable
}

// Service keeps the pending requests of every candidate, at most one per delegator.
type Service struct {
	requests *solidity.Mapping[thor.Address, []Request]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		requests: solidity.NewMapping[thor.Address, []Request](sctx, slotRequests),
	}
}

// List returns the requests against a candidate in scheduling order.
func (s *Service) List(candidate thor.Address) ([]Request, error) {
	list, err := s.requests.Get(candidate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get scheduled requests")
	}
	return list, nil
}

// Get returns nil when the delegator has nothing pending against the candidate.
func (s *Service) Get(candidate, delegator thor.Address) (*Request, error) {
	list, err := s.List(candidate)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Delegator == delegator {
			return &list[i], nil
		}
	}
	return nil, nil
}

func (s *Service) Add(candidate thor.Address, req Request) error {
	list, err := s.List(candidate)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(list, func(r Request) bool { return r.Delegator == req.Delegator }) {
		return reverts.AlreadyExists("pending delegation request already exists")
	}
	return s.set(candidate, append(list, req))
}

// Remove deletes and returns the delegator's request, or nil if there was none.
func (s *Service) Remove(candidate, delegator thor.Address) (*Request, error) {
	list, err := s.List(candidate)
	if err != nil {
		return nil, err
	}
	pos := slices.IndexFunc(list, func(r Request) bool { return r.Delegator == delegator })
	if pos < 0 {
		return nil, nil
	}
	req := list[pos]
	if err := s.set(candidate, slices.Delete(list, pos, pos+1)); err != nil {
		return nil, err
	}
	return &req, nil
}

// Delete drops every request against the candidate.
func (s *Service) Delete(candidate thor.Address) {
	s.requests.Delete(candidate)
}

func (s *Service) set(candidate thor.Address, list []Request) error {
	if len(list) == 0 {
		s.requests.Delete(candidate)
		return nil
	}
	if err := s.requests.Set(candidate, list); err != nil {
		return errors.Wrap(err, "failed to set scheduled requests")
	}
	return nil
}
