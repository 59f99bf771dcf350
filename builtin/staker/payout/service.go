// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package payout

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotSnapshots      = thor.BytesToBytes32([]byte("at-stake"))
	slotPending        = thor.BytesToBytes32([]byte("pending-payouts"))
	slotDelayedPayouts = thor.BytesToBytes32([]byte("delayed-payouts"))
	slotPoints         = thor.BytesToBytes32([]byte("points"))
	slotAwardedPts     = thor.BytesToBytes32([]byte("awarded-points"))
	slotStaked         = thor.BytesToBytes32([]byte("staked"))
)

// Service stores per-round snapshots, points and reward pools.
type Service struct {
	snapshots *solidity.Mapping[solidity.RoundAddressKey, *Snapshot]
	pending   *solidity.Mapping[solidity.Uint32Key, []thor.Address]
	payouts   *solidity.Mapping[solidity.Uint32Key, *DelayedPayout]
	points    *solidity.Mapping[solidity.Uint32Key, uint32]
	awarded   *solidity.Mapping[solidity.RoundAddressKey, uint32]
	staked    *solidity.Mapping[solidity.Uint32Key, *big.Int]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		snapshots: solidity.NewMapping[solidity.RoundAddressKey, *Snapshot](sctx, slotSnapshots),
		pending:   solidity.NewMapping[solidity.Uint32Key, []thor.Address](sctx, slotPending),
		payouts:   solidity.NewMapping[solidity.Uint32Key, *DelayedPayout](sctx, slotDelayedPayouts),
		points:    solidity.NewMapping[solidity.Uint32Key, uint32](sctx, slotPoints),
		awarded:   solidity.NewMapping[solidity.RoundAddressKey, uint32](sctx, slotAwardedPts),
		staked:    solidity.NewMapping[solidity.Uint32Key, *big.Int](sctx, slotStaked),
	}
}

func key(round uint32, addr thor.Address) solidity.RoundAddressKey {
	return solidity.RoundAddressKey{Round: round, Address: addr}
}

// SetSnapshot stores the snapshot and queues the collator for payout of the round.
func (s *Service) SetSnapshot(round uint32, collator thor.Address, snap *Snapshot) error {
	exists, err := s.snapshots.Exists(key(round, collator))
	if err != nil {
		return err
	}
	if err := s.snapshots.Set(key(round, collator), snap); err != nil {
		return errors.Wrap(err, "failed to set snapshot")
	}
	if exists {
		return nil
	}
	pending, err := s.pending.Get(solidity.Uint32Key(round))
	if err != nil {
		return err
	}
	return s.pending.Set(solidity.Uint32Key(round), append(pending, collator))
}

// GetSnapshot returns nil if the collator was not selected for the round or was already paid.
func (s *Service) GetSnapshot(round uint32, collator thor.Address) (*Snapshot, error) {
	snap, err := s.snapshots.Get(key(round, collator))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get snapshot")
	}
	return snap, nil
}

// Pending lists the collators of the round still awaiting payout.
func (s *Service) Pending(round uint32) ([]thor.Address, error) {
	return s.pending.Get(solidity.Uint32Key(round))
}

// TakeNext removes the next pending collator of the round together with its snapshot and awarded points.
// ok is false when the round has nothing left to pay.
func (s *Service) TakeNext(round uint32) (collator thor.Address, snap *Snapshot, points uint32, ok bool, err error) {
	pending, err := s.pending.Get(solidity.Uint32Key(round))
	if err != nil || len(pending) == 0 {
		return thor.Address{}, nil, 0, false, err
	}
	collator = pending[0]
	if len(pending) == 1 {
		s.pending.Delete(solidity.Uint32Key(round))
	} else if err := s.pending.Set(solidity.Uint32Key(round), pending[1:]); err != nil {
		return thor.Address{}, nil, 0, false, err
	}

	if snap, err = s.GetSnapshot(round, collator); err != nil {
		return thor.Address{}, nil, 0, false, err
	}
	s.snapshots.Delete(key(round, collator))

	if points, err = s.AwardedPoints(round, collator); err != nil {
		return thor.Address{}, nil, 0, false, err
	}
	s.awarded.Delete(key(round, collator))
	return collator, snap, points, true, nil
}

// GetDelayedPayout returns nil if the round has no reward pool.
func (s *Service) GetDelayedPayout(round uint32) (*DelayedPayout, error) {
	dp, err := s.payouts.Get(solidity.Uint32Key(round))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delayed payout")
	}
	return dp, nil
}

func (s *Service) SetDelayedPayout(round uint32, dp *DelayedPayout) error {
	return s.payouts.Set(solidity.Uint32Key(round), dp)
}

// Finish drops the reward pool and the points of a drained round.
func (s *Service) Finish(round uint32) {
	s.payouts.Delete(solidity.Uint32Key(round))
	s.points.Delete(solidity.Uint32Key(round))
}

// Award adds points to the collator and to the round total.
func (s *Service) Award(round uint32, collator thor.Address, pts uint32) error {
	awarded, err := s.awarded.Get(key(round, collator))
	if err != nil {
		return err
	}
	if err := s.awarded.Set(key(round, collator), awarded+pts); err != nil {
		return err
	}
	total, err := s.points.Get(solidity.Uint32Key(round))
	if err != nil {
		return err
	}
	return s.points.Set(solidity.Uint32Key(round), total+pts)
}

func (s *Service) Points(round uint32) (uint32, error) {
	return s.points.Get(solidity.Uint32Key(round))
}

func (s *Service) AwardedPoints(round uint32, collator thor.Address) (uint32, error) {
	return s.awarded.Get(key(round, collator))
}

// Staked is the effective stake of the round's selection.
func (s *Service) Staked(round uint32) (*big.Int, error) {
	v, err := s.staked.Get(solidity.Uint32Key(round))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

func (s *Service) SetStaked(round uint32, staked *big.Int) error {
	return s.staked.Set(solidity.Uint32Key(round), staked)
}
