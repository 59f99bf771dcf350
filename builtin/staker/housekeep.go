// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"slices"

	"github.com/vechain/collator-staking/builtin/staker/payout"
	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/thor"
)

// OnInitialize runs at the start of every block. On a round boundary it starts the next round, then it pays
// at most one collator of the round whose payment delay has passed.
func (s *Staker) OnInitialize(block uint64) error {
	return s.atomic("on_initialize", func() error {
		r, err := s.rounds.Get()
		if err != nil {
			return err
		}
		if r.Current > 0 && r.ShouldUpdate(block) {
			if r, err = s.startRound(r, block); err != nil {
				return err
			}
		}
		if r.Current > s.cfg.RewardPaymentDelay {
			return s.payOneCollator(r.Current - s.cfg.RewardPaymentDelay)
		}
		return nil
	})
}

// NoteAuthor awards the block points of the current round to the author. Authors outside the selected set
// earn nothing.
func (s *Staker) NoteAuthor(author thor.Address) error {
	return s.atomic("note_author", func() error {
		selected, err := s.candidates.Selected()
		if err != nil {
			return err
		}
		if !slices.Contains(selected, author) {
			logger.Debug("ignoring author outside the selected set", "author", author)
			return nil
		}
		current, err := s.currentRound()
		if err != nil {
			return err
		}
		return s.payouts.Award(current, author, thor.PointsPerBlock)
	})
}

// PayOneCollatorReward pays the next pending collator of a finished round.
func (s *Staker) PayOneCollatorReward(paidRound uint32) error {
	return s.atomic("pay_one_collator_reward", func() error {
		return s.payOneCollator(paidRound)
	})
}

// startRound moves to the round starting at block. The reward pool of the finished round is computed from the
// stake of the new selection and stored for delayed payment.
func (s *Staker) startRound(prev *round.Round, block uint64) (*round.Round, error) {
	next := prev.Next(block)
	logger.Info("starting round", "round", next.Current, "block", block)

	if err := s.rounds.Set(next); err != nil {
		return nil, err
	}
	staked, err := s.selectCandidates(next.Current)
	if err != nil {
		return nil, err
	}
	s.emit(EventNewRound, thor.Address{}, thor.Address{}, staked)
	metricRoundTransitions().Add(1)

	if prev.Current == 0 {
		return next, nil
	}

	inflation, err := s.InflationConfig()
	if err != nil {
		return nil, err
	}
	circulating, err := s.currency.TotalIssuance()
	if err != nil {
		return nil, err
	}
	rate := s.cfg.Curve.Rate(staked, inflation)
	issuance := round.Issuance(circulating, rate, prev.Length, s.cfg.blocksPerYear())
	reward := new(big.Int).Set(issuance)

	account, percent, err := s.ParachainBond()
	if err != nil {
		return nil, err
	}
	if account != nil && percent > 0 {
		reserve := percent.MulFloor(issuance)
		if err := s.mint(*account, reserve); err != nil {
			return nil, err
		}
		reward.Sub(reward, reserve)
		s.emit(EventReservedForParachainBond, *account, thor.Address{}, reserve)
	}

	commission, err := s.CollatorCommission()
	if err != nil {
		return nil, err
	}
	if err := s.payouts.SetDelayedPayout(prev.Current, &payout.DelayedPayout{
		RoundIssuance:      issuance,
		TotalStakingReward: reward,
		CollatorCommission: commission,
	}); err != nil {
		return nil, err
	}

	logger.Debug("round reward prepared", "round", prev.Current, "rate", rate, "issuance", issuance, "reward", reward)
	return next, nil
}

// selectCandidates picks the active set for the round and snapshots each member's stake.
func (s *Staker) selectCandidates(current uint32) (*big.Int, error) {
	n, err := s.TotalSelected()
	if err != nil {
		return nil, err
	}
	top, err := s.candidates.SelectTop(n)
	if err != nil {
		return nil, err
	}

	staked := new(big.Int)
	selected := make([]thor.Address, 0, len(top))
	for _, entry := range top {
		c, err := s.existingCandidate(entry.Owner)
		if err != nil {
			return nil, err
		}
		lists, err := s.delegations.GetLists(entry.Owner)
		if err != nil {
			return nil, err
		}
		if err := s.payouts.SetSnapshot(current, entry.Owner, &payout.Snapshot{
			Bond:        c.Bond,
			Delegations: lists.Top.Delegations,
			Total:       c.TotalCounted,
		}); err != nil {
			return nil, err
		}
		staked.Add(staked, c.TotalCounted)
		selected = append(selected, entry.Owner)
	}

	if err := s.candidates.SetSelected(selected); err != nil {
		return nil, err
	}
	if err := s.payouts.SetStaked(current, staked); err != nil {
		return nil, err
	}
	metricSelectedCandidates().Set(int64(len(selected)))
	logger.Info("selected collators", "round", current, "count", len(selected), "staked", staked)
	return staked, nil
}

func (s *Staker) payOneCollator(paidRound uint32) error {
	dp, err := s.payouts.GetDelayedPayout(paidRound)
	if err != nil || dp == nil {
		return err
	}
	totalPoints, err := s.payouts.Points(paidRound)
	if err != nil {
		return err
	}

	collator, snap, points, ok, err := s.payouts.TakeNext(paidRound)
	if err != nil {
		return err
	}
	if ok && snap != nil && points > 0 && totalPoints > 0 {
		reward := payout.Compute(snap, dp, points, totalPoints)
		if err := s.mint(collator, reward.Collator); err != nil {
			return err
		}
		s.emit(EventRewarded, collator, collator, reward.Collator)
		metricRewardsPaid().AddWithLabel(1, map[string]string{"kind": "collator"})

		for _, d := range reward.Delegations {
			if err := s.mint(d.Owner, d.Amount); err != nil {
				return err
			}
			s.emit(EventRewarded, d.Owner, collator, d.Amount)
			metricRewardsPaid().AddWithLabel(1, map[string]string{"kind": "delegator"})
		}
		logger.Debug("paid collator reward", "round", paidRound, "collator", collator, "total", reward.Sum())
	}

	pending, err := s.payouts.Pending(paidRound)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		s.payouts.Finish(paidRound)
		logger.Info("round payout completed", "round", paidRound)
	}
	return nil
}
