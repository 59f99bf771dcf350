// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/vechain/collator-staking/metrics"

var (
	metricRoundTransitions   = metrics.LazyLoadCounter("staker_round_transitions_count")
	metricRewardsPaid        = metrics.LazyLoadCounterVec("staker_rewards_paid_count", []string{"kind"})
	metricOperations         = metrics.LazyLoadCounterVec("staker_operations_count", []string{"op", "result"})
	metricSelectedCandidates = metrics.LazyLoadGauge("staker_selected_candidates")
	metricTotalLocked        = metrics.LazyLoadGauge("staker_total_locked")
)
