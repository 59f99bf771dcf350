// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package round

import (
	"cmp"
	"math/big"

	"github.com/vechain/collator-staking/thor"
)

// Range is a min, ideal and max triple.
type Range[T any] struct {
	Min   T `json:"min" yaml:"min"`
	Ideal T `json:"ideal" yaml:"ideal"`
	Max   T `json:"max" yaml:"max"`
}

// IsOrdered reports whether min <= ideal <= max under the given comparison.
func (r Range[T]) IsOrdered(compare func(a, b T) int) bool {
	return compare(r.Min, r.Ideal) <= 0 && compare(r.Ideal, r.Max) <= 0
}

// InflationConfig bounds the staking expectations and the annual inflation rates.
type InflationConfig struct {
	Expect Range[*big.Int]      `json:"expect" yaml:"expect"`
	Annual Range[thor.Perbill] `json:"annual" yaml:"annual"`
}

// Validate reports whether both ranges are ordered, expectations are not negative and every rate is at most
// 100%.
func (c *InflationConfig) Validate() bool {
	if c.Expect.Min == nil || c.Expect.Ideal == nil || c.Expect.Max == nil || c.Expect.Min.Sign() < 0 {
		return false
	}
	if !c.Annual.Min.IsValid() || !c.Annual.Ideal.IsValid() || !c.Annual.Max.IsValid() {
		return false
	}
	return c.Expect.IsOrdered((*big.Int).Cmp) && c.Annual.IsOrdered(cmp.Compare[thor.Perbill])
}

// IssuanceCurve maps the staked amount to an annual inflation rate.
type IssuanceCurve interface {
	Rate(staked *big.Int, cfg *InflationConfig) thor.Perbill
}

// LinearCurve pays the highest rate while stake is at or below the minimum expectation and the lowest rate at
// or above the maximum. In between the rate moves linearly through the ideal point.
type LinearCurve struct{}

func (LinearCurve) Rate(staked *big.Int, cfg *InflationConfig) thor.Perbill {
	expect, annual := cfg.Expect, cfg.Annual
	switch {
	case staked.Cmp(expect.Min) <= 0:
		return annual.Max
	case staked.Cmp(expect.Max) >= 0:
		return annual.Min
	case staked.Cmp(expect.Ideal) <= 0:
		return interpolate(staked, expect.Min, expect.Ideal, annual.Max, annual.Ideal)
	default:
		return interpolate(staked, expect.Ideal, expect.Max, annual.Ideal, annual.Min)
	}
}

// interpolate walks from rate `from` at x0 down to rate `to` at x1. Requires x0 < x <= x1 and from >= to.
func interpolate(x, x0, x1 *big.Int, from, to thor.Perbill) thor.Perbill {
	span := new(big.Int).Sub(x1, x0)
	if span.Sign() == 0 || from <= to {
		return to
	}
	drop := thor.MulDiv(big.NewInt(int64(from-to)), new(big.Int).Sub(x, x0), span)
	return from - thor.Perbill(drop.Uint64())
}

// SteppedCurve pays the minimum rate below the expected range, the maximum above it and the ideal rate
// inside it.
type SteppedCurve struct{}

func (SteppedCurve) Rate(staked *big.Int, cfg *InflationConfig) thor.Perbill {
	switch {
	case staked.Cmp(cfg.Expect.Min) < 0:
		return cfg.Annual.Min
	case staked.Cmp(cfg.Expect.Max) > 0:
		return cfg.Annual.Max
	default:
		return cfg.Annual.Ideal
	}
}

// CurveByName resolves a configured curve name. Unknown names return nil.
func CurveByName(name string) IssuanceCurve {
	switch name {
	case "", "linear":
		return LinearCurve{}
	case "stepped":
		return SteppedCurve{}
	default:
		return nil
	}
}

// Issuance converts an annual rate into the amount minted for one round:
// circulating * rate * length / blocksPerYear, floored once.
func Issuance(circulating *big.Int, rate thor.Perbill, length uint32, blocksPerYear uint64) *big.Int {
	if blocksPerYear == 0 || circulating.Sign() <= 0 {
		return new(big.Int)
	}
	num := new(big.Int).Mul(circulating, big.NewInt(int64(rate)))
	num.Mul(num, new(big.Int).SetUint64(uint64(length)))
	den := new(big.Int).Mul(big.NewInt(int64(thor.PerbillAccuracy)), new(big.Int).SetUint64(blocksPerYear))
	return num.Quo(num, den)
}
