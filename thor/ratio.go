// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// PerbillAccuracy is the denominator of a Perbill.
const PerbillAccuracy uint32 = 1_000_000_000

var perbillDenominator = uint256.NewInt(uint64(PerbillAccuracy))

// Perbill is a fraction in parts per billion.
type Perbill uint32

// PerbillFromPercent returns the perbill of a whole percentage.
func PerbillFromPercent(p uint32) Perbill {
	return Perbill(p * (PerbillAccuracy / 100))
}

// PerbillFromRational returns floor(num / den) as a perbill, saturated at one.
func PerbillFromRational(num, den *big.Int) Perbill {
	if den.Sign() == 0 || num.Cmp(den) >= 0 {
		return Perbill(PerbillAccuracy)
	}
	parts := MulDiv(num, big.NewInt(int64(PerbillAccuracy)), den)
	return Perbill(parts.Uint64())
}

// IsValid reports whether the perbill is no greater than one.
func (p Perbill) IsValid() bool {
	return uint32(p) <= PerbillAccuracy
}

// MulFloor returns floor(x * p).
func (p Perbill) MulFloor(x *big.Int) *big.Int {
	if x.Sign() <= 0 || p == 0 {
		return new(big.Int)
	}
	v, overflow := uint256.FromBig(x)
	if !overflow {
		res, overflow := new(uint256.Int).MulDivOverflow(v, uint256.NewInt(uint64(p)), perbillDenominator)
		if !overflow {
			return res.ToBig()
		}
	}
	return MulDiv(x, big.NewInt(int64(p)), big.NewInt(int64(PerbillAccuracy)))
}

func (p Perbill) String() string {
	return fmt.Sprintf("%d.%07d%%", uint32(p)/10_000_000, uint32(p)%10_000_000)
}

// Percent is a whole percentage in [0, 100].
type Percent uint8

// IsValid reports whether the percentage is no greater than 100.
func (p Percent) IsValid() bool {
	return p <= 100
}

// MulFloor returns floor(x * p / 100).
func (p Percent) MulFloor(x *big.Int) *big.Int {
	return PerbillFromPercent(uint32(p)).MulFloor(x)
}

func (p Percent) String() string {
	return fmt.Sprintf("%d%%", uint8(p))
}

// MulDiv returns floor(x * y / z). It panics if z is zero.
func MulDiv(x, y, z *big.Int) *big.Int {
	r := new(big.Int).Mul(x, y)
	return r.Quo(r, z)
}
