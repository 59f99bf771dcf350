// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"math/big"
	mathrand "math/rand/v2"
)

func RandInt() int {
	return mathrand.Int() //#nosec G404
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

// RandAmount returns a uniform amount in [min, max].
func RandAmount(min, max *big.Int) *big.Int {
	span := new(big.Int).Sub(max, min)
	if span.Sign() <= 0 {
		return new(big.Int).Set(min)
	}
	span.Add(span, big.NewInt(1))
	if span.IsInt64() {
		return span.SetInt64(mathrand.Int64N(span.Int64())).Add(span, min) //#nosec G404
	}
	// wide ranges are scaled from a 63 bit draw
	r := new(big.Int).Mul(span, big.NewInt(mathrand.Int64())) //#nosec G404
	r.Rsh(r, 63)
	return r.Add(r, min)
}

// Rand is a seeded source for reproducible data.
type Rand struct {
	*mathrand.Rand
}

func NewRand(seed uint64) *Rand {
	return &Rand{mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //#nosec G404
}

// Amount returns a uniform amount in [min, max] drawn from the seeded source.
func (r *Rand) Amount(min, max *big.Int) *big.Int {
	span := new(big.Int).Sub(max, min)
	if span.Sign() <= 0 {
		return new(big.Int).Set(min)
	}
	span.Add(span, big.NewInt(1))
	if span.IsInt64() {
		return span.SetInt64(r.Int64N(span.Int64())).Add(span, min)
	}
	v := new(big.Int).Mul(span, big.NewInt(r.Int64()))
	v.Rsh(v, 63)
	return v.Add(v, min)
}

// Pick returns a random element of the slice.
func Pick[T any](r *Rand, items []T) T {
	return items[r.IntN(len(items))]
}
