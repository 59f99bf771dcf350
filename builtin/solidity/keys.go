// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"

	"github.com/vechain/collator-staking/thor"
)

// Uint32Key is a mapping key for numbers, such as rounds.
type Uint32Key uint32

func (k Uint32Key) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(k))
}

// RoundAddressKey keys per-round, per-account records.
type RoundAddressKey struct {
	Round   uint32
	Address thor.Address
}

func (k RoundAddressKey) Bytes() []byte {
	return append(binary.BigEndian.AppendUint32(nil, k.Round), k.Address.Bytes()...)
}
