// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

const (
	SecondsPerYear uint64 = 31557600 // 365.25 days
	BlockInterval  uint64 = 12       // seconds

	// PointsPerBlock is the number of reward points awarded to the author of a block.
	PointsPerBlock uint32 = 20
)

// Storage addresses of the builtin modules. Every module keeps its slots under its own address.
var (
	StakerAddress   = BytesToAddress([]byte("collator-staker"))
	ParamsAddress   = BytesToAddress([]byte("staking-params"))
	CurrencyAddress = BytesToAddress([]byte("currency"))
)

// Keys of the privileged staking parameters held by the params module.
var (
	KeyTotalSelected        = BytesToBytes32([]byte("total-selected"))
	KeyCollatorCommission   = BytesToBytes32([]byte("collator-commission"))
	KeyBlocksPerRound       = BytesToBytes32([]byte("blocks-per-round"))
	KeyParachainBondAccount = BytesToBytes32([]byte("parachain-bond-account"))
	KeyParachainBondPercent = BytesToBytes32([]byte("parachain-bond-percent"))
	KeyExpectMin            = BytesToBytes32([]byte("expect-min"))
	KeyExpectIdeal          = BytesToBytes32([]byte("expect-ideal"))
	KeyExpectMax            = BytesToBytes32([]byte("expect-max"))
	KeyAnnualMin            = BytesToBytes32([]byte("annual-min"))
	KeyAnnualIdeal          = BytesToBytes32([]byte("annual-ideal"))
	KeyAnnualMax            = BytesToBytes32([]byte("annual-max"))
)

// BlocksPerYear is the number of blocks produced in a julian year.
func BlocksPerYear() uint64 {
	return SecondsPerYear / BlockInterval
}
