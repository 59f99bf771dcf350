// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package currency

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/solidity"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

var (
	slotBalances      = thor.BytesToBytes32([]byte("balances"))
	slotTotalIssuance = thor.BytesToBytes32([]byte("total-issuance"))
)

// ErrInsufficientBalance is returned when a debit would take the account below its existential deposit.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger keeps account balances and the total issuance in state, so balance changes revert together with the
// rest of a checkpointed operation.
type Ledger struct {
	balances           *solidity.Mapping[thor.Address, *big.Int]
	issuance           *solidity.Uint256
	existentialDeposit *big.Int
}

func New(addr thor.Address, state *state.State, existentialDeposit *big.Int) *Ledger {
	sctx := solidity.NewContext(addr, state)
	return &Ledger{
		balances:           solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		issuance:           solidity.NewUint256(sctx, slotTotalIssuance),
		existentialDeposit: new(big.Int).Set(existentialDeposit),
	}
}

func (l *Ledger) ExistentialDeposit() *big.Int {
	return new(big.Int).Set(l.existentialDeposit)
}

func (l *Ledger) FreeBalance(addr thor.Address) (*big.Int, error) {
	bal, err := l.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	if bal == nil {
		return new(big.Int), nil
	}
	return bal, nil
}

// ReducibleBalance is the part of the free balance that can leave the account while keeping it alive.
func (l *Ledger) ReducibleBalance(addr thor.Address) (*big.Int, error) {
	free, err := l.FreeBalance(addr)
	if err != nil {
		return nil, err
	}
	if free.Sub(free, l.existentialDeposit).Sign() < 0 {
		return new(big.Int), nil
	}
	return free, nil
}

func (l *Ledger) Debit(addr thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.Errorf("negative debit %v", amount)
	}
	reducible, err := l.ReducibleBalance(addr)
	if err != nil {
		return err
	}
	if reducible.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "debit %v from %v", amount, addr)
	}
	free, err := l.FreeBalance(addr)
	if err != nil {
		return err
	}
	return l.setBalance(addr, free.Sub(free, amount))
}

func (l *Ledger) Credit(addr thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.Errorf("negative credit %v", amount)
	}
	free, err := l.FreeBalance(addr)
	if err != nil {
		return err
	}
	return l.setBalance(addr, free.Add(free, amount))
}

// Issue raises the total issuance. The minted amount is expected to be credited to an account.
func (l *Ledger) Issue(amount *big.Int) error {
	return l.issuance.Add(amount)
}

// Mint issues and credits in one step.
func (l *Ledger) Mint(addr thor.Address, amount *big.Int) error {
	if err := l.Issue(amount); err != nil {
		return err
	}
	return l.Credit(addr, amount)
}

func (l *Ledger) TotalIssuance() (*big.Int, error) {
	return l.issuance.Get()
}

func (l *Ledger) setBalance(addr thor.Address, bal *big.Int) error {
	if bal.Sign() == 0 {
		l.balances.Delete(addr)
		return nil
	}
	return l.balances.Set(addr, bal)
}
