// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

func TestParamsGetSet(t *testing.T) {
	st := state.NewStater(lvldb.NewMem()).NewState()
	setv := big.NewInt(10)
	key := thor.BytesToBytes32([]byte("key"))
	p := New(thor.BytesToAddress([]byte("par")), st)

	getv, err := p.Get(key)
	require.NoError(t, err)
	assert.Equal(t, 0, getv.Sign())

	require.NoError(t, p.Set(key, setv))
	getv, err = p.Get(key)
	require.NoError(t, err)
	assert.Equal(t, setv, getv)

	require.NoError(t, p.Set(key, new(big.Int)))
	getv, _ = p.Get(key)
	assert.Equal(t, 0, getv.Sign())
}

func TestParamsAddress(t *testing.T) {
	st := state.NewStater(lvldb.NewMem()).NewState()
	p := New(thor.ParamsAddress, st)

	got, err := p.GetAddress(thor.KeyParachainBondAccount)
	require.NoError(t, err)
	assert.Nil(t, got)

	addr := thor.BytesToAddress([]byte("reserve"))
	require.NoError(t, p.SetAddress(thor.KeyParachainBondAccount, &addr))
	got, err = p.GetAddress(thor.KeyParachainBondAccount)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, addr, *got)

	require.NoError(t, p.SetAddress(thor.KeyParachainBondAccount, nil))
	got, _ = p.GetAddress(thor.KeyParachainBondAccount)
	assert.Nil(t, got)
}
