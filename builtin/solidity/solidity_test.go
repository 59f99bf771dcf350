// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

type TestStruct struct {
	Field1 uint64
	Amount *big.Int
	Addr1  thor.Address
}

// newTestContext returns a fresh Context with in-memory DB.
func newTestContext() *Context {
	st := state.NewStater(lvldb.NewMem()).NewState()
	return NewContext(thor.Address{1}, st)
}

func TestMapping(t *testing.T) {
	ctx := newTestContext()
	mapping := NewMapping[thor.Address, *TestStruct](ctx, thor.Bytes32{1})
	key := thor.BytesToAddress([]byte("key"))

	v, err := mapping.Get(key)
	require.NoError(t, err)
	assert.Nil(t, v)

	exists, err := mapping.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)

	value := &TestStruct{Field1: 7, Amount: big.NewInt(100), Addr1: thor.Address{9}}
	require.NoError(t, mapping.Set(key, value))

	v, err = mapping.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, v)

	exists, err = mapping.Exists(key)
	require.NoError(t, err)
	assert.True(t, exists)

	mapping.Delete(key)
	v, err = mapping.Get(key)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestMappingSeparatesPositions(t *testing.T) {
	ctx := newTestContext()
	a := NewMapping[Uint32Key, uint64](ctx, thor.Bytes32{1})
	b := NewMapping[Uint32Key, uint64](ctx, thor.Bytes32{2})

	require.NoError(t, a.Set(1, 10))
	require.NoError(t, b.Set(1, 20))

	va, _ := a.Get(1)
	vb, _ := b.Get(1)
	assert.Equal(t, uint64(10), va)
	assert.Equal(t, uint64(20), vb)

	v, _ := a.Get(2)
	assert.Equal(t, uint64(0), v)
}

func TestRaw(t *testing.T) {
	ctx := newTestContext()
	raw := NewRaw[[]thor.Address](ctx, thor.Bytes32{3})

	v, err := raw.Get()
	require.NoError(t, err)
	assert.Empty(t, v)

	list := []thor.Address{{1}, {2}}
	require.NoError(t, raw.Set(list))
	v, err = raw.Get()
	require.NoError(t, err)
	assert.Equal(t, list, v)

	raw.Clear()
	v, _ = raw.Get()
	assert.Empty(t, v)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext()
	u := NewUint256(ctx, thor.Bytes32{4})

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(40)))
	v, _ = u.Get()
	assert.Equal(t, big.NewInt(60), v)

	assert.Error(t, u.Sub(big.NewInt(61)))
	v, _ = u.Get()
	assert.Equal(t, big.NewInt(60), v)

	require.NoError(t, u.Sub(big.NewInt(60)))
	exists, _ := ctx.State().GetRawStorage(ctx.Address(), thor.Bytes32{4})
	assert.Empty(t, exists)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 1, 0}, Uint32Key(256).Bytes())

	k := RoundAddressKey{Round: 1, Address: thor.Address{0xff}}
	assert.Len(t, k.Bytes(), 4+thor.AddressLength)
	assert.Equal(t, byte(1), k.Bytes()[3])
	assert.Equal(t, byte(0xff), k.Bytes()[4])
}
