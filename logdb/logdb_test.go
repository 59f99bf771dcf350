// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/logdb"
	"github.com/vechain/collator-staking/thor"
)

var (
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
)

func newEvents(round uint32) []*logdb.Event {
	return []*logdb.Event{
		{Round: round, Kind: "NewRound", Amount: big.NewInt(900)},
		{Round: round, Kind: logdb.RewardKind, Account: alice, Target: alice, Amount: big.NewInt(10)},
		{Round: round, Kind: logdb.RewardKind, Account: bob, Target: alice, Amount: big.NewInt(3)},
		{Round: round, Kind: "CandidateWentOffline", Account: bob, Target: bob},
	}
}

func newTestDB(t *testing.T) *logdb.LogDB {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWriteAndFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, ok, err := db.NewestBlockNum()
	require.NoError(t, err)
	assert.False(t, ok)

	w := db.NewWriter()
	for block := uint32(1); block <= 10; block++ {
		require.NoError(t, w.Write(block, newEvents(block/5+1)))
	}
	assert.Equal(t, 40, w.UncommittedCount())
	require.NoError(t, w.Commit())
	assert.Equal(t, 0, w.UncommittedCount())

	newest, ok, err := db.NewestBlockNum()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(10), newest)

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 40)
	assert.Equal(t, uint32(1), all[0].BlockNumber)
	assert.Equal(t, uint32(0), all[0].Index)
	assert.Equal(t, uint32(3), all[3].Index)
	assert.Nil(t, all[3].Amount)

	kind := logdb.RewardKind
	tests := []struct {
		name   string
		filter *logdb.EventFilter
		want   int
	}{
		{"by kind", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Kind: &kind}}}, 20},
		{"by account", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Account: &bob}}}, 20},
		{"kind and account", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Kind: &kind, Account: &bob}}}, 10},
		{"any of", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Account: &alice}, {Target: &bob}}}, 20},
		{"block range", &logdb.EventFilter{Range: &logdb.Range{From: 2, To: 4}}, 12},
		{"open block range", &logdb.EventFilter{Range: &logdb.Range{From: 9}}, 8},
		{"round range", &logdb.EventFilter{Rounds: &logdb.Range{From: 2, To: 2}}, 20},
		{"paged", &logdb.EventFilter{Options: &logdb.Options{Offset: 38, Limit: 10}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
		})
	}

	desc, err := db.FilterEvents(ctx, &logdb.EventFilter{Order: logdb.DESC, Options: &logdb.Options{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, desc, 1)
	assert.Equal(t, uint32(10), desc[0].BlockNumber)
	assert.Equal(t, uint32(3), desc[0].Index)
}

func TestSumRewards(t *testing.T) {
	db := newTestDB(t)

	w := db.NewWriter()
	for block := uint32(1); block <= 3; block++ {
		require.NoError(t, w.Write(block, newEvents(1)))
	}
	require.NoError(t, w.Commit())

	sum, err := db.SumRewards(context.Background(), alice, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Cmp(big.NewInt(30)))

	sum, err = db.SumRewards(context.Background(), bob, &logdb.Range{From: 2, To: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Cmp(big.NewInt(3)))
}

func TestRollbackAndTruncate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := db.NewWriter()
	require.NoError(t, w.Write(1, newEvents(1)))
	require.NoError(t, w.Rollback())
	events, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	for block := uint32(1); block <= 5; block++ {
		require.NoError(t, w.Write(block, newEvents(1)))
	}
	require.NoError(t, w.Commit())
	require.NoError(t, w.Truncate(3))

	newest, ok, err := db.NewestBlockNum()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), newest)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := logdb.New(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())

	w := db.NewWriter()
	require.NoError(t, w.Write(7, newEvents(2)))
	require.NoError(t, w.Commit())
	require.NoError(t, db.Close())

	db, err = logdb.New(path)
	require.NoError(t, err)
	defer db.Close()
	newest, ok, err := db.NewestBlockNum()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(7), newest)
}
