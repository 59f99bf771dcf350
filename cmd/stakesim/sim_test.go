// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/collator-staking/api"
	"github.com/vechain/collator-staking/genesis"
	"github.com/vechain/collator-staking/logdb"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/test"
)

func newTestSimulator(t *testing.T, db *lvldb.LevelDB, logDB *logdb.LogDB, seed uint64) *Simulator {
	sim, err := NewSimulator(db, logDB, genesis.NewDevnet(), Options{
		OpsPerBlock:     5,
		Seed:            seed,
		CheckInvariants: true,
	})
	require.NoError(t, err)
	return sim
}

func newMemLogDB(t *testing.T) *logdb.LogDB {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func countEvents(t *testing.T, db *logdb.LogDB, kind string) int {
	events, err := db.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Kind: &kind}},
	})
	require.NoError(t, err)
	return len(events)
}

func total(counts map[string]uint64) uint64 {
	var n uint64
	for _, v := range counts {
		n += v
	}
	return n
}

func TestSimulatorRun(t *testing.T) {
	logDB := newMemLogDB(t)
	sim := newTestSimulator(t, lvldb.NewMem(), logDB, 42)
	assert.Equal(t, uint64(0), sim.Head())

	var produced []uint64
	require.NoError(t, sim.Run(context.Background(), 100, 0, func(num uint64) {
		produced = append(produced, num)
	}))
	assert.Equal(t, uint64(100), sim.Head())
	require.Len(t, produced, 100)
	assert.Equal(t, uint64(1), produced[0])
	assert.Equal(t, uint64(100), produced[99])

	stk := sim.View()
	require.NoError(t, stk.CheckInvariants())
	rnd, err := stk.Round()
	require.NoError(t, err)
	assert.Equal(t, uint32(6), rnd.Current)
	assert.Equal(t, uint64(100), rnd.First)

	// one at genesis plus one per transition
	assert.Equal(t, 6, countEvents(t, logDB, "NewRound"))
	assert.Positive(t, countEvents(t, logDB, "Rewarded"))

	stats := sim.Stats()
	assert.Equal(t, uint64(500), total(stats.Applied)+total(stats.Refused)+total(stats.Skipped))
	assert.Positive(t, stats.Applied["delegate"])

	newest, ok, err := logDB.NewestBlockNum()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.LessOrEqual(t, newest, uint32(100))
}

func TestSimulatorDeterministic(t *testing.T) {
	run := func(seed uint64) (Stats, *big.Int) {
		sim := newTestSimulator(t, lvldb.NewMem(), newMemLogDB(t), seed)
		for range 60 {
			_, err := sim.Step()
			require.NoError(t, err)
		}
		locked, err := sim.View().TotalLocked()
		require.NoError(t, err)
		return sim.Stats(), locked
	}

	stats1, locked1 := run(7)
	stats2, locked2 := run(7)
	assert.Equal(t, stats1, stats2)
	assert.Equal(t, 0, locked1.Cmp(locked2))
}

func TestSimulatorResume(t *testing.T) {
	db := lvldb.NewMem()
	logDB := newMemLogDB(t)

	sim := newTestSimulator(t, db, logDB, 1)
	for range 25 {
		_, err := sim.Step()
		require.NoError(t, err)
	}
	locked, err := sim.View().TotalLocked()
	require.NoError(t, err)

	resumed := newTestSimulator(t, db, logDB, 2)
	assert.Equal(t, uint64(25), resumed.Head())

	resumedLocked, err := resumed.View().TotalLocked()
	require.NoError(t, err)
	assert.Equal(t, 0, locked.Cmp(resumedLocked))
	// genesis is not rebuilt
	assert.Equal(t, 2, countEvents(t, logDB, "NewRound"))

	num, err := resumed.Step()
	require.NoError(t, err)
	assert.Equal(t, uint64(26), num)
}

func TestSimulatorCancel(t *testing.T) {
	sim := newTestSimulator(t, lvldb.NewMem(), newMemLogDB(t), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sim.Run(ctx, 0, time.Millisecond, nil))
	assert.Equal(t, uint64(0), sim.Head())
}

func TestStartServer(t *testing.T) {
	logDB := newMemLogDB(t)
	sim := newTestSimulator(t, lvldb.NewMem(), logDB, 1)
	gene := genesis.NewDevnet()

	ctx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(ctx)

	handler := api.New(sim.stater, gene.Config(), gene.ExistentialDeposit(), logDB, api.Options{EventsLimit: 10})
	url, err := startServer(groupCtx, group, "localhost:0", handler)
	require.NoError(t, err)

	group.Go(func() error {
		return sim.Run(groupCtx, 10, 0, nil)
	})

	err = test.Retry(ctx, func() error {
		res, err := http.Get(url + "/staking/round")
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return errors.Errorf("unexpected status %d", res.StatusCode)
		}
		return nil
	}, 10*time.Millisecond, 5*time.Second)
	require.NoError(t, err)

	cancel()
	require.NoError(t, group.Wait())
}

func TestDumpState(t *testing.T) {
	sim := newTestSimulator(t, lvldb.NewMem(), newMemLogDB(t), 1)
	for range 21 {
		_, err := sim.Step()
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, dumpState(&buf, sim))
	out := buf.String()
	assert.Contains(t, out, "Round: (uint32) 2")
	assert.Contains(t, out, "TotalLocked")
	assert.Contains(t, out, "LastSnapshot")
}
