// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/builtin/currency"
	"github.com/vechain/collator-staking/builtin/params"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/builtin/staker/reverts"
	"github.com/vechain/collator-staking/genesis"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/logdb"
	"github.com/vechain/collator-staking/metrics"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/test/datagen"
	"github.com/vechain/collator-staking/thor"
)

var (
	headKey = []byte("head")

	metricActions   = metrics.LazyLoadCounterVec("sim_actions_count", []string{"action", "result"})
	metricHeadBlock = metrics.LazyLoadGauge("sim_head_block")
)

// Stats counts the outcome of the random operations, keyed by action name.
type Stats struct {
	Applied map[string]uint64
	Refused map[string]uint64
	Skipped map[string]uint64
}

func newStats() Stats {
	return Stats{
		Applied: make(map[string]uint64),
		Refused: make(map[string]uint64),
		Skipped: make(map[string]uint64),
	}
}

// Options tunes the simulator.
type Options struct {
	OpsPerBlock     int
	Seed            uint64
	CheckInvariants bool
}

// Simulator produces blocks on top of the committed state. Each block runs the round driver, credits a random
// author from the selected set and attempts a number of random staking operations.
type Simulator struct {
	stater   *state.Stater
	meta     kv.Store
	config   *staker.Config
	ed       *big.Int
	writer   logdb.Writer
	rand     *datagen.Rand
	accounts []thor.Address
	opts     Options

	mu    sync.Mutex
	head  uint64
	stats Stats
}

// NewSimulator opens the chain kept in db. An empty db is initialised with the genesis first.
func NewSimulator(db kv.Store, logDB *logdb.LogDB, gene *genesis.Genesis, opts Options) (*Simulator, error) {
	sim := &Simulator{
		stater:   state.NewStater(db),
		meta:     kv.Bucket("m").NewStore(db),
		config:   gene.Config(),
		ed:       gene.ExistentialDeposit(),
		writer:   logDB.NewWriter(),
		rand:     datagen.NewRand(opts.Seed),
		accounts: gene.Accounts(),
		opts:     opts,
		stats:    newStats(),
	}
	if len(sim.accounts) == 0 {
		return nil, errors.New("genesis has no accounts")
	}

	head, ok, err := sim.loadHead()
	if err != nil {
		return nil, errors.Wrap(err, "load head")
	}
	if ok {
		sim.head = head
		// drop events of blocks whose state was never committed
		if err := sim.writer.Truncate(uint32(head + 1)); err != nil {
			return nil, errors.Wrap(err, "truncate log db")
		}
		logger.Info("resumed chain", "head", head)
		return sim, nil
	}

	events, err := gene.Build(sim.stater)
	if err != nil {
		return nil, errors.Wrap(err, "build genesis")
	}
	if err := sim.writer.Truncate(0); err != nil {
		return nil, errors.Wrap(err, "truncate log db")
	}
	if err := sim.writer.Write(0, toLogEvents(events)); err != nil {
		return nil, err
	}
	if err := sim.writer.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit log db")
	}
	if err := sim.saveHead(0); err != nil {
		return nil, errors.Wrap(err, "save head")
	}
	logger.Info("genesis built", "name", gene.Name(), "events", len(events))
	return sim, nil
}

func (s *Simulator) loadHead() (uint64, bool, error) {
	data, err := s.meta.Get(headKey)
	if err != nil {
		if s.meta.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if len(data) != 8 {
		return 0, false, errors.Errorf("malformed head: %x", data)
	}
	return binary.BigEndian.Uint64(data), true, nil
}

func (s *Simulator) saveHead(head uint64) error {
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], head)
	return s.meta.Put(headKey, data[:])
}

// Head returns the number of the last committed block.
func (s *Simulator) Head() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head
}

// Stats returns a copy of the operation counters.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	cpy := newStats()
	for k, v := range s.stats.Applied {
		cpy.Applied[k] = v
	}
	for k, v := range s.stats.Refused {
		cpy.Refused[k] = v
	}
	for k, v := range s.stats.Skipped {
		cpy.Skipped[k] = v
	}
	return cpy
}

// View returns a read-only staker over the committed state.
func (s *Simulator) View() *staker.Staker {
	stk, _ := s.newStaker()
	return stk
}

func (s *Simulator) newStaker() (*staker.Staker, *state.State) {
	st := s.stater.NewState()
	ledger := currency.New(thor.CurrencyAddress, st, s.ed)
	return staker.New(thor.StakerAddress, st, params.New(thor.ParamsAddress, st), ledger, s.config), st
}

// Run produces blocks until n blocks are done, or forever if n is zero. onBlock is called after every commit.
func (s *Simulator) Run(ctx context.Context, n uint64, interval time.Duration, onBlock func(num uint64)) error {
	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	for i := uint64(0); n == 0 || i < n; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		num, err := s.Step()
		if err != nil {
			return err
		}
		if onBlock != nil {
			onBlock(num)
		}
	}
	return nil
}

// Step produces and commits the next block.
func (s *Simulator) Step() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	num := s.head + 1
	stk, st := s.newStaker()

	if err := stk.OnInitialize(num); err != nil {
		return 0, errors.Wrapf(err, "initialize block %d", num)
	}

	selected, err := stk.SelectedCandidates()
	if err != nil {
		return 0, err
	}
	if len(selected) > 0 {
		if err := stk.NoteAuthor(datagen.Pick(s.rand, selected)); err != nil {
			return 0, errors.Wrapf(err, "note author of block %d", num)
		}
	}

	for range s.opts.OpsPerBlock {
		if err := s.randomOp(stk); err != nil {
			return 0, errors.Wrapf(err, "block %d", num)
		}
	}

	if s.opts.CheckInvariants {
		if err := stk.CheckInvariants(); err != nil {
			return 0, errors.Wrapf(err, "invariants broken at block %d", num)
		}
	}

	events := stk.DrainEvents()
	if err := s.writer.Write(uint32(num), toLogEvents(events)); err != nil {
		s.writer.Rollback()
		return 0, err
	}

	stage := st.Stage()
	if err := stage.Commit(); err != nil {
		s.writer.Rollback()
		return 0, errors.Wrap(err, "commit state")
	}
	if err := s.writer.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit log db")
	}
	if err := s.saveHead(num); err != nil {
		return 0, errors.Wrap(err, "save head")
	}
	s.head = num
	metricHeadBlock().Set(int64(num))

	logger.Debug("block committed", "num", num, "events", len(events), "changes", stage.Len(), "hash", stage.Hash())
	return num, nil
}

func (s *Simulator) randomOp(stk *staker.Staker) error {
	act := s.pickAction()
	err := act.do(s, stk)

	result := "applied"
	switch {
	case err == nil:
		s.stats.Applied[act.name]++
	case errors.Is(err, errSkip):
		result = "skipped"
		s.stats.Skipped[act.name]++
	case reverts.IsRevertErr(err):
		result = "refused"
		s.stats.Refused[act.name]++
		logger.Trace("operation refused", "action", act.name, "err", err)
	default:
		return errors.Wrap(err, act.name)
	}
	metricActions().AddWithLabel(1, map[string]string{"action": act.name, "result": result})
	return nil
}

func (s *Simulator) pickAction() *action {
	total := 0
	for i := range actions {
		total += actions[i].weight
	}
	n := s.rand.IntN(total)
	for i := range actions {
		if n < actions[i].weight {
			return &actions[i]
		}
		n -= actions[i].weight
	}
	return &actions[len(actions)-1]
}

func toLogEvents(events []*staker.Event) []*logdb.Event {
	res := make([]*logdb.Event, 0, len(events))
	for _, ev := range events {
		res = append(res, &logdb.Event{
			Round:   ev.Round,
			Kind:    string(ev.Kind),
			Account: ev.Account,
			Target:  ev.Target,
			Amount:  ev.Amount,
		})
	}
	return res
}
