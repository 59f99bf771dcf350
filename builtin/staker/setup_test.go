// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/builtin/currency"
	"github.com/vechain/collator-staking/builtin/params"
	"github.com/vechain/collator-staking/builtin/staker/candidate"
	"github.com/vechain/collator-staking/builtin/staker/round"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

// M builds an amount.
func M(v int64) *big.Int {
	return big.NewInt(v)
}

func addr(name string) thor.Address {
	return thor.BytesToAddress([]byte(name))
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.MaxTopDelegationsPerCandidate = 2
	cfg.MaxBottomDelegationsPerCandidate = 2
	cfg.MaxDelegationsPerDelegator = 3
	cfg.MinCandidateStk = M(100)
	cfg.MinDelegatorStk = M(10)
	cfg.MinDelegation = M(5)
	cfg.BlocksPerYear = 1000
	return cfg
}

func testGenesis() *Genesis {
	return &Genesis{
		BlocksPerRound:     5,
		TotalSelected:      2,
		CollatorCommission: thor.PerbillFromPercent(20),
		Inflation: round.InflationConfig{
			Expect: round.Range[*big.Int]{Min: M(100), Ideal: M(500), Max: M(1000)},
			Annual: round.Range[thor.Perbill]{
				Min:   thor.PerbillFromPercent(4),
				Ideal: thor.PerbillFromPercent(5),
				Max:   thor.PerbillFromPercent(6),
			},
		},
	}
}

type testEnv struct {
	staker *Staker
	ledger *currency.Ledger
	state  *state.State
	block  uint64
}

// newRawStaker builds a staker over an in-memory state and funds the accounts. No genesis is applied.
func newRawStaker(t *testing.T, funded ...thor.Address) *testEnv {
	return newRawStakerWithConfig(t, testConfig(), funded...)
}

func newRawStakerWithConfig(t *testing.T, cfg *Config, funded ...thor.Address) *testEnv {
	st := state.NewStater(lvldb.NewMem()).NewState()
	ledger := currency.New(thor.CurrencyAddress, st, M(1))
	for _, acc := range funded {
		require.NoError(t, ledger.Mint(acc, M(10_000)))
	}

	s := New(thor.StakerAddress, st, params.New(thor.ParamsAddress, st), ledger, cfg)
	return &testEnv{staker: s, ledger: ledger, state: st}
}

// newTestStaker is newRawStaker with the genesis applied at block 0.
func newTestStaker(t *testing.T, cfg *Config, g *Genesis, funded ...thor.Address) *testEnv {
	if cfg == nil {
		cfg = testConfig()
	}
	if g == nil {
		g = testGenesis()
	}
	env := newRawStakerWithConfig(t, cfg, funded...)
	require.NoError(t, env.staker.InitGenesis(g, 0))
	require.NoError(t, env.staker.CheckInvariants())
	env.staker.DrainEvents()
	return env
}

func (env *testEnv) balance(t *testing.T, acc thor.Address) *big.Int {
	bal, err := env.ledger.FreeBalance(acc)
	require.NoError(t, err)
	return bal
}

func (env *testEnv) currentRound(t *testing.T) uint32 {
	r, err := env.staker.Round()
	require.NoError(t, err)
	return r.Current
}

// nextRound drives blocks up to and including the first block of the next round.
func (env *testEnv) nextRound(t *testing.T) {
	r, err := env.staker.Round()
	require.NoError(t, err)
	target := r.First + uint64(r.Length)
	for env.block < target {
		env.block++
		require.NoError(t, env.staker.OnInitialize(env.block))
	}
	require.NoError(t, env.staker.CheckInvariants())
}

// advanceTo moves forward until the given round has started.
func (env *testEnv) advanceTo(t *testing.T, target uint32) {
	for env.currentRound(t) < target {
		env.nextRound(t)
	}
}

type TestFunc func(t *testing.T)

// TestSequence runs steps in order and checks the engine invariants after each one.
type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Join(acc thor.Address, bond *big.Int) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		size, err := st.env.staker.candidates.PoolSize()
		require.NoError(t, err)
		if err := st.env.staker.JoinCandidates(acc, bond, size); err != nil {
			t.Fatalf("failed to join candidate %s: %v", acc, err)
		}
		t.Logf("joined candidate %s", acc)
	})
}

func (st *TestSequence) Delegate(delegator, candidateAddr thor.Address, amount *big.Int) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Delegate(delegator, candidateAddr, amount, 100, 100); err != nil {
			t.Fatalf("failed to delegate %s -> %s: %v", delegator, candidateAddr, err)
		}
		t.Logf("delegated %s from %s to %s", amount, delegator, candidateAddr)
	})
}

func (st *TestSequence) Author(acc thor.Address, blocks int) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		for range blocks {
			require.NoError(t, st.env.staker.NoteAuthor(acc))
		}
	})
}

func (st *TestSequence) NextRound() *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.env.nextRound(t)
		t.Logf("round %d started at block %d", st.env.currentRound(t), st.env.block)
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
		require.NoError(t, st.env.staker.CheckInvariants())
	}
}

type CandidateAssertions struct {
	staker *Staker
	addr   thor.Address

	status       *candidate.Status
	bond         *big.Int
	totalCounted *big.Int
	totalBond    *big.Int
	count        *uint32
}

func AssertCandidate(staker *Staker, addr thor.Address) *CandidateAssertions {
	return &CandidateAssertions{staker: staker, addr: addr}
}

func (ca *CandidateAssertions) Status(expected candidate.Status) *CandidateAssertions {
	ca.status = &expected
	return ca
}

func (ca *CandidateAssertions) Bond(expected *big.Int) *CandidateAssertions {
	ca.bond = expected
	return ca
}

func (ca *CandidateAssertions) TotalCounted(expected *big.Int) *CandidateAssertions {
	ca.totalCounted = expected
	return ca
}

func (ca *CandidateAssertions) TotalBond(expected *big.Int) *CandidateAssertions {
	ca.totalBond = expected
	return ca
}

func (ca *CandidateAssertions) DelegationCount(expected uint32) *CandidateAssertions {
	ca.count = &expected
	return ca
}

func (ca *CandidateAssertions) Assert(t *testing.T) {
	c, err := ca.staker.Candidate(ca.addr)
	require.NoError(t, err, "failed to get candidate %s", ca.addr)
	require.NotNil(t, c, "candidate %s not found", ca.addr)

	if ca.status != nil {
		assert.Equal(t, *ca.status, c.Status, "candidate %s status mismatch", ca.addr)
	}
	if ca.bond != nil {
		assert.Equal(t, 0, ca.bond.Cmp(c.Bond), "candidate %s bond mismatch: %v", ca.addr, c.Bond)
	}
	if ca.totalCounted != nil {
		assert.Equal(t, 0, ca.totalCounted.Cmp(c.TotalCounted), "candidate %s counted mismatch: %v", ca.addr, c.TotalCounted)
	}
	if ca.totalBond != nil {
		assert.Equal(t, 0, ca.totalBond.Cmp(c.TotalBond), "candidate %s total bond mismatch: %v", ca.addr, c.TotalBond)
	}
	if ca.count != nil {
		assert.Equal(t, *ca.count, c.DelegationCount, "candidate %s delegation count mismatch", ca.addr)
	}
}

type DelegatorAssertions struct {
	staker *Staker
	addr   thor.Address

	total       *big.Int
	lessTotal   *big.Int
	delegations map[thor.Address]*big.Int
}

func AssertDelegator(staker *Staker, addr thor.Address) *DelegatorAssertions {
	return &DelegatorAssertions{staker: staker, addr: addr, delegations: make(map[thor.Address]*big.Int)}
}

func (da *DelegatorAssertions) Total(expected *big.Int) *DelegatorAssertions {
	da.total = expected
	return da
}

func (da *DelegatorAssertions) LessTotal(expected *big.Int) *DelegatorAssertions {
	da.lessTotal = expected
	return da
}

func (da *DelegatorAssertions) Delegation(candidateAddr thor.Address, expected *big.Int) *DelegatorAssertions {
	da.delegations[candidateAddr] = expected
	return da
}

func (da *DelegatorAssertions) Assert(t *testing.T) {
	d, err := da.staker.Delegator(da.addr)
	require.NoError(t, err, "failed to get delegator %s", da.addr)
	require.NotNil(t, d, "delegator %s not found", da.addr)

	if da.total != nil {
		assert.Equal(t, 0, da.total.Cmp(d.Total), "delegator %s total mismatch: %v", da.addr, d.Total)
	}
	if da.lessTotal != nil {
		assert.Equal(t, 0, da.lessTotal.Cmp(d.LessTotal), "delegator %s less total mismatch: %v", da.addr, d.LessTotal)
	}
	for c, expected := range da.delegations {
		amount, ok := d.Get(c)
		if assert.True(t, ok, "delegator %s has no delegation to %s", da.addr, c) {
			assert.Equal(t, 0, expected.Cmp(amount), "delegator %s delegation to %s mismatch: %v", da.addr, c, amount)
		}
	}
}
