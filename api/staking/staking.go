// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/api/utils"
	"github.com/vechain/collator-staking/builtin/currency"
	"github.com/vechain/collator-staking/builtin/params"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/logdb"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

// Staking serves read-only views of the committed staking state and its event history.
type Staking struct {
	stater *state.Stater
	cfg    *staker.Config
	ed     *big.Int
	db     logdb.Reader
	limit  uint64
}

func New(stater *state.Stater, cfg *staker.Config, existentialDeposit *big.Int, db logdb.Reader, eventsLimit uint64) *Staking {
	return &Staking{
		stater: stater,
		cfg:    cfg,
		ed:     existentialDeposit,
		db:     db,
		limit:  eventsLimit,
	}
}

// view opens the committed state. Every request gets its own engine instance.
func (s *Staking) view() (*staker.Staker, *currency.Ledger) {
	st := s.stater.NewState()
	ledger := currency.New(thor.CurrencyAddress, st, s.ed)
	return staker.New(thor.StakerAddress, st, params.New(thor.ParamsAddress, st), ledger, s.cfg), ledger
}

func addressVar(req *http.Request) (thor.Address, error) {
	return utils.ParseAddress("address", mux.Vars(req)["address"])
}

func (s *Staking) handleGetRound(w http.ResponseWriter, _ *http.Request) error {
	stk, _ := s.view()
	r, err := stk.Round()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertRound(r))
}

func (s *Staking) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	stk, _ := s.view()

	res := convertConfig(stk.Config())
	var err error
	if res.TotalSelected, err = stk.TotalSelected(); err != nil {
		return err
	}
	if res.CollatorCommission, err = stk.CollatorCommission(); err != nil {
		return err
	}
	if res.ParachainBond.Account, res.ParachainBond.Percent, err = stk.ParachainBond(); err != nil {
		return err
	}
	inflation, err := stk.InflationConfig()
	if err != nil {
		return err
	}
	res.Inflation = convertInflation(inflation)

	r, err := stk.Round()
	if err != nil {
		return err
	}
	res.BlocksPerRound = r.Length

	locked, err := stk.TotalLocked()
	if err != nil {
		return err
	}
	res.TotalLocked = amount(locked)

	return utils.WriteJSON(w, res)
}

func selectedSet(stk *staker.Staker) (map[thor.Address]bool, error) {
	selected, err := stk.SelectedCandidates()
	if err != nil {
		return nil, err
	}
	set := make(map[thor.Address]bool, len(selected))
	for _, addr := range selected {
		set[addr] = true
	}
	return set, nil
}

func (s *Staking) handleGetCandidates(w http.ResponseWriter, _ *http.Request) error {
	stk, _ := s.view()
	addrs, err := stk.Candidates()
	if err != nil {
		return err
	}
	selected, err := selectedSet(stk)
	if err != nil {
		return err
	}

	res := make([]*Candidate, 0, len(addrs))
	for _, addr := range addrs {
		c, err := stk.Candidate(addr)
		if err != nil {
			return err
		}
		if c == nil {
			continue
		}
		res = append(res, convertCandidate(addr, c, selected[addr]))
	}
	return utils.WriteJSON(w, res)
}

func (s *Staking) handleGetCandidatePool(w http.ResponseWriter, _ *http.Request) error {
	stk, _ := s.view()
	pool, err := stk.CandidatePool()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertBonds(pool))
}

func (s *Staking) handleGetSelected(w http.ResponseWriter, _ *http.Request) error {
	stk, _ := s.view()
	selected, err := stk.SelectedCandidates()
	if err != nil {
		return err
	}
	if selected == nil {
		selected = []thor.Address{}
	}
	return utils.WriteJSON(w, selected)
}

func (s *Staking) handleGetCandidate(w http.ResponseWriter, req *http.Request) error {
	addr, err := addressVar(req)
	if err != nil {
		return err
	}
	stk, _ := s.view()
	c, err := stk.Candidate(addr)
	if err != nil {
		return err
	}
	if c == nil {
		return utils.NotFound(errors.New("candidate not found"))
	}
	selected, err := selectedSet(stk)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertCandidate(addr, c, selected[addr]))
}

func (s *Staking) handleGetCandidateDelegations(w http.ResponseWriter, req *http.Request) error {
	addr, err := addressVar(req)
	if err != nil {
		return err
	}
	stk, _ := s.view()
	c, err := stk.Candidate(addr)
	if err != nil {
		return err
	}
	if c == nil {
		return utils.NotFound(errors.New("candidate not found"))
	}
	lists, err := stk.Delegations(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertLists(lists))
}

func (s *Staking) handleGetCandidateRequests(w http.ResponseWriter, req *http.Request) error {
	addr, err := addressVar(req)
	if err != nil {
		return err
	}
	stk, _ := s.view()
	reqs, err := stk.DelegationRequests(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertRequests(reqs))
}

func (s *Staking) handleGetDelegator(w http.ResponseWriter, req *http.Request) error {
	addr, err := addressVar(req)
	if err != nil {
		return err
	}
	stk, _ := s.view()
	d, err := stk.Delegator(addr)
	if err != nil {
		return err
	}
	if d == nil {
		return utils.NotFound(errors.New("delegator not found"))
	}
	return utils.WriteJSON(w, convertDelegator(addr, d))
}

func roundVar(req *http.Request) (uint32, error) {
	n, err := strconv.ParseUint(mux.Vars(req)["round"], 10, 32)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "round"))
	}
	return uint32(n), nil
}

func (s *Staking) handleGetRoundInfo(w http.ResponseWriter, req *http.Request) error {
	n, err := roundVar(req)
	if err != nil {
		return err
	}
	stk, _ := s.view()

	staked, err := stk.Staked(n)
	if err != nil {
		return err
	}
	points, err := stk.Points(n)
	if err != nil {
		return err
	}
	dp, err := stk.DelayedPayout(n)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &RoundInfo{
		Round:  n,
		Staked: amount(staked),
		Points: points,
		Payout: convertPayout(dp),
	})
}

func (s *Staking) handleGetSnapshot(w http.ResponseWriter, req *http.Request) error {
	n, err := roundVar(req)
	if err != nil {
		return err
	}
	addr, err := addressVar(req)
	if err != nil {
		return err
	}
	stk, _ := s.view()

	snap, err := stk.Snapshot(n, addr)
	if err != nil {
		return err
	}
	if snap == nil {
		return utils.NotFound(errors.New("snapshot not found"))
	}
	points, err := stk.AwardedPoints(n, addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Snapshot{
		Collator:    addr,
		Round:       n,
		Bond:        amount(snap.Bond),
		Delegations: convertBonds(snap.Delegations),
		Total:       amount(snap.Total),
		Points:      points,
	})
}

func (s *Staking) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := addressVar(req)
	if err != nil {
		return err
	}
	stk, ledger := s.view()

	free, err := ledger.FreeBalance(addr)
	if err != nil {
		return err
	}
	reducible, err := ledger.ReducibleBalance(addr)
	if err != nil {
		return err
	}
	locked := new(big.Int)
	c, err := stk.Candidate(addr)
	if err != nil {
		return err
	}
	if c != nil {
		locked.Add(locked, c.Bond)
	}
	d, err := stk.Delegator(addr)
	if err != nil {
		return err
	}
	if d != nil {
		locked.Add(locked, d.Total)
	}

	return utils.WriteJSON(w, &Account{
		Address:   addr,
		Free:      amount(free),
		Reducible: amount(reducible),
		Locked:    amount(locked),
	})
}

// blockRange reads the optional from/to query values. A missing to leaves the range open ended.
func blockRange(req *http.Request) (*logdb.Range, *uint32, error) {
	query := req.URL.Query()
	from, err := utils.ParseUint32(query, "from", 0)
	if err != nil {
		return nil, nil, err
	}
	if query.Get("to") == "" {
		return &logdb.Range{From: from, To: math.MaxUint32}, nil, nil
	}
	to, err := utils.ParseUint32(query, "to", 0)
	if err != nil {
		return nil, nil, err
	}
	if to < from {
		return nil, nil, utils.BadRequest(errors.New("to must be greater than or equal to from"))
	}
	return &logdb.Range{From: from, To: to}, &to, nil
}

func (s *Staking) handleGetRewards(w http.ResponseWriter, req *http.Request) error {
	addr, err := addressVar(req)
	if err != nil {
		return err
	}
	blocks, to, err := blockRange(req)
	if err != nil {
		return err
	}

	total, err := s.db.SumRewards(req.Context(), addr, blocks)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Rewards{
		Address: addr,
		Total:   amount(total),
		From:    blocks.From,
		To:      to,
	})
}

func (s *Staking) handleFilterEvents(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()

	criteria := &logdb.EventCriteria{}
	if kind := query.Get("kind"); kind != "" {
		criteria.Kind = &kind
	}
	for name, dst := range map[string]**thor.Address{"account": &criteria.Account, "target": &criteria.Target} {
		if v := query.Get(name); v != "" {
			addr, err := utils.ParseAddress(name, v)
			if err != nil {
				return err
			}
			*dst = &addr
		}
	}

	filter := &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{criteria}}
	if query.Get("from") != "" || query.Get("to") != "" {
		blocks, _, err := blockRange(req)
		if err != nil {
			return err
		}
		filter.Range = blocks
	}
	if v := query.Get("round"); v != "" {
		n, err := utils.ParseUint32(query, "round", 0)
		if err != nil {
			return err
		}
		filter.Rounds = &logdb.Range{From: n, To: n}
	}

	switch order := strings.ToLower(query.Get("order")); order {
	case "", string(logdb.ASC):
		filter.Order = logdb.ASC
	case string(logdb.DESC):
		filter.Order = logdb.DESC
	default:
		return utils.BadRequest(fmt.Errorf("order: unsupported value %q", order))
	}

	offset, err := utils.ParseUint64(query, "offset", 0)
	if err != nil {
		return err
	}
	if offset > math.MaxInt64 {
		return utils.BadRequest(fmt.Errorf("offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	limit, err := utils.ParseUint64(query, "limit", s.limit)
	if err != nil {
		return err
	}
	if limit > s.limit {
		return utils.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", s.limit))
	}
	filter.Options = &logdb.Options{Offset: offset, Limit: limit}

	events, err := s.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	res := make([]*FilteredEvent, 0, len(events))
	for _, ev := range events {
		res = append(res, convertEvent(ev))
	}
	return utils.WriteJSON(w, res)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/round").
		Methods(http.MethodGet).
		Name("GET /staking/round").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetRound))
	sub.Path("/config").
		Methods(http.MethodGet).
		Name("GET /staking/config").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetConfig))
	sub.Path("/candidates").
		Methods(http.MethodGet).
		Name("GET /staking/candidates").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidates))
	sub.Path("/candidates/pool").
		Methods(http.MethodGet).
		Name("GET /staking/candidates/pool").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidatePool))
	sub.Path("/candidates/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/candidates/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidate))
	sub.Path("/candidates/{address}/delegations").
		Methods(http.MethodGet).
		Name("GET /staking/candidates/{address}/delegations").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidateDelegations))
	sub.Path("/candidates/{address}/requests").
		Methods(http.MethodGet).
		Name("GET /staking/candidates/{address}/requests").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCandidateRequests))
	sub.Path("/selected").
		Methods(http.MethodGet).
		Name("GET /staking/selected").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSelected))
	sub.Path("/delegators/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/delegators/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegator))
	sub.Path("/rounds/{round}").
		Methods(http.MethodGet).
		Name("GET /staking/rounds/{round}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetRoundInfo))
	sub.Path("/rounds/{round}/snapshots/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/rounds/{round}/snapshots/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSnapshot))
	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/rewards/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/rewards/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetRewards))
	sub.Path("/events").
		Methods(http.MethodGet).
		Name("GET /staking/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleFilterEvents))
}
