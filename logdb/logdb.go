// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"math"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/collator-staking/thor"
)

// RewardKind is the kind of the events carrying a paid reward.
const RewardKind = "Rewarded"

const insertEventQuery = "INSERT OR REPLACE INTO event(seq, round, kind, account, target, amount) VALUES(?, ?, ?, ?, ?, ?)"

type LogDB struct {
	path          string
	db            *sql.DB
	stmtCache     *stmtCache
	driverVersion string
}

var (
	_ Reader = (*LogDB)(nil)
	_ Writer = (*writer)(nil)
)

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// a single connection keeps in-memory dbs visible to every query
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create event table")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, round, kind, account, target, amount FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT seq, round, kind, account, target, amount FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, newSequence(filter.Range.From, 0))
		stmt += " AND seq >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, newSequence(filter.Range.To, math.MaxInt32))
			stmt += " AND seq <= ?"
		}
	}
	if filter.Rounds != nil {
		args = append(args, filter.Rounds.From)
		stmt += " AND round >= ?"
		if filter.Rounds.To >= filter.Rounds.From {
			args = append(args, filter.Rounds.To)
			stmt += " AND round <= ?"
		}
	}

	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Kind != nil {
			args = append(args, *criteria.Kind)
			stmt += " AND kind = ?"
		}
		if criteria.Account != nil {
			args = append(args, criteria.Account.Bytes())
			stmt += " AND account = ?"
		}
		if criteria.Target != nil {
			args = append(args, criteria.Target.Bytes())
			stmt += " AND target = ?"
		}
		stmt += " )"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) SumRewards(ctx context.Context, account thor.Address, blocks *Range) (*big.Int, error) {
	kind := RewardKind
	events, err := db.FilterEvents(ctx, &EventFilter{
		CriteriaSet: []*EventCriteria{{Kind: &kind, Account: &account}},
		Range:       blocks,
	})
	if err != nil {
		return nil, err
	}
	sum := new(big.Int)
	for _, ev := range events {
		if ev.Amount != nil {
			sum.Add(sum, ev.Amount)
		}
	}
	return sum, nil
}

func (db *LogDB) NewestBlockNum() (uint32, bool, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, false, err
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return sequence(seq.Int64).BlockNumber(), true, nil
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     int64
			round   uint32
			kind    string
			account []byte
			target  []byte
			amount  []byte
		)
		if err := rows.Scan(&seq, &round, &kind, &account, &target, &amount); err != nil {
			return nil, err
		}
		ev := &Event{
			BlockNumber: sequence(seq).BlockNumber(),
			Index:       sequence(seq).Index(),
			Round:       round,
			Kind:        kind,
			Account:     thor.BytesToAddress(account),
			Target:      thor.BytesToAddress(target),
		}
		if amount != nil {
			ev.Amount = new(big.Int).SetBytes(amount)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// NewWriter creates an event writer. Writes are buffered in a transaction until Commit.
func (db *LogDB) NewWriter() Writer {
	return &writer{db: db.db}
}

// writer owns the single connection while a transaction is open, so reads must wait for Commit or Rollback.
type writer struct {
	db  *sql.DB
	tx  *sql.Tx
	len int
}

func (w *writer) exec(query string, args ...any) error {
	if w.tx == nil {
		tx, err := w.db.Begin()
		if err != nil {
			return err
		}
		w.tx = tx
	}
	_, err := w.tx.Exec(query, args...)
	return err
}

func (w *writer) Write(blockNum uint32, events []*Event) error {
	for i, ev := range events {
		var amount []byte
		if ev.Amount != nil {
			amount = ev.Amount.Bytes()
		}
		if err := w.exec(insertEventQuery,
			newSequence(blockNum, uint32(i)),
			ev.Round,
			ev.Kind,
			ev.Account.Bytes(),
			ev.Target.Bytes(),
			amount,
		); err != nil {
			return errors.Wrapf(err, "write event %d of block %d", i, blockNum)
		}
		w.len++
	}
	return nil
}

func (w *writer) Commit() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Commit()
	if err == nil {
		metricWrittenEvents().Add(int64(w.len))
	}
	w.tx = nil
	w.len = 0
	return err
}

func (w *writer) Rollback() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Rollback()
	w.tx = nil
	w.len = 0
	return err
}

func (w *writer) Truncate(blockNum uint32) error {
	if err := w.exec("DELETE FROM event WHERE seq >= ?", newSequence(blockNum, 0)); err != nil {
		return err
	}
	return w.Commit()
}

func (w *writer) UncommittedCount() int {
	return w.len
}
