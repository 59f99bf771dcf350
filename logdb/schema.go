// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// seq is the (block number, index) sequence, see newSequence.
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY NOT NULL,
	round INTEGER NOT NULL,
	kind TEXT NOT NULL,
	account BLOB NOT NULL,
	target BLOB NOT NULL,
	amount BLOB
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(kind, seq);
CREATE INDEX IF NOT EXISTS event_i1 ON event(account, seq);
CREATE INDEX IF NOT EXISTS event_i2 ON event(target, seq);
CREATE INDEX IF NOT EXISTS event_i3 ON event(round, seq);`
