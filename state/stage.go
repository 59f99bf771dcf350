// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/thor"
)

// Stage abstracts changes on the committed slots.
type Stage struct {
	stater  *Stater
	changes map[storageKey]rlp.RawValue
}

// Len returns the number of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Hash computes a digest of the changes, independent of the write order.
func (s *Stage) Hash() thor.Bytes32 {
	keys := s.sortedKeys()
	return thor.Blake2bFn(func(w io.Writer) {
		for _, k := range keys {
			w.Write(k)
			w.Write(s.changes[storageKeyOf(k)])
		}
	})
}

// Commit writes all changes in one batch, then refreshes the stater cache.
func (s *Stage) Commit() error {
	err := s.stater.store.Batch(func(p kv.Putter) error {
		for key, val := range s.changes {
			if len(val) == 0 {
				if err := p.Delete(storageDBKey(key)); err != nil {
					return err
				}
				continue
			}
			if err := p.Put(storageDBKey(key), val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &Error{err}
	}
	for key, val := range s.changes {
		s.stater.cache.Add(key, val)
	}
	metricStorageCounter().AddWithLabel(int64(len(s.changes)), map[string]string{"type": "write", "target": "db"})
	return nil
}

func (s *Stage) sortedKeys() [][]byte {
	keys := make([][]byte, 0, len(s.changes))
	for k := range s.changes {
		keys = append(keys, storageDBKey(k))
	}
	slices.SortFunc(keys, bytes.Compare)
	return keys
}

func storageKeyOf(dbKey []byte) storageKey {
	var key storageKey
	copy(key.addr[:], dbKey[:thor.AddressLength])
	copy(key.key[:], dbKey[thor.AddressLength:])
	return key
}
