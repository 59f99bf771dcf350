// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/collator-staking/cache"
	"github.com/vechain/collator-staking/kv"
	"github.com/vechain/collator-staking/metrics"
)

const (
	storageBucket = kv.Bucket("s")

	defaultCacheSize = 16384
)

var metricStorageCounter = metrics.LazyLoadCounterVec("state_slot_access_count", []string{"type", "target"})

// Stater is the state creator.
// It owns the committed store and a cache of committed slots, shared by all states it creates.
type Stater struct {
	store kv.Store
	cache *cache.LRU
}

// NewStater create a new stater.
func NewStater(db kv.Store) *Stater {
	return &Stater{
		store: storageBucket.NewStore(db),
		cache: cache.NewLRU(defaultCacheSize),
	}
}

// NewState create a new state object.
func (s *Stater) NewState() *State {
	return New(s)
}

func (s *Stater) loadStorage(key storageKey) (rlp.RawValue, error) {
	target := "cache"
	v, err := s.cache.GetOrLoad(key, func(any) (any, error) {
		target = "db"
		raw, err := s.store.Get(storageDBKey(key))
		if err != nil {
			if !s.store.IsNotFound(err) {
				return nil, err
			}
			raw = nil
		}
		return rlp.RawValue(raw), nil
	})
	metricStorageCounter().AddWithLabel(1, map[string]string{"type": "read", "target": target})
	if err != nil {
		return nil, err
	}
	return v.(rlp.RawValue), nil
}

func storageDBKey(key storageKey) []byte {
	return append(key.addr.Bytes(), key.key.Bytes()...)
}
