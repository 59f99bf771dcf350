// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// LRU is a fixed size cache of committed storage slots.
type LRU struct {
	*lru.Cache
}

// NewLRU panics if maxSize is not positive.
func NewLRU(maxSize int) *LRU {
	c, err := lru.New(maxSize)
	if err != nil {
		panic(err)
	}
	return &LRU{c}
}

// Loader reads the value of key on a cache miss.
type Loader func(key any) (any, error)

// GetOrLoad returns the cached value of key, or loads and caches it.
// Failed loads are not cached.
func (l *LRU) GetOrLoad(key any, load Loader) (any, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		return nil, err
	}
	l.Add(key, v)
	return v, nil
}
