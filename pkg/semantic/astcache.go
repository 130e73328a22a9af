// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package semantic

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/singleflight"
)

// defaultASTCacheCapacity bounds resident parse-tree memory (spec §4.2,
// §5 "Backpressure").
const defaultASTCacheCapacity = 2048

// SyntaxTree is the opaque, language-specific parse result owned by the
// AST cache. It is never mutated once produced; a cached tree is either
// live (referenced by some caller) or evictable. Tree-sitter's own
// finalizer frees the underlying C memory once the last Go reference
// (cached or caller-held) is collected, so eviction from the cache's index
// never invalidates a reference already handed out.
type SyntaxTree struct {
	Tree *sitter.Tree
	Lang Language
}

type astCacheKey struct {
	path string
	hash uint64
	lang Language
}

// ASTCache maps (path, contentHash, language) to a SyntaxTree, bounded by
// entry count with approximate-LRU eviction. Concurrent lookups for the
// same key single-flight: only one parse runs, other callers wait for it.
type ASTCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[astCacheKey]*list.Element // value: *cacheEntry
	order    *list.List                    // front = most recently used

	group   singleflight.Group
	pool    *ParserPool
	logger  *slog.Logger
	metrics *metrics
}

type cacheEntry struct {
	key  astCacheKey
	tree *SyntaxTree
}

// NewASTCache creates a cache backed by pool for cache-miss parses.
// capacity <= 0 uses defaultASTCacheCapacity.
func NewASTCache(pool *ParserPool, capacity int, logger *slog.Logger, m *metrics) *ASTCache {
	if capacity <= 0 {
		capacity = defaultASTCacheCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = noopMetrics()
	}
	return &ASTCache{
		capacity: capacity,
		entries:  make(map[astCacheKey]*list.Element),
		order:    list.New(),
		pool:     pool,
		logger:   logger,
		metrics:  m,
	}
}

// GetOrParse returns the cached SyntaxTree for (path, hash, lang), parsing
// through the pool on a miss. Concurrent callers racing on the same key
// share one parse (single-flight); all of them observe the same error if
// the parse fails.
func (c *ASTCache) GetOrParse(ctx context.Context, path string, hash uint64, lang Language, content []byte) (*SyntaxTree, error) {
	key := astCacheKey{path: path, hash: hash, lang: lang}

	if tree, ok := c.lookup(key); ok {
		c.metrics.cacheHits.Inc()
		return tree, nil
	}
	c.metrics.cacheMisses.Inc()

	sfKey := fmt.Sprintf("%s|%016x|%s", path, hash, lang)
	v, err, _ := c.group.Do(sfKey, func() (interface{}, error) {
		// Re-check: another flight may have completed between our lookup
		// miss and acquiring the singleflight key.
		if tree, ok := c.lookup(key); ok {
			return tree, nil
		}

		token, err := c.pool.Acquire(lang)
		if err != nil {
			return nil, err
		}
		defer token.Release()

		rawTree, err := token.ParseCtx(ctx, nil, content)
		if err != nil {
			return nil, err
		}

		tree := &SyntaxTree{Tree: rawTree, Lang: lang}
		c.insert(key, tree)
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SyntaxTree), nil
}

func (c *ASTCache) lookup(key astCacheKey) (*SyntaxTree, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).tree, true
}

func (c *ASTCache) insert(key astCacheKey, tree *SyntaxTree) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).tree = tree
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, tree: tree})
	c.entries[key] = elem
	c.metrics.cacheSize.Set(float64(len(c.entries)))

	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
		c.metrics.cacheEvictions.Inc()
		c.metrics.cacheSize.Set(float64(len(c.entries)))
	}
}

// Len reports the number of syntax trees currently resident in the cache.
func (c *ASTCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
