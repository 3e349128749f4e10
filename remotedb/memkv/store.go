/*
   Copyright 2022 Erigon contributors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package memkv is an in-process kv.Transport double: a sorted in-memory
// slice of records served through the same paged get-next-page protocol a
// real backend would use. It exists for the test suite (spec.md §8's
// literal scenarios) and for local development against the engine without
// a running server, the same role bufconn-dialed fakes play for this
// ecosystem's remote KV client tests.
package memkv

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/atomic"

	"github.com/fdbgo/fdb/kv"
)

var errExactRequiresLimit = errors.New("memkv: streaming mode exact requires RangeOptions.Limit > 0")

// DefaultPageSize caps how many records Store serves per GetRange call,
// so tests can observe paging/backpressure behavior without huge fixtures.
const DefaultPageSize = 2

// Store is a sorted, static (for this engine's purposes - it never
// writes) in-memory key/value table served as paged ranges.
type Store struct {
	mu       sync.RWMutex
	records  []kv.Record // sorted ascending by Key
	pageSize int

	fetches atomic.Int32
}

// New builds a Store from recs, which need not be pre-sorted.
func New(recs []kv.Record, pageSize int) *Store {
	sorted := make([]kv.Record, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool { return kv.CompareKeys(sorted[i].Key, sorted[j].Key) < 0 })
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{records: sorted, pageSize: pageSize}
}

var _ kv.Transport = (*Store)(nil)

// Fetches reports how many GetRange calls have been served, used by tests
// asserting "no further backend reads observed" after early termination
// or cancellation (spec.md §8 scenarios 5-6).
func (s *Store) Fetches() int { return int(s.fetches.Load()) }

// resolve maps a KeySelector to a concrete slice index using the standard
// anchor+offset formula: find the first record >= ReferenceKey, adjust for
// OrEqual, then walk Offset-1 further.
func (s *Store) resolve(sel kv.KeySelector) int {
	base := sort.Search(len(s.records), func(i int) bool {
		return kv.CompareKeys(s.records[i].Key, sel.ReferenceKey) >= 0
	})
	idx := base
	if !sel.OrEqual && idx < len(s.records) && kv.CompareKeys(s.records[idx].Key, sel.ReferenceKey) == 0 {
		idx++
	}
	return idx + int(sel.Offset) - 1
}

// GetRange implements kv.Transport.
func (s *Store) GetRange(ctx context.Context, req kv.RangeRequest) (kv.Page, error) {
	if err := kv.CheckContext(ctx); err != nil {
		return kv.Page{}, err
	}
	s.fetches.Inc()

	s.mu.RLock()
	defer s.mu.RUnlock()

	begin := clamp(s.resolve(req.Selector.Begin), 0, len(s.records))
	end := clamp(s.resolve(req.Selector.End), 0, len(s.records))
	if begin > end {
		begin = end
	}
	window := s.records[begin:end]

	if req.Options.Mode == kv.StreamingModeExact && req.Options.Limit <= 0 {
		return kv.Page{}, kv.NewFault(kv.Contract, errExactRequiresLimit)
	}

	pageSize := s.pageSize
	if req.Options.Mode == kv.StreamingModeWantAll {
		pageSize = len(window)
	}
	if req.Options.Limit > 0 && req.Options.Limit < pageSize {
		pageSize = req.Options.Limit
	}
	if pageSize > len(window) {
		pageSize = len(window)
	}

	var page []kv.Record
	hasMore := false
	if req.Options.Reverse {
		// window is ascending; deliver its tail first, descending.
		start := len(window) - pageSize
		page = reversed(window[start:])
		hasMore = start > 0
	} else {
		page = append([]kv.Record(nil), window[:pageSize]...)
		hasMore = pageSize < len(window)
	}

	return kv.Page{
		Records:   page,
		HasMore:   hasMore,
		Iteration: req.Iteration,
		Reversed:  req.Options.Reverse,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func reversed(recs []kv.Record) []kv.Record {
	out := make([]kv.Record, len(recs))
	for i, r := range recs {
		out[len(recs)-1-i] = r
	}
	return out
}
