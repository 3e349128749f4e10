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

// Package query is the "ranges" half of spec.md §6's public operator
// surface: merge_sort/union/intersect/except overload on either already-
// built sources or raw range selectors. This package builds the Paged
// Range Reader cursors (component A) for a set of RangeSelectors and
// hands them to package setop, so callers working directly against range
// selectors never have to touch kv/rangeread themselves.
package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/errgroup"

	"github.com/fdbgo/fdb/kv"
	"github.com/fdbgo/fdb/kv/iter"
	"github.com/fdbgo/fdb/kv/rangeread"
	"github.com/fdbgo/fdb/kv/setop"
)

// Readers builds one Paged Range Reader per selector, ready to be handed
// to any setop constructor. Their positional index in ranges becomes
// their cursor_id, which is what makes Union's tie-break and Except's
// "input 0 is positive" rule deterministic. All readers built by one call
// share a query ID prefix, so log lines and metrics from the same logical
// merge can be correlated even though each reader logs independently.
func Readers(tx kv.Transaction, transport kv.Transport, ranges []kv.RangeSelector, opts kv.RangeOptions, logger log.Logger) ([]iter.Cursor[kv.Record], error) {
	if len(ranges) == 0 {
		return nil, kv.NewFault(kv.Contract, fmt.Errorf("query: at least one range selector is required"))
	}
	queryID := uuid.NewString()
	cursors := make([]iter.Cursor[kv.Record], len(ranges))
	for i, sel := range ranges {
		r, err := rangeread.New(fmt.Sprintf("%s/range-%d", queryID, i), tx, transport, sel, opts, logger)
		if err != nil {
			// Earlier readers in this loop are fine to leave unclosed:
			// they have issued no I/O yet (creation is lazy), so there
			// is nothing to dispose.
			return nil, err
		}
		cursors[i] = r
	}
	return cursors, nil
}

// MergeSortRanges builds readers for ranges and merge-sorts them by
// kv.CompareKeys, the store's native byte order.
func MergeSortRanges(tx kv.Transaction, transport kv.Transport, ranges []kv.RangeSelector, opts kv.RangeOptions, logger log.Logger) (*setop.Iterator[kv.Record, []byte, kv.Record], error) {
	cursors, err := Readers(tx, transport, ranges, opts, logger)
	if err != nil {
		return nil, err
	}
	return setop.MergeSort[kv.Record, []byte](cursors, keyOf, kv.CompareKeys)
}

// UnionRanges is MergeSortRanges under the union name (spec.md §6 lists
// both).
func UnionRanges(tx kv.Transaction, transport kv.Transport, ranges []kv.RangeSelector, opts kv.RangeOptions, logger log.Logger) (*setop.Iterator[kv.Record, []byte, kv.Record], error) {
	cursors, err := Readers(tx, transport, ranges, opts, logger)
	if err != nil {
		return nil, err
	}
	return setop.Union[kv.Record, []byte](cursors, keyOf, kv.CompareKeys)
}

// IntersectRanges builds readers for ranges and intersects them.
func IntersectRanges(tx kv.Transaction, transport kv.Transport, ranges []kv.RangeSelector, opts kv.RangeOptions, logger log.Logger) (*setop.Iterator[kv.Record, []byte, kv.Record], error) {
	cursors, err := Readers(tx, transport, ranges, opts, logger)
	if err != nil {
		return nil, err
	}
	return setop.Intersect[kv.Record, []byte](cursors, keyOf, kv.CompareKeys)
}

// ExceptRanges builds readers for ranges and subtracts ranges[1:] from
// ranges[0].
func ExceptRanges(tx kv.Transaction, transport kv.Transport, ranges []kv.RangeSelector, opts kv.RangeOptions, logger log.Logger) (*setop.Iterator[kv.Record, []byte, kv.Record], error) {
	cursors, err := Readers(tx, transport, ranges, opts, logger)
	if err != nil {
		return nil, err
	}
	return setop.Except[kv.Record, []byte](cursors, keyOf, kv.CompareKeys)
}

// WarmReaders fans out Reader.Warm across every rangeread.Reader in
// cursors, overlapping their first-page round trips instead of paying
// that latency serially as the set-algebra iterator seeds one cursor at
// a time. It's an optional latency optimization: skipping it only costs
// time, never correctness, since Advance still fetches lazily on its own
// if Warm was never called.
func WarmReaders(ctx context.Context, cursors []iter.Cursor[kv.Record]) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range cursors {
		r, ok := c.(*rangeread.Reader)
		if !ok {
			continue
		}
		g.Go(func() error { return r.Warm(gctx) })
	}
	return g.Wait()
}

func keyOf(r kv.Record) []byte { return r.Key }
