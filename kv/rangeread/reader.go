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

// Package rangeread is the Paged Range Reader (component A) and its
// concrete Async Ordered Cursor (component B): it drives the
// get-next-page protocol against one RangeSelector and exposes a
// kv.Cursor producing ordered records.
package rangeread

import (
	"context"
	"fmt"
	"math"

	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/semaphore"

	"github.com/fdbgo/fdb/internal/metrics"
	"github.com/fdbgo/fdb/kv"
)

// Reader pages through one RangeSelector, refilling its internal buffer
// from Transport as the consumer drains it.
type Reader struct {
	id        string
	tx        kv.Transaction
	transport kv.Transport
	sel       kv.RangeSelector
	opts      kv.RangeOptions

	iteration uint32
	remaining int // records left under Limit; math.MaxInt if unbounded

	buf    []kv.Record
	bufPos int
	noMore bool // backend said HasMore=false on the last fetch

	haveBoundary bool
	boundaryKey  []byte // last emitted key, used to compute the next fetch's boundary

	lifecycle lifecycleState
	cur       kv.Record

	// busy enforces "at most one outstanding Advance" (spec.md §4.B):
	// TryAcquire failing means a caller re-entered Advance while a
	// previous call was still pending, which is a programming error.
	busy *semaphore.Weighted

	log log.Logger
}

type lifecycleState int8

const (
	stateFresh lifecycleState = iota
	stateHasCurrent
	stateExhausted
	stateFaulted
	stateDisposed
)

// New constructs a Reader. id is used only for logging/metrics
// attribution (typically the cursor's position in a set-algebra
// constructor list).
func New(id string, tx kv.Transaction, transport kv.Transport, sel kv.RangeSelector, opts kv.RangeOptions, logger log.Logger) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Root()
	}
	remaining := math.MaxInt
	if opts.Limit > 0 {
		remaining = opts.Limit
	}
	metrics.CursorsOpened.Inc()
	return &Reader{
		id:        id,
		tx:        tx,
		transport: transport,
		sel:       sel,
		opts:      opts,
		remaining: remaining,
		busy:      semaphore.NewWeighted(1),
		log:       logger,
	}, nil
}

// Advance implements kv.Cursor.
func (r *Reader) Advance(ctx context.Context) (kv.CursorState, error) {
	if !r.busy.TryAcquire(1) {
		panic(fmt.Sprintf("rangeread: Advance called re-entrantly on cursor %q", r.id))
	}
	defer r.busy.Release(1)

	switch r.lifecycle {
	case stateExhausted:
		return kv.End, nil
	case stateFaulted:
		return kv.Fault, kv.NewFault(kv.Backend, fmt.Errorf("cursor %q already faulted", r.id))
	case stateDisposed:
		return kv.End, nil
	}

	if err := kv.CheckContext(ctx); err != nil {
		return r.fault(err)
	}
	if err := r.tx.EnsureReadable(); err != nil {
		return r.fault(err)
	}

	for {
		if r.bufPos < len(r.buf) {
			rec := r.buf[r.bufPos]
			r.bufPos++
			if r.remaining != math.MaxInt {
				r.remaining--
			}
			r.boundaryKey = rec.Key
			r.haveBoundary = true
			r.cur = rec
			r.lifecycle = stateHasCurrent
			return kv.Advanced, nil
		}
		if r.noMore || r.remaining <= 0 {
			r.lifecycle = stateExhausted
			return kv.End, nil
		}
		if err := r.refill(ctx); err != nil {
			return r.fault(err)
		}
	}
}

// Warm proactively issues this reader's first page fetch if it hasn't
// already buffered one, so a caller fanning out over many ranges (see
// query.WarmReaders) can overlap their initial round-trip latency
// instead of paying it serially on each reader's first Advance.
func (r *Reader) Warm(ctx context.Context) error {
	if !r.busy.TryAcquire(1) {
		panic(fmt.Sprintf("rangeread: Warm called re-entrantly on cursor %q", r.id))
	}
	defer r.busy.Release(1)

	if r.lifecycle != stateFresh || len(r.buf) > 0 || r.noMore {
		return nil
	}
	if err := kv.CheckContext(ctx); err != nil {
		return err
	}
	if err := r.tx.EnsureReadable(); err != nil {
		return err
	}
	return r.refill(ctx)
}

func (r *Reader) fault(err error) (kv.CursorState, error) {
	r.lifecycle = stateFaulted
	metrics.FaultByKind(kv.KindOf(err).String()).Inc()
	return kv.Fault, err
}

// refill issues one backend read and appends its records to the buffer,
// per the protocol in spec.md §4.A.
func (r *Reader) refill(ctx context.Context) error {
	req := kv.RangeRequest{
		Selector:  r.nextSelector(),
		Options:   r.effectiveOptions(),
		Iteration: r.iteration + 1,
		Snapshot:  r.tx.Snapshot(),
	}
	page, err := r.transport.GetRange(ctx, req)
	if err != nil {
		return err
	}
	if r.iteration > 0 {
		metrics.PagesRefetched.Inc()
	}
	metrics.PagesFetched.Inc()
	r.iteration = req.Iteration

	if page.Empty() {
		r.noMore = true
		return nil
	}
	r.buf = page.Records
	r.bufPos = 0
	r.noMore = !page.HasMore
	r.log.Debug("rangeread: page fetched", "cursor", r.id, "iteration", r.iteration, "records", len(page.Records), "hasMore", page.HasMore)
	return nil
}

// nextSelector narrows Begin/End to resume exactly where the buffer left
// off: "first key after the last emitted key" going forward, "first key
// before it" in reverse. The caller-supplied Begin/End selectors are
// preserved verbatim until the first boundary is known. Forward
// resumption steps past the boundary key itself via kv.KeyAfter rather
// than leaning on the backend to resolve a strictly-greater-than
// selector.
func (r *Reader) nextSelector() kv.RangeSelector {
	if !r.haveBoundary {
		return r.sel
	}
	if r.opts.Reverse {
		return kv.RangeSelector{Begin: r.sel.Begin, End: kv.FirstGreaterOrEqual(r.boundaryKey)}
	}
	return kv.RangeSelector{Begin: kv.FirstGreaterOrEqual(kv.KeyAfter(r.boundaryKey)), End: r.sel.End}
}

// effectiveOptions narrows Limit to the remaining budget so a partial last
// page never overshoots it.
func (r *Reader) effectiveOptions() kv.RangeOptions {
	o := r.opts
	if o.Limit > 0 || r.remaining != math.MaxInt {
		o.Limit = r.remaining
	}
	return o
}

// Current implements kv.Cursor.
func (r *Reader) Current() (kv.Record, bool) {
	if r.lifecycle != stateHasCurrent {
		return kv.Record{}, false
	}
	return r.cur, true
}

// Close implements kv.Cursor. Idempotent.
func (r *Reader) Close() {
	if r.lifecycle == stateDisposed {
		return
	}
	r.lifecycle = stateDisposed
	metrics.CursorsDisposed.Inc()
}
