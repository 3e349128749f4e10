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

// Package setop is the Set-Algebra Iterator (component D): it unifies
// Union, Intersect and Except over the Merge Heap (component C) as a
// tagged variant with three small step functions, rather than an
// inheritance hierarchy - cleanest given Go has no subclassing anyway.
package setop

import (
	"context"
	"fmt"

	"github.com/ledgerwatch/log/v3"

	"github.com/fdbgo/fdb/internal/metrics"
	"github.com/fdbgo/fdb/kv"
	"github.com/fdbgo/fdb/kv/iter"
)

// Mode selects which set operation Advance implements.
type Mode int8

const (
	Union Mode = iota
	Intersect
	Except
)

func (m Mode) String() string {
	switch m {
	case Union:
		return "union"
	case Intersect:
		return "intersect"
	case Except:
		return "except"
	default:
		return "unknown"
	}
}

type (
	KeyFunc[In, K any]     func(In) K
	ResultFunc[In, Out any] func(In) Out
	CompareFunc[K any]     func(a, b K) int
)

type lifecycleState int8

const (
	lifecycleFresh lifecycleState = iota
	lifecycleHasCurrent
	lifecycleExhausted
	lifecycleFaulted
	lifecycleDisposed
)

// Iterator is the Set-Algebra Iterator. In is the element type of every
// input cursor, K the projected key type, Out the emitted element type.
type Iterator[In, K, Out any] struct {
	mode     Mode
	cursors  []iter.Cursor[In]
	keyFn    KeyFunc[In, K]
	resultFn ResultFunc[In, Out]
	cmp      CompareFunc[K]

	heap      *mergeHeap[In, K]
	seeded    bool
	lifecycle lifecycleState
	cur       Out

	log log.Logger
}

// New builds a Set-Algebra Iterator. For Except, cursors[0] is the
// positive side; cursors[1:] are the negative sides. N must be >= 1.
func New[In, K, Out any](mode Mode, cursors []iter.Cursor[In], keyFn KeyFunc[In, K], resultFn ResultFunc[In, Out], cmp CompareFunc[K], logger log.Logger) (*Iterator[In, K, Out], error) {
	if len(cursors) == 0 {
		return nil, kv.NewFault(kv.Contract, fmt.Errorf("setop: at least one input cursor is required"))
	}
	for _, c := range cursors {
		if c == nil {
			return nil, kv.NewFault(kv.Contract, fmt.Errorf("setop: nil input cursor"))
		}
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Iterator[In, K, Out]{
		mode:     mode,
		cursors:  cursors,
		keyFn:    keyFn,
		resultFn: resultFn,
		cmp:      cmp,
		heap:     newMergeHeap[In, K](len(cursors), cmp),
		log:      logger,
	}, nil
}

// Advance implements kv.Cursor (specialized to Out). Cursors are seeded
// lazily on the first call, matching the lifecycle rule that inputs are
// created/advanced lazily rather than eagerly at construction time.
func (it *Iterator[In, K, Out]) Advance(ctx context.Context) (kv.CursorState, error) {
	switch it.lifecycle {
	case lifecycleExhausted, lifecycleDisposed:
		return kv.End, nil
	case lifecycleFaulted:
		return kv.Fault, kv.NewFault(kv.Backend, fmt.Errorf("setop: iterator already faulted"))
	}
	if err := kv.CheckContext(ctx); err != nil {
		metrics.CancellationsHit.Inc()
		return it.abort(err, -1)
	}

	if !it.seeded {
		it.seeded = true
		for id, c := range it.cursors {
			state, err := c.Advance(ctx)
			switch state {
			case kv.Fault:
				return it.abort(err, id)
			case kv.Advanced:
				v, _ := c.Current()
				it.heap.Insert(id, it.keyFn(v), v)
			}
		}
	}

	var state kv.CursorState
	var err error
	switch it.mode {
	case Union:
		state, err = it.advanceUnion(ctx)
	case Intersect:
		state, err = it.advanceIntersect(ctx)
	case Except:
		state, err = it.advanceExcept(ctx)
	default:
		return it.abort(kv.NewFault(kv.Contract, fmt.Errorf("setop: unknown mode %v", it.mode)), -1)
	}
	if state == kv.Advanced {
		it.lifecycle = lifecycleHasCurrent
	} else if state == kv.End {
		it.lifecycle = lifecycleExhausted
		metrics.SetOpTerminated.Inc()
	}
	return state, err
}

// Current implements kv.Cursor.
func (it *Iterator[In, K, Out]) Current() (Out, bool) {
	if it.lifecycle != lifecycleHasCurrent {
		var zero Out
		return zero, false
	}
	return it.cur, true
}

// Close implements kv.Cursor: idempotent, disposes every input cursor.
func (it *Iterator[In, K, Out]) Close() {
	if it.lifecycle == lifecycleDisposed {
		return
	}
	it.lifecycle = lifecycleDisposed
	for _, c := range it.cursors {
		c.Close()
	}
	metrics.CursorsDisposed.Inc()
}

// abort implements the propagation policy of spec.md §7: the first fault
// from any cursor terminates the iterator and is re-raised once every
// cursor - including the one that faulted - has been disposed. Close is
// required to be idempotent, so closing an already-faulted cursor is safe.
func (it *Iterator[In, K, Out]) abort(err error, faultingID int) (kv.CursorState, error) {
	it.lifecycle = lifecycleFaulted
	for _, c := range it.cursors {
		c.Close()
	}
	kind := kv.KindOf(err)
	metrics.FaultByKind(kind.String()).Inc()
	metrics.FaultsRaised.Inc()
	metrics.SetOpTerminated.Inc()
	if faultingID >= 0 {
		if f, ok := err.(*kv.Fault); ok {
			err = f.WithCursor(fmt.Sprintf("%d", faultingID))
		}
	}
	return kv.Fault, err
}

// advance steps one cursor, routing Fault through abort and leaving End/
// Advanced to the caller.
func (it *Iterator[In, K, Out]) advance(ctx context.Context, id int) (kv.CursorState, In, error) {
	state, err := it.cursors[id].Advance(ctx)
	if state != kv.Advanced {
		var zero In
		return state, zero, err
	}
	v, _ := it.cursors[id].Current()
	return kv.Advanced, v, nil
}
