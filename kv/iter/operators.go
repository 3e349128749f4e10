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

package iter

import (
	"context"
	"sync"

	"github.com/fdbgo/fdb/kv"
)

// --- Select -----------------------------------------------------------

type selectCursor[R, R2 any] struct {
	upstream Cursor[R]
	f        func(R) R2
	cur      R2
	closeOne sync.Once
}

func (s *selectCursor[R, R2]) Advance(ctx context.Context) (kv.CursorState, error) {
	state, err := s.upstream.Advance(ctx)
	if state != kv.Advanced {
		return state, err
	}
	v, _ := s.upstream.Current()
	s.cur = s.f(v)
	return kv.Advanced, nil
}

func (s *selectCursor[R, R2]) Current() (R2, bool) { return s.cur, true }
func (s *selectCursor[R, R2]) Close()              { s.closeOne.Do(s.upstream.Close) }

// Select projects each element of upstream through f. It is the vehicle
// for a set-algebra iterator's result_fn once composed downstream of the
// merge.
//
// Go methods can't introduce a new type parameter (R2), so unlike Where/
// Take/Skip this operator is only available as a package function, not as
// a Seq[R] method.
func Select[R, R2 any](upstream Cursor[R], f func(R) R2) Seq[R2] {
	return From[R2](&selectCursor[R, R2]{upstream: upstream, f: f})
}

// --- Where --------------------------------------------------------------

type whereCursor[R any] struct {
	upstream Cursor[R]
	pred     func(R) bool
	cur      R
	closeOne sync.Once
}

func (w *whereCursor[R]) Advance(ctx context.Context) (kv.CursorState, error) {
	for {
		state, err := w.upstream.Advance(ctx)
		if state != kv.Advanced {
			return state, err
		}
		v, _ := w.upstream.Current()
		if w.pred(v) {
			w.cur = v
			return kv.Advanced, nil
		}
	}
}

func (w *whereCursor[R]) Current() (R, bool) { return w.cur, true }
func (w *whereCursor[R]) Close()             { w.closeOne.Do(w.upstream.Close) }

// Where filters upstream, skipping elements pred rejects without ever
// materializing the skipped ones.
func Where[R any](upstream Cursor[R], pred func(R) bool) Seq[R] {
	return From[R](&whereCursor[R]{upstream: upstream, pred: pred})
}

func (s Seq[R]) Where(pred func(R) bool) Seq[R] { return Where[R](s.Cursor, pred) }

// --- Take / Skip ---------------------------------------------------------

type takeCursor[R any] struct {
	upstream Cursor[R]
	n, taken int
	cur      R
	closeOne sync.Once
}

func (t *takeCursor[R]) Advance(ctx context.Context) (kv.CursorState, error) {
	if t.taken >= t.n {
		t.Close()
		return kv.End, nil
	}
	state, err := t.upstream.Advance(ctx)
	if state != kv.Advanced {
		if state == kv.End {
			t.Close()
		}
		return state, err
	}
	t.cur, _ = t.upstream.Current()
	t.taken++
	if t.taken >= t.n {
		// Exactly n records delivered: dispose upstream now so no
		// further backend reads are observed (spec.md §8 scenario 5),
		// without waiting for the caller to call Advance again.
		t.upstream.Close()
	}
	return kv.Advanced, nil
}

func (t *takeCursor[R]) Current() (R, bool) { return t.cur, true }
func (t *takeCursor[R]) Close()             { t.closeOne.Do(t.upstream.Close) }

// Take yields exactly min(n, len(upstream)) records, then disposes
// upstream - even before the caller issues the terminating Advance call.
func Take[R any](upstream Cursor[R], n int) Seq[R] {
	return From[R](&takeCursor[R]{upstream: upstream, n: n})
}

func (s Seq[R]) Take(n int) Seq[R] { return Take[R](s.Cursor, n) }

type skipCursor[R any] struct {
	upstream Cursor[R]
	n        int
	skipped  bool
	cur      R
	closeOne sync.Once
}

func (sk *skipCursor[R]) Advance(ctx context.Context) (kv.CursorState, error) {
	if !sk.skipped {
		sk.skipped = true
		for i := 0; i < sk.n; i++ {
			state, err := sk.upstream.Advance(ctx)
			if state != kv.Advanced {
				return state, err
			}
		}
	}
	state, err := sk.upstream.Advance(ctx)
	if state != kv.Advanced {
		return state, err
	}
	sk.cur, _ = sk.upstream.Current()
	return kv.Advanced, nil
}

func (sk *skipCursor[R]) Current() (R, bool) { return sk.cur, true }
func (sk *skipCursor[R]) Close()             { sk.closeOne.Do(sk.upstream.Close) }

// Skip drops the first n records of upstream.
func Skip[R any](upstream Cursor[R], n int) Seq[R] {
	return From[R](&skipCursor[R]{upstream: upstream, n: n})
}

func (s Seq[R]) Skip(n int) Seq[R] { return Skip[R](s.Cursor, n) }

// --- Distinct -------------------------------------------------------------

type distinctCursor[R any, K comparable] struct {
	upstream  Cursor[R]
	keyFn     func(R) K
	started   bool
	lastKey   K
	cur       R
	closeOne  sync.Once
}

func (d *distinctCursor[R, K]) Advance(ctx context.Context) (kv.CursorState, error) {
	for {
		state, err := d.upstream.Advance(ctx)
		if state != kv.Advanced {
			return state, err
		}
		v, _ := d.upstream.Current()
		k := d.keyFn(v)
		if d.started && k == d.lastKey {
			continue
		}
		d.started = true
		d.lastKey = k
		d.cur = v
		return kv.Advanced, nil
	}
}

func (d *distinctCursor[R, K]) Current() (R, bool) { return d.cur, true }
func (d *distinctCursor[R, K]) Close()             { d.closeOne.Do(d.upstream.Close) }

// Distinct collapses consecutive records whose keyFn output is equal. It
// assumes (as every source in this engine guarantees) that upstream is
// already ordered by keyFn, so a single "last seen key" suffices - no
// O(n) seen-set is needed.
func Distinct[R any, K comparable](upstream Cursor[R], keyFn func(R) K) Seq[R] {
	return From[R](&distinctCursor[R, K]{upstream: upstream, keyFn: keyFn})
}
