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

package setop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fdbgo/fdb/kv"
	"github.com/fdbgo/fdb/kv/iter"
)

// sliceCursor is a minimal in-memory iter.Cursor[kv.Record] over a
// pre-sorted slice, used to test the set-algebra iterator in isolation
// from the Paged Range Reader / transport.
type sliceCursor struct {
	recs     []kv.Record
	pos      int
	disposed bool
	cur      kv.Record
}

func rec(k string, v string) kv.Record { return kv.Record{Key: []byte(k), Value: []byte(v)} }

func newSliceCursor(recs ...kv.Record) *sliceCursor { return &sliceCursor{recs: recs} }

func (s *sliceCursor) Advance(context.Context) (kv.CursorState, error) {
	if s.pos >= len(s.recs) {
		return kv.End, nil
	}
	s.cur = s.recs[s.pos]
	s.pos++
	return kv.Advanced, nil
}

func (s *sliceCursor) Current() (kv.Record, bool) { return s.cur, true }
func (s *sliceCursor) Close()                     { s.disposed = true }

func keyFn(r kv.Record) string { return string(r.Key) }
func cmp(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func drain(t *testing.T, it *Iterator[kv.Record, string, kv.Record]) []kv.Record {
	t.Helper()
	var out []kv.Record
	ctx := context.Background()
	for {
		state, err := it.Advance(ctx)
		require.NoError(t, err)
		if state == kv.End {
			return out
		}
		v, ok := it.Current()
		require.True(t, ok)
		out = append(out, v)
	}
}

func keys(recs []kv.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = string(r.Key)
	}
	return out
}

// Scenario 1: merge two streams with unique keys.
func TestUnionUniqueKeys(t *testing.T) {
	a := newSliceCursor(rec("1", "a"), rec("3", "c"), rec("5", "e"))
	b := newSliceCursor(rec("2", "b"), rec("4", "d"))
	it, err := Union[kv.Record, string]([]iter.Cursor[kv.Record]{a, b}, keyFn, cmp)
	require.NoError(t, err)

	out := drain(t, it)
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, keys(out))
	require.Equal(t, "a", string(out[0].Value))
}

// Scenario 2: colliding keys, lowest cursor_id wins the value.
func TestUnionCollidingKeysTieBreak(t *testing.T) {
	a := newSliceCursor(rec("1", "alpha"), rec("3", "gamma"))
	b := newSliceCursor(rec("1", "beta"), rec("2", "delta"), rec("3", "epsilon"))
	it, err := Union[kv.Record, string]([]iter.Cursor[kv.Record]{a, b}, keyFn, cmp)
	require.NoError(t, err)

	out := drain(t, it)
	require.Equal(t, []string{"1", "2", "3"}, keys(out))
	require.Equal(t, "alpha", string(out[0].Value))
	require.Equal(t, "delta", string(out[1].Value))
	require.Equal(t, "gamma", string(out[2].Value))
}

// Scenario 3: intersect three streams.
func TestIntersectThreeStreams(t *testing.T) {
	a := newSliceCursor(rec("1", ""), rec("2", ""), rec("3", ""), rec("5", ""), rec("8", ""))
	b := newSliceCursor(rec("2", ""), rec("3", ""), rec("5", ""), rec("7", ""))
	c := newSliceCursor(rec("3", ""), rec("5", ""), rec("9", ""))
	it, err := Intersect[kv.Record, string]([]iter.Cursor[kv.Record]{a, b, c}, keyFn, cmp)
	require.NoError(t, err)

	out := drain(t, it)
	require.Equal(t, []string{"3", "5"}, keys(out))
}

// Scenario 4: except.
func TestExcept(t *testing.T) {
	p := newSliceCursor(rec("1", ""), rec("2", ""), rec("3", ""), rec("4", ""), rec("5", ""))
	n1 := newSliceCursor(rec("2", ""), rec("4", ""))
	n2 := newSliceCursor(rec("5", ""), rec("6", ""))
	it, err := Except[kv.Record, string]([]iter.Cursor[kv.Record]{p, n1, n2}, keyFn, cmp)
	require.NoError(t, err)

	out := drain(t, it)
	require.Equal(t, []string{"1", "3"}, keys(out))
}

// Except is not commutative: only input 0 contributes records.
func TestExceptIsNotCommutative(t *testing.T) {
	p := newSliceCursor(rec("1", ""), rec("2", ""))
	n := newSliceCursor(rec("1", ""))
	forward, err := Except[kv.Record, string]([]iter.Cursor[kv.Record]{p, n}, keyFn, cmp)
	require.NoError(t, err)
	require.Equal(t, []string{"2"}, keys(drain(t, forward)))

	p2 := newSliceCursor(rec("1", ""))
	n2 := newSliceCursor(rec("1", ""), rec("2", ""))
	backward, err := Except[kv.Record, string]([]iter.Cursor[kv.Record]{p2, n2}, keyFn, cmp)
	require.NoError(t, err)
	require.Empty(t, drain(t, backward))
}

// Round-trip: union([s]) == distinct_by_key(s).
func TestUnionSingleSourceIsDistinctByKey(t *testing.T) {
	s := newSliceCursor(rec("1", "a"), rec("1", "a-dup"), rec("2", "b"))
	it, err := Union[kv.Record, string]([]iter.Cursor[kv.Record]{s}, keyFn, cmp)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, keys(drain(t, it)))
}

// Round-trip: intersect([s, s]) == distinct_by_key(s).
func TestIntersectSameSourceTwiceIsDistinctByKey(t *testing.T) {
	a := newSliceCursor(rec("1", ""), rec("2", ""), rec("2", ""), rec("3", ""))
	b := newSliceCursor(rec("1", ""), rec("2", ""), rec("2", ""), rec("3", ""))
	it, err := Intersect[kv.Record, string]([]iter.Cursor[kv.Record]{a, b}, keyFn, cmp)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, keys(drain(t, it)))
}

// Round-trip: except(s, s) == empty.
func TestExceptSelfIsEmpty(t *testing.T) {
	a := newSliceCursor(rec("1", ""), rec("2", ""), rec("3", ""))
	b := newSliceCursor(rec("1", ""), rec("2", ""), rec("3", ""))
	it, err := Except[kv.Record, string]([]iter.Cursor[kv.Record]{a, b}, keyFn, cmp)
	require.NoError(t, err)
	require.Empty(t, drain(t, it))
}

// Output must be strictly increasing under key_compare for every mode.
func TestOutputIsStrictlyIncreasing(t *testing.T) {
	cases := []struct {
		name  string
		mode  Mode
		a, b  []kv.Record
	}{
		{"union", Union, []kv.Record{rec("a", ""), rec("c", ""), rec("e", "")}, []kv.Record{rec("b", ""), rec("c", ""), rec("d", "")}},
		{"intersect", Intersect, []kv.Record{rec("a", ""), rec("b", ""), rec("c", "")}, []kv.Record{rec("b", ""), rec("c", ""), rec("d", "")}},
		{"except", Except, []kv.Record{rec("a", ""), rec("b", ""), rec("c", "")}, []kv.Record{rec("b", "")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := newSliceCursor(tc.a...), newSliceCursor(tc.b...)
			it, err := New[kv.Record, string, kv.Record](tc.mode, []iter.Cursor[kv.Record]{a, b}, keyFn, identity[kv.Record], cmp, nil)
			require.NoError(t, err)
			out := drain(t, it)
			for i := 1; i < len(out); i++ {
				require.Less(t, string(out[i-1].Key), string(out[i].Key))
			}
		})
	}
}

// Disposing the iterator (via early termination through Take, component E)
// releases every underlying cursor.
func TestTakeDisposesAllInputCursors(t *testing.T) {
	a := newSliceCursor(rec("1", ""), rec("2", ""), rec("3", ""))
	b := newSliceCursor(rec("1", ""), rec("2", ""), rec("3", ""))
	it, err := Union[kv.Record, string]([]iter.Cursor[kv.Record]{a, b}, keyFn, cmp)
	require.NoError(t, err)

	limited := iter.Take[kv.Record](it, 2)
	out, err := limited.ToSlice(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, keys(out))

	require.True(t, it.lifecycle == lifecycleDisposed)
	require.True(t, a.disposed)
	require.True(t, b.disposed)
}

func TestNewRejectsEmptySources(t *testing.T) {
	_, err := Union[kv.Record, string](nil, keyFn, cmp)
	require.Error(t, err)
	require.Equal(t, kv.Contract, kv.KindOf(err))
}

func TestNewRejectsNilCursor(t *testing.T) {
	a := newSliceCursor(rec("1", ""))
	_, err := Union[kv.Record, string]([]iter.Cursor[kv.Record]{a, nil}, keyFn, cmp)
	require.Error(t, err)
	require.Equal(t, kv.Contract, kv.KindOf(err))
}

// A fault from any cursor propagates, and every sibling is disposed first.
func TestFaultDisposesSiblingsAndPropagates(t *testing.T) {
	a := newSliceCursor(rec("1", ""), rec("2", ""))
	b := &faultingCursor{failAfter: 1}
	it, err := Union[kv.Record, string]([]iter.Cursor[kv.Record]{a, b}, keyFn, cmp)
	require.NoError(t, err)

	ctx := context.Background()
	for {
		state, err := it.Advance(ctx)
		if state == kv.Fault {
			require.Error(t, err)
			require.Equal(t, kv.Backend, kv.KindOf(err))
			break
		}
		require.NoError(t, err)
		if state == kv.End {
			t.Fatal("expected a fault before exhaustion")
		}
	}
	require.True(t, a.disposed)
	require.True(t, b.disposed)
}

type faultingCursor struct {
	n, failAfter int
	disposed     bool
	cur          kv.Record
}

func (f *faultingCursor) Advance(context.Context) (kv.CursorState, error) {
	if f.n >= f.failAfter {
		return kv.Fault, kv.NewFault(kv.Backend, errBoom)
	}
	f.n++
	f.cur = rec("9", "")
	return kv.Advanced, nil
}
func (f *faultingCursor) Current() (kv.Record, bool) { return f.cur, true }
func (f *faultingCursor) Close()                     { f.disposed = true }

var errBoom = boomErr{}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }
