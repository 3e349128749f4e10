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

package rangeread

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fdbgo/fdb/kv"
	"github.com/fdbgo/fdb/remotedb/memkv"
)

func fixture() []kv.Record {
	return []kv.Record{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
		{Key: []byte("d"), Value: []byte("4")},
		{Key: []byte("e"), Value: []byte("5")},
	}
}

func drainKeys(t *testing.T, r *Reader) []string {
	t.Helper()
	var out []string
	ctx := context.Background()
	for {
		state, err := r.Advance(ctx)
		require.NoError(t, err)
		if state == kv.End {
			return out
		}
		rec, ok := r.Current()
		require.True(t, ok)
		out = append(out, string(rec.Key))
	}
}

func TestReaderPagesWholeRange(t *testing.T) {
	store := memkv.New(fixture(), 2)
	tx := memkv.NewTxn(context.Background(), false)
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(), nil)
	require.NoError(t, err)

	out := drainKeys(t, r)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, out)
	require.Greater(t, store.Fetches(), 1) // page size 2 over 5 records forces multiple fetches
}

func TestReaderRespectsLimit(t *testing.T) {
	store := memkv.New(fixture(), 2)
	tx := memkv.NewTxn(context.Background(), false)
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(kv.WithLimit(3)), nil)
	require.NoError(t, err)

	out := drainKeys(t, r)
	require.Equal(t, []string{"a", "b", "c"}, out)
}

func TestReaderReverseDeliversDescending(t *testing.T) {
	store := memkv.New(fixture(), 2)
	tx := memkv.NewTxn(context.Background(), false)
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(kv.Reversed()), nil)
	require.NoError(t, err)

	out := drainKeys(t, r)
	require.Equal(t, []string{"e", "d", "c", "b", "a"}, out)
}

func TestReaderExactModeRequiresLimit(t *testing.T) {
	_, err := New("0", memkv.NewTxn(context.Background(), false), memkv.New(fixture(), 2),
		kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(kv.WithStreamingMode(kv.StreamingModeExact)), nil)
	require.Error(t, err)
	require.Equal(t, kv.Contract, kv.KindOf(err))
}

func TestReaderSurfacesEnsureReadableFault(t *testing.T) {
	store := memkv.New(fixture(), 2)
	tx := memkv.NewTxn(context.Background(), false)
	tx.Close()
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(), nil)
	require.NoError(t, err)

	state, err := r.Advance(context.Background())
	require.Equal(t, kv.Fault, state)
	require.Equal(t, kv.Contract, kv.KindOf(err))
}

func TestReaderCancellationSurfacesAsFault(t *testing.T) {
	store := memkv.New(fixture(), 2)
	tx := memkv.NewTxn(context.Background(), false)
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, err := r.Advance(ctx)
	require.Equal(t, kv.Fault, state)
	require.Equal(t, kv.Cancelled, kv.KindOf(err))
	require.Equal(t, 0, store.Fetches())
}

func TestReaderAdvanceAfterEndIsIdempotent(t *testing.T) {
	store := memkv.New(fixture(), 10)
	tx := memkv.NewTxn(context.Background(), false)
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(), nil)
	require.NoError(t, err)

	drainKeys(t, r)
	state, err := r.Advance(context.Background())
	require.NoError(t, err)
	require.Equal(t, kv.End, state)
}

func TestReaderWarmBuffersFirstPageWithoutAdvancing(t *testing.T) {
	store := memkv.New(fixture(), 2)
	tx := memkv.NewTxn(context.Background(), false)
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(), nil)
	require.NoError(t, err)

	require.NoError(t, r.Warm(context.Background()))
	require.Equal(t, 1, store.Fetches())
	_, ok := r.Current()
	require.False(t, ok) // Warm never advances the logical cursor position

	out := drainKeys(t, r)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, out)
	// the buffered page from Warm is reused, so Advance didn't re-fetch it
	require.Equal(t, 3, store.Fetches())
}

func TestReaderWarmIsNoopAfterFirstAdvance(t *testing.T) {
	store := memkv.New(fixture(), 2)
	tx := memkv.NewTxn(context.Background(), false)
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(), nil)
	require.NoError(t, err)

	_, err = r.Advance(context.Background())
	require.NoError(t, err)
	fetchesAfterAdvance := store.Fetches()

	require.NoError(t, r.Warm(context.Background()))
	require.Equal(t, fetchesAfterAdvance, store.Fetches())
}

func TestReaderCloseIsIdempotent(t *testing.T) {
	store := memkv.New(fixture(), 2)
	tx := memkv.NewTxn(context.Background(), false)
	r, err := New("0", tx, store, kv.Range([]byte("a"), []byte("z")), kv.NewRangeOptions(), nil)
	require.NoError(t, err)
	r.Close()
	r.Close()
}
