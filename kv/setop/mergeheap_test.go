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
	"testing"

	"github.com/stretchr/testify/require"
)

func intCmp(a, b int) int { return a - b }

func TestMergeHeapStableTieBreak(t *testing.T) {
	r := require.New(t)
	h := newMergeHeap[string, int](3, intCmp)

	// Three cursors all at key 5: cursor_id ascending must win ties.
	h.Insert(2, 5, "from-2")
	h.Insert(0, 5, "from-0")
	h.Insert(1, 5, "from-1")

	id, key, rec, ok := h.PeekMin()
	r.True(ok)
	r.Equal(0, id)
	r.Equal(5, key)
	r.Equal("from-0", rec)
}

func TestMergeHeapPopMinOrdersByKeyThenID(t *testing.T) {
	r := require.New(t)
	h := newMergeHeap[int, int](4, intCmp)
	h.Insert(3, 10, 103)
	h.Insert(1, 2, 101)
	h.Insert(0, 2, 100)
	h.Insert(2, 7, 102)

	var order []int
	for h.Len() > 0 {
		id, _, _, ok := h.PopMin()
		r.True(ok)
		order = append(order, id)
	}
	r.Equal([]int{0, 1, 2, 3}, order)
}

func TestMergeHeapRemove(t *testing.T) {
	r := require.New(t)
	h := newMergeHeap[int, int](3, intCmp)
	h.Insert(0, 1, 0)
	h.Insert(1, 2, 0)
	h.Insert(2, 3, 0)

	r.True(h.Remove(1))
	r.False(h.Contains(1))
	r.Equal(2, h.Len())

	id, key, _, ok := h.PeekMin()
	r.True(ok)
	r.Equal(0, id)
	r.Equal(1, key)

	r.False(h.Remove(1)) // already removed
}

func TestMergeHeapMaxKey(t *testing.T) {
	r := require.New(t)
	h := newMergeHeap[int, int](3, intCmp)
	h.Insert(0, 5, 0)
	h.Insert(1, 9, 0)
	h.Insert(2, 1, 0)

	id, key, ok := h.MaxKey()
	r.True(ok)
	r.Equal(1, id)
	r.Equal(9, key)
}
