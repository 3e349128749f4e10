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

// mergeHeap is the Merge Heap (component C): a bounded indexed min-heap
// over at most n cursor slots, ordered by a user-supplied key comparator
// and tie-broken by cursor_id (the cursor's position in the constructor
// list), which is what makes the merge order stable.
//
// It is addressed by cursor_id rather than by container/heap's
// index-free API because Except needs to remove an arbitrary slot by
// identity (mergeHeap.Remove), and Union/Intersect need to reinsert the
// same cursor_id after re-advancing it - both awkward with
// container/heap's slice-shuffling model. The swim/sink/parallel
// pq (position->id) / qp (id->position) arrays below follow the indexed
// binary heap used for the segment-merge priority queue elsewhere in this
// codebase; what's added here is the cursor_id tie-break and the
// identity-addressed Remove that Except needs.
type mergeHeap[R any, K any] struct {
	cmp func(a, b K) int

	n  int   // number of occupied slots
	pq []int // pq[1..n] = cursor_id at heap position i (1-based)
	qp []int // qp[cursor_id] = heap position, or -1 if absent

	keys    []K
	records []R
}

// newMergeHeap allocates a heap with room for n cursors, addressed by
// cursor_id in [0, n).
func newMergeHeap[R any, K any](n int, cmp func(a, b K) int) *mergeHeap[R, K] {
	h := &mergeHeap[R, K]{
		cmp:     cmp,
		pq:      make([]int, n+1),
		qp:      make([]int, n),
		keys:    make([]K, n),
		records: make([]R, n),
	}
	for i := range h.qp {
		h.qp[i] = -1
	}
	return h
}

func (h *mergeHeap[R, K]) Len() int { return h.n }

// Contains reports whether cursorID currently has an entry in the heap.
func (h *mergeHeap[R, K]) Contains(cursorID int) bool { return h.qp[cursorID] != -1 }

// Get returns the current key/record cached for cursorID, if present.
func (h *mergeHeap[R, K]) Get(cursorID int) (key K, rec R, ok bool) {
	if h.qp[cursorID] == -1 {
		return key, rec, false
	}
	return h.keys[cursorID], h.records[cursorID], true
}

// MaxKey returns the largest key currently held, scanning linearly:
// Intersect needs it only once per pass of its outer loop, over at most N
// cursors, so the O(log N) heap ordering (built for Union's per-record
// pop/reinsert) isn't worth maintaining a second index for.
func (h *mergeHeap[R, K]) MaxKey() (cursorID int, key K, ok bool) {
	found := false
	for id, pos := range h.qp {
		if pos == -1 {
			continue
		}
		if !found || h.cmp(h.keys[id], key) > 0 {
			cursorID, key = id, h.keys[id]
			found = true
		}
	}
	return cursorID, key, found
}

// Insert adds (or, if already present, overwrites and re-heapifies) the
// entry for cursorID.
func (h *mergeHeap[R, K]) Insert(cursorID int, key K, rec R) {
	h.keys[cursorID] = key
	h.records[cursorID] = rec
	if h.qp[cursorID] != -1 {
		h.swim(h.qp[cursorID])
		h.sink(h.qp[cursorID])
		return
	}
	h.n++
	h.qp[cursorID] = h.n
	h.pq[h.n] = cursorID
	h.swim(h.n)
}

// PeekMin returns the smallest entry without removing it.
func (h *mergeHeap[R, K]) PeekMin() (cursorID int, key K, rec R, ok bool) {
	if h.n == 0 {
		return 0, key, rec, false
	}
	id := h.pq[1]
	return id, h.keys[id], h.records[id], true
}

// PopMin removes and returns the smallest entry.
func (h *mergeHeap[R, K]) PopMin() (cursorID int, key K, rec R, ok bool) {
	if h.n == 0 {
		return 0, key, rec, false
	}
	id := h.pq[1]
	key, rec = h.keys[id], h.records[id]
	h.removeAt(h.qp[id])
	return id, key, rec, true
}

// Remove drops cursorID's entry, wherever it sits in the heap. Used by
// Except and Intersect when one of their input cursors exhausts.
func (h *mergeHeap[R, K]) Remove(cursorID int) bool {
	pos := h.qp[cursorID]
	if pos == -1 {
		return false
	}
	h.removeAt(pos)
	return true
}

func (h *mergeHeap[R, K]) removeAt(pos int) {
	id := h.pq[pos]
	h.exchange(pos, h.n)
	h.n--
	if pos <= h.n {
		h.swim(pos)
		h.sink(pos)
	}
	h.qp[id] = -1
	var zeroK K
	var zeroR R
	h.keys[id] = zeroK
	h.records[id] = zeroR
}

// less reports whether the entry at heap position i sorts before j:
// smaller key first, cursor_id ascending on ties.
func (h *mergeHeap[R, K]) less(i, j int) bool {
	idI, idJ := h.pq[i], h.pq[j]
	c := h.cmp(h.keys[idI], h.keys[idJ])
	if c != 0 {
		return c < 0
	}
	return idI < idJ
}

func (h *mergeHeap[R, K]) exchange(i, j int) {
	h.pq[i], h.pq[j] = h.pq[j], h.pq[i]
	h.qp[h.pq[i]] = i
	h.qp[h.pq[j]] = j
}

func (h *mergeHeap[R, K]) swim(k int) {
	for k > 1 && h.less(k, k/2) {
		h.exchange(k, k/2)
		k /= 2
	}
}

func (h *mergeHeap[R, K]) sink(k int) {
	for 2*k <= h.n {
		j := 2 * k
		if j < h.n && h.less(j+1, j) {
			j++
		}
		if !h.less(j, k) {
			break
		}
		h.exchange(k, j)
		k = j
	}
}
