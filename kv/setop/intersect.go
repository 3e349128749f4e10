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

	"github.com/fdbgo/fdb/kv"
)

// advanceIntersect implements spec.md §4.D Intersect. It may silently
// advance several cursors across more than one logical "loop" pass before
// it finds a record to yield, but never yields more than one record per
// call and never holds more than one cached record per cursor.
func (it *Iterator[In, K, Out]) advanceIntersect(ctx context.Context) (kv.CursorState, error) {
	n := len(it.cursors)
	for {
		if it.heap.Len() < n {
			return kv.End, nil
		}
		_, kmax, _ := it.heap.MaxKey()

		for id := 0; id < n; id++ {
			key, _, _ := it.heap.Get(id)
			for it.cmp(key, kmax) < 0 {
				state, v, err := it.advance(ctx, id)
				if state == kv.Fault {
					return it.abort(err, id)
				}
				if state == kv.End {
					it.heap.Remove(id)
					return kv.End, nil
				}
				key = it.keyFn(v)
				it.heap.Insert(id, key, v)
			}
		}

		allEqual := true
		for id := 0; id < n; id++ {
			key, _, _ := it.heap.Get(id)
			if it.cmp(key, kmax) != 0 {
				allEqual = false
				break
			}
		}
		if !allEqual {
			continue
		}

		_, rec0, _ := it.heap.Get(0)
		it.cur = it.resultFn(rec0)

		for id := 0; id < n; id++ {
			// Step past every record equal to kmax so a key repeated
			// within one input is emitted only once.
			for {
				state, v, err := it.advance(ctx, id)
				if state == kv.Fault {
					return it.abort(err, id)
				}
				if state == kv.End {
					// Leaves heap.Len() < n: the next call's check at the
					// top of this function reports End.
					it.heap.Remove(id)
					break
				}
				key := it.keyFn(v)
				it.heap.Insert(id, key, v)
				if it.cmp(key, kmax) > 0 {
					break
				}
			}
		}
		return kv.Advanced, nil
	}
}
