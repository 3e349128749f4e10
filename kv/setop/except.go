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

// advanceExcept implements spec.md §4.D Except. Cursor 0 is the positive
// side P; cursors 1..N-1 are the negative sides. Only P's records ever
// reach the output.
func (it *Iterator[In, K, Out]) advanceExcept(ctx context.Context) (kv.CursorState, error) {
	n := len(it.cursors)
	for {
		kp, _, ok := it.heap.Get(0)
		if !ok {
			return kv.End, nil
		}

		for i := 1; i < n; i++ {
			key, _, present := it.heap.Get(i)
			if !present {
				continue
			}
			for it.cmp(key, kp) < 0 {
				state, v, err := it.advance(ctx, i)
				if state == kv.Fault {
					return it.abort(err, i)
				}
				if state == kv.End {
					it.heap.Remove(i)
					break
				}
				key = it.keyFn(v)
				it.heap.Insert(i, key, v)
			}
		}

		blocked := false
		for i := 1; i < n; i++ {
			key, _, present := it.heap.Get(i)
			if present && it.cmp(key, kp) == 0 {
				blocked = true
				break
			}
		}

		if blocked {
			state, v, err := it.advance(ctx, 0)
			if state == kv.Fault {
				return it.abort(err, 0)
			}
			if state == kv.End {
				it.heap.Remove(0)
				return kv.End, nil
			}
			it.heap.Insert(0, it.keyFn(v), v)
			continue
		}

		_, recP, _ := it.heap.Get(0)
		it.cur = it.resultFn(recP)

		state, v, err := it.advance(ctx, 0)
		if state == kv.Fault {
			return it.abort(err, 0)
		}
		if state == kv.End {
			it.heap.Remove(0)
		} else {
			it.heap.Insert(0, it.keyFn(v), v)
		}
		return kv.Advanced, nil
	}
}
