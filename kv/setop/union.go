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

// advanceUnion implements spec.md §4.D Union: the ordered merge-sort with
// de-duplication. One call yields exactly one output record, even when
// that requires advancing every cursor tied for the smallest key.
func (it *Iterator[In, K, Out]) advanceUnion(ctx context.Context) (kv.CursorState, error) {
	if it.heap.Len() == 0 {
		return kv.End, nil
	}
	_, minKey, minRec, _ := it.heap.PeekMin()
	it.cur = it.resultFn(minRec)

	for {
		id, key, _, ok := it.heap.PeekMin()
		if !ok || it.cmp(key, minKey) != 0 {
			break
		}
		it.heap.PopMin()
		state, v, err := it.advance(ctx, id)
		if state == kv.Fault {
			return it.abort(err, id)
		}
		if state == kv.Advanced {
			it.heap.Insert(id, it.keyFn(v), v)
		}
		// kv.End: cursor drops out permanently, already removed by PopMin.
	}
	return kv.Advanced, nil
}
